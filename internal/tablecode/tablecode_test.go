package tablecode

import (
	"strconv"
	"strings"
	"testing"
)

const testSecret = "mesa-secreta"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := NewEncoder(testSecret)
	for n := uint32(1); n <= legacyMax; n++ {
		code, err := e.Encode(n)
		if err != nil {
			t.Fatalf("Encode(%d): %v", n, err)
		}
		got, err := e.Decode(code)
		if err != nil {
			t.Fatalf("Decode(%q): %v", code, err)
		}
		if got != n {
			t.Errorf("Decode(Encode(%d)) = %d", n, got)
		}
	}
}

func TestDecodeLegacyPlainInteger(t *testing.T) {
	e := NewEncoder(testSecret)
	for _, n := range []uint32{1, 7, 42, 100} {
		got, err := e.Decode(strconv.FormatUint(uint64(n), 10))
		if err != nil {
			t.Fatalf("Decode(%d): %v", n, err)
		}
		if got != n {
			t.Errorf("legacy Decode(%d) = %d", n, got)
		}
	}
	// Plain integers above the legacy cap are not accepted as-is.
	if _, err := e.Decode("101"); err == nil {
		t.Error("Decode(101) accepted a plain integer above the legacy cap")
	}
}

func TestDecodeRejectsZeroAndNegative(t *testing.T) {
	e := NewEncoder(testSecret)
	for _, raw := range []string{"0", "-3", "-1", ""} {
		if _, err := e.Decode(raw); err == nil {
			t.Errorf("Decode(%q) should be invalid", raw)
		}
	}
}

func TestDecodeRejectsTamperedHash(t *testing.T) {
	e := NewEncoder(testSecret)
	code, err := e.Encode(17)
	if err != nil {
		t.Fatal(err)
	}
	// Flip the first token character to a different base-36 digit.
	flipped := "z"
	if strings.HasPrefix(code, "z") {
		flipped = "a"
	}
	if _, err := e.Decode(flipped + code[1:]); err == nil {
		t.Error("tampered token was accepted")
	}
	// A code generated with a different secret must not verify.
	other, err := NewEncoder("otro-secreto").Encode(17)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Decode(other); err == nil {
		t.Error("code from a foreign secret was accepted")
	}
}

func TestDecodeRejectsBadSuffix(t *testing.T) {
	e := NewEncoder(testSecret)
	code, err := e.Encode(25)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Decode(code[:tokenWidth] + "!!"); err == nil {
		t.Error("non-base-36 suffix was accepted")
	}
	if _, err := e.Decode(code[:tokenWidth]); err == nil {
		t.Error("code with no suffix was accepted")
	}
}

func TestDecodeRejectsNonCanonicalSuffix(t *testing.T) {
	e := NewEncoder(testSecret)
	code, err := e.Encode(10) // suffix "a"
	if err != nil {
		t.Fatal(err)
	}
	// ParseUint reads "A" and "0a" as 10, but Encode never emits them.
	if _, err := e.Decode(code[:tokenWidth] + strings.ToUpper(code[tokenWidth:])); err == nil {
		t.Error("uppercase suffix variant was accepted")
	}
	if _, err := e.Decode(code[:tokenWidth] + "0" + code[tokenWidth:]); err == nil {
		t.Error("zero-padded suffix variant was accepted")
	}
}

func TestMaxTableBoundary(t *testing.T) {
	e := NewEncoder(testSecret)
	code, err := e.Encode(MaxTableNumber)
	if err != nil {
		t.Fatalf("Encode(max): %v", err)
	}
	got, err := e.Decode(code)
	if err != nil || got != MaxTableNumber {
		t.Fatalf("Decode(max code) = %d, %v", got, err)
	}
	if _, err := e.Encode(MaxTableNumber + 1); err == nil {
		t.Error("Encode accepted a table above the maximum")
	}
	if _, err := e.Encode(0); err == nil {
		t.Error("Encode accepted table 0")
	}
	// A correctly hashed suffix above the maximum is still rejected.
	over := strconv.FormatUint(uint64(MaxTableNumber+1), 36)
	if _, err := e.Decode(e.token(over) + over); err == nil {
		t.Error("Decode accepted a table above the maximum")
	}
}

func TestDecodeArbitraryGarbage(t *testing.T) {
	e := NewEncoder(testSecret)
	for _, raw := range []string{"abcdef", "qqqqqqq", "   ", "mesa-7", "0000001"} {
		if _, err := e.Decode(raw); err == nil {
			t.Errorf("Decode(%q) should be invalid", raw)
		}
	}
}
