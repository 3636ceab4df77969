// Package tablecode encodes and verifies the opaque codes embedded in the
// QR sticker of each table.  A code is the concatenation of a fixed-width
// hash token and the base-36 representation of the table number.  The hash
// token is derived from a shared secret, so a tampered code fails the
// recompute-and-compare check.  Codes are one-way verifiable only; they do
// not hide the table number.
package tablecode

import (
	"errors"
	"strconv"
	"strings"
)

// MaxTableNumber is the highest table number a code may carry.  The dining
// room layout never exceeds this; anything above is treated as tampering.
const MaxTableNumber = 300

// legacyMax bounds the plain-integer fallback accepted for stickers printed
// before hashed codes were introduced.
const legacyMax = 100

// tokenWidth is the number of base-36 characters in the hash segment.
const tokenWidth = 6

// tokenSpace is 36^tokenWidth; hashes are reduced modulo this value so the
// token always fits the fixed width.
const tokenSpace = 36 * 36 * 36 * 36 * 36 * 36

// ErrInvalidCode is returned for any code that cannot be resolved to a
// table: bad characters, out-of-range numbers or a hash mismatch.  Callers
// render it as a "table not found" state, never as a failure.
var ErrInvalidCode = errors.New("invalid table code")

// Encoder derives and verifies table codes with a fixed shared secret.
type Encoder struct {
	secret string
}

// NewEncoder returns an Encoder bound to the given secret.  The secret must
// match the one used when the QR stickers were generated.
func NewEncoder(secret string) *Encoder { return &Encoder{secret: secret} }

// Encode returns the opaque code for table n.  It fails when n is zero or
// exceeds MaxTableNumber.
func (e *Encoder) Encode(n uint32) (string, error) {
	if n == 0 || n > MaxTableNumber {
		return "", ErrInvalidCode
	}
	suffix := strconv.FormatUint(uint64(n), 36)
	return e.token(suffix) + suffix, nil
}

// Decode resolves a raw scan string to a table number.  Plain integers up
// to legacyMax are accepted directly for old stickers.  Everything else is
// split into hash token and base-36 suffix and verified by recomputing the
// token.  Any parse failure or mismatch yields ErrInvalidCode.
func (e *Encoder) Decode(raw string) (uint32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidCode
	}
	// Legacy path: stickers printed before hashing carried the bare number.
	// Hashed codes are always longer than tokenWidth characters, and their
	// all-digit forms parse to values far above legacyMax, so the two paths
	// cannot collide.
	if n, err := strconv.ParseUint(raw, 10, 32); err == nil && n >= 1 && n <= legacyMax {
		return uint32(n), nil
	}
	if len(raw) <= tokenWidth {
		return 0, ErrInvalidCode
	}
	token := raw[:tokenWidth]
	suffix := raw[tokenWidth:]
	n, err := strconv.ParseUint(suffix, 36, 32)
	if err != nil || n == 0 || n > MaxTableNumber {
		return 0, ErrInvalidCode
	}
	// ParseUint is laxer than Encode (uppercase, leading zeros); only
	// the exact string Encode produces is a valid code.
	canonical := strconv.FormatUint(n, 36)
	if suffix != canonical || e.token(canonical) != token {
		return 0, ErrInvalidCode
	}
	return uint32(n), nil
}

// token computes the fixed-width hash segment for a base-36 suffix.  The
// hash is the classic shift-and-subtract accumulation (h*31 + c) over the
// secret concatenated with the suffix, reduced into the base-36 token space
// and left-padded with zeros.
func (e *Encoder) token(suffix string) string {
	var h int32
	for _, r := range e.secret + suffix {
		h = (h << 5) - h + r
	}
	v := uint64(uint32(h)) % tokenSpace
	s := strconv.FormatUint(v, 36)
	if pad := tokenWidth - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}
