package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mesaqr/table-ordering/internal/cart"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, time.Minute)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	crt := cart.New()
	require.NoError(t, crt.Add(cart.Item{ProductID: 3, Nombre: "Causa limeña", PrecioCents: 1800, Cantidad: 2}))
	f := NewGuestFlow("feedfacefeedfacefeedfacefeedface", 7, crt)
	require.NoError(t, f.SetGuestInfo(GuestInfo{Nombre: "Ana María"}))
	require.NoError(t, s.Save(ctx, f))

	got, err := s.Load(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, StateSummary, got.State)
	require.NotNil(t, got.TableNumber)
	require.Equal(t, uint32(7), *got.TableNumber)
	require.Equal(t, uint32(3600), got.Cart.SubtotalCents())
	require.NotNil(t, got.Guest)
	require.Equal(t, "Ana María", got.Guest.Nombre)
}

func TestStoreLoadUnknownFlow(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
	require.ErrorIs(t, err, ErrFlowNotFound)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := NewGuestFlow("cafebabecafebabecafebabecafebabe", 2, cart.New())
	require.NoError(t, s.Save(ctx, f))
	require.NoError(t, s.Delete(ctx, f.ID))

	_, err := s.Load(ctx, f.ID)
	require.ErrorIs(t, err, ErrFlowNotFound)
}

func TestSubmitLockIsExclusivePerFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.TryLockSubmit(ctx, "flow-1")
	require.NoError(t, err)
	require.True(t, ok)

	// A second taker is turned away while the first holds the marker.
	ok, err = s.TryLockSubmit(ctx, "flow-1")
	require.NoError(t, err)
	require.False(t, ok)

	// Other flows are unaffected.
	ok, err = s.TryLockSubmit(ctx, "flow-2")
	require.NoError(t, err)
	require.True(t, ok)

	s.UnlockSubmit(ctx, "flow-1")
	ok, err = s.TryLockSubmit(ctx, "flow-1")
	require.NoError(t, err)
	require.True(t, ok)
}
