package rewards

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesaqr/table-ordering/internal/model"
	"github.com/mesaqr/table-ordering/internal/repository"
)

// fakeStore is an in-memory Store recording mutations so tests can
// assert that rejected redemptions leave no trace.
type fakeStore struct {
	balance     int64
	active      *model.ActiveDiscount
	redeems     int
	consumed    map[uint64]uint64 // discount id -> order id
	nextID      uint64
}

func newFakeStore(balance int64) *fakeStore {
	return &fakeStore{balance: balance, consumed: map[uint64]uint64{}, nextID: 1}
}

func (f *fakeStore) ActiveDiscount(ctx context.Context, userID uint64) (*model.ActiveDiscount, error) {
	return f.active, nil
}

func (f *fakeStore) PointsBalance(ctx context.Context, userID uint64) (int64, error) {
	return f.balance, nil
}

func (f *fakeStore) Redeem(ctx context.Context, userID uint64, reward model.Reward) (*model.ActiveDiscount, error) {
	// Mirror the repository's locked re-check.
	if f.active != nil {
		return nil, repository.ErrActiveDiscountExists
	}
	if f.balance < int64(reward.PuntosReq) {
		return nil, repository.ErrInsufficientPoints
	}
	f.redeems++
	f.balance -= int64(reward.PuntosReq)
	f.active = &model.ActiveDiscount{ID: f.nextID, UserID: userID, RewardID: reward.ID, DescuentoPct: reward.DescuentoPct}
	f.nextID++
	return f.active, nil
}

func (f *fakeStore) Consume(ctx context.Context, discountID, orderID uint64) error {
	if _, done := f.consumed[discountID]; done {
		return repository.ErrAlreadyConsumed
	}
	f.consumed[discountID] = orderID
	if f.active != nil && f.active.ID == discountID {
		f.active = nil
	}
	return nil
}

var reward20 = model.Reward{ID: 3, Nombre: "20% de descuento", PuntosReq: 100, DescuentoPct: 20, IsActive: true}

func TestRedeemSuccess(t *testing.T) {
	store := newFakeStore(150)
	l := NewLedger(store)

	d, err := l.Redeem(context.Background(), 7, reward20)
	require.NoError(t, err)
	require.Equal(t, uint8(20), d.DescuentoPct)
	require.Equal(t, int64(50), store.balance)
	require.Equal(t, 1, store.redeems)
}

func TestRedeemRejectsExistingDiscount(t *testing.T) {
	store := newFakeStore(500)
	store.active = &model.ActiveDiscount{ID: 9, UserID: 7, DescuentoPct: 10}
	l := NewLedger(store)

	_, err := l.Redeem(context.Background(), 7, reward20)
	require.ErrorIs(t, err, repository.ErrActiveDiscountExists)
	// The balance is untouched and nothing was created.
	require.Equal(t, int64(500), store.balance)
	require.Equal(t, 0, store.redeems)
}

func TestRedeemRejectsInsufficientPoints(t *testing.T) {
	store := newFakeStore(99)
	l := NewLedger(store)

	_, err := l.Redeem(context.Background(), 7, reward20)
	require.ErrorIs(t, err, repository.ErrInsufficientPoints)
	require.Equal(t, int64(99), store.balance)
	require.Nil(t, store.active)
}

func TestRedeemRejectsInactiveReward(t *testing.T) {
	store := newFakeStore(1000)
	l := NewLedger(store)

	off := reward20
	off.IsActive = false
	_, err := l.Redeem(context.Background(), 7, off)
	require.ErrorIs(t, err, ErrRewardInactive)
	require.Equal(t, 0, store.redeems)
}

func TestApplyAtCheckout(t *testing.T) {
	store := newFakeStore(0)
	l := NewLedger(store)

	d, pct, err := l.ApplyAtCheckout(context.Background(), 7)
	require.NoError(t, err)
	require.Nil(t, d)
	require.Equal(t, uint8(0), pct)

	store.active = &model.ActiveDiscount{ID: 4, UserID: 7, DescuentoPct: 15}
	d, pct, err = l.ApplyAtCheckout(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, uint64(4), d.ID)
	require.Equal(t, uint8(15), pct)
	// Read-only: the discount is still there.
	require.NotNil(t, store.active)
}

func TestConsumeLinksOrderOnce(t *testing.T) {
	store := newFakeStore(200)
	l := NewLedger(store)

	d, err := l.Redeem(context.Background(), 7, reward20)
	require.NoError(t, err)

	require.NoError(t, l.Consume(context.Background(), d, 31))
	require.Equal(t, uint64(31), store.consumed[d.ID])

	err = l.Consume(context.Background(), d, 32)
	require.ErrorIs(t, err, repository.ErrAlreadyConsumed)
	require.Equal(t, uint64(31), store.consumed[d.ID])
}
