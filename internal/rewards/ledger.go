// Package rewards implements the loyalty ledger: converting points
// into single-use percentage discounts and applying them at checkout.
// The ledger owns the business preconditions; the storage-level
// atomicity (row lock, debit+create in one transaction) lives in the
// store implementation.
package rewards

import (
	"context"
	"errors"

	"github.com/mesaqr/table-ordering/internal/model"
	"github.com/mesaqr/table-ordering/internal/repository"
)

// ErrRewardInactive is returned when a redemption targets a reward
// the back office has disabled.
var ErrRewardInactive = errors.New("reward is not active")

// Store is the persistence surface the ledger needs.  It is
// implemented by repository.RewardRepo; tests substitute a fake.
type Store interface {
	// ActiveDiscount returns the user's unconsumed discount, or nil.
	ActiveDiscount(ctx context.Context, userID uint64) (*model.ActiveDiscount, error)
	// PointsBalance returns the current balance (0 for unknown users).
	PointsBalance(ctx context.Context, userID uint64) (int64, error)
	// Redeem atomically debits the balance and creates the discount,
	// re-checking both preconditions under a lock.
	Redeem(ctx context.Context, userID uint64, reward model.Reward) (*model.ActiveDiscount, error)
	// Consume marks a discount used and links the order.
	Consume(ctx context.Context, discountID, orderID uint64) error
}

// Ledger coordinates redemption and checkout application of rewards.
type Ledger struct {
	store Store
}

// NewLedger returns a Ledger backed by the given store.
func NewLedger(store Store) *Ledger { return &Ledger{store: store} }

// Redeem exchanges points for an active discount.  Preconditions: the
// reward is active, the user holds no unconsumed discount, and the
// balance covers the cost.  The cheap reads reject early; the store
// re-checks both conditions under its row lock, so a concurrent
// redemption from a second session loses the race and fails there
// (first writer wins).  No partial effects on rejection.
func (l *Ledger) Redeem(ctx context.Context, userID uint64, reward model.Reward) (*model.ActiveDiscount, error) {
	if !reward.IsActive {
		return nil, ErrRewardInactive
	}
	existing, err := l.store.ActiveDiscount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, repository.ErrActiveDiscountExists
	}
	balance, err := l.store.PointsBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < int64(reward.PuntosReq) {
		return nil, repository.ErrInsufficientPoints
	}
	return l.store.Redeem(ctx, userID, reward)
}

// ApplyAtCheckout is the read-only lookup the checkout uses: it
// returns the user's unconsumed discount and its percentage, or
// (nil, 0) when the user has none.  Nothing is mutated.
func (l *Ledger) ApplyAtCheckout(ctx context.Context, userID uint64) (*model.ActiveDiscount, uint8, error) {
	d, err := l.store.ActiveDiscount(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if d == nil {
		return nil, 0, nil
	}
	return d, d.DescuentoPct, nil
}

// Consume marks the discount used by the given order.  Invoked
// exactly once per checkout, after the order exists; the store's
// consumido guard turns an accidental second call into
// repository.ErrAlreadyConsumed instead of double-linking.
func (l *Ledger) Consume(ctx context.Context, discount *model.ActiveDiscount, orderID uint64) error {
	return l.store.Consume(ctx, discount.ID, orderID)
}
