package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesaqr/table-ordering/internal/cart"
	"github.com/mesaqr/table-ordering/internal/model"
)

// ErrFlowNotFound is returned when a flow token does not resolve to a
// live snapshot (expired, submitted elsewhere, or never existed).
var ErrFlowNotFound = errors.New("checkout flow not found")

// snapshot is the serialized form of a Flow stored between requests.
// The attached receipt is intentionally absent: it only lives inside
// the submit request that carries it.
type snapshot struct {
	ID            string                `json:"id"`
	State         State                 `json:"state"`
	UserID        *uint64               `json:"usuario_id,omitempty"`
	Guest         *GuestInfo            `json:"invitado,omitempty"`
	TableNumber   *uint32               `json:"numero_mesa,omitempty"`
	Items         []cart.Item           `json:"items"`
	Method        string                `json:"metodo_pago,omitempty"`
	TenderedCents *uint32               `json:"efectivo_cents,omitempty"`
	Discount      *model.ActiveDiscount `json:"descuento,omitempty"`
	OrderID       uint64                `json:"pedido_id,omitempty"`
}

// Store keeps checkout flows in Redis under a TTL, replacing the
// provider-style global cart of the original design with an explicit
// per-session aggregate.  Abandoned flows simply expire.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a Store writing flows with the given lifetime.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// NewFlowID returns a random 32-hex-character flow token.
func NewFlowID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func key(id string) string { return "checkout:flow:" + id }

func submitKey(id string) string { return "checkout:submitting:" + id }

// submitLockTTL caps how long a submission marker survives if its
// release is lost with the request.
const submitLockTTL = time.Minute

// Save serializes the flow and refreshes its TTL.
func (s *Store) Save(ctx context.Context, f *Flow) error {
	snap := snapshot{
		ID:            f.ID,
		State:         f.State,
		UserID:        f.UserID,
		Guest:         f.Guest,
		TableNumber:   f.TableNumber,
		Items:         f.Cart.Items(),
		Method:        f.Method,
		TenderedCents: f.TenderedCents,
		Discount:      f.Discount,
		OrderID:       f.OrderID,
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(f.ID), body, s.ttl).Err()
}

// Load rebuilds a flow from its snapshot.
func (s *Store) Load(ctx context.Context, id string) (*Flow, error) {
	body, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, err
	}
	return &Flow{
		ID:            snap.ID,
		State:         snap.State,
		UserID:        snap.UserID,
		Guest:         snap.Guest,
		TableNumber:   snap.TableNumber,
		Cart:          cart.Restore(snap.Items),
		Method:        snap.Method,
		TenderedCents: snap.TenderedCents,
		Discount:      snap.Discount,
		OrderID:       snap.OrderID,
	}, nil
}

// Delete drops a finished or abandoned flow.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, key(id)).Err()
}

// TryLockSubmit marks the flow as mid-submission so two concurrent
// submit requests cannot both create an order from the same snapshot.
// It reports false when another request already holds the marker.
func (s *Store) TryLockSubmit(ctx context.Context, id string) (bool, error) {
	return s.rdb.SetNX(ctx, submitKey(id), 1, submitLockTTL).Result()
}

// UnlockSubmit releases the submission marker.  Once a submission
// succeeded the persisted flow state rejects replays on its own.
func (s *Store) UnlockSubmit(ctx context.Context, id string) {
	s.rdb.Del(ctx, submitKey(id))
}
