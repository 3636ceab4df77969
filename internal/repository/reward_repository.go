package repository

import (
	"context"
	"database/sql"

	"github.com/mesaqr/table-ordering/internal/model"
)

// RewardRepo covers the loyalty tables: the admin-managed rewards
// catalog (recompensas), per-user balances (puntos_usuario) and
// redeemed discounts awaiting use (descuentos_activos).  The
// single-active-discount and non-negative-balance invariants are
// enforced here under a row lock rather than by schema constraints.
type RewardRepo struct {
	db *sql.DB
}

// NewRewardRepo returns a RewardRepo bound to the given database.
func NewRewardRepo(db *sql.DB) *RewardRepo { return &RewardRepo{db: db} }

const rewardCols = `id, nombre, puntos_requeridos, descuento_pct, is_active, created_at`

func scanReward(sc interface{ Scan(...any) error }) (model.Reward, error) {
	var rw model.Reward
	err := sc.Scan(&rw.ID, &rw.Nombre, &rw.PuntosReq, &rw.DescuentoPct, &rw.IsActive, &rw.CreatedAt)
	return rw, err
}

// ListActive returns the rewards customers may redeem, cheapest
// first.
func (r *RewardRepo) ListActive(ctx context.Context) ([]model.Reward, error) {
	return r.list(ctx, `SELECT `+rewardCols+` FROM recompensas WHERE is_active = 1 ORDER BY puntos_requeridos`)
}

// ListAll returns the whole catalog for the back office.
func (r *RewardRepo) ListAll(ctx context.Context) ([]model.Reward, error) {
	return r.list(ctx, `SELECT `+rewardCols+` FROM recompensas ORDER BY puntos_requeridos`)
}

func (r *RewardRepo) list(ctx context.Context, q string) ([]model.Reward, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reward, 0)
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, rows.Err()
}

// GetByID fetches one reward; sql.ErrNoRows when missing.
func (r *RewardRepo) GetByID(ctx context.Context, id uint64) (*model.Reward, error) {
	rw, err := scanReward(r.db.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM recompensas WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return &rw, nil
}

// Create inserts a catalog entry and returns its generated ID.
func (r *RewardRepo) Create(ctx context.Context, rw *model.Reward) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recompensas (nombre, puntos_requeridos, descuento_pct, is_active) VALUES (?,?,?,?)`,
		rw.Nombre, rw.PuntosReq, rw.DescuentoPct, rw.IsActive)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a catalog entry. Returns sql.ErrNoRows when missing.
func (r *RewardRepo) Update(ctx context.Context, rw *model.Reward) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recompensas SET nombre=?, puntos_requeridos=?, descuento_pct=?, is_active=? WHERE id=?`,
		rw.Nombre, rw.PuntosReq, rw.DescuentoPct, rw.IsActive, rw.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PointsBalance returns the user's current balance; a user without a
// puntos_usuario row has balance 0.
func (r *RewardRepo) PointsBalance(ctx context.Context, userID uint64) (int64, error) {
	var puntos int64
	err := r.db.QueryRowContext(ctx,
		`SELECT puntos FROM puntos_usuario WHERE usuario_id = ?`, userID).Scan(&puntos)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return puntos, err
}

const discountCols = `id, usuario_id, recompensa_id, descuento_pct, consumido, pedido_id, created_at, consumed_at`

func scanDiscount(sc interface{ Scan(...any) error }) (model.ActiveDiscount, error) {
	var d model.ActiveDiscount
	var orderID sql.NullInt64
	var consumedAt sql.NullTime
	err := sc.Scan(&d.ID, &d.UserID, &d.RewardID, &d.DescuentoPct, &d.Consumido, &orderID, &d.CreatedAt, &consumedAt)
	if err != nil {
		return d, err
	}
	if orderID.Valid {
		v := uint64(orderID.Int64)
		d.OrderID = &v
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		d.ConsumedAt = &t
	}
	return d, nil
}

// ActiveDiscount returns the single unconsumed discount of a user,
// or nil when none exists.
func (r *RewardRepo) ActiveDiscount(ctx context.Context, userID uint64) (*model.ActiveDiscount, error) {
	const q = `SELECT ` + discountCols + ` FROM descuentos_activos
	           WHERE usuario_id = ? AND consumido = 0 LIMIT 1`
	d, err := scanDiscount(r.db.QueryRowContext(ctx, q, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Redeem converts points into an active discount atomically.  The
// balance row is locked with FOR UPDATE and both preconditions are
// re-checked under the lock, so when two sessions race the first
// writer wins and the second fails its re-check.  No partial effects
// on rejection.
func (r *RewardRepo) Redeem(ctx context.Context, userID uint64, reward model.Reward) (*model.ActiveDiscount, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Ensure the balance row exists so it can be locked.
	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO puntos_usuario (usuario_id, puntos) VALUES (?, 0)`, userID); err != nil {
		return nil, err
	}
	var puntos int64
	if err := tx.QueryRowContext(ctx,
		`SELECT puntos FROM puntos_usuario WHERE usuario_id = ? FOR UPDATE`, userID).Scan(&puntos); err != nil {
		return nil, err
	}

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM descuentos_activos WHERE usuario_id = ? AND consumido = 0`, userID).Scan(&existing); err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrActiveDiscountExists
	}
	if puntos < int64(reward.PuntosReq) {
		return nil, ErrInsufficientPoints
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO descuentos_activos (usuario_id, recompensa_id, descuento_pct) VALUES (?,?,?)`,
		userID, reward.ID, reward.DescuentoPct)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE puntos_usuario SET puntos = puntos - ? WHERE usuario_id = ?`,
		reward.PuntosReq, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	d := model.ActiveDiscount{
		ID:           uint64(id),
		UserID:       userID,
		RewardID:     reward.ID,
		DescuentoPct: reward.DescuentoPct,
	}
	return &d, nil
}

// Consume marks a discount used and links it to the order it was
// applied to.  The guard on consumido protects a retried call from
// linking one discount to two orders: zero affected rows means the
// discount was consumed before and ErrAlreadyConsumed is returned.
func (r *RewardRepo) Consume(ctx context.Context, discountID, orderID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE descuentos_activos SET consumido = 1, pedido_id = ?, consumed_at = NOW()
		 WHERE id = ? AND consumido = 0`,
		orderID, discountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}

// CreditPointsTx adds delivered-order points to a user's balance
// within the caller's transaction (the same one that flips the order
// to entregado, so the credit happens exactly once).
func (r *RewardRepo) CreditPointsTx(ctx context.Context, tx *sql.Tx, userID uint64, puntos uint32) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO puntos_usuario (usuario_id, puntos) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE puntos = puntos + VALUES(puntos)`,
		userID, puntos)
	return err
}
