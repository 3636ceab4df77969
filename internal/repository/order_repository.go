package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mesaqr/table-ordering/internal/model"
)

// OrderRepo provides operations for orders and their line items.
// An order groups the captured cart lines under one status and
// payment method.  All timestamp fields are stored in UTC.  Order
// and item creation happen inside a caller-provided transaction so
// the pair is atomic; everything after the commit (discount
// consumption, event publishing) is deliberately outside it.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new order within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// record.  The caller must commit or rollback.  Estado should be one
// of the model.Status* values.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO pedidos
	           (usuario_id, es_invitado, nombre_invitado, telefono_invitado, numero_mesa, empleado_id,
	            subtotal_cents, descuento_cents, total_cents, metodo_pago, estado, recibo_path, descuento_id, puntos_ganados)
	           VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q,
		o.UserID, o.EsInvitado, o.NombreInvitado, o.TelefonoInvitado, o.NumeroMesa, o.EmpleadoID,
		o.SubtotalCents, o.DescuentoCents, o.TotalCents, o.MetodoPago, o.Estado, o.ReciboPath, o.DescuentoID, o.PuntosGanados)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	// Query back timestamps so the caller gets the stored values.
	const sel = `SELECT created_at, updated_at FROM pedidos WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt)
}

// CreateItemsBulkTx inserts all line items of an order in a single
// statement within the provided transaction.  Passing an empty slice
// has no effect and returns nil.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO detalle_pedidos (pedido_id, producto_id, cantidad, precio_cents) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.OrderID, it.ProductID, it.Cantidad, it.PrecioCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CreateOrder inserts an order together with its line items in one
// transaction, satisfying the checkout's atomicity requirement.  The
// generated ID and timestamps are written back onto o.
func (r *OrderRepo) CreateOrder(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := r.CreateTx(ctx, tx, o); err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = o.ID
	}
	if err := r.CreateItemsBulkTx(ctx, tx, items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// OrderDetail is an order plus its lines and display names, returned
// to customers and the back office.
type OrderDetail struct {
	model.Order
	EmpleadoNombre *string           `json:"empleado_nombre,omitempty"`
	Items          []OrderDetailItem `json:"items"`
}

// OrderDetailItem is one line of an OrderDetail with the product name
// joined in for display.
type OrderDetailItem struct {
	ProductID   uint64 `json:"producto_id"`
	Nombre      string `json:"nombre"`
	Cantidad    uint32 `json:"cantidad"`
	PrecioCents uint32 `json:"precio_cents"`
}

const orderCols = `p.id, p.usuario_id, p.es_invitado, p.nombre_invitado, p.telefono_invitado,
	p.numero_mesa, p.empleado_id, p.subtotal_cents, p.descuento_cents, p.total_cents,
	p.metodo_pago, p.estado, p.recibo_path, p.descuento_id, p.puntos_ganados,
	p.created_at, p.updated_at, e.nombre`

func scanOrder(sc interface{ Scan(...any) error }) (OrderDetail, error) {
	var d OrderDetail
	var userID, empleadoID, descuentoID sql.NullInt64
	var nombreInv, telInv, recibo, empNombre sql.NullString
	var mesa sql.NullInt64
	err := sc.Scan(&d.ID, &userID, &d.EsInvitado, &nombreInv, &telInv,
		&mesa, &empleadoID, &d.SubtotalCents, &d.DescuentoCents, &d.TotalCents,
		&d.MetodoPago, &d.Estado, &recibo, &descuentoID, &d.PuntosGanados,
		&d.CreatedAt, &d.UpdatedAt, &empNombre)
	if err != nil {
		return d, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		d.UserID = &v
	}
	if nombreInv.Valid {
		v := nombreInv.String
		d.NombreInvitado = &v
	}
	if telInv.Valid {
		v := telInv.String
		d.TelefonoInvitado = &v
	}
	if mesa.Valid {
		v := uint32(mesa.Int64)
		d.NumeroMesa = &v
	}
	if empleadoID.Valid {
		v := uint64(empleadoID.Int64)
		d.EmpleadoID = &v
	}
	if recibo.Valid {
		v := recibo.String
		d.ReciboPath = &v
	}
	if descuentoID.Valid {
		v := uint64(descuentoID.Int64)
		d.DescuentoID = &v
	}
	if empNombre.Valid {
		v := empNombre.String
		d.EmpleadoNombre = &v
	}
	d.Items = []OrderDetailItem{}
	return d, nil
}

// GetByID returns one order with its lines; sql.ErrNoRows when the
// order does not exist.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*OrderDetail, error) {
	q := `SELECT ` + orderCols + ` FROM pedidos p
	      LEFT JOIN empleados e ON e.id = p.empleado_id
	      WHERE p.id = ?`
	d, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, map[uint64]*OrderDetail{d.ID: &d}); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByIDForUser returns one order enforcing ownership.  It returns
// sql.ErrNoRows when the order does not exist and ErrForbidden when
// it belongs to someone else.
func (r *OrderRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*OrderDetail, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID == nil || *d.UserID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

// ListByUser returns all orders of the given user, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]OrderDetail, error) {
	q := `SELECT ` + orderCols + ` FROM pedidos p
	      LEFT JOIN empleados e ON e.id = p.empleado_id
	      WHERE p.usuario_id = ?
	      ORDER BY p.created_at DESC`
	return r.listDetails(ctx, q, userID)
}

// ListForAdmin returns orders for the back office, optionally
// filtered by status and/or a single calendar day, newest first.
func (r *OrderRepo) ListForAdmin(ctx context.Context, estado string, day *time.Time) ([]OrderDetail, error) {
	q := `SELECT ` + orderCols + ` FROM pedidos p
	      LEFT JOIN empleados e ON e.id = p.empleado_id
	      WHERE 1=1`
	args := make([]any, 0, 2)
	if estado != "" {
		q += ` AND p.estado = ?`
		args = append(args, estado)
	}
	if day != nil {
		q += ` AND DATE(p.created_at) = ?`
		args = append(args, day.UTC().Format("2006-01-02"))
	}
	q += ` ORDER BY p.created_at DESC`
	return r.listDetails(ctx, q, args...)
}

func (r *OrderRepo) listDetails(ctx context.Context, q string, args ...any) ([]OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]OrderDetail, 0)
	byID := make(map[uint64]*OrderDetail)
	for rows.Next() {
		d, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	for i := range details {
		byID[details[i].ID] = &details[i]
	}
	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	return details, nil
}

// loadItems populates the line items of all given orders in a single
// query.
func (r *OrderRepo) loadItems(ctx context.Context, byID map[uint64]*OrderDetail) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]any, 0, len(byID))
	placeholders := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT dp.pedido_id, dp.producto_id, pr.nombre, dp.cantidad, dp.precio_cents
	      FROM detalle_pedidos dp
	      JOIN productos pr ON pr.id = dp.producto_id
	      WHERE dp.pedido_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY dp.pedido_id, dp.id`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID uint64
		var it OrderDetailItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Nombre, &it.Cantidad, &it.PrecioCents); err != nil {
			return err
		}
		if d, ok := byID[orderID]; ok {
			d.Items = append(d.Items, it)
		}
	}
	return rows.Err()
}

// UpdateStatusTx transitions an order to a new status inside the
// provided transaction.  The current row is locked so the terminal
// check and the points credit (done by the caller in the same tx)
// cannot race with a concurrent transition.  It returns the previous
// status, sql.ErrNoRows when the order does not exist and ErrConflict
// when the order is already in a terminal status.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, orderID uint64, estado string) (string, error) {
	const sel = `SELECT estado FROM pedidos WHERE id = ? FOR UPDATE`
	var prev string
	if err := tx.QueryRowContext(ctx, sel, orderID).Scan(&prev); err != nil {
		return "", err
	}
	if model.TerminalStatus(prev) {
		return prev, ErrConflict
	}
	const upd = `UPDATE pedidos SET estado = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, estado, orderID); err != nil {
		return prev, err
	}
	return prev, nil
}

// OrderForCredit is the slice of an order needed to decide whether a
// delivery credits loyalty points.
type OrderForCredit struct {
	UserID        *uint64
	PuntosGanados uint32
}

// GetForCreditTx loads the points-credit fields of an order within a
// transaction.
func (r *OrderRepo) GetForCreditTx(ctx context.Context, tx *sql.Tx, orderID uint64) (OrderForCredit, error) {
	const q = `SELECT usuario_id, puntos_ganados FROM pedidos WHERE id = ?`
	var oc OrderForCredit
	var userID sql.NullInt64
	if err := tx.QueryRowContext(ctx, q, orderID).Scan(&userID, &oc.PuntosGanados); err != nil {
		return oc, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		oc.UserID = &v
	}
	return oc, nil
}

// RegisterLine is one row of the cash-register daily summary.
type RegisterLine struct {
	MetodoPago string `json:"metodo_pago"`
	Pedidos    uint32 `json:"pedidos"`
	TotalCents uint64 `json:"total_cents"`
}

// RegisterSummary aggregates the delivered orders of one calendar day
// grouped by payment method.  Cancelled and in-flight orders are not
// money in the till and are excluded.
func (r *OrderRepo) RegisterSummary(ctx context.Context, day time.Time) ([]RegisterLine, error) {
	const q = `SELECT metodo_pago, COUNT(*), COALESCE(SUM(total_cents),0)
	           FROM pedidos
	           WHERE estado = ? AND DATE(created_at) = ?
	           GROUP BY metodo_pago
	           ORDER BY metodo_pago`
	rows, err := r.db.QueryContext(ctx, q, model.StatusDelivered, day.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RegisterLine, 0)
	for rows.Next() {
		var l RegisterLine
		if err := rows.Scan(&l.MetodoPago, &l.Pedidos, &l.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DailyStat is one day of the sales statistics series.
type DailyStat struct {
	Fecha        string `json:"fecha"`
	Pedidos      uint32 `json:"pedidos"`
	IngresoCents uint64 `json:"ingreso_cents"`
}

// SalesByDay returns delivered-order counts and revenue per day over
// the closed interval [from, to].
func (r *OrderRepo) SalesByDay(ctx context.Context, from, to time.Time) ([]DailyStat, error) {
	const q = `SELECT DATE(created_at), COUNT(*), COALESCE(SUM(total_cents),0)
	           FROM pedidos
	           WHERE estado = ? AND DATE(created_at) BETWEEN ? AND ?
	           GROUP BY DATE(created_at)
	           ORDER BY DATE(created_at)`
	rows, err := r.db.QueryContext(ctx, q, model.StatusDelivered,
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]DailyStat, 0)
	for rows.Next() {
		var s DailyStat
		if err := rows.Scan(&s.Fecha, &s.Pedidos, &s.IngresoCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TopProduct is one row of the best-sellers statistic.
type TopProduct struct {
	ProductID uint64 `json:"producto_id"`
	Nombre    string `json:"nombre"`
	Unidades  uint64 `json:"unidades"`
}

// TopProducts returns the best-selling products of delivered orders
// in the closed interval [from, to], limited to n rows.
func (r *OrderRepo) TopProducts(ctx context.Context, from, to time.Time, n int) ([]TopProduct, error) {
	if n <= 0 {
		n = 10
	}
	const q = `SELECT dp.producto_id, pr.nombre, SUM(dp.cantidad) AS unidades
	           FROM detalle_pedidos dp
	           JOIN pedidos p ON p.id = dp.pedido_id
	           JOIN productos pr ON pr.id = dp.producto_id
	           WHERE p.estado = ? AND DATE(p.created_at) BETWEEN ? AND ?
	           GROUP BY dp.producto_id, pr.nombre
	           ORDER BY unidades DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, model.StatusDelivered,
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TopProduct, 0)
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductID, &t.Nombre, &t.Unidades); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
