package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mesaqr/table-ordering/internal/model"
)

// ProductRepo provides CRUD and browse queries for menu products.
// Prices are stored in integer cents; the order pipeline copies the
// price at checkout so edits here never rewrite placed orders.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, categoria_id, nombre, descripcion, precio_cents, imagen_url, disponible, created_at, updated_at`

func scanProduct(sc interface{ Scan(...any) error }) (model.Product, error) {
	var p model.Product
	var desc, img sql.NullString
	err := sc.Scan(&p.ID, &p.CategoryID, &p.Nombre, &desc, &p.PrecioCents, &img, &p.Disponible, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if desc.Valid {
		d := desc.String
		p.Descripcion = &d
	}
	if img.Valid {
		u := img.String
		p.ImagenURL = &u
	}
	return p, nil
}

// ListAvailable returns orderable products, optionally filtered by
// category and by a case-insensitive name fragment.  Used by the
// public menu.
func (r *ProductRepo) ListAvailable(ctx context.Context, categoryID uint64, search string) ([]model.Product, error) {
	q := `SELECT ` + productCols + ` FROM productos WHERE disponible = 1`
	args := make([]any, 0, 2)
	if categoryID != 0 {
		q += ` AND categoria_id = ?`
		args = append(args, categoryID)
	}
	if s := strings.TrimSpace(search); s != "" {
		q += ` AND nombre LIKE ?`
		args = append(args, "%"+s+"%")
	}
	q += ` ORDER BY nombre`
	return r.list(ctx, q, args...)
}

// ListAll returns every product for the back office.
func (r *ProductRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	return r.list(ctx, `SELECT `+productCols+` FROM productos ORDER BY categoria_id, nombre`)
}

func (r *ProductRepo) list(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches one product; sql.ErrNoRows when missing.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productCols+` FROM productos WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetManyByIDs loads the given products into a map keyed by id.  Used
// by checkout to re-validate cart lines against the live menu.
func (r *ProductRepo) GetManyByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Product, error) {
	out := make(map[uint64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT ` + productCols + ` FROM productos WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// Create inserts a product and returns its generated ID.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO productos (categoria_id, nombre, descripcion, precio_cents, imagen_url, disponible)
		 VALUES (?,?,?,?,?,?)`,
		p.CategoryID, p.Nombre, p.Descripcion, p.PrecioCents, p.ImagenURL, p.Disponible)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a product row. Returns sql.ErrNoRows when missing.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE productos SET categoria_id=?, nombre=?, descripcion=?, precio_cents=?, imagen_url=?, disponible=?
		 WHERE id=?`,
		p.CategoryID, p.Nombre, p.Descripcion, p.PrecioCents, p.ImagenURL, p.Disponible, p.ID)
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

// Delete removes a product. Products referenced by order lines are
// kept for history; ErrConflict is returned instead of deleting.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	var count int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM detalle_pedidos WHERE producto_id=?", id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM productos WHERE id=?", id)
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
