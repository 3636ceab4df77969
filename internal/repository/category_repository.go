package repository

import (
	"context"
	"database/sql"

	"github.com/mesaqr/table-ordering/internal/model"
)

// CategoryRepo provides CRUD operations for menu categories.  The
// public menu only sees active categories ordered by their display
// position; the back office sees everything.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo returns a CategoryRepo bound to the given database.
func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// ListActive returns active categories in menu order.
func (r *CategoryRepo) ListActive(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, nombre, orden, is_active, created_at
	           FROM categorias WHERE is_active = 1 ORDER BY orden, nombre`
	return r.list(ctx, q)
}

// ListAll returns every category for the back office, active or not.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, nombre, orden, is_active, created_at
	           FROM categorias ORDER BY orden, nombre`
	return r.list(ctx, q)
}

func (r *CategoryRepo) list(ctx context.Context, q string) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cats := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Nombre, &c.Orden, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetByID fetches one category; sql.ErrNoRows when missing.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.Category, error) {
	const q = `SELECT id, nombre, orden, is_active, created_at FROM categorias WHERE id = ?`
	var c model.Category
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Nombre, &c.Orden, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a category and returns its generated ID.
func (r *CategoryRepo) Create(ctx context.Context, nombre string, orden uint32) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categorias (nombre, orden) VALUES (?,?)", nombre, orden)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites name, position and active flag of a category.
// Returns sql.ErrNoRows when the category does not exist.
func (r *CategoryRepo) Update(ctx context.Context, id uint64, nombre string, orden uint32, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categorias SET nombre=?, orden=?, is_active=? WHERE id=?",
		nombre, orden, active, id)
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

// Delete removes a category. Categories that still own products
// cannot be deleted; ErrConflict is returned instead.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	var count int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM productos WHERE categoria_id=?", id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM categorias WHERE id=?", id)
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
