package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mesaqr/table-ordering/internal/model"
)

// StaffRepo manages waitstaff and their daily table-range
// assignments.  Guest checkout resolves the waiter for a table by
// matching the table number against the current day's ranges.
type StaffRepo struct {
	db *sql.DB
}

// NewStaffRepo returns a StaffRepo bound to the given database.
func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

// ListAll returns every staff member.
func (r *StaffRepo) ListAll(ctx context.Context) ([]model.Staff, error) {
	const q = `SELECT id, nombre, telefono, is_active, created_at FROM empleados ORDER BY nombre`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Staff, 0)
	for rows.Next() {
		var s model.Staff
		var tel sql.NullString
		if err := rows.Scan(&s.ID, &s.Nombre, &tel, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		if tel.Valid {
			t := tel.String
			s.Telefono = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a staff member and returns the generated ID.
func (r *StaffRepo) Create(ctx context.Context, nombre string, telefono *string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO empleados (nombre, telefono) VALUES (?,?)`, nombre, telefono)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a staff row. Returns sql.ErrNoRows when missing.
func (r *StaffRepo) Update(ctx context.Context, id uint64, nombre string, telefono *string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE empleados SET nombre=?, telefono=?, is_active=? WHERE id=?`,
		nombre, telefono, active, id)
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

// Assign records a table range for a staff member on one day and
// returns the generated ID.  Overlapping ranges are allowed; the
// lookup simply takes the first match.
func (r *StaffRepo) Assign(ctx context.Context, staffID uint64, fecha time.Time, desde, hasta uint32) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO asignaciones_mesa (empleado_id, fecha, mesa_desde, mesa_hasta) VALUES (?,?,?,?)`,
		staffID, fecha.UTC().Format("2006-01-02"), desde, hasta)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// AssignmentsForDay lists the assignments of one calendar day.
func (r *StaffRepo) AssignmentsForDay(ctx context.Context, day time.Time) ([]model.TableAssignment, error) {
	const q = `SELECT id, empleado_id, fecha, mesa_desde, mesa_hasta
	           FROM asignaciones_mesa WHERE fecha = ? ORDER BY mesa_desde`
	rows, err := r.db.QueryContext(ctx, q, day.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TableAssignment, 0)
	for rows.Next() {
		var a model.TableAssignment
		if err := rows.Scan(&a.ID, &a.StaffID, &a.Fecha, &a.MesaDesde, &a.MesaHasta); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// StaffForTable resolves the active staff member assigned to a table
// on the given day.  It returns (nil, nil) when no range matches; the
// caller must not treat that as an error, guest orders are created
// without a waiter in that case.
func (r *StaffRepo) StaffForTable(ctx context.Context, mesa uint32, day time.Time) (*uint64, error) {
	const q = `SELECT a.empleado_id
	           FROM asignaciones_mesa a
	           JOIN empleados e ON e.id = a.empleado_id
	           WHERE a.fecha = ? AND a.mesa_desde <= ? AND a.mesa_hasta >= ? AND e.is_active = 1
	           ORDER BY a.mesa_desde
	           LIMIT 1`
	var staffID uint64
	err := r.db.QueryRowContext(ctx, q, day.UTC().Format("2006-01-02"), mesa, mesa).Scan(&staffID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &staffID, nil
}
