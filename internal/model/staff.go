package model

import "time"

// Staff is a waitstaff member in the `empleados` table, managed from
// the back office and referenced from orders through same-day table
// assignments.
//
// Fields:
//  ID        – primary key identifier.
//  Nombre    – staff member name.
//  Telefono  – optional contact phone.
//  IsActive  – excluded from table assignment when false.
//  CreatedAt – timestamp of creation.
type Staff struct {
    ID        uint64    // empleados.id
    Nombre    string    // empleados.nombre
    Telefono  *string   // empleados.telefono (nullable)
    IsActive  bool      // empleados.is_active
    CreatedAt time.Time // empleados.created_at
}

// TableAssignment maps an inclusive table-number range to a staff
// member for one calendar day, stored in `asignaciones_mesa`.  Guest
// orders resolve their waiter by matching the table number against
// the current day's ranges; a missing match leaves the order's staff
// reference unset.
//
// Fields:
//  ID        – primary key identifier.
//  StaffID   – assigned waitstaff member.
//  Fecha     – assignment day (date only, UTC).
//  MesaDesde – first table of the range, inclusive.
//  MesaHasta – last table of the range, inclusive.
type TableAssignment struct {
    ID        uint64    // asignaciones_mesa.id
    StaffID   uint64    // asignaciones_mesa.empleado_id
    Fecha     time.Time // asignaciones_mesa.fecha
    MesaDesde uint32    // asignaciones_mesa.mesa_desde
    MesaHasta uint32    // asignaciones_mesa.mesa_hasta
}
