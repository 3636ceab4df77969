// This file defines the back-office waitstaff endpoints: the roster
// and the daily table-range assignments that guest checkout uses to
// resolve a table's waiter.

package handler

import (
	"database/sql"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/tablecode"
)

var staffPhoneRe = regexp.MustCompile(`^[0-9]{9}$`)

type staffReq struct {
	Nombre   string  `json:"nombre"`
	Telefono *string `json:"telefono"`
	IsActive bool    `json:"is_active"`
}

func (r *staffReq) validate() string {
	r.Nombre = strings.TrimSpace(r.Nombre)
	if len(r.Nombre) < 2 || len(r.Nombre) > 100 {
		return "nombre must be 2-100 characters"
	}
	if r.Telefono != nil && *r.Telefono != "" && !staffPhoneRe.MatchString(*r.Telefono) {
		return "telefono must be exactly 9 digits"
	}
	return ""
}

type assignmentReq struct {
	Fecha     string `json:"fecha"`
	MesaDesde uint32 `json:"mesa_desde"`
	MesaHasta uint32 `json:"mesa_hasta"`
}

// ListStaff returns the full roster.
func (h *AdminHandler) ListStaff(c echo.Context) error {
	items, err := h.Staff.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateStaff adds a staff member.
func (h *AdminHandler) CreateStaff(c echo.Context) error {
	var req staffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	id, err := h.Staff.Create(c.Request().Context(), req.Nombre, req.Telefono)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "nombre": req.Nombre})
}

// UpdateStaff rewrites a staff row; deactivating a member removes them
// from future table resolutions without touching past orders.
func (h *AdminHandler) UpdateStaff(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req staffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Staff.Update(c.Request().Context(), id, req.Nombre, req.Telefono, req.IsActive); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "empleado no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "nombre": req.Nombre, "is_active": req.IsActive})
}

// AssignTables records a table range for a staff member on one day.
func (h *AdminHandler) AssignTables(c echo.Context) error {
	staffID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req assignmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	fecha, err := time.Parse("2006-01-02", req.Fecha)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fecha"})
	}
	if req.MesaDesde == 0 || req.MesaHasta < req.MesaDesde || req.MesaHasta > tablecode.MaxTableNumber {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table range"})
	}
	id, err := h.Staff.Assign(c.Request().Context(), staffID, fecha, req.MesaDesde, req.MesaHasta)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id": id, "empleado_id": staffID, "fecha": req.Fecha,
		"mesa_desde": req.MesaDesde, "mesa_hasta": req.MesaHasta,
	})
}

// ListAssignments lists the assignments of one day (default today).
func (h *AdminHandler) ListAssignments(c echo.Context) error {
	day := time.Now().UTC()
	if raw := c.QueryParam("fecha"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fecha"})
		}
		day = t
	}
	items, err := h.Staff.AssignmentsForDay(c.Request().Context(), day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
