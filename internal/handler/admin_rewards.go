// This file defines the back-office rewards catalog endpoints.
// Disabling a reward stops new redemptions; discounts already
// redeemed from it stay usable.

package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/model"
)

type rewardReq struct {
	Nombre       string `json:"nombre"`
	PuntosReq    uint32 `json:"puntos_requeridos"`
	DescuentoPct uint8  `json:"descuento_pct"`
	IsActive     bool   `json:"is_active"`
}

func (r *rewardReq) validate() string {
	r.Nombre = strings.TrimSpace(r.Nombre)
	if r.Nombre == "" {
		return "nombre required"
	}
	if r.PuntosReq == 0 {
		return "puntos_requeridos must be positive"
	}
	if r.DescuentoPct == 0 || r.DescuentoPct > 100 {
		return "descuento_pct must be between 1 and 100"
	}
	return ""
}

// ListRewards returns the whole catalog including disabled entries.
func (h *AdminHandler) ListRewards(c echo.Context) error {
	items, err := h.Rewards.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateReward inserts a catalog entry.
func (h *AdminHandler) CreateReward(c echo.Context) error {
	var req rewardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rw := model.Reward{Nombre: req.Nombre, PuntosReq: req.PuntosReq, DescuentoPct: req.DescuentoPct, IsActive: req.IsActive}
	id, err := h.Rewards.Create(c.Request().Context(), &rw)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	rw.ID = id
	return c.JSON(http.StatusCreated, rw)
}

// UpdateReward rewrites a catalog entry.
func (h *AdminHandler) UpdateReward(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req rewardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rw := model.Reward{ID: id, Nombre: req.Nombre, PuntosReq: req.PuntosReq, DescuentoPct: req.DescuentoPct, IsActive: req.IsActive}
	if err := h.Rewards.Update(c.Request().Context(), &rw); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recompensa no encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, rw)
}
