// This file defines the loyalty endpoints for registered customers:
// browsing the catalog, redeeming points for a discount and reading
// the current balance and active discount.

package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/repository"
	"github.com/mesaqr/table-ordering/internal/rewards"
)

// RewardsHandler exposes the loyalty ledger to customers.
type RewardsHandler struct {
	Rewards *repository.RewardRepo
	Ledger  *rewards.Ledger
}

// rewardView is a catalog entry as rendered to customers.
type rewardView struct {
	ID           uint64 `json:"id"`
	Nombre       string `json:"nombre"`
	PuntosReq    uint32 `json:"puntos_requeridos"`
	DescuentoPct uint8  `json:"descuento_pct"`
}

// discountView is the customer's unconsumed discount.
type discountView struct {
	ID           uint64 `json:"id"`
	RecompensaID uint64 `json:"recompensa_id"`
	DescuentoPct uint8  `json:"descuento_pct"`
}

// ListCatalog returns the rewards customers may redeem, cheapest first.
func (h *RewardsHandler) ListCatalog(c echo.Context) error {
	items, err := h.Rewards.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]rewardView, 0, len(items))
	for _, rw := range items {
		out = append(out, rewardView{ID: rw.ID, Nombre: rw.Nombre, PuntosReq: rw.PuntosReq, DescuentoPct: rw.DescuentoPct})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Redeem exchanges points for a single-use discount.  Rejections carry
// the reason: an existing discount, an insufficient balance or a
// disabled reward.  Nothing is debited on rejection.
func (h *RewardsHandler) Redeem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	rw, err := h.Rewards.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recompensa no encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	d, err := h.Ledger.Redeem(ctx, uid, *rw)
	if err != nil {
		switch {
		case errors.Is(err, rewards.ErrRewardInactive):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "recompensa no disponible"})
		case errors.Is(err, repository.ErrActiveDiscountExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ya tienes un descuento activo"})
		case errors.Is(err, repository.ErrInsufficientPoints):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "puntos insuficientes"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redeem failed"})
	}
	return c.JSON(http.StatusCreated, discountView{ID: d.ID, RecompensaID: d.RewardID, DescuentoPct: d.DescuentoPct})
}

// MyPoints returns the caller's current balance.
func (h *RewardsHandler) MyPoints(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	puntos, err := h.Rewards.PointsBalance(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"puntos": puntos})
}

// MyDiscount returns the caller's unconsumed discount, or null.
func (h *RewardsHandler) MyDiscount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	d, err := h.Rewards.ActiveDiscount(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if d == nil {
		return c.JSON(http.StatusOK, echo.Map{"descuento": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"descuento": discountView{ID: d.ID, RecompensaID: d.RewardID, DescuentoPct: d.DescuentoPct}})
}
