// This file defines the back-office order endpoints: listing and
// inspecting orders and driving the operational status transitions.
// Flipping an order to entregado credits the customer's loyalty
// points inside the same transaction; the committed change is then
// announced to the broker and the in-process hub.

package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/model"
	"github.com/mesaqr/table-ordering/internal/notify"
	"github.com/mesaqr/table-ordering/internal/queue"
	"github.com/mesaqr/table-ordering/internal/repository"
	queuepub "github.com/mesaqr/table-ordering/internal/service"
)

type statusReq struct {
	Estado string `json:"estado"`
}

// ListOrders returns orders for the back office, optionally filtered
// by `estado` and by calendar day `fecha` (YYYY-MM-DD).
func (h *AdminHandler) ListOrders(c echo.Context) error {
	estado := c.QueryParam("estado")
	if estado != "" && !model.ValidStatus(estado) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid estado"})
	}
	var day *time.Time
	if raw := c.QueryParam("fecha"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fecha"})
		}
		day = &t
	}
	items, err := h.Orders.ListForAdmin(c.Request().Context(), estado, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetOrder returns one order with its lines.  When the order carries a
// payment receipt, a short-lived signed URL is included so staff can
// view the image without the bucket being public.
func (h *AdminHandler) GetOrder(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	d, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pedido no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	resp := echo.Map{"pedido": d}
	if d.ReciboPath != nil && h.Receipts != nil {
		if u, err := h.Receipts.SignedURL(c.Request().Context(), *d.ReciboPath, h.Cfg.ReceiptURLTTL); err == nil {
			resp["recibo_url"] = u
		} else {
			log.Printf("admin: sign receipt url for order %d failed: %v", d.ID, err)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateOrderStatus transitions an order to a new operational status.
// Terminal orders reject the transition with 409.  The status update
// and the points credit for a delivery commit atomically; publishing
// the change is best-effort after the commit.
func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil || !model.ValidStatus(req.Estado) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid estado"})
	}
	ctx := c.Request().Context()

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	prev, err := h.Orders.UpdateStatusTx(ctx, tx, id, req.Estado)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pedido no encontrado"})
		}
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "pedido en estado terminal", "estado": prev})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	// Delivery credits the earned points exactly once, in the same
	// transaction that makes the status terminal.  Guest orders carry
	// no user and zero points, so nothing is credited for them.
	oc, err := h.Orders.GetForCreditTx(ctx, tx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if req.Estado == model.StatusDelivered && oc.UserID != nil && oc.PuntosGanados > 0 {
		if err := h.Rewards.CreditPointsTx(ctx, tx, *oc.UserID, oc.PuntosGanados); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "points credit failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	h.announceStatus(ctx, id, prev, req.Estado)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "estado": req.Estado, "estado_anterior": prev})
}

// announceStatus publishes a committed status change to the broker and
// to the in-process hub.  Both are best-effort: the change is already
// durable and a lost notification never invalidates it.  Waiting
// checkout flows tolerate the duplicate delivery through the hub and
// the broker consumer.
func (h *AdminHandler) announceStatus(ctx context.Context, orderID uint64, oldEstado, newEstado string) {
	now := time.Now().UTC().Format(time.RFC3339)
	ev := queue.OrderStatusChangedEvent{
		OrderID:   orderID,
		OldEstado: oldEstado,
		NewEstado: newEstado,
		ChangedAt: now,
	}
	if d, err := h.Orders.GetByID(ctx, orderID); err == nil {
		ev.UserID = d.UserID
		ev.EsInvitado = d.EsInvitado
		ev.NumeroMesa = d.NumeroMesa
		ev.TotalCents = d.TotalCents
		ev.PuntosGanados = d.PuntosGanados
	}
	if err := queuepub.PublishStatusChanged(ctx, ev); err != nil {
		log.Printf("admin: publish status change for order %d failed: %v", orderID, err)
	}
	if h.Hub != nil {
		h.Hub.Publish(notify.StatusChange{
			OrderID:   orderID,
			OldEstado: oldEstado,
			NewEstado: newEstado,
			ChangedAt: now,
		})
	}
}
