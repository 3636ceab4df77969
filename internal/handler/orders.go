// This file defines the order history endpoints for registered
// customers.  Guests track their order only through the checkout flow
// token; they have no account to list history under.

package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/repository"
)

// OrdersHandler serves a customer's own orders.
type OrdersHandler struct {
	Orders *repository.OrderRepo
}

// ListMine returns the caller's orders, newest first.
func (h *OrdersHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Orders.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMine returns one of the caller's orders with its lines.  Orders
// of other customers yield 404 rather than 403 so order IDs are not
// probeable.
func (h *OrdersHandler) GetMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	d, err := h.Orders.GetByIDForUser(c.Request().Context(), id, uid)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pedido no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, d)
}
