package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/handler"
	"github.com/mesaqr/table-ordering/internal/middleware"
	"github.com/mesaqr/table-ordering/internal/model"
)

// RegisterCheckout registers the checkout flow endpoints.  A flow opened
// by a registered customer requires their JWT on every request; guest
// flows are addressed solely by the unguessable flow token, so the flow
// group uses the optional JWT middleware and the handler enforces
// ownership per flow.
func RegisterCheckout(e *echo.Echo, h *handler.CheckoutHandler, jwtSecret string) {
	// Registered customers open a flow with their account discount applied.
	e.POST("/v1/checkout",
		h.StartUser,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCliente),
	)
	// Guests open a table-scoped flow from a scanned QR code.
	e.POST("/v1/mesa/:code/checkout", h.StartGuest)

	g := e.Group("/v1/checkout", middleware.OptionalJWTAuth(jwtSecret))
	g.GET("/:id", h.Get)

	// Cart edits, allowed while the flow is on the summary.
	g.POST("/:id/items", h.AddItem)
	g.PUT("/:id/items/:pid", h.UpdateItem)
	g.DELETE("/:id/items/:pid", h.RemoveItem)

	// Guest identity, required before a guest flow can leave the summary.
	g.POST("/:id/guest", h.SetGuest)

	// State transitions.
	g.POST("/:id/proceed", h.Proceed)
	g.POST("/:id/method", h.SelectMethod)
	g.POST("/:id/back", h.Back)
	g.POST("/:id/efectivo", h.SetTendered)

	// Submission (multipart when a wallet receipt travels along) and the
	// confirmation long-poll.
	g.POST("/:id/submit", h.Submit)
	g.GET("/:id/wait", h.Wait)
}
