package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/handler"
	"github.com/mesaqr/table-ordering/internal/middleware"
	"github.com/mesaqr/table-ordering/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CLIENTE role.  Customers can view
// their order history, browse the rewards catalog, redeem points and
// inspect their balance and active discount.
func RegisterCustomer(e *echo.Echo, o *handler.OrdersHandler, r *handler.RewardsHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCliente),
	)
	// Order history.
	g.GET("/my-orders", o.ListMine)
	g.GET("/orders/:id", o.GetMine)

	// Loyalty.
	g.GET("/rewards", r.ListCatalog)
	g.POST("/rewards/:id/redeem", r.Redeem)
	g.GET("/me/points", r.MyPoints)
	g.GET("/me/discount", r.MyDiscount)
}
