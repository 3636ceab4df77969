package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/handler"    // admin handlers
	"github.com/mesaqr/table-ordering/internal/middleware" // JWT + role middlewares
	"github.com/mesaqr/table-ordering/internal/model"      // role constants
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
// All routes require a valid JWT and ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Orders ----
	g.GET("/orders", a.ListOrders)
	g.GET("/orders/:id", a.GetOrder)
	g.PATCH("/orders/:id/status", a.UpdateOrderStatus)

	// ---- Menu ----
	g.GET("/categories", a.ListCategories)
	g.POST("/categories", a.CreateCategory)
	g.PUT("/categories/:id", a.UpdateCategory)
	g.DELETE("/categories/:id", a.DeleteCategory)

	g.GET("/products", a.ListProducts)
	g.POST("/products", a.CreateProduct)
	g.PUT("/products/:id", a.UpdateProduct)
	g.DELETE("/products/:id", a.DeleteProduct)

	// ---- Rewards catalog ----
	g.GET("/rewards", a.ListRewards)
	g.POST("/rewards", a.CreateReward)
	g.PUT("/rewards/:id", a.UpdateReward)

	// ---- Waitstaff and table assignments ----
	g.GET("/staff", a.ListStaff)
	g.POST("/staff", a.CreateStaff)
	g.PUT("/staff/:id", a.UpdateStaff)
	g.POST("/staff/:id/assignments", a.AssignTables)
	g.GET("/assignments", a.ListAssignments)

	// ---- Reporting ----
	g.GET("/register", a.Register)
	g.GET("/stats/sales", a.SalesByDay)
	g.GET("/stats/top-products", a.TopProducts)

	// ---- Table stickers ----
	g.GET("/tables/:n/code", a.TableCode)
	g.GET("/tables/:n/qr", a.TableQR)
}
