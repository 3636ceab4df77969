package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/mesaqr/table-ordering/internal/handler"    // import the handlers that implement business logic
	"github.com/mesaqr/table-ordering/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/mesaqr/table-ordering/internal/model"      // role constants
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication.  The handler accepts a
	// JSON body containing a `refresh_token` or an Authorization header and
	// invalidates the matching session(s).
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Both roles may read their own identity.
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleCliente))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler so clients can
	// terminate a session with only a refresh token in the body.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided
// Echo instance.  The PublicHandler exposes sanitized menu data and the
// table code resolver.  The optional middlewares (rate limiting, response
// cache) are applied to the menu endpoints only; table resolution stays
// uncached so sticker rotation takes effect immediately.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, menuMW ...echo.MiddlewareFunc) {
	// Menu categories in display order.
	e.GET("/v1/menu/categories", p.GetCategories, menuMW...)
	// Available products, filterable by category and name fragment.
	e.GET("/v1/menu/products", p.GetProducts, menuMW...)
	// Resolve a scanned table QR code to its table number.
	e.GET("/v1/mesa/:code", p.ResolveTable)
}
