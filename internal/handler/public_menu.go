// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public menu API. These routes allow
// unauthenticated users to browse categories and available products and to
// resolve a scanned table QR code. Sensitive fields are filtered from
// responses.

package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/mesaqr/table-ordering/internal/repository"
    "github.com/mesaqr/table-ordering/internal/tablecode"
)

// PublicHandler aggregates the dependencies needed for unauthenticated
// browsing. It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
    Categories *repository.CategoryRepo // provides access to menu categories
    Products   *repository.ProductRepo  // provides access to menu products
    Codes      *tablecode.Encoder       // verifies scanned table codes
}

// PublicCategory represents a menu category exposed via the public API.
type PublicCategory struct {
    ID     uint64 `json:"id"`
    Nombre string `json:"nombre"`
    Orden  uint32 `json:"orden"`
}

// PublicProduct represents an orderable product exposed via the public API.
type PublicProduct struct {
    ID          uint64  `json:"id"`
    CategoriaID uint64  `json:"categoria_id"`
    Nombre      string  `json:"nombre"`
    Descripcion *string `json:"descripcion,omitempty"`
    PrecioCents uint32  `json:"precio_cents"`
    ImagenURL   *string `json:"imagen_url,omitempty"`
}

// GetCategories returns the active menu categories in display order.
// Response JSON contains an "items" array of PublicCategory.
func (h *PublicHandler) GetCategories(c echo.Context) error {
    ctx := c.Request().Context()
    cats, err := h.Categories.ListActive(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]PublicCategory, 0, len(cats))
    for _, cat := range cats {
        out = append(out, PublicCategory{ID: cat.ID, Nombre: cat.Nombre, Orden: cat.Orden})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetProducts lists available products for unauthenticated users.  The
// optional `categoria` query parameter restricts the list to one category
// and `q` filters by a name fragment.
func (h *PublicHandler) GetProducts(c echo.Context) error {
    ctx := c.Request().Context()
    var categoryID uint64
    if raw := c.QueryParam("categoria"); raw != "" {
        id, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid categoria"})
        }
        categoryID = id
    }
    products, err := h.Products.ListAvailable(ctx, categoryID, c.QueryParam("q"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]PublicProduct, 0, len(products))
    for _, p := range products {
        out = append(out, PublicProduct{
            ID:          p.ID,
            CategoriaID: p.CategoryID,
            Nombre:      p.Nombre,
            Descripcion: p.Descripcion,
            PrecioCents: p.PrecioCents,
            ImagenURL:   p.ImagenURL,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ResolveTable verifies a scanned table code and returns the table number.
// An unverifiable code is reported as 404 so the frontend renders a
// "table not found" screen rather than an error page.
func (h *PublicHandler) ResolveTable(c echo.Context) error {
    mesa, err := h.Codes.Decode(c.Param("code"))
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "mesa no encontrada"})
    }
    return c.JSON(http.StatusOK, echo.Map{"numero_mesa": mesa})
}
