// This file defines the back-office menu management endpoints for
// products.  Deleting a product referenced by past order lines is
// refused to keep order history intact; staff mark it unavailable
// instead.

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/model"
	"github.com/mesaqr/table-ordering/internal/repository"
)

type productReq struct {
	CategoriaID uint64  `json:"categoria_id"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	PrecioCents uint32  `json:"precio_cents"`
	ImagenURL   *string `json:"imagen_url"`
	Disponible  bool    `json:"disponible"`
}

func (r *productReq) validate() string {
	r.Nombre = strings.TrimSpace(r.Nombre)
	if r.Nombre == "" {
		return "nombre required"
	}
	if r.CategoriaID == 0 {
		return "categoria_id required"
	}
	if r.PrecioCents == 0 {
		return "precio_cents must be positive"
	}
	return ""
}

// ListProducts returns the full product list including unavailable items.
func (h *AdminHandler) ListProducts(c echo.Context) error {
	items, err := h.Products.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateProduct inserts a product after checking the category exists.
func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.Categories.GetByID(ctx, req.CategoriaID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "categoria no encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	p := model.Product{
		CategoryID:  req.CategoriaID,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		PrecioCents: req.PrecioCents,
		ImagenURL:   req.ImagenURL,
		Disponible:  req.Disponible,
	}
	id, err := h.Products.Create(ctx, &p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	p.ID = id
	return c.JSON(http.StatusCreated, p)
}

// UpdateProduct rewrites a product row.
func (h *AdminHandler) UpdateProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	p := model.Product{
		ID:          id,
		CategoryID:  req.CategoriaID,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		PrecioCents: req.PrecioCents,
		ImagenURL:   req.ImagenURL,
		Disponible:  req.Disponible,
	}
	if err := h.Products.Update(c.Request().Context(), &p); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "producto no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteProduct removes a product that no order line references.
func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Products.Delete(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "producto no encontrado"})
		}
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "producto con pedidos; marcar no disponible"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
