// This file defines the back-office reporting endpoints: the daily
// cash register summary and the sales statistics.  All figures count
// delivered orders only.

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Register returns the cash register summary of one day (default
// today) grouped by payment method.
func (h *AdminHandler) Register(c echo.Context) error {
	day := time.Now().UTC()
	if raw := c.QueryParam("fecha"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fecha"})
		}
		day = t
	}
	lines, err := h.Orders.RegisterSummary(c.Request().Context(), day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var total uint64
	for _, l := range lines {
		total += l.TotalCents
	}
	return c.JSON(http.StatusOK, echo.Map{
		"fecha":       day.Format("2006-01-02"),
		"lineas":      lines,
		"total_cents": total,
	})
}

// statsRange parses the from/to query parameters, defaulting to the
// last 30 days.
func statsRange(c echo.Context) (time.Time, time.Time, bool) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, false
		}
		from = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, false
		}
		to = t
	}
	return from, to, !from.After(to)
}

// SalesByDay returns the delivered-order revenue series over a range.
func (h *AdminHandler) SalesByDay(c echo.Context) error {
	from, to, ok := statsRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid range"})
	}
	items, err := h.Orders.SalesByDay(c.Request().Context(), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// TopProducts returns the best sellers over a range.
func (h *AdminHandler) TopProducts(c echo.Context) error {
	from, to, ok := statsRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid range"})
	}
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	items, err := h.Orders.TopProducts(c.Request().Context(), from, to, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
