// This file defines the back-office table sticker endpoints.  A table's
// opaque code is derived from the configured secret; the QR endpoint
// renders the guest entry URL as a printable PNG.

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mesaqr/table-ordering/internal/tablecode"
)

type tableCodeResp struct {
	NumeroMesa uint32 `json:"numero_mesa"`
	Code       string `json:"code"`
	URL        string `json:"url"`
}

func (h *AdminHandler) tableOf(c echo.Context) (uint32, bool) {
	n, err := strconv.ParseUint(c.Param("n"), 10, 32)
	if err != nil || n == 0 || n > tablecode.MaxTableNumber {
		return 0, false
	}
	return uint32(n), true
}

func (h *AdminHandler) tableURL(code string) string {
	base := strings.TrimRight(h.Cfg.PublicBaseURL, "/")
	return base + "/mesa/" + code
}

// TableCode returns the opaque code and guest entry URL for a table.
func (h *AdminHandler) TableCode(c echo.Context) error {
	n, ok := h.tableOf(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table number"})
	}
	code, err := h.Codes.Encode(n)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table number"})
	}
	return c.JSON(http.StatusOK, tableCodeResp{NumeroMesa: n, Code: code, URL: h.tableURL(code)})
}

// TableQR renders the table's guest entry URL as a 512x512 PNG ready
// for printing on the sticker.
func (h *AdminHandler) TableQR(c echo.Context) error {
	n, ok := h.tableOf(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table number"})
	}
	code, err := h.Codes.Encode(n)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table number"})
	}
	png, err := qrcode.Encode(h.tableURL(code), qrcode.Medium, 512)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "qr render failed"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
