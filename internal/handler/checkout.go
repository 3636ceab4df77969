// This file drives the checkout flow over HTTP.  A flow is created
// from a cart, advanced through its states by small POST endpoints,
// and finally submitted; the flow snapshot lives in Redis between
// requests, keyed by an unguessable token that acts as the session's
// capability to the flow.

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesaqr/table-ordering/internal/cart"
	"github.com/mesaqr/table-ordering/internal/checkout"
	"github.com/mesaqr/table-ordering/internal/notify"
	"github.com/mesaqr/table-ordering/internal/repository"
	"github.com/mesaqr/table-ordering/internal/rewards"
	"github.com/mesaqr/table-ordering/internal/storage"
	"github.com/mesaqr/table-ordering/internal/tablecode"
)

// waitTimeout bounds the confirmation long-poll so idle connections
// are recycled; clients simply poll again.
const waitTimeout = 25 * time.Second

// CheckoutHandler exposes the checkout state machine over HTTP.
type CheckoutHandler struct {
	Flows    *checkout.Store
	Products *repository.ProductRepo
	Orders   *repository.OrderRepo
	Ledger   *rewards.Ledger
	Receipts *storage.ReceiptStore
	Staff    *repository.StaffRepo
	Codes    *tablecode.Encoder
	Hub      *notify.Hub
}

// ----- DTOs -----

type cartLineReq struct {
	ProductoID uint64 `json:"producto_id"`
	Cantidad   uint32 `json:"cantidad"`
}

type startFlowReq struct {
	Items    []cartLineReq      `json:"items"`
	Invitado *checkout.GuestInfo `json:"invitado,omitempty"`
}

type methodReq struct {
	MetodoPago string `json:"metodo_pago"`
}

type tenderedReq struct {
	MontoCents uint32 `json:"monto_cents"`
}

type quantityReq struct {
	Cantidad uint32 `json:"cantidad"`
}

// flowView is the state of a checkout as rendered to the client.
type flowView struct {
	ID          string      `json:"id"`
	State       string      `json:"state"`
	EsInvitado  bool        `json:"es_invitado"`
	NumeroMesa  *uint32     `json:"numero_mesa,omitempty"`
	Items       []cart.Item `json:"items"`
	Totals      cart.Totals `json:"totals"`
	MetodoPago  string      `json:"metodo_pago,omitempty"`
	CambioCents *uint32     `json:"cambio_cents,omitempty"`
	CanSubmit   bool        `json:"can_submit"`
	PedidoID    uint64      `json:"pedido_id,omitempty"`
}

func viewOf(f *checkout.Flow) flowView {
	v := flowView{
		ID:         f.ID,
		State:      string(f.State),
		EsInvitado: f.IsGuest(),
		NumeroMesa: f.TableNumber,
		Items:      f.Cart.Items(),
		Totals:     f.Totals(),
		MetodoPago: f.Method,
		CanSubmit:  f.CanSubmit(),
		PedidoID:   f.OrderID,
	}
	if change, ok := f.ChangeCents(); ok {
		v.CambioCents = &change
	}
	return v
}

// buildCart validates the requested lines against the live menu and
// copies the current prices into cart items.  Unknown or unavailable
// products reject the whole request.  On failure the response has
// already been written and the cart is nil; callers must check the
// cart, not the error, as with loadFlow.
func (h *CheckoutHandler) buildCart(c echo.Context, lines []cartLineReq) (*cart.Cart, error) {
	ids := make([]uint64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductoID)
	}
	products, err := h.Products.GetManyByIDs(c.Request().Context(), ids)
	if err != nil {
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	crt := cart.New()
	for _, l := range lines {
		p, ok := products[l.ProductoID]
		if !ok || !p.Disponible {
			return nil, c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "producto no disponible", "producto_id": l.ProductoID})
		}
		if err := crt.Add(cart.Item{
			ProductID:   p.ID,
			Nombre:      p.Nombre,
			PrecioCents: p.PrecioCents,
			Cantidad:    l.Cantidad,
			ImagenURL:   p.ImagenURL,
		}); err != nil {
			return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}
	return crt, nil
}

// StartUser opens a checkout flow for the authenticated customer.  The
// user's unconsumed discount, if any, is captured now and applied to
// every total shown for the rest of the flow.
func (h *CheckoutHandler) StartUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req startFlowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	crt, err := h.buildCart(c, req.Items)
	if crt == nil {
		return err
	}
	discount, _, err := h.Ledger.ApplyAtCheckout(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	id, err := checkout.NewFlowID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "flow id"})
	}
	f := checkout.NewUserFlow(id, uid, crt, discount)
	if err := h.Flows.Save(c.Request().Context(), f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save flow failed"})
	}
	return c.JSON(http.StatusCreated, viewOf(f))
}

// StartGuest opens a table-scoped checkout flow from a scanned QR
// code.  Guest identity may be supplied now or later via SetGuest; it
// must be valid before the flow can leave the summary.
func (h *CheckoutHandler) StartGuest(c echo.Context) error {
	mesa, err := h.Codes.Decode(c.Param("code"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "mesa no encontrada"})
	}
	var req startFlowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	crt, err := h.buildCart(c, req.Items)
	if crt == nil {
		return err
	}
	id, err := checkout.NewFlowID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "flow id"})
	}
	f := checkout.NewGuestFlow(id, mesa, crt)
	if req.Invitado != nil {
		if err := f.SetGuestInfo(*req.Invitado); err != nil {
			return respondFlowError(c, err)
		}
	}
	if err := h.Flows.Save(c.Request().Context(), f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save flow failed"})
	}
	return c.JSON(http.StatusCreated, viewOf(f))
}

// loadFlow resolves the :id flow token and enforces ownership: a flow
// opened by a registered customer is only visible to that customer.
// Guest flows are protected by the unguessable token alone.
func (h *CheckoutHandler) loadFlow(c echo.Context) (*checkout.Flow, error) {
	f, err := h.Flows.Load(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, checkout.ErrFlowNotFound) {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "checkout not found"})
		}
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load flow failed"})
	}
	if f.UserID != nil {
		uid, err := getUserID(c)
		if err != nil || uid != *f.UserID {
			return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return f, nil
}

// respondFlowError maps checkout state machine errors onto HTTP codes.
func respondFlowError(c echo.Context, err error) error {
	var fe *checkout.FieldError
	if errors.As(err, &fe) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": []*checkout.FieldError{fe}})
	}
	switch {
	case errors.Is(err, checkout.ErrBadTransition),
		errors.Is(err, checkout.ErrAlreadySubmitted):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrUnknownMethod),
		errors.Is(err, checkout.ErrReceiptRequired),
		errors.Is(err, checkout.ErrReceiptTooLarge),
		errors.Is(err, checkout.ErrReceiptNotImage),
		errors.Is(err, checkout.ErrInsufficientCash):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
}

// save persists the mutated flow and renders it.
func (h *CheckoutHandler) save(c echo.Context, f *checkout.Flow) error {
	if err := h.Flows.Save(c.Request().Context(), f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save flow failed"})
	}
	return c.JSON(http.StatusOK, viewOf(f))
}

// Get renders the current state of a flow.
func (h *CheckoutHandler) Get(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	return c.JSON(http.StatusOK, viewOf(f))
}

// AddItem adds a product line to the cart while the flow is on the
// summary.
func (h *CheckoutHandler) AddItem(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	if f.State != checkout.StateSummary {
		return respondFlowError(c, checkout.ErrBadTransition)
	}
	var req cartLineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	added, err := h.buildCart(c, []cartLineReq{req})
	if added == nil {
		return err
	}
	for _, it := range added.Items() {
		if err := f.Cart.Add(it); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}
	return h.save(c, f)
}

// UpdateItem replaces the quantity of one cart line.
func (h *CheckoutHandler) UpdateItem(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	if f.State != checkout.StateSummary {
		return respondFlowError(c, checkout.ErrBadTransition)
	}
	pid, ok := pathID(c, "pid")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req quantityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := f.Cart.SetQuantity(pid, req.Cantidad); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return h.save(c, f)
}

// RemoveItem drops one cart line.
func (h *CheckoutHandler) RemoveItem(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	if f.State != checkout.StateSummary {
		return respondFlowError(c, checkout.ErrBadTransition)
	}
	pid, ok := pathID(c, "pid")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	f.Cart.Remove(pid)
	return h.save(c, f)
}

// SetGuest records the guest identity on the summary; field-level
// failures come back as 422 with the offending field named.
func (h *CheckoutHandler) SetGuest(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	var g checkout.GuestInfo
	if err := c.Bind(&g); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := f.SetGuestInfo(g); err != nil {
		return respondFlowError(c, err)
	}
	return h.save(c, f)
}

// Proceed advances summary -> method_selection.
func (h *CheckoutHandler) Proceed(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	if err := f.Proceed(); err != nil {
		return respondFlowError(c, err)
	}
	return h.save(c, f)
}

// SelectMethod advances method_selection -> payment_detail.
func (h *CheckoutHandler) SelectMethod(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	var req methodReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := f.SelectMethod(req.MetodoPago); err != nil {
		return respondFlowError(c, err)
	}
	return h.save(c, f)
}

// Back steps the flow one state backwards.
func (h *CheckoutHandler) Back(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	if err := f.Back(); err != nil {
		return respondFlowError(c, err)
	}
	return h.save(c, f)
}

// SetTendered records the cash handed over for an efectivo payment and
// echoes the change due.
func (h *CheckoutHandler) SetTendered(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	var req tenderedReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := f.SetTendered(req.MontoCents); err != nil {
		return respondFlowError(c, err)
	}
	return h.save(c, f)
}

// Submit executes the submission sequence.  For wallet payments the
// receipt image travels in the multipart field "recibo" of this same
// request; it is validated, attached and uploaded before the order is
// created.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}

	// Serialize submissions per flow: without the marker a second
	// request racing this one would load the same payment_detail
	// snapshot and create a second order.
	ctx := c.Request().Context()
	locked, err := h.Flows.TryLockSubmit(ctx, f.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lock flow failed"})
	}
	if !locked {
		return respondFlowError(c, checkout.ErrAlreadySubmitted)
	}
	defer h.Flows.UnlockSubmit(context.WithoutCancel(ctx), f.ID)

	if fh, err := c.FormFile("recibo"); err == nil {
		src, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "recibo unreadable"})
		}
		defer src.Close()
		if err := f.AttachReceipt(checkout.Receipt{
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        src,
		}); err != nil {
			return respondFlowError(c, err)
		}
	}

	deps := checkout.Deps{
		Receipts:  h.Receipts,
		Orders:    h.Orders,
		Discounts: h.Ledger,
		Staff:     h.Staff,
	}
	if err := f.Submit(c.Request().Context(), deps); err != nil {
		return respondFlowError(c, err)
	}
	return h.save(c, f)
}

// Wait long-polls for the staff confirmation of a submitted order.
// It returns as soon as the order is confirmed, or after waitTimeout
// with the unchanged state so the client polls again.
func (h *CheckoutHandler) Wait(c echo.Context) error {
	f, err := h.loadFlow(c)
	if f == nil {
		return err
	}
	if f.State != checkout.StateAwaitingConfirmation {
		return c.JSON(http.StatusOK, viewOf(f))
	}

	ch, cancel := h.Hub.Subscribe(f.OrderID)
	defer cancel()

	// The status may have been committed between the snapshot load and
	// the subscription; re-read it once so the poll cannot miss it.
	if d, err := h.Orders.GetByID(c.Request().Context(), f.OrderID); err == nil {
		if f.HandleStatusChange(f.OrderID, d.Estado) {
			return h.save(c, f)
		}
	}

	timer := time.NewTimer(waitTimeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return c.JSON(http.StatusOK, viewOf(f))
			}
			if f.HandleStatusChange(ev.OrderID, ev.NewEstado) {
				return h.save(c, f)
			}
		case <-timer.C:
			return c.JSON(http.StatusOK, viewOf(f))
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}
}
