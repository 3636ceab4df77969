// Package checkout drives the order submission state machine:
//
//	summary -> method_selection -> payment_detail -> awaiting_confirmation -> confirmed
//
// Guests skip the waiting step and jump from payment_detail straight
// to confirmed on submission; their order still starts in the pending
// operational status and is worked by staff independently.  A Flow is
// owned by one browsing session, snapshotted between requests, and
// never shared across goroutines.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/mesaqr/table-ordering/internal/cart"
	"github.com/mesaqr/table-ordering/internal/model"
)

// State names the positions of the checkout state machine.
type State string

const (
	StateSummary              State = "summary"
	StateMethodSelection      State = "method_selection"
	StatePaymentDetail        State = "payment_detail"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateConfirmed            State = "confirmed"
)

// maxReceiptBytes caps the payment receipt upload at 5 MB.
const maxReceiptBytes = 5 << 20

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrBadTransition    = errors.New("transition not allowed in current state")
	ErrUnknownMethod    = errors.New("unknown payment method")
	ErrReceiptRequired  = errors.New("receipt image required for wallet payment")
	ErrReceiptTooLarge  = errors.New("receipt exceeds 5 MB")
	ErrReceiptNotImage  = errors.New("receipt must be an image")
	ErrInsufficientCash = errors.New("tendered amount is below the total")
	ErrAlreadySubmitted = errors.New("order already submitted")
)

// FieldError is a guest-identity validation failure surfaced next to
// the offending form field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

var phoneRe = regexp.MustCompile(`^[0-9]{9}$`)

// GuestInfo is the self-reported identity of an unauthenticated
// customer ordering from a table.
type GuestInfo struct {
	Nombre   string `json:"nombre"`
	Telefono string `json:"telefono,omitempty"`
}

// Validate enforces the guest identity rules: name between 2 and 100
// characters, phone optional but exactly 9 digits when present.
func (g GuestInfo) Validate() error {
	nombre := strings.TrimSpace(g.Nombre)
	if len(nombre) < 2 {
		return &FieldError{Field: "nombre", Msg: "debe tener al menos 2 caracteres"}
	}
	if len(nombre) > 100 {
		return &FieldError{Field: "nombre", Msg: "debe tener como máximo 100 caracteres"}
	}
	if g.Telefono != "" && !phoneRe.MatchString(g.Telefono) {
		return &FieldError{Field: "telefono", Msg: "debe tener exactamente 9 dígitos"}
	}
	return nil
}

// Receipt is a payment proof attached during the submit request.  It
// is consumed by the upload step and never serialized into the flow
// snapshot.
type Receipt struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// Flow is one checkout in progress.
type Flow struct {
	ID            string
	State         State
	UserID        *uint64 // nil for guests
	Guest         *GuestInfo
	TableNumber   *uint32
	Cart          *cart.Cart
	Method        string
	TenderedCents *uint32
	Discount      *model.ActiveDiscount // captured at flow start, 0% when nil
	OrderID       uint64                // set after successful submission

	receipt *Receipt
}

// NewUserFlow starts a checkout for a registered customer.  The
// active discount (if any) is captured once, here, and applied to
// every total shown for the rest of the flow.
func NewUserFlow(id string, userID uint64, c *cart.Cart, discount *model.ActiveDiscount) *Flow {
	return &Flow{ID: id, State: StateSummary, UserID: &userID, Cart: c, Discount: discount}
}

// NewGuestFlow starts a table-scoped checkout for a guest.  Guests
// have no discount and accrue no points.
func NewGuestFlow(id string, table uint32, c *cart.Cart) *Flow {
	return &Flow{ID: id, State: StateSummary, TableNumber: &table, Cart: c}
}

// IsGuest reports whether the flow belongs to an unauthenticated
// table session.
func (f *Flow) IsGuest() bool { return f.UserID == nil }

// DiscountPct is the percentage applied to this flow's totals.
func (f *Flow) DiscountPct() uint8 {
	if f.Discount == nil {
		return 0
	}
	return f.Discount.DescuentoPct
}

// Totals returns the current money breakdown of the cart under the
// flow's discount.
func (f *Flow) Totals() cart.Totals { return f.Cart.Compute(f.DiscountPct()) }

// SetGuestInfo validates and records the guest identity.  It must
// succeed before the flow can leave the summary; field failures are
// returned as *FieldError.
func (f *Flow) SetGuestInfo(g GuestInfo) error {
	if !f.IsGuest() {
		return ErrBadTransition
	}
	if err := g.Validate(); err != nil {
		return err
	}
	g.Nombre = strings.TrimSpace(g.Nombre)
	f.Guest = &g
	return nil
}

// Proceed moves summary -> method_selection.  Guarded by a non-empty
// cart, and for guests by previously validated identity.
func (f *Flow) Proceed() error {
	if f.State != StateSummary {
		return ErrBadTransition
	}
	if f.Cart.Empty() {
		return ErrEmptyCart
	}
	if f.IsGuest() && f.Guest == nil {
		return &FieldError{Field: "nombre", Msg: "debe tener al menos 2 caracteres"}
	}
	f.State = StateMethodSelection
	return nil
}

// SelectMethod moves method_selection -> payment_detail with one of
// the three supported payment methods.
func (f *Flow) SelectMethod(method string) error {
	if f.State != StateMethodSelection {
		return ErrBadTransition
	}
	switch method {
	case model.MethodWalletQR, model.MethodCash, model.MethodCard:
	default:
		return ErrUnknownMethod
	}
	f.Method = method
	f.State = StatePaymentDetail
	return nil
}

// Back steps the flow one state backwards.  Only payment_detail ->
// method_selection and method_selection -> summary exist; states are
// never skipped and the waiting states cannot be left.
func (f *Flow) Back() error {
	switch f.State {
	case StatePaymentDetail:
		f.State = StateMethodSelection
		f.Method = ""
		f.TenderedCents = nil
		f.receipt = nil
	case StateMethodSelection:
		f.State = StateSummary
	default:
		return ErrBadTransition
	}
	return nil
}

// SetTendered records the cash handed over for an efectivo payment.
func (f *Flow) SetTendered(cents uint32) error {
	if f.State != StatePaymentDetail || f.Method != model.MethodCash {
		return ErrBadTransition
	}
	f.TenderedCents = &cents
	return nil
}

// ChangeCents returns the change due (tendered - total) and whether a
// tendered amount is known.  Negative differences report zero change
// and false readiness through CanSubmit.
func (f *Flow) ChangeCents() (uint32, bool) {
	if f.TenderedCents == nil {
		return 0, false
	}
	total := f.Totals().TotalCents
	if *f.TenderedCents < total {
		return 0, true
	}
	return *f.TenderedCents - total, true
}

// AttachReceipt validates and attaches the wallet payment proof.
func (f *Flow) AttachReceipt(r Receipt) error {
	if f.State != StatePaymentDetail || f.Method != model.MethodWalletQR {
		return ErrBadTransition
	}
	if !strings.HasPrefix(r.ContentType, "image/") {
		return ErrReceiptNotImage
	}
	if r.Size > maxReceiptBytes {
		return ErrReceiptTooLarge
	}
	f.receipt = &r
	return nil
}

// CanSubmit reports whether the per-method submit guard is satisfied:
// wallet needs an attached receipt, cash needs tendered >= total,
// card has no extra precondition.  The UI keeps the confirm control
// disabled while this is false.
func (f *Flow) CanSubmit() bool {
	if f.State != StatePaymentDetail {
		return false
	}
	switch f.Method {
	case model.MethodWalletQR:
		return f.receipt != nil
	case model.MethodCash:
		return f.TenderedCents != nil && *f.TenderedCents >= f.Totals().TotalCents
	case model.MethodCard:
		return true
	}
	return false
}

// ReceiptUploader stores a payment proof and returns its object path.
type ReceiptUploader interface {
	UploadReceipt(ctx context.Context, contentType string, size int64, body io.Reader) (string, error)
}

// OrderCreator persists the order together with its line items in one
// atomic operation and fills in the generated order ID.
type OrderCreator interface {
	CreateOrder(ctx context.Context, o *model.Order, items []model.OrderItem) error
}

// DiscountConsumer marks an active discount as used by an order.
type DiscountConsumer interface {
	Consume(ctx context.Context, discount *model.ActiveDiscount, orderID uint64) error
}

// StaffResolver finds the waitstaff assigned to a table today, or nil
// when no assignment matches.
type StaffResolver interface {
	StaffForTable(ctx context.Context, mesa uint32, day time.Time) (*uint64, error)
}

// Deps are the collaborators Submit drives, in its fixed order.
type Deps struct {
	Receipts  ReceiptUploader
	Orders    OrderCreator
	Discounts DiscountConsumer
	Staff     StaffResolver
	Now       func() time.Time // defaults to time.Now
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Submit executes the submission sequence: (1) optional receipt
// upload, (2)+(3) order and items in one transaction, (4) discount
// consumption.  Each step starts only after the previous succeeded.
// A failure before order creation aborts the whole submission and
// keeps the cart so the customer can retry.  A failure in step (4) is
// logged and deliberately not rolled back: the order stands and the
// discount stays usable.  On success the cart is cleared and the flow
// transitions to awaiting_confirmation (registered customers) or
// confirmed (guests).
func (f *Flow) Submit(ctx context.Context, deps Deps) error {
	if f.State == StateAwaitingConfirmation || f.State == StateConfirmed {
		return ErrAlreadySubmitted
	}
	if f.State != StatePaymentDetail {
		return ErrBadTransition
	}
	switch f.Method {
	case model.MethodWalletQR:
		if f.receipt == nil {
			return ErrReceiptRequired
		}
	case model.MethodCash:
		if f.TenderedCents == nil || *f.TenderedCents < f.Totals().TotalCents {
			return ErrInsufficientCash
		}
	}

	totals := f.Totals()
	order := model.Order{
		UserID:         f.UserID,
		EsInvitado:     f.IsGuest(),
		NumeroMesa:     f.TableNumber,
		SubtotalCents:  totals.SubtotalCents,
		DescuentoCents: totals.DescuentoCents,
		TotalCents:     totals.TotalCents,
		MetodoPago:     f.Method,
		Estado:         model.StatusPending,
		PuntosGanados:  totals.Puntos,
	}
	if f.IsGuest() {
		order.NombreInvitado = &f.Guest.Nombre
		if f.Guest.Telefono != "" {
			tel := f.Guest.Telefono
			order.TelefonoInvitado = &tel
		}
		// Guests never accrue points.
		order.PuntosGanados = 0
		// Resolve the table's waiter from today's assignments.  A
		// missing or failed lookup must not block order creation.
		if f.TableNumber != nil && deps.Staff != nil {
			staffID, err := deps.Staff.StaffForTable(ctx, *f.TableNumber, deps.now())
			if err != nil {
				log.Printf("checkout: staff lookup for table %d failed: %v", *f.TableNumber, err)
			} else {
				order.EmpleadoID = staffID
			}
		}
	}
	if f.Discount != nil {
		order.DescuentoID = &f.Discount.ID
	}

	// Step 1: receipt upload.  Its path must be on the order row, so
	// the upload happens before the insert.
	if f.receipt != nil {
		path, err := deps.Receipts.UploadReceipt(ctx, f.receipt.ContentType, f.receipt.Size, f.receipt.Body)
		if err != nil {
			return fmt.Errorf("upload receipt: %w", err)
		}
		order.ReciboPath = &path
	}

	// Steps 2+3: order and line items, atomic in the store.
	items := make([]model.OrderItem, 0, len(f.Cart.Items()))
	for _, it := range f.Cart.Items() {
		items = append(items, model.OrderItem{
			ProductID:   it.ProductID,
			Cantidad:    it.Cantidad,
			PrecioCents: it.PrecioCents,
		})
	}
	if err := deps.Orders.CreateOrder(ctx, &order, items); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	f.OrderID = order.ID

	// Step 4: consume the discount.  The order exists at this point,
	// so a failure here is logged and accepted rather than rolled
	// back.
	if f.Discount != nil {
		if err := deps.Discounts.Consume(ctx, f.Discount, order.ID); err != nil {
			log.Printf("checkout: consume discount %d for order %d failed: %v", f.Discount.ID, order.ID, err)
		}
	}

	f.Cart.Clear()
	f.receipt = nil
	if f.IsGuest() {
		f.State = StateConfirmed
	} else {
		f.State = StateAwaitingConfirmation
	}
	return nil
}

// HandleStatusChange feeds an external order-status notification into
// the flow.  Only the transition awaiting_confirmation -> confirmed
// exists here; every other status is ignored.  It reports whether the
// flow advanced.
func (f *Flow) HandleStatusChange(orderID uint64, estado string) bool {
	if f.State != StateAwaitingConfirmation || orderID != f.OrderID {
		return false
	}
	if estado != model.StatusConfirmed {
		return false
	}
	f.State = StateConfirmed
	return true
}
