package checkout

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesaqr/table-ordering/internal/cart"
	"github.com/mesaqr/table-ordering/internal/model"
)

// fakeBackend implements every Deps interface and records what the
// submission sequence did to it.
type fakeBackend struct {
	uploads      int
	uploadErr    error
	orders       []model.Order
	orderItems   [][]model.OrderItem
	orderErr     error
	consumed     []uint64 // order ids the discount was linked to
	consumeErr   error
	staffID      *uint64
	staffErr     error
	staffLookups int
	nextOrderID  uint64
}

func (b *fakeBackend) UploadReceipt(ctx context.Context, contentType string, size int64, body io.Reader) (string, error) {
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	b.uploads++
	return "recibos/r1.jpg", nil
}

func (b *fakeBackend) CreateOrder(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	if b.orderErr != nil {
		return b.orderErr
	}
	b.nextOrderID++
	o.ID = b.nextOrderID
	b.orders = append(b.orders, *o)
	b.orderItems = append(b.orderItems, items)
	return nil
}

func (b *fakeBackend) Consume(ctx context.Context, d *model.ActiveDiscount, orderID uint64) error {
	if b.consumeErr != nil {
		return b.consumeErr
	}
	b.consumed = append(b.consumed, orderID)
	return nil
}

func (b *fakeBackend) StaffForTable(ctx context.Context, mesa uint32, day time.Time) (*uint64, error) {
	b.staffLookups++
	return b.staffID, b.staffErr
}

func (b *fakeBackend) deps() Deps {
	return Deps{Receipts: b, Orders: b, Discounts: b, Staff: b}
}

func twoLomoCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	require.NoError(t, c.Add(cart.Item{ProductID: 1, Nombre: "p1", PrecioCents: 2500, Cantidad: 2}))
	return c
}

func TestHappyPathCardUser(t *testing.T) {
	b := &fakeBackend{}
	f := NewUserFlow("f1", 9, twoLomoCart(t), nil)

	require.Equal(t, StateSummary, f.State)
	require.NoError(t, f.Proceed())
	require.Equal(t, StateMethodSelection, f.State)
	require.NoError(t, f.SelectMethod(model.MethodCard))
	require.Equal(t, StatePaymentDetail, f.State)
	require.True(t, f.CanSubmit())

	require.NoError(t, f.Submit(context.Background(), b.deps()))
	require.Equal(t, StateAwaitingConfirmation, f.State)
	require.True(t, f.Cart.Empty())

	require.Len(t, b.orders, 1)
	o := b.orders[0]
	require.Equal(t, uint32(5000), o.SubtotalCents)
	require.Equal(t, uint32(5000), o.TotalCents)
	require.Equal(t, uint32(50), o.PuntosGanados)
	require.Equal(t, model.StatusPending, o.Estado)
	require.False(t, o.EsInvitado)
	require.Len(t, b.orderItems[0], 1)
	require.Equal(t, uint32(2500), b.orderItems[0][0].PrecioCents)
}

func TestDiscountAppliedAndConsumed(t *testing.T) {
	b := &fakeBackend{}
	d := &model.ActiveDiscount{ID: 3, UserID: 9, DescuentoPct: 20}
	f := NewUserFlow("f1", 9, twoLomoCart(t), d)

	tot := f.Totals()
	require.Equal(t, uint32(1000), tot.DescuentoCents)
	require.Equal(t, uint32(4000), tot.TotalCents)
	require.Equal(t, uint32(40), tot.Puntos)

	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCard))
	require.NoError(t, f.Submit(context.Background(), b.deps()))

	o := b.orders[0]
	require.Equal(t, uint32(4000), o.TotalCents)
	require.Equal(t, uint32(40), o.PuntosGanados)
	require.NotNil(t, o.DescuentoID)
	require.Equal(t, []uint64{o.ID}, b.consumed)
}

func TestConsumeFailureDoesNotFailSubmission(t *testing.T) {
	b := &fakeBackend{consumeErr: errors.New("boom")}
	d := &model.ActiveDiscount{ID: 3, UserID: 9, DescuentoPct: 20}
	f := NewUserFlow("f1", 9, twoLomoCart(t), d)

	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCard))
	require.NoError(t, f.Submit(context.Background(), b.deps()))
	// The order stands and the flow moved on despite step 4 failing.
	require.Equal(t, StateAwaitingConfirmation, f.State)
	require.Len(t, b.orders, 1)
}

func TestOrderFailureKeepsCart(t *testing.T) {
	b := &fakeBackend{orderErr: errors.New("db down")}
	f := NewUserFlow("f1", 9, twoLomoCart(t), nil)

	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCard))
	require.Error(t, f.Submit(context.Background(), b.deps()))
	require.Equal(t, StatePaymentDetail, f.State)
	require.False(t, f.Cart.Empty())

	// Retry succeeds once the backend recovers.
	b.orderErr = nil
	require.NoError(t, f.Submit(context.Background(), b.deps()))
	require.Equal(t, StateAwaitingConfirmation, f.State)
}

func TestGuestFlow(t *testing.T) {
	b := &fakeBackend{}
	f := NewGuestFlow("f1", 7, twoLomoCart(t))

	// Identity is required before leaving the summary.
	require.Error(t, f.Proceed())
	require.NoError(t, f.SetGuestInfo(GuestInfo{Nombre: "Ana Lopez"}))
	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCard))
	require.NoError(t, f.Submit(context.Background(), b.deps()))

	// Guests complete immediately, no waiting step.
	require.Equal(t, StateConfirmed, f.State)
	o := b.orders[0]
	require.True(t, o.EsInvitado)
	require.Equal(t, uint32(7), *o.NumeroMesa)
	require.Equal(t, uint32(0), o.PuntosGanados)
	require.Equal(t, "Ana Lopez", *o.NombreInvitado)
	require.Nil(t, o.TelefonoInvitado)
	require.Equal(t, model.StatusPending, o.Estado)
}

func TestGuestStaffResolution(t *testing.T) {
	staff := uint64(12)
	b := &fakeBackend{staffID: &staff}
	f := NewGuestFlow("f1", 7, twoLomoCart(t))
	require.NoError(t, f.SetGuestInfo(GuestInfo{Nombre: "Ana Lopez", Telefono: "987654321"}))
	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCash))
	require.NoError(t, f.SetTendered(6000))
	require.NoError(t, f.Submit(context.Background(), b.deps()))

	require.Equal(t, uint64(12), *b.orders[0].EmpleadoID)
	require.Equal(t, "987654321", *b.orders[0].TelefonoInvitado)
}

func TestGuestStaffLookupFailureDoesNotBlock(t *testing.T) {
	b := &fakeBackend{staffErr: errors.New("db hiccup")}
	f := NewGuestFlow("f1", 7, twoLomoCart(t))
	require.NoError(t, f.SetGuestInfo(GuestInfo{Nombre: "Ana Lopez"}))
	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCard))
	require.NoError(t, f.Submit(context.Background(), b.deps()))
	require.Nil(t, b.orders[0].EmpleadoID)
}

func TestGuestValidation(t *testing.T) {
	f := NewGuestFlow("f1", 7, twoLomoCart(t))

	err := f.SetGuestInfo(GuestInfo{Nombre: "A"})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "nombre", fe.Field)

	err = f.SetGuestInfo(GuestInfo{Nombre: strings.Repeat("a", 101)})
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "nombre", fe.Field)

	err = f.SetGuestInfo(GuestInfo{Nombre: "Ana Lopez", Telefono: "12345"})
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "telefono", fe.Field)

	require.NoError(t, f.SetGuestInfo(GuestInfo{Nombre: "  Ana Lopez  ", Telefono: "912345678"}))
	require.Equal(t, "Ana Lopez", f.Guest.Nombre)
}

func TestCashGuard(t *testing.T) {
	b := &fakeBackend{}
	f := NewUserFlow("f1", 9, twoLomoCart(t), nil) // total 50.00
	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCash))

	// No tendered amount yet: blocked.
	require.False(t, f.CanSubmit())
	require.ErrorIs(t, f.Submit(context.Background(), b.deps()), ErrInsufficientCash)

	// Below total: still blocked, change not payable.
	require.NoError(t, f.SetTendered(4999))
	require.False(t, f.CanSubmit())
	change, known := f.ChangeCents()
	require.True(t, known)
	require.Equal(t, uint32(0), change)

	// Exactly the total: enabled the instant tendered >= total.
	require.NoError(t, f.SetTendered(5000))
	require.True(t, f.CanSubmit())
	change, _ = f.ChangeCents()
	require.Equal(t, uint32(0), change)

	require.NoError(t, f.SetTendered(6000))
	change, _ = f.ChangeCents()
	require.Equal(t, uint32(1000), change)
	require.NoError(t, f.Submit(context.Background(), b.deps()))
}

func TestWalletRequiresReceipt(t *testing.T) {
	b := &fakeBackend{}
	f := NewUserFlow("f1", 9, twoLomoCart(t), nil)
	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodWalletQR))

	require.False(t, f.CanSubmit())
	require.ErrorIs(t, f.Submit(context.Background(), b.deps()), ErrReceiptRequired)
	require.Empty(t, b.orders) // nothing was created

	require.ErrorIs(t,
		f.AttachReceipt(Receipt{ContentType: "application/pdf", Size: 100, Body: strings.NewReader("x")}),
		ErrReceiptNotImage)
	require.ErrorIs(t,
		f.AttachReceipt(Receipt{ContentType: "image/png", Size: 6 << 20, Body: strings.NewReader("x")}),
		ErrReceiptTooLarge)

	require.NoError(t, f.AttachReceipt(Receipt{ContentType: "image/png", Size: 1024, Body: strings.NewReader("x")}))
	require.True(t, f.CanSubmit())
	require.NoError(t, f.Submit(context.Background(), b.deps()))
	require.Equal(t, 1, b.uploads)
	require.Equal(t, "recibos/r1.jpg", *b.orders[0].ReciboPath)
}

func TestUploadFailureAbortsBeforeOrder(t *testing.T) {
	b := &fakeBackend{uploadErr: errors.New("storage down")}
	f := NewUserFlow("f1", 9, twoLomoCart(t), nil)
	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodWalletQR))
	require.NoError(t, f.AttachReceipt(Receipt{ContentType: "image/jpeg", Size: 10, Body: strings.NewReader("x")}))

	require.Error(t, f.Submit(context.Background(), b.deps()))
	require.Empty(t, b.orders)
	require.False(t, f.Cart.Empty())
}

func TestBackwardTransitions(t *testing.T) {
	f := NewUserFlow("f1", 9, twoLomoCart(t), nil)
	require.ErrorIs(t, f.Back(), ErrBadTransition)

	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCash))
	require.NoError(t, f.SetTendered(9000))

	require.NoError(t, f.Back())
	require.Equal(t, StateMethodSelection, f.State)
	require.Empty(t, f.Method)
	require.Nil(t, f.TenderedCents)

	require.NoError(t, f.Back())
	require.Equal(t, StateSummary, f.State)
}

func TestGuardsAndMisorderedCalls(t *testing.T) {
	f := NewUserFlow("f1", 9, cart.New(), nil)
	require.ErrorIs(t, f.Proceed(), ErrEmptyCart)

	f = NewUserFlow("f2", 9, twoLomoCart(t), nil)
	require.ErrorIs(t, f.SelectMethod(model.MethodCard), ErrBadTransition)
	require.NoError(t, f.Proceed())
	require.ErrorIs(t, f.SelectMethod("cheque"), ErrUnknownMethod)
	require.ErrorIs(t, f.SetTendered(100), ErrBadTransition)
}

func TestDoubleSubmit(t *testing.T) {
	b := &fakeBackend{}
	f := NewUserFlow("f1", 9, twoLomoCart(t), nil)
	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCard))
	require.NoError(t, f.Submit(context.Background(), b.deps()))
	require.ErrorIs(t, f.Submit(context.Background(), b.deps()), ErrAlreadySubmitted)
	require.Len(t, b.orders, 1)
}

func TestHandleStatusChange(t *testing.T) {
	b := &fakeBackend{}
	f := NewUserFlow("f1", 9, twoLomoCart(t), nil)
	require.NoError(t, f.Proceed())
	require.NoError(t, f.SelectMethod(model.MethodCard))
	require.NoError(t, f.Submit(context.Background(), b.deps()))

	// Wrong order or non-confirming statuses are ignored.
	require.False(t, f.HandleStatusChange(f.OrderID+1, model.StatusConfirmed))
	require.False(t, f.HandleStatusChange(f.OrderID, model.StatusCancelled))
	require.Equal(t, StateAwaitingConfirmation, f.State)

	require.True(t, f.HandleStatusChange(f.OrderID, model.StatusConfirmed))
	require.Equal(t, StateConfirmed, f.State)
	require.False(t, f.HandleStatusChange(f.OrderID, model.StatusConfirmed))
}
