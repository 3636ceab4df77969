package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mesaqr/table-ordering/internal/cart"
	"github.com/mesaqr/table-ordering/internal/checkout"
	"github.com/mesaqr/table-ordering/internal/repository"
	"github.com/mesaqr/table-ordering/internal/tablecode"
)

var productColumns = []string{
	"id", "categoria_id", "nombre", "descripcion", "precio_cents",
	"imagen_url", "disponible", "created_at", "updated_at",
}

// newMenuRepo returns a ProductRepo over a mocked connection together
// with the mock for setting query expectations.
func newMenuRepo(t *testing.T) (*repository.ProductRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewProductRepo(db), mock
}

func newFlowStore(t *testing.T) (*checkout.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return checkout.NewStore(rdb, time.Minute), mr
}

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// An order for a product the menu marks unavailable is a normal client
// mistake; the handler must answer it, not crash on an empty cart.
func TestStartGuestUnavailableProduct(t *testing.T) {
	products, mock := newMenuRepo(t)
	rows := sqlmock.NewRows(productColumns).
		AddRow(4, 1, "Chicha morada", nil, 800, nil, false, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT .+ FROM productos WHERE id IN`).WillReturnRows(rows)

	codes := tablecode.NewEncoder("mesa-secreta")
	code, err := codes.Encode(7)
	require.NoError(t, err)

	flows, mr := newFlowStore(t)
	h := &CheckoutHandler{Flows: flows, Products: products, Codes: codes}

	e := echo.New()
	c, rec := postJSON(e, "/v1/mesa/"+code+"/checkout",
		`{"items":[{"producto_id":4,"cantidad":1}]}`)
	c.SetParamNames("code")
	c.SetParamValues(code)

	require.NotPanics(t, func() {
		require.NoError(t, h.StartGuest(c))
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Empty(t, mr.Keys(), "no flow snapshot may be written for a rejected cart")
}

func TestStartGuestMenuLookupFailure(t *testing.T) {
	products, mock := newMenuRepo(t)
	mock.ExpectQuery(`SELECT .+ FROM productos WHERE id IN`).
		WillReturnError(context.DeadlineExceeded)

	codes := tablecode.NewEncoder("mesa-secreta")
	code, err := codes.Encode(7)
	require.NoError(t, err)

	flows, mr := newFlowStore(t)
	h := &CheckoutHandler{Flows: flows, Products: products, Codes: codes}

	e := echo.New()
	c, rec := postJSON(e, "/v1/mesa/"+code+"/checkout",
		`{"items":[{"producto_id":4,"cantidad":1}]}`)
	c.SetParamNames("code")
	c.SetParamValues(code)

	require.NotPanics(t, func() {
		require.NoError(t, h.StartGuest(c))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, mr.Keys())
}

func TestAddItemUnknownProduct(t *testing.T) {
	products, mock := newMenuRepo(t)
	// Empty result set: the requested product does not exist.
	mock.ExpectQuery(`SELECT .+ FROM productos WHERE id IN`).
		WillReturnRows(sqlmock.NewRows(productColumns))

	flows, _ := newFlowStore(t)
	ctx := context.Background()

	crt := cart.New()
	require.NoError(t, crt.Add(cart.Item{ProductID: 1, Nombre: "Ceviche", PrecioCents: 3200, Cantidad: 1}))
	f := checkout.NewGuestFlow("0123456789abcdef0123456789abcdef", 5, crt)
	require.NoError(t, flows.Save(ctx, f))

	h := &CheckoutHandler{Flows: flows, Products: products}

	e := echo.New()
	c, rec := postJSON(e, "/v1/checkout/"+f.ID+"/items",
		`{"producto_id":99,"cantidad":1}`)
	c.SetParamNames("id")
	c.SetParamValues(f.ID)

	require.NotPanics(t, func() {
		require.NoError(t, h.AddItem(c))
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The snapshot is untouched.
	got, err := flows.Load(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, uint32(3200), got.Cart.SubtotalCents())
}
