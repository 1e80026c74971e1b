package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/internal/pos/application"
	"github.com/dmehra2102/restaurant-pos/internal/pos/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

type fakeCatalog struct {
	items []catalog.Item
}

func (f *fakeCatalog) Item(_ context.Context, id string) (catalog.Item, error) {
	return catalog.NewMenu(f.items).Get(id)
}

func (f *fakeCatalog) FreshMenu(context.Context) (catalog.Menu, error) {
	return catalog.NewMenu(f.items), nil
}

func (f *fakeCatalog) Categories(context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: "mains", Name: "Mains"}}, nil
}

func (f *fakeCatalog) Items(context.Context, string) ([]catalog.Item, error) { return f.items, nil }

func (f *fakeCatalog) Branches(context.Context) ([]catalog.Branch, error) {
	return []catalog.Branch{{ID: "b1", Name: "Downtown"}}, nil
}

type fakeOrders struct {
	err   error
	draft domain.OrderDraft
	key   string
}

func (f *fakeOrders) Submit(_ context.Context, d domain.OrderDraft, key string) (application.OrderReceipt, error) {
	f.draft, f.key = d, key
	if f.err != nil {
		return application.OrderReceipt{}, f.err
	}
	return application.OrderReceipt{ID: "order-1", Status: "pending", Total: d.Total}, nil
}

type fakeIntents struct{}

func (fakeIntents) CreateIntent(context.Context, string, money.Amount) (string, error) {
	return "pi_secret", nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	t      *testing.T
	h      http.Handler
	orders *fakeOrders
}

func newTestServer(t *testing.T, ready ReadinessCheck) *testServer {
	cat := &fakeCatalog{items: []catalog.Item{{
		ID: "X", Name: "Burger", Price: money.FromMajor(150), Available: true,
		Addons: []catalog.Addon{{ID: "cheese", Name: "Extra Cheese", Price: money.FromMajor(30)}},
	}}}
	orders := &fakeOrders{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewSessionService(log, cat, orders, fakeIntents{}, nil, application.Config{
		TaxRate:          domain.DefaultTaxRate,
		RevalidatePrices: true,
	})
	return &testServer{t: t, h: NewHandler(log, svc, cat, ready).Routes(), orders: orders}
}

func (s *testServer) do(method, path string, body any) (int, envelope) {
	s.t.Helper()
	var rd io.Reader = http.NoBody
	if body != nil {
		if raw, ok := body.(string); ok {
			rd = strings.NewReader(raw)
		} else {
			b, err := json.Marshal(body)
			require.NoError(s.t, err)
			rd = bytes.NewReader(b)
		}
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, httptest.NewRequest(method, path, rd))

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (s *testServer) session() string {
	code, env := s.do(http.MethodPost, "/sessions", nil)
	require.Equal(s.t, http.StatusCreated, code)
	var v application.SessionView
	require.NoError(s.t, json.Unmarshal(env.Data, &v))
	return v.ID
}

func view(t *testing.T, env envelope) application.SessionView {
	t.Helper()
	var v application.SessionView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestTerminalCheckoutFlow(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.session()
	base := "/sessions/" + id

	code, _ := s.do(http.MethodPost, base+"/cart/items", application.AddItemInput{ItemID: "X"})
	require.Equal(t, http.StatusOK, code)
	code, env := s.do(http.MethodPost, base+"/cart/items", application.AddItemInput{ItemID: "X", AddonIDs: []string{"cheese"}})
	require.Equal(t, http.StatusOK, code)

	v := view(t, env)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, domain.SelectionKey("X-base"), v.Lines[0].Key)
	assert.Equal(t, money.FromMajor(315), v.Totals.Total)

	code, _ = s.do(http.MethodPost, base+"/checkout", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodPut, base+"/checkout/details", domain.CustomerDetails{
		OrderType: domain.Delivery, BranchID: "b1", PaymentMethod: domain.PaymentCash,
	})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	var body validationBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Len(t, body.Fields, 3)
	require.NotNil(t, body.Session)
	assert.Equal(t, domain.StateAwaitingCustomerInfo, body.Session.State)

	code, _ = s.do(http.MethodPut, base+"/checkout/details", domain.CustomerDetails{
		OrderType: domain.DineIn, BranchID: "b1", PaymentMethod: domain.PaymentCash, TableNumber: "4",
	})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodPost, base+"/checkout/submit", nil)
	require.Equal(t, http.StatusOK, code)
	v = view(t, env)
	assert.Equal(t, domain.StateComplete, v.LastOutcome)
	assert.Equal(t, "order-1", v.OrderID)
	assert.Empty(t, v.Lines)
	assert.NotEmpty(t, s.orders.key)
	assert.Equal(t, "4", s.orders.draft.TableNumber)
}

func TestCheckoutEmptyCartConflict(t *testing.T) {
	s := newTestServer(t, nil)
	code, env := s.do(http.MethodPost, "/sessions/"+s.session()+"/checkout", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, domain.ErrEmptyCart.Error(), env.Error)
}

func TestSubmissionFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t, nil)
	s.orders.err = errors.New("connection refused")
	base := "/sessions/" + s.session()

	s.do(http.MethodPost, base+"/cart/items", application.AddItemInput{ItemID: "X"})
	s.do(http.MethodPost, base+"/checkout", nil)
	s.do(http.MethodPut, base+"/checkout/details", domain.CustomerDetails{
		OrderType: domain.TakeAway, BranchID: "b1", PaymentMethod: domain.PaymentCash,
	})

	code, env := s.do(http.MethodPost, base+"/checkout/submit", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, env.Error, "connection refused")
	v := view(t, env)
	assert.Equal(t, domain.StateAwaitingCustomerInfo, v.State)
	assert.Len(t, v.Lines, 1)
}

func TestNotFoundAndBadInput(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(http.MethodGet, "/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)

	id := s.session()
	code, _ = s.do(http.MethodPost, "/sessions/"+id+"/cart/items", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(http.MethodPost, "/sessions/"+id+"/cart/items", application.AddItemInput{})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error, "itemId")

	code, _ = s.do(http.MethodPost, "/sessions/"+id+"/cart/items", application.AddItemInput{ItemID: "ghost"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPatch, "/sessions/"+id+"/cart/items/X-base", map[string]int{"delta": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestCatalogAndProbes(t *testing.T) {
	s := newTestServer(t, func(context.Context) error { return errors.New("order service is NOT_SERVING") })

	code, env := s.do(http.MethodGet, "/catalog/branches", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"id":"b1","name":"Downtown"}]`, string(env.Data))

	code, _ = s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, env.Error, "NOT_SERVING")
}
