package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/restaurant-pos/internal/order/application"
	"github.com/dmehra2102/restaurant-pos/internal/order/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

type stubService struct {
	gotKey string
	byKey  map[string]domain.Order
	err    error
}

func (s *stubService) CreateOrder(_ context.Context, in domain.PlaceOrder, key string, _ map[string]string) (domain.Order, bool, error) {
	s.gotKey = key
	if s.err != nil {
		return domain.Order{}, false, s.err
	}
	if o, ok := s.byKey[key]; ok {
		return o, true, nil
	}
	o := domain.Order{ID: "order-1", Status: domain.StatusPending, Total: in.Total}
	if s.byKey == nil {
		s.byKey = map[string]domain.Order{}
	}
	s.byKey[key] = o
	return o, false, nil
}

func (s *stubService) Get(_ context.Context, id string) (domain.Order, error) {
	for _, o := range s.byKey {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

const body = `{"branchId":"b1","type":"DINE_IN","total":315,"paymentMethod":"cash","source":"pos","items":[{"menuItemId":"X","quantity":2,"price":150}]}`

func newRouter(svc OrderService) (http.Handler, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, m).Routes(), m
}

func post(h http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderAndReplay(t *testing.T) {
	svc := &stubService{}
	h, m := newRouter(svc)

	rec := post(h, "k1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "k1", svc.gotKey)
	assert.JSONEq(t, `{"success":true,"data":{"id":"order-1","status":"pending","total":315}}`, rec.Body.String())

	rec = post(h, "k1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replays))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCreated.WithLabelValues("", "")))
}

func TestCreateOrderErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidOrder, http.StatusUnprocessableEntity},
		{application.ErrDuplicateInFlight, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h, _ := newRouter(&stubService{err: tt.err})
		assert.Equal(t, tt.code, post(h, "").Code, tt.err.Error())
	}

	h, _ := newRouter(&stubService{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder(t *testing.T) {
	svc := &stubService{byKey: map[string]domain.Order{"k": {ID: "o9", Total: money.FromMajor(10)}}}
	h, _ := newRouter(svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data domain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, money.FromMajor(10), env.Data.Total)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
