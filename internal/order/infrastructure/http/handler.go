package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/restaurant-pos/internal/order/application"
	"github.com/dmehra2102/restaurant-pos/internal/order/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/httpx"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
	"github.com/dmehra2102/restaurant-pos/pkg/tracing"
)

const IdempotencyHeader = "Idempotency-Key"

type OrderService interface {
	CreateOrder(ctx context.Context, in domain.PlaceOrder, idemKey string, headers map[string]string) (domain.Order, bool, error)
	Get(ctx context.Context, id string) (domain.Order, error)
}

type Handler struct {
	log     *slog.Logger
	service OrderService
	metrics *Metrics
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service OrderService, metrics *Metrics) *Handler {
	return &Handler{
		log:     log,
		service: service,
		metrics: metrics,
		tracer:  otel.Tracer("order-http"),
	}
}

type orderResp struct {
	ID     string             `json:"id"`
	Status domain.OrderStatus `json:"status"`
	Total  money.Amount       `json:"total"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := tracing.ExtractHTTPHeaders(r.Context(), r.Header)
	ctx, span := h.tracer.Start(ctx, "CreateOrder")
	defer span.End()

	var req domain.PlaceOrder
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid body")
		return
	}

	headers := map[string]string{"source": "order-service"}
	o, replayed, err := h.service.CreateOrder(ctx, req, r.Header.Get(IdempotencyHeader), headers)
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, application.ErrDuplicateInFlight):
		httpx.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.log.Error("create order failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, "could not create order")
		return
	}

	resp := orderResp{ID: o.ID, Status: o.Status, Total: o.Total}
	if replayed {
		h.metrics.replayed()
		httpx.OK(w, resp)
		return
	}
	h.metrics.created(o)
	httpx.Created(w, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	o, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrOrderNotFound) {
		httpx.Error(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.log.Error("get order failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, "could not load order")
		return
	}
	httpx.OK(w, o)
}
