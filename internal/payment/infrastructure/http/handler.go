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

	"github.com/dmehra2102/restaurant-pos/internal/payment/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/httpx"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
	"github.com/dmehra2102/restaurant-pos/pkg/tracing"
)

type IntentCreator interface {
	CreateIntent(ctx context.Context, orderID string, amount money.Amount) (domain.Intent, error)
}

type Handler struct {
	log     *slog.Logger
	intents IntentCreator
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, intents IntentCreator) *Handler {
	return &Handler{log: log, intents: intents, tracer: otel.Tracer("payment-http")}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/payment-intents", h.createIntent)
}

type createIntentReq struct {
	OrderID string       `json:"orderId"`
	Amount  money.Amount `json:"amount"`
}

type createIntentResp struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

func (h *Handler) createIntent(w http.ResponseWriter, r *http.Request) {
	ctx := tracing.ExtractHTTPHeaders(r.Context(), r.Header)
	ctx, span := h.tracer.Start(ctx, "CreatePaymentIntent")
	defer span.End()

	var req createIntentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		httpx.Error(w, http.StatusBadRequest, "orderId and amount are required")
		return
	}

	in, err := h.intents.CreateIntent(ctx, req.OrderID, req.Amount)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAmountMismatch):
		httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrAlreadyPaid):
		httpx.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		h.log.Error("create payment intent failed", "order_id", req.OrderID, "err", err)
		httpx.Error(w, http.StatusInternalServerError, "could not create payment intent")
	default:
		httpx.Created(w, createIntentResp{ID: in.ID, ClientSecret: in.ClientSecret})
	}
}
