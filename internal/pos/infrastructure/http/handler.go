package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/internal/pos/application"
	"github.com/dmehra2102/restaurant-pos/internal/pos/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/httpx"
)

type CatalogReader interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
	Items(ctx context.Context, categoryID string) ([]catalog.Item, error)
	Branches(ctx context.Context) ([]catalog.Branch, error)
}

// ReadinessCheck reports whether the backends the console depends on are
// reachable.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	log      *slog.Logger
	sessions *application.SessionService
	catalog  CatalogReader
	ready    ReadinessCheck
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, sessions *application.SessionService, cat CatalogReader, ready ReadinessCheck) *Handler {
	return &Handler{
		log:      log,
		sessions: sessions,
		catalog:  cat,
		ready:    ready,
		tracer:   otel.Tracer("pos-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/categories", h.categories)
		r.Get("/items", h.items)
		r.Get("/branches", h.branches)
	})

	r.Post("/sessions", h.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Delete("/", h.endSession)

		r.Post("/cart/items", h.addItem)
		r.Patch("/cart/items/{key}", h.updateQuantity)
		r.Delete("/cart", h.resetCart)
		r.Post("/cart/reprice", h.reprice)

		r.Post("/checkout", h.beginCheckout)
		r.Post("/checkout/back", h.back)
		r.Post("/checkout/cancel", h.cancel)
		r.Put("/checkout/details", h.setDetails)
		r.Post("/checkout/submit", h.submit)
		r.Post("/checkout/payment-intent", h.retryIntent)
		r.Post("/checkout/payment", h.confirmPayment)
	})
	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	httpx.OK(w, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.log.Warn("not ready", "err", err)
			httpx.Error(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	httpx.OK(w, map[string]string{"status": "ready"})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	out, err := h.catalog.Categories(r.Context())
	h.catalogResult(w, "list categories", out, err)
}

func (h *Handler) items(w http.ResponseWriter, r *http.Request) {
	out, err := h.catalog.Items(r.Context(), r.URL.Query().Get("categoryId"))
	h.catalogResult(w, "list items", out, err)
}

func (h *Handler) branches(w http.ResponseWriter, r *http.Request) {
	out, err := h.catalog.Branches(r.Context())
	h.catalogResult(w, "list branches", out, err)
}

func (h *Handler) catalogResult(w http.ResponseWriter, op string, out any, err error) {
	if err != nil {
		h.log.Error(op+" failed", "err", err)
		httpx.Error(w, http.StatusBadGateway, "catalog unavailable")
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) createSession(w http.ResponseWriter, _ *http.Request) {
	httpx.Created(w, h.sessions.Create())
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.Get(chi.URLParam(r, "id"))
	h.respond(w, r, v, err)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, application.SessionView{}, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddToCart")
	defer span.End()

	var in application.AddItemInput
	if !decode(w, r, &in) {
		return
	}
	if in.ItemID == "" {
		verr := &domain.ValidationError{}
		verr.Add("itemId", "item is required")
		h.writeError(w, r, application.SessionView{}, verr)
		return
	}
	v, err := h.sessions.AddItem(ctx, chi.URLParam(r, "id"), in)
	h.respond(w, r, v, err)
}

type quantityReq struct {
	Delta int `json:"delta"`
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var in quantityReq
	if !decode(w, r, &in) {
		return
	}
	key := domain.SelectionKey(chi.URLParam(r, "key"))
	v, err := h.sessions.UpdateQuantity(chi.URLParam(r, "id"), key, in.Delta)
	h.respond(w, r, v, err)
}

func (h *Handler) resetCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.Reset(chi.URLParam(r, "id"))
	h.respond(w, r, v, err)
}

type repriceResp struct {
	Changes []domain.PriceChange    `json:"changes"`
	Session application.SessionView `json:"session"`
}

func (h *Handler) reprice(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RepriceCart")
	defer span.End()

	changes, v, err := h.sessions.Reprice(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, v, err)
		return
	}
	if changes == nil {
		changes = []domain.PriceChange{}
	}
	httpx.OK(w, repriceResp{Changes: changes, Session: v})
}

func (h *Handler) beginCheckout(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.BeginCheckout(chi.URLParam(r, "id"))
	h.respond(w, r, v, err)
}

func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.Back(chi.URLParam(r, "id"))
	h.respond(w, r, v, err)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.Cancel(chi.URLParam(r, "id"))
	h.respond(w, r, v, err)
}

func (h *Handler) setDetails(w http.ResponseWriter, r *http.Request) {
	var in domain.CustomerDetails
	if !decode(w, r, &in) {
		return
	}
	v, err := h.sessions.SetDetails(chi.URLParam(r, "id"), in)
	h.respond(w, r, v, err)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitOrder")
	defer span.End()

	v, err := h.sessions.Submit(ctx, chi.URLParam(r, "id"))
	h.respond(w, r, v, err)
}

func (h *Handler) retryIntent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePaymentIntent")
	defer span.End()

	v, err := h.sessions.RetryPaymentIntent(ctx, chi.URLParam(r, "id"))
	h.respond(w, r, v, err)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var in application.PaymentResult
	if !decode(w, r, &in) {
		return
	}
	v, err := h.sessions.ConfirmPayment(chi.URLParam(r, "id"), in)
	h.respond(w, r, v, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, v application.SessionView, err error) {
	if err != nil {
		h.writeError(w, r, v, err)
		return
	}
	httpx.OK(w, v)
}

type validationBody struct {
	Fields  []domain.FieldError      `json:"fields"`
	Session *application.SessionView `json:"session,omitempty"`
}

// writeError maps service errors to status codes. The session view, when
// there is one, rides along so the terminal can redraw in place.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, v application.SessionView, err error) {
	var session *application.SessionView
	if v.ID != "" {
		session = &v
	}

	var (
		verr *domain.ValidationError
		serr *domain.SubmissionError
		perr *domain.PaymentError
	)
	switch {
	case errors.As(err, &verr):
		httpx.ErrorWithData(w, http.StatusUnprocessableEntity, err.Error(), validationBody{Fields: verr.Fields, Session: session})
	case errors.As(err, &serr):
		h.errorWithSession(w, http.StatusBadGateway, err, session)
	case errors.As(err, &perr):
		h.errorWithSession(w, http.StatusPaymentRequired, err, session)
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSubmissionInFlight):
		h.errorWithSession(w, http.StatusConflict, err, session)
	case errors.Is(err, application.ErrSessionNotFound),
		errors.Is(err, application.ErrLineNotFound),
		errors.Is(err, catalog.ErrItemNotFound):
		h.errorWithSession(w, http.StatusNotFound, err, session)
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		h.errorWithSession(w, http.StatusInternalServerError, err, session)
	}
}

func (h *Handler) errorWithSession(w http.ResponseWriter, status int, err error, session *application.SessionView) {
	if session == nil {
		httpx.Error(w, status, err.Error())
		return
	}
	httpx.ErrorWithData(w, status, err.Error(), session)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid body")
		return false
	}
	return true
}
