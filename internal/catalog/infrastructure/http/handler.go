package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/httpx"
)

// Reader is what the handler needs; both the Postgres repository and the
// cached application service satisfy it.
type Reader interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListItems(ctx context.Context, categoryID string) ([]domain.Item, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
}

type Handler struct {
	log    *slog.Logger
	reader Reader
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, reader Reader) *Handler {
	return &Handler{
		log:    log,
		reader: reader,
		tracer: otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Register adds the catalog routes to a shared router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Get("/menu-items", h.listItems)
	r.Get("/branches", h.listBranches)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCategories")
	defer span.End()

	out, err := h.reader.ListCategories(ctx)
	if err != nil {
		h.fail(w, "list categories", err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListMenuItems")
	defer span.End()

	out, err := h.reader.ListItems(ctx, r.URL.Query().Get("categoryId"))
	if err != nil {
		h.fail(w, "list menu items", err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) listBranches(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListBranches")
	defer span.End()

	out, err := h.reader.ListBranches(ctx)
	if err != nil {
		h.fail(w, "list branches", err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.log.Error(op+" failed", "err", err)
	httpx.Error(w, http.StatusInternalServerError, "catalog unavailable")
}
