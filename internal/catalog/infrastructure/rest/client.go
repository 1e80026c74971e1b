package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/httpx"
	"github.com/dmehra2102/restaurant-pos/pkg/tracing"
)

// Client reads the catalog from the backend REST API.
type Client struct {
	log     *slog.Logger
	baseURL string
	hc      *http.Client
}

func NewClient(log *slog.Logger, baseURL string, hc *http.Client) *Client {
	return &Client{log: log, baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return get[[]domain.Category](ctx, c, "/categories", nil)
}

func (c *Client) ListItems(ctx context.Context, categoryID string) ([]domain.Item, error) {
	q := url.Values{}
	if categoryID != "" {
		q.Set("categoryId", categoryID)
	}
	return get[[]domain.Item](ctx, c, "/menu-items", q)
}

func (c *Client) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return get[[]domain.Branch](ctx, c, "/branches", nil)
}

func get[T any](ctx context.Context, c *Client, path string, q url.Values) (T, error) {
	var zero T
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")
	tracing.InjectHTTPHeaders(ctx, req.Header)

	resp, err := c.hc.Do(req)
	if err != nil {
		return zero, fmt.Errorf("catalog %s: %w", path, err)
	}
	defer resp.Body.Close()

	out, err := httpx.Decode[T](resp)
	if err != nil {
		c.log.Error("catalog request failed", "path", path, "err", err)
		return zero, fmt.Errorf("catalog %s: %w", path, err)
	}
	return out, nil
}
