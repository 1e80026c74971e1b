package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmehra2102/restaurant-pos/internal/pos/application"
	"github.com/dmehra2102/restaurant-pos/internal/pos/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/httpx"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
	"github.com/dmehra2102/restaurant-pos/pkg/tracing"
)

const IdempotencyHeader = "Idempotency-Key"

// Client talks to the order service's order and payment intent endpoints.
type Client struct {
	log     *slog.Logger
	baseURL string
	hc      *http.Client
}

func NewClient(log *slog.Logger, baseURL string, hc *http.Client) *Client {
	return &Client{log: log, baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (c *Client) Submit(ctx context.Context, draft domain.OrderDraft, idempotencyKey string) (application.OrderReceipt, error) {
	h := http.Header{}
	if idempotencyKey != "" {
		h.Set(IdempotencyHeader, idempotencyKey)
	}
	return post[application.OrderReceipt](ctx, c, "/orders", draft, h)
}

type intentReq struct {
	OrderID string       `json:"orderId"`
	Amount  money.Amount `json:"amount"`
}

type intentResp struct {
	ClientSecret string `json:"clientSecret"`
}

func (c *Client) CreateIntent(ctx context.Context, orderID string, amount money.Amount) (string, error) {
	out, err := post[intentResp](ctx, c, "/payment-intents", intentReq{OrderID: orderID, Amount: amount}, nil)
	if err != nil {
		return "", err
	}
	if out.ClientSecret == "" {
		return "", fmt.Errorf("payment intent for order %s: empty client secret", orderID)
	}
	return out.ClientSecret, nil
}

func post[T any](ctx context.Context, c *Client, path string, body any, h http.Header) (T, error) {
	var zero T
	b, err := json.Marshal(body)
	if err != nil {
		return zero, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return zero, err
	}
	for k, v := range h {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	tracing.InjectHTTPHeaders(ctx, req.Header)

	resp, err := c.hc.Do(req)
	if err != nil {
		return zero, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	out, err := httpx.Decode[T](resp)
	if err != nil {
		c.log.Warn("backend request failed", "path", path, "err", err)
		return zero, fmt.Errorf("POST %s: %w", path, err)
	}
	return out, nil
}
