package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/restaurant-pos/internal/order/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/idempotency"
	"github.com/dmehra2102/restaurant-pos/pkg/outbox"
	"github.com/dmehra2102/restaurant-pos/pkg/tracing"
)

var ErrDuplicateInFlight = errors.New("an order with this idempotency key is still being created")

type Service struct {
	log   *slog.Logger
	repo  OrderRepository
	idem  Idempotency
	newID func() string
	now   func() time.Time
}

// NewService builds the order service; idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewService(log *slog.Logger, repo OrderRepository, idem Idempotency) *Service {
	return &Service{log: log, repo: repo, idem: idem, newID: uuid.NewString, now: time.Now}
}

// CreateOrder stores the order and its OrderCreated event in one
// transaction. A repeated idempotency key returns the order created the
// first time with replayed set.
func (s *Service) CreateOrder(ctx context.Context, in domain.PlaceOrder, idemKey string, headers map[string]string) (o domain.Order, replayed bool, err error) {
	var key string
	if s.idem != nil && idemKey != "" {
		key = s.idem.RequestKey("orders", idemKey)
		var (
			prior string
			fresh bool
		)
		prior, fresh, err = s.idem.Begin(ctx, key)
		if errors.Is(err, idempotency.ErrInFlight) {
			return domain.Order{}, false, ErrDuplicateInFlight
		}
		if err != nil {
			return domain.Order{}, false, err
		}
		if !fresh {
			o, err = s.repo.Get(ctx, prior)
			return o, err == nil, err
		}
		defer func() {
			if err != nil {
				if rerr := s.idem.Release(context.WithoutCancel(ctx), key); rerr != nil {
					s.log.Warn("idempotency release failed", "key", key, "err", rerr)
				}
			}
		}()
	}

	o, err = domain.NewOrder(s.newID(), in, s.now())
	if err != nil {
		return domain.Order{}, false, err
	}

	payload, err := json.Marshal(domain.NewOrderCreated(o))
	if err != nil {
		return domain.Order{}, false, err
	}
	ev := outbox.Event{
		AggregateType: "order",
		AggregateID:   o.ID,
		Type:          domain.EventOrderCreated,
		Payload:       payload,
		Headers:       headers,
		Traceparent:   tracing.Traceparent(ctx),
	}
	if err = s.repo.SaveWithOutbox(ctx, o, ev); err != nil {
		return domain.Order{}, false, err
	}

	if key != "" {
		if cerr := s.idem.Complete(ctx, key, o.ID); cerr != nil {
			s.log.Warn("idempotency complete failed", "key", key, "order_id", o.ID, "err", cerr)
		}
	}
	s.log.Info("order created", "order_id", o.ID, "branch_id", o.BranchID, "type", o.Type, "total", o.Total.String())
	return o, false, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}
