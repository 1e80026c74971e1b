package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/restaurant-pos/internal/payment/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/money"
	"github.com/dmehra2102/restaurant-pos/pkg/outbox"
	"github.com/dmehra2102/restaurant-pos/pkg/tracing"
)

type Service struct {
	log  *slog.Logger
	repo PaymentRepository
	now  func() time.Time
}

func NewService(log *slog.Logger, repo PaymentRepository) *Service {
	return &Service{log: log, repo: repo, now: time.Now}
}

// CreateIntent opens a payment intent for an unpaid order. The amount must
// equal the order total the POS was quoted.
func (s *Service) CreateIntent(ctx context.Context, orderID string, amount money.Amount) (domain.Intent, error) {
	total, paid, err := s.repo.OrderTotal(ctx, orderID)
	if err != nil {
		return domain.Intent{}, err
	}
	if paid {
		return domain.Intent{}, domain.ErrAlreadyPaid
	}
	if amount != total {
		return domain.Intent{}, fmt.Errorf("%w: got %s, order total %s", domain.ErrAmountMismatch, amount, total)
	}

	id := "pi_" + uuid.NewString()
	in := domain.NewIntent(id, id+"_secret_"+uuid.NewString(), orderID, amount, s.now())
	if err := s.repo.SaveIntent(ctx, in); err != nil {
		return domain.Intent{}, err
	}
	s.log.Info("payment intent created", "order_id", orderID, "intent_id", in.ID, "amount", amount.String())
	return in, nil
}

// HandleGatewayEvent settles an intent from a gateway confirmation and
// emits PaymentConfirmed or PaymentFailed through the outbox.
func (s *Service) HandleGatewayEvent(ctx context.Context, ev domain.GatewayEvent, headers map[string]string) error {
	ok, err := ev.Succeeded()
	if err != nil {
		return fmt.Errorf("%w: %q", err, ev.Status)
	}
	in, err := s.repo.Intent(ctx, ev.IntentID)
	if err != nil {
		return err
	}
	if in.OrderID != ev.OrderID {
		return fmt.Errorf("%w: intent %s belongs to order %s, not %s", domain.ErrIntentNotFound, in.ID, in.OrderID, ev.OrderID)
	}

	now := s.now().UTC()
	p := domain.Payment{
		OrderID:   in.OrderID,
		IntentID:  in.ID,
		Amount:    in.Amount,
		Status:    domain.StatusProcessed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	intentStatus := domain.IntentSucceeded

	var (
		eventType string
		payload   []byte
	)
	if ok {
		eventType = domain.EventPaymentConfirmed
		payload, err = json.Marshal(domain.PaymentConfirmed{OrderID: in.OrderID, IntentID: in.ID, Amount: in.Amount})
	} else {
		p.Status = domain.StatusFailed
		p.Reason = ev.Reason
		intentStatus = domain.IntentFailed
		eventType = domain.EventPaymentFailed
		payload, err = json.Marshal(domain.PaymentFailed{OrderID: in.OrderID, IntentID: in.ID, Reason: ev.Reason})
	}
	if err != nil {
		return err
	}

	out := outbox.Event{
		AggregateType: "payment",
		AggregateID:   in.OrderID,
		Type:          eventType,
		Payload:       payload,
		Headers:       headers,
		Traceparent:   tracing.Traceparent(ctx),
	}
	if err := s.repo.SettleWithOutbox(ctx, p, intentStatus, out); err != nil {
		return err
	}
	s.log.Info("payment settled", "order_id", in.OrderID, "intent_id", in.ID, "status", p.Status)
	return nil
}
