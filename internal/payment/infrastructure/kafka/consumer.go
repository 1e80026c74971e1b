package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/restaurant-pos/internal/payment/domain"
	"github.com/dmehra2102/restaurant-pos/pkg/tracing"
)

type GatewayHandler interface {
	HandleGatewayEvent(ctx context.Context, ev domain.GatewayEvent, headers map[string]string) error
}

// Deduper marks a message as processed and reports whether it had been
// seen before.
type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	log     *slog.Logger
	reader  Reader
	handler GatewayHandler
	idem    Deduper
	tracer  trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, handler GatewayHandler, idem Deduper) *Consumer {
	return &Consumer{
		log:     log,
		reader:  reader,
		handler: handler,
		idem:    idem,
		tracer:  otel.Tracer("payment-consumer"),
	}
}

// Run consumes gateway events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Error("idempotency check failed", "err", err)
		return
	}
	if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeGatewayEvent")
	defer span.End()

	var event domain.GatewayEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Error("unmarshal failed", "err", err)
		return
	}

	headers := map[string]string{"source": "payment-service"}
	err = c.handler.HandleGatewayEvent(msgCtx, event, headers)
	switch {
	case errors.Is(err, domain.ErrAlreadySettled):
		c.log.Info("intent already settled", "order_id", event.OrderID, "intent_id", event.IntentID)
	case err != nil:
		c.log.Error("gateway event failed", "order_id", event.OrderID, "intent_id", event.IntentID, "err", err)
	default:
		c.log.Info("gateway event processed", "order_id", event.OrderID, "status", event.Status)
	}
}
