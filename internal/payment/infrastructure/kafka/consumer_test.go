package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/restaurant-pos/internal/payment/domain"
)

type sliceReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *sliceReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *sliceReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *sliceReader) Close() error { r.closed = true; return nil }

type memDeduper map[string]bool

func (d memDeduper) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("%s:%d:%d", topic, partition, offset)
}

func (d memDeduper) Seen(_ context.Context, key string) (bool, error) {
	seen := d[key]
	d[key] = true
	return seen, nil
}

type recordingHandler struct {
	events []domain.GatewayEvent
	err    error
}

func (h *recordingHandler) HandleGatewayEvent(_ context.Context, ev domain.GatewayEvent, _ map[string]string) error {
	h.events = append(h.events, ev)
	return h.err
}

func message(t *testing.T, offset int64, ev domain.GatewayEvent) kafka.Message {
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Topic: "payment-gateway.events", Offset: offset, Value: b}
}

func TestConsumerDedupesAndCommits(t *testing.T) {
	ev := domain.GatewayEvent{OrderID: "o1", IntentID: "pi_1", Status: "succeeded"}
	r := &sliceReader{msgs: []kafka.Message{
		message(t, 1, ev),
		message(t, 1, ev),
		{Topic: "payment-gateway.events", Offset: 2, Value: []byte("not json")},
	}}
	h := &recordingHandler{}

	err := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), r, h, memDeduper{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.GatewayEvent{ev}, h.events)
	assert.Equal(t, []int64{1, 1, 2}, r.committed)
	assert.True(t, r.closed)
}

func TestConsumerKeepsGoingAfterHandlerError(t *testing.T) {
	r := &sliceReader{msgs: []kafka.Message{
		message(t, 1, domain.GatewayEvent{OrderID: "o1", IntentID: "pi_1", Status: "succeeded"}),
		message(t, 2, domain.GatewayEvent{OrderID: "o2", IntentID: "pi_2", Status: "failed"}),
	}}
	h := &recordingHandler{err: errors.New("db down")}

	require.NoError(t, NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), r, h, memDeduper{}).Run(context.Background()))
	assert.Len(t, h.events, 2)
}
