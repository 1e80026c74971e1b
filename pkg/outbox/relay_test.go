package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type memStore struct {
	mu      sync.Mutex
	pending []Event
	sent    []int64
	failed  map[int64]string
}

func (m *memStore) LockBatch(_ context.Context, _ string, n int, _ time.Duration) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.pending) {
		n = len(m.pending)
	}
	out := m.pending[:n]
	m.pending = m.pending[n:]
	return out, nil
}

func (m *memStore) MarkSent(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, ids...)
	return nil
}

func (m *memStore) MarkFailed(_ context.Context, id int64, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed == nil {
		m.failed = map[int64]string{}
	}
	m.failed[id] = msg
	return nil
}

func (m *memStore) done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending) == 0 && len(m.sent)+len(m.failed) > 0
}

type recordingProducer struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	failOn string
}

func (p *recordingProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDispatchHeaders(t *testing.T) {
	p := &recordingProducer{}
	d := NewDispatcher(discard(), p, "order.events")

	err := d.Dispatch(context.Background(), Event{
		ID:          7,
		AggregateID: "order-1",
		Type:        "OrderCreated",
		Payload:     []byte(`{}`),
		Headers:     map[string]string{"source": "order-service"},
		Traceparent: "00-abc-def-01",
	})
	require.NoError(t, err)
	require.Len(t, p.msgs, 1)

	msg := p.msgs[0]
	assert.Equal(t, "order.events", msg.Topic)
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte("OrderCreated")})
	assert.Contains(t, msg.Headers, kafka.Header{Key: "traceparent", Value: []byte("00-abc-def-01")})
	assert.Contains(t, msg.Headers, kafka.Header{Key: "source", Value: []byte("order-service")})
}

func TestRelayMarksSentAndFailed(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &memStore{pending: []Event{
		{ID: 1, AggregateID: "order-1", Type: "OrderCreated"},
		{ID: 2, AggregateID: "order-2", Type: "OrderCreated"},
		{ID: 3, AggregateID: "order-3", Type: "OrderCreated"},
	}}
	p := &recordingProducer{failOn: "order-2"}
	relay := NewRelay(discard(), store, NewDispatcher(discard(), p, "order.events"), "test-relay",
		WithInterval(5*time.Millisecond), WithBatchSize(2))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.sent) == 2 && len(store.failed) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errc)

	assert.ElementsMatch(t, []int64{1, 3}, store.sent)
	assert.Equal(t, "broker unavailable", store.failed[2])
	assert.True(t, store.done())
}
