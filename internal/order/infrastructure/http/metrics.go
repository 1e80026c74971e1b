package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmehra2102/restaurant-pos/internal/order/domain"
)

type Metrics struct {
	ordersCreated *prometheus.CounterVec
	replays       prometheus.Counter
}

// NewMetrics registers the order counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "order_service",
				Name:      "orders_created_total",
				Help:      "Orders created by type and payment method.",
			}, []string{"type", "payment_method"},
		),
		replays: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "order_service",
				Name:      "idempotent_replays_total",
				Help:      "Order requests answered from a stored idempotency key.",
			},
		),
	}
	reg.MustRegister(m.ordersCreated, m.replays)
	return m
}

func (m *Metrics) created(o domain.Order) {
	if m != nil {
		m.ordersCreated.WithLabelValues(string(o.Type), o.PaymentMethod).Inc()
	}
}

func (m *Metrics) replayed() {
	if m != nil {
		m.replays.Inc()
	}
}
