package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pos_console"

// Collector holds the console's metrics. It implements the session
// service's Recorder and prometheus.Collector.
type Collector struct {
	cartChanges      *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	sessionsOpen     prometheus.Gauge
	requestDurations *prometheus.HistogramVec
}

func NewCollector() *Collector {
	return &Collector{
		cartChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_changes_total",
				Help:      "Cart mutations by operation.",
			}, []string{"op"},
		),
		checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_outcomes_total",
				Help:      "Checkout attempts by outcome.",
			}, []string{"outcome"},
		),
		sessionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_open",
				Help:      "Number of open POS sessions.",
			},
		),
		requestDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Terminal API latency by route and status.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route", "status"},
		),
	}
}

func (c *Collector) CartChanged(op string)           { c.cartChanges.WithLabelValues(op).Inc() }
func (c *Collector) CheckoutFinished(outcome string) { c.checkouts.WithLabelValues(outcome).Inc() }
func (c *Collector) SessionsOpen(n int)              { c.sessionsOpen.Set(float64(n)) }

// Middleware times every request, labelled by the matched chi route so
// session ids do not explode the label set.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.requestDurations.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.cartChanges.Describe(ch)
	c.checkouts.Describe(ch)
	c.sessionsOpen.Describe(ch)
	c.requestDurations.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.cartChanges.Collect(ch)
	c.checkouts.Collect(ch)
	c.sessionsOpen.Collect(ch)
	c.requestDurations.Collect(ch)
}
