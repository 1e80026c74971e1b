package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	c := NewCollector()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	c.CartChanged("add")
	c.CartChanged("add")
	c.CheckoutFinished("completed")
	c.SessionsOpen(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.cartChanges.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checkouts.WithLabelValues("completed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.sessionsOpen))
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	c := NewCollector()
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	}

	assert.Equal(t, 1, testutil.CollectAndCount(c.requestDurations))
}
