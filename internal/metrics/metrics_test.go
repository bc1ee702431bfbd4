package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopcart/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CheckoutFinished("committed")
	m.CheckoutFinished("committed")
	m.CheckoutFinished("conflict")
	m.DiscountApplied(model.DiscountTypeBOGO, 3)
	m.ObserveRequest("/cart", "200", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("conflict")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Discounts.WithLabelValues("BOGO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/cart", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObservePricing(time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "shopcart_pricing_duration_seconds_count 1"))
}
