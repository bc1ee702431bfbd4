package metrics

import (
	"net/http"
	"time"

	"shopcart/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopcart"

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Checkouts       *prometheus.CounterVec
	Discounts       *prometheus.CounterVec
	PricingDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New はメトリクスを作って reg に登録する。テストでは prometheus.NewRegistry() を渡す。
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkouts by result.",
		}, []string{"result"}),
		Discounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_applications_total",
			Help:      "Committed discount applications by rule type.",
		}, []string{"type"}),
		PricingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_duration_seconds",
			Help:      "Cart pricing latency in seconds.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		gatherer: reg,
	}

	reg.MustRegister(m.Requests, m.RequestDuration, m.Checkouts, m.Discounts, m.PricingDuration)
	return m
}

func (m *Metrics) ObservePricing(d time.Duration) {
	m.PricingDuration.Observe(d.Seconds())
}

func (m *Metrics) CheckoutFinished(result string) {
	m.Checkouts.WithLabelValues(result).Inc()
}

func (m *Metrics) DiscountApplied(t model.DiscountType, n int64) {
	m.Discounts.WithLabelValues(string(t)).Add(float64(n))
}

func (m *Metrics) ObserveRequest(route string, status string, d time.Duration) {
	m.Requests.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler は登録先レジストリの内容を返す /metrics 用ハンドラ。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
