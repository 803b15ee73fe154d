package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tech0-pos/pos-api/app/purchase"
)

const namespace = "pos"

type Metrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	Purchases     *prometheus.CounterVec
	PurchaseLines prometheus.Histogram
}

// New registers the API collectors on reg. Pass a fresh
// prometheus.NewRegistry() in tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_total",
		Help:      "Purchase commits by outcome.",
	}, []string{"outcome"})
	lines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "purchase_lines",
		Help:      "Number of cart lines per committed purchase.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
	})

	reg.MustRegister(requests, latency, purchases, lines)
	return &Metrics{
		Requests:      requests,
		LatencyMS:     latency,
		Purchases:     purchases,
		PurchaseLines: lines,
	}
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed) / float64(time.Millisecond))
}

// ObservePurchase counts a commit attempt. Line counts are only recorded
// for committed purchases.
func (m *Metrics) ObservePurchase(outcome string, lines int) {
	m.Purchases.WithLabelValues(outcome).Inc()
	if outcome == purchase.OutcomeCommitted {
		m.PurchaseLines.Observe(float64(lines))
	}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
