package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech0-pos/pos-api/app/purchase"
)

func TestObservePurchase(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePurchase(purchase.OutcomeCommitted, 3)
	m.ObservePurchase(purchase.OutcomeCommitted, 1)
	m.ObservePurchase(purchase.OutcomeRejected, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Purchases.WithLabelValues(purchase.OutcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Purchases.WithLabelValues(purchase.OutcomeRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Purchases.WithLabelValues(purchase.OutcomeFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PurchaseLines))
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("/purchase2", http.MethodPost, http.StatusCreated, 12*time.Millisecond)
	m.ObserveRequest("/purchase2", http.MethodPost, http.StatusCreated, 30*time.Millisecond)
	m.ObserveRequest("/purchase2", http.MethodPost, http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/purchase2", http.MethodPost, "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/purchase2", http.MethodPost, "400")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObservePurchase(purchase.OutcomeFailed, 1)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pos_purchases_total{outcome="failed"} 1`)
}
