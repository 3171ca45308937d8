package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBucket(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{422, "4xx"},
		{500, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusBucket(tt.code), "code %d", tt.code)
	}
}

func TestObserveScore(t *testing.T) {
	before := testutil.ToFloat64(ScoresTotal.WithLabelValues("test-model"))
	ObserveScore("test-model", 3, time.Now())
	assert.InDelta(t, before+3, testutil.ToFloat64(ScoresTotal.WithLabelValues("test-model")), 1e-9)
}

func TestObserveSchemaError(t *testing.T) {
	before := testutil.ToFloat64(SchemaErrorsTotal.WithLabelValues("batch"))
	ObserveSchemaError("batch")
	assert.InDelta(t, before+1, testutil.ToFloat64(SchemaErrorsTotal.WithLabelValues("batch")), 1e-9)
}

func TestMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Middleware(mux)

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "GET /things/{id}", "4xx"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "GET /things/{id}", "4xx"))
	assert.InDelta(t, before+1, after, 1e-9)
}

func TestMetricsEndpoint(t *testing.T) {
	BatchRowsTotal.Add(1)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "riskpulse_batch_rows_total")
}
