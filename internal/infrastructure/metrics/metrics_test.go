package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/orders/{id}", http.MethodGet, "418"))

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("/orders/{id}", http.MethodGet, "418"))
	assert.Equal(t, float64(2), after-before)
}

func TestRecordAdminCall(t *testing.T) {
	before := testutil.ToFloat64(adminAPICalls.WithLabelValues("anonymous", "query", OutcomeSuccess))
	RecordAdminCall("", "query", OutcomeSuccess, 10*time.Millisecond)
	after := testutil.ToFloat64(adminAPICalls.WithLabelValues("anonymous", "query", OutcomeSuccess))
	assert.Equal(t, float64(1), after-before)
}

func TestHandler_ExposesRegistry(t *testing.T) {
	RecordWebhook("app/uninstalled", "ok")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "shopify_app_webhooks_received_total")
}
