package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRouteTemplateAsPathLabel(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Middleware)
	router.HandleFunc("/rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	before := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/rooms/{id}", "200"))

	for _, id := range []string{"64f000000000000000000001", "64f000000000000000000002"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rooms/"+id, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	// Both requests share one label value: the template, not the ids.
	after := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/rooms/{id}", "200"))
	assert.Equal(t, float64(2), after-before)
	assert.Equal(t, float64(0),
		testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/rooms/64f000000000000000000001", "200")))
}

func TestStatusRecorderCapturesStatus(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Middleware)
	router.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}).Methods("GET")

	before := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/missing", "404"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	after := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/missing", "404"))
	assert.Equal(t, float64(1), after-before)
}
