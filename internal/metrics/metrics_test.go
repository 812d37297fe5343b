package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodPost, "POST /api/v1/auth/login", 401, 20*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "POST /api/v1/auth/login", 401, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "POST /api/v1/auth/login", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestAuthEvent(t *testing.T) {
	m := New()
	m.AuthEvent("login", "failure")
	m.AuthEvent("login", "success")
	m.AuthEvent("login", "failure")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "failure")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.AuthEvent("register", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `taskbite_auth_events_total{event="register",outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
