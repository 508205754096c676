package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.ObserveOperation("payRent", "ok")
	m.ObserveOperation("payRent", "ok")
	m.ObserveOperation("payRent", "IncorrectAmount")
	m.ObserveEscrow("credit", 900, 900)
	m.ObserveEscrow("credit", 900, 1800)
	m.ObserveEscrow("debit", 300, 1500)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("payRent", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("payRent", "IncorrectAmount")))
	assert.Equal(t, 1800.0, testutil.ToFloat64(m.EscrowValue.WithLabelValues("credit")))
	assert.Equal(t, 300.0, testutil.ToFloat64(m.EscrowValue.WithLabelValues("debit")))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.EscrowBalance))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "no") })

	for _, path := range []string{"/ping", "/ping", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/ping", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/boom", "418")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_http_requests_total"))
}
