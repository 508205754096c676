package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the ledger and HTTP collectors registered on one registry.
type Metrics struct {
	Operations      *prometheus.CounterVec
	EscrowBalance   prometheus.Gauge
	EscrowValue     *prometheus.CounterVec
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors under prefix on reg. Pass
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(prefix string, reg *prometheus.Registry) *Metrics {
	if prefix == "" {
		prefix = "rental"
	}

	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_ledger_operations_total",
				Help: "Ledger write operations by outcome",
			},
			[]string{"operation", "result"},
		),
		EscrowBalance: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_escrow_balance",
				Help: "Value currently held in escrow",
			},
		),
		EscrowValue: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_escrow_value_total",
				Help: "Value moved into (credit) or out of (debit) escrow",
			},
			[]string{"direction"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		gatherer: reg,
	}

	reg.MustRegister(m.Operations, m.EscrowBalance, m.EscrowValue, m.Requests, m.RequestDuration)
	return m
}

// ObserveOperation counts one ledger call.
func (m *Metrics) ObserveOperation(operation, result string) {
	m.Operations.WithLabelValues(operation, result).Inc()
}

// ObserveEscrow records one escrow movement and the balance after it.
func (m *Metrics) ObserveEscrow(direction string, amount int64, balance int64) {
	m.EscrowValue.WithLabelValues(direction).Add(float64(amount))
	m.EscrowBalance.Set(float64(balance))
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let echo write the response so the status is known
				c.Error(err)
			}

			path := c.Path()
			m.Requests.WithLabelValues(c.Request().Method, path, strconv.Itoa(c.Response().Status)).Inc()
			m.RequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
