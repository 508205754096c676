// Package api exposes the rental ledger over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/ledger"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/logger"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/metrics"
)

// PrincipalHeader carries the caller identity of write requests.
const PrincipalHeader = "X-Principal"

const requestIDHeader = "X-Request-ID"

// Ledger is the part of the ledger the HTTP surface calls.
type Ledger interface {
	RegisterProperty(ctx context.Context, caller ledger.Principal, in ledger.PropertyInput) (*ledger.Property, error)
	GetRegisteredProperties(ctx context.Context) ([]ledger.Property, error)
	GetProperty(ctx context.Context, id uint64) (*ledger.Property, error)
	RentProperty(ctx context.Context, caller ledger.Principal, req ledger.LeaseRequest, amount int64) (*ledger.LeaseAgreement, error)
	AcceptLeaseAgreement(ctx context.Context, caller ledger.Principal, agreementID uint64) (*ledger.LeaseAgreement, error)
	PayRent(ctx context.Context, caller ledger.Principal, agreementID uint64, amount int64) (*ledger.LeaseAgreement, error)
	ReturnProperty(ctx context.Context, caller ledger.Principal, agreementID uint64) (*ledger.LeaseAgreement, error)
	WithdrawRent(ctx context.Context, caller ledger.Principal, agreementID uint64) (int64, error)
	GetRegisteredLeaseAgreement(ctx context.Context) ([]ledger.LeaseAgreement, error)
	GetLeaseAgreement(ctx context.Context, id uint64) (*ledger.LeaseAgreement, error)
	GetBalance(ctx context.Context) (int64, error)
	Events(ctx context.Context, after uint64, limit int) ([]ledger.Event, error)
}

// Server wires the ledger routes on an echo instance.
type Server struct {
	echo   *echo.Echo
	ledger Ledger
	log    *zap.Logger
}

// NewServer builds the HTTP server. m may be nil to disable metrics.
func NewServer(l Ledger, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, ledger: l, log: log}

	e.Use(middleware.Recover())
	e.Use(s.requestLogger)
	if m != nil {
		e.Use(m.Middleware())
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.GET("/properties", s.listProperties)
	api.GET("/properties/:id", s.getProperty)
	api.GET("/leases", s.listLeases)
	api.GET("/leases/:id", s.getLease)
	api.GET("/escrow/balance", s.getBalance)
	api.GET("/events", s.listEvents)

	api.POST("/properties", s.registerProperty, requirePrincipal)
	api.POST("/leases", s.proposeLease, requirePrincipal)
	api.POST("/leases/:id/accept", s.acceptLease, requirePrincipal)
	api.POST("/leases/:id/payments", s.payRent, requirePrincipal)
	api.POST("/leases/:id/return", s.returnProperty, requirePrincipal)
	api.POST("/leases/:id/withdrawals", s.withdrawRent, requirePrincipal)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("starting server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogger tags each request with an id and a scoped logger.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		requestID := c.Request().Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Response().Header().Set(requestIDHeader, requestID)

		log := s.log.With(zap.String("request_id", requestID))
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context(), log)))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		log.Info("HTTP Request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.RealIP()),
		)
		return nil
	}
}

func requirePrincipal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(PrincipalHeader) == "" {
			return c.JSON(statusFor(ledger.Unauthorized), errorBody{
				Error: PrincipalHeader + " header is required",
				Kind:  string(ledger.Unauthorized),
			})
		}
		return next(c)
	}
}

func principal(c echo.Context) ledger.Principal {
	return ledger.Principal(c.Request().Header.Get(PrincipalHeader))
}
