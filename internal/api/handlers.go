package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/ledger"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/logger"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// ProposeRequest is the body of POST /api/leases.
type ProposeRequest struct {
	ledger.LeaseRequest
	Amount int64 `json:"amount"`
}

// AmountRequest is the body of value bearing calls on a lease.
type AmountRequest struct {
	Amount int64 `json:"amount"`
}

// WithdrawalResponse reports the rent paid out to the landlord.
type WithdrawalResponse struct {
	AgreementID uint64 `json:"agreement_id"`
	Amount      int64  `json:"amount"`
}

// BalanceResponse reports the escrow balance.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

func statusFor(kind ledger.ErrorKind) int {
	switch kind {
	case ledger.InvalidArgument:
		return http.StatusBadRequest
	case ledger.Unauthorized:
		return http.StatusForbidden
	case ledger.InvalidReference:
		return http.StatusNotFound
	case ledger.InvalidState, ledger.AlreadyRented, ledger.OutstandingBalance:
		return http.StatusConflict
	case ledger.IncorrectAmount:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, err error) error {
	kind := ledger.KindOf(err)
	if kind == "" {
		logger.FromContext(c.Request().Context()).Error("ledger call failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
	return c.JSON(statusFor(kind), errorBody{Error: err.Error(), Kind: string(kind)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg, Kind: string(ledger.InvalidArgument)})
}

func idParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil
}

func (s *Server) registerProperty(c echo.Context) error {
	var in ledger.PropertyInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request data")
	}

	property, err := s.ledger.RegisterProperty(c.Request().Context(), principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, property)
}

func (s *Server) listProperties(c echo.Context) error {
	properties, err := s.ledger.GetRegisteredProperties(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, properties)
}

func (s *Server) getProperty(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid property ID")
	}
	property, err := s.ledger.GetProperty(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, property)
}

func (s *Server) proposeLease(c echo.Context) error {
	var req ProposeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request data")
	}

	agreement, err := s.ledger.RentProperty(c.Request().Context(), principal(c), req.LeaseRequest, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, agreement)
}

func (s *Server) acceptLease(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid lease agreement ID")
	}
	agreement, err := s.ledger.AcceptLeaseAgreement(c.Request().Context(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, agreement)
}

func (s *Server) payRent(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid lease agreement ID")
	}
	var req AmountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request data")
	}

	agreement, err := s.ledger.PayRent(c.Request().Context(), principal(c), id, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, agreement)
}

func (s *Server) returnProperty(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid lease agreement ID")
	}
	agreement, err := s.ledger.ReturnProperty(c.Request().Context(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, agreement)
}

func (s *Server) withdrawRent(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid lease agreement ID")
	}
	amount, err := s.ledger.WithdrawRent(c.Request().Context(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, WithdrawalResponse{AgreementID: id, Amount: amount})
}

func (s *Server) listLeases(c echo.Context) error {
	agreements, err := s.ledger.GetRegisteredLeaseAgreement(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, agreements)
}

func (s *Server) getLease(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "Invalid lease agreement ID")
	}
	agreement, err := s.ledger.GetLeaseAgreement(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, agreement)
}

func (s *Server) getBalance(c echo.Context) error {
	balance, err := s.ledger.GetBalance(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, BalanceResponse{Balance: balance})
}

func (s *Server) listEvents(c echo.Context) error {
	var after uint64
	if v := c.QueryParam("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "after must be a sequence number")
		}
		after = n
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}

	events, err := s.ledger.Events(c.Request().Context(), after, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}
