package ledger

import "errors"

// ErrorKind classifies why a ledger call was rejected.
type ErrorKind string

const (
	InvalidArgument    ErrorKind = "InvalidArgument"
	InvalidReference   ErrorKind = "InvalidReference"
	InvalidState       ErrorKind = "InvalidState"
	AlreadyRented      ErrorKind = "AlreadyRented"
	IncorrectAmount    ErrorKind = "IncorrectAmount"
	OutstandingBalance ErrorKind = "OutstandingBalance"
	Unauthorized       ErrorKind = "Unauthorized"
)

// Error is a rejected precondition. Nothing was written when one is returned.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return e.Reason
}

// Is matches any *Error of the same kind, so
// errors.Is(err, ErrIncorrectAmount) works whatever the reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

var (
	ErrInvalidArgument    = &Error{Kind: InvalidArgument}
	ErrInvalidReference   = &Error{Kind: InvalidReference}
	ErrInvalidState       = &Error{Kind: InvalidState}
	ErrAlreadyRented      = &Error{Kind: AlreadyRented}
	ErrIncorrectAmount    = &Error{Kind: IncorrectAmount}
	ErrOutstandingBalance = &Error{Kind: OutstandingBalance}
	ErrUnauthorized       = &Error{Kind: Unauthorized}
)

func reject(kind ErrorKind, reason string) error {
	return &Error{Kind: kind, Reason: reason}
}

// KindOf returns the kind of a rejection, or "" for infrastructure errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Reasons reported to callers.
const (
	reasonCallerRequired    = "Caller identity is required"
	reasonPriceNotPositive  = "Price must be greater than 0"
	reasonNegativeDeposit   = "Deposit must not be negative"
	reasonInvalidProperty   = "Invalid property ID"
	reasonInvalidAgreement  = "Invalid lease agreement ID"
	reasonAlreadyRented     = "Property is already rented"
	reasonTenantMismatch    = "Tenant identity does not match the caller"
	reasonInvalidDuration   = "Duration must be greater than 0"
	reasonDepositMismatch   = "Deposit does not match to the property deposit"
	reasonIncorrectRent     = "Incorrect Rent amount"
	reasonInvalidState      = "LeaseAgreement is in an invalid state"
	reasonRentOutstanding   = "Not all contract rents have been paid yet"
	reasonNotLandlord       = "Only the landlord can perform this action"
	reasonNotTenant         = "Only the tenant can perform this action"
	reasonNotParty          = "Only the tenant or the landlord can perform this action"
	reasonNothingToWithdraw = "No rent available to withdraw"
	reasonAmountTooLarge    = "Amount exceeds the maximum allowed"
	reasonDurationTooLong   = "Duration is too long for the property price"
	reasonEscrowCapacity    = "Amount exceeds the escrow capacity"
)
