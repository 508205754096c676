package ledger

import (
	"math"
	"time"
)

// MaxAmount bounds prices and deposits so they survive a round trip through
// JSON numbers.
const MaxAmount int64 = 1 << 53

// Principal is the identity of the party invoking an operation.
type Principal string

// LeaseState is the lifecycle state of a lease agreement.
type LeaseState string

const (
	Proposed  LeaseState = "Proposed"
	Active    LeaseState = "Active"
	Completed LeaseState = "Completed"
)

// Property is a rentable unit owned by a landlord.
type Property struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement:false" json:"id" yaml:"id"`
	Landlord     Principal `gorm:"type:varchar(128);not null;index" json:"landlord" yaml:"landlord"`
	Address      string    `json:"address" yaml:"address"`
	Description  string    `json:"description" yaml:"description"`
	Price        int64     `gorm:"not null" json:"price" yaml:"price"`
	Deposit      int64     `gorm:"not null" json:"deposit" yaml:"deposit"`
	ContactName  string    `json:"contact_name" yaml:"contact_name"`
	ContactPhone string    `json:"contact_phone" yaml:"contact_phone"`
	ContactEmail string    `json:"contact_email" yaml:"contact_email"`
	IsRented     bool      `gorm:"not null" json:"is_rented" yaml:"is_rented"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// PropertyInput holds the landlord supplied attributes of a new property.
type PropertyInput struct {
	Address      string `json:"address"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	Deposit      int64  `json:"deposit"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
}

// Tenant is the contact card a tenant attaches to a proposal.
type Tenant struct {
	ID          Principal `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	PhoneNumber string    `json:"phone_number" yaml:"phone_number"`
	Email       string    `json:"email" yaml:"email"`
}

// LeaseAgreement binds one tenant to one property for DurationMonths periods.
type LeaseAgreement struct {
	ID                 uint64     `gorm:"primaryKey;autoIncrement:false" json:"id" yaml:"id"`
	PropertyID         uint64     `gorm:"not null;index" json:"property_id" yaml:"property_id"`
	Tenant             Tenant     `gorm:"serializer:json;type:text" json:"tenant" yaml:"tenant"`
	DurationMonths     int64      `gorm:"not null" json:"duration_months" yaml:"duration_months"`
	DepositPaid        int64      `gorm:"not null" json:"deposit_paid" yaml:"deposit_paid"`
	RentPricePerPeriod int64      `gorm:"not null" json:"rent_price_per_period" yaml:"rent_price_per_period"`
	TotalRentPaid      int64      `gorm:"not null" json:"total_rent_paid" yaml:"total_rent_paid"`
	HeldAtProposal     int64      `gorm:"not null" json:"held_at_proposal" yaml:"held_at_proposal"`
	RentWithdrawn      int64      `gorm:"not null" json:"rent_withdrawn" yaml:"rent_withdrawn"`
	State              LeaseState `gorm:"type:varchar(16);not null;index" json:"state" yaml:"state"`
	CreatedAt          time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" yaml:"updated_at"`
}

// RentDue is the total rent owed over the whole agreement. It saturates at
// math.MaxInt64 instead of wrapping.
func (a *LeaseAgreement) RentDue() int64 {
	if a.RentPricePerPeriod > 0 && a.DurationMonths > math.MaxInt64/a.RentPricePerPeriod {
		return math.MaxInt64
	}
	return a.DurationMonths * a.RentPricePerPeriod
}

// PaidInFull reports whether every period of the agreement has been paid.
func (a *LeaseAgreement) PaidInFull() bool {
	if a.RentPricePerPeriod <= 0 {
		return a.TotalRentPaid >= 0
	}
	return a.TotalRentPaid/a.RentPricePerPeriod >= a.DurationMonths
}

// Outstanding is the rent still owed before the property can be returned.
func (a *LeaseAgreement) Outstanding() int64 {
	if rest := a.RentDue() - a.TotalRentPaid; rest > 0 {
		return rest
	}
	return 0
}

// Withdrawable is the rent paid in but not yet collected by the landlord.
func (a *LeaseAgreement) Withdrawable() int64 {
	return a.TotalRentPaid - a.RentWithdrawn
}

// LeaseRequest is what a tenant submits with rentProperty.
type LeaseRequest struct {
	Tenant          Tenant `json:"tenant"`
	PropertyID      uint64 `json:"property_id"`
	DurationMonths  int64  `json:"duration_months"`
	DeclaredDeposit int64  `json:"deposit"`
}

// Counter is a named monotonically increasing id source.
type Counter struct {
	Name  string `gorm:"primaryKey;type:varchar(32)"`
	Value uint64 `gorm:"not null"`
}

const (
	counterProperty    = "property"
	counterAgreement   = "lease_agreement"
	counterEvent       = "event"
	counterEscrowEntry = "escrow_entry"
)

var counterNames = []string{counterProperty, counterAgreement, counterEvent, counterEscrowEntry}
