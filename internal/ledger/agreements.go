package ledger

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"
)

// RentProperty records a tenant's proposal for a property. amount is the
// value attached to the call; it must equal one period's price and is held
// in escrow until the property is returned. It does not count as rent.
func (l *Ledger) RentProperty(ctx context.Context, caller Principal, req LeaseRequest, amount int64) (*LeaseAgreement, error) {
	var agreement LeaseAgreement
	err := l.transact(ctx, "rentProperty", caller, func(t *txn) error {
		if err := requireCaller(caller); err != nil {
			return err
		}

		property, err := loadProperty(t.tx, req.PropertyID)
		if err != nil {
			return err
		}
		if property.IsRented {
			return reject(AlreadyRented, reasonAlreadyRented)
		}

		tenant := req.Tenant
		if tenant.ID != "" && tenant.ID != caller {
			return reject(Unauthorized, reasonTenantMismatch)
		}
		tenant.ID = caller

		if req.DurationMonths <= 0 {
			return reject(InvalidArgument, reasonInvalidDuration)
		}
		if req.DurationMonths > math.MaxInt64/property.Price {
			return reject(InvalidArgument, reasonDurationTooLong)
		}
		if req.DeclaredDeposit != property.Deposit {
			return reject(InvalidArgument, reasonDepositMismatch)
		}
		if amount != property.Price {
			return reject(IncorrectAmount, reasonIncorrectRent)
		}

		id, err := nextID(t.tx, counterAgreement)
		if err != nil {
			return err
		}
		agreement = LeaseAgreement{
			ID:                 id,
			PropertyID:         property.ID,
			Tenant:             tenant,
			DurationMonths:     req.DurationMonths,
			DepositPaid:        property.Deposit,
			RentPricePerPeriod: property.Price,
			HeldAtProposal:     amount,
			State:              Proposed,
		}
		if err := t.tx.Create(&agreement).Error; err != nil {
			return fmt.Errorf("failed to create lease agreement: %w", err)
		}

		if err := t.credit(agreement.ID, EntryProposalHold, caller, amount); err != nil {
			return err
		}

		return t.emit(Event{
			Kind:        EventLeaseAgreementProposal,
			AgreementID: agreement.ID,
			PropertyID:  property.ID,
			Principal:   caller,
		})
	})
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

// AcceptLeaseAgreement lets the landlord activate a proposal, which marks
// the property as rented.
func (l *Ledger) AcceptLeaseAgreement(ctx context.Context, caller Principal, agreementID uint64) (*LeaseAgreement, error) {
	var agreement *LeaseAgreement
	err := l.transact(ctx, "acceptLeaseAgreement", caller, func(t *txn) error {
		a, property, err := loadParties(t.tx, caller, agreementID)
		if err != nil {
			return err
		}
		if caller != property.Landlord {
			return reject(Unauthorized, reasonNotLandlord)
		}
		if a.State != Proposed {
			return reject(InvalidState, reasonInvalidState)
		}
		if property.IsRented {
			return reject(AlreadyRented, reasonAlreadyRented)
		}

		a.State = Active
		if err := t.tx.Save(a).Error; err != nil {
			return fmt.Errorf("failed to activate lease agreement %d: %w", a.ID, err)
		}
		if err := setRented(t.tx, property.ID, true); err != nil {
			return err
		}
		agreement = a

		return t.emit(Event{
			Kind:        EventLeaseAgreementAccepted,
			AgreementID: a.ID,
			PropertyID:  property.ID,
			Principal:   caller,
		})
	})
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

// PayRent adds one period's rent to an active agreement.
func (l *Ledger) PayRent(ctx context.Context, caller Principal, agreementID uint64, amount int64) (*LeaseAgreement, error) {
	var agreement *LeaseAgreement
	err := l.transact(ctx, "payRent", caller, func(t *txn) error {
		a, _, err := loadParties(t.tx, caller, agreementID)
		if err != nil {
			return err
		}
		if caller != a.Tenant.ID {
			return reject(Unauthorized, reasonNotTenant)
		}
		if a.State != Active {
			return reject(InvalidState, reasonInvalidState)
		}
		if amount != a.RentPricePerPeriod {
			return reject(IncorrectAmount, reasonIncorrectRent)
		}

		if a.TotalRentPaid > math.MaxInt64-amount {
			return reject(InvalidArgument, reasonEscrowCapacity)
		}

		a.TotalRentPaid += amount
		if err := t.tx.Save(a).Error; err != nil {
			return fmt.Errorf("failed to record rent for lease agreement %d: %w", a.ID, err)
		}
		if err := t.credit(a.ID, EntryRentPayment, caller, amount); err != nil {
			return err
		}
		agreement = a

		return t.emit(Event{
			Kind:        EventRentPaid,
			AgreementID: a.ID,
			PropertyID:  a.PropertyID,
			Principal:   caller,
			Amount:      amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

// ReturnProperty completes a fully paid agreement, puts the property back
// on the market and refunds the value held since the proposal to the tenant.
func (l *Ledger) ReturnProperty(ctx context.Context, caller Principal, agreementID uint64) (*LeaseAgreement, error) {
	var agreement *LeaseAgreement
	err := l.transact(ctx, "returnProperty", caller, func(t *txn) error {
		a, property, err := loadParties(t.tx, caller, agreementID)
		if err != nil {
			return err
		}
		if caller != a.Tenant.ID && caller != property.Landlord {
			return reject(Unauthorized, reasonNotParty)
		}
		if a.State != Active {
			return reject(InvalidState, reasonInvalidState)
		}
		if !a.PaidInFull() {
			return reject(OutstandingBalance, reasonRentOutstanding)
		}

		a.State = Completed
		if err := t.tx.Save(a).Error; err != nil {
			return fmt.Errorf("failed to complete lease agreement %d: %w", a.ID, err)
		}
		if err := setRented(t.tx, property.ID, false); err != nil {
			return err
		}
		if a.HeldAtProposal > 0 {
			if err := t.debit(a.ID, EntryDepositRefund, a.Tenant.ID, a.HeldAtProposal); err != nil {
				return err
			}
		}
		agreement = a

		return t.emit(Event{
			Kind:        EventPropertyReturned,
			AgreementID: a.ID,
			PropertyID:  property.ID,
			Principal:   caller,
			Amount:      a.HeldAtProposal,
		})
	})
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

// WithdrawRent pays the landlord all rent collected but not yet withdrawn
// and returns the amount released.
func (l *Ledger) WithdrawRent(ctx context.Context, caller Principal, agreementID uint64) (int64, error) {
	var released int64
	err := l.transact(ctx, "withdrawRent", caller, func(t *txn) error {
		a, property, err := loadParties(t.tx, caller, agreementID)
		if err != nil {
			return err
		}
		if caller != property.Landlord {
			return reject(Unauthorized, reasonNotLandlord)
		}
		if a.State == Proposed {
			return reject(InvalidState, reasonInvalidState)
		}
		available := a.Withdrawable()
		if available <= 0 {
			return reject(InvalidState, reasonNothingToWithdraw)
		}

		a.RentWithdrawn += available
		if err := t.tx.Save(a).Error; err != nil {
			return fmt.Errorf("failed to record withdrawal for lease agreement %d: %w", a.ID, err)
		}
		if err := t.debit(a.ID, EntryRentWithdrawal, caller, available); err != nil {
			return err
		}
		released = available

		return t.emit(Event{
			Kind:        EventRentWithdrawn,
			AgreementID: a.ID,
			PropertyID:  property.ID,
			Principal:   caller,
			Amount:      available,
		})
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// GetRegisteredLeaseAgreement returns every agreement in creation order.
func (l *Ledger) GetRegisteredLeaseAgreement(ctx context.Context) ([]LeaseAgreement, error) {
	var agreements []LeaseAgreement
	if err := l.db.WithContext(ctx).Order("id").Find(&agreements).Error; err != nil {
		return nil, fmt.Errorf("failed to list lease agreements: %w", err)
	}
	return agreements, nil
}

// GetLeaseAgreement returns one agreement.
func (l *Ledger) GetLeaseAgreement(ctx context.Context, id uint64) (*LeaseAgreement, error) {
	return loadAgreement(l.db.WithContext(ctx), id)
}

func loadAgreement(db *gorm.DB, id uint64) (*LeaseAgreement, error) {
	var agreement LeaseAgreement
	result := db.Limit(1).Find(&agreement, "id = ?", id)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load lease agreement %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, reject(InvalidReference, reasonInvalidAgreement)
	}
	return &agreement, nil
}

// loadParties checks the caller and loads an agreement with its property.
func loadParties(tx *gorm.DB, caller Principal, agreementID uint64) (*LeaseAgreement, *Property, error) {
	if err := requireCaller(caller); err != nil {
		return nil, nil, err
	}
	a, err := loadAgreement(tx, agreementID)
	if err != nil {
		return nil, nil, err
	}
	property, err := loadProperty(tx, a.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	return a, property, nil
}
