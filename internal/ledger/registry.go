package ledger

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RegisterProperty lists a new property owned by caller.
func (l *Ledger) RegisterProperty(ctx context.Context, caller Principal, in PropertyInput) (*Property, error) {
	var property Property
	err := l.transact(ctx, "registerProperty", caller, func(t *txn) error {
		if err := requireCaller(caller); err != nil {
			return err
		}
		if in.Price <= 0 {
			return reject(InvalidArgument, reasonPriceNotPositive)
		}
		if in.Deposit < 0 {
			return reject(InvalidArgument, reasonNegativeDeposit)
		}
		if in.Price > MaxAmount || in.Deposit > MaxAmount {
			return reject(InvalidArgument, reasonAmountTooLarge)
		}

		id, err := nextID(t.tx, counterProperty)
		if err != nil {
			return err
		}
		property = Property{
			ID:           id,
			Landlord:     caller,
			Address:      in.Address,
			Description:  in.Description,
			Price:        in.Price,
			Deposit:      in.Deposit,
			ContactName:  in.ContactName,
			ContactPhone: in.ContactPhone,
			ContactEmail: in.ContactEmail,
		}
		if err := t.tx.Create(&property).Error; err != nil {
			return fmt.Errorf("failed to create property: %w", err)
		}

		return t.emit(Event{
			Kind:       EventPropertyAdded,
			PropertyID: property.ID,
			Principal:  caller,
			Amount:     property.Price,
		})
	})
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetRegisteredProperties returns every property in creation order.
func (l *Ledger) GetRegisteredProperties(ctx context.Context) ([]Property, error) {
	var properties []Property
	if err := l.db.WithContext(ctx).Order("id").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// GetProperty returns one property.
func (l *Ledger) GetProperty(ctx context.Context, id uint64) (*Property, error) {
	return loadProperty(l.db.WithContext(ctx), id)
}

func loadProperty(db *gorm.DB, id uint64) (*Property, error) {
	var property Property
	result := db.Limit(1).Find(&property, "id = ?", id)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load property %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, reject(InvalidReference, reasonInvalidProperty)
	}
	return &property, nil
}

func setRented(tx *gorm.DB, propertyID uint64, rented bool) error {
	result := tx.Model(&Property{}).Where("id = ?", propertyID).Update("is_rented", rented)
	if result.Error != nil {
		return fmt.Errorf("failed to update property %d: %w", propertyID, result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("property %d vanished during update", propertyID)
	}
	return nil
}
