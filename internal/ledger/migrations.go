package ledger

import (
	"gorm.io/gorm"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/migration"
)

// Migrations returns the ledger schema steps in version order.
func Migrations() []*migration.Migration {
	return []*migration.Migration{
		{
			Version: "20240315000001",
			Name:    "create_properties",
			Up: func(db *gorm.DB) error {
				return db.Migrator().CreateTable(&Property{})
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&Property{})
			},
		},
		{
			Version: "20240315000002",
			Name:    "create_lease_agreements",
			Up: func(db *gorm.DB) error {
				return db.Migrator().CreateTable(&LeaseAgreement{})
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&LeaseAgreement{})
			},
		},
		{
			Version: "20240315000003",
			Name:    "create_escrow",
			Up: func(db *gorm.DB) error {
				if err := db.Migrator().CreateTable(&EscrowAccount{}, &EscrowEntry{}); err != nil {
					return err
				}
				return db.Create(&EscrowAccount{ID: escrowAccountID}).Error
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&EscrowEntry{}, &EscrowAccount{})
			},
		},
		{
			Version: "20240315000004",
			Name:    "create_events",
			Up: func(db *gorm.DB) error {
				return db.Migrator().CreateTable(&Event{})
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&Event{})
			},
		},
		{
			Version: "20240315000005",
			Name:    "create_counters",
			Up: func(db *gorm.DB) error {
				if err := db.Migrator().CreateTable(&Counter{}); err != nil {
					return err
				}
				counters := make([]Counter, 0, len(counterNames))
				for _, name := range counterNames {
					counters = append(counters, Counter{Name: name})
				}
				return db.Create(&counters).Error
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&Counter{})
			},
		},
	}
}
