package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// Direction says whether an escrow entry brought value in or paid it out.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// EntryKind names the reason value moved.
type EntryKind string

const (
	EntryProposalHold   EntryKind = "proposal_hold"
	EntryRentPayment    EntryKind = "rent_payment"
	EntryDepositRefund  EntryKind = "deposit_refund"
	EntryRentWithdrawal EntryKind = "rent_withdrawal"
)

const escrowAccountID = 1

// EscrowAccount holds the running balance of everything in custody.
type EscrowAccount struct {
	ID        uint  `gorm:"primaryKey;autoIncrement:false"`
	Balance   int64 `gorm:"not null"`
	UpdatedAt time.Time
}

// EscrowEntry is one journal line. The journal is append only.
type EscrowEntry struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement:false" json:"id" yaml:"id"`
	AgreementID  uint64    `gorm:"not null;index" json:"agreement_id" yaml:"agreement_id"`
	Kind         EntryKind `gorm:"type:varchar(32);not null" json:"kind" yaml:"kind"`
	Direction    Direction `gorm:"type:varchar(8);not null" json:"direction" yaml:"direction"`
	Amount       int64     `gorm:"not null" json:"amount" yaml:"amount"`
	Counterparty Principal `gorm:"type:varchar(128);not null" json:"counterparty" yaml:"counterparty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// credit takes amount into custody on behalf of an agreement.
func (t *txn) credit(agreementID uint64, kind EntryKind, from Principal, amount int64) error {
	return t.move(agreementID, kind, Credit, from, amount)
}

// debit releases amount from custody to a counterparty.
func (t *txn) debit(agreementID uint64, kind EntryKind, to Principal, amount int64) error {
	return t.move(agreementID, kind, Debit, to, amount)
}

func (t *txn) move(agreementID uint64, kind EntryKind, dir Direction, party Principal, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("escrow %s of non-positive amount %d", dir, amount)
	}

	balance, err := readBalance(t.tx)
	if err != nil {
		return err
	}

	delta := amount
	if dir == Credit && balance > math.MaxInt64-amount {
		return reject(InvalidArgument, reasonEscrowCapacity)
	}
	if dir == Debit {
		if amount > balance {
			return fmt.Errorf("escrow debit %d exceeds balance %d", amount, balance)
		}
		delta = -amount
	}

	result := t.tx.Model(&EscrowAccount{}).
		Where("id = ?", escrowAccountID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update escrow balance: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("escrow account is missing, run migrations first")
	}

	id, err := nextID(t.tx, counterEscrowEntry)
	if err != nil {
		return err
	}
	entry := EscrowEntry{
		ID:           id,
		AgreementID:  agreementID,
		Kind:         kind,
		Direction:    dir,
		Amount:       amount,
		Counterparty: party,
	}
	if err := t.tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record escrow entry: %w", err)
	}

	t.moves = append(t.moves, entry)
	t.balance = balance + delta
	return nil
}

func readBalance(db *gorm.DB) (int64, error) {
	var account EscrowAccount
	result := db.Limit(1).Find(&account, "id = ?", escrowAccountID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to read escrow balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("escrow account is missing, run migrations first")
	}
	return account.Balance, nil
}

// GetBalance returns the value currently held in custody.
func (l *Ledger) GetBalance(ctx context.Context) (int64, error) {
	return readBalance(l.db.WithContext(ctx))
}

// EscrowEntries lists the journal of one agreement, oldest first. An
// agreementID of 0 lists the whole journal.
func (l *Ledger) EscrowEntries(ctx context.Context, agreementID uint64) ([]EscrowEntry, error) {
	query := l.db.WithContext(ctx).Order("id")
	if agreementID != 0 {
		query = query.Where("agreement_id = ?", agreementID)
	}

	var entries []EscrowEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list escrow entries: %w", err)
	}
	return entries, nil
}

// Reconcile checks that the stored balance equals credits minus debits of
// the journal and returns the balance.
func (l *Ledger) Reconcile(ctx context.Context) (int64, error) {
	db := l.db.WithContext(ctx)

	balance, err := readBalance(db)
	if err != nil {
		return 0, err
	}

	var sums []struct {
		Direction Direction
		Total     int64
	}
	err = db.Model(&EscrowEntry{}).
		Select("direction, COALESCE(SUM(amount), 0) AS total").
		Group("direction").
		Scan(&sums).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum escrow journal: %w", err)
	}

	var journal int64
	for _, s := range sums {
		switch s.Direction {
		case Credit:
			journal += s.Total
		case Debit:
			journal -= s.Total
		}
	}

	if journal != balance {
		return balance, fmt.Errorf("escrow out of balance: journal %d, account %d", journal, balance)
	}
	return balance, nil
}
