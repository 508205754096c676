package ledger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

// EventKind names an observable ledger event.
type EventKind string

const (
	EventPropertyAdded          EventKind = "PropertyAdded"
	EventLeaseAgreementProposal EventKind = "LeaseAgreementProposal"
	EventLeaseAgreementAccepted EventKind = "LeaseAgreementAccepted"
	EventRentPaid               EventKind = "RentPaid"
	EventPropertyReturned       EventKind = "PropertyReturned"
	EventRentWithdrawn          EventKind = "RentWithdrawn"
)

// Event is an immutable entry of the ordered event log.
//
//	PropertyAdded           PropertyID, Principal (landlord), Amount (price)
//	LeaseAgreementProposal  AgreementID (agreement count), Principal (tenant), PropertyID
//	LeaseAgreementAccepted  AgreementID, PropertyID, Principal (landlord)
//	RentPaid                AgreementID, Principal (tenant), Amount
//	PropertyReturned        AgreementID, PropertyID, Principal (caller), Amount (refund)
//	RentWithdrawn           AgreementID, Principal (landlord), Amount
type Event struct {
	Sequence    uint64    `gorm:"primaryKey;autoIncrement:false" json:"sequence" yaml:"sequence"`
	Kind        EventKind `gorm:"type:varchar(32);not null;index" json:"kind" yaml:"kind"`
	PropertyID  uint64    `json:"property_id,omitempty" yaml:"property_id,omitempty"`
	AgreementID uint64    `json:"agreement_id,omitempty" yaml:"agreement_id,omitempty"`
	Principal   Principal `gorm:"type:varchar(128)" json:"principal,omitempty" yaml:"principal,omitempty"`
	Amount      int64     `json:"amount,omitempty" yaml:"amount,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// emit appends an event to the log inside the current transaction. It is
// delivered to subscribers only once the transaction commits.
func (t *txn) emit(e Event) error {
	seq, err := nextID(t.tx, counterEvent)
	if err != nil {
		return err
	}
	e.Sequence = seq
	if err := t.tx.Create(&e).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", e.Kind, err)
	}
	t.events = append(t.events, e)
	return nil
}

// Events returns up to limit events with a sequence greater than after.
// A limit of 0 returns all of them.
func (l *Ledger) Events(ctx context.Context, after uint64, limit int) ([]Event, error) {
	query := l.db.WithContext(ctx).Where("sequence > ?", after).Order("sequence")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []Event
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Subscribe registers fn to receive every committed event in order. The
// returned function removes the subscription.
func (l *Ledger) Subscribe(fn func(Event)) func() {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()

	l.nextSub++
	id := l.nextSub
	l.subs[id] = fn

	return func() {
		l.subsMu.Lock()
		defer l.subsMu.Unlock()
		delete(l.subs, id)
	}
}

func (l *Ledger) publish(events []Event) {
	if len(events) == 0 {
		return
	}

	l.subsMu.RLock()
	ids := make([]uint64, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	subs := make([]func(Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, l.subs[id])
	}
	l.subsMu.RUnlock()

	for _, e := range events {
		for _, fn := range subs {
			l.deliver(fn, e)
		}
	}
}

// deliver runs one subscriber. The write has already committed, so a
// panicking subscriber is logged and skipped.
func (l *Ledger) deliver(fn func(Event), e Event) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("event subscriber panicked",
				zap.String("kind", string(e.Kind)),
				zap.Uint64("sequence", e.Sequence),
				zap.Any("panic", r))
		}
	}()
	fn(e)
}
