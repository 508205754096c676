// Package ledger implements the property registry, the lease agreement state
// machine and the escrow accounting that backs it. Every write operation runs
// in a single database transaction: either all of its state, balance and
// event changes commit, or none do.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/migration"
)

// Recorder receives operation outcomes and escrow movements.
type Recorder interface {
	ObserveOperation(operation, result string)
	ObserveEscrow(direction string, amount int64, balance int64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string)      {}
func (nopRecorder) ObserveEscrow(string, int64, int64) {}

// Ledger is the rental ledger bound to one store.
type Ledger struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics Recorder

	// serializes write transactions
	mu sync.Mutex

	subsMu  sync.RWMutex
	subs    map[uint64]func(Event)
	nextSub uint64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for committed and rejected calls.
func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(l *Ledger) {
		if r != nil {
			l.metrics = r
		}
	}
}

// New returns a ledger over db. The schema must already be migrated.
func New(db *gorm.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:      db,
		log:     zap.NewNop(),
		metrics: nopRecorder{},
		subs:    make(map[uint64]func(Event)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open migrates the schema to the latest version and returns the ledger.
func Open(db *gorm.DB, opts ...Option) (*Ledger, error) {
	l := New(db, opts...)
	applied, err := NewMigrator(db).Up()
	if err != nil {
		return nil, fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	for _, m := range applied {
		l.log.Info("applied migration", zap.String("version", m.Version), zap.String("name", m.Name))
	}
	return l, nil
}

// NewMigrator returns a migrator loaded with the ledger schema.
func NewMigrator(db *gorm.DB) *migration.Migrator {
	return migration.NewMigrator(db, Migrations()...)
}

// txn carries the side effects of one write transaction until it commits.
type txn struct {
	tx      *gorm.DB
	events  []Event
	moves   []EscrowEntry
	balance int64
}

// transact runs fn in a serialized database transaction. Rejections and
// infrastructure errors roll everything back; events and escrow movements
// are published only after commit.
func (l *Ledger) transact(ctx context.Context, operation string, caller Principal, fn func(t *txn) error) error {
	l.mu.Lock()
	t := &txn{}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t.tx = tx
		return fn(t)
	})
	l.mu.Unlock()

	log := l.log.With(zap.String("operation", operation), zap.String("caller", string(caller)))

	if err != nil {
		var rejected *Error
		if errors.As(err, &rejected) {
			l.metrics.ObserveOperation(operation, string(rejected.Kind))
			log.Debug("ledger call rejected",
				zap.String("kind", string(rejected.Kind)),
				zap.String("reason", rejected.Reason))
			return err
		}
		l.metrics.ObserveOperation(operation, "error")
		log.Error("ledger call failed", zap.Error(err))
		return err
	}

	l.metrics.ObserveOperation(operation, "ok")
	for _, m := range t.moves {
		l.metrics.ObserveEscrow(string(m.Direction), m.Amount, t.balance)
	}
	for _, e := range t.events {
		log.Info("ledger event",
			zap.String("kind", string(e.Kind)),
			zap.Uint64("sequence", e.Sequence),
			zap.Uint64("property_id", e.PropertyID),
			zap.Uint64("agreement_id", e.AgreementID),
			zap.Int64("amount", e.Amount))
	}
	l.publish(t.events)
	return nil
}

// nextID advances a named counter and returns its new value.
func nextID(tx *gorm.DB, name string) (uint64, error) {
	result := tx.Model(&Counter{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + 1"))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to advance %s counter: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		if err := tx.Create(&Counter{Name: name, Value: 1}).Error; err != nil {
			return 0, fmt.Errorf("failed to create %s counter: %w", name, err)
		}
		return 1, nil
	}

	var c Counter
	if err := tx.First(&c, "name = ?", name).Error; err != nil {
		return 0, fmt.Errorf("failed to read %s counter: %w", name, err)
	}
	return c.Value, nil
}

func requireCaller(caller Principal) error {
	if caller == "" {
		return reject(Unauthorized, reasonCallerRequired)
	}
	return nil
}
