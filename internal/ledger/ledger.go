// Package ledger owns the list of transactions: adding, deleting, and
// rehydrating them from the compact records kept in storage.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/storage"
)

// StorageKey is the slot holding the serialized ledger.
const StorageKey = "kakeibo_data"

// DeletePrompt is shown before a transaction is removed.
const DeletePrompt = "この記録を削除しますか？"

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm answers yes without asking, for --force style callers.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// ChangeListener is notified after the ledger changes. external is true
// when the change came from another process writing the same storage.
type ChangeListener func(external bool)

// Ledger is the authoritative transaction list, mirrored to storage.
type Ledger struct {
	slot         *storage.Slot[[]model.StoredTransaction]
	ids          *IDGenerator
	logger       *slog.Logger
	now          func() time.Time
	listeners    map[int]ChangeListener
	unsubscribe  func()
	catalog      model.Catalog
	transactions []model.Transaction
	nextListener int
	mu           sync.RWMutex
}

// Option configures a Ledger.
type Option func(*options)

type options struct {
	now      func() time.Time
	logger   *slog.Logger
	slotOpts []storage.SlotOption
	demoData bool
}

// WithClock sets the time source used for ids, default dates, and demo data.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithDemoData controls whether an empty slot starts with sample transactions.
func WithDemoData(enabled bool) Option {
	return func(o *options) {
		o.demoData = enabled
	}
}

// WithLedgerLogger sets the logger.
func WithLedgerLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSlotOptions passes options through to the storage slot.
func WithSlotOptions(opts ...storage.SlotOption) Option {
	return func(o *options) {
		o.slotOpts = append(o.slotOpts, opts...)
	}
}

// Open migrates legacy records if needed and loads the ledger from backend.
func Open(ctx context.Context, backend storage.Backend, opts ...Option) (*Ledger, error) {
	o := options{
		now:      time.Now,
		logger:   slog.Default(),
		demoData: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	catalog := model.DefaultCatalog()
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	if _, err := Migrate(ctx, backend, StorageKey, WithMigrationLogger(o.logger)); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}

	initial := []model.StoredTransaction{}
	if o.demoData {
		initial = DemoData(o.now(), catalog)
	}

	slotOpts := append([]storage.SlotOption{storage.WithLogger(o.logger)}, o.slotOpts...)
	slot, err := storage.OpenSlot(ctx, backend, StorageKey, initial, slotOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger storage: %w", err)
	}

	l := &Ledger{
		slot:      slot,
		catalog:   catalog,
		ids:       NewIDGenerator(o.now),
		now:       o.now,
		logger:    o.logger,
		listeners: make(map[int]ChangeListener),
	}
	l.transactions = hydrate(slot.Value(), l.catalog, l.logger)
	l.unsubscribe = slot.Subscribe(l.onSlotChange)
	return l, nil
}

func (l *Ledger) onSlotChange(records []model.StoredTransaction, external bool) {
	txns := hydrate(records, l.catalog, l.logger)

	l.mu.Lock()
	l.transactions = txns
	fns := make([]ChangeListener, 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(external)
	}
}

// Catalog returns the category catalog the ledger resolves against.
func (l *Ledger) Catalog() model.Catalog {
	return l.catalog
}

// List returns every transaction, newest addition first.
func (l *Ledger) List() []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.transactions)
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.transactions)
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id int64) (model.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.transactions {
		if t.ID == id {
			return t, true
		}
	}
	return model.Transaction{}, false
}

// Add records a new transaction at the front of the ledger and persists it.
// A zero date means now. The amount must be positive and the category must
// belong to the list for typ; otherwise nothing changes.
//
// If persisting fails the transaction stays in the ledger for this session
// and the storage error is returned.
func (l *Ledger) Add(ctx context.Context, typ model.TransactionType, amount int64, category model.Category, note string, date time.Time) (model.Transaction, error) {
	if !typ.Valid() {
		return model.Transaction{}, fmt.Errorf("%w: %q", common.ErrUnknownTransactionType, typ)
	}
	if amount <= 0 {
		return model.Transaction{}, common.ErrInvalidAmount
	}
	resolved, ok := l.catalog.Find(typ, category.ID)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: %q is not a %s category", common.ErrCategoryMismatch, category.ID, typ)
	}
	if date.IsZero() {
		date = l.now()
	}

	var added model.Transaction
	err := l.slot.Update(ctx, func(prev []model.StoredTransaction) []model.StoredTransaction {
		rec := toStored(model.Transaction{
			ID:       l.ids.Next(maxID(prev)),
			Type:     typ,
			Amount:   amount,
			Category: resolved,
			Date:     date,
			Note:     note,
		})
		// Hand back what List will return, at storage precision.
		added = fromStored(rec, l.catalog, l.logger)
		next := make([]model.StoredTransaction, 0, len(prev)+1)
		next = append(next, rec)
		return append(next, prev...)
	})
	if err != nil {
		return added, err
	}

	l.logger.Debug("transaction added", "id", added.ID, "type", added.Type, "amount", added.Amount)
	return added, nil
}

// Delete removes the transaction with the given id after confirm agrees.
// It reports whether a transaction was removed. An unknown id, or a
// declined confirmation, leaves the ledger unchanged and is not an error.
func (l *Ledger) Delete(ctx context.Context, id int64, confirm Confirmer) (bool, error) {
	if confirm == nil {
		return false, fmt.Errorf("%w: confirmer", storage.ErrNilParameter)
	}

	ok, err := confirm.Confirm(ctx, DeletePrompt)
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return false, nil
	}

	if _, exists := l.Get(id); !exists {
		return false, nil
	}

	var removed bool
	err = l.slot.Update(ctx, func(prev []model.StoredTransaction) []model.StoredTransaction {
		next := make([]model.StoredTransaction, 0, len(prev))
		for _, r := range prev {
			if r.ID == id {
				removed = true
				continue
			}
			next = append(next, r)
		}
		return next
	})
	if err != nil {
		return removed, err
	}

	l.logger.Debug("transaction deleted", "id", id, "removed", removed)
	return removed, nil
}

// Subscribe registers fn to run after every ledger change.
func (l *Ledger) Subscribe(fn ChangeListener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextListener
	l.nextListener++
	l.listeners[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

// Close detaches the ledger from storage. The backend stays open.
func (l *Ledger) Close() {
	if l.unsubscribe != nil {
		l.unsubscribe()
	}
	l.slot.Close()
}

func maxID(records []model.StoredTransaction) int64 {
	var m int64
	for _, r := range records {
		m = max(m, r.ID)
	}
	return m
}
