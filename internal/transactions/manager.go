// Package transactions owns the UI-authoritative list of transactions for
// the selected month. Every mutation goes through an explicit optimistic
// protocol: mutate local state first, talk to the server, then either
// reconcile by reloading or roll the local state back. Each mutation is a
// small state machine (pending -> committed | rolled_back) and every
// rollback is a named function, not an inline exception path.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
)

// Backend is the slice of the API client the manager drives.
type Backend interface {
	ListTransactions(ctx context.Context, month core.Month) ([]core.Transaction, error)
	AddTransaction(ctx context.Context, date core.Date, category string, amount core.Money) error
	UpdateTransaction(ctx context.Context, id string, date core.Date, category string, amount core.Money) error
	DeleteTransaction(ctx context.Context, id string) error
}

// MutationState tracks one optimistic mutation's lifecycle.
type MutationState string

const (
	MutationPending    MutationState = "pending"
	MutationCommitted  MutationState = "committed"
	MutationRolledBack MutationState = "rolled_back"
)

// Mutation is the record of one optimistic operation, returned so callers
// and tests can see how it settled.
type Mutation struct {
	Op    string
	TxID  string
	State MutationState
}

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrUndoExpired   = errors.New("undo window expired")
)

const tempIDPrefix = "temp-"

// undoEntry retains a deleted transaction until the undo window closes.
type undoEntry struct {
	tx       core.Transaction
	deadline time.Time
}

// Manager mediates all transaction mutations. Safe for concurrent use.
type Manager struct {
	backend    Backend
	notifier   notify.Notifier
	logger     *log.Logger
	undoWindow time.Duration
	now        func() time.Time

	loads singleflight.Group

	mu         sync.Mutex
	month      core.Month
	txs        []core.Transaction
	loading    bool
	generation uint64
	undo       *undoEntry
}

// Option configures a Manager.
type Option func(*Manager)

// WithUndoWindow sets how long a deleted transaction stays recoverable.
func WithUndoWindow(d time.Duration) Option {
	return func(m *Manager) { m.undoWindow = d }
}

// WithClock replaces the time source, for undo-expiry tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(backend Backend, notifier notify.Notifier, logger *log.Logger, opts ...Option) *Manager {
	m := &Manager{
		backend:    backend,
		notifier:   notifier,
		logger:     logger.WithComponent(log.ComponentTransactions),
		undoWindow: 15 * time.Second,
		now:        time.Now,
		month:      core.CurrentMonth(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Transactions returns a copy of the current list.
func (m *Manager) Transactions() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, len(m.txs))
	copy(out, m.txs)
	return out
}

// Month returns the currently selected month.
func (m *Manager) Month() core.Month {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.month
}

// IsLoading reports whether a load is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Summary recomputes the aggregates from the current list.
func (m *Manager) Summary() core.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return core.Summarize(m.txs)
}

// Load fetches the month's transactions and replaces the list wholesale on
// success. On failure the prior list stays untouched. A generation counter
// makes sure a slow response for an old month selection never overwrites
// state that belongs to a newer one; concurrent loads for the same month
// collapse into one request.
func (m *Manager) Load(ctx context.Context, month core.Month) error {
	if err := month.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.month = month
	m.loading = true
	m.mu.Unlock()

	res, err, _ := m.loads.Do(month.String(), func() (any, error) {
		return m.backend.ListTransactions(ctx, month)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		m.logger.Debug("Discarding stale load response",
			log.FieldMonth, month.String(),
			log.FieldGeneration, gen)
		return nil
	}
	m.loading = false

	if err != nil {
		m.logger.Warn("Load failed, keeping previous list",
			log.FieldOperation, log.OpLoad,
			log.FieldMonth, month.String(),
			log.FieldError, err.Error())
		m.notifier.Notify(notify.LevelError, "Could not load transactions for "+month.String())
		return err
	}

	m.txs = res.([]core.Transaction)
	m.logger.Info("Loaded transactions",
		log.FieldMonth, month.String(),
		log.FieldRowCount, len(m.txs))
	return nil
}

// Add optimistically inserts a transaction under a temporary client id, then
// creates it server-side. Success reconciles by reloading the month (the
// temporary id disappears in favor of the server-assigned one); failure
// removes the optimistic entry again.
func (m *Manager) Add(ctx context.Context, category string, amount core.Money, txType core.TxType, date core.Date) (Mutation, error) {
	tx := core.Transaction{
		ID:       tempIDPrefix + uuid.NewString(),
		Category: category,
		Amount:   txType.Sign(amount.Cents),
		Date:     date,
		Type:     txType,
	}
	mut := Mutation{Op: log.OpAdd, TxID: tx.ID, State: MutationPending}

	// Validation failures block the request entirely.
	if err := tx.Validate(); err != nil {
		mut.State = MutationRolledBack
		return mut, err
	}

	m.mu.Lock()
	m.txs = append([]core.Transaction{tx}, m.txs...)
	m.mu.Unlock()

	if err := m.backend.AddTransaction(ctx, tx.Date, tx.Category, tx.Amount); err != nil {
		m.rollbackAdd(tx.ID)
		mut.State = MutationRolledBack
		m.logger.Warn("Add failed, optimistic entry removed",
			log.FieldCategory, category,
			log.FieldError, err.Error())
		m.notifier.Notify(notify.LevelError, "Could not save transaction")
		return mut, err
	}

	mut.State = MutationCommitted
	m.logger.Info("Transaction added",
		log.FieldCategory, tx.Category,
		log.FieldAmountCents, tx.Amount.Cents,
		log.FieldTxType, string(tx.Type))

	m.reconcile(ctx, tx.Date.MonthOf())
	return mut, nil
}

// Update optimistically replaces the matching entry in place, keeping a
// snapshot. Failure restores the snapshot; success reconciles by reload.
func (m *Manager) Update(ctx context.Context, id, category string, amount core.Money, txType core.TxType, date core.Date) (Mutation, error) {
	updated := core.Transaction{
		ID:       id,
		Category: category,
		Amount:   txType.Sign(amount.Cents),
		Date:     date,
		Type:     txType,
	}
	mut := Mutation{Op: log.OpUpdate, TxID: id, State: MutationPending}

	if err := updated.Validate(); err != nil {
		mut.State = MutationRolledBack
		return mut, err
	}

	m.mu.Lock()
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		mut.State = MutationRolledBack
		return mut, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	snapshot := m.txs[idx]
	m.txs[idx] = updated
	m.mu.Unlock()

	if err := m.backend.UpdateTransaction(ctx, id, updated.Date, updated.Category, updated.Amount); err != nil {
		m.rollbackUpdate(snapshot)
		mut.State = MutationRolledBack
		m.logger.Warn("Update failed, snapshot restored",
			log.FieldTxID, id,
			log.FieldError, err.Error())
		m.notifier.Notify(notify.LevelError, "Could not update transaction")
		return mut, err
	}

	mut.State = MutationCommitted
	m.logger.Info("Transaction updated", log.FieldTxID, id)
	m.reconcile(ctx, updated.Date.MonthOf())
	return mut, nil
}

// Delete optimistically removes the entry, retaining a copy. Failure
// re-inserts it; success arms the undo window.
func (m *Manager) Delete(ctx context.Context, id string) (Mutation, error) {
	mut := Mutation{Op: log.OpDelete, TxID: id, State: MutationPending}

	m.mu.Lock()
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		mut.State = MutationRolledBack
		return mut, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	retained := m.txs[idx]
	m.txs = append(m.txs[:idx], m.txs[idx+1:]...)
	m.mu.Unlock()

	if err := m.backend.DeleteTransaction(ctx, id); err != nil {
		m.rollbackDelete(retained)
		mut.State = MutationRolledBack
		m.logger.Warn("Delete failed, entry restored",
			log.FieldTxID, id,
			log.FieldError, err.Error())
		m.notifier.Notify(notify.LevelError, "Could not delete transaction")
		return mut, err
	}

	m.mu.Lock()
	m.undo = &undoEntry{tx: retained, deadline: m.now().Add(m.undoWindow)}
	m.mu.Unlock()

	mut.State = MutationCommitted
	m.logger.Info("Transaction deleted", log.FieldTxID, id)
	return mut, nil
}

// Undo re-creates the most recently deleted transaction through the add
// path. The server assigns a new id; category, amount, date and type are
// preserved. After the window closes it returns ErrUndoExpired.
func (m *Manager) Undo(ctx context.Context) (Mutation, error) {
	m.mu.Lock()
	entry := m.undo
	if entry == nil {
		m.mu.Unlock()
		return Mutation{Op: log.OpUndo, State: MutationRolledBack}, ErrNothingToUndo
	}
	if m.now().After(entry.deadline) {
		m.undo = nil
		m.mu.Unlock()
		return Mutation{Op: log.OpUndo, State: MutationRolledBack}, ErrUndoExpired
	}
	m.undo = nil
	m.mu.Unlock()

	mut, err := m.Add(ctx, entry.tx.Category, entry.tx.Amount.Abs(), entry.tx.Type, entry.tx.Date)
	mut.Op = log.OpUndo
	if err != nil {
		// The delete already settled server-side; the failed re-create keeps
		// the entry available for another attempt within the window.
		m.mu.Lock()
		m.undo = entry
		m.mu.Unlock()
		return mut, err
	}
	m.logger.Info("Delete undone", log.FieldCategory, entry.tx.Category)
	return mut, nil
}

// UndoAvailable reports whether an undo is currently possible.
func (m *Manager) UndoAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undo != nil && !m.now().After(m.undo.deadline)
}

// rollbackAdd removes the optimistic entry with the given temporary id.
func (m *Manager) rollbackAdd(tempID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.indexOf(tempID); idx >= 0 {
		m.txs = append(m.txs[:idx], m.txs[idx+1:]...)
	}
}

// rollbackUpdate restores the pre-edit snapshot in place.
func (m *Manager) rollbackUpdate(snapshot core.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.indexOf(snapshot.ID); idx >= 0 {
		m.txs[idx] = snapshot
	}
}

// rollbackDelete re-inserts the retained copy at the front of the list.
func (m *Manager) rollbackDelete(tx core.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append([]core.Transaction{tx}, m.txs...)
}

// reconcile refreshes the list from the server after a committed mutation.
// Only the currently selected month is reloaded; a mutation dated into
// another month will be picked up when that month is selected.
func (m *Manager) reconcile(ctx context.Context, mutated core.Month) {
	m.mu.Lock()
	current := m.month
	m.mu.Unlock()
	if mutated != current {
		return
	}
	if err := m.Load(ctx, current); err != nil {
		m.logger.Warn("Reconcile reload failed, keeping optimistic state",
			log.FieldMonth, current.String(),
			log.FieldError, err.Error())
	}
}

// indexOf returns the position of id in the list, or -1. Callers hold m.mu.
func (m *Manager) indexOf(id string) int {
	for i, tx := range m.txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
