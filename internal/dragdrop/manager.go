// Package dragdrop applies reorders optimistically, tracks the remote
// updates that are still in flight and computes rollbacks when one fails.
package dragdrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/c.mueller/gantt-order-sync/internal/ordering"
	"github.com/google/uuid"
)

// MaxPending bounds the number of tracked operations.
const MaxPending = 3

var (
	ErrInvalidRange       = errors.New("invalid index range")
	ErrDuplicateOperation = errors.New("operation already exists")
	ErrItemNotFound       = errors.New("moved item not found")
)

// Scope names an independent order space.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeTask    Scope = "task"
)

// Operation records one reorder waiting for remote confirmation.
type Operation struct {
	ID        string  `json:"id"`
	Scope     Scope   `json:"scope"`
	ItemID    int64   `json:"item_id"`
	OldKey    float64 `json:"old_key"`
	NewKey    float64 `json:"new_key"`
	FromIndex int     `json:"from_index"`
	ToIndex   int     `json:"to_index"`
}

// NewOperation describes moving before[from] to index to, where after is the
// list returned by OptimisticReorder. Every call gets a fresh id.
func NewOperation(scope Scope, before, after []ordering.Item, from, to int) Operation {
	return Operation{
		ID:        uuid.NewString(),
		Scope:     scope,
		ItemID:    before[from].ID,
		OldKey:    before[from].Key,
		NewKey:    after[to].Key,
		FromIndex: from,
		ToIndex:   to,
	}
}

// State is a snapshot of the manager's bookkeeping.
type State struct {
	PendingOperations []Operation `json:"pending_operations"`
	IsProcessing      bool        `json:"is_processing"`
	LastError         string      `json:"last_error,omitempty"`
}

// Manager owns the drag-drop state of one session. Calls are expected from a
// single caller; BeginSync is the only method that blocks.
type Manager struct {
	mu         sync.Mutex
	syncers    map[Scope]Syncer
	pending    []Operation
	inFlight   int
	lastError  string
	maxPending int
	logger     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for eviction and sync messages.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMaxPending overrides MaxPending. Values below one are ignored.
func WithMaxPending(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxPending = n
		}
	}
}

// New creates a Manager that syncs each scope through its Syncer.
func New(syncers map[Scope]Syncer, opts ...Option) *Manager {
	m := &Manager{
		syncers:    make(map[Scope]Syncer, len(syncers)),
		maxPending: MaxPending,
		logger:     slog.Default(),
	}
	for scope, s := range syncers {
		if s != nil {
			m.syncers[scope] = s
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OptimisticReorder returns items with items[from] moved to to and given a
// new key. Manager state is not touched.
func (m *Manager) OptimisticReorder(items []ordering.Item, from, to int) ([]ordering.Item, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("move %d -> %d in list of %d: %w", from, to, len(items), ErrInvalidRange)
	}
	return ordering.Reorder(items, from, to)
}

// BeginSync sends op to the Syncer of its scope and returns the result as
// is. IsProcessing stays true while any sync is in flight.
func (m *Manager) BeginSync(ctx context.Context, op Operation) Result {
	m.mu.Lock()
	m.inFlight++
	syncer, ok := m.syncers[op.Scope]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.inFlight > 0 {
			m.inFlight--
		}
		m.mu.Unlock()
	}()

	if !ok {
		return Failure{Message: fmt.Sprintf("no syncer for scope %q", op.Scope)}
	}

	m.logger.Debug("syncing order", "op", op.ID, "scope", op.Scope, "item", op.ItemID, "key", op.NewKey)
	return syncer.SyncOrder(ctx, op.ItemID, op.NewKey)
}

// AddOperation starts tracking op. When the pending set is full the oldest
// operation is dropped; its remote call is not cancelled.
func (m *Manager) AddOperation(op Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.ContainsFunc(m.pending, func(p Operation) bool { return p.ID == op.ID }) {
		return fmt.Errorf("operation %s: %w", op.ID, ErrDuplicateOperation)
	}

	if len(m.pending) >= m.maxPending {
		evicted := m.pending[0]
		m.pending = slices.Delete(m.pending, 0, 1)
		m.logger.Warn("pending operations full, no longer tracking oldest",
			"evicted", evicted.ID, "item", evicted.ItemID, "scope", evicted.Scope)
	}

	m.pending = append(m.pending, op)
	return nil
}

// CompleteOperation stops tracking the operation with the given id.
// Unknown ids are ignored.
func (m *Manager) CompleteOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = slices.DeleteFunc(m.pending, func(p Operation) bool { return p.ID == id })
}

// Rollback undoes op on current: the moved item returns to op.FromIndex and
// gets its old key back. When a later move has taken that key the item gets
// a fresh key between its restored neighbours instead.
func (m *Manager) Rollback(current []ordering.Item, op Operation) ([]ordering.Item, error) {
	idx := op.ToIndex
	if idx < 0 || idx >= len(current) || current[idx].ID != op.ItemID {
		idx = ordering.IndexOf(current, op.ItemID)
	}
	if idx < 0 {
		return nil, fmt.Errorf("rollback %s item %d: %w", op.ID, op.ItemID, ErrItemNotFound)
	}
	if op.FromIndex < 0 || op.FromIndex >= len(current) {
		return nil, fmt.Errorf("rollback %s to index %d of %d: %w", op.ID, op.FromIndex, len(current), ErrInvalidRange)
	}

	out := ordering.Move(current, idx, op.FromIndex)
	out[op.FromIndex].Key = op.OldKey
	if ordering.Check(out) == nil {
		return out, nil
	}

	key, err := ordering.ComputeNewKey(current, op.FromIndex, idx)
	if err != nil {
		return nil, fmt.Errorf("rollback %s item %d: %w", op.ID, op.ItemID, err)
	}
	out[op.FromIndex].Key = key
	if err := ordering.Check(out); err != nil {
		return nil, fmt.Errorf("rollback %s item %d: %w", op.ID, op.ItemID, err)
	}
	m.logger.Warn("old key taken by a later move, assigned a new one",
		"op", op.ID, "item", op.ItemID, "old_key", op.OldKey, "key", key)
	return out, nil
}

// SetError records a failure message for display.
func (m *Manager) SetError(msg string) {
	m.mu.Lock()
	m.lastError = msg
	m.mu.Unlock()
}

// ClearError forgets the last failure message.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.lastError = ""
	m.mu.Unlock()
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return State{
		PendingOperations: slices.Clone(m.pending),
		IsProcessing:      m.inFlight > 0,
		LastError:         m.lastError,
	}
}

// Reset drops all pending operations and the last error.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = nil
	m.lastError = ""
	m.inFlight = 0
}
