package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/c.mueller/gantt-order-sync/internal/dragdrop"
	"github.com/c.mueller/gantt-order-sync/internal/ordering"
)

var ErrStopped = errors.New("worker stopped")

// Move asks the worker to move Items[From] to index To within Scope.
// OnApplied, when set, receives the list each time it changes: first the
// optimistic list, then the rolled back one if the sync fails.
type Move struct {
	Scope     dragdrop.Scope
	Items     []ordering.Item
	From      int
	To        int
	OnApplied func([]ordering.Item)
}

// Outcome is the final state of a move. Result is nil when nothing moved.
type Outcome struct {
	Items     []ordering.Item
	Operation dragdrop.Operation
	Result    dragdrop.Result
}

type request struct {
	ctx   context.Context
	move  Move
	reply chan reply
}

type reply struct {
	outcome Outcome
	err     error
}

// Worker feeds moves through a dragdrop.Manager one at a time.
type Worker struct {
	manager    *dragdrop.Manager
	logger     *slog.Logger
	requests   chan request
	shutdown   chan struct{}
	done       chan struct{}
	processing atomic.Bool

	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a new worker instance
func New(manager *dragdrop.Manager) *Worker {
	return &Worker{
		manager:  manager,
		logger:   slog.Default().With("component", "worker"),
		requests: make(chan request),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the worker loop
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true

	go w.loop()
	w.logger.Info("worker started")
}

// Stop waits for the move in progress, if any, and ends the loop.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	w.logger.Info("worker stopping")
	close(w.shutdown)
	if started {
		<-w.done
	}
	w.logger.Info("worker stopped")
}

// Processing reports whether a move is being handled.
func (w *Worker) Processing() bool {
	return w.processing.Load()
}

// State returns the manager's state.
func (w *Worker) State() dragdrop.State {
	return w.manager.State()
}

// Submit queues m and waits for its outcome. Moves are handled in the order
// they are submitted. A sync that fails is rolled back before Submit
// returns; that is reported through Outcome.Result, not err.
func (w *Worker) Submit(ctx context.Context, m Move) (Outcome, error) {
	req := request{ctx: ctx, move: m, reply: make(chan reply, 1)}

	select {
	case w.requests <- req:
	case <-w.shutdown:
		return Outcome{}, ErrStopped
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.outcome, r.err
	case <-w.done:
		// the loop may have answered just before exiting
		select {
		case r := <-req.reply:
			return r.outcome, r.err
		default:
			return Outcome{}, ErrStopped
		}
	}
}

func (w *Worker) loop() {
	defer close(w.done)
	for {
		select {
		case req := <-w.requests:
			w.processing.Store(true)
			outcome, err := w.process(req.ctx, req.move)
			w.processing.Store(false)
			req.reply <- reply{outcome: outcome, err: err}
		case <-w.shutdown:
			w.logger.Debug("worker loop exiting")
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, m Move) (Outcome, error) {
	after, err := w.manager.OptimisticReorder(m.Items, m.From, m.To)
	if err != nil {
		return Outcome{}, err
	}
	if m.From == m.To {
		return Outcome{Items: after}, nil
	}
	notify(m.OnApplied, after)

	op := dragdrop.NewOperation(m.Scope, m.Items, after, m.From, m.To)
	if err := w.manager.AddOperation(op); err != nil {
		return Outcome{}, fmt.Errorf("track operation: %w", err)
	}

	res := w.manager.BeginSync(ctx, op)
	switch r := res.(type) {
	case dragdrop.Success:
		w.manager.CompleteOperation(op.ID)
		w.manager.ClearError()
		w.logger.Debug("move synced", "scope", op.Scope, "item", op.ItemID, "key", op.NewKey)
		return Outcome{Items: after, Operation: op, Result: r}, nil

	case dragdrop.Failure:
		restored, rbErr := w.manager.Rollback(after, op)
		w.manager.SetError(r.Error())
		w.manager.CompleteOperation(op.ID)
		if rbErr != nil {
			return Outcome{Items: after, Operation: op, Result: r}, fmt.Errorf("rollback %s: %w", op.ID, rbErr)
		}
		w.logger.Warn("move rolled back", "scope", op.Scope, "item", op.ItemID, "error", r.Error())
		notify(m.OnApplied, restored)
		return Outcome{Items: restored, Operation: op, Result: r}, nil
	}

	return Outcome{}, fmt.Errorf("unexpected sync result %T", res)
}

func notify(fn func([]ordering.Item), items []ordering.Item) {
	if fn != nil {
		fn(items)
	}
}
