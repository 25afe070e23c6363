package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// OperationStatus is the lifecycle state of an Operation.
type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationRunning   OperationStatus = "running"
	OperationSucceeded OperationStatus = "succeeded"
	OperationFailed    OperationStatus = "failed"
)

// minWorkers is the smallest pool the Runner accepts.
const minWorkers = 2

// defaultRetention is how many finished operations the Runner keeps for polling.
const defaultRetention = 100

// Operation is the handle of one submitted unit of work. It carries its own
// status and completion channel; callers poll Snapshot or wait on Done.
type Operation struct {
	id        string
	kind      string
	createdAt time.Time
	done      chan struct{}

	mu         sync.Mutex
	status     OperationStatus
	result     any
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

// ID returns the operation's unique identifier.
func (o *Operation) ID() string { return o.id }

// Kind returns the operation kind, e.g. "refresh_all".
func (o *Operation) Kind() string { return o.kind }

// Done is closed when the operation finishes.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Wait blocks until the operation finishes or ctx is done, and returns its
// result and error.
func (o *Operation) Wait(ctx context.Context) (any, error) {
	select {
	case <-o.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result, o.err
}

// OperationSnapshot is a point-in-time copy of an Operation.
type OperationSnapshot struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Status     OperationStatus `json:"status"`
	Result     any             `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// Snapshot returns the current state of the operation.
func (o *Operation) Snapshot() OperationSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := OperationSnapshot{
		ID:        o.id,
		Kind:      o.kind,
		Status:    o.status,
		Result:    o.result,
		CreatedAt: o.createdAt,
	}
	if o.err != nil {
		snap.Error = o.err.Error()
	}
	if !o.startedAt.IsZero() {
		t := o.startedAt
		snap.StartedAt = &t
	}
	if !o.finishedAt.IsZero() {
		t := o.finishedAt
		snap.FinishedAt = &t
	}
	return snap
}

func (o *Operation) setRunning() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = OperationRunning
	o.startedAt = time.Now()
}

func (o *Operation) finish(result any, err error) {
	o.mu.Lock()
	o.result = result
	o.err = err
	o.finishedAt = time.Now()
	if err != nil {
		o.status = OperationFailed
	} else {
		o.status = OperationSucceeded
	}
	o.mu.Unlock()
	close(o.done)
}

// Work is a unit of work run by the Runner.
type Work func(ctx context.Context) (any, error)

// Runner executes submitted work on a bounded pool and keeps a handle per
// operation. Work is never cancelled mid-flight: it runs with a context that
// keeps the submitter's values but not its cancellation.
type Runner struct {
	sem    *semaphore.Weighted
	bus    *EventBus
	retain int
	wg     sync.WaitGroup

	mu    sync.Mutex
	ops   map[string]*Operation
	order []string
}

// NewRunner creates a Runner with the given pool size (at least 2). bus may
// be nil.
func NewRunner(workers int, bus *EventBus) *Runner {
	if workers < minWorkers {
		workers = minWorkers
	}
	return &Runner{
		sem:    semaphore.NewWeighted(int64(workers)),
		bus:    bus,
		retain: defaultRetention,
		ops:    make(map[string]*Operation),
	}
}

// Submit schedules work and returns its handle immediately.
func (r *Runner) Submit(ctx context.Context, kind string, work Work) *Operation {
	op := &Operation{
		id:        uuid.NewString(),
		kind:      kind,
		createdAt: time.Now(),
		done:      make(chan struct{}),
		status:    OperationPending,
	}

	r.mu.Lock()
	r.ops[op.id] = op
	r.order = append(r.order, op.id)
	r.evictLocked()
	r.mu.Unlock()

	workCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// Acquire cannot fail: the context is never cancelled.
		_ = r.sem.Acquire(workCtx, 1)
		defer r.sem.Release(1)

		op.setRunning()
		r.publish(EventOperationStarted, op)
		slog.Debug("operation started", "id", op.id, "kind", kind)

		result, err := run(workCtx, work)
		op.finish(result, err)

		if err != nil {
			slog.Warn("operation failed", "id", op.id, "kind", kind, "error", err)
		} else {
			slog.Debug("operation succeeded", "id", op.id, "kind", kind)
		}
		r.publish(EventOperationFinished, op)
	}()

	return op
}

// run calls work, turning a panic into an error.
func run(ctx context.Context, work Work) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("operation panicked: %v", rec)
		}
	}()
	return work(ctx)
}

// Get returns the operation with the given ID, if it is still retained.
func (r *Runner) Get(id string) (*Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[id]
	return op, ok
}

// Wait blocks until every submitted operation has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// evictLocked drops the oldest finished operations beyond the retention
// limit. Unfinished operations are always kept. Caller must hold r.mu.
func (r *Runner) evictLocked() {
	excess := len(r.order) - r.retain
	if excess <= 0 {
		return
	}

	kept := r.order[:0]
	for _, id := range r.order {
		if excess > 0 && isDone(r.ops[id]) {
			delete(r.ops, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

func isDone(op *Operation) bool {
	select {
	case <-op.done:
		return true
	default:
		return false
	}
}

func (r *Runner) publish(t EventType, op *Operation) {
	if r.bus == nil {
		return
	}
	snap := op.Snapshot()
	r.bus.Publish(Event{Type: t, Operation: &snap})
}
