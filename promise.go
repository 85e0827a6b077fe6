package iomodal

import (
	"context"
	"sync"
	"sync/atomic"
	"weak"
)

// PromiseState represents the lifecycle state of a [ResultPromise].
// A promise starts in [Pending] state and transitions to either [Fulfilled]
// or [Rejected]. State transitions are irreversible.
type PromiseState int32

const (
	// Pending indicates the dialog has not settled yet.
	Pending PromiseState = iota

	// Fulfilled indicates the dialog settled with a [Result].
	Fulfilled

	// Rejected indicates the dialog failed with an error (a caller-supplied
	// action fault, an explicit RejectPromise, or loop termination).
	Rejected
)

// String returns a human-readable representation of the state.
func (s PromiseState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Fulfilled:
		return "Fulfilled"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// ResultPromise is the single-settlement future for a dialog's outcome.
//
// Settlement is idempotent: exactly one resolve or reject takes effect for
// the lifetime of the promise, and later attempts are no-ops. Handlers
// registered via [ResultPromise.Then], [ResultPromise.Catch], and
// [ResultPromise.Finally] are scheduled as microtasks and execute on the
// loop goroutine in registration order.
//
// Thread Safety: safe for concurrent use. Settlement can occur from any
// goroutine; handlers always execute on the loop goroutine (with a
// synchronous fallback once the loop has terminated, so handlers never
// silently vanish).
type ResultPromise struct { // betteralign:ignore
	loop *Loop

	// result is valid once state is Fulfilled, err once Rejected.
	result Result
	err    error

	handlers []resultHandler

	// done is closed on settlement, for Go-side consumption.
	done chan struct{}

	state atomic.Int32
	mu    sync.Mutex
}

// resultHandler is a reaction to promise settlement.
type resultHandler struct {
	onFulfilled func(Result)
	onRejected  func(error)
	onFinally   func()
	target      *ResultPromise
}

// newResultPromise creates a pending promise bound to the loop. The loop
// tracks it weakly so that shutdown can reject anything still pending.
func newResultPromise(loop *Loop) *ResultPromise {
	p := &ResultPromise{
		loop: loop,
		done: make(chan struct{}),
	}
	if loop != nil {
		loop.results.register(p)
	}
	return p
}

// State returns the current [PromiseState].
func (p *ResultPromise) State() PromiseState {
	return PromiseState(p.state.Load())
}

// Value returns the settled [Result]. The zero Result is returned while
// pending or rejected.
//
// The settled fields are immutable once the atomic state flips, so no lock
// is needed; this keeps the accessors callable from inside handlers.
func (p *ResultPromise) Value() Result {
	if p.State() == Fulfilled {
		return p.result
	}
	return Result{}
}

// Err returns the rejection error, or nil while pending or fulfilled.
func (p *ResultPromise) Err() error {
	if p.State() == Rejected {
		return p.err
	}
	return nil
}

// Done returns a channel that is closed when the promise settles.
func (p *ResultPromise) Done() <-chan struct{} {
	return p.done
}

// Await blocks until the promise settles or ctx expires.
//
// Await must not be called from the loop goroutine: the loop cannot make
// progress while blocked, so the promise could never settle. Use
// [ResultPromise.Then] from loop callbacks instead.
func (p *ResultPromise) Await(ctx context.Context) (Result, error) {
	if p.loop != nil && p.loop.isLoopThread() {
		return Result{}, ErrReentrantRun
	}
	select {
	case <-p.done:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	if err := p.Err(); err != nil {
		return Result{}, err
	}
	return p.Value(), nil
}

// Then registers onSettled to run when the promise fulfills. Returns a new
// promise that adopts this promise's settlement after the handler runs;
// a panicking handler rejects the returned promise with [PanicError].
//
// Rejections pass through untouched; observe them with
// [ResultPromise.Catch].
func (p *ResultPromise) Then(onSettled func(Result)) *ResultPromise {
	child := newResultPromise(p.loop)
	p.addHandler(resultHandler{onFulfilled: onSettled, target: child})
	return child
}

// Catch registers onError to run when the promise rejects. Returns a new
// promise that adopts this promise's settlement after the handler runs; the
// rejection still propagates (Catch observes, it does not recover).
func (p *ResultPromise) Catch(onError func(error)) *ResultPromise {
	child := newResultPromise(p.loop)
	p.addHandler(resultHandler{onRejected: onError, target: child})
	return child
}

// Finally registers fn to run when the promise settles, regardless of
// outcome. Returns a new promise that adopts this promise's settlement after
// fn runs; a panicking fn rejects the returned promise with [PanicError].
func (p *ResultPromise) Finally(fn func()) *ResultPromise {
	child := newResultPromise(p.loop)
	p.addHandler(resultHandler{onFinally: fn, target: child})
	return child
}

// addHandler registers a handler, scheduling it immediately if the promise
// has already settled.
func (p *ResultPromise) addHandler(h resultHandler) {
	// Optimistic check: if already settled, schedule immediately without lock.
	state := PromiseState(p.state.Load())
	if state != Pending {
		p.scheduleHandler(h, state, p.result, p.err)
		return
	}

	p.mu.Lock()
	// Re-check state under lock to avoid race
	state = PromiseState(p.state.Load())
	if state != Pending {
		p.mu.Unlock()
		p.scheduleHandler(h, state, p.result, p.err)
		return
	}

	p.handlers = append(p.handlers, h)
	p.mu.Unlock()
}

// scheduleHandler enqueues a handler for execution via microtask. If the
// loop is unavailable (nil, or already terminated), executes synchronously
// so settlement observers are never dropped.
func (p *ResultPromise) scheduleHandler(h resultHandler, state PromiseState, result Result, err error) {
	run := func() { p.executeHandler(h, state, result, err) }
	if p.loop == nil || p.loop.ScheduleMicrotask(run) != nil {
		run()
	}
}

// executeHandler runs a single handler against the settled state, then
// propagates the settlement to the handler's target promise. A panicking
// handler rejects the target with [PanicError] instead.
func (p *ResultPromise) executeHandler(h resultHandler, state PromiseState, result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if h.target != nil {
				h.target.reject(PanicError{Value: r})
			}
		}
	}()

	if h.onFinally != nil {
		h.onFinally()
	}
	switch state {
	case Fulfilled:
		if h.onFulfilled != nil {
			h.onFulfilled(result)
		}
	case Rejected:
		if h.onRejected != nil {
			h.onRejected(err)
		}
	}

	if h.target != nil {
		if state == Fulfilled {
			h.target.resolve(result)
		} else {
			h.target.reject(err)
		}
	}
}

// resolve fulfills the promise. No-op if already settled.
func (p *ResultPromise) resolve(result Result) {
	p.mu.Lock()
	if PromiseState(p.state.Load()) != Pending {
		p.mu.Unlock()
		return
	}

	// Settled fields are written before the state store so that the lock-free
	// accessors observe them once the state flips.
	p.result = result
	p.state.Store(int32(Fulfilled))

	handlers := p.handlers
	p.handlers = nil

	// Schedule handlers while holding the lock so ordering stays consistent
	// with concurrent addHandler calls. executeHandler receives the settled
	// state as arguments and never re-acquires the lock, so the synchronous
	// fallback path cannot deadlock here.
	for _, h := range handlers {
		p.scheduleHandler(h, Fulfilled, result, nil)
	}
	close(p.done)
	p.mu.Unlock()
}

// reject fails the promise. No-op if already settled.
func (p *ResultPromise) reject(err error) {
	p.mu.Lock()
	if PromiseState(p.state.Load()) != Pending {
		p.mu.Unlock()
		return
	}

	p.err = err
	p.state.Store(int32(Rejected))

	handlers := p.handlers
	p.handlers = nil

	for _, h := range handlers {
		p.scheduleHandler(h, Rejected, Result{}, err)
	}
	close(p.done)
	p.mu.Unlock()
}

// promiseTable tracks pending result promises using weak pointers so that
// abandoned promises can be garbage collected, while shutdown can still
// reject everything that remains reachable and pending.
type promiseTable struct {
	// data stores weak pointers to promises.
	data map[uint64]weak.Pointer[ResultPromise]

	// ring is a circular buffer of IDs used for scavenging; it allows
	// deterministic checking of all promises over time.
	ring []uint64

	// head is the current cursor position in the ring for the scavenger.
	head int

	// nextID is the counter for generating unique promise IDs.
	nextID uint64
	mu     sync.Mutex
}

// newPromiseTable creates a new initialized table.
func newPromiseTable() *promiseTable {
	return &promiseTable{
		data:   make(map[uint64]weak.Pointer[ResultPromise]),
		ring:   make([]uint64, 0, 64),
		nextID: 1, // Start at 1 so 0 is null marker
	}
}

// register adds a promise to the table.
func (t *promiseTable) register(p *ResultPromise) {
	wp := weak.Make(p)

	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++

	t.data[id] = wp
	t.ring = append(t.ring, id)
}

// Scavenge performs a partial cleanup of dead entries: promises that have
// been collected or have settled. Compacts the ring when a full cycle
// completes with a low load factor.
func (t *promiseTable) Scavenge(batchSize int) {
	if batchSize <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ringLen := len(t.ring)
	if ringLen == 0 {
		return
	}

	end := min(t.head+batchSize, ringLen)
	for i := t.head; i < end; i++ {
		id := t.ring[i]
		if id == 0 {
			continue
		}
		wp, ok := t.data[id]
		if !ok {
			t.ring[i] = 0
			continue
		}
		p := wp.Value()
		if p == nil || p.State() != Pending {
			delete(t.data, id)
			t.ring[i] = 0
		}
	}

	t.head = end
	if t.head >= ringLen {
		t.head = 0

		// Trigger compaction when load factor < 25%
		if ringLen > 256 && len(t.data)*4 < ringLen {
			t.compact()
		}
	}
}

// compact removes null markers from the ring. Must be called with mu held.
func (t *promiseTable) compact() {
	newRing := make([]uint64, 0, len(t.data))
	for _, id := range t.ring {
		if id != 0 {
			if _, ok := t.data[id]; ok {
				newRing = append(newRing, id)
			}
		}
	}
	t.ring = newRing
	t.head = 0
}

// RejectAll rejects all pending promises with the given error.
// Called during shutdown to ensure no results hang indefinitely.
func (t *promiseTable) RejectAll(err error) {
	t.mu.Lock()
	var pending []*ResultPromise
	for id, wp := range t.data {
		if p := wp.Value(); p != nil && p.State() == Pending {
			pending = append(pending, p)
		}
		delete(t.data, id)
	}
	t.ring = t.ring[:0]
	t.head = 0
	t.mu.Unlock()

	// Reject outside the table lock; rejection takes the promise lock and
	// may execute handlers synchronously on a terminated loop.
	for _, p := range pending {
		p.reject(err)
	}
}
