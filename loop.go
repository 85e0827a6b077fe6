package iomodal

import (
	"container/heap"
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// TimerID identifies a timer scheduled via [Loop.ScheduleTimer].
// IDs are unique for the lifetime of a Loop and are never reused.
type TimerID uint64

// Loop is the single-goroutine scheduler that dialog lifecycles run on.
//
// All dialog state transitions, timer callbacks, and result promise
// continuations execute on the goroutine that called [Loop.Run]. External
// goroutines communicate with the loop through [Loop.Submit],
// [Loop.ScheduleTimer], and [Loop.ScheduleMicrotask].
//
// Unlike a general-purpose event loop there is no file descriptor polling:
// nothing in the dialog domain registers I/O sources, so idle waiting is a
// timer-capped channel wait.
type Loop struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	// Weak tracking of pending result promises, rejected on shutdown.
	results *promiseTable

	// State machine (cache-line padded internally)
	state *FastState

	// Task queues. internal has priority over external.
	queueMu  sync.Mutex
	external []func()
	internal []func()
	extBuf   []func()
	intBuf   []func()

	// Microtask FIFO, drained after each queue phase.
	microMu    sync.Mutex
	microtasks []func()
	microBuf   []func()

	// Timers: min-heap ordered by deadline, with a liveness map so that
	// CancelTimer can tombstone entries without restructuring the heap.
	timerMu  sync.Mutex
	timers   timerHeap
	timerFns map[TimerID]func()
	timerSeq atomic.Uint64

	// Wake-up channel (capacity 1; non-blocking sends coalesce).
	wakeCh chan struct{}

	// asyncWg tracks in-flight pre-action goroutines so shutdown can wait
	// briefly for their settlement submissions.
	asyncWg sync.WaitGroup
	// asyncMu serializes the state check against shutdown for goroutine spawn.
	asyncMu sync.Mutex

	// Synchronization
	stopOnce sync.Once
	loopDone chan struct{}

	// In-flight submit counter for shutdown synchronization
	inflight atomic.Int64

	// Goroutine tracking
	loopGoroutineID atomic.Uint64

	clock       func() time.Time
	maxIdleWait time.Duration
	logger      *logiface.Logger[logiface.Event]

	// Loop ID
	id uint64
}

// timerEntry is a scheduled deadline in the heap. The callback lives in
// Loop.timerFns so cancellation is an O(1) map delete; stale heap entries are
// skipped when popped.
type timerEntry struct {
	when time.Time
	id   TimerID
}

// timerHeap is a min-heap of timer entries.
type timerHeap []timerEntry

// Implement heap.Interface for timerHeap
func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].id < h[j].id
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(timerEntry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

var loopIDCounter atomic.Uint64

// New creates a new event loop.
func New(opts ...LoopOption) (*Loop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	loop := &Loop{
		id:       loopIDCounter.Add(1),
		state:    NewFastState(),
		results:  newPromiseTable(),
		timerFns: make(map[TimerID]func()),
		wakeCh:   make(chan struct{}, 1),

		clock:       cfg.clock,
		maxIdleWait: cfg.maxIdleWait,
		logger:      cfg.logger,

		// Initialize loopDone here to avoid data race with shutdownImpl
		loopDone: make(chan struct{}),
	}

	return loop, nil
}

// Run runs the event loop and blocks until fully stopped.
//
// Run blocks until the loop terminates (via Shutdown(), Close(), or ctx
// cancellation). To run in a separate goroutine, use: `go loop.Run(ctx)`.
func (l *Loop) Run(ctx context.Context) error {
	if l.isLoopThread() {
		return ErrReentrantRun
	}

	if !l.state.TryTransition(StateAwake, StateRunning) {
		currentState := l.state.Load()
		if currentState == StateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}

	// Close loopDone when run exits to signal completion to Shutdown waiters
	defer close(l.loopDone)

	return l.run(ctx)
}

// Shutdown gracefully shuts down the event loop.
//
// Shutdown initiates graceful shutdown that waits for all queued tasks to
// complete, then rejects any still-pending dialog results with
// [ErrLoopTerminated]. It blocks until termination completes or ctx expires.
func (l *Loop) Shutdown(ctx context.Context) error {
	var result error
	l.stopOnce.Do(func() {
		result = l.shutdownImpl(ctx)
	})
	if result == nil && l.state.Load() != StateTerminated {
		return ErrLoopTerminated
	}
	return result
}

// shutdownImpl contains the actual Shutdown implementation.
func (l *Loop) shutdownImpl(ctx context.Context) error {
	for {
		currentState := l.state.Load()
		if currentState == StateTerminated || currentState == StateTerminating {
			return ErrLoopTerminated
		}

		if l.state.TryTransition(currentState, StateTerminating) {
			if currentState == StateAwake {
				// Never ran: terminate directly, rejecting anything queued.
				l.state.Store(StateTerminated)
				l.results.RejectAll(ErrLoopTerminated)
				return nil
			}

			if currentState == StateSleeping {
				l.wake()
			}
			break
		}
	}

	// Wait for termination via channel, NOT polling
	select {
	case <-l.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close immediately terminates the event loop without waiting for graceful shutdown.
func (l *Loop) Close() error {
	for {
		currentState := l.state.Load()
		if currentState == StateTerminated {
			return ErrLoopTerminated
		}

		if l.state.TryTransition(currentState, StateTerminating) {
			if currentState == StateAwake {
				l.state.Store(StateTerminated)
				l.results.RejectAll(ErrLoopTerminated)
				return nil
			}
			if currentState == StateSleeping {
				l.wake()
			}
			return nil
		}
	}
}

// run is the main loop goroutine.
func (l *Loop) run(ctx context.Context) error {
	l.loopGoroutineID.Store(getGoroutineID())
	defer l.loopGoroutineID.Store(0)

	// Start context watcher goroutine to wake loop on cancellation
	ctxDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			l.wake()
		case <-ctxDone:
		}
	}()
	defer close(ctxDone)

	for {
		// Check context for external cancellation
		select {
		case <-ctx.Done():
			// Context cancelled, initiate shutdown via CAS
			for {
				current := l.state.Load()
				if current == StateTerminating || current == StateTerminated {
					break
				}
				if l.state.TryTransition(current, StateTerminating) {
					break
				}
			}
			l.shutdown()
			return ctx.Err()
		default:
		}

		// Check termination
		if state := l.state.Load(); state == StateTerminating || state == StateTerminated {
			l.shutdown()
			return nil
		}

		l.tick()
	}
}

// shutdown performs the shutdown sequence.
func (l *Loop) shutdown() {
	// Wait briefly for in-flight pre-action goroutines FIRST, so their
	// settlement submissions land in the queues before we drain them.
	asyncDone := make(chan struct{})
	go func() {
		l.asyncWg.Wait()
		close(asyncDone)
	}()
	select {
	case <-asyncDone:
	case <-time.After(100 * time.Millisecond):
	}

	// Set state to Terminated FIRST to prevent new tasks from being accepted.
	// Any Submit that checked state before this will push a task, and we'll
	// catch it in the drain below. Any Submit that checks state after will be
	// rejected.
	l.state.Store(StateTerminated)

	// Drain until the queues stay empty across consecutive checks AND no
	// Submit is between its state check and its push (inflight > 0).
	emptyChecks := 0
	const requiredEmptyChecks = 3
	for emptyChecks < requiredEmptyChecks {
		spinCount := 0
		for l.inflight.Load() > 0 {
			spinCount++
			if spinCount > 1000 {
				time.Sleep(100 * time.Microsecond)
			} else {
				runtime.Gosched()
			}
		}

		drained := false

		if l.processInternalQueue() {
			drained = true
		}
		if l.processExternalQueue() {
			drained = true
		}
		if l.drainMicrotasks() {
			drained = true
		}

		if drained || l.inflight.Load() > 0 {
			emptyChecks = 0
		} else {
			emptyChecks++
			runtime.Gosched() // Yield to let any racing submits complete
		}
	}

	// Reject all remaining pending results
	l.results.RejectAll(ErrLoopTerminated)

	l.logger.Debug().
		Uint64("loop", l.id).
		Log("loop terminated")
}

// tick is a single iteration of the event loop.
func (l *Loop) tick() {
	// Execute expired timers
	l.runTimers()

	// Process internal tasks (priority)
	l.processInternalQueue()

	// Process external tasks
	l.processExternalQueue()

	// Process microtasks
	l.drainMicrotasks()

	// Sleep until the next timer or wake-up
	l.poll()

	// Final microtask pass
	l.drainMicrotasks()

	// Scavenge result promise table
	l.results.Scavenge(20)
}

// processInternalQueue drains the internal priority queue.
// Returns true if any task ran.
func (l *Loop) processInternalQueue() bool {
	l.queueMu.Lock()
	if len(l.internal) == 0 {
		l.queueMu.Unlock()
		return false
	}
	tasks := l.internal
	l.internal = l.intBuf[:0]
	l.intBuf = tasks[:0]
	l.queueMu.Unlock()

	for i, fn := range tasks {
		l.safeExecute(fn)
		tasks[i] = nil
	}

	l.drainMicrotasks()
	return true
}

// processExternalQueue drains the external queue snapshot taken at entry;
// tasks submitted while draining run on the next tick.
// Returns true if any task ran.
func (l *Loop) processExternalQueue() bool {
	l.queueMu.Lock()
	if len(l.external) == 0 {
		l.queueMu.Unlock()
		return false
	}
	tasks := l.external
	l.external = l.extBuf[:0]
	l.extBuf = tasks[:0]
	l.queueMu.Unlock()

	for i, fn := range tasks {
		l.safeExecute(fn)
		tasks[i] = nil
	}

	l.drainMicrotasks()
	return true
}

// drainMicrotasks drains the microtask queue, including microtasks queued by
// microtasks, up to a budget. Returns true if any microtask ran.
func (l *Loop) drainMicrotasks() bool {
	const budget = 4096

	ran := false
	for n := 0; n < budget; {
		l.microMu.Lock()
		if len(l.microtasks) == 0 {
			l.microMu.Unlock()
			break
		}
		tasks := l.microtasks
		l.microtasks = l.microBuf[:0]
		l.microBuf = tasks[:0]
		l.microMu.Unlock()

		for i, fn := range tasks {
			l.safeExecute(fn)
			tasks[i] = nil
			n++
		}
		ran = true
	}
	return ran
}

// poll blocks until the next timer deadline or an external wake-up.
func (l *Loop) poll() {
	currentState := l.state.Load()
	if currentState != StateRunning {
		return
	}

	timeout := l.nextWakeDelay()
	if timeout <= 0 {
		// A timer is already due; run the next tick immediately.
		return
	}

	// PERFORMANCE: Optimistic state transition
	if !l.state.TryTransition(StateRunning, StateSleeping) {
		return
	}

	// Quick length check (may have false negatives)
	if l.pendingWork() {
		l.state.TryTransition(StateSleeping, StateRunning)
		return
	}

	// Check for termination before blocking
	if l.state.Load() == StateTerminating {
		return
	}

	t := time.NewTimer(timeout)
	select {
	case <-l.wakeCh:
	case <-t.C:
	}
	t.Stop()

	l.state.TryTransition(StateSleeping, StateRunning)
}

// pendingWork reports whether any queue holds runnable work.
func (l *Loop) pendingWork() bool {
	l.queueMu.Lock()
	queued := len(l.external) > 0 || len(l.internal) > 0
	l.queueMu.Unlock()
	if queued {
		return true
	}
	l.microMu.Lock()
	micro := len(l.microtasks) > 0
	l.microMu.Unlock()
	return micro
}

// nextWakeDelay determines how long to sleep, capped by the next timer
// deadline. Tombstoned (cancelled) heap heads are discarded here so they
// never shorten the wait.
func (l *Loop) nextWakeDelay() time.Duration {
	maxDelay := l.maxIdleWait

	l.timerMu.Lock()
	for len(l.timers) > 0 {
		if _, live := l.timerFns[l.timers[0].id]; live {
			break
		}
		heap.Pop(&l.timers)
	}
	if len(l.timers) > 0 {
		delay := l.timers[0].when.Sub(l.clock())
		if delay < maxDelay {
			maxDelay = delay
		}
	}
	l.timerMu.Unlock()

	return maxDelay
}

// wake wakes the loop from poll. Coalesces with any pending wake-up.
func (l *Loop) wake() {
	select {
	case l.wakeCh <- struct{}{}:
	default:
	}
}

// Submit submits a task to the external queue.
//
// State Policy during shutdown:
//   - StateTerminated: returns ErrLoopTerminated
//   - StateTerminating: ALLOWS submission (loop needs to drain in-flight work)
//   - StateSleeping/StateRunning/StateAwake: normal operation
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return nil
	}

	// Increment inflight counter FIRST, before checking state
	l.inflight.Add(1)
	defer l.inflight.Add(-1)

	if l.state.Load() == StateTerminated {
		return ErrLoopTerminated
	}

	l.queueMu.Lock()
	l.external = append(l.external, fn)
	l.queueMu.Unlock()

	if l.state.Load() == StateSleeping {
		l.wake()
	}

	return nil
}

// SubmitInternal submits a task to the internal priority queue. Internal
// tasks run before external tasks within a tick; settlement of pre-action
// results rides on this queue so it cannot be starved by external load.
//
// State policy matches [Loop.Submit].
func (l *Loop) SubmitInternal(fn func()) error {
	if fn == nil {
		return nil
	}

	l.inflight.Add(1)
	defer l.inflight.Add(-1)

	if l.state.Load() == StateTerminated {
		return ErrLoopTerminated
	}

	l.queueMu.Lock()
	l.internal = append(l.internal, fn)
	l.queueMu.Unlock()

	if l.state.Load() == StateSleeping {
		l.wake()
	}

	return nil
}

// ScheduleMicrotask schedules a microtask. Microtasks run after the current
// task completes and before the next task is taken; result promise
// continuations ride on this queue.
func (l *Loop) ScheduleMicrotask(fn func()) error {
	if fn == nil {
		return nil
	}

	if l.state.Load() == StateTerminated {
		return ErrLoopTerminated
	}

	l.microMu.Lock()
	l.microtasks = append(l.microtasks, fn)
	l.microMu.Unlock()

	if l.state.Load() == StateSleeping {
		l.wake()
	}

	return nil
}

// ScheduleTimer schedules fn to execute on the loop goroutine after delay.
// Negative delays are treated as zero. Returns the TimerID for cancellation
// via [Loop.CancelTimer].
func (l *Loop) ScheduleTimer(delay time.Duration, fn func()) (TimerID, error) {
	if fn == nil {
		return 0, nil
	}

	l.inflight.Add(1)
	defer l.inflight.Add(-1)

	if l.state.Load() == StateTerminated {
		return 0, ErrLoopTerminated
	}

	if delay < 0 {
		delay = 0
	}

	id := TimerID(l.timerSeq.Add(1))

	l.timerMu.Lock()
	heap.Push(&l.timers, timerEntry{when: l.clock().Add(delay), id: id})
	l.timerFns[id] = fn
	l.timerMu.Unlock()

	// The new deadline may be sooner than the current sleep.
	if l.state.Load() == StateSleeping {
		l.wake()
	}

	return id, nil
}

// CancelTimer cancels a scheduled timer by its ID.
//
// Returns [ErrTimerNotFound] if the timer ID is invalid or has already fired.
// This is safe to call multiple times for the same ID.
func (l *Loop) CancelTimer(id TimerID) error {
	l.timerMu.Lock()
	_, ok := l.timerFns[id]
	if ok {
		delete(l.timerFns, id)
	}
	l.timerMu.Unlock()

	if !ok {
		return ErrTimerNotFound
	}
	return nil
}

// runTimers executes all expired timers, earliest deadline first.
func (l *Loop) runTimers() {
	now := l.clock()
	for {
		l.timerMu.Lock()
		if len(l.timers) == 0 || l.timers[0].when.After(now) {
			l.timerMu.Unlock()
			return
		}
		e := heap.Pop(&l.timers).(timerEntry)
		fn, live := l.timerFns[e.id]
		if live {
			delete(l.timerFns, e.id)
		}
		l.timerMu.Unlock()

		if live {
			l.safeExecute(fn)
		}
	}
}

// State returns the current loop state.
func (l *Loop) State() LoopState {
	return l.state.Load()
}

// Now returns the loop's notion of the current time. The time source is
// time.Now unless overridden via [WithClock].
func (l *Loop) Now() time.Time {
	return l.clock()
}

// safeExecute executes a function with panic recovery.
func (l *Loop) safeExecute(fn func()) {
	if fn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Err().
				Uint64("loop", l.id).
				Any("panic", r).
				Log("task panicked")
		}
	}()

	fn()
}

// trackAsync registers an asynchronous pre-action goroutine for shutdown
// accounting. The returned done must be called when the goroutine finishes.
// Returns ErrLoopTerminated if the loop is already shutting down.
func (l *Loop) trackAsync() (done func(), err error) {
	l.asyncMu.Lock()
	defer l.asyncMu.Unlock()

	state := l.state.Load()
	if state == StateTerminating || state == StateTerminated {
		return nil, ErrLoopTerminated
	}

	l.asyncWg.Add(1)
	return func() { l.asyncWg.Done() }, nil
}

// isLoopThread checks if we're on the loop goroutine.
func (l *Loop) isLoopThread() bool {
	loopID := l.loopGoroutineID.Load()
	if loopID == 0 {
		return false
	}
	return getGoroutineID() == loopID
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
