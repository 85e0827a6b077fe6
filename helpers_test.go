package iomodal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// newTestLoop starts a loop on a background goroutine and shuts it down at
// test cleanup.
func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := l.Run(context.Background()); err != nil {
			t.Errorf("Run() unexpected error: %v", err)
		}
	}()
	// A test body that never blocks on loop-side work can reach cleanup
	// before the goroutine above has run at all; Shutdown would then find
	// the loop still Awake and terminate it directly, and the late Run
	// would report ErrLoopTerminated. Wait for Run to take ownership so
	// cleanup always shuts down a started loop.
	startDeadline := time.Now().Add(5 * time.Second)
	for l.State() == StateAwake {
		if time.Now().After(startDeadline) {
			t.Fatal("loop never started")
		}
		time.Sleep(time.Millisecond)
	}
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.Shutdown(shutdownCtx)
		select {
		case <-runDone:
		case <-time.After(5 * time.Second):
			t.Error("loop did not stop")
		}
	})
	return l
}

// runOnLoop executes fn on the loop goroutine and waits for it to finish.
func runOnLoop(t *testing.T, l *Loop, fn func()) {
	t.Helper()
	done := make(chan struct{})
	if err := l.Submit(func() { defer close(done); fn() }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for loop task")
	}
}

// awaitSettled blocks until p settles, failing the test on timeout.
func awaitSettled(t *testing.T, p *ResultPromise) (Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := p.Await(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("promise never settled")
	}
	return res, err
}

// requirePending asserts p has not settled.
func requirePending(t *testing.T, p *ResultPromise) {
	t.Helper()
	if s := p.State(); s != Pending {
		t.Fatalf("expected pending promise, got %v", s)
	}
}

// fakeClock is a manually advanced clock for deterministic elapsed-time
// accounting.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeElement struct {
	mu         sync.Mutex
	name       string
	visible    bool
	focusable  bool
	autoFocus  bool
	enabled    bool
	focused    bool
	focusCount int
	blurCount  int
	value      any
}

func newFakeElement(name string) *fakeElement {
	return &fakeElement{name: name, visible: true, focusable: true, enabled: true}
}

func (e *fakeElement) Focus() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focused = true
	e.focusCount++
}

func (e *fakeElement) Blur() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focused = false
	e.blurCount++
}

func (e *fakeElement) IsVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

func (e *fakeElement) IsFocusable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focusable
}

func (e *fakeElement) HasAutoFocus() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoFocus
}

func (e *fakeElement) Value() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *fakeElement) SetValue(v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = v
}

func (e *fakeElement) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

func (e *fakeElement) isFocused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

func (e *fakeElement) focuses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focusCount
}

func (e *fakeElement) blurs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blurCount
}

func (e *fakeElement) isEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

type fakeBar struct {
	mu       sync.Mutex
	animates []time.Duration
	stops    int
}

func (b *fakeBar) Animate(remaining time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.animates = append(b.animates, remaining)
}

func (b *fakeBar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stops++
}

func (b *fakeBar) animateCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.animates)
}

func (b *fakeBar) stopCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stops
}

type fakeRendered struct {
	popup    *fakeElement
	confirm  *fakeElement
	deny     *fakeElement
	cancel   *fakeElement
	closeBtn *fakeElement
	input    *fakeElement
	extra    []Element
	bar      *fakeBar
}

func elementOrNil(e *fakeElement) Element {
	if e == nil {
		return nil
	}
	return e
}

func (f *fakeRendered) Popup() Element   { return elementOrNil(f.popup) }
func (f *fakeRendered) Confirm() Element { return elementOrNil(f.confirm) }
func (f *fakeRendered) Deny() Element    { return elementOrNil(f.deny) }
func (f *fakeRendered) Cancel() Element  { return elementOrNil(f.cancel) }
func (f *fakeRendered) Close() Element   { return elementOrNil(f.closeBtn) }
func (f *fakeRendered) Input() Element   { return elementOrNil(f.input) }

func (f *fakeRendered) FocusCandidates() []Element {
	var out []Element
	for _, e := range []*fakeElement{f.input, f.confirm, f.deny, f.cancel, f.closeBtn} {
		if e != nil {
			out = append(out, e)
		}
	}
	return append(out, f.extra...)
}

func (f *fakeRendered) TimerProgressBar() ProgressBar {
	if f.bar == nil {
		return nil
	}
	return f.bar
}

type fakeRenderer struct {
	mu         sync.Mutex
	active     *fakeElement
	renderErr  error
	updateErr  error
	rendered   []*fakeRendered
	destroys   []DestroyOptions
	updates    []*Config
	validation []string
	resets     int
	loading    []bool
}

func newFakeRenderer() *fakeRenderer { return &fakeRenderer{} }

func (r *fakeRenderer) Render(cfg *Config) (Rendered, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.renderErr != nil {
		return nil, r.renderErr
	}
	fr := &fakeRendered{popup: newFakeElement("popup")}
	fr.popup.focusable = false
	if cfg.ShowConfirmButton() {
		fr.confirm = newFakeElement("confirm")
	}
	if cfg.ShowDenyButton() {
		fr.deny = newFakeElement("deny")
	}
	if cfg.ShowCancelButton() {
		fr.cancel = newFakeElement("cancel")
	}
	if cfg.ShowCloseButton() {
		fr.closeBtn = newFakeElement("close")
	}
	if cfg.Input() != "" {
		fr.input = newFakeElement("input")
		fr.input.value = cfg.InputValue()
	}
	if cfg.TimerProgressBar() {
		fr.bar = &fakeBar{}
	}
	r.rendered = append(r.rendered, fr)
	return fr, nil
}

func (r *fakeRenderer) Update(rendered Rendered, cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates = append(r.updates, cfg)
	return nil
}

func (r *fakeRenderer) Destroy(rendered Rendered, opts DestroyOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroys = append(r.destroys, opts)
}

func (r *fakeRenderer) ShowValidation(rendered Rendered, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validation = append(r.validation, message)
}

func (r *fakeRenderer) ResetValidation(rendered Rendered) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func (r *fakeRenderer) SetLoading(rendered Rendered, loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = append(r.loading, loading)
}

func (r *fakeRenderer) ActiveElement() Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	return elementOrNil(r.active)
}

func (r *fakeRenderer) setActive(e *fakeElement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = e
}

func (r *fakeRenderer) renderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rendered)
}

func (r *fakeRenderer) lastRendered() *fakeRendered {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rendered) == 0 {
		return nil
	}
	return r.rendered[len(r.rendered)-1]
}

func (r *fakeRenderer) destroyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.destroys)
}

func (r *fakeRenderer) lastDestroy() DestroyOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.destroys) == 0 {
		return DestroyOptions{}
	}
	return r.destroys[len(r.destroys)-1]
}

func (r *fakeRenderer) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *fakeRenderer) lastUpdate() *Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return nil
	}
	return r.updates[len(r.updates)-1]
}

func (r *fakeRenderer) lastValidation() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.validation) == 0 {
		return ""
	}
	return r.validation[len(r.validation)-1]
}

func (r *fakeRenderer) loadingStates() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.loading...)
}

// newTestRig builds a running loop, fake renderer, and registry.
func newTestRig(t *testing.T) (*Loop, *fakeRenderer, *Registry) {
	t.Helper()
	l := newTestLoop(t)
	renderer := newFakeRenderer()
	reg, err := NewRegistry(l, renderer)
	if err != nil {
		t.Fatal(err)
	}
	return l, renderer, reg
}
