package iomodal

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// Dialog is one dialog occurrence: it owns a frozen effective configuration,
// a single-settlement [ResultPromise], and orchestrates open, update, and
// close against the [Registry], [Timer], and focus chain.
//
// A Dialog is created by [NewDialog] or one of the [Registry] Fire methods,
// opened once, and destroyed when explicitly closed or superseded by a newer
// dialog. Its result promise settles exactly once across all paths.
//
// Methods are safe for concurrent use, but the lifecycle is cooperative:
// drive interactions through the owning loop (e.g. inside [Loop.Submit]
// tasks) for deterministic ordering between clicks, timer expiry, and
// close paths.
type Dialog struct {
	registry *Registry
	loop     *Loop
	renderer Renderer
	logger   *logiface.Logger[logiface.Event]
	events   *eventTarget
	promise  *ResultPromise

	mu        sync.Mutex
	cfg       *Config
	rendered  Rendered
	timer     *Timer
	prevFocus Element
	opened    bool
	visible   bool
	destroyed bool
	loading   bool

	// awaiting is set while a pre-action is in flight; it suppresses the
	// forced {IsDismissed: true} settlement on eviction.
	awaiting atomic.Bool
}

// NewDialog creates an unopened dialog bound to the registry. The result
// promise exists from construction so continuations can be attached before
// [Dialog.Open].
func NewDialog(registry *Registry) *Dialog {
	if registry == nil {
		return nil
	}
	return &Dialog{
		registry: registry,
		loop:     registry.loop,
		renderer: registry.renderer,
		logger:   registry.logger,
		events:   newEventTarget(),
		promise:  newResultPromise(registry.loop),
	}
}

// Promise returns the dialog's result promise. It is pending until the
// dialog settles via a click path, timer expiry, [Dialog.Close], or
// [Dialog.RejectPromise].
func (d *Dialog) Promise() *ResultPromise { return d.promise }

// On registers a lifecycle listener and returns its removal handle.
// Listeners run after the corresponding configuration hook, in registration
// order.
func (d *Dialog) On(event EventType, fn HookFunc) ListenerID {
	return d.events.add(event, fn)
}

// Off removes a listener registered with [Dialog.On].
func (d *Dialog) Off(event EventType, id ListenerID) bool {
	return d.events.remove(event, id)
}

// Open merges the configuration layers, evicts any prior current dialog,
// installs this one as current, renders it, arms the auto-dismiss timer, and
// acquires focus. It returns the pending result promise immediately.
//
// Eviction settles the prior dialog's promise with {IsDismissed: true}
// unless that dialog was awaiting a pre-action, in which case the in-flight
// action remains responsible for settlement.
//
// A second Open on the same dialog is ignored and returns the existing
// promise.
func (d *Dialog) Open(caller, mixin *Options) *ResultPromise {
	var mixins []*Options
	if mixin != nil {
		mixins = append(mixins, mixin)
	}
	return d.open(caller, mixins, nil)
}

func (d *Dialog) open(caller *Options, mixins []*Options, declarative *Options) *ResultPromise {
	d.mu.Lock()
	if d.opened {
		d.mu.Unlock()
		d.logger.Warning().Str("category", "dialog").Log("open called twice on one dialog")
		return d.promise
	}
	d.opened = true
	d.mu.Unlock()

	cfg, warnings := prepareLayers(caller, mixins, declarative)
	d.logWarnings(warnings)
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	// Evict any prior current dialog synchronously; it must be fully
	// destroyed before this one becomes current.
	if prior := d.registry.Current(); prior != nil && prior != d {
		prior.destroyForEviction()
	}
	d.registry.CancelRestoreFocus()

	prev := d.renderer.ActiveElement()
	d.mu.Lock()
	d.prevFocus = prev
	d.mu.Unlock()

	d.registry.setCurrent(d)

	rendered, err := d.renderer.Render(cfg)
	if err != nil {
		d.registry.clearCurrent(d)
		d.mu.Lock()
		d.destroyed = true
		d.mu.Unlock()
		d.logger.Err().Str("category", "dialog").Err(err).Log("render failed")
		d.promise.reject(err)
		return d.promise
	}
	d.mu.Lock()
	d.rendered = rendered
	d.mu.Unlock()
	d.dispatch(EventDidRender)

	d.dispatch(EventWillOpen)
	d.mu.Lock()
	d.visible = true
	d.mu.Unlock()

	if cfg.Timer() > 0 {
		t := NewTimer(d.loop, cfg.Timer(), func() { d.dismiss(DismissTimer) })
		d.mu.Lock()
		d.timer = t
		d.mu.Unlock()
		d.registry.ArmTimer(t)
		t.Start()
		if cfg.TimerProgressBar() {
			if bar := rendered.TimerProgressBar(); bar != nil {
				bar.Animate(cfg.Timer())
			}
		}
	}

	acquireFocus(d.renderer, rendered, cfg)
	d.dispatch(EventDidOpen)
	d.logger.Debug().Str("category", "dialog").Str("title", cfg.Title()).Bool("toast", cfg.Toast()).Log("dialog opened")
	return d.promise
}

// Close settles the result promise with the given partial result (missing
// booleans normalize to a dismissal), stops the owned timer, tears down
// rendered state, clears the registry slot, and schedules focus
// restoration. Returns false if the dialog was already closed or destroyed;
// the promise is never settled twice.
func (d *Dialog) Close(partial Result) bool {
	return d.closeWith(partial, VariantAuto)
}

// ClosePopup is [Dialog.Close] with popup-only teardown.
func (d *Dialog) ClosePopup(partial Result) bool {
	return d.closeWith(partial, VariantPopup)
}

// CloseModal is [Dialog.Close] with modal teardown.
func (d *Dialog) CloseModal(partial Result) bool {
	return d.closeWith(partial, VariantModal)
}

// CloseToast is [Dialog.Close] with toast teardown.
func (d *Dialog) CloseToast(partial Result) bool {
	return d.closeWith(partial, VariantToast)
}

func (d *Dialog) closeWith(partial Result, variant CloseVariant) bool {
	d.mu.Lock()
	if d.destroyed || !d.opened {
		d.mu.Unlock()
		d.logger.Warning().Str("category", "dialog").Log("close on settled dialog ignored")
		return false
	}
	d.destroyed = true
	d.visible = false
	d.loading = false
	cfg := d.cfg
	rendered := d.rendered
	prev := d.prevFocus
	d.mu.Unlock()

	// Stop the timer before anything else settles; expiry and close are
	// mutually exclusive once either starts.
	d.registry.StopAndClearTimer()

	d.dispatch(EventWillClose)

	if rendered != nil && cfg != nil {
		d.renderer.Destroy(rendered, DestroyOptions{
			Variant:   d.resolveVariant(variant, cfg),
			HideClass: cfg.HideClass(),
		})
	}

	d.registry.clearCurrent(d)

	if cfg != nil && cfg.ReturnFocus() && !cfg.Toast() && prev != nil {
		d.registry.ScheduleRestoreFocus(prev.Focus)
	}

	d.promise.resolve(partial.normalize())

	d.dispatch(EventDidClose)
	d.dispatch(EventDidDestroy)
	d.logger.Debug().Str("category", "dialog").Str("dismiss", partial.Dismiss.String()).Log("dialog closed")
	return true
}

func (d *Dialog) resolveVariant(variant CloseVariant, cfg *Config) CloseVariant {
	if variant != VariantAuto {
		return variant
	}
	if cfg.Toast() {
		return VariantToast
	}
	return VariantModal
}

// destroyForEviction is the supersede path: tear down without the normal
// close ceremony and settle {IsDismissed: true} only when no pre-action is
// pending. Runs to completion before the superseding dialog renders.
func (d *Dialog) destroyForEviction() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	d.visible = false
	d.loading = false
	cfg := d.cfg
	rendered := d.rendered
	d.mu.Unlock()

	d.registry.StopAndClearTimer()

	if rendered != nil && cfg != nil {
		d.renderer.Destroy(rendered, DestroyOptions{
			Variant:   d.resolveVariant(VariantAuto, cfg),
			HideClass: cfg.HideClass(),
		})
	}
	d.registry.clearCurrent(d)
	d.dispatch(EventDidDestroy)

	if !d.awaiting.Load() {
		d.promise.resolve(Dismissed(DismissNone))
	}
	d.logger.Debug().Str("category", "dialog").Bool("awaiting", d.awaiting.Load()).Log("dialog evicted")
}

// dismiss closes with a dismissal result carrying the reason.
func (d *Dialog) dismiss(reason DismissReason) bool {
	return d.closeWith(Dismissed(reason), VariantAuto)
}

// Update merges the updatable subset of partial over the current
// configuration, producing a new frozen Config, and re-renders the affected
// parts. Identity and the pending promise are unchanged. Returns
// [ErrDialogDestroyed] once the dialog is closed or superseded.
func (d *Dialog) Update(partial *Options) error {
	d.mu.Lock()
	if d.destroyed || !d.opened {
		d.mu.Unlock()
		d.logger.Warning().Str("category", "dialog").Log("update on destroyed dialog ignored")
		return ErrDialogDestroyed
	}
	cur := d.cfg
	rendered := d.rendered
	d.mu.Unlock()

	next, warnings := cur.withUpdate(partial)
	d.logWarnings(warnings)

	if err := d.renderer.Update(rendered, next); err != nil {
		return err
	}
	d.mu.Lock()
	d.cfg = next
	d.mu.Unlock()
	return nil
}

// RejectPromise settles the result promise with a failure instead of a
// Result. The dialog stays open (loading state is cleared); close it
// separately if needed, and the later settlement attempt is an idempotent
// no-op.
func (d *Dialog) RejectPromise(err error) {
	if err == nil {
		return
	}
	d.awaiting.Store(false)
	d.HideLoading()
	d.promise.reject(err)
}

// IsVisible reports whether the dialog is rendered and not yet torn down.
func (d *Dialog) IsVisible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible && !d.destroyed
}

// IsAwaitingPromise reports whether a pre-action is in flight. While true,
// eviction by a newer dialog will not force-settle this dialog's promise.
func (d *Dialog) IsAwaitingPromise() bool { return d.awaiting.Load() }

// ClickConfirm runs the confirm path: without a PreConfirm action it closes
// immediately with a confirmed result carrying the input value; with one it
// enters the awaiting state, shows loading, and runs the action off-loop
// (see [PreAction]). Returns false when the dialog is not interactable or
// the confirm button is absent or hidden.
func (d *Dialog) ClickConfirm() bool {
	return d.clickAction(actionConfirm)
}

// ClickDeny runs the deny path, the mirror of [Dialog.ClickConfirm] with
// PreDeny and a denied result.
func (d *Dialog) ClickDeny() bool {
	return d.clickAction(actionDeny)
}

func (d *Dialog) clickAction(kind actionKind) bool {
	d.mu.Lock()
	if d.destroyed || !d.visible || d.loading {
		d.mu.Unlock()
		return false
	}
	cfg := d.cfg
	rendered := d.rendered
	d.mu.Unlock()

	var button Element
	var action PreAction
	switch kind {
	case actionConfirm:
		if !cfg.ShowConfirmButton() {
			return false
		}
		button = rendered.Confirm()
		action = cfg.preConfirm
	case actionDeny:
		if !cfg.ShowDenyButton() {
			return false
		}
		button = rendered.Deny()
		action = cfg.preDeny
	}
	if button == nil || !button.IsVisible() {
		return false
	}

	value := d.inputValue(rendered)
	if action == nil {
		return d.closeWith(kind.result(value), VariantAuto)
	}
	d.runPreAction(kind, action, value)
	return true
}

// ClickCancel dismisses with [DismissCancel]. No-op while loading.
func (d *Dialog) ClickCancel() bool {
	d.mu.Lock()
	ok := !d.destroyed && d.visible && !d.loading
	cfg := d.cfg
	rendered := d.rendered
	d.mu.Unlock()
	if !ok || !cfg.ShowCancelButton() {
		return false
	}
	if btn := rendered.Cancel(); btn == nil || !btn.IsVisible() {
		return false
	}
	return d.dismiss(DismissCancel)
}

// ClickClose dismisses with [DismissClose], the close-button path. Unlike
// the cancel button it stays active while loading.
func (d *Dialog) ClickClose() bool {
	d.mu.Lock()
	ok := !d.destroyed && d.visible
	cfg := d.cfg
	d.mu.Unlock()
	if !ok || !cfg.ShowCloseButton() {
		return false
	}
	return d.dismiss(DismissClose)
}

// HandleKey routes a key press: Enter activates confirm subject to
// AllowEnterKey, Escape dismisses with [DismissEsc] subject to
// AllowEscapeKey. Returns whether the key was consumed; Tab and unknown
// keys are left to the renderer.
func (d *Dialog) HandleKey(k Key) bool {
	d.mu.Lock()
	ok := !d.destroyed && d.visible
	cfg := d.cfg
	d.mu.Unlock()
	if !ok {
		return false
	}
	switch k {
	case KeyEnter:
		if !cfg.AllowEnterKey() {
			return false
		}
		return d.ClickConfirm()
	case KeyEscape:
		if !cfg.AllowEscapeKey() {
			return false
		}
		return d.dismiss(DismissEsc)
	default:
		return false
	}
}

// HandleBackdropClick dismisses with [DismissBackdrop] when
// AllowOutsideClick evaluates true. Ignored while a pre-action is loading.
func (d *Dialog) HandleBackdropClick() bool {
	d.mu.Lock()
	ok := !d.destroyed && d.visible && !d.loading
	cfg := d.cfg
	d.mu.Unlock()
	if !ok || !cfg.AllowOutsideClick() {
		return false
	}
	return d.dismiss(DismissBackdrop)
}

// DisableButtons disables the confirm, deny, and cancel buttons.
func (d *Dialog) DisableButtons() bool { return d.setButtonsEnabled(false) }

// EnableButtons re-enables the confirm, deny, and cancel buttons.
func (d *Dialog) EnableButtons() bool { return d.setButtonsEnabled(true) }

func (d *Dialog) setButtonsEnabled(enabled bool) bool {
	d.mu.Lock()
	ok := !d.destroyed && d.visible
	rendered := d.rendered
	d.mu.Unlock()
	if !ok || rendered == nil {
		return false
	}
	for _, el := range []Element{rendered.Confirm(), rendered.Deny(), rendered.Cancel()} {
		if el != nil {
			el.SetEnabled(enabled)
		}
	}
	return true
}

// DisableInput disables the input element, if any.
func (d *Dialog) DisableInput() bool { return d.setInputEnabled(false) }

// EnableInput re-enables the input element, if any.
func (d *Dialog) EnableInput() bool { return d.setInputEnabled(true) }

func (d *Dialog) setInputEnabled(enabled bool) bool {
	d.mu.Lock()
	ok := !d.destroyed && d.visible
	rendered := d.rendered
	d.mu.Unlock()
	if !ok || rendered == nil {
		return false
	}
	input := rendered.Input()
	if input == nil {
		return false
	}
	input.SetEnabled(enabled)
	return true
}

// ShowValidationMessage surfaces a validation message and focuses the input
// so the user can correct it.
func (d *Dialog) ShowValidationMessage(message string) bool {
	d.mu.Lock()
	ok := !d.destroyed && d.visible
	rendered := d.rendered
	d.mu.Unlock()
	if !ok || rendered == nil {
		return false
	}
	d.renderer.ShowValidation(rendered, message)
	if input := rendered.Input(); input != nil {
		input.Focus()
	}
	return true
}

// ResetValidationMessage clears a previously shown validation message.
func (d *Dialog) ResetValidationMessage() bool {
	d.mu.Lock()
	ok := !d.destroyed && d.visible
	rendered := d.rendered
	d.mu.Unlock()
	if !ok || rendered == nil {
		return false
	}
	d.renderer.ResetValidation(rendered)
	return true
}

// ShowLoading puts the dialog into the loading state: the renderer shows
// its busy presentation and the action buttons are disabled.
func (d *Dialog) ShowLoading() bool {
	d.mu.Lock()
	if d.destroyed || !d.visible {
		d.mu.Unlock()
		return false
	}
	d.loading = true
	rendered := d.rendered
	d.mu.Unlock()
	if rendered != nil {
		d.renderer.SetLoading(rendered, true)
	}
	d.setButtonsEnabled(false)
	return true
}

// HideLoading leaves the loading state and re-enables the action buttons.
func (d *Dialog) HideLoading() bool {
	d.mu.Lock()
	if d.destroyed || !d.visible {
		d.mu.Unlock()
		return false
	}
	d.loading = false
	rendered := d.rendered
	d.mu.Unlock()
	if rendered != nil {
		d.renderer.SetLoading(rendered, false)
	}
	d.setButtonsEnabled(true)
	return true
}

// IsLoading reports whether the dialog is in the loading state.
func (d *Dialog) IsLoading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// GetInput returns the value-bearing element, or nil when no input was
// configured or the dialog is gone.
func (d *Dialog) GetInput() Element {
	d.mu.Lock()
	rendered := d.rendered
	ok := !d.destroyed
	d.mu.Unlock()
	if !ok || rendered == nil {
		return nil
	}
	return rendered.Input()
}

// GetInputValue returns the input element's current value.
func (d *Dialog) GetInputValue() (any, error) {
	d.mu.Lock()
	rendered := d.rendered
	destroyed := d.destroyed
	d.mu.Unlock()
	if destroyed || rendered == nil {
		return nil, ErrDialogDestroyed
	}
	input := rendered.Input()
	if input == nil {
		return nil, &ConfigError{Param: "input", Message: "dialog has no input"}
	}
	return input.Value(), nil
}

func (d *Dialog) inputValue(rendered Rendered) any {
	if rendered == nil {
		return nil
	}
	if input := rendered.Input(); input != nil {
		return input.Value()
	}
	return nil
}

// GetTimerLeft returns the remaining auto-dismiss duration. ok is false
// when no timer was configured or it already fired or stopped.
func (d *Dialog) GetTimerLeft() (time.Duration, bool) {
	t := d.timerRef()
	if t == nil {
		return 0, false
	}
	switch t.State() {
	case TimerFired, TimerStopped:
		return 0, false
	}
	return t.TimeLeft(), true
}

// IsTimerRunning reports whether the auto-dismiss countdown is in progress.
func (d *Dialog) IsTimerRunning() bool {
	return d.timerRef().IsRunning()
}

// StopTimer cancels the auto-dismiss timer for good.
func (d *Dialog) StopTimer() bool {
	t := d.timerRef()
	if !t.Stop() {
		return false
	}
	if bar := d.progressBar(); bar != nil {
		bar.Stop()
	}
	return true
}

// PauseTimer suspends the auto-dismiss countdown, preserving the remaining
// duration.
func (d *Dialog) PauseTimer() bool {
	t := d.timerRef()
	if !t.Pause() {
		return false
	}
	if bar := d.progressBar(); bar != nil {
		bar.Stop()
	}
	return true
}

// ResumeTimer continues a paused auto-dismiss countdown.
func (d *Dialog) ResumeTimer() bool {
	t := d.timerRef()
	if !t.Resume() {
		return false
	}
	if bar := d.progressBar(); bar != nil {
		bar.Animate(t.TimeLeft())
	}
	return true
}

// ToggleTimer pauses a running countdown or resumes a paused one. Returns
// whether the countdown is running afterwards.
func (d *Dialog) ToggleTimer() bool {
	t := d.timerRef()
	if t == nil {
		return false
	}
	running := t.Toggle()
	if bar := d.progressBar(); bar != nil {
		if running {
			bar.Animate(t.TimeLeft())
		} else {
			bar.Stop()
		}
	}
	return running
}

// IncreaseTimer extends the countdown by delta and returns the new
// remaining duration. ok is false when the timer is absent or terminal.
func (d *Dialog) IncreaseTimer(delta time.Duration) (time.Duration, bool) {
	t := d.timerRef()
	if t == nil {
		return 0, false
	}
	switch t.State() {
	case TimerFired, TimerStopped:
		return 0, false
	}
	left := t.Increase(delta)
	if t.State() == TimerRunning {
		if bar := d.progressBar(); bar != nil {
			bar.Animate(left)
		}
	}
	return left, true
}

func (d *Dialog) timerRef() *Timer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer
}

func (d *Dialog) progressBar() ProgressBar {
	d.mu.Lock()
	rendered := d.rendered
	cfg := d.cfg
	d.mu.Unlock()
	if rendered == nil || cfg == nil || !cfg.TimerProgressBar() {
		return nil
	}
	return rendered.TimerProgressBar()
}

// dispatch fires the configured hook, then registered listeners, for one
// lifecycle event. Panics are recovered and logged.
func (d *Dialog) dispatch(event EventType) {
	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()
	if cfg != nil {
		if hook := cfg.hookFor(event); hook != nil {
			d.runHook(event, hook)
		}
	}
	for _, fn := range d.events.snapshot(event) {
		d.runHook(event, fn)
	}
}

func (d *Dialog) runHook(event EventType, fn HookFunc) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Err().Str("category", "dialog").Str("event", string(event)).Any("panic", r).Log("lifecycle hook panicked")
		}
	}()
	fn()
}

func (d *Dialog) logWarnings(warnings []Warning) {
	for _, w := range warnings {
		d.logger.Warning().Str("category", "param").Str("param", w.Param).Log(w.Message)
	}
}
