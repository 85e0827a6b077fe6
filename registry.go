package iomodal

import (
	"errors"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// Registry is the single-active-dialog state: the current dialog, the armed
// auto-dismiss timer, and a pending focus-restoration task. At most one of
// each exists at any time; opening a new dialog always evicts the old one
// synchronously before installing itself.
//
// A Registry is explicit and injectable, never ambient: construct one per
// loop (tests typically construct one per case). The current slot holds the
// open dialog strongly: fire-and-forget dialogs stay reachable until they
// close or are superseded, and the slot empties on teardown.
type Registry struct {
	loop              *Loop
	renderer          Renderer
	logger            *logiface.Logger[logiface.Event]
	restoreFocusDelay time.Duration

	mu         sync.Mutex
	current    *Dialog
	timer      *Timer
	restore    TimerID
	restoreSet bool
}

// NewRegistry creates a registry bound to the loop and renderer.
func NewRegistry(loop *Loop, renderer Renderer, opts ...RegistryOption) (*Registry, error) {
	if loop == nil {
		return nil, errors.New("iomodal: registry requires a loop")
	}
	if renderer == nil {
		return nil, errors.New("iomodal: registry requires a renderer")
	}
	o, err := resolveRegistryOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Registry{
		loop:              loop,
		renderer:          renderer,
		logger:            o.logger,
		restoreFocusDelay: o.restoreFocusDelay,
	}, nil
}

// Loop returns the event loop the registry drives its dialogs on.
func (g *Registry) Loop() *Loop {
	return g.loop
}

// Current returns the dialog currently owning the surface, or nil.
func (g *Registry) Current() *Dialog {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

func (g *Registry) setCurrent(d *Dialog) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = d
}

// clearCurrent empties the slot only while it still holds d; a dialog that
// was superseded must not clobber its successor.
func (g *Registry) clearCurrent(d *Dialog) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == d {
		g.current = nil
	}
}

// ArmTimer installs t as the registry's auto-dismiss timer, always stopping
// and discarding any previously armed timer first.
func (g *Registry) ArmTimer(t *Timer) {
	g.mu.Lock()
	prev := g.timer
	g.timer = t
	g.mu.Unlock()
	if prev != nil && prev != t {
		prev.Stop()
	}
}

// StopAndClearTimer stops and discards the armed timer, reporting whether a
// live one was stopped.
func (g *Registry) StopAndClearTimer() bool {
	g.mu.Lock()
	t := g.timer
	g.timer = nil
	g.mu.Unlock()
	return t.Stop()
}

// ArmedTimer returns the armed auto-dismiss timer, or nil.
func (g *Registry) ArmedTimer() *Timer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer
}

// ScheduleRestoreFocus schedules fn after the configured restore delay,
// replacing any pending restoration. Restoration is deferred rather than
// immediate so it cannot fight an in-flight close animation; it is canceled
// when a newer dialog opens first.
func (g *Registry) ScheduleRestoreFocus(fn func()) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.restoreSet {
		_ = g.loop.CancelTimer(g.restore)
		g.restoreSet = false
	}
	id, err := g.loop.ScheduleTimer(g.restoreFocusDelay, func() {
		g.mu.Lock()
		g.restoreSet = false
		g.mu.Unlock()
		fn()
	})
	if err != nil {
		return
	}
	g.restore = id
	g.restoreSet = true
}

// CancelRestoreFocus drops any pending focus restoration.
func (g *Registry) CancelRestoreFocus() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.restoreSet {
		_ = g.loop.CancelTimer(g.restore)
		g.restoreSet = false
	}
}

// Fire opens a dialog configured by opts alone and returns it with its
// pending result promise.
func (g *Registry) Fire(opts *Options) (*Dialog, *ResultPromise) {
	return g.FireOptions(opts, nil)
}

// FireOptions opens a dialog with caller options merged over a mixin layer.
func (g *Registry) FireOptions(caller, mixin *Options) (*Dialog, *ResultPromise) {
	d := NewDialog(g)
	p := d.Open(caller, mixin)
	return d, p
}

// FireTemplate opens a dialog with a parsed template supplying the
// declarative layer beneath the caller options.
func (g *Registry) FireTemplate(t *Template, caller *Options) (*Dialog, *ResultPromise) {
	d := NewDialog(g)
	var declarative *Options
	if t != nil {
		declarative = t.Options()
	}
	p := d.open(caller, nil, declarative)
	return d, p
}

// Mixin returns a preset factory: dialogs fired through it merge the preset
// beneath the caller's options. Factories chain; a later preset takes
// precedence over an earlier one.
func (g *Registry) Mixin(preset *Options) *Mixin {
	m := &Mixin{registry: g}
	if preset != nil {
		m.presets = []*Options{preset}
	}
	return m
}

// Mixin is a dialog preset factory created by [Registry.Mixin].
type Mixin struct {
	registry *Registry
	presets  []*Options
}

// Mixin derives a new factory with an additional preset layered on top.
func (m *Mixin) Mixin(preset *Options) *Mixin {
	if preset == nil {
		return m
	}
	presets := append(m.presets[:len(m.presets):len(m.presets)], preset)
	return &Mixin{registry: m.registry, presets: presets}
}

// Fire opens a dialog with the caller options over the preset layers.
func (m *Mixin) Fire(caller *Options) (*Dialog, *ResultPromise) {
	d := NewDialog(m.registry)
	p := d.open(caller, m.presets, nil)
	return d, p
}
