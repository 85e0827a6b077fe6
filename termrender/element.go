package termrender

import (
	"sync"
	"time"
)

// Element is the terminal realization of the core's element handle: a small
// bag of interaction state the renderer reads back when it paints a frame.
// All methods are safe for concurrent use and tolerate calls after the
// owning surface was destroyed.
type Element struct {
	mu        sync.Mutex
	kind      string
	label     string
	visible   bool
	focusable bool
	autoFocus bool
	enabled   bool
	focused   bool
	value     any
	repaint   func()
}

func newElement(kind, label string, repaint func()) *Element {
	return &Element{
		kind:      kind,
		label:     label,
		visible:   true,
		focusable: true,
		enabled:   true,
		repaint:   repaint,
	}
}

// Kind names the role of the element within its dialog: "popup", "confirm",
// "deny", "cancel", "close", or "input".
func (e *Element) Kind() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind
}

// Label returns the text painted for the element.
func (e *Element) Label() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.label
}

// Focus marks the element as holding keyboard focus and repaints.
func (e *Element) Focus() {
	e.mu.Lock()
	e.focused = true
	repaint := e.repaint
	e.mu.Unlock()
	if repaint != nil {
		repaint()
	}
}

// Blur clears keyboard focus and repaints.
func (e *Element) Blur() {
	e.mu.Lock()
	e.focused = false
	repaint := e.repaint
	e.mu.Unlock()
	if repaint != nil {
		repaint()
	}
}

// IsFocused reports whether the element currently holds keyboard focus.
func (e *Element) IsFocused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

// IsVisible reports whether the element is painted.
func (e *Element) IsVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// IsFocusable reports whether the element can take keyboard focus.
func (e *Element) IsFocusable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focusable && e.visible && e.enabled
}

// HasAutoFocus reports whether the element claims focus ahead of the button
// directives. The terminal renderer marks the input element this way when
// one is configured.
func (e *Element) HasAutoFocus() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoFocus
}

// Value returns the element's value. Only input elements carry one.
func (e *Element) Value() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// SetValue replaces the element's value and repaints.
func (e *Element) SetValue(v any) {
	e.mu.Lock()
	e.value = v
	repaint := e.repaint
	e.mu.Unlock()
	if repaint != nil {
		repaint()
	}
}

// SetEnabled toggles interactivity and repaints.
func (e *Element) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.enabled = enabled
	repaint := e.repaint
	e.mu.Unlock()
	if repaint != nil {
		repaint()
	}
}

// IsEnabled reports whether the element accepts interaction.
func (e *Element) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *Element) setVisible(v bool) {
	e.mu.Lock()
	e.visible = v
	e.mu.Unlock()
}

func (e *Element) setAutoFocus(v bool) {
	e.mu.Lock()
	e.autoFocus = v
	e.mu.Unlock()
}

func (e *Element) setLabel(label string) {
	e.mu.Lock()
	e.label = label
	e.mu.Unlock()
}

// detach severs the repaint callback so post-teardown interaction stays a
// silent no-op.
func (e *Element) detach() {
	e.mu.Lock()
	e.repaint = nil
	e.visible = false
	e.mu.Unlock()
}

// Bar is the terminal progress bar for the auto-dismiss countdown. It keeps
// the total and the moment draining last (re)started; the renderer derives
// the filled fraction from those when it paints.
type Bar struct {
	mu      sync.Mutex
	total   time.Duration
	left    time.Duration
	started time.Time
	running bool
	repaint func()
}

func newBar(repaint func()) *Bar {
	return &Bar{repaint: repaint}
}

// Animate (re)starts the bar draining over remaining. The first call fixes
// the bar's total; later calls (resume, extension) re-anchor the remainder
// against it.
func (b *Bar) Animate(remaining time.Duration) {
	b.mu.Lock()
	if remaining > b.total {
		b.total = remaining
	}
	b.left = remaining
	b.started = time.Now()
	b.running = true
	repaint := b.repaint
	b.mu.Unlock()
	if repaint != nil {
		repaint()
	}
}

// Stop freezes the bar at its current fill.
func (b *Bar) Stop() {
	b.mu.Lock()
	if b.running {
		b.left -= time.Since(b.started)
		if b.left < 0 {
			b.left = 0
		}
		b.running = false
	}
	repaint := b.repaint
	b.mu.Unlock()
	if repaint != nil {
		repaint()
	}
}

// fraction returns the filled portion in [0, 1].
func (b *Bar) fraction() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.total <= 0 {
		return 0
	}
	left := b.left
	if b.running {
		left -= time.Since(b.started)
	}
	if left < 0 {
		left = 0
	}
	return float64(left) / float64(b.total)
}

func (b *Bar) detach() {
	b.mu.Lock()
	b.running = false
	b.repaint = nil
	b.mu.Unlock()
}
