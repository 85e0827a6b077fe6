package iomodal

import "time"

// Key identifies a keyboard interaction forwarded to [Dialog.HandleKey].
type Key int

const (
	// KeyEnter activates the confirm button, subject to the AllowEnterKey
	// directive.
	KeyEnter Key = iota
	// KeyEscape dismisses the dialog with [DismissEsc], subject to the
	// AllowEscapeKey directive.
	KeyEscape
	// KeyTab is focus traversal; the core leaves it to the renderer.
	KeyTab
)

// String returns a human-readable representation of the key.
func (k Key) String() string {
	switch k {
	case KeyEnter:
		return "Enter"
	case KeyEscape:
		return "Escape"
	case KeyTab:
		return "Tab"
	default:
		return "Unknown"
	}
}

// CloseVariant selects the teardown flavor a close path requests from the
// renderer.
type CloseVariant int

const (
	// VariantAuto lets the renderer pick based on the configuration (toast
	// vs modal).
	VariantAuto CloseVariant = iota
	// VariantPopup tears down the popup only, leaving any container state.
	VariantPopup
	// VariantModal tears down a modal presentation.
	VariantModal
	// VariantToast tears down a toast presentation.
	VariantToast
)

// DestroyOptions tailors [Renderer.Destroy].
type DestroyOptions struct {
	Variant CloseVariant
	// HideClass is the merged hide-class set of the closing dialog; empty
	// when animation is disabled.
	HideClass ClassNames
}

// Element is an opaque handle to a rendered, possibly focusable thing. The
// core never inspects markup; it only drives these operations.
//
// Implementations must tolerate calls after teardown (no-op).
type Element interface {
	Focus()
	Blur()
	IsVisible() bool
	IsFocusable() bool
	// HasAutoFocus reports whether the element was marked to receive focus
	// ahead of the button-directive chain.
	HasAutoFocus() bool
	Value() any
	SetValue(v any)
	SetEnabled(enabled bool)
}

// ProgressBar animates the auto-dismiss countdown.
type ProgressBar interface {
	// Animate (re)starts the bar draining over the given remaining
	// duration.
	Animate(remaining time.Duration)
	Stop()
}

// Rendered is the handle to one painted dialog. Accessors may return nil
// when the corresponding part was not rendered (e.g. no input configured).
type Rendered interface {
	Popup() Element
	Confirm() Element
	Deny() Element
	Cancel() Element
	Close() Element
	Input() Element
	// FocusCandidates returns the focusable elements of the popup in
	// traversal order.
	FocusCandidates() []Element
	TimerProgressBar() ProgressBar
}

// Renderer paints and tears down dialogs. It is the single out-of-scope
// collaborator of the lifecycle core; see the termrender package for a
// terminal-backed implementation and a test fake.
//
// Calls arrive from whichever goroutine drives the dialog: Open and Close
// run on their caller, timer dismissals and pre-action outcomes on the
// loop. Implementations must be safe for concurrent use.
type Renderer interface {
	Render(cfg *Config) (Rendered, error)
	// Update re-paints the parts affected by a configuration change. The
	// handle keeps its identity.
	Update(r Rendered, cfg *Config) error
	Destroy(r Rendered, opts DestroyOptions)
	ShowValidation(r Rendered, message string)
	ResetValidation(r Rendered)
	SetLoading(r Rendered, loading bool)
	// ActiveElement returns the element holding input focus in the host
	// surface, or nil. Captured before a dialog opens so focus can be
	// restored after it closes.
	ActiveElement() Element
}
