package iomodal

import (
	"fmt"
	"sync"
	"time"
)

// Class-name keys used in [ClassNames] maps. A renderer maps these to
// whatever styling mechanism it has; the core only merges and carries them.
const (
	ClassKeyPopup    = "popup"
	ClassKeyBackdrop = "backdrop"
	ClassKeyIcon     = "icon"
)

// Default class names applied while showing and hiding a dialog.
const (
	ClassPopupShow    = "io-modal-show"
	ClassBackdropShow = "io-modal-backdrop-show"
	ClassIconShow     = "io-modal-icon-show"
	ClassPopupHide    = "io-modal-hide"
	ClassBackdropHide = "io-modal-backdrop-hide"
	ClassIconHide     = "io-modal-icon-hide"

	// ClassBackdropNoAnimation replaces the entire show-class set when
	// animation is disabled.
	ClassBackdropNoAnimation = "io-modal-noanimation"
)

// ClassNames maps a class-name key (e.g. [ClassKeyPopup]) to the class
// applied to that part of the dialog. Layers merge key-by-key: a later layer
// overrides individual keys without discarding the rest.
type ClassNames map[string]string

func (c ClassNames) clone() ClassNames {
	if c == nil {
		return nil
	}
	out := make(ClassNames, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// PreAction is a caller-supplied confirm/deny handler. It receives the
// dialog's input value and returns the value to settle the result with. A
// non-nil error of type [*ValidationError] re-shows the dialog with the
// validation message; any other error rejects the result promise.
//
// Pre-actions run OFF the loop goroutine (they are expected to block on I/O)
// while the dialog counts as awaiting; see [Dialog.ClickConfirm].
type PreAction func(value any) (any, error)

// HookFunc is a lifecycle hook. Hooks run on the loop goroutine; a panic is
// recovered and logged, never propagated.
type HookFunc func()

// Options is one partial-configuration layer. Scalar fields are pointers so
// a merge can distinguish "absent" from the zero value; use the [String],
// [Bool], and [Duration] helpers to populate them inline.
//
// Layers are merged by [Prepare] with precedence, lowest to highest:
// built-in defaults < mixin < declarative < caller.
type Options struct {
	Title *string
	Text  *string
	Icon  *string

	Toast     *bool
	Animation *bool

	// Timer auto-dismisses the dialog with DismissTimer after the duration.
	Timer            *time.Duration
	TimerProgressBar *bool

	// AllowEnterKey gates whether Enter activates the confirm button. The
	// Func form is evaluated per keystroke and, when set, takes precedence
	// over the plain bool. Setting the plain bool in a higher layer clears a
	// predicate inherited from a lower one.
	AllowEnterKey     *bool
	AllowEnterKeyFunc func() bool

	AllowEscapeKey     *bool
	AllowEscapeKeyFunc func() bool

	AllowOutsideClick     *bool
	AllowOutsideClickFunc func() bool

	FocusConfirm *bool
	FocusDeny    *bool
	FocusCancel  *bool

	ShowConfirmButton *bool
	ShowDenyButton    *bool
	ShowCancelButton  *bool
	ShowCloseButton   *bool

	ConfirmButtonText *string
	DenyButtonText    *string
	CancelButtonText  *string

	// Input names the input type the renderer should paint ("text",
	// "password", "select", ...). Empty means no input.
	Input            *string
	InputValue       *string
	InputPlaceholder *string

	// ReturnFocus restores focus to the previously focused element after the
	// dialog closes. Defaults to true; ignored for toasts.
	ReturnFocus *bool

	PreConfirm PreAction
	PreDeny    PreAction

	// ShowClass/HideClass merge key-by-key against the defaults rather than
	// replacing them wholesale.
	ShowClass ClassNames
	HideClass ClassNames

	WillOpen   HookFunc
	DidRender  HookFunc
	DidOpen    HookFunc
	WillClose  HookFunc
	DidClose   HookFunc
	DidDestroy HookFunc
}

// String returns a pointer to s, for populating [Options] literals.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for populating [Options] literals.
func Bool(b bool) *bool { return &b }

// Duration returns a pointer to d, for populating [Options] literals.
func Duration(d time.Duration) *time.Duration { return &d }

// Warning is a non-fatal configuration diagnostic. Warnings never block
// opening a dialog; execution continues with best-effort defaults.
type Warning struct {
	Param   string
	Message string
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	if w.Param == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Param, w.Message)
}

// warnedParams gates deprecation warnings to once per parameter per process.
var warnedParams sync.Map

func warnParamOnce(param string) bool {
	_, loaded := warnedParams.LoadOrStore(param, struct{}{})
	return !loaded
}

// Config is the effective configuration of one dialog: the frozen product of
// a [Prepare] merge. It is never mutated after construction; updates replace
// it with a new Config.
type Config struct {
	title string
	text  string
	icon  string

	toast     bool
	animation bool

	timer            time.Duration
	timerProgressBar bool

	allowEnterKey     bool
	allowEnterKeyFunc func() bool

	allowEscapeKey     bool
	allowEscapeKeyFunc func() bool

	allowOutsideClick     bool
	allowOutsideClickFunc func() bool

	focusConfirm bool
	focusDeny    bool
	focusCancel  bool

	showConfirm bool
	showDeny    bool
	showCancel  bool
	showClose   bool

	confirmText string
	denyText    string
	cancelText  string

	input            string
	inputValue       string
	inputPlaceholder string

	returnFocus bool

	preConfirm PreAction
	preDeny    PreAction

	showClass ClassNames
	hideClass ClassNames

	willOpen   HookFunc
	didRender  HookFunc
	didOpen    HookFunc
	willClose  HookFunc
	didClose   HookFunc
	didDestroy HookFunc
}

func defaultConfig() *Config {
	return &Config{
		animation:         true,
		allowEnterKey:     true,
		allowEscapeKey:    true,
		allowOutsideClick: true,
		focusConfirm:      true,
		showConfirm:       true,
		confirmText:       "OK",
		denyText:          "No",
		cancelText:        "Cancel",
		returnFocus:       true,
		showClass: ClassNames{
			ClassKeyPopup:    ClassPopupShow,
			ClassKeyBackdrop: ClassBackdropShow,
			ClassKeyIcon:     ClassIconShow,
		},
		hideClass: ClassNames{
			ClassKeyPopup:    ClassPopupHide,
			ClassKeyBackdrop: ClassBackdropHide,
			ClassKeyIcon:     ClassIconHide,
		},
	}
}

func (c *Config) clone() *Config {
	out := *c
	out.showClass = c.showClass.clone()
	out.hideClass = c.hideClass.clone()
	return &out
}

// applyOptions merges one layer into c, higher precedence than whatever is
// already there. Returns any warnings the layer triggered.
func (c *Config) applyOptions(o *Options) []Warning {
	if o == nil {
		return nil
	}
	var warnings []Warning

	if o.Title != nil {
		c.title = *o.Title
	}
	if o.Text != nil {
		c.text = *o.Text
	}
	if o.Icon != nil {
		c.icon = *o.Icon
	}
	if o.Toast != nil {
		c.toast = *o.Toast
	}
	if o.Animation != nil {
		c.animation = *o.Animation
		if warnParamOnce("animation") {
			warnings = append(warnings, Warning{
				Param:   "animation",
				Message: "deprecated; set ShowClass and HideClass instead",
			})
		}
	}
	if o.Timer != nil {
		c.timer = *o.Timer
	}
	if o.TimerProgressBar != nil {
		c.timerProgressBar = *o.TimerProgressBar
	}

	if o.AllowEnterKey != nil {
		c.allowEnterKey = *o.AllowEnterKey
		c.allowEnterKeyFunc = nil
	}
	if o.AllowEnterKeyFunc != nil {
		c.allowEnterKeyFunc = o.AllowEnterKeyFunc
	}
	if o.AllowEscapeKey != nil {
		c.allowEscapeKey = *o.AllowEscapeKey
		c.allowEscapeKeyFunc = nil
	}
	if o.AllowEscapeKeyFunc != nil {
		c.allowEscapeKeyFunc = o.AllowEscapeKeyFunc
	}
	if o.AllowOutsideClick != nil {
		c.allowOutsideClick = *o.AllowOutsideClick
		c.allowOutsideClickFunc = nil
	}
	if o.AllowOutsideClickFunc != nil {
		c.allowOutsideClickFunc = o.AllowOutsideClickFunc
	}

	if o.FocusConfirm != nil {
		c.focusConfirm = *o.FocusConfirm
	}
	if o.FocusDeny != nil {
		c.focusDeny = *o.FocusDeny
	}
	if o.FocusCancel != nil {
		c.focusCancel = *o.FocusCancel
	}

	if o.ShowConfirmButton != nil {
		c.showConfirm = *o.ShowConfirmButton
	}
	if o.ShowDenyButton != nil {
		c.showDeny = *o.ShowDenyButton
	}
	if o.ShowCancelButton != nil {
		c.showCancel = *o.ShowCancelButton
	}
	if o.ShowCloseButton != nil {
		c.showClose = *o.ShowCloseButton
	}

	if o.ConfirmButtonText != nil {
		c.confirmText = *o.ConfirmButtonText
	}
	if o.DenyButtonText != nil {
		c.denyText = *o.DenyButtonText
	}
	if o.CancelButtonText != nil {
		c.cancelText = *o.CancelButtonText
	}

	if o.Input != nil {
		c.input = *o.Input
	}
	if o.InputValue != nil {
		c.inputValue = *o.InputValue
	}
	if o.InputPlaceholder != nil {
		c.inputPlaceholder = *o.InputPlaceholder
	}

	if o.ReturnFocus != nil {
		c.returnFocus = *o.ReturnFocus
	}

	if o.PreConfirm != nil {
		c.preConfirm = o.PreConfirm
	}
	if o.PreDeny != nil {
		c.preDeny = o.PreDeny
	}

	for k, v := range o.ShowClass {
		if c.showClass == nil {
			c.showClass = ClassNames{}
		}
		c.showClass[k] = v
	}
	for k, v := range o.HideClass {
		if c.hideClass == nil {
			c.hideClass = ClassNames{}
		}
		c.hideClass[k] = v
	}

	if o.WillOpen != nil {
		c.willOpen = o.WillOpen
	}
	if o.DidRender != nil {
		c.didRender = o.DidRender
	}
	if o.DidOpen != nil {
		c.didOpen = o.DidOpen
	}
	if o.WillClose != nil {
		c.willClose = o.WillClose
	}
	if o.DidClose != nil {
		c.didClose = o.DidClose
	}
	if o.DidDestroy != nil {
		c.didDestroy = o.DidDestroy
	}

	return warnings
}

// finalize enforces cross-field rules after all layers merged.
func (c *Config) finalize() []Warning {
	var warnings []Warning

	// animation:false collapses the class sets regardless of merge inputs.
	if !c.animation {
		c.showClass = ClassNames{ClassKeyBackdrop: ClassBackdropNoAnimation}
		c.hideClass = ClassNames{}
	}

	if c.timerProgressBar && c.timer <= 0 {
		c.timerProgressBar = false
		warnings = append(warnings, Warning{
			Param:   "timerProgressBar",
			Message: "has no effect without a timer",
		})
	}

	return warnings
}

// Prepare merges up to three configuration layers over the built-in defaults
// and returns the frozen effective configuration. Precedence, lowest to
// highest: defaults < mixin < declarative < caller. Warnings are non-fatal
// diagnostics (deprecated or misused parameters); the merge always succeeds.
func Prepare(caller, mixin, declarative *Options) (*Config, []Warning) {
	var mixins []*Options
	if mixin != nil {
		mixins = append(mixins, mixin)
	}
	return prepareLayers(caller, mixins, declarative)
}

// withUpdate returns a new Config with the updatable fields of partial
// merged over c. Parameters that cannot change on a live dialog are dropped
// with a warning each.
func (c *Config) withUpdate(partial *Options) (*Config, []Warning) {
	sanitized, warnings := sanitizeUpdate(partial)
	out := c.clone()
	warnings = append(warnings, out.applyOptions(sanitized)...)
	warnings = append(warnings, out.finalize()...)
	return out, warnings
}

// sanitizeUpdate splits an update layer into its updatable subset, warning
// for each parameter that is fixed for the lifetime of a dialog.
func sanitizeUpdate(o *Options) (*Options, []Warning) {
	if o == nil {
		return nil, nil
	}
	var warnings []Warning
	drop := func(param string) {
		warnings = append(warnings, Warning{Param: param, Message: "cannot be updated on a live dialog"})
	}

	out := &Options{
		Title:                 o.Title,
		Text:                  o.Text,
		Icon:                  o.Icon,
		ShowConfirmButton:     o.ShowConfirmButton,
		ShowDenyButton:        o.ShowDenyButton,
		ShowCancelButton:      o.ShowCancelButton,
		ShowCloseButton:       o.ShowCloseButton,
		ConfirmButtonText:     o.ConfirmButtonText,
		DenyButtonText:        o.DenyButtonText,
		CancelButtonText:      o.CancelButtonText,
		AllowEscapeKey:        o.AllowEscapeKey,
		AllowEscapeKeyFunc:    o.AllowEscapeKeyFunc,
		AllowOutsideClick:     o.AllowOutsideClick,
		AllowOutsideClickFunc: o.AllowOutsideClickFunc,
		HideClass:             o.HideClass,
		PreConfirm:            o.PreConfirm,
		PreDeny:               o.PreDeny,
		WillClose:             o.WillClose,
		DidClose:              o.DidClose,
		DidDestroy:            o.DidDestroy,
	}

	if o.Toast != nil {
		drop("toast")
	}
	if o.Animation != nil {
		drop("animation")
	}
	if o.Timer != nil {
		drop("timer")
	}
	if o.TimerProgressBar != nil {
		drop("timerProgressBar")
	}
	if o.AllowEnterKey != nil || o.AllowEnterKeyFunc != nil {
		drop("allowEnterKey")
	}
	if o.FocusConfirm != nil {
		drop("focusConfirm")
	}
	if o.FocusDeny != nil {
		drop("focusDeny")
	}
	if o.FocusCancel != nil {
		drop("focusCancel")
	}
	if o.Input != nil || o.InputValue != nil || o.InputPlaceholder != nil {
		drop("input")
	}
	if o.ReturnFocus != nil {
		drop("returnFocus")
	}
	if o.ShowClass != nil {
		drop("showClass")
	}
	if o.WillOpen != nil {
		drop("willOpen")
	}
	if o.DidRender != nil {
		drop("didRender")
	}
	if o.DidOpen != nil {
		drop("didOpen")
	}

	return out, warnings
}

// hookFor returns the configured hook for a lifecycle event, or nil.
func (c *Config) hookFor(event EventType) HookFunc {
	switch event {
	case EventWillOpen:
		return c.willOpen
	case EventDidRender:
		return c.didRender
	case EventDidOpen:
		return c.didOpen
	case EventWillClose:
		return c.willClose
	case EventDidClose:
		return c.didClose
	case EventDidDestroy:
		return c.didDestroy
	default:
		return nil
	}
}

// prepareLayers is the merge engine behind [Prepare], generalized to a stack
// of mixin layers so chained presets compose without re-merging Options.
func prepareLayers(caller *Options, mixins []*Options, declarative *Options) (*Config, []Warning) {
	c := defaultConfig()
	var warnings []Warning
	for _, m := range mixins {
		warnings = append(warnings, c.applyOptions(m)...)
	}
	warnings = append(warnings, c.applyOptions(declarative)...)
	warnings = append(warnings, c.applyOptions(caller)...)
	warnings = append(warnings, c.finalize()...)
	return c, warnings
}

// Title returns the dialog title.
func (c *Config) Title() string { return c.title }

// Text returns the dialog body text.
func (c *Config) Text() string { return c.text }

// Icon returns the icon name, or empty for none.
func (c *Config) Icon() string { return c.icon }

// Toast reports whether the dialog presents as a toast. Toasts never steal
// focus and skip focus restoration on close.
func (c *Config) Toast() bool { return c.toast }

// Animation reports whether show/hide transitions are enabled.
func (c *Config) Animation() bool { return c.animation }

// Timer returns the auto-dismiss duration, or zero for none.
func (c *Config) Timer() time.Duration { return c.timer }

// TimerProgressBar reports whether the remaining timer duration is rendered
// as a progress bar.
func (c *Config) TimerProgressBar() bool { return c.timerProgressBar }

// AllowEnterKey evaluates the Enter-key directive, consulting the predicate
// form when one was configured.
func (c *Config) AllowEnterKey() bool {
	if c.allowEnterKeyFunc != nil {
		return c.allowEnterKeyFunc()
	}
	return c.allowEnterKey
}

// AllowEscapeKey evaluates the Escape-key directive.
func (c *Config) AllowEscapeKey() bool {
	if c.allowEscapeKeyFunc != nil {
		return c.allowEscapeKeyFunc()
	}
	return c.allowEscapeKey
}

// AllowOutsideClick evaluates the backdrop-click directive.
func (c *Config) AllowOutsideClick() bool {
	if c.allowOutsideClickFunc != nil {
		return c.allowOutsideClickFunc()
	}
	return c.allowOutsideClick
}

// FocusConfirm reports whether the confirm button is a focus candidate.
func (c *Config) FocusConfirm() bool { return c.focusConfirm }

// FocusDeny reports whether the deny button is a focus candidate.
func (c *Config) FocusDeny() bool { return c.focusDeny }

// FocusCancel reports whether the cancel button is a focus candidate.
func (c *Config) FocusCancel() bool { return c.focusCancel }

// ShowConfirmButton reports whether the confirm button is visible.
func (c *Config) ShowConfirmButton() bool { return c.showConfirm }

// ShowDenyButton reports whether the deny button is visible.
func (c *Config) ShowDenyButton() bool { return c.showDeny }

// ShowCancelButton reports whether the cancel button is visible.
func (c *Config) ShowCancelButton() bool { return c.showCancel }

// ShowCloseButton reports whether the close (×) button is visible.
func (c *Config) ShowCloseButton() bool { return c.showClose }

// ConfirmButtonText returns the confirm button label.
func (c *Config) ConfirmButtonText() string { return c.confirmText }

// DenyButtonText returns the deny button label.
func (c *Config) DenyButtonText() string { return c.denyText }

// CancelButtonText returns the cancel button label.
func (c *Config) CancelButtonText() string { return c.cancelText }

// Input returns the input type name, or empty for no input.
func (c *Config) Input() string { return c.input }

// InputValue returns the initial input value.
func (c *Config) InputValue() string { return c.inputValue }

// InputPlaceholder returns the input placeholder text.
func (c *Config) InputPlaceholder() string { return c.inputPlaceholder }

// ReturnFocus reports whether focus is restored after close.
func (c *Config) ReturnFocus() bool { return c.returnFocus }

// ShowClass returns a copy of the merged show-class set.
func (c *Config) ShowClass() ClassNames { return c.showClass.clone() }

// HideClass returns a copy of the merged hide-class set.
func (c *Config) HideClass() ClassNames { return c.hideClass.clone() }
