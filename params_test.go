package iomodal

import (
	"testing"
	"time"
)

// TestPrepare_Defaults verifies the effective configuration with no layers
// at all.
func TestPrepare_Defaults(t *testing.T) {
	cfg, warnings := Prepare(nil, nil, nil)
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}

	if !cfg.Animation() || !cfg.AllowEnterKey() || !cfg.AllowEscapeKey() || !cfg.AllowOutsideClick() {
		t.Fatal("boolean defaults not all true")
	}
	if !cfg.FocusConfirm() || cfg.FocusDeny() || cfg.FocusCancel() {
		t.Fatal("focus defaults wrong: want confirm only")
	}
	if !cfg.ShowConfirmButton() || cfg.ShowDenyButton() || cfg.ShowCancelButton() || cfg.ShowCloseButton() {
		t.Fatal("button visibility defaults wrong: want confirm only")
	}
	if cfg.ConfirmButtonText() != "OK" || cfg.DenyButtonText() != "No" || cfg.CancelButtonText() != "Cancel" {
		t.Fatalf("button text defaults = %q/%q/%q", cfg.ConfirmButtonText(), cfg.DenyButtonText(), cfg.CancelButtonText())
	}
	if !cfg.ReturnFocus() {
		t.Fatal("ReturnFocus default = false, want true")
	}
	if cfg.Toast() || cfg.Timer() != 0 || cfg.TimerProgressBar() || cfg.Input() != "" {
		t.Fatal("zero-value defaults disturbed")
	}

	show := cfg.ShowClass()
	if show[ClassKeyPopup] != ClassPopupShow || show[ClassKeyBackdrop] != ClassBackdropShow || show[ClassKeyIcon] != ClassIconShow {
		t.Fatalf("default show classes = %v", show)
	}
	hide := cfg.HideClass()
	if hide[ClassKeyPopup] != ClassPopupHide || hide[ClassKeyBackdrop] != ClassBackdropHide || hide[ClassKeyIcon] != ClassIconHide {
		t.Fatalf("default hide classes = %v", hide)
	}
}

// TestPrepare_Precedence verifies layer precedence: defaults < mixin <
// declarative < caller, with absent fields inherited from the layer below.
func TestPrepare_Precedence(t *testing.T) {
	mixin := &Options{Title: String("from mixin"), Text: String("mixin text")}
	declarative := &Options{Icon: String("warning"), Text: String("declarative text")}
	caller := &Options{Title: String("from caller")}

	cfg, _ := Prepare(caller, mixin, declarative)

	if got := cfg.Title(); got != "from caller" {
		t.Fatalf("Title = %q, want caller layer to win", got)
	}
	if got := cfg.Text(); got != "declarative text" {
		t.Fatalf("Text = %q, want declarative layer to win over mixin", got)
	}
	if got := cfg.Icon(); got != "warning" {
		t.Fatalf("Icon = %q, want declarative value to survive", got)
	}
	// Untouched fields fall through to defaults.
	if got := cfg.ConfirmButtonText(); got != "OK" {
		t.Fatalf("ConfirmButtonText = %q, want default", got)
	}
}

// TestPrepare_MixinChain verifies later mixin layers override earlier ones
// while lower layers still show through for untouched fields.
func TestPrepare_MixinChain(t *testing.T) {
	first := &Options{Title: String("first"), Text: String("kept")}
	second := &Options{Title: String("second")}

	cfg, _ := prepareLayers(nil, []*Options{first, second}, nil)

	if got := cfg.Title(); got != "second" {
		t.Fatalf("Title = %q, want later mixin to win", got)
	}
	if got := cfg.Text(); got != "kept" {
		t.Fatalf("Text = %q, want earlier mixin to show through", got)
	}
}

// TestPrepare_ZeroValueOverrides verifies an explicitly set zero value
// overrides a lower layer, unlike an absent field.
func TestPrepare_ZeroValueOverrides(t *testing.T) {
	mixin := &Options{Title: String("preset"), ShowConfirmButton: Bool(true)}
	caller := &Options{Title: String(""), ShowConfirmButton: Bool(false)}

	cfg, _ := Prepare(caller, mixin, nil)

	if got := cfg.Title(); got != "" {
		t.Fatalf("Title = %q, want explicit empty string to win", got)
	}
	if cfg.ShowConfirmButton() {
		t.Fatal("ShowConfirmButton = true, want explicit false to win")
	}
}

// TestPrepare_ClassMerge verifies class maps merge key-by-key instead of
// replacing the whole set.
func TestPrepare_ClassMerge(t *testing.T) {
	caller := &Options{
		ShowClass: ClassNames{ClassKeyPopup: "custom-show"},
		HideClass: ClassNames{ClassKeyIcon: "custom-icon-hide"},
	}

	cfg, _ := Prepare(caller, nil, nil)

	show := cfg.ShowClass()
	if show[ClassKeyPopup] != "custom-show" {
		t.Fatalf("popup show class = %q, want override", show[ClassKeyPopup])
	}
	if show[ClassKeyBackdrop] != ClassBackdropShow || show[ClassKeyIcon] != ClassIconShow {
		t.Fatalf("untouched show classes lost: %v", show)
	}

	hide := cfg.HideClass()
	if hide[ClassKeyIcon] != "custom-icon-hide" {
		t.Fatalf("icon hide class = %q, want override", hide[ClassKeyIcon])
	}
	if hide[ClassKeyPopup] != ClassPopupHide {
		t.Fatalf("untouched hide classes lost: %v", hide)
	}
}

// TestPrepare_AnimationDisabled verifies animation:false collapses the class
// sets no matter what the layers merged.
func TestPrepare_AnimationDisabled(t *testing.T) {
	caller := &Options{
		Animation: Bool(false),
		ShowClass: ClassNames{ClassKeyPopup: "fancy"},
		HideClass: ClassNames{ClassKeyPopup: "fade-out"},
	}

	cfg, _ := Prepare(caller, nil, nil)

	show := cfg.ShowClass()
	if len(show) != 1 || show[ClassKeyBackdrop] != ClassBackdropNoAnimation {
		t.Fatalf("show classes = %v, want only backdrop=%q", show, ClassBackdropNoAnimation)
	}
	if hide := cfg.HideClass(); len(hide) != 0 {
		t.Fatalf("hide classes = %v, want empty", hide)
	}
	if cfg.Animation() {
		t.Fatal("Animation() = true")
	}
}

// TestPrepare_PredicateClearing verifies a plain bool set in a higher layer
// clears a predicate inherited from a lower one, and a higher-layer predicate
// overrides a lower-layer bool.
func TestPrepare_PredicateClearing(t *testing.T) {
	mixin := &Options{AllowEscapeKeyFunc: func() bool { return false }}
	caller := &Options{AllowEscapeKey: Bool(true)}

	cfg, _ := Prepare(caller, mixin, nil)
	if !cfg.AllowEscapeKey() {
		t.Fatal("higher-layer bool did not clear lower-layer predicate")
	}

	mixin = &Options{AllowOutsideClick: Bool(true)}
	caller = &Options{AllowOutsideClickFunc: func() bool { return false }}

	cfg, _ = Prepare(caller, mixin, nil)
	if cfg.AllowOutsideClick() {
		t.Fatal("higher-layer predicate did not override lower-layer bool")
	}
}

// TestPrepare_PredicateEvaluatedPerCall verifies the Func form is consulted
// on every read, so callers can flip the answer mid-dialog.
func TestPrepare_PredicateEvaluatedPerCall(t *testing.T) {
	allow := true
	caller := &Options{AllowEnterKeyFunc: func() bool { return allow }}

	cfg, _ := Prepare(caller, nil, nil)
	if !cfg.AllowEnterKey() {
		t.Fatal("AllowEnterKey() = false, want predicate result")
	}
	allow = false
	if cfg.AllowEnterKey() {
		t.Fatal("AllowEnterKey() = true after predicate flipped")
	}
}

// TestPrepare_ProgressBarNeedsTimer verifies timerProgressBar without a
// timer is dropped with a warning.
func TestPrepare_ProgressBarNeedsTimer(t *testing.T) {
	cfg, warnings := Prepare(&Options{TimerProgressBar: Bool(true)}, nil, nil)
	if cfg.TimerProgressBar() {
		t.Fatal("TimerProgressBar kept without a timer")
	}
	found := false
	for _, w := range warnings {
		if w.Param == "timerProgressBar" {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want timerProgressBar warning", warnings)
	}

	cfg, warnings = Prepare(&Options{
		Timer:            Duration(3 * time.Second),
		TimerProgressBar: Bool(true),
	}, nil, nil)
	if !cfg.TimerProgressBar() {
		t.Fatal("TimerProgressBar dropped despite timer")
	}
	for _, w := range warnings {
		if w.Param == "timerProgressBar" {
			t.Fatalf("unexpected warning: %v", w)
		}
	}
}

// TestConfig_WithUpdate verifies live updates apply the updatable subset and
// warn for each fixed parameter.
func TestConfig_WithUpdate(t *testing.T) {
	base, _ := Prepare(&Options{
		Title: String("before"),
		Timer: Duration(time.Minute),
	}, nil, nil)

	updated, warnings := base.withUpdate(&Options{
		Title:            String("after"),
		ShowDenyButton:   Bool(true),
		Toast:            Bool(true),
		Timer:            Duration(time.Second),
		Input:            String("text"),
		ShowClass:        ClassNames{ClassKeyPopup: "x"},
		WillOpen:         func() {},
		ReturnFocus:      Bool(false),
		AllowEscapeKey:   Bool(false),
		DenyButtonText:   String("Decline"),
		TimerProgressBar: Bool(true),
	})

	if got := updated.Title(); got != "after" {
		t.Fatalf("Title = %q, want updated", got)
	}
	if !updated.ShowDenyButton() || updated.DenyButtonText() != "Decline" {
		t.Fatal("updatable button fields not applied")
	}
	if updated.AllowEscapeKey() {
		t.Fatal("AllowEscapeKey not applied")
	}

	// Fixed parameters keep their original values.
	if updated.Toast() {
		t.Fatal("toast changed on a live dialog")
	}
	if got := updated.Timer(); got != time.Minute {
		t.Fatalf("timer changed to %v on a live dialog", got)
	}
	if updated.Input() != "" {
		t.Fatal("input changed on a live dialog")
	}
	if !updated.ReturnFocus() {
		t.Fatal("returnFocus changed on a live dialog")
	}
	if got := updated.ShowClass()[ClassKeyPopup]; got != ClassPopupShow {
		t.Fatalf("showClass changed on a live dialog: %q", got)
	}

	wantDropped := map[string]bool{
		"toast": false, "timer": false, "input": false,
		"showClass": false, "willOpen": false, "returnFocus": false,
		"timerProgressBar": false,
	}
	for _, w := range warnings {
		if _, ok := wantDropped[w.Param]; ok {
			wantDropped[w.Param] = true
		}
	}
	for param, seen := range wantDropped {
		if !seen {
			t.Errorf("no warning for dropped parameter %q (warnings: %v)", param, warnings)
		}
	}

	// The original config is untouched.
	if got := base.Title(); got != "before" {
		t.Fatalf("base config mutated: Title = %q", got)
	}
}

// TestConfig_WithUpdateHideClass verifies HideClass is updatable and merges
// key-by-key.
func TestConfig_WithUpdateHideClass(t *testing.T) {
	base, _ := Prepare(nil, nil, nil)
	updated, warnings := base.withUpdate(&Options{
		HideClass: ClassNames{ClassKeyPopup: "slide-away"},
	})
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	hide := updated.HideClass()
	if hide[ClassKeyPopup] != "slide-away" {
		t.Fatalf("popup hide class = %q", hide[ClassKeyPopup])
	}
	if hide[ClassKeyBackdrop] != ClassBackdropHide {
		t.Fatalf("untouched hide classes lost: %v", hide)
	}
}

// TestConfig_AccessorsCopyClassMaps verifies mutating a returned class map
// does not leak into the config.
func TestConfig_AccessorsCopyClassMaps(t *testing.T) {
	cfg, _ := Prepare(nil, nil, nil)
	cfg.ShowClass()[ClassKeyPopup] = "mutated"
	if got := cfg.ShowClass()[ClassKeyPopup]; got != ClassPopupShow {
		t.Fatalf("config show class mutated through accessor: %q", got)
	}
}

// TestWarnParamOnce verifies per-process deduplication of parameter
// warnings.
func TestWarnParamOnce(t *testing.T) {
	if !warnParamOnce("test-unique-parameter") {
		t.Fatal("first warnParamOnce = false")
	}
	if warnParamOnce("test-unique-parameter") {
		t.Fatal("second warnParamOnce = true")
	}
}

// TestWarningString verifies the diagnostic formatting.
func TestWarningString(t *testing.T) {
	w := Warning{Param: "timer", Message: "has no effect"}
	if got := w.String(); got != "timer: has no effect" {
		t.Fatalf("String() = %q", got)
	}
	w = Warning{Message: "bare message"}
	if got := w.String(); got != "bare message" {
		t.Fatalf("String() = %q", got)
	}
}

// TestPointerHelpers verifies the Options literal helpers.
func TestPointerHelpers(t *testing.T) {
	if s := String("x"); s == nil || *s != "x" {
		t.Fatal("String helper broken")
	}
	if b := Bool(true); b == nil || !*b {
		t.Fatal("Bool helper broken")
	}
	if d := Duration(time.Second); d == nil || *d != time.Second {
		t.Fatal("Duration helper broken")
	}
}

// TestConfig_HookFor verifies lifecycle hooks are retrievable by event.
func TestConfig_HookFor(t *testing.T) {
	var fired string
	caller := &Options{
		WillOpen:  func() { fired = "willOpen" },
		DidClose:  func() { fired = "didClose" },
		WillClose: nil,
	}
	cfg, _ := Prepare(caller, nil, nil)

	if h := cfg.hookFor(EventWillOpen); h == nil {
		t.Fatal("hookFor(willOpen) = nil")
	} else if h(); fired != "willOpen" {
		t.Fatalf("wrong hook returned: fired %q", fired)
	}
	if h := cfg.hookFor(EventDidClose); h == nil {
		t.Fatal("hookFor(didClose) = nil")
	} else if h(); fired != "didClose" {
		t.Fatalf("wrong hook returned: fired %q", fired)
	}
	if h := cfg.hookFor(EventWillClose); h != nil {
		t.Fatal("hookFor(willClose) != nil for unset hook")
	}
	if h := cfg.hookFor(EventType("bogus")); h != nil {
		t.Fatal("hookFor(bogus) != nil")
	}
}
