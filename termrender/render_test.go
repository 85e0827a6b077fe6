package termrender

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	iomodal "github.com/koad/io-modal"
)

func prepare(t *testing.T, o *iomodal.Options) *iomodal.Config {
	t.Helper()
	cfg, warnings := iomodal.Prepare(o, nil, nil)
	for _, w := range warnings {
		t.Logf("prepare warning: %s", w)
	}
	return cfg
}

// TestNew_Validation verifies constructor argument checks.
func TestNew_Validation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil writer) succeeded")
	}
	if _, err := New(&bytes.Buffer{}, WithWidth(0)); err == nil {
		t.Fatal("WithWidth(0) accepted")
	}
	r, err := New(&bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if r == nil {
		t.Fatal("nil renderer")
	}
}

// TestRenderer_RenderSurface verifies the element set mirrors the
// configuration and the frame carries the visible text.
func TestRenderer_RenderSurface(t *testing.T) {
	r := NewFake()
	cfg := prepare(t, &iomodal.Options{
		Title:            iomodal.String("Launch?"),
		Text:             iomodal.String("This cannot be undone."),
		Icon:             iomodal.String("warning"),
		ShowCancelButton: iomodal.Bool(true),
		Input:            iomodal.String("text"),
		InputValue:       iomodal.String("payload"),
	})

	rd, err := r.Render(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s := rd.(*Surface)

	if rd.Popup() == nil {
		t.Fatal("no popup element")
	}
	if rd.Confirm() == nil || rd.Cancel() == nil {
		t.Fatal("configured buttons missing")
	}
	if rd.Deny() != nil {
		t.Fatal("deny button rendered without being configured")
	}
	if rd.Close() != nil {
		t.Fatal("close button rendered without being configured")
	}
	input := rd.Input()
	if input == nil {
		t.Fatal("input missing")
	}
	if got := input.Value(); got != "payload" {
		t.Fatalf("input value = %v, want payload", got)
	}
	if !input.HasAutoFocus() {
		t.Fatal("input not marked autofocus")
	}

	want := []string{"input", "confirm", "cancel"}
	var got []string
	for _, el := range rd.FocusCandidates() {
		got = append(got, el.(*Element).Kind())
	}
	if len(got) != len(want) {
		t.Fatalf("focus candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("focus candidates = %v, want %v", got, want)
		}
	}

	frame := r.LastFrame()
	for _, text := range []string{"Launch?", "This cannot be undone.", "OK", "Cancel"} {
		if !strings.Contains(frame, text) {
			t.Errorf("frame missing %q:\n%s", text, frame)
		}
	}
	if s.TimerProgressBar() != nil {
		t.Fatal("progress bar rendered without a timer")
	}
}

// TestRenderer_UpdateRevealsParts verifies an update can retitle the dialog
// and grow the element set while the handle keeps its identity.
func TestRenderer_UpdateRevealsParts(t *testing.T) {
	r := NewFake()
	rd, err := r.Render(prepare(t, &iomodal.Options{Title: iomodal.String("before")}))
	if err != nil {
		t.Fatal(err)
	}
	confirm := rd.Confirm()
	if confirm == nil || rd.Deny() != nil {
		t.Fatal("unexpected initial element set")
	}

	next := prepare(t, &iomodal.Options{
		Title:             iomodal.String("after"),
		ShowDenyButton:    iomodal.Bool(true),
		DenyButtonText:    iomodal.String("Refuse"),
		ConfirmButtonText: iomodal.String("Proceed"),
	})
	if err := r.Update(rd, next); err != nil {
		t.Fatal(err)
	}

	if rd.Confirm() != confirm {
		t.Fatal("confirm element identity changed across update")
	}
	if rd.Deny() == nil {
		t.Fatal("deny button not revealed by update")
	}
	frame := r.LastFrame()
	for _, text := range []string{"after", "Proceed", "Refuse"} {
		if !strings.Contains(frame, text) {
			t.Errorf("frame missing %q:\n%s", text, frame)
		}
	}
	if strings.Contains(frame, "before") {
		t.Error("stale title still painted")
	}
}

// TestRenderer_ValidationAndLoading verifies the message and busy
// indicator lines.
func TestRenderer_ValidationAndLoading(t *testing.T) {
	r := NewFake()
	rd, err := r.Render(prepare(t, &iomodal.Options{Title: iomodal.String("t")}))
	if err != nil {
		t.Fatal(err)
	}

	r.ShowValidation(rd, "value required")
	if !strings.Contains(r.LastFrame(), "value required") {
		t.Fatal("validation message not painted")
	}
	r.ResetValidation(rd)
	if strings.Contains(r.LastFrame(), "value required") {
		t.Fatal("validation message not cleared")
	}

	r.SetLoading(rd, true)
	if !strings.Contains(r.LastFrame(), "working") {
		t.Fatal("busy indicator not painted")
	}
	r.SetLoading(rd, false)
	if strings.Contains(r.LastFrame(), "working") {
		t.Fatal("busy indicator not cleared")
	}
}

// TestRenderer_Destroy verifies teardown: a closing frame when a hide-class
// set is present, a cleared region, and inert elements afterwards.
func TestRenderer_Destroy(t *testing.T) {
	r := NewFake()
	rd, err := r.Render(prepare(t, &iomodal.Options{Title: iomodal.String("bye")}))
	if err != nil {
		t.Fatal(err)
	}
	input := rd.Popup()

	r.Destroy(rd, iomodal.DestroyOptions{
		Variant:   iomodal.VariantModal,
		HideClass: iomodal.ClassNames{iomodal.ClassKeyPopup: iomodal.ClassPopupHide},
	})

	frames := r.Frames()
	if len(frames) < 3 {
		t.Fatalf("frames = %d, want render + closing + clear", len(frames))
	}
	if !strings.Contains(frames[len(frames)-2], "closing") {
		t.Fatal("no closing frame painted")
	}
	if frames[len(frames)-1] != "" {
		t.Fatal("region not cleared")
	}

	if input.IsVisible() {
		t.Fatal("element still visible after destroy")
	}
	before := len(r.Frames())
	input.Focus()
	rd.Confirm().SetValue("x")
	if err := r.Update(rd, prepare(t, &iomodal.Options{Title: iomodal.String("zombie")})); err != nil {
		t.Fatal(err)
	}
	if got := len(r.Frames()); got != before {
		t.Fatalf("destroyed surface painted %d extra frames", got-before)
	}

	// A second destroy is a no-op.
	r.Destroy(rd, iomodal.DestroyOptions{})
	if got := len(r.Frames()); got != before {
		t.Fatal("repeat destroy painted")
	}
}

// TestRenderer_DestroyWithoutHideClass verifies the no-animation teardown
// skips the closing frame.
func TestRenderer_DestroyWithoutHideClass(t *testing.T) {
	r := NewFake()
	rd, err := r.Render(prepare(t, &iomodal.Options{Title: iomodal.String("snap")}))
	if err != nil {
		t.Fatal(err)
	}
	r.Destroy(rd, iomodal.DestroyOptions{Variant: iomodal.VariantModal})
	frames := r.Frames()
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want render + clear", len(frames))
	}
	if frames[1] != "" {
		t.Fatal("region not cleared")
	}
}

// TestBar_Drain verifies the countdown bar's fill fraction follows the
// animated remainder.
func TestBar_Drain(t *testing.T) {
	b := newBar(nil)
	if got := b.fraction(); got != 0 {
		t.Fatalf("idle fraction = %v, want 0", got)
	}

	b.Animate(time.Hour)
	if got := b.fraction(); got < 0.99 {
		t.Fatalf("fresh fraction = %v, want ~1", got)
	}

	b.Animate(30 * time.Minute)
	if got := b.fraction(); got < 0.45 || got > 0.55 {
		t.Fatalf("half-drained fraction = %v, want ~0.5", got)
	}

	b.Stop()
	frozen := b.fraction()
	time.Sleep(20 * time.Millisecond)
	if got := b.fraction(); got != frozen {
		t.Fatalf("stopped bar moved: %v -> %v", frozen, got)
	}
}

// TestRenderer_DrivesDialog verifies the renderer against the real
// lifecycle: fire, focus, confirm, teardown.
func TestRenderer_DrivesDialog(t *testing.T) {
	l, err := iomodal.New()
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = l.Run(context.Background()) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.Shutdown(ctx)
	})

	r := NewFake()
	reg, err := iomodal.NewRegistry(l, r)
	if err != nil {
		t.Fatal(err)
	}

	d, p := reg.Fire(&iomodal.Options{
		Title:      iomodal.String("Name?"),
		Input:      iomodal.String("text"),
		InputValue: iomodal.String("anon"),
	})
	if !d.IsVisible() {
		t.Fatal("dialog not visible")
	}
	input := d.GetInput()
	if input == nil {
		t.Fatal("no input element")
	}
	if !input.(*Element).IsFocused() {
		t.Fatal("input did not receive focus")
	}
	input.SetValue("ada")

	if !d.ClickConfirm() {
		t.Fatal("ClickConfirm = false")
	}
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("settlement timeout")
	}
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}
	res := p.Value()
	if !res.IsConfirmed || res.Value != "ada" {
		t.Fatalf("result = %+v, want confirmed ada", res)
	}
	if last := r.LastFrame(); last != "" {
		t.Fatalf("surface not cleared after close: %q", last)
	}
}
