package iomodal

import (
	"errors"
	"testing"
	"time"
)

// TestFacade_NoActiveDialog verifies every forwarding method degrades to
// false or zero values when nothing is open.
func TestFacade_NoActiveDialog(t *testing.T) {
	_, _, reg := newTestRig(t)

	for name, fn := range map[string]func() bool{
		"CloseActive":            func() bool { return reg.CloseActive(Confirmed(nil)) },
		"UpdateActive":           func() bool { return reg.UpdateActive(&Options{Title: String("x")}) },
		"RejectActive":           func() bool { return reg.RejectActive(errors.New("boom")) },
		"ClickConfirm":           reg.ClickConfirm,
		"ClickDeny":              reg.ClickDeny,
		"ClickCancel":            reg.ClickCancel,
		"ClickClose":             reg.ClickClose,
		"HandleKey":              func() bool { return reg.HandleKey(KeyEnter) },
		"HandleBackdropClick":    reg.HandleBackdropClick,
		"IsVisible":              reg.IsVisible,
		"IsLoading":              reg.IsLoading,
		"IsTimerRunning":         reg.IsTimerRunning,
		"StopTimer":              reg.StopTimer,
		"PauseTimer":             reg.PauseTimer,
		"ResumeTimer":            reg.ResumeTimer,
		"ToggleTimer":            reg.ToggleTimer,
		"DisableButtons":         reg.DisableButtons,
		"EnableButtons":          reg.EnableButtons,
		"DisableInput":           reg.DisableInput,
		"EnableInput":            reg.EnableInput,
		"ShowValidationMessage":  func() bool { return reg.ShowValidationMessage("msg") },
		"ResetValidationMessage": reg.ResetValidationMessage,
		"ShowLoading":            reg.ShowLoading,
		"HideLoading":            reg.HideLoading,
	} {
		if fn() {
			t.Errorf("%s = true with no active dialog", name)
		}
	}
	if left, ok := reg.GetTimerLeft(); ok || left != 0 {
		t.Fatalf("GetTimerLeft = (%v, %v), want (0, false)", left, ok)
	}
	if left, ok := reg.IncreaseTimer(time.Second); ok || left != 0 {
		t.Fatalf("IncreaseTimer = (%v, %v), want (0, false)", left, ok)
	}
	if reg.GetInput() != nil {
		t.Fatal("GetInput != nil with no active dialog")
	}
	if _, err := reg.GetInputValue(); !errors.Is(err, ErrNoActiveDialog) {
		t.Fatalf("GetInputValue error = %v, want ErrNoActiveDialog", err)
	}
}

// TestFacade_ForwardsToCurrent verifies the registry surface drives
// whichever dialog is open.
func TestFacade_ForwardsToCurrent(t *testing.T) {
	_, renderer, reg := newTestRig(t)

	_, p := reg.Fire(&Options{
		Title:          String("facade"),
		Input:          String("text"),
		InputValue:     String("typed"),
		Timer:          Duration(time.Hour),
		ShowDenyButton: Bool(true),
	})

	if !reg.IsVisible() {
		t.Fatal("IsVisible = false with an open dialog")
	}
	if !reg.UpdateActive(&Options{Title: String("renamed")}) {
		t.Fatal("UpdateActive = false")
	}
	if got := renderer.lastUpdate().Title(); got != "renamed" {
		t.Fatalf("updated title = %q, want %q", got, "renamed")
	}

	if got, err := reg.GetInputValue(); err != nil || got != "typed" {
		t.Fatalf("GetInputValue = (%v, %v), want (typed, nil)", got, err)
	}
	if reg.GetInput() == nil {
		t.Fatal("GetInput = nil with an input configured")
	}

	if !reg.IsTimerRunning() {
		t.Fatal("IsTimerRunning = false")
	}
	if !reg.PauseTimer() {
		t.Fatal("PauseTimer = false")
	}
	if reg.IsTimerRunning() {
		t.Fatal("IsTimerRunning = true after pause")
	}
	if !reg.ResumeTimer() {
		t.Fatal("ResumeTimer = false")
	}
	if left, ok := reg.GetTimerLeft(); !ok || left <= 0 {
		t.Fatalf("GetTimerLeft = (%v, %v)", left, ok)
	}
	if left, ok := reg.IncreaseTimer(time.Hour); !ok || left <= time.Hour {
		t.Fatalf("IncreaseTimer = (%v, %v)", left, ok)
	}

	if !reg.ShowValidationMessage("nope") {
		t.Fatal("ShowValidationMessage = false")
	}
	if !reg.ResetValidationMessage() {
		t.Fatal("ResetValidationMessage = false")
	}
	if !reg.DisableButtons() || !reg.EnableButtons() {
		t.Fatal("button toggles failed")
	}
	if !reg.DisableInput() || !reg.EnableInput() {
		t.Fatal("input toggles failed")
	}
	if !reg.ShowLoading() {
		t.Fatal("ShowLoading = false")
	}
	if !reg.IsLoading() {
		t.Fatal("IsLoading = false while loading")
	}
	if !reg.HideLoading() {
		t.Fatal("HideLoading = false")
	}

	if !reg.ClickDeny() {
		t.Fatal("ClickDeny = false")
	}
	res, err := awaitSettled(t, p)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsDenied {
		t.Fatal("result not denied")
	}
	if reg.IsVisible() {
		t.Fatal("IsVisible = true after close")
	}
}

// TestFacade_RejectActive verifies rejection through the registry surface.
func TestFacade_RejectActive(t *testing.T) {
	_, _, reg := newTestRig(t)

	_, p := reg.Fire(&Options{Title: String("doomed")})
	cause := errors.New("backend unavailable")
	if !reg.RejectActive(cause) {
		t.Fatal("RejectActive = false")
	}
	if !reg.IsVisible() {
		t.Fatal("rejection should not close the dialog")
	}
	if !reg.CloseActive(Result{}) {
		t.Fatal("CloseActive = false")
	}
	if _, err := awaitSettled(t, p); !errors.Is(err, cause) {
		t.Fatalf("settlement error = %v, want %v", err, cause)
	}
}
