package iomodal

import "time"

// Facade surface: every method below forwards to whichever dialog is
// currently open and reports false (or zero values) when none is. This is a
// convenience shim over [Registry.Current], not additional state; prefer
// holding the *Dialog from Fire when you have it.

// CloseActive closes the current dialog with the given partial result.
func (g *Registry) CloseActive(partial Result) bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.Close(partial)
}

// UpdateActive re-configures the current dialog.
func (g *Registry) UpdateActive(partial *Options) bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.Update(partial) == nil
}

// RejectActive fails the current dialog's pending result.
func (g *Registry) RejectActive(err error) bool {
	d := g.Current()
	if d == nil {
		return false
	}
	d.RejectPromise(err)
	return true
}

// ClickConfirm triggers the confirm path on the current dialog.
func (g *Registry) ClickConfirm() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ClickConfirm()
}

// ClickDeny triggers the deny path on the current dialog.
func (g *Registry) ClickDeny() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ClickDeny()
}

// ClickCancel triggers the cancel path on the current dialog.
func (g *Registry) ClickCancel() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ClickCancel()
}

// ClickClose triggers the close-button path on the current dialog.
func (g *Registry) ClickClose() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ClickClose()
}

// HandleKey routes a key press to the current dialog.
func (g *Registry) HandleKey(k Key) bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.HandleKey(k)
}

// HandleBackdropClick routes a backdrop click to the current dialog.
func (g *Registry) HandleBackdropClick() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.HandleBackdropClick()
}

// IsVisible reports whether a dialog is currently shown.
func (g *Registry) IsVisible() bool {
	d := g.Current()
	return d != nil && d.IsVisible()
}

// IsLoading reports whether the current dialog is in the loading state.
func (g *Registry) IsLoading() bool {
	d := g.Current()
	return d != nil && d.IsLoading()
}

// GetTimerLeft returns the current dialog's remaining auto-dismiss
// duration.
func (g *Registry) GetTimerLeft() (time.Duration, bool) {
	d := g.Current()
	if d == nil {
		return 0, false
	}
	return d.GetTimerLeft()
}

// IsTimerRunning reports whether the current dialog's countdown is running.
func (g *Registry) IsTimerRunning() bool {
	d := g.Current()
	return d != nil && d.IsTimerRunning()
}

// StopTimer stops the current dialog's auto-dismiss timer.
func (g *Registry) StopTimer() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.StopTimer()
}

// PauseTimer pauses the current dialog's auto-dismiss timer.
func (g *Registry) PauseTimer() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.PauseTimer()
}

// ResumeTimer resumes the current dialog's auto-dismiss timer.
func (g *Registry) ResumeTimer() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ResumeTimer()
}

// ToggleTimer toggles the current dialog's auto-dismiss timer.
func (g *Registry) ToggleTimer() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ToggleTimer()
}

// IncreaseTimer extends the current dialog's countdown by delta.
func (g *Registry) IncreaseTimer(delta time.Duration) (time.Duration, bool) {
	d := g.Current()
	if d == nil {
		return 0, false
	}
	return d.IncreaseTimer(delta)
}

// DisableButtons disables the current dialog's action buttons.
func (g *Registry) DisableButtons() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.DisableButtons()
}

// EnableButtons re-enables the current dialog's action buttons.
func (g *Registry) EnableButtons() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.EnableButtons()
}

// DisableInput disables the current dialog's input.
func (g *Registry) DisableInput() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.DisableInput()
}

// EnableInput re-enables the current dialog's input.
func (g *Registry) EnableInput() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.EnableInput()
}

// ShowValidationMessage surfaces a validation message on the current
// dialog.
func (g *Registry) ShowValidationMessage(message string) bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ShowValidationMessage(message)
}

// ResetValidationMessage clears the current dialog's validation message.
func (g *Registry) ResetValidationMessage() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ResetValidationMessage()
}

// ShowLoading puts the current dialog into the loading state.
func (g *Registry) ShowLoading() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.ShowLoading()
}

// HideLoading leaves the current dialog's loading state.
func (g *Registry) HideLoading() bool {
	d := g.Current()
	if d == nil {
		return false
	}
	return d.HideLoading()
}

// GetInput returns the current dialog's input element, or nil.
func (g *Registry) GetInput() Element {
	d := g.Current()
	if d == nil {
		return nil
	}
	return d.GetInput()
}

// GetInputValue returns the current dialog's input value, or
// [ErrNoActiveDialog] when none is open.
func (g *Registry) GetInputValue() (any, error) {
	d := g.Current()
	if d == nil {
		return nil, ErrNoActiveDialog
	}
	return d.GetInputValue()
}
