package iomodal

// acquireFocus selects exactly one element to receive input focus when a
// dialog opens. The fallback chain, first match wins:
//
//  1. Toasts never steal focus.
//  2. AllowEnterKey false blurs whatever holds focus and stops (legacy
//     escape hatch).
//  3. The first visible element marked auto-focus.
//  4. The deny, cancel, or confirm button, in that order, when its focus
//     directive is set and the button is visible.
//  5. The first visible focusable element in the popup, else nothing.
func acquireFocus(renderer Renderer, rendered Rendered, cfg *Config) {
	if cfg.Toast() {
		return
	}

	if !cfg.AllowEnterKey() {
		if active := renderer.ActiveElement(); active != nil {
			active.Blur()
		}
		return
	}

	for _, el := range rendered.FocusCandidates() {
		if el != nil && el.HasAutoFocus() && el.IsVisible() {
			el.Focus()
			return
		}
	}

	// Button directive order: deny, cancel, confirm. Observable; keep it.
	if cfg.FocusDeny() && focusIfVisible(rendered.Deny()) {
		return
	}
	if cfg.FocusCancel() && focusIfVisible(rendered.Cancel()) {
		return
	}
	if cfg.FocusConfirm() && focusIfVisible(rendered.Confirm()) {
		return
	}

	for _, el := range rendered.FocusCandidates() {
		if el != nil && el.IsVisible() && el.IsFocusable() {
			el.Focus()
			return
		}
	}
}

func focusIfVisible(el Element) bool {
	if el == nil || !el.IsVisible() {
		return false
	}
	el.Focus()
	return true
}
