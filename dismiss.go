package iomodal

// DismissReason describes why a dialog was dismissed, for results where
// IsDismissed is true. The set is closed: every dismissal maps onto exactly
// one of these values, and a programmatic close without an explicit reason
// leaves the result's Dismiss field as [DismissNone].
type DismissReason int

const (
	// DismissNone is the zero value, present on results that are not
	// dismissals (or on closes that carried no reason).
	DismissNone DismissReason = iota

	// DismissCancel indicates the cancel button was activated.
	DismissCancel

	// DismissBackdrop indicates a click on the backdrop outside the popup.
	DismissBackdrop

	// DismissClose indicates the close button was activated.
	DismissClose

	// DismissEsc indicates the escape key was pressed.
	DismissEsc

	// DismissTimer indicates the auto-dismiss timer expired.
	DismissTimer
)

// String returns the wire-stable name of the reason. [DismissNone] yields
// the empty string.
func (r DismissReason) String() string {
	switch r {
	case DismissCancel:
		return "cancel"
	case DismissBackdrop:
		return "backdrop"
	case DismissClose:
		return "close"
	case DismissEsc:
		return "esc"
	case DismissTimer:
		return "timer"
	default:
		return ""
	}
}
