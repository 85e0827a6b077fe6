package iomodal

// Result is the outcome a dialog settles with. Exactly one of IsConfirmed,
// IsDenied, and IsDismissed is true on any settled result; the settlement
// path guarantees the exclusivity, and partial results passed to
// [Dialog.Close] have their missing fields defaulted to false.
type Result struct {
	// IsConfirmed is true when the positive action was taken.
	IsConfirmed bool

	// IsDenied is true when the explicit negative action was taken
	// (distinct from a dismissal).
	IsDenied bool

	// IsDismissed is true when the dialog went away without an explicit
	// positive or negative action.
	IsDismissed bool

	// Dismiss carries the dismissal reason when IsDismissed is true and the
	// dismissal had one; [DismissNone] otherwise.
	Dismiss DismissReason

	// Value is the payload: the input value for confirmations, or whatever
	// a pre-action resolved with.
	Value any
}

// Confirmed builds a confirmation result carrying value.
func Confirmed(value any) Result {
	return Result{IsConfirmed: true, Value: value}
}

// Denied builds a denial result carrying value.
func Denied(value any) Result {
	return Result{IsDenied: true, Value: value}
}

// Dismissed builds a dismissal result with the given reason.
func Dismissed(reason DismissReason) Result {
	return Result{IsDismissed: true, Dismiss: reason}
}

// normalize enforces the exclusivity invariant on partial results supplied
// by callers: the first true flag in confirmed → denied → dismissed order
// wins and the others are cleared.
func (r Result) normalize() Result {
	switch {
	case r.IsConfirmed:
		r.IsDenied = false
		r.IsDismissed = false
		r.Dismiss = DismissNone
	case r.IsDenied:
		r.IsDismissed = false
		r.Dismiss = DismissNone
	case r.IsDismissed:
	default:
		// A close with no flags at all is recorded as a dismissal without
		// a reason.
		r.IsDismissed = true
	}
	return r
}
