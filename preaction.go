package iomodal

import "errors"

type actionKind int

const (
	actionConfirm actionKind = iota
	actionDeny
)

func (k actionKind) result(value any) Result {
	if k == actionDeny {
		return Denied(value)
	}
	return Confirmed(value)
}

func (k actionKind) String() string {
	if k == actionDeny {
		return "preDeny"
	}
	return "preConfirm"
}

// runPreAction executes a caller-supplied confirm/deny action on its own
// goroutine while the dialog shows loading and counts as awaiting. The
// outcome is marshalled back onto the loop via SubmitInternal so settlement
// stays single-owner; if the loop is already gone it settles directly so
// the promise can never hang.
//
// Guarantees: a panic rejects with [PanicError]; runtime.Goexit rejects
// with [ErrGoexit]; the awaiting flag is always cleared.
func (d *Dialog) runPreAction(kind actionKind, action PreAction, value any) {
	done, err := d.loop.trackAsync()
	if err != nil {
		d.promise.reject(err)
		return
	}

	d.awaiting.Store(true)
	d.ShowLoading()

	go func() {
		defer done()

		// Distinguishes normal return from runtime.Goexit.
		completed := false
		defer func() {
			if r := recover(); r != nil {
				d.settlePreAction(kind, value, nil, PanicError{Value: r})
			} else if !completed {
				d.settlePreAction(kind, value, nil, ErrGoexit)
			}
		}()

		out, actionErr := action(value)
		completed = true
		d.settlePreAction(kind, value, out, actionErr)
	}()
}

// settlePreAction routes the outcome onto the loop goroutine, settling
// directly when the loop refuses the task.
func (d *Dialog) settlePreAction(kind actionKind, value, out any, err error) {
	finish := func() { d.finishPreAction(kind, value, out, err) }
	if submitErr := d.loop.SubmitInternal(finish); submitErr != nil {
		finish()
	}
}

// finishPreAction applies a completed pre-action outcome:
//
//   - a [*ValidationError] re-presents the dialog with the message, the
//     promise stays pending;
//   - any other error rejects the promise, the dialog stays open;
//   - a literal false return keeps the dialog open without an error;
//   - a nil return confirms/denies with the original input value, anything
//     else with the returned value.
//
// When the dialog was evicted mid-action the promise is settled directly:
// this is the one path where an awaiting dialog's settlement arrives after
// destruction.
func (d *Dialog) finishPreAction(kind actionKind, value, out any, err error) {
	d.awaiting.Store(false)

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		if !d.IsVisible() {
			// Evicted while validating; nothing to re-present.
			d.promise.reject(verr)
			return
		}
		d.HideLoading()
		d.ShowValidationMessage(verr.Message)
	case err != nil:
		d.logger.Warning().Str("category", "dialog").Str("action", kind.String()).Err(err).Log("pre-action failed")
		d.HideLoading()
		d.promise.reject(err)
	default:
		if keepOpen, ok := out.(bool); ok && !keepOpen {
			d.HideLoading()
			return
		}
		if out == nil {
			out = value
		}
		res := kind.result(out)
		if !d.closeWith(res, VariantAuto) {
			// Evicted while awaiting; the action still owns settlement.
			d.promise.resolve(res)
		}
	}
}
