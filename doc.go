// Package iomodal provides a renderer-agnostic modal dialog lifecycle
// controller, featuring a single-goroutine event loop, single-settlement
// result promises, pausable auto-dismiss timers, and layered configuration
// with declarative templates.
//
// # Architecture
//
// The controller is built around a [Loop] core that manages task scheduling,
// timer processing, and microtask draining. A [Registry] owns the at-most-one
// visible [Dialog] and provides the construction surface ([Registry.Fire],
// [Registry.Mixin]) plus forwarding operations that target whichever dialog
// is currently open ([Registry.CloseActive], [Registry.ClickConfirm],
// [Registry.GetTimerLeft], and friends).
//
// Each [Dialog] settles exactly one [ResultPromise] with a [Result] whose
// IsConfirmed, IsDenied, and IsDismissed fields are mutually exclusive.
// Dismissals carry a [DismissReason] from the closed set cancel, backdrop,
// close, esc, and timer.
//
// # Rendering
//
// Presentation is out of scope. The controller drives an opaque [Renderer]
// and inspects painted state through [Rendered] and [Element] handles; it has
// no knowledge of markup, styling, or layout. The termrender subpackage
// provides a reference terminal renderer, and tests use in-memory fakes.
//
// # Thread Safety
//
// The loop is designed for concurrent access:
//   - [Loop.Submit] and [Loop.SubmitInternal] are safe to call from any goroutine
//   - [Loop.ScheduleTimer] and [Loop.CancelTimer] are thread-safe
//   - Result promise continuations always execute on the loop goroutine
//   - Dialog and Registry mutators are mutex-guarded, but lifecycle hooks and
//     renderer calls execute on the calling goroutine; drive interaction
//     through the loop (the natural shape for callback-driven hosts)
//
// # Execution Model
//
// Task priority ordering within each tick:
//  1. Timer callbacks (earliest deadline first)
//  2. Internal queue tasks ([Loop.SubmitInternal])
//  3. External queue tasks ([Loop.Submit])
//  4. Microtasks (drained after each phase)
//
// # Usage
//
//	loop, err := iomodal.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg, err := iomodal.NewRegistry(loop, renderer)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	loop.Submit(func() {
//	    _, result := reg.Fire(&iomodal.Options{
//	        Title:             iomodal.String("Delete file?"),
//	        ShowCancelButton:  iomodal.Bool(true),
//	        ConfirmButtonText: iomodal.String("Delete"),
//	    })
//	    result.Then(func(r iomodal.Result) {
//	        if r.IsConfirmed {
//	            fmt.Println("confirmed")
//	        }
//	        // Continuations run on the loop goroutine; shut down from
//	        // another one so the loop can drain.
//	        go loop.Shutdown(context.Background())
//	    })
//	})
//
//	if err := loop.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Types
//
// The package provides structured error types:
//   - [PanicError]: wraps recovered panics from callbacks and pre-actions
//   - [ValidationError]: soft pre-action failure that re-shows the dialog's
//     validation message instead of settling the result
//   - [ErrLoopTerminated], [ErrTimerNotFound], [ErrDialogDestroyed], and
//     friends for lifecycle faults
//
// All error types implement the standard [error] interface and, where they
// wrap a cause, [errors.Unwrap].
package iomodal
