// Package gojadialog binds the io-modal dialog surface into a Goja
// JavaScript runtime.
//
// After [Adapter.Bind], scripts get a `modal` global with a fire-and-then
// surface:
//
//	modal.fire({title: "Save?", showCancelButton: true}).then(r => {
//	    if (r.isConfirmed) { /* ... */ }
//	});
//
// fire returns a thenable backed by the dialog's result promise; then,
// catch, and finally handlers run as loop microtasks. Option keys mirror
// the Go Options fields in camelCase (the same set the YAML templates
// use), plus preConfirm/preDeny functions and the lifecycle hooks.
//
// # Thread safety
//
// A Goja runtime is not thread-safe. Everything the adapter binds must be
// driven from the loop goroutine: run scripts via [iomodal.Loop.Submit] (or
// from loop callbacks), and the adapter marshals preConfirm/preDeny
// execution back onto the loop itself. Handlers registered through the
// thenable run on the loop goroutine by construction.
package gojadialog

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	iomodal "github.com/koad/io-modal"
)

// Adapter bridges a dialog registry to a Goja runtime.
type Adapter struct {
	registry        *iomodal.Registry
	runtime         *goja.Runtime
	resultPrototype *goja.Object
}

// New creates an adapter for the given registry and runtime.
func New(registry *iomodal.Registry, runtime *goja.Runtime) (*Adapter, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if runtime == nil {
		return nil, fmt.Errorf("runtime cannot be nil")
	}
	return &Adapter{registry: registry, runtime: runtime}, nil
}

// Registry returns the dialog registry.
func (a *Adapter) Registry() *iomodal.Registry {
	return a.registry
}

// Runtime returns the Goja runtime.
func (a *Adapter) Runtime() *goja.Runtime {
	return a.runtime
}

// Bind installs the `modal` global. See the package documentation for the
// surface it exposes.
func (a *Adapter) Bind() error {
	return a.BindAs("modal")
}

// BindAs installs the dialog surface under the given global name.
func (a *Adapter) BindAs(name string) error {
	if name == "" {
		return fmt.Errorf("global name cannot be empty")
	}
	a.bindResultPrototype()

	obj := a.runtime.NewObject()
	_ = obj.Set("fire", a.fire)
	_ = obj.Set("close", a.close)
	_ = obj.Set("update", a.update)
	_ = obj.Set("clickConfirm", a.clickConfirm)
	_ = obj.Set("clickDeny", a.clickDeny)
	_ = obj.Set("clickCancel", a.clickCancel)
	_ = obj.Set("isVisible", a.isVisible)
	_ = obj.Set("isLoading", a.isLoading)
	_ = obj.Set("getTimerLeft", a.getTimerLeft)
	_ = obj.Set("stopTimer", a.stopTimer)
	_ = obj.Set("pauseTimer", a.pauseTimer)
	_ = obj.Set("resumeTimer", a.resumeTimer)
	_ = obj.Set("toggleTimer", a.toggleTimer)
	_ = obj.Set("increaseTimer", a.increaseTimer)
	_ = obj.Set("showLoading", a.showLoading)
	_ = obj.Set("hideLoading", a.hideLoading)
	_ = obj.Set("showValidationMessage", a.showValidationMessage)
	_ = obj.Set("resetValidationMessage", a.resetValidationMessage)
	_ = obj.Set("getInputValue", a.getInputValue)

	return a.runtime.Set(name, obj)
}

// fire binding: modal.fire(options) -> thenable result.
func (a *Adapter) fire(call goja.FunctionCall) goja.Value {
	opts, err := a.optionsFromValue(call.Argument(0))
	if err != nil {
		panic(a.runtime.NewTypeError(err.Error()))
	}
	_, p := a.registry.Fire(opts)
	return a.wrapResult(p)
}

// close binding: modal.close(result?) -> bool.
func (a *Adapter) close(call goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.CloseActive(a.resultFromValue(call.Argument(0))))
}

// update binding: modal.update(options) -> bool.
func (a *Adapter) update(call goja.FunctionCall) goja.Value {
	opts, err := a.optionsFromValue(call.Argument(0))
	if err != nil {
		panic(a.runtime.NewTypeError(err.Error()))
	}
	return a.runtime.ToValue(a.registry.UpdateActive(opts))
}

func (a *Adapter) clickConfirm(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.ClickConfirm())
}

func (a *Adapter) clickDeny(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.ClickDeny())
}

func (a *Adapter) clickCancel(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.ClickCancel())
}

func (a *Adapter) isVisible(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.IsVisible())
}

func (a *Adapter) isLoading(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.IsLoading())
}

// getTimerLeft binding: remaining milliseconds, or undefined when no timer
// is armed.
func (a *Adapter) getTimerLeft(goja.FunctionCall) goja.Value {
	left, ok := a.registry.GetTimerLeft()
	if !ok {
		return goja.Undefined()
	}
	return a.runtime.ToValue(float64(left) / float64(time.Millisecond))
}

func (a *Adapter) stopTimer(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.StopTimer())
}

func (a *Adapter) pauseTimer(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.PauseTimer())
}

func (a *Adapter) resumeTimer(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.ResumeTimer())
}

func (a *Adapter) toggleTimer(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.ToggleTimer())
}

// increaseTimer binding: modal.increaseTimer(ms) -> new remaining
// milliseconds, or undefined when no timer is armed.
func (a *Adapter) increaseTimer(call goja.FunctionCall) goja.Value {
	delta := time.Duration(call.Argument(0).ToFloat() * float64(time.Millisecond))
	left, ok := a.registry.IncreaseTimer(delta)
	if !ok {
		return goja.Undefined()
	}
	return a.runtime.ToValue(float64(left) / float64(time.Millisecond))
}

func (a *Adapter) showLoading(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.ShowLoading())
}

func (a *Adapter) hideLoading(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.HideLoading())
}

func (a *Adapter) showValidationMessage(call goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.ShowValidationMessage(call.Argument(0).String()))
}

func (a *Adapter) resetValidationMessage(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(a.registry.ResetValidationMessage())
}

// getInputValue binding: the current dialog's input value, or undefined.
func (a *Adapter) getInputValue(goja.FunctionCall) goja.Value {
	v, err := a.registry.GetInputValue()
	if err != nil {
		return goja.Undefined()
	}
	return a.runtime.ToValue(v)
}

// optionsFromValue maps a JS options object onto [iomodal.Options]. A
// missing, null, or undefined argument yields nil options.
func (a *Adapter) optionsFromValue(v goja.Value) (*iomodal.Options, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	obj := v.ToObject(a.runtime)
	if obj == nil {
		return nil, fmt.Errorf("options must be an object")
	}

	var o iomodal.Options
	o.Title = getString(obj, "title")
	o.Text = getString(obj, "text")
	o.Icon = getString(obj, "icon")
	o.Toast = getBool(obj, "toast")
	o.Animation = getBool(obj, "animation")
	o.TimerProgressBar = getBool(obj, "timerProgressBar")
	o.FocusConfirm = getBool(obj, "focusConfirm")
	o.FocusDeny = getBool(obj, "focusDeny")
	o.FocusCancel = getBool(obj, "focusCancel")
	o.ShowConfirmButton = getBool(obj, "showConfirmButton")
	o.ShowDenyButton = getBool(obj, "showDenyButton")
	o.ShowCancelButton = getBool(obj, "showCancelButton")
	o.ShowCloseButton = getBool(obj, "showCloseButton")
	o.ConfirmButtonText = getString(obj, "confirmButtonText")
	o.DenyButtonText = getString(obj, "denyButtonText")
	o.CancelButtonText = getString(obj, "cancelButtonText")
	o.Input = getString(obj, "input")
	o.InputValue = getString(obj, "inputValue")
	o.InputPlaceholder = getString(obj, "inputPlaceholder")
	o.ReturnFocus = getBool(obj, "returnFocus")

	timer, err := getTimer(obj)
	if err != nil {
		return nil, err
	}
	o.Timer = timer

	// allow* keys accept a boolean or a zero-argument predicate. Predicates
	// are invoked directly; see the package thread-safety contract.
	o.AllowEnterKey, o.AllowEnterKeyFunc = a.getAllow(obj, "allowEnterKey")
	o.AllowEscapeKey, o.AllowEscapeKeyFunc = a.getAllow(obj, "allowEscapeKey")
	o.AllowOutsideClick, o.AllowOutsideClickFunc = a.getAllow(obj, "allowOutsideClick")

	o.ShowClass = getClassNames(obj, "showClass")
	o.HideClass = getClassNames(obj, "hideClass")

	if fn, ok := getFunc(obj, "preConfirm"); ok {
		o.PreConfirm = a.preAction(fn)
	}
	if fn, ok := getFunc(obj, "preDeny"); ok {
		o.PreDeny = a.preAction(fn)
	}

	o.WillOpen = a.hook(obj, "willOpen")
	o.DidRender = a.hook(obj, "didRender")
	o.DidOpen = a.hook(obj, "didOpen")
	o.WillClose = a.hook(obj, "willClose")
	o.DidClose = a.hook(obj, "didClose")
	o.DidDestroy = a.hook(obj, "didDestroy")

	return &o, nil
}

// preAction wraps a JS function as a [iomodal.PreAction]. Pre-actions run
// off the loop goroutine, so the call is marshalled back onto the loop
// where the runtime is safe to touch; the wrapper blocks until the JS
// function returns.
func (a *Adapter) preAction(fn goja.Callable) iomodal.PreAction {
	loop := a.registry.Loop()
	return func(value any) (any, error) {
		type outcome struct {
			out any
			err error
		}
		ch := make(chan outcome, 1)
		if err := loop.Submit(func() {
			ret, err := fn(goja.Undefined(), a.runtime.ToValue(value))
			if err != nil {
				ch <- outcome{nil, err}
				return
			}
			ch <- outcome{ret.Export(), nil}
		}); err != nil {
			return nil, err
		}
		o := <-ch
		return o.out, o.err
	}
}

// hook wraps a JS lifecycle hook. Hooks already run on the loop goroutine,
// so the call is direct.
func (a *Adapter) hook(obj *goja.Object, key string) iomodal.HookFunc {
	fn, ok := getFunc(obj, key)
	if !ok {
		return nil
	}
	return func() {
		_, _ = fn(goja.Undefined())
	}
}

// getAllow reads an allow* key as either a boolean or a predicate.
func (a *Adapter) getAllow(obj *goja.Object, key string) (*bool, func() bool) {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	if fn, ok := goja.AssertFunction(v); ok {
		return nil, func() bool {
			ret, err := fn(goja.Undefined())
			if err != nil {
				return false
			}
			return ret.ToBoolean()
		}
	}
	b := v.ToBoolean()
	return &b, nil
}

// resultFromValue maps a JS partial result onto [iomodal.Result]. Missing,
// null, or undefined yields the bare dismissal partial.
func (a *Adapter) resultFromValue(v goja.Value) iomodal.Result {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return iomodal.Result{}
	}
	obj := v.ToObject(a.runtime)
	if obj == nil {
		return iomodal.Result{}
	}
	var res iomodal.Result
	if b := obj.Get("isConfirmed"); b != nil && !goja.IsUndefined(b) {
		res.IsConfirmed = b.ToBoolean()
	}
	if b := obj.Get("isDenied"); b != nil && !goja.IsUndefined(b) {
		res.IsDenied = b.ToBoolean()
	}
	if b := obj.Get("isDismissed"); b != nil && !goja.IsUndefined(b) {
		res.IsDismissed = b.ToBoolean()
	}
	if val := obj.Get("value"); val != nil && !goja.IsUndefined(val) {
		res.Value = val.Export()
	}
	return res
}

// resultToObject maps a settled [iomodal.Result] onto a JS object.
func (a *Adapter) resultToObject(res iomodal.Result) *goja.Object {
	obj := a.runtime.NewObject()
	_ = obj.Set("isConfirmed", res.IsConfirmed)
	_ = obj.Set("isDenied", res.IsDenied)
	_ = obj.Set("isDismissed", res.IsDismissed)
	if res.Dismiss != iomodal.DismissNone {
		_ = obj.Set("dismiss", res.Dismiss.String())
	}
	if res.Value != nil {
		_ = obj.Set("value", a.runtime.ToValue(res.Value))
	}
	return obj
}

// errorToValue converts a settlement error for a JS rejection handler,
// unwrapping Goja exceptions back to their original values.
func (a *Adapter) errorToValue(err error) goja.Value {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.Value()
	}
	return a.runtime.ToValue(err.Error())
}

// wrapResult wraps a result promise as a thenable JS object.
func (a *Adapter) wrapResult(p *iomodal.ResultPromise) goja.Value {
	wrapper := a.runtime.NewObject()
	_ = wrapper.Set("_internalResult", p)
	if a.resultPrototype != nil {
		_ = wrapper.SetPrototype(a.resultPrototype)
	}
	return wrapper
}

// internalResult extracts the wrapped promise from a thenable's receiver.
func (a *Adapter) internalResult(v goja.Value) *iomodal.ResultPromise {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		panic(a.runtime.NewTypeError("called on a non-result object"))
	}
	internal := obj.Get("_internalResult")
	if internal == nil || goja.IsUndefined(internal) {
		panic(a.runtime.NewTypeError("called on a non-result object"))
	}
	p, ok := internal.Export().(*iomodal.ResultPromise)
	if !ok || p == nil {
		panic(a.runtime.NewTypeError("called on a non-result object"))
	}
	return p
}

// bindResultPrototype builds the shared prototype carrying then, catch, and
// finally for fired results.
func (a *Adapter) bindResultPrototype() {
	proto := a.runtime.NewObject()
	a.resultPrototype = proto

	_ = proto.Set("then", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		p := a.internalResult(call.This)
		var child *iomodal.ResultPromise
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			child = p.Then(func(res iomodal.Result) {
				_, _ = fn(goja.Undefined(), a.resultToObject(res))
			})
		} else {
			child = p.Then(nil)
		}
		return a.wrapResult(child)
	}))

	_ = proto.Set("catch", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		p := a.internalResult(call.This)
		var child *iomodal.ResultPromise
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			child = p.Catch(func(err error) {
				_, _ = fn(goja.Undefined(), a.errorToValue(err))
			})
		} else {
			child = p.Catch(nil)
		}
		return a.wrapResult(child)
	}))

	_ = proto.Set("finally", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		p := a.internalResult(call.This)
		var child *iomodal.ResultPromise
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			child = p.Finally(func() {
				_, _ = fn(goja.Undefined())
			})
		} else {
			child = p.Finally(nil)
		}
		return a.wrapResult(child)
	}))
}

// getString reads an optional string property.
func getString(obj *goja.Object, key string) *string {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	s := v.String()
	return &s
}

// getBool reads an optional boolean property.
func getBool(obj *goja.Object, key string) *bool {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	b := v.ToBoolean()
	return &b
}

// getFunc reads an optional function property.
func getFunc(obj *goja.Object, key string) (goja.Callable, bool) {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, false
	}
	return goja.AssertFunction(v)
}

// getTimer reads the timer key: a number of milliseconds or a duration
// string ("2.5s").
func getTimer(obj *goja.Object) (*time.Duration, error) {
	v := obj.Get("timer")
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	switch tv := v.Export().(type) {
	case int64:
		d := time.Duration(tv) * time.Millisecond
		return &d, nil
	case float64:
		d := time.Duration(tv * float64(time.Millisecond))
		return &d, nil
	case string:
		d, err := time.ParseDuration(tv)
		if err != nil {
			return nil, fmt.Errorf("timer: %w", err)
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("timer must be milliseconds or a duration string")
	}
}

// getClassNames reads an optional string-to-string object property.
func getClassNames(obj *goja.Object, key string) iomodal.ClassNames {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	m, ok := v.Export().(map[string]any)
	if !ok {
		return nil
	}
	out := make(iomodal.ClassNames, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
