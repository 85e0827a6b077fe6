package iomodal

import (
	"time"

	"github.com/joeycumines/logiface"
)

// loopOptions holds configuration options for Loop creation.
type loopOptions struct {
	logger      *logiface.Logger[logiface.Event]
	clock       func() time.Time
	maxIdleWait time.Duration
}

// --- Loop Options ---

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger attaches a structured logger to the loop. Task panics, timer
// activity, and shutdown progress are reported through it. A nil logger
// disables logging (the default); logiface loggers are nil-receiver safe, so
// no guard is required at call sites.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithClock overrides the time source used for timer scheduling.
// Intended for tests; the default is time.Now.
func WithClock(now func() time.Time) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.clock = now
		return nil
	}}
}

// WithMaxIdleWait caps how long the loop sleeps when no timers are pending.
// The default is 10s. Shorter values trade CPU for shutdown latency in hosts
// that terminate the loop without waking it.
func WithMaxIdleWait(d time.Duration) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if d <= 0 {
			return &ConfigError{Param: "maxIdleWait", Message: "must be positive"}
		}
		opts.maxIdleWait = d
		return nil
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		clock:       time.Now,
		maxIdleWait: 10 * time.Second, // default
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// registryOptions holds configuration options for Registry creation.
type registryOptions struct {
	logger            *logiface.Logger[logiface.Event]
	restoreFocusDelay time.Duration
}

// --- Registry Options ---

// RegistryOption configures a Registry instance.
type RegistryOption interface {
	applyRegistry(*registryOptions) error
}

// registryOptionImpl implements RegistryOption.
type registryOptionImpl struct {
	applyRegistryFunc func(*registryOptions) error
}

func (r *registryOptionImpl) applyRegistry(opts *registryOptions) error {
	return r.applyRegistryFunc(opts)
}

// WithRegistryLogger attaches a structured logger to the registry and the
// dialogs it constructs. Configuration warnings, lifecycle traces, and focus
// activity are reported through it. A nil logger disables logging.
func WithRegistryLogger(logger *logiface.Logger[logiface.Event]) RegistryOption {
	return &registryOptionImpl{func(opts *registryOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithRestoreFocusDelay sets the delay before focus is restored to the
// previously focused element after a dialog closes. The restoration task is
// cancelled if another dialog opens first. The default is 100ms.
func WithRestoreFocusDelay(d time.Duration) RegistryOption {
	return &registryOptionImpl{func(opts *registryOptions) error {
		if d < 0 {
			return &ConfigError{Param: "restoreFocusDelay", Message: "must not be negative"}
		}
		opts.restoreFocusDelay = d
		return nil
	}}
}

// resolveRegistryOptions applies RegistryOption instances to registryOptions.
func resolveRegistryOptions(opts []RegistryOption) (*registryOptions, error) {
	cfg := &registryOptions{
		restoreFocusDelay: 100 * time.Millisecond, // default
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyRegistry(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
