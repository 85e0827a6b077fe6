// Command iomodal-demo exercises the dialog lifecycle end to end on a
// terminal: loop, registry, termrender surface, templates, timers, and
// structured logging. The dialog drives itself (a scheduled confirm or the
// auto-dismiss timer) so the demo runs unattended.
//
// Usage:
//
//	iomodal-demo [--title s] [--text s] [--icon name] [--input type]
//	             [--timer d] [--toast] [--template file] [--log-level lvl]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	iomodal "github.com/koad/io-modal"
	"github.com/koad/io-modal/termrender"
)

// levelValue is a pflag.Value for logiface levels, accepting the syslog
// short keywords ("debug", "info", "warning", "err", ...).
type levelValue struct {
	level logiface.Level
}

var _ pflag.Value = (*levelValue)(nil)

func (v *levelValue) String() string { return v.level.String() }

func (v *levelValue) Type() string { return "level" }

func (v *levelValue) Set(s string) error {
	for _, l := range []logiface.Level{
		logiface.LevelDisabled,
		logiface.LevelError,
		logiface.LevelWarning,
		logiface.LevelNotice,
		logiface.LevelInformational,
		logiface.LevelDebug,
		logiface.LevelTrace,
	} {
		if l.String() == s {
			v.level = l
			return nil
		}
	}
	return fmt.Errorf("unknown level %q", s)
}

var (
	flagTitle    string
	flagText     string
	flagIcon     string
	flagInput    string
	flagTimer    time.Duration
	flagToast    bool
	flagTemplate string
	flagLevel    = levelValue{level: logiface.LevelInformational}
)

var rootCmd = &cobra.Command{
	Use:   "iomodal-demo",
	Short: "Drive an io-modal dialog on this terminal",
	Long: `iomodal-demo fires a single dialog, paints it with the terminal renderer,
and prints the settled result. With --timer the dialog dismisses itself;
otherwise a confirm is scheduled after one second. A --template YAML file
supplies the declarative layer beneath the flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagTitle, "title", "Hello from io-modal", "dialog title")
	f.StringVar(&flagText, "text", "", "dialog body text")
	f.StringVar(&flagIcon, "icon", "info", "icon name (success, error, warning, info, question)")
	f.StringVar(&flagInput, "input", "", "input type to render (e.g. text)")
	f.DurationVar(&flagTimer, "timer", 0, "auto-dismiss after this duration")
	f.BoolVar(&flagToast, "toast", false, "render as a toast")
	f.StringVar(&flagTemplate, "template", "", "YAML template file for the declarative layer")
	f.Var(&flagLevel, "log-level", "log level (debug, info, warning, err, disabled)")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(flagLevel.level),
	).Logger()

	loop, err := iomodal.New(iomodal.WithLogger(logger))
	if err != nil {
		return err
	}
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	renderer, err := termrender.New(os.Stdout)
	if err != nil {
		return err
	}
	registry, err := iomodal.NewRegistry(loop, renderer, iomodal.WithRegistryLogger(logger))
	if err != nil {
		return err
	}

	var template *iomodal.Template
	if flagTemplate != "" {
		data, err := os.ReadFile(flagTemplate)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		var warnings []iomodal.Warning
		template, warnings, err = iomodal.ParseTemplate(data)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			logger.Warning().Str("category", "template").Log(w.String())
		}
	}

	opts := &iomodal.Options{
		Title: iomodal.String(flagTitle),
	}
	if flagText != "" {
		opts.Text = iomodal.String(flagText)
	}
	if flagIcon != "" {
		opts.Icon = iomodal.String(flagIcon)
	}
	if flagInput != "" {
		opts.Input = iomodal.String(flagInput)
	}
	if flagToast {
		opts.Toast = iomodal.Bool(true)
	}
	if flagTimer > 0 {
		opts.Timer = iomodal.Duration(flagTimer)
		opts.TimerProgressBar = iomodal.Bool(true)
	}

	_, promise := registry.FireTemplate(template, opts)

	// Self-driving: without a timer, confirm after a second.
	if flagTimer <= 0 && (template == nil || !registry.IsTimerRunning()) {
		if _, err := loop.ScheduleTimer(time.Second, func() {
			registry.ClickConfirm()
		}); err != nil {
			return err
		}
	}

	result, err := promise.Await(ctx)
	if err != nil {
		return err
	}
	switch {
	case result.IsConfirmed:
		fmt.Printf("confirmed (value: %v)\n", result.Value)
	case result.IsDenied:
		fmt.Printf("denied (value: %v)\n", result.Value)
	default:
		fmt.Printf("dismissed (%s)\n", result.Dismiss)
	}

	if err := loop.Shutdown(ctx); err != nil {
		return err
	}
	return <-loopDone
}
