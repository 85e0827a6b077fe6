// Package termrender is a terminal-backed renderer for the io-modal dialog
// core: lipgloss-styled frames written to an io.Writer, with in-memory
// elements standing in for focusable markup. It exists so the lifecycle
// package has one concrete collaborator; it is a reference surface, not a
// theming system.
//
// [New] builds a renderer for a real writer (probing TTY width via
// golang.org/x/term when the writer is a terminal); [NewFake] builds one
// that keeps frames in memory for tests.
package termrender

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	iomodal "github.com/koad/io-modal"
)

const defaultWidth = 60

// renderOptions holds configuration options for Renderer creation.
type renderOptions struct {
	width int
}

// Option configures a Renderer.
type Option interface {
	apply(*renderOptions) error
}

type optionImpl struct {
	applyFunc func(*renderOptions) error
}

func (o *optionImpl) apply(opts *renderOptions) error {
	return o.applyFunc(opts)
}

// WithWidth fixes the frame width instead of probing the terminal.
func WithWidth(w int) Option {
	return &optionImpl{func(opts *renderOptions) error {
		if w <= 0 {
			return &iomodal.ConfigError{Param: "width", Message: "must be positive"}
		}
		opts.width = w
		return nil
	}}
}

func resolveOptions(opts []Option) (*renderOptions, error) {
	cfg := &renderOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Renderer paints dialogs as framed text. It implements [iomodal.Renderer].
type Renderer struct {
	mu     sync.Mutex
	w      io.Writer
	width  int
	record bool
	frames []string
	active iomodal.Element
}

// New creates a renderer writing frames to w. When w is a terminal the
// frame width tracks the terminal width at construction; otherwise a fixed
// default (or [WithWidth]) applies.
func New(w io.Writer, opts ...Option) (*Renderer, error) {
	if w == nil {
		return nil, &iomodal.ConfigError{Param: "writer", Message: "must not be nil"}
	}
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	width := o.width
	if width == 0 {
		width = defaultWidth
		if probed, ok := probeWidth(w); ok {
			width = probed
		}
	}
	return &Renderer{w: w, width: width}, nil
}

// NewFake creates an in-memory renderer: no writer, no TTY, every frame
// retained for inspection via [Renderer.Frames]. Intended for tests.
func NewFake(opts ...Option) *Renderer {
	o, err := resolveOptions(opts)
	if err != nil {
		// The only failure mode is an invalid option value; a test fake
		// should not force error plumbing on its callers.
		panic(err)
	}
	width := o.width
	if width == 0 {
		width = defaultWidth
	}
	return &Renderer{width: width, record: true}
}

// probeWidth asks the terminal for its width when w is one.
func probeWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, false
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}

// Frames returns a copy of every frame painted so far. Only a renderer from
// [NewFake] records frames.
func (r *Renderer) Frames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.frames))
	copy(out, r.frames)
	return out
}

// LastFrame returns the most recently painted frame, or empty.
func (r *Renderer) LastFrame() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return ""
	}
	return r.frames[len(r.frames)-1]
}

// SetActiveElement registers the element holding focus in the host surface,
// reported through [Renderer.ActiveElement] so dialogs can restore it.
func (r *Renderer) SetActiveElement(el iomodal.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = el
}

// ActiveElement returns the host element registered via SetActiveElement.
func (r *Renderer) ActiveElement() iomodal.Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Render paints the dialog and returns its surface handle.
func (r *Renderer) Render(cfg *iomodal.Config) (iomodal.Rendered, error) {
	if cfg == nil {
		return nil, &iomodal.ConfigError{Param: "config", Message: "must not be nil"}
	}
	s := &Surface{renderer: r}
	s.popup = newElement("popup", "", s.repaint)
	s.popup.focusable = false
	s.syncConfig(cfg)
	r.paint(s)
	return s, nil
}

// Update re-paints the surface for a configuration change. The handle keeps
// its identity; elements appear, relabel, or hide as the configuration
// dictates.
func (r *Renderer) Update(rd iomodal.Rendered, cfg *iomodal.Config) error {
	s, ok := rd.(*Surface)
	if !ok || cfg == nil {
		return &iomodal.ConfigError{Param: "rendered", Message: "not a termrender surface"}
	}
	if s.isDestroyed() {
		return nil
	}
	s.syncConfig(cfg)
	r.paint(s)
	return nil
}

// Destroy tears the surface down. With a non-empty hide-class set a closing
// frame is painted first; either way the dialog region is cleared and every
// element detached.
func (r *Renderer) Destroy(rd iomodal.Rendered, opts iomodal.DestroyOptions) {
	s, ok := rd.(*Surface)
	if !ok || s.isDestroyed() {
		return
	}
	if len(opts.HideClass) > 0 {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		r.paint(s)
	}
	s.destroy()
	r.emit("")
}

// ShowValidation surfaces message below the input.
func (r *Renderer) ShowValidation(rd iomodal.Rendered, message string) {
	s, ok := rd.(*Surface)
	if !ok || s.isDestroyed() {
		return
	}
	s.mu.Lock()
	s.validation = message
	s.mu.Unlock()
	r.paint(s)
}

// ResetValidation clears any validation message.
func (r *Renderer) ResetValidation(rd iomodal.Rendered) {
	s, ok := rd.(*Surface)
	if !ok || s.isDestroyed() {
		return
	}
	s.mu.Lock()
	s.validation = ""
	s.mu.Unlock()
	r.paint(s)
}

// SetLoading paints or clears the busy indicator.
func (r *Renderer) SetLoading(rd iomodal.Rendered, loading bool) {
	s, ok := rd.(*Surface)
	if !ok || s.isDestroyed() {
		return
	}
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	r.paint(s)
}

// paint composes the surface into a frame and emits it.
func (r *Renderer) paint(s *Surface) {
	r.mu.Lock()
	width := r.width
	r.mu.Unlock()
	r.emit(s.compose(width))
}

func (r *Renderer) emit(frame string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.record {
		r.frames = append(r.frames, frame)
		return
	}
	if r.w != nil && frame != "" {
		fmt.Fprintln(r.w, frame)
	}
}

// Surface is one painted dialog: the [iomodal.Rendered] handle returned by
// [Renderer.Render].
type Surface struct {
	renderer *Renderer

	mu         sync.Mutex
	cfg        *iomodal.Config
	popup      *Element
	confirm    *Element
	deny       *Element
	cancel     *Element
	closeBtn   *Element
	input      *Element
	bar        *Bar
	validation string
	loading    bool
	closing    bool
	destroyed  bool
}

func (s *Surface) repaint() {
	if s.isDestroyed() {
		return
	}
	s.renderer.paint(s)
}

// syncConfig reconciles the element set with cfg: parts appear on first
// demand, relabel and show/hide afterwards, and never change identity.
func (s *Surface) syncConfig(cfg *iomodal.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.syncButton(&s.confirm, "confirm", cfg.ShowConfirmButton(), cfg.ConfirmButtonText())
	s.syncButton(&s.deny, "deny", cfg.ShowDenyButton(), cfg.DenyButtonText())
	s.syncButton(&s.cancel, "cancel", cfg.ShowCancelButton(), cfg.CancelButtonText())
	s.syncButton(&s.closeBtn, "close", cfg.ShowCloseButton(), "×")
	if cfg.Input() != "" && s.input == nil {
		s.input = newElement("input", cfg.Input(), s.repaint)
		s.input.setAutoFocus(true)
		if v := cfg.InputValue(); v != "" {
			s.input.value = v
		}
	}
	if cfg.TimerProgressBar() && s.bar == nil {
		s.bar = newBar(s.repaint)
	}
}

func (s *Surface) syncButton(slot **Element, kind string, show bool, label string) {
	if *slot == nil {
		if !show {
			return
		}
		*slot = newElement(kind, label, s.repaint)
		return
	}
	(*slot).setVisible(show)
	if label != "" {
		(*slot).setLabel(label)
	}
}

func (s *Surface) destroy() {
	s.mu.Lock()
	s.destroyed = true
	elems := []*Element{s.popup, s.confirm, s.deny, s.cancel, s.closeBtn, s.input}
	bar := s.bar
	s.mu.Unlock()
	for _, e := range elems {
		if e != nil {
			e.detach()
		}
	}
	if bar != nil {
		bar.detach()
	}
}

func (s *Surface) isDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Popup returns the popup container element.
func (s *Surface) Popup() iomodal.Element { return elemOrNil(s.get(&s.popup)) }

// Confirm returns the confirm button, or nil when not configured.
func (s *Surface) Confirm() iomodal.Element { return elemOrNil(s.get(&s.confirm)) }

// Deny returns the deny button, or nil when not configured.
func (s *Surface) Deny() iomodal.Element { return elemOrNil(s.get(&s.deny)) }

// Cancel returns the cancel button, or nil when not configured.
func (s *Surface) Cancel() iomodal.Element { return elemOrNil(s.get(&s.cancel)) }

// Close returns the close button, or nil when not configured.
func (s *Surface) Close() iomodal.Element { return elemOrNil(s.get(&s.closeBtn)) }

// Input returns the input element, or nil when not configured.
func (s *Surface) Input() iomodal.Element { return elemOrNil(s.get(&s.input)) }

func (s *Surface) get(slot **Element) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *slot
}

// FocusCandidates returns the surface's elements in traversal order: input
// first, then confirm, deny, cancel, close.
func (s *Surface) FocusCandidates() []iomodal.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []iomodal.Element
	for _, e := range []*Element{s.input, s.confirm, s.deny, s.cancel, s.closeBtn} {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// TimerProgressBar returns the countdown bar, or nil when not configured.
func (s *Surface) TimerProgressBar() iomodal.ProgressBar {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar == nil {
		return nil
	}
	return s.bar
}

func elemOrNil(e *Element) iomodal.Element {
	if e == nil {
		return nil
	}
	return e
}

// compose renders the surface as a single framed string.
func (s *Surface) compose(width int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.cfg == nil {
		return ""
	}
	cfg := s.cfg
	inner := width - 8
	if inner < 16 {
		inner = 16
	}

	var lines []string
	header := renderHeader(cfg, s.closeBtn)
	if header != "" {
		lines = append(lines, header)
	}
	if text := cfg.Text(); text != "" {
		lines = append(lines, Body.Width(inner).Render(text))
	}
	if s.input != nil && s.input.IsVisible() {
		lines = append(lines, renderInput(s.input, cfg, inner))
	}
	if s.validation != "" {
		lines = append(lines, Validation.Render(s.validation))
	}
	if s.loading {
		lines = append(lines, Loading.Render("⋯ working"))
	}
	if row := renderButtons(s.confirm, s.deny, s.cancel); row != "" {
		lines = append(lines, "", row)
	}
	if s.bar != nil {
		lines = append(lines, renderBar(s.bar, inner))
	}
	if s.closing {
		lines = append(lines, Backdrop.Render("closing…"))
	}

	frame := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if cfg.Toast() {
		return Toast.Render(frame)
	}
	return Modal.Render(frame)
}

func renderHeader(cfg *iomodal.Config, closeBtn *Element) string {
	var parts []string
	if icon := renderIcon(cfg.Icon()); icon != "" {
		parts = append(parts, icon)
	}
	if title := cfg.Title(); title != "" {
		parts = append(parts, Title.Render(title))
	}
	if closeBtn != nil && closeBtn.IsVisible() {
		parts = append(parts, Button.Padding(0, 1).Render(closeBtn.Label()))
	}
	return strings.Join(parts, " ")
}

func renderInput(input *Element, cfg *iomodal.Config, width int) string {
	v, _ := input.Value().(string)
	if v == "" {
		if ph := cfg.InputPlaceholder(); ph != "" {
			return InputPlaceholder.Width(width).Render(ph)
		}
	}
	style := InputField
	if !input.IsEnabled() {
		style = InputPlaceholder
	}
	if input.IsFocused() {
		v += "▌"
	}
	return style.Width(width).Render(v)
}

func renderButtons(buttons ...*Element) string {
	var cells []string
	for _, b := range buttons {
		if b == nil || !b.IsVisible() {
			continue
		}
		style := Button
		switch {
		case !b.IsEnabled():
			style = ButtonDisabled
		case b.IsFocused():
			style = ButtonFocused
		}
		cells = append(cells, style.Render(b.Label()))
	}
	return strings.Join(cells, " ")
}

func renderBar(bar *Bar, width int) string {
	filled := int(bar.fraction() * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat(ProgressFull, filled) + strings.Repeat(ProgressEmpty, width-filled)
}
