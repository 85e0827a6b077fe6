package iomodal

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Template is a declarative dialog description parsed from YAML. It
// supplies the declarative merge layer: below the caller's options, above
// any mixin preset.
//
// Keys mirror the [Options] fields in camelCase; timer accepts either a
// duration string ("2.5s") or an integer of milliseconds. Unknown keys
// produce warnings, never errors.
type Template struct {
	opts Options
}

// durationValue decodes a duration string or integer milliseconds.
type durationValue time.Duration

func (d *durationValue) UnmarshalYAML(node *yaml.Node) error {
	var ms int64
	if err := node.Decode(&ms); err == nil {
		*d = durationValue(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("timer must be a duration string or integer milliseconds")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("timer: %w", err)
	}
	*d = durationValue(parsed)
	return nil
}

type templateDoc struct {
	Title             *string        `yaml:"title"`
	Text              *string        `yaml:"text"`
	Icon              *string        `yaml:"icon"`
	Toast             *bool          `yaml:"toast"`
	Animation         *bool          `yaml:"animation"`
	Timer             *durationValue `yaml:"timer"`
	TimerProgressBar  *bool          `yaml:"timerProgressBar"`
	AllowEnterKey     *bool          `yaml:"allowEnterKey"`
	AllowEscapeKey    *bool          `yaml:"allowEscapeKey"`
	AllowOutsideClick *bool          `yaml:"allowOutsideClick"`
	FocusConfirm      *bool          `yaml:"focusConfirm"`
	FocusDeny         *bool          `yaml:"focusDeny"`
	FocusCancel       *bool          `yaml:"focusCancel"`
	ShowConfirmButton *bool          `yaml:"showConfirmButton"`
	ShowDenyButton    *bool          `yaml:"showDenyButton"`
	ShowCancelButton  *bool          `yaml:"showCancelButton"`
	ShowCloseButton   *bool          `yaml:"showCloseButton"`
	ConfirmButtonText *string        `yaml:"confirmButtonText"`
	DenyButtonText    *string        `yaml:"denyButtonText"`
	CancelButtonText  *string        `yaml:"cancelButtonText"`
	Input             *string        `yaml:"input"`
	InputValue        *string        `yaml:"inputValue"`
	InputPlaceholder  *string        `yaml:"inputPlaceholder"`
	ReturnFocus       *bool          `yaml:"returnFocus"`
	ShowClass         ClassNames     `yaml:"showClass"`
	HideClass         ClassNames     `yaml:"hideClass"`
}

var templateKeys = map[string]struct{}{
	"title":             {},
	"text":              {},
	"icon":              {},
	"toast":             {},
	"animation":         {},
	"timer":             {},
	"timerProgressBar":  {},
	"allowEnterKey":     {},
	"allowEscapeKey":    {},
	"allowOutsideClick": {},
	"focusConfirm":      {},
	"focusDeny":         {},
	"focusCancel":       {},
	"showConfirmButton": {},
	"showDenyButton":    {},
	"showCancelButton":  {},
	"showCloseButton":   {},
	"confirmButtonText": {},
	"denyButtonText":    {},
	"cancelButtonText":  {},
	"input":             {},
	"inputValue":        {},
	"inputPlaceholder":  {},
	"returnFocus":       {},
	"showClass":         {},
	"hideClass":         {},
}

// ParseTemplate parses a YAML dialog template. Unknown keys are reported as
// warnings and skipped; malformed YAML or a malformed value for a known key
// is an error.
func ParseTemplate(data []byte) (*Template, []Warning, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("iomodal: parse template: %w", err)
	}

	var warnings []Warning
	for key := range raw {
		if _, known := templateKeys[key]; !known {
			warnings = append(warnings, Warning{Param: key, Message: "unknown template key"})
		}
	}

	var doc templateDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("iomodal: parse template: %w", err)
	}

	t := &Template{opts: Options{
		Title:             doc.Title,
		Text:              doc.Text,
		Icon:              doc.Icon,
		Toast:             doc.Toast,
		Animation:         doc.Animation,
		TimerProgressBar:  doc.TimerProgressBar,
		AllowEnterKey:     doc.AllowEnterKey,
		AllowEscapeKey:    doc.AllowEscapeKey,
		AllowOutsideClick: doc.AllowOutsideClick,
		FocusConfirm:      doc.FocusConfirm,
		FocusDeny:         doc.FocusDeny,
		FocusCancel:       doc.FocusCancel,
		ShowConfirmButton: doc.ShowConfirmButton,
		ShowDenyButton:    doc.ShowDenyButton,
		ShowCancelButton:  doc.ShowCancelButton,
		ShowCloseButton:   doc.ShowCloseButton,
		ConfirmButtonText: doc.ConfirmButtonText,
		DenyButtonText:    doc.DenyButtonText,
		CancelButtonText:  doc.CancelButtonText,
		Input:             doc.Input,
		InputValue:        doc.InputValue,
		InputPlaceholder:  doc.InputPlaceholder,
		ReturnFocus:       doc.ReturnFocus,
		ShowClass:         doc.ShowClass,
		HideClass:         doc.HideClass,
	}}
	if doc.Timer != nil {
		d := time.Duration(*doc.Timer)
		t.opts.Timer = &d
	}
	return t, warnings, nil
}

// Options returns the configuration layer the template describes. The
// returned value is a copy; one template can back any number of dialogs.
func (t *Template) Options() *Options {
	out := t.opts
	out.ShowClass = t.opts.ShowClass.clone()
	out.HideClass = t.opts.HideClass.clone()
	return &out
}
