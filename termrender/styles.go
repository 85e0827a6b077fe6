package termrender

import "github.com/charmbracelet/lipgloss"

// Colors for the default look. Chosen to read on both dark and light
// 256-color terminals.
var (
	Primary      = lipgloss.Color("212")
	Success      = lipgloss.Color("78")
	Error        = lipgloss.Color("196")
	Warning      = lipgloss.Color("214")
	Info         = lipgloss.Color("45")
	Question     = lipgloss.Color("105")
	Muted        = lipgloss.Color("241")
	BorderNormal = lipgloss.Color("240")
)

// Popup frames. Modal gets a full rounded border; toast is a compact single
// strip anchored to a corner.
var (
	Modal = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderNormal).
		Padding(1, 3)

	Toast = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)

	// Backdrop dims whatever the popup covers.
	Backdrop = lipgloss.NewStyle().
			Foreground(Muted).
			Faint(true)
)

// Text styles.
var (
	Title = lipgloss.NewStyle().Bold(true)

	Body = lipgloss.NewStyle()

	Validation = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Loading = lipgloss.NewStyle().
		Foreground(Muted).
		Italic(true)
)

// Button styles.
var (
	Button = lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Background(lipgloss.Color("238")).
		Padding(0, 2)

	ButtonFocused = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(Primary).
			Bold(true).
			Padding(0, 2)

	ButtonDisabled = lipgloss.NewStyle().
			Foreground(Muted).
			Background(lipgloss.Color("236")).
			Padding(0, 2)
)

// Input styles.
var (
	InputField = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	InputPlaceholder = lipgloss.NewStyle().
				Foreground(Muted).
				Background(lipgloss.Color("236")).
				Italic(true).
				Padding(0, 1)
)

// Progress bar glyphs for the auto-dismiss countdown.
var (
	ProgressFull = lipgloss.NewStyle().
			Foreground(Primary).
			Render("█")

	ProgressEmpty = lipgloss.NewStyle().
			Foreground(Muted).
			Render("░")
)

// iconStyles maps the icon names of the dialog configuration to their glyph
// and color.
var iconStyles = map[string]struct {
	glyph string
	color lipgloss.Color
}{
	"success":  {"✓", Success},
	"error":    {"✗", Error},
	"warning":  {"!", Warning},
	"info":     {"i", Info},
	"question": {"?", Question},
}

// renderIcon returns the styled glyph for an icon name, or empty when the
// name is unknown or blank.
func renderIcon(name string) string {
	s, ok := iconStyles[name]
	if !ok {
		return ""
	}
	return lipgloss.NewStyle().Foreground(s.color).Bold(true).Render(s.glyph)
}
