// Package theme defines color themes for the session browser.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps the browser's color roles to one palette.
type Theme struct {
	Name string

	// Chrome
	Background   lipgloss.Color // behind every pane
	Surface      lipgloss.Color // header, status bar, overlays
	Selected     lipgloss.Color // selected list row
	Border       lipgloss.Color
	BorderFocus  lipgloss.Color // focused pane and overlays
	TextDim      lipgloss.Color // hints, timestamps
	TextMuted    lipgloss.Color // labels, metadata
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color // open session, key names
	AccentBright lipgloss.Color // logo, selected row text

	// Transcript roles
	User       lipgloss.Color
	Assistant  lipgloss.Color
	Thinking   lipgloss.Color
	ToolUse    lipgloss.Color
	ToolResult lipgloss.Color

	Warning lipgloss.Color // changed on disk, notices
	Error   lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default: warm, paper-inspired, dark.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	Selected:     lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderFocus:  lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	User:         lipgloss.Color("#4385BE"),
	Assistant:    lipgloss.Color("#879A39"),
	Thinking:     lipgloss.Color("#CE5D97"),
	ToolUse:      lipgloss.Color("#D0A215"),
	ToolResult:   lipgloss.Color("#24837B"),
	Warning:      lipgloss.Color("#DA702C"),
	Error:        lipgloss.Color("#D14D41"),
}

// TokyoNight is a cool blue and purple palette.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	Selected:     lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderFocus:  lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	User:         lipgloss.Color("#7DCFFF"),
	Assistant:    lipgloss.Color("#9ECE6A"),
	Thinking:     lipgloss.Color("#BB9AF7"),
	ToolUse:      lipgloss.Color("#E0AF68"),
	ToolResult:   lipgloss.Color("#73DACA"),
	Warning:      lipgloss.Color("#FF9E64"),
	Error:        lipgloss.Color("#F7768E"),
}

// Terminal sticks to the 16 ANSI colors, so it follows the terminal's own
// palette.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	Selected:     lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderFocus:  lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	User:         lipgloss.Color("4"),
	Assistant:    lipgloss.Color("2"),
	Thinking:     lipgloss.Color("5"),
	ToolUse:      lipgloss.Color("3"),
	ToolResult:   lipgloss.Color("6"),
	Warning:      lipgloss.Color("11"),
	Error:        lipgloss.Color("1"),
}

// All available themes.
var All = []Theme{FlexokiDark, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Names lists the available theme names.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}
