package ui

import (
	"os"
	"strconv"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a palette of ANSI escape sequences keyed by role, plus the
// lipgloss color of section headings.
type Theme struct {
	Name string

	Primary   string // strategy names, sizes
	Secondary string // de-emphasized text
	Success   string // results
	Warning   string // durations, timeouts
	Error     string // failures
	Info      string // combine function, configuration values
	Bold      string
	Underline string
	Reset     string

	Heading lipgloss.TerminalColor
}

const (
	bold      = "\033[1m"
	underline = "\033[4m"
	reset     = "\033[0m"
)

// ansi256 returns the escape sequence selecting foreground color n of the
// 256-color palette.
func ansi256(n int) string {
	return "\033[38;5;" + strconv.Itoa(n) + "m"
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:    "dark",
		Primary: ansi256(39), Secondary: ansi256(245), Success: ansi256(82),
		Warning: ansi256(220), Error: ansi256(196), Info: ansi256(141),
		Bold: bold, Underline: underline, Reset: reset,
		Heading: lipgloss.Color("#FF8C00"),
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:    "light",
		Primary: ansi256(27), Secondary: ansi256(240), Success: ansi256(28),
		Warning: ansi256(130), Error: ansi256(124), Info: ansi256(54),
		Bold: bold, Underline: underline, Reset: reset,
		Heading: lipgloss.Color("#1F4E9E"),
	}

	// NoColorTheme emits no escape sequences at all.
	NoColorTheme = Theme{Name: "none", Heading: lipgloss.NoColor{}}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	current atomic.Pointer[Theme]
)

func init() {
	SetCurrentTheme(DarkTheme)
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	return *current.Load()
}

// SetCurrentTheme replaces the active theme.
func SetCurrentTheme(t Theme) {
	current.Store(&t)
}

// SetTheme selects a theme by name ("dark", "light", "none"). Unknown names
// select the dark theme.
func SetTheme(name string) {
	t, ok := themes[name]
	if !ok {
		t = DarkTheme
	}
	SetCurrentTheme(t)
}

// InitTheme picks the theme for this process: none when noColor is set or
// NO_COLOR is present in the environment (https://no-color.org/), otherwise
// the palette matching the terminal background.
func InitTheme(noColor bool) {
	if _, set := os.LookupEnv("NO_COLOR"); noColor || set {
		SetCurrentTheme(NoColorTheme)
		return
	}
	if lipgloss.HasDarkBackground() {
		SetCurrentTheme(DarkTheme)
	} else {
		SetCurrentTheme(LightTheme)
	}
}

// Heading renders a section title in the active heading color.
func Heading(title string) string {
	t := GetCurrentTheme()
	style := lipgloss.NewStyle().Foreground(t.Heading).Bold(t.Name != NoColorTheme.Name)
	return style.Render("--- " + title + " ---")
}
