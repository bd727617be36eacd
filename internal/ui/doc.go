// Package ui provides theme and color support for the command-line output.
// It defines color schemes, ANSI escape code accessors and lipgloss heading
// styles, so that presentation code never hard-codes escape sequences.
package ui
