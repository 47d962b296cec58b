// Package tui renders terminal progress for long-running synthsales commands.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette shared by the progress views.
//
//nolint:gochecknoglobals // lipgloss colors and styles are immutable values
var (
	ColorHeader  = lipgloss.Color("39")
	ColorLabel   = lipgloss.Color("245")
	ColorValue   = lipgloss.Color("252")
	ColorMuted   = lipgloss.Color("240")
	ColorOK      = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")

	HeaderStyle  = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	OKStyle      = lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

const (
	defaultWidth = 80
	barPadding   = 4
	maxBarWidth  = 60
	minBarWidth  = 10
)
