package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Solarized Dark color palette
	base01 = lipgloss.Color("#586e75") // comments / borders
	base1  = lipgloss.Color("#93a1a1") // emphasized content

	solarBlue   = lipgloss.Color("#268bd2")
	solarCyan   = lipgloss.Color("#2aa198")
	solarGreen  = lipgloss.Color("#859900")
	solarYellow = lipgloss.Color("#b58900")
	solarRed    = lipgloss.Color("#dc322f")

	// Semantic color mappings
	primaryColor   = solarBlue
	secondaryColor = solarCyan
	accentColor    = base1
	mutedColor     = base01
	borderColor    = base01
	successColor   = solarGreen
	errorColor     = solarRed
	warningColor   = solarYellow

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(borderColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	dimStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	runningStyle = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	stoppedStyle = lipgloss.NewStyle().Bold(true).Foreground(mutedColor)
	unknownStyle = lipgloss.NewStyle().Bold(true).Foreground(warningColor)

	okStyle  = lipgloss.NewStyle().Foreground(successColor)
	errStyle = lipgloss.NewStyle().Foreground(errorColor)

	footerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(borderColor)
)
