package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. Warm neutrals with a terracotta accent.
var (
	ColorBase    = lipgloss.Color("#221D1B")
	ColorSurface = lipgloss.Color("#342B27")
	ColorMuted   = lipgloss.Color("#8C7F78")
	ColorText    = lipgloss.Color("#E6DCD3")
	ColorAccent  = lipgloss.Color("#D08C60")
	ColorGreen   = lipgloss.Color("#9CCB86")
	ColorRed     = lipgloss.Color("#E07A7A")
	ColorYellow  = lipgloss.Color("#E8C170")
	ColorBlue    = lipgloss.Color("#7FA8D6")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				Padding(0, 1).
				Background(ColorSurface)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorBase).
				Background(ColorAccent).
				Bold(false)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	BorderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorMuted).
			Padding(1, 2)

	ActiveBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorAccent).
				Padding(1, 2)

	PanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorMuted).
			Padding(1, 2)

	BreadcrumbStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	BreadcrumbActiveStyle = lipgloss.NewStyle().
				Foreground(ColorAccent)

	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true).
			Padding(2, 4)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)

	// Availability cells
	AvailableStyle    = lipgloss.NewStyle().Foreground(ColorGreen)
	NotAvailableStyle = lipgloss.NewStyle().Foreground(ColorRed)
	ErroredStyle      = lipgloss.NewStyle().Foreground(ColorYellow)
	CheckingStyle     = lipgloss.NewStyle().Foreground(ColorBlue)
	UncheckedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)

	ToggleOnStyle = lipgloss.NewStyle().
			Foreground(ColorBase).
			Background(ColorAccent).
			Bold(true).
			Padding(0, 1).
			MarginRight(1)

	ToggleOffStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Background(ColorSurface).
			Padding(0, 1).
			MarginRight(1)

	ProgressStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)
)
