// Package styles provides Lip Gloss styles for the sourcecheck TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette for the TUI.
var (
	Primary     = lipgloss.Color("#2563EB") // Blue
	Secondary   = lipgloss.Color("#06B6D4") // Cyan
	Success     = lipgloss.Color("#10B981") // Green
	Warning     = lipgloss.Color("#F59E0B") // Amber
	Error       = lipgloss.Color("#EF4444") // Red
	Muted       = lipgloss.Color("#6B7280") // Gray
	MutedLight  = lipgloss.Color("#9CA3AF") // Light Gray
	Background  = lipgloss.Color("#1F2937") // Dark Gray
	Foreground  = lipgloss.Color("#F9FAFB") // White
	BorderColor = lipgloss.Color("#374151") // Border Gray
)

// Header styles.
var (
	// HeaderLabelStyle is for header labels.
	HeaderLabelStyle = lipgloss.NewStyle().
				Foreground(MutedLight)

	// HeaderValueStyle is for header values.
	HeaderValueStyle = lipgloss.NewStyle().
				Foreground(Foreground).
				Bold(true)

	// TitleStyle is for the application title.
	TitleStyle = lipgloss.NewStyle().
			Foreground(Foreground).
			Background(Primary).
			Bold(true).
			Padding(0, 1)
)

// Source list markers.
var (
	// SourceLoaded marks a source whose series are loaded.
	SourceLoaded = lipgloss.NewStyle().
			Foreground(Success).
			Render("✓")

	// SourceSearched marks the source of the current summary.
	SourceSearched = lipgloss.NewStyle().
			Foreground(Secondary).
			Render("→")

	// SourceIdle marks every other source.
	SourceIdle = lipgloss.NewStyle().
			Foreground(Muted).
			Render("○")
)

// Box styles.
var (
	// BoxStyle is a standard box with border.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// FocusedBoxStyle is a box that's currently focused.
	FocusedBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)
)

// Text styles.
var (
	// MutedTextStyle is for de-emphasized text.
	MutedTextStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// ErrorTextStyle is for error messages.
	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(Error)

	// SuccessTextStyle is for success messages.
	SuccessTextStyle = lipgloss.NewStyle().
				Foreground(Success)

	// WarningTextStyle is for warning messages.
	WarningTextStyle = lipgloss.NewStyle().
				Foreground(Warning)

	// SectionTitleStyle is for panel section titles.
	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(Secondary).
				Bold(true)

	// LabelStyle is for key/value labels inside panels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedLight).
			Width(22)

	// ValueStyle is for key/value values inside panels.
	ValueStyle = lipgloss.NewStyle().
			Foreground(Foreground)
)

// Status bar styles.
var (
	// KeyStyle is for keyboard shortcut keys.
	KeyStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// HelpStyle is for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

// Form component styles.
var (
	// FormTitleStyle is for form titles.
	FormTitleStyle = lipgloss.NewStyle().
			Foreground(Foreground).
			Bold(true).
			Padding(0, 1)

	// FormLabelStyle is for form field labels.
	FormLabelStyle = lipgloss.NewStyle().
			Foreground(MutedLight)

	// FormLabelFocusedStyle is for focused form field labels.
	FormLabelFocusedStyle = lipgloss.NewStyle().
				Foreground(Secondary).
				Bold(true)

	// FormInputStyle is for form text inputs (unfocused).
	FormInputStyle = lipgloss.NewStyle().
			Foreground(MutedLight).
			Padding(0, 1)

	// FormInputFocusedStyle is for focused form text inputs.
	FormInputFocusedStyle = lipgloss.NewStyle().
				Foreground(Foreground).
				Background(Background).
				Padding(0, 1)

	// ButtonPrimaryStyle is for primary buttons (focused).
	ButtonPrimaryStyle = lipgloss.NewStyle().
				Foreground(Background).
				Background(Primary).
				Bold(true).
				Padding(0, 2)

	// ButtonPrimaryUnfocusedStyle is for primary buttons (unfocused).
	ButtonPrimaryUnfocusedStyle = lipgloss.NewStyle().
					Foreground(Primary).
					Border(lipgloss.NormalBorder()).
					BorderForeground(Primary).
					Padding(0, 1)

	// ButtonSecondaryUnfocusedStyle is for secondary buttons (unfocused).
	ButtonSecondaryUnfocusedStyle = lipgloss.NewStyle().
					Foreground(MutedLight).
					Border(lipgloss.NormalBorder()).
					BorderForeground(Muted).
					Padding(0, 1)

	// ButtonDangerStyle is for danger buttons (focused).
	ButtonDangerStyle = lipgloss.NewStyle().
				Foreground(Foreground).
				Background(Error).
				Bold(true).
				Padding(0, 2)
)
