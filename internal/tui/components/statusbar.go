package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// Activity is what the application is doing right now.
type Activity string

const (
	ActivityIdle      Activity = "idle"
	ActivityLoggingIn Activity = "logging-in"
	ActivitySearching Activity = "searching"
	ActivityLoading   Activity = "loading"
	ActivityFailed    Activity = "failed"
)

// StatusBarData contains the data to display in the status bar.
type StatusBarData struct {
	ElapsedTime time.Duration
	Activity    Activity
	Message     string
	Shortcuts   []ShortcutDef
}

// StatusBar displays the elapsed time, activity, a message and shortcuts.
type StatusBar struct {
	data  StatusBarData
	width int
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar() *StatusBar {
	return &StatusBar{
		data: StatusBarData{Activity: ActivityIdle},
	}
}

// SetData updates the status bar data.
func (s *StatusBar) SetData(data StatusBarData) {
	s.data = data
}

// Data returns the current status bar data.
func (s *StatusBar) Data() StatusBarData {
	return s.data
}

// SetElapsedTime sets the elapsed time.
func (s *StatusBar) SetElapsedTime(d time.Duration) {
	s.data.ElapsedTime = d
}

// SetActivity sets the current activity.
func (s *StatusBar) SetActivity(a Activity) {
	s.data.Activity = a
}

// SetMessage sets the status message.
func (s *StatusBar) SetMessage(message string) {
	s.data.Message = message
}

// SetShortcuts sets the shortcuts shown on the right.
func (s *StatusBar) SetShortcuts(shortcuts []ShortcutDef) {
	s.data.Shortcuts = shortcuts
}

// SetWidth sets the width of the status bar.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	sep := lipgloss.NewStyle().
		Foreground(styles.Muted).
		Render(" │ ")

	elapsedLabel := lipgloss.NewStyle().
		Foreground(styles.MutedLight).
		Render("Time: ")
	elapsedValue := lipgloss.NewStyle().
		Foreground(styles.Foreground).
		Render(FormatDuration(s.data.ElapsedTime))

	left := elapsedLabel + elapsedValue + sep + s.renderActivity()

	if s.data.Message != "" {
		msgStyle := lipgloss.NewStyle().
			Foreground(styles.MutedLight).
			Italic(true)
		left += sep + msgStyle.Render(s.data.Message)
	}

	right := NewShortcutBar(s.data.Shortcuts...).View()

	containerStyle := lipgloss.NewStyle().
		Background(styles.Background).
		Padding(0, 1)

	if s.width > 0 {
		containerStyle = containerStyle.Width(s.width)
		padding := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
		if padding > 0 {
			return containerStyle.Render(left + strings.Repeat(" ", padding) + right)
		}
	}

	return containerStyle.Render(left + "  " + right)
}

func (s *StatusBar) renderActivity() string {
	switch s.data.Activity {
	case ActivityLoggingIn:
		return lipgloss.NewStyle().Foreground(styles.Secondary).Render("◐ Logging in")
	case ActivitySearching:
		return lipgloss.NewStyle().Foreground(styles.Secondary).Render("◐ Searching")
	case ActivityLoading:
		return lipgloss.NewStyle().Foreground(styles.Warning).Render("● Loading")
	case ActivityFailed:
		return lipgloss.NewStyle().Foreground(styles.Error).Render("✗ Failed")
	default:
		return lipgloss.NewStyle().Foreground(styles.Success).Render("○ Ready")
	}
}

// FormatDuration formats a duration as HH:MM:SS or MM:SS.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
