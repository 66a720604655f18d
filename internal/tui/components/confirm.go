// Package components provides reusable TUI components for sourcecheck.
package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/summary"
	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// ConfirmAction represents the action being confirmed.
type ConfirmAction string

const (
	// ConfirmActionLoad is for loading a large source.
	ConfirmActionLoad ConfirmAction = "load"
	// ConfirmActionLogout is for logging out.
	ConfirmActionLogout ConfirmAction = "logout"
	// ConfirmActionQuit is for quitting.
	ConfirmActionQuit ConfirmAction = "quit"
)

// ConfirmDialog displays a confirmation prompt.
type ConfirmDialog struct {
	visible     bool
	action      ConfirmAction
	title       string
	message     string
	width       int
	destructive bool
}

// NewConfirmDialog creates a new ConfirmDialog component.
func NewConfirmDialog() *ConfirmDialog {
	return &ConfirmDialog{width: 50}
}

// Show displays the dialog with the given action, title, and message.
func (c *ConfirmDialog) Show(action ConfirmAction, title, message string, destructive bool) {
	c.visible = true
	c.action = action
	c.title = title
	c.message = message
	c.destructive = destructive
}

// ShowLoad asks before fetching count series of sourceID.
func (c *ConfirmDialog) ShowLoad(sourceID string, count, threshold int) {
	c.Show(ConfirmActionLoad, "Load All Series?",
		fmt.Sprintf("Source %s has %s series, more than the %s series warning threshold.\nLoading may take a while.",
			sourceID, summary.FormatCount(count), summary.FormatCount(threshold)),
		false)
}

// ShowLogout shows logout confirmation.
func (c *ConfirmDialog) ShowLogout() {
	c.Show(ConfirmActionLogout, "Log Out?",
		"Search results and loaded series will be discarded.",
		true)
}

// ShowQuit shows quit confirmation.
func (c *ConfirmDialog) ShowQuit() {
	c.Show(ConfirmActionQuit, "Quit sourcecheck?",
		"Loaded series are kept only in snapshots, if enabled.",
		false)
}

// Hide hides the dialog.
func (c *ConfirmDialog) Hide() {
	c.visible = false
}

// IsVisible returns whether the dialog is visible.
func (c *ConfirmDialog) IsVisible() bool {
	return c.visible
}

// Action returns the current action being confirmed.
func (c *ConfirmDialog) Action() ConfirmAction {
	return c.action
}

// SetSize sets the dialog width.
func (c *ConfirmDialog) SetSize(width int) {
	c.width = width
}

// Update handles input messages.
func (c *ConfirmDialog) Update(msg tea.Msg) tea.Cmd {
	if !c.visible {
		return nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch strings.ToLower(msg.String()) {
		case "y", "enter":
			action := c.action
			c.Hide()
			return func() tea.Msg {
				return ConfirmYesMsg{Action: action}
			}
		case "n", "esc":
			action := c.action
			c.Hide()
			return func() tea.Msg {
				return ConfirmNoMsg{Action: action}
			}
		}
	}
	return nil
}

// View renders the confirmation dialog.
func (c *ConfirmDialog) View() string {
	if !c.visible {
		return ""
	}

	var b strings.Builder

	titleBg := styles.Warning
	if c.destructive {
		titleBg = styles.Error
	}
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Foreground).
		Background(titleBg).
		Bold(true).
		Padding(0, 1).
		Width(c.width - 4)
	b.WriteString(titleStyle.Render("  " + c.title))
	b.WriteString("\n\n")

	msgStyle := lipgloss.NewStyle().
		Foreground(styles.Foreground).
		Width(c.width - 8)
	b.WriteString(msgStyle.Render(c.message))
	b.WriteString("\n\n")

	yes := NewButton("[Y]es")
	if c.destructive {
		yes.SetKind(ButtonDanger)
	}
	no := NewButton("[N]o")
	no.SetKind(ButtonSecondary)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, yes.View(), "  ", no.View()))

	borderColor := styles.Warning
	if c.destructive {
		borderColor = styles.Error
	}
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(borderColor).
		Padding(1, 2)

	return boxStyle.Render(b.String())
}

// ConfirmYesMsg is sent when the user confirms.
type ConfirmYesMsg struct {
	Action ConfirmAction
}

// ConfirmNoMsg is sent when the user cancels.
type ConfirmNoMsg struct {
	Action ConfirmAction
}
