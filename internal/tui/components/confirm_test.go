package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewConfirmDialog(t *testing.T) {
	c := NewConfirmDialog()

	if c.IsVisible() {
		t.Error("ConfirmDialog should be hidden by default")
	}
	if c.width != 50 {
		t.Errorf("Default width should be 50, got %d", c.width)
	}
	if c.View() != "" {
		t.Error("hidden dialog should render nothing")
	}
}

func TestConfirmDialogPresets(t *testing.T) {
	tests := []struct {
		name        string
		show        func(c *ConfirmDialog)
		action      ConfirmAction
		destructive bool
		contains    string
	}{
		{"load", func(c *ConfirmDialog) { c.ShowLoad("SRC", 12345, 500) }, ConfirmActionLoad, false, "12,345"},
		{"logout", func(c *ConfirmDialog) { c.ShowLogout() }, ConfirmActionLogout, true, "Log Out?"},
		{"quit", func(c *ConfirmDialog) { c.ShowQuit() }, ConfirmActionQuit, false, "Quit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfirmDialog()
			tt.show(c)

			if !c.IsVisible() {
				t.Fatal("dialog should be visible")
			}
			if c.Action() != tt.action {
				t.Errorf("Action() = %v, want %v", c.Action(), tt.action)
			}
			if c.destructive != tt.destructive {
				t.Errorf("destructive = %v, want %v", c.destructive, tt.destructive)
			}
			if !strings.Contains(c.View(), tt.contains) {
				t.Errorf("View() should contain %q", tt.contains)
			}
		})
	}
}

func TestConfirmDialogKeys(t *testing.T) {
	tests := []struct {
		key     tea.KeyMsg
		wantYes bool
		wantNo  bool
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true, false},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Y")}, true, false},
		{tea.KeyMsg{Type: tea.KeyEnter}, true, false},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false, true},
		{tea.KeyMsg{Type: tea.KeyEsc}, false, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			c := NewConfirmDialog()
			c.ShowLoad("SRC", 1000, 500)

			cmd := c.Update(tt.key)
			if !tt.wantYes && !tt.wantNo {
				if cmd != nil {
					t.Error("unrelated key should not produce a command")
				}
				if !c.IsVisible() {
					t.Error("unrelated key should keep the dialog open")
				}
				return
			}
			if cmd == nil {
				t.Fatal("expected a command")
			}
			if c.IsVisible() {
				t.Error("dialog should close")
			}
			switch msg := cmd().(type) {
			case ConfirmYesMsg:
				if !tt.wantYes || msg.Action != ConfirmActionLoad {
					t.Errorf("unexpected %+v", msg)
				}
			case ConfirmNoMsg:
				if !tt.wantNo || msg.Action != ConfirmActionLoad {
					t.Errorf("unexpected %+v", msg)
				}
			default:
				t.Errorf("unexpected message %T", msg)
			}
		})
	}
}

func TestConfirmDialogHiddenIgnoresInput(t *testing.T) {
	c := NewConfirmDialog()
	if cmd := c.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("hidden dialog should ignore input")
	}
}
