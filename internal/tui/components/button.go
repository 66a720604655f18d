package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// ButtonKind selects how a button is drawn.
type ButtonKind int

const (
	// ButtonPrimary is the default action.
	ButtonPrimary ButtonKind = iota
	// ButtonSecondary is a less prominent action.
	ButtonSecondary
	// ButtonDanger is a destructive action.
	ButtonDanger
)

// Button renders an action label. A disabled button is drawn as an outline.
type Button struct {
	label   string
	kind    ButtonKind
	enabled bool
}

// NewButton creates an enabled primary button.
func NewButton(label string) *Button {
	return &Button{label: label, enabled: true}
}

// SetKind sets the button kind.
func (b *Button) SetKind(kind ButtonKind) {
	b.kind = kind
}

// Kind returns the button kind.
func (b *Button) Kind() ButtonKind {
	return b.kind
}

// SetEnabled enables or disables the button.
func (b *Button) SetEnabled(enabled bool) {
	b.enabled = enabled
}

// Enabled reports whether the button can be activated.
func (b *Button) Enabled() bool {
	return b.enabled
}

// SetLabel sets the button label.
func (b *Button) SetLabel(label string) {
	b.label = label
}

// Label returns the button label.
func (b *Button) Label() string {
	return b.label
}

func (b *Button) style() lipgloss.Style {
	if !b.enabled {
		if b.kind == ButtonPrimary {
			return styles.ButtonPrimaryUnfocusedStyle
		}
		return styles.ButtonSecondaryUnfocusedStyle
	}
	switch b.kind {
	case ButtonDanger:
		return styles.ButtonDangerStyle
	case ButtonSecondary:
		return styles.ButtonSecondaryUnfocusedStyle
	default:
		return styles.ButtonPrimaryStyle
	}
}

// View renders the button.
func (b *Button) View() string {
	return b.style().Render(b.label)
}
