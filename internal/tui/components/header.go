package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// HeaderData contains the data to display in the header.
type HeaderData struct {
	User      string
	BaseURL   string
	Source    string
	SessionID string
}

// Header displays the connection info in a header bar.
type Header struct {
	data  HeaderData
	width int
}

// NewHeader creates a new Header component.
func NewHeader() *Header {
	return &Header{
		data: HeaderData{User: "-", BaseURL: "-", Source: "-"},
	}
}

// SetData updates the header data.
func (h *Header) SetData(data HeaderData) {
	h.data = data
}

// Data returns the current header data.
func (h *Header) Data() HeaderData {
	return h.data
}

// SetUser sets the logged-in user.
func (h *Header) SetUser(user string) {
	h.data.User = orDash(user)
}

// SetSource sets the selected source.
func (h *Header) SetSource(source string) {
	h.data.Source = orDash(source)
}

// SetSessionID sets the session ID.
func (h *Header) SetSessionID(id string) {
	h.data.SessionID = id
}

// SetWidth sets the width for the header.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	sep := lipgloss.NewStyle().
		Foreground(styles.MutedLight).
		Render(" │ ")

	item := func(label, value string) string {
		return styles.HeaderLabelStyle.Render(label+": ") + styles.HeaderValueStyle.Render(value)
	}

	parts := []string{
		styles.TitleStyle.Render("CEIC SOURCE CHECKER"),
		item("User", h.data.User),
		item("API", h.data.BaseURL),
		item("Source", h.data.Source),
	}
	if h.data.SessionID != "" {
		short := h.data.SessionID
		if len(short) > 8 {
			short = short[:8]
		}
		parts = append(parts, item("Session", short))
	}

	headerStyle := lipgloss.NewStyle().
		Background(styles.Primary).
		Foreground(styles.Foreground).
		Padding(0, 1)
	if h.width > 0 {
		headerStyle = headerStyle.Width(h.width)
	}

	return headerStyle.Render(strings.Join(parts, sep))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
