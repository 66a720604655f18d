package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// LoginSubmitMsg is sent when the login form is submitted.
type LoginSubmitMsg struct {
	Username string
	Password string
}

// LoginForm collects the API credentials.
type LoginForm struct {
	username *TextInput
	password *TextInput
	submit   *Button
	focus    int
	err      string
	busy     bool
	width    int
}

// NewLoginForm creates a login form with the username field focused.
func NewLoginForm() *LoginForm {
	f := &LoginForm{
		username: NewTextInput("username", "Access ID"),
		password: NewSecretInput("password", "Secret Key"),
		submit:   NewButton("Log in"),
	}
	f.username.SetPlaceholder("you@example.com")
	f.username.Focus()
	return f
}

// Init returns the cursor blink command.
func (f *LoginForm) Init() tea.Cmd {
	return f.username.Focus()
}

// SetCredentials pre-fills the form.
func (f *LoginForm) SetCredentials(username, password string) {
	f.username.SetValue(username)
	f.password.SetValue(password)
	if username != "" && password == "" {
		f.setFocus(1)
	}
}

// SetError shows err below the form. An empty string clears it.
func (f *LoginForm) SetError(err string) {
	f.err = err
}

// Error returns the message shown below the form.
func (f *LoginForm) Error() string {
	return f.err
}

// SetBusy disables submission while a login is running.
func (f *LoginForm) SetBusy(busy bool) {
	f.busy = busy
	f.submit.SetEnabled(!busy)
	if busy {
		f.submit.SetLabel("Logging in...")
	} else {
		f.submit.SetLabel("Log in")
	}
}

// ClearPassword empties the secret field and focuses it.
func (f *LoginForm) ClearPassword() tea.Cmd {
	f.password.Reset()
	return f.setFocus(1)
}

// FocusedField returns 0 for the username and 1 for the password field.
func (f *LoginForm) FocusedField() int {
	return f.focus
}

// SetWidth sets the form width.
func (f *LoginForm) SetWidth(width int) {
	f.width = width
	w := min(max(width-10, 30), 70)
	f.username.SetWidth(w)
	f.password.SetWidth(w)
}

func (f *LoginForm) setFocus(i int) tea.Cmd {
	f.focus = i
	if i == 0 {
		f.password.Blur()
		return f.username.Focus()
	}
	f.username.Blur()
	return f.password.Focus()
}

// Update handles form input.
func (f *LoginForm) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down", "shift+tab", "up":
			return f.setFocus(1 - f.focus)
		case "enter":
			if f.busy {
				return nil
			}
			if f.focus == 0 && f.password.Value() == "" {
				return f.setFocus(1)
			}
			submit := LoginSubmitMsg{
				Username: strings.TrimSpace(f.username.Value()),
				Password: f.password.Value(),
			}
			return func() tea.Msg { return submit }
		}
	}

	var cmd tea.Cmd
	if f.focus == 0 {
		_, cmd = f.username.Update(msg)
	} else {
		_, cmd = f.password.Update(msg)
	}
	return cmd
}

// View renders the form.
func (f *LoginForm) View() string {
	var b strings.Builder
	b.WriteString(styles.FormTitleStyle.Render("Log in to the CEIC API"))
	b.WriteString("\n\n")
	b.WriteString(f.username.View())
	b.WriteString("\n")
	b.WriteString(f.password.View())
	b.WriteString("\n\n")

	b.WriteString(f.submit.View())

	if f.err != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.ErrorTextStyle.Render(f.err))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary).
		Padding(1, 2).
		Render(b.String())
}
