package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskman/internal/service"
	"taskman/internal/session"
	"taskman/internal/ui/keys"
	"taskman/internal/ui/styles"
)

// RegisterFunc creates a new account. The TUI gets it injected so the
// view never builds HTTP requests itself.
type RegisterFunc func(ctx context.Context, username, email, password string) (service.Profile, error)

// LoggedIn signals that the session became authenticated.
type LoggedIn struct{}

type loginDoneMsg struct {
	err error
}

type registerDoneMsg struct {
	profile service.Profile
	err     error
}

// LoginView is the login/register form.
type LoginView struct {
	sess     *session.Session
	register RegisterFunc
	styles   *styles.Styles
	keys     keys.KeyMap

	username textinput.Model
	email    textinput.Model
	password textinput.Model

	registerMode bool
	focusIdx     int
	submitting   bool
	errMsg       string
	notice       string

	width  int
	height int
}

// NewLoginView creates the login form.
func NewLoginView(sess *session.Session, register RegisterFunc) *LoginView {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 100
	username.Focus()

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 200

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 200
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &LoginView{
		sess:     sess,
		register: register,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		username: username,
		email:    email,
		password: password,
	}
}

// SetNotice shows an informational line above the form.
func (v *LoginView) SetNotice(msg string) {
	v.notice = msg
}

// Init initializes the view
func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// fieldCount is the number of focusable elements (inputs + submit button).
func (v *LoginView) fieldCount() int {
	if v.registerMode {
		return 4
	}
	return 3
}

// Update handles messages
func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case loginDoneMsg:
		v.submitting = false
		if msg.err != nil {
			// Inputs keep the user's values so nothing is lost.
			v.errMsg = msg.err.Error()
			return v, nil
		}
		return v, func() tea.Msg { return LoggedIn{} }

	case registerDoneMsg:
		v.submitting = false
		if msg.err != nil {
			v.errMsg = msg.err.Error()
			return v, nil
		}
		v.registerMode = false
		v.focusIdx = 0
		v.notice = "account created, log in to continue"
		v.errMsg = ""
		v.updateFocus()
		return v, nil

	case tea.KeyMsg:
		if v.submitting {
			return v, nil
		}

		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit

		case msg.String() == "ctrl+r":
			v.registerMode = !v.registerMode
			v.focusIdx = 0
			v.errMsg = ""
			v.notice = ""
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Tab):
			v.focusIdx = (v.focusIdx + 1) % v.fieldCount()
			v.updateFocus()
			return v, textinput.Blink

		case msg.String() == "shift+tab":
			n := v.fieldCount()
			v.focusIdx = (v.focusIdx + n - 1) % n
			v.updateFocus()
			return v, textinput.Blink

		case key.Matches(msg, v.keys.Enter):
			// Enter on the last field or the button submits; otherwise
			// it moves to the next field.
			if v.focusIdx < v.fieldCount()-2 {
				v.focusIdx++
				v.updateFocus()
				return v, textinput.Blink
			}
			return v, v.submit()
		}

		var cmd tea.Cmd
		switch {
		case v.focusIdx == 0:
			v.username, cmd = v.username.Update(msg)
		case v.registerMode && v.focusIdx == 1:
			v.email, cmd = v.email.Update(msg)
		case (!v.registerMode && v.focusIdx == 1) || (v.registerMode && v.focusIdx == 2):
			v.password, cmd = v.password.Update(msg)
		}
		return v, cmd
	}

	return v, nil
}

func (v *LoginView) updateFocus() {
	v.username.Blur()
	v.email.Blur()
	v.password.Blur()

	switch {
	case v.focusIdx == 0:
		v.username.Focus()
	case v.registerMode && v.focusIdx == 1:
		v.email.Focus()
	case (!v.registerMode && v.focusIdx == 1) || (v.registerMode && v.focusIdx == 2):
		v.password.Focus()
	}
}

func (v *LoginView) submit() tea.Cmd {
	username := strings.TrimSpace(v.username.Value())
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()

	if username == "" || password == "" {
		v.errMsg = "username and password required"
		return nil
	}
	if v.registerMode && email == "" {
		v.errMsg = "email required"
		return nil
	}

	v.submitting = true
	v.errMsg = ""

	if v.registerMode {
		register := v.register
		return func() tea.Msg {
			profile, err := register(context.Background(), username, email, password)
			return registerDoneMsg{profile: profile, err: err}
		}
	}

	sess := v.sess
	return func() tea.Msg {
		return loginDoneMsg{err: sess.Login(context.Background(), username, password)}
	}
}

// View renders the view
func (v *LoginView) View() string {
	s := v.styles
	var b strings.Builder

	title := "taskman — log in"
	if v.registerMode {
		title = "taskman — new account"
	}
	b.WriteString(s.Title.Render(title))
	b.WriteString("\n\n")

	if v.notice != "" {
		b.WriteString(s.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	inputs := []struct {
		model textinput.Model
		idx   int
		show  bool
	}{
		{v.username, 0, true},
		{v.email, 1, v.registerMode},
		{v.password, v.passwordIdx(), true},
	}
	for _, in := range inputs {
		if !in.show {
			continue
		}
		style := s.Input
		if v.focusIdx == in.idx {
			style = s.InputFocused
		}
		b.WriteString(style.Width(40).Render(in.model.View()))
		b.WriteString("\n")
	}

	button := s.Button
	if v.focusIdx == v.fieldCount()-1 {
		button = s.ButtonFocused
	}
	label := "log in"
	if v.registerMode {
		label = "create account"
	}
	if v.submitting {
		label = "working..."
	}
	b.WriteString("\n")
	b.WriteString(button.Render(label))
	b.WriteString("\n")

	if v.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(s.Error.Render(v.errMsg))
		b.WriteString("\n")
	}

	help := "tab next field • enter submit • ctrl+r "
	if v.registerMode {
		help += "back to log in"
	} else {
		help += "new account"
	}
	b.WriteString(s.Help.Render(help))

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *LoginView) passwordIdx() int {
	if v.registerMode {
		return 2
	}
	return 1
}
