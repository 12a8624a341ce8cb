package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/adviser/internal/session"
	"github.com/spf13/cobra"
)

// chatPaneBubbles is how many bubbles of the history fit above the input.
const chatPaneBubbles = 12

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive question view",
	Long: `Open an interactive view with the question history and an input line.

When no token is held a sign-in form is shown first.

Keys:
  enter    submit (login on the sign-in form)
  ctrl+n   sign up instead of login
  tab      switch between email and password
  ctrl+c   quit

Commands typed into the question line:
  /clear   delete the local history
  /logout  forget the token and return to the sign-in form
  /quit    leave`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

type chatMode int

const (
	modeSignIn chatMode = iota
	modeChat
)

// authDoneMsg reports a finished signup or login.
type authDoneMsg struct{ err error }

// askDoneMsg reports a finished ask.
type askDoneMsg struct{ err error }

// commandDoneMsg reports a finished slash command.
type commandDoneMsg struct {
	signedOut bool
	err       error
}

// chatModel is the bubbletea model for the interactive view.
// All state the user sees comes from the session controllers.
type chatModel struct {
	ctx  context.Context
	sess *session.Session

	mode     chatMode
	email    textinput.Model
	password textinput.Model
	question textinput.Model
	spinner  spinner.Model
	theme    Theme

	// waiting is set while a controller call runs in a command.
	waiting bool
	notice  string
	err     error
}

func newChatModel(ctx context.Context, s *session.Session, redirect bool) chatModel {
	email := textinput.New()
	email.Prompt = "Email:    "
	email.Placeholder = "you@example.com"

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	question := textinput.New()
	question.Prompt = "› "
	question.Placeholder = "Ask a security question"
	question.CharLimit = 1000

	m := chatModel{
		ctx:      ctx,
		sess:     s,
		email:    email,
		password: password,
		question: question,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:    defaultTheme,
	}
	if redirect {
		m.mode = modeSignIn
		m.email.Focus()
	} else {
		m.mode = modeChat
		m.question.Focus()
	}
	return m
}

// Init starts the spinner; it is only drawn while waiting.
func (m chatModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			return m.submit(false)
		case "ctrl+n":
			if m.mode == modeSignIn {
				return m.submit(true)
			}
		case "tab", "shift+tab":
			if m.mode == modeSignIn {
				m.toggleFocus()
				return m, nil
			}
		}

	case authDoneMsg:
		m.waiting = false
		m.err = msg.err
		if msg.err == nil {
			m.password.SetValue("")
			m.enterChat()
		}
		return m, nil

	case askDoneMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil

	case commandDoneMsg:
		m.waiting = false
		m.err = msg.err
		if msg.signedOut {
			m.mode = modeSignIn
			m.question.Blur()
			m.email.Focus()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch {
	case m.mode == modeChat:
		m.question, cmd = m.question.Update(msg)
	case m.email.Focused():
		m.email, cmd = m.email.Update(msg)
	default:
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *chatModel) toggleFocus() {
	if m.email.Focused() {
		m.email.Blur()
		m.password.Focus()
		return
	}
	m.password.Blur()
	m.email.Focus()
}

func (m *chatModel) enterChat() {
	m.sess.Bootstrap(m.ctx)
	m.mode = modeChat
	m.email.Blur()
	m.password.Blur()
	m.question.Focus()
}

// submit dispatches the current input. Controller calls run in a command so
// Update never blocks on the network.
func (m chatModel) submit(signup bool) (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	m.notice = ""
	m.err = nil

	if m.mode == modeSignIn {
		email, password := m.email.Value(), m.password.Value()
		auth := m.sess.Auth.Login
		if signup {
			auth = m.sess.Auth.Signup
		}
		m.waiting = true
		ctx := m.ctx
		return m, func() tea.Msg {
			return authDoneMsg{err: auth(ctx, email, password)}
		}
	}

	text := strings.TrimSpace(m.question.Value())
	m.question.Reset()
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	m.waiting = true
	ctx, conv := m.ctx, m.sess.Conversation
	return m, func() tea.Msg {
		return askDoneMsg{err: conv.Ask(ctx, text)}
	}
}

func (m chatModel) runCommand(text string) (tea.Model, tea.Cmd) {
	ctx, s := m.ctx, m.sess
	switch text {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		m.waiting = true
		return m, func() tea.Msg {
			return commandDoneMsg{err: s.Conversation.ClearHistory(ctx)}
		}
	case "/logout":
		m.waiting = true
		return m, func() tea.Msg {
			err := s.Auth.Logout(ctx)
			return commandDoneMsg{signedOut: err == nil, err: err}
		}
	default:
		m.notice = fmt.Sprintf("unknown command %s (try /clear, /logout, /quit)", text)
		return m, nil
	}
}

// View renders the interactive view.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	var b strings.Builder

	if m.mode == modeSignIn {
		auth := m.sess.Auth.View(m.ctx)
		b.WriteString(m.theme.statusStyle().Render("Sign in to ask questions") + "\n\n")
		b.WriteString(m.email.View() + "\n")
		b.WriteString(m.password.View() + "\n\n")
		if m.waiting || auth.ControlsDisabled {
			b.WriteString(m.spinner.View() + " ")
		}
		if s := m.theme.renderStatus(auth.Status); s != "" {
			b.WriteString(s + "\n")
		}
		b.WriteString(m.theme.hintStyle().Render("enter: login • ctrl+n: sign up • tab: switch field • ctrl+c: quit") + "\n")
		return b.String()
	}

	view := m.sess.Conversation.View()
	b.WriteString(m.theme.renderPane(view.Pane, chatPaneBubbles))

	if view.Loading {
		b.WriteString(m.spinner.View() + " " + m.theme.statusStyle().Render(view.Status) + "\n")
	} else if view.Result.Error != "" {
		b.WriteString(m.theme.renderResult(view.Result, false) + "\n")
	}
	if m.err != nil && view.Result.Error == "" && !errors.Is(m.err, session.ErrAskInFlight) {
		b.WriteString(m.theme.errorStyle().Render(m.err.Error()) + "\n")
	}
	if m.notice != "" {
		b.WriteString(m.theme.hintStyle().Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.question.View() + "\n")
	b.WriteString(m.theme.hintStyle().Render("enter: ask • /clear • /logout • ctrl+c: quit") + "\n")
	return b.String()
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	outcome := sess.Bootstrap(ctx)
	p := tea.NewProgram(newChatModel(ctx, sess, outcome.Redirect))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
