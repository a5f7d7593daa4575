package gate

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	accessdto "pdfmerge/internal/modules/access/dto"
	apperrors "pdfmerge/internal/platform/errors"
	"pdfmerge/internal/ui/theme"
)

// MismatchMessage is shown after a wrong password.
const MismatchMessage = "Incorrect password. Please try again."

type Port interface {
	Login(ctx context.Context, password string) (accessdto.VerifyOutput, error)
}

type VerifiedMsg struct {
	Output accessdto.VerifyOutput
	Err    error
}

// AuthorizedMsg tells the parent that the gate is open.
type AuthorizedMsg struct {
	Persisted bool
}

var toggleKey = key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "show/hide"))

type Model struct {
	port     Port
	input    textinput.Model
	errText  string
	checking bool
	width    int
	height   int
}

func New(port Port) Model {
	ti := textinput.New()
	ti.Placeholder = "password"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 32
	ti.Focus()
	return Model{port: port, input: ti}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case VerifiedMsg:
		m.checking = false
		if msg.Err != nil {
			m.input.SetValue("")
			if errors.Is(msg.Err, apperrors.ErrCredentialMismatch) {
				m.errText = MismatchMessage
			} else {
				m.errText = "Could not check password: " + msg.Err.Error()
			}
			return m, nil
		}
		m.errText = ""
		m.input.Blur()
		persisted := msg.Output.Persisted
		return m, func() tea.Msg { return AuthorizedMsg{Persisted: persisted} }

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, toggleKey):
			if m.input.EchoMode == textinput.EchoPassword {
				m.input.EchoMode = textinput.EchoNormal
			} else {
				m.input.EchoMode = textinput.EchoPassword
			}
			return m, nil
		case msg.Type == tea.KeyEnter:
			if m.checking {
				return m, nil
			}
			m.checking = true
			return m, m.verifyCmd(m.input.Value())
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("PDF Merge") + "\n\n")
	sb.WriteString("Enter the password to continue.\n\n")
	sb.WriteString(m.input.View() + "\n\n")
	if m.errText != "" {
		sb.WriteString(theme.Error.Render(m.errText) + "\n\n")
	}
	eye := "show"
	if m.input.EchoMode == textinput.EchoNormal {
		eye = "hide"
	}
	sb.WriteString(theme.Muted.Render("enter: unlock  ctrl+t: " + eye + " password  ctrl+c: quit"))
	card := theme.Card.Render(sb.String())
	if m.width == 0 || m.height == 0 {
		return card
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}

// ErrorText is the message currently shown under the input.
func (m Model) ErrorText() string { return m.errText }

// Masked reports whether the input hides what is typed.
func (m Model) Masked() bool { return m.input.EchoMode == textinput.EchoPassword }

func (m Model) Value() string { return m.input.Value() }

func (m Model) verifyCmd(password string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Login(context.Background(), password)
		return VerifiedMsg{Output: out, Err: err}
	}
}
