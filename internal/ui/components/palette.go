package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfmerge/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms the prompt.
type PaletteSubmitMsg struct {
	Purpose string
	Input   string
}

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{ Purpose string }

// Suggester returns completions for the current input.
type Suggester func(input string) []string

const maxSuggestions = 5

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// PaletteRequest configures one opening of the palette.
type PaletteRequest struct {
	Purpose     string
	Title       string
	Placeholder string
	Value       string
	Hint        string
	Suggest     Suggester
}

// Palette is a one-line prompt overlay backed by bubbles/textinput.
type Palette struct {
	input   textinput.Model
	req     PaletteRequest
	visible bool
	width   int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.CharLimit = 1024
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

func (p Palette) Purpose() string { return p.req.Purpose }

// Open shows the palette for req and returns the focus command.
func (p *Palette) Open(req PaletteRequest) tea.Cmd {
	p.req = req
	p.visible = true
	p.input.Placeholder = req.Placeholder
	p.input.SetValue(req.Value)
	p.input.CursorEnd()
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		purpose := p.req.Purpose
		switch msg.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{Purpose: purpose} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteSubmitMsg{Purpose: purpose, Input: val} }
		case "tab":
			if s := p.suggestions(); len(s) > 0 {
				p.input.SetValue(complete(p.input.Value(), s[0]))
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(p.req.Title) + "\n")
	sb.WriteString("> " + p.input.View() + "\n")
	if p.req.Hint != "" {
		sb.WriteString(hintStyle.Render(p.req.Hint) + "\n")
	}
	if s := p.suggestions(); len(s) > 0 {
		sb.WriteString("\n")
		for _, h := range s {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

func (p Palette) suggestions() []string {
	if p.req.Suggest == nil {
		return nil
	}
	s := p.req.Suggest(p.input.Value())
	if len(s) > maxSuggestions {
		s = s[:maxSuggestions]
	}
	return s
}

// complete replaces the last whitespace-separated field of input with choice.
func complete(input, choice string) string {
	i := strings.LastIndexAny(input, " \t,")
	if i < 0 {
		return choice
	}
	return input[:i+1] + choice
}
