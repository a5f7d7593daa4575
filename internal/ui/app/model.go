package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	accessdto "pdfmerge/internal/modules/access/dto"
	assemblerdto "pdfmerge/internal/modules/assembler/dto"
	apperrors "pdfmerge/internal/platform/errors"
	"pdfmerge/internal/ui/components"
	"pdfmerge/internal/ui/theme"
	assemblerview "pdfmerge/internal/ui/views/assembler"
	gateview "pdfmerge/internal/ui/views/gate"
)

// MergeFailureMessage is the generic notice shown when combining fails.
const MergeFailureMessage = "Error combining PDFs. Please try again."

// ─── ports ───────────────────────────────────────────────────────────────────

type accessPort interface {
	CheckSession(ctx context.Context) (bool, error)
	Login(ctx context.Context, password string) (accessdto.VerifyOutput, error)
}

type assemblerPort interface {
	AddPaths(ctx context.Context, input string) ([]assemblerdto.EntryView, error)
	Remove(ctx context.Context, id string) error
	MoveUp(ctx context.Context, entries []assemblerdto.EntryView, index int) error
	MoveDown(ctx context.Context, entries []assemblerdto.EntryView, index int) error
	Drop(ctx context.Context, movedID, targetID string) error
	Clear(ctx context.Context) error
	Combine(ctx context.Context, outputName string) (assemblerdto.CombineOutput, error)
	List(ctx context.Context) ([]assemblerdto.EntryView, error)
	Preview(ctx context.Context, id string) (assemblerdto.PreviewOutput, error)
}

const (
	purposeAdd     = "add"
	purposeCombine = "combine"
)

// ─── async messages ───────────────────────────────────────────────────────────

type sessionCheckedMsg struct {
	ok  bool
	err error
}

type changedMsg struct{}

type addedMsg struct {
	added []assemblerdto.EntryView
	err   error
}

type combinedMsg struct {
	out assemblerdto.CombineOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Add     key.Binding
	Remove  key.Binding
	Up      key.Binding
	Down    key.Binding
	Mark    key.Binding
	Combine key.Binding
	Clear   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add files")),
		Remove:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		Up:      key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		Down:    key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		Mark:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "pick up / drop before")),
		Combine: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "combine")),
		Clear:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear all")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Combine, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Remove, k.Clear},
		{k.Up, k.Down, k.Mark},
		{k.Combine, k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It shows the password gate until a session is
// authorized, then the document assembler with its palette, help overlay and status bar.
type Model struct {
	access    accessPort
	assembler assemblerPort
	changes   <-chan struct{}

	gateView gateview.Model
	workView assemblerview.Model

	checking   bool
	authorized bool
	combining  bool
	keys       keyMap
	help       help.Model
	showHelp   bool
	palette    components.Palette
	status     string
	width      int
	height     int
}

func NewModel(access accessPort, assembler assemblerPort, changes <-chan struct{}) Model {
	return Model{
		access:    access,
		assembler: assembler,
		changes:   changes,
		gateView:  gateview.New(access),
		workView:  assemblerview.New(assembler),
		checking:  true,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.checkSessionCmd(), m.gateView.Init(), m.waitForChange())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.gateView, _ = m.gateView.Update(msg)
		m.workView, _ = m.workView.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height - 3})
		return m, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case sessionCheckedMsg:
		m.checking = false
		if msg.err != nil {
			m.status = "session check failed: " + msg.err.Error()
			return m, nil
		}
		if msg.ok {
			m.authorized = true
			return m, m.workView.Init()
		}
		return m, nil

	case gateview.AuthorizedMsg:
		m.authorized = true
		m.status = "unlocked"
		if !msg.Persisted {
			m.status = "unlocked for this run only: the session could not be saved"
		}
		return m, m.workView.Init()

	case changedMsg:
		cmds := []tea.Cmd{m.waitForChange()}
		if m.authorized {
			cmds = append(cmds, m.workView.Reload())
		}
		return m, tea.Batch(cmds...)
	}

	if !m.authorized {
		if m.checking {
			return m, nil
		}
		var cmd tea.Cmd
		m.gateView, cmd = m.gateView.Update(msg)
		return m, cmd
	}

	// Results of async work land here even while the palette is open.
	switch msg := msg.(type) {
	case addedMsg:
		switch {
		case msg.err != nil:
			m.status = "add failed: " + describe(msg.err)
		case len(msg.added) == 0:
			m.status = "no PDF files in selection"
		default:
			m.status = fmt.Sprintf("added %d document(s)", len(msg.added))
		}
		return m, nil

	case combinedMsg:
		m.combining = false
		cmd := m.workView.SetBusy(false)
		switch {
		case msg.err != nil:
			m.status = theme.Error.Render(MergeFailureMessage)
			if errors.Is(msg.err, apperrors.ErrMergeInProgress) {
				m.status = "a combine is already running"
			}
		case msg.out.Skipped:
			m.status = "nothing to combine: add some PDF files first"
		default:
			m.status = theme.Success.Render(fmt.Sprintf("saved %s (%d documents)", msg.out.Path, msg.out.Documents))
		}
		return m, cmd

	case assemblerview.ActionDoneMsg:
		if msg.Err != nil {
			m.status = msg.Action + " failed: " + describe(msg.Err)
		}
		var cmd tea.Cmd
		m.workView, cmd = m.workView.Update(msg)
		return m, cmd

	case assemblerview.EntriesLoadedMsg, assemblerview.PreviewLoadedMsg, spinner.TickMsg:
		var cmd tea.Cmd
		m.workView, cmd = m.workView.Update(msg)
		return m, cmd
	}

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case components.PaletteSubmitMsg:
		return m.executePalette(msg)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case m.combining && (key.Matches(msg, m.keys.Add) || key.Matches(msg, m.keys.Combine)):
			m.status = describe(apperrors.ErrMergeInProgress)
			return m, nil
		case key.Matches(msg, m.keys.Add):
			return m, m.palette.Open(components.PaletteRequest{
				Purpose:     purposeAdd,
				Title:       "Add PDF files",
				Placeholder: "paths or globs, e.g. ~/scans/*.pdf",
				Hint:        "tab completes, non-PDF files are skipped",
				Suggest:     suggestPaths,
			})
		case key.Matches(msg, m.keys.Combine):
			if m.workView.Len() == 0 {
				m.status = "nothing to combine: add some PDF files first"
				return m, nil
			}
			return m, m.palette.Open(components.PaletteRequest{
				Purpose:     purposeCombine,
				Title:       "Combine into",
				Placeholder: "combined-document",
				Hint:        "file name, .pdf is added for you",
			})
		}
	}

	var cmd tea.Cmd
	m.workView, cmd = m.workView.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.checking {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Muted.Render("checking session…"))
	}
	if !m.authorized {
		return m.gateView.View()
	}

	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.workView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (m Model) renderHeader() string {
	bar := theme.Hot.Render(" pdfmerge ") + theme.Muted.Render(fmt.Sprintf(" │ %d document(s)", m.workView.Len()))
	if m.combining {
		bar += theme.Muted.Render(" │ combining")
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("a:add  c:combine  ?:help  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(msg components.PaletteSubmitMsg) (tea.Model, tea.Cmd) {
	switch msg.Purpose {
	case purposeAdd:
		if msg.Input == "" {
			m.status = "ready"
			return m, nil
		}
		m.status = "adding…"
		return m, m.addCmd(msg.Input)
	case purposeCombine:
		if m.combining {
			m.status = "a combine is already running"
			return m, nil
		}
		m.combining = true
		m.status = "combining…"
		return m, tea.Batch(m.workView.SetBusy(true), m.combineCmd(msg.Input))
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func describe(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrMergeInProgress):
		return "wait for the current combine to finish"
	default:
		return err.Error()
	}
}

// suggestPaths completes the last field of input against the filesystem.
func suggestPaths(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
	last := ""
	if len(fields) > 0 && !strings.HasSuffix(input, " ") && !strings.HasSuffix(input, ",") {
		last = fields[len(fields)-1]
	}
	if strings.ContainsAny(last, "*?[") {
		return nil
	}
	matches, err := filepath.Glob(last + "*")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		if strings.HasPrefix(filepath.Base(match), ".") && !strings.HasPrefix(filepath.Base(last), ".") {
			continue
		}
		out = append(out, match)
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) checkSessionCmd() tea.Cmd {
	return func() tea.Msg {
		ok, err := m.access.CheckSession(context.Background())
		return sessionCheckedMsg{ok: ok, err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-m.changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) addCmd(input string) tea.Cmd {
	return func() tea.Msg {
		added, err := m.assembler.AddPaths(context.Background(), input)
		return addedMsg{added: added, err: err}
	}
}

func (m Model) combineCmd(name string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.assembler.Combine(context.Background(), name)
		return combinedMsg{out: out, err: err}
	}
}
