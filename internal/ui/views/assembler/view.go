package assembler

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	assemblerdto "pdfmerge/internal/modules/assembler/dto"
	"pdfmerge/internal/ui/components"
	"pdfmerge/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	List(ctx context.Context) ([]assemblerdto.EntryView, error)
	Preview(ctx context.Context, id string) (assemblerdto.PreviewOutput, error)
	Remove(ctx context.Context, id string) error
	MoveUp(ctx context.Context, entries []assemblerdto.EntryView, index int) error
	MoveDown(ctx context.Context, entries []assemblerdto.EntryView, index int) error
	Drop(ctx context.Context, movedID, targetID string) error
	Clear(ctx context.Context) error
}

// ─── messages ────────────────────────────────────────────────────────────────

type EntriesLoadedMsg struct {
	Entries []assemblerdto.EntryView
	Err     error
}

type PreviewLoadedMsg struct {
	Preview assemblerdto.PreviewOutput
	Err     error
}

// ActionDoneMsg reports the outcome of a structural command such as remove or move.
// FocusID names the entry to select once the command succeeded.
type ActionDoneMsg struct {
	Action  string
	Err     error
	FocusID string
}

// ─── list item ───────────────────────────────────────────────────────────────

type entryItem struct {
	entry  assemblerdto.EntryView
	marked bool
}

func (i entryItem) Title() string {
	title := fmt.Sprintf("#%d  %s", i.entry.Position, i.entry.Name)
	if i.marked {
		title = theme.Marked.Render("⇅ ") + title
	}
	return title
}

func (i entryItem) Description() string {
	return i.entry.SizeLabel + "  ·  " + pagesLabel(i.entry)
}

func (i entryItem) FilterValue() string { return i.entry.Name }

func pagesLabel(e assemblerdto.EntryView) string {
	switch {
	case e.PageCount > 0:
		if e.PageCount == 1 {
			return "1 page"
		}
		return fmt.Sprintf("%d pages", e.PageCount)
	case e.State == "preview_failed":
		return "preview unavailable"
	default:
		return "Loading..."
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     Port
	list     list.Model
	detail   viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	entries  []assemblerdto.EntryView
	preview  assemblerdto.PreviewOutput
	marked   string
	focusID  string
	busy     bool
	width    int
	height   int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Documents"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("document", "documents")
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	r, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(0),
	)

	return Model{
		port:     port,
		list:     l,
		detail:   vp,
		spinner:  sp,
		renderer: r,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches the working set again; the app calls it whenever the set changes.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.port.List(context.Background())
		return EntriesLoadedMsg{Entries: entries, Err: err}
	}
}

// SetBusy toggles the combining spinner.
func (m *Model) SetBusy(busy bool) tea.Cmd {
	m.busy = busy
	if busy {
		return m.spinner.Tick
	}
	return nil
}

func (m Model) Busy() bool { return m.busy }

func (m Model) Len() int { return len(m.entries) }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.detail.SetContent(m.renderDetail())
		return m, nil

	case EntriesLoadedMsg:
		if msg.Err != nil {
			return m, func() tea.Msg { return ActionDoneMsg{Action: "list", Err: msg.Err} }
		}
		m.entries = msg.Entries
		if m.marked != "" && m.indexOf(m.marked) < 0 {
			m.marked = ""
		}
		cmds = append(cmds, m.list.SetItems(m.items()))
		if m.list.Index() >= len(m.entries) && len(m.entries) > 0 {
			m.list.Select(len(m.entries) - 1)
		}
		if m.focusID != "" {
			if i := m.indexOf(m.focusID); i >= 0 {
				m.list.Select(i)
			}
			m.focusID = ""
		}
		cmds = append(cmds, m.loadPreviewCmd())

	case ActionDoneMsg:
		if msg.Err == nil && msg.FocusID != "" {
			m.focusID = msg.FocusID
			return m, m.Reload()
		}
		return m, nil

	case PreviewLoadedMsg:
		if msg.Err == nil {
			m.preview = msg.Preview
		} else {
			m.preview = assemblerdto.PreviewOutput{}
		}
		m.detail.SetContent(m.renderDetail())

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	prevIdx := m.list.Index()
	var lCmd tea.Cmd
	m.list, lCmd = m.list.Update(msg)
	cmds = append(cmds, lCmd)
	if m.list.Index() != prevIdx {
		cmds = append(cmds, m.loadPreviewCmd())
	}

	var vCmd tea.Cmd
	m.detail, vCmd = m.detail.Update(msg)
	cmds = append(cmds, vCmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	idx := m.list.Index()
	selected, ok := m.selected()
	switch msg.String() {
	case "x", "delete":
		if !ok {
			return nil, true
		}
		id := selected.ID
		return m.actionCmd("remove", "", func(ctx context.Context) error { return m.port.Remove(ctx, id) }), true
	case "K", "shift+up":
		if !ok {
			return nil, true
		}
		entries := m.entries
		return m.actionCmd("move", selected.ID, func(ctx context.Context) error { return m.port.MoveUp(ctx, entries, idx) }), true
	case "J", "shift+down":
		if !ok {
			return nil, true
		}
		entries := m.entries
		return m.actionCmd("move", selected.ID, func(ctx context.Context) error { return m.port.MoveDown(ctx, entries, idx) }), true
	case "m":
		if !ok {
			return nil, true
		}
		if m.marked == "" {
			m.marked = selected.ID
			return m.list.SetItems(m.items()), true
		}
		moved := m.marked
		m.marked = ""
		target := selected.ID
		return tea.Batch(
			m.list.SetItems(m.items()),
			m.actionCmd("move", moved, func(ctx context.Context) error { return m.port.Drop(ctx, moved, target) }),
		), true
	case "esc":
		if m.marked != "" {
			m.marked = ""
			return m.list.SetItems(m.items()), true
		}
	case "C":
		return m.actionCmd("clear", "", m.port.Clear), true
	}
	return nil, false
}

func (m Model) View() string {
	listW := m.width * 45 / 100
	detailW := m.width - listW

	var top string
	if m.busy {
		top = m.spinner.View() + " Combining…\n"
	} else if m.marked != "" {
		top = theme.Marked.Render("moving: select a position and press m to drop, esc to cancel") + "\n"
	}
	listBody := m.list.View()
	if len(m.entries) == 0 {
		listBody = theme.Title.Render("Documents") + "\n\n" + theme.Muted.Render("No documents yet. Press a to add PDF files.")
	}

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(top + listBody)

	pane := theme.Pane
	if m.marked != "" {
		pane = theme.PaneActive
	}
	detailPane := pane.
		Padding(0).
		Width(max(detailW-2, 1)).
		Height(max(m.height-2, 1)).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// SelectedID returns the id of the highlighted entry, if any.
func (m Model) SelectedID() (string, bool) {
	e, ok := m.selected()
	return e.ID, ok
}

// Marked returns the id of the entry picked up for a drop.
func (m Model) Marked() string { return m.marked }

// Entries returns the last loaded working set.
func (m Model) Entries() []assemblerdto.EntryView { return m.entries }

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 45 / 100
	detailW := m.width - listW
	m.list.SetSize(listW, max(m.height-1, 1))
	m.detail.Width = max(detailW-4, 1)
	m.detail.Height = max(m.height-4, 1)
	if r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.detail.Width),
	); err == nil {
		m.renderer = r
	}
}

func (m Model) selected() (assemblerdto.EntryView, bool) {
	if item, ok := m.list.SelectedItem().(entryItem); ok {
		return item.entry, true
	}
	return assemblerdto.EntryView{}, false
}

func (m Model) items() []list.Item {
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = entryItem{entry: e, marked: e.ID == m.marked}
	}
	return items
}

func (m Model) indexOf(id string) int {
	for i, e := range m.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) renderDetail() string {
	e, ok := m.selected()
	if !ok {
		return theme.Muted.Render("Add PDF files to build a combined document.\n\na: add  c: combine  ?: help")
	}
	var md strings.Builder
	fmt.Fprintf(&md, "## %s\n\n", e.Name)
	fmt.Fprintf(&md, "- **Position:** %d of %d\n", e.Position, len(m.entries))
	fmt.Fprintf(&md, "- **Size:** %s\n", e.SizeLabel)
	fmt.Fprintf(&md, "- **Pages:** %s\n", pagesLabel(e))
	if e.SourcePath != "" {
		fmt.Fprintf(&md, "- **Source:** `%s`\n", e.SourcePath)
	}

	body := md.String()
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(body); err == nil {
			body = rendered
		}
	}

	var sb strings.Builder
	sb.WriteString(body)
	if m.preview.ID == e.ID && len(m.preview.PNG) > 0 {
		if img, err := png.Decode(bytes.NewReader(m.preview.PNG)); err == nil {
			rows := max(m.detail.Height-lipgloss.Height(body)-1, 4)
			sb.WriteString("\n" + components.RenderBlocks(img, max(m.detail.Width-2, 1), rows))
		}
	} else if e.State == "preview_failed" {
		sb.WriteString("\n" + theme.Muted.Render("No preview for this document. It will still be combined."))
	}
	return sb.String()
}

func (m Model) loadPreviewCmd() tea.Cmd {
	e, ok := m.selected()
	if !ok || !e.HasPreview {
		return func() tea.Msg { return PreviewLoadedMsg{} }
	}
	id := e.ID
	return func() tea.Msg {
		p, err := m.port.Preview(context.Background(), id)
		return PreviewLoadedMsg{Preview: p, Err: err}
	}
}

// actionCmd runs fn off the update loop. The selection only follows focusID after fn
// succeeds, so a rejected move leaves the cursor where the list still is.
func (m Model) actionCmd(action, focusID string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: action, Err: fn(context.Background()), FocusID: focusID}
	}
}
