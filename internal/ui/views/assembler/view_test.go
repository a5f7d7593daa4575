package assembler_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	assemblerdto "pdfmerge/internal/modules/assembler/dto"
	"pdfmerge/internal/ui/views/assembler"
)

type fakePort struct {
	entries []assemblerdto.EntryView
	calls   []string
	moveErr error
}

func (f *fakePort) swap(i, j int) {
	f.entries[i], f.entries[j] = f.entries[j], f.entries[i]
	for k := range f.entries {
		f.entries[k].Position = k + 1
	}
}

func (f *fakePort) List(context.Context) ([]assemblerdto.EntryView, error) {
	return append([]assemblerdto.EntryView(nil), f.entries...), nil
}

func (f *fakePort) Preview(_ context.Context, id string) (assemblerdto.PreviewOutput, error) {
	return assemblerdto.PreviewOutput{ID: id}, nil
}

func (f *fakePort) Remove(_ context.Context, id string) error {
	f.calls = append(f.calls, "remove "+id)
	return nil
}

func (f *fakePort) MoveUp(_ context.Context, _ []assemblerdto.EntryView, index int) error {
	f.calls = append(f.calls, fmt.Sprintf("up %d", index))
	if f.moveErr != nil {
		return f.moveErr
	}
	if index > 0 {
		f.swap(index-1, index)
	}
	return nil
}

func (f *fakePort) MoveDown(_ context.Context, _ []assemblerdto.EntryView, index int) error {
	f.calls = append(f.calls, fmt.Sprintf("down %d", index))
	if f.moveErr != nil {
		return f.moveErr
	}
	if index < len(f.entries)-1 {
		f.swap(index, index+1)
	}
	return nil
}

func (f *fakePort) Drop(_ context.Context, moved, target string) error {
	f.calls = append(f.calls, "drop "+moved+" before "+target)
	return nil
}

func (f *fakePort) Clear(context.Context) error {
	f.calls = append(f.calls, "clear")
	return nil
}

// drain runs cmd and any batched commands it yields, collecting the messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, port *fakePort) assembler.Model {
	t.Helper()
	m := assembler.New(port)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	entries, _ := port.List(context.Background())
	m, _ = m.Update(assembler.EntriesLoadedMsg{Entries: entries})
	if m.Len() != len(port.entries) {
		t.Fatalf("len = %d, want %d", m.Len(), len(port.entries))
	}
	return m
}

func threeEntries() *fakePort {
	return &fakePort{entries: []assemblerdto.EntryView{
		{ID: "a", Position: 1, Name: "a.pdf", SizeLabel: "1 KB", PageCount: 2, State: "previewed"},
		{ID: "b", Position: 2, Name: "b.pdf", SizeLabel: "2 KB", State: "pending"},
		{ID: "c", Position: 3, Name: "c.pdf", SizeLabel: "3 KB", State: "preview_failed"},
	}}
}

// settle feeds every message produced by cmd back into the model.
func settle(m assembler.Model, cmd tea.Cmd) assembler.Model {
	for _, msg := range drain(cmd) {
		var next tea.Cmd
		m, next = m.Update(msg)
		m = settle(m, next)
	}
	return m
}

func TestMoveKeysFollowSelection(t *testing.T) {
	t.Parallel()
	port := threeEntries()
	m := loaded(t, port)

	m, cmd := m.Update(key("J"))
	if id, _ := m.SelectedID(); id != "a" {
		t.Fatalf("selection must wait for the move to finish, got %q", id)
	}
	m = settle(m, cmd)
	if id, _ := m.SelectedID(); id != "a" || m.Entries()[1].ID != "a" {
		t.Fatalf("selection should follow the moved entry, got %q in %+v", id, m.Entries())
	}
	m, cmd = m.Update(key("K"))
	m = settle(m, cmd)
	if id, _ := m.SelectedID(); id != "a" || m.Entries()[0].ID != "a" {
		t.Fatalf("selection should follow the entry back up, got %q", id)
	}
	if strings.Join(port.calls, ",") != "down 0,up 1" {
		t.Fatalf("calls = %v", port.calls)
	}
}

func TestRejectedMoveKeepsSelection(t *testing.T) {
	t.Parallel()
	port := threeEntries()
	port.moveErr = errors.New("merge in progress")
	m := loaded(t, port)

	m, cmd := m.Update(key("J"))
	m = settle(m, cmd)
	if id, _ := m.SelectedID(); id != "a" || m.Entries()[0].ID != "a" {
		t.Fatalf("rejected move must leave cursor and order alone, got %q", id)
	}
	if m.Len() != 3 {
		t.Fatalf("len = %d", m.Len())
	}
}

func TestMarkAndDrop(t *testing.T) {
	t.Parallel()
	port := threeEntries()
	m := loaded(t, port)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(key("m"))
	if m.Marked() != "c" {
		t.Fatalf("marked = %q", m.Marked())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyHome})
	m, cmd := m.Update(key("m"))
	drain(cmd)
	if m.Marked() != "" {
		t.Fatalf("drop should clear the mark")
	}
	if len(port.calls) != 1 || port.calls[0] != "drop c before a" {
		t.Fatalf("calls = %v", port.calls)
	}
}

func TestEscCancelsMarkAndRemoveClear(t *testing.T) {
	t.Parallel()
	port := threeEntries()
	m := loaded(t, port)

	m, _ = m.Update(key("m"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Marked() != "" {
		t.Fatalf("esc should cancel the mark")
	}
	m, cmd := m.Update(key("x"))
	drain(cmd)
	_, cmd = m.Update(key("C"))
	drain(cmd)
	if strings.Join(port.calls, ",") != "remove a,clear" {
		t.Fatalf("calls = %v", port.calls)
	}
}

func TestViewShowsLoadingAndEmptyState(t *testing.T) {
	t.Parallel()
	m := loaded(t, threeEntries())
	view := m.View()
	for _, want := range []string{"a.pdf", "2 pages", "Loading...", "preview unavailable"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}

	empty := loaded(t, &fakePort{})
	if !strings.Contains(empty.View(), "No documents yet") {
		t.Fatalf("empty view should prompt for files")
	}
}
