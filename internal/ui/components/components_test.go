package components

import (
	"image"
	"image/color"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestFitKeepsAspectRatio(t *testing.T) {
	t.Parallel()
	cases := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{w: 100, h: 100, maxW: 40, maxH: 20, wantW: 20, wantH: 20},
		{w: 300, h: 100, maxW: 30, maxH: 40, wantW: 30, wantH: 10},
		{w: 10, h: 1000, maxW: 40, maxH: 20, wantW: 1, wantH: 20},
	}
	for _, tc := range cases {
		gotW, gotH := fit(tc.w, tc.h, tc.maxW, tc.maxH)
		if gotW != tc.wantW || gotH != tc.wantH {
			t.Fatalf("fit(%d,%d,%d,%d) = %d,%d want %d,%d", tc.w, tc.h, tc.maxW, tc.maxH, gotW, gotH, tc.wantW, tc.wantH)
		}
	}
}

func TestRenderBlocksEmitsOneCellPerColumn(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}
	out := RenderBlocks(img, 4, 2)
	if rows := strings.Split(out, "\n"); len(rows) != 2 {
		t.Fatalf("expected 2 terminal rows, got %d", len(rows))
	}
	if n := strings.Count(out, "▀"); n != 8 {
		t.Fatalf("expected 8 cells, got %d", n)
	}
	if RenderBlocks(img, 0, 5) != "" {
		t.Fatalf("zero width should render nothing")
	}
	if got := hex(color.RGBA{R: 0xff, G: 0x0a, B: 0x01}); got != "#ff0a01" {
		t.Fatalf("hex = %s", got)
	}
}

func TestPaletteSubmitAndComplete(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	p.Open(PaletteRequest{
		Purpose: "add",
		Title:   "Add files",
		Value:   "a.pdf docs/re",
		Suggest: func(string) []string { return []string{"docs/report.pdf"} },
	})
	if !p.Visible() || !strings.Contains(p.View(), "docs/report.pdf") {
		t.Fatalf("palette should show suggestions")
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() || cmd == nil {
		t.Fatalf("enter should close the palette and emit a command")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Purpose != "add" || msg.Input != "a.pdf docs/report.pdf" {
		t.Fatalf("unexpected submit %+v", msg)
	}
	if complete("x,y", "yes") != "x,yes" || complete("solo", "solved") != "solved" {
		t.Fatalf("complete should replace only the last field")
	}
}
