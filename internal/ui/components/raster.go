package components

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// RenderBlocks draws img with upper half blocks, two pixel rows per terminal row, scaled
// to fit within cols x rows cells while keeping the aspect ratio.
func RenderBlocks(img image.Image, cols, rows int) string {
	b := img.Bounds()
	if cols < 1 || rows < 1 || b.Dx() < 1 || b.Dy() < 1 {
		return ""
	}
	w, h := fit(b.Dx(), b.Dy(), cols, rows*2)
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			top := hex(scaled.RGBAAt(x, y))
			cell := lipgloss.NewStyle().Foreground(lipgloss.Color(top))
			if y+1 < h {
				cell = cell.Background(lipgloss.Color(hex(scaled.RGBAAt(x, y+1))))
			}
			sb.WriteString(cell.Render("▀"))
		}
		if y+2 < h {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// fit scales w x h down or up to the largest size inside maxW x maxH.
func fit(w, h, maxW, maxH int) (int, int) {
	if w*maxH > h*maxW {
		nh := h * maxW / w
		if nh < 1 {
			nh = 1
		}
		return maxW, nh
	}
	nw := w * maxH / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxH
}

func hex(c color.RGBA) string {
	const digits = "0123456789abcdef"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		buf[1+2*i] = digits[v>>4]
		buf[2+2*i] = digits[v&0x0f]
	}
	return string(buf)
}
