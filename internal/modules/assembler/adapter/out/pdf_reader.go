package out

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"rsc.io/pdf"

	assemblerout "pdfmerge/internal/modules/assembler/port/out"
)

const (
	// Letter size in points, used when a page declares no MediaBox.
	defaultPageWidth  = 612
	defaultPageHeight = 792
	maxRasterSide     = 4096

	// Page trees deeper than this are treated as malformed.
	maxTreeDepth = 32
)

var (
	ruleColor = color.RGBA{R: 0x9a, G: 0x9a, B: 0x9a, A: 0xff}
	inkColor  = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
)

// LocalPDFReader parses documents with rsc.io/pdf and rasterizes pages with freetype.
type LocalPDFReader struct {
	font *truetype.Font
}

func NewLocalPDFReader() (assemblerout.PDFReader, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse preview font: %w", err)
	}
	return &LocalPDFReader{font: f}, nil
}

func (r *LocalPDFReader) Load(ctx context.Context, data []byte) (doc assemblerout.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer recoverInto(&err, "load pdf")
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &localDocument{reader: reader, pages: reader.NumPage(), font: r.font, faces: map[int]font.Face{}}, nil
}

type localDocument struct {
	reader *pdf.Reader
	pages  int
	font   *truetype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

func (d *localDocument) PageCount() int {
	return d.pages
}

func (d *localDocument) RenderPage(ctx context.Context, number int, scale float64) (img image.Image, err error) {
	if number < 1 || number > d.pages {
		return nil, fmt.Errorf("page %d out of range 1..%d", number, d.pages)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}
	defer recoverInto(&err, fmt.Sprintf("render page %d", number))

	page := d.reader.Page(number)
	if page.V.IsNull() {
		return nil, fmt.Errorf("pdf page %d is null", number)
	}
	chain, err := parentChain(ctx, page.V)
	if err != nil {
		return nil, fmt.Errorf("pdf page %d: %w", number, err)
	}
	box := mediaBox(chain)
	width := clampSide(box.Dx() * scale)
	height := clampSide(box.Dy() * scale)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	toPixel := func(x, y float64) (float64, float64) {
		return (x - box.Min.X) * scale, (box.Max.Y - y) * scale
	}

	content := page.Content()
	for _, rect := range content.Rect {
		x0, y0 := toPixel(rect.Min.X, rect.Min.Y)
		x1, y1 := toPixel(rect.Max.X, rect.Max.Y)
		strokeRect(canvas, image.Rect(int(x0), int(y1), int(x1), int(y0)))
	}

	drawer := &font.Drawer{Dst: canvas, Src: image.NewUniform(inkColor)}
	for i, text := range content.Text {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		size := int(math.Round(text.FontSize * scale))
		if size < 1 || text.S == "" {
			continue
		}
		x, y := toPixel(text.X, text.Y)
		drawer.Face = d.face(size)
		drawer.Dot = fixed.Point26_6{X: fixed.I(int(x)), Y: fixed.I(int(y))}
		drawer.DrawString(text.S)
	}
	return canvas, nil
}

func (d *localDocument) face(size int) font.Face {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(d.font, &truetype.Options{Size: float64(size), DPI: 72, Hinting: font.HintingNone})
	d.faces[size] = f
	return f
}

type pageBox struct {
	Min, Max pdf.Point
}

func (b pageBox) Dx() float64 { return b.Max.X - b.Min.X }
func (b pageBox) Dy() float64 { return b.Max.Y - b.Min.Y }

// parentChain returns the page followed by its ancestors. Inherited attributes such as
// MediaBox and Resources are looked up along this chain, so a Parent cycle is an error.
func parentChain(ctx context.Context, page pdf.Value) ([]pdf.Value, error) {
	var chain []pdf.Value
	for v := page; !v.IsNull(); v = v.Key("Parent") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(chain) == maxTreeDepth {
			return nil, fmt.Errorf("page tree deeper than %d levels", maxTreeDepth)
		}
		chain = append(chain, v)
	}
	return chain, nil
}

func mediaBox(chain []pdf.Value) pageBox {
	for _, v := range chain {
		mb := v.Key("MediaBox")
		if mb.Kind() != pdf.Array || mb.Len() != 4 {
			continue
		}
		box := pageBox{
			Min: pdf.Point{X: math.Min(mb.Index(0).Float64(), mb.Index(2).Float64()), Y: math.Min(mb.Index(1).Float64(), mb.Index(3).Float64())},
			Max: pdf.Point{X: math.Max(mb.Index(0).Float64(), mb.Index(2).Float64()), Y: math.Max(mb.Index(1).Float64(), mb.Index(3).Float64())},
		}
		if box.Dx() > 0 && box.Dy() > 0 {
			return box
		}
	}
	return pageBox{Max: pdf.Point{X: defaultPageWidth, Y: defaultPageHeight}}
}

func clampSide(v float64) int {
	side := int(math.Ceil(v))
	if side < 1 {
		return 1
	}
	if side > maxRasterSide {
		return maxRasterSide
	}
	return side
}

func strokeRect(dst *image.RGBA, r image.Rectangle) {
	r = r.Canon()
	src := image.NewUniform(ruleColor)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X+1, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y, r.Max.X+1, r.Max.Y+1),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y+1),
		image.Rect(r.Max.X, r.Min.Y, r.Max.X+1, r.Max.Y+1),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// recoverInto converts panics from the pdf parser into errors.
func recoverInto(err *error, op string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: malformed document: %v", op, r)
	}
}
