package out

import (
	"context"
	"image"

	"pdfmerge/internal/modules/assembler/domain"
)

type PDFReader interface {
	Load(ctx context.Context, data []byte) (Document, error)
}

// Document is a parsed PDF. Pages are numbered from 1.
type Document interface {
	PageCount() int
	RenderPage(ctx context.Context, page int, scale float64) (image.Image, error)
}

type PDFWriter interface {
	CreateEmpty() Builder
	CopyAllPages(ctx context.Context, builder Builder, data []byte) error
	Serialize(ctx context.Context, builder Builder) ([]byte, error)
}

// Builder accumulates pages for one output document.
type Builder interface {
	PageCount() int
}

type SaveSink interface {
	Save(ctx context.Context, data []byte, filename string) (string, error)
}

type Observer interface {
	Changed()
}

type PreviewCache interface {
	Get(key string) (domain.Preview, bool)
	Set(key string, preview domain.Preview)
}
