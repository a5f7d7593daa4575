package out

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	assemblerout "pdfmerge/internal/modules/assembler/port/out"
	apperrors "pdfmerge/internal/platform/errors"
)

var disableConfigDir sync.Once

// PDFCPUWriter merges whole documents with pdfcpu. Each source is validated when it is
// copied so a broken input fails before any output is produced.
type PDFCPUWriter struct{}

func NewPDFCPUWriter() assemblerout.PDFWriter {
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFCPUWriter{}
}

type pdfcpuBuilder struct {
	sources [][]byte
	pages   int
}

func (b *pdfcpuBuilder) PageCount() int {
	return b.pages
}

func (w *PDFCPUWriter) CreateEmpty() assemblerout.Builder {
	return &pdfcpuBuilder{}
}

func (w *PDFCPUWriter) CopyAllPages(ctx context.Context, builder assemblerout.Builder, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, ok := builder.(*pdfcpuBuilder)
	if !ok {
		return fmt.Errorf("%w: builder %T was not created by this writer", apperrors.ErrInvalidInput, builder)
	}
	pages, err := api.PageCount(bytes.NewReader(data), relaxedConfig())
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	if pages < 1 {
		return fmt.Errorf("source has no pages")
	}
	b.sources = append(b.sources, data)
	b.pages += pages
	return nil
}

func (w *PDFCPUWriter) Serialize(ctx context.Context, builder assemblerout.Builder) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := builder.(*pdfcpuBuilder)
	if !ok {
		return nil, fmt.Errorf("%w: builder %T was not created by this writer", apperrors.ErrInvalidInput, builder)
	}
	if len(b.sources) == 0 {
		return nil, apperrors.ErrEmptyWorkingSet
	}
	readers := make([]io.ReadSeeker, 0, len(b.sources))
	for _, src := range b.sources {
		readers = append(readers, bytes.NewReader(src))
	}
	out := &bytes.Buffer{}
	if err := api.MergeRaw(readers, out, false, relaxedConfig()); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return out.Bytes(), nil
}

func relaxedConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
