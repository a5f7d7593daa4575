package in_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	assemblerinadapter "pdfmerge/internal/modules/assembler/adapter/in"
	assemblerout "pdfmerge/internal/modules/assembler/adapter/out"
	assemblerin "pdfmerge/internal/modules/assembler/port/in"
	"pdfmerge/internal/modules/assembler/service"
	"pdfmerge/internal/modules/assembler/usecase"
	apperrors "pdfmerge/internal/platform/errors"
	"pdfmerge/internal/platform/id"
	"pdfmerge/internal/platform/pdftest"
)

func newUsecase(t *testing.T, outDir string) assemblerin.Usecase {
	t.Helper()
	reader, err := assemblerout.NewLocalPDFReader()
	require.NoError(t, err)
	svc := service.NewAssemblerService(
		reader,
		assemblerout.NewPDFCPUWriter(),
		assemblerout.NewDirSaveSink(outDir, nil, nil),
		assemblerout.NewMemoryPreviewCache(),
		id.RandomHex{},
		nil,
		service.Options{PreviewScale: 0.5, PreviewWorkers: 2},
	)
	return usecase.NewInteractor(svc)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func pageSizes(t *testing.T, data []byte) []image.Rectangle {
	t.Helper()
	reader, err := assemblerout.NewLocalPDFReader()
	require.NoError(t, err)
	doc, err := reader.Load(context.Background(), data)
	require.NoError(t, err)
	sizes := make([]image.Rectangle, 0, doc.PageCount())
	for p := 1; p <= doc.PageCount(); p++ {
		img, err := doc.RenderPage(context.Background(), p, 0.1)
		require.NoError(t, err)
		sizes = append(sizes, img.Bounds())
	}
	return sizes
}

var (
	small = image.Rect(0, 0, 20, 20)
	wide  = image.Rect(0, 0, 30, 10)
)

func twoDocuments(t *testing.T, dir string) (string, string) {
	t.Helper()
	a := writeFile(t, dir, "a.pdf", pdftest.Document(
		pdftest.Page{Width: 200, Height: 200, Text: "a1"},
		pdftest.Page{Width: 200, Height: 200, Text: "a2"},
	))
	b := writeFile(t, dir, "b.pdf", pdftest.Document(
		pdftest.Page{Width: 300, Height: 100, Text: "b1"},
		pdftest.Page{Width: 300, Height: 100, Text: "b2"},
		pdftest.Page{Width: 300, Height: 100, Text: "b3"},
	))
	return a, b
}

func TestCLICombineWritesMergedDocument(t *testing.T) {
	t.Parallel()
	inDir, outDir := t.TempDir(), t.TempDir()
	a, b := twoDocuments(t, inDir)
	writeFile(t, inDir, "readme.txt", []byte("not a pdf"))

	handler := assemblerinadapter.NewCLIHandler(newUsecase(t, outDir))
	out, added, err := handler.Combine(context.Background(), []string{a, b, filepath.Join(inDir, "readme.txt")}, "report")
	require.NoError(t, err)
	require.Len(t, added, 2)
	require.Equal(t, "report.pdf", out.Filename)
	require.Equal(t, filepath.Join(outDir, "report.pdf"), out.Path)

	merged, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	require.Equal(t, []image.Rectangle{small, small, wide, wide, wide}, pageSizes(t, merged))
}

func TestTUIReorderThenCombine(t *testing.T) {
	t.Parallel()
	inDir, outDir := t.TempDir(), t.TempDir()
	twoDocuments(t, inDir)
	uc := newUsecase(t, outDir)
	handler := assemblerinadapter.NewTUIHandler(uc)
	ctx := context.Background()

	added, err := handler.AddPaths(ctx, filepath.Join(inDir, "*.pdf"))
	require.NoError(t, err)
	require.Len(t, added, 2)
	require.Equal(t, "a.pdf", added[0].Name)

	entries, err := handler.List(ctx)
	require.NoError(t, err)
	require.NoError(t, handler.MoveDown(ctx, entries, 0))

	out, err := handler.Combine(ctx, "x")
	require.NoError(t, err)
	merged, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	require.Equal(t, []image.Rectangle{wide, wide, wide, small, small}, pageSizes(t, merged))

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, uc.AwaitPreviews(waitCtx))
	entries, err = handler.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "b.pdf", entries[0].Name)
	require.Equal(t, 3, entries[0].PageCount)
	require.Equal(t, 2, entries[1].PageCount)

	preview, err := handler.Preview(ctx, entries[1].ID)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(preview.PNG))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	require.NoError(t, handler.MoveUp(ctx, entries, 0), "moving the first entry up is a no-op")
	require.NoError(t, handler.Drop(ctx, entries[1].ID, entries[0].ID))
	entries, err = handler.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "a.pdf", entries[0].Name)

	require.NoError(t, handler.Remove(ctx, entries[0].ID))
	require.NoError(t, handler.Clear(ctx))
	empty, err := handler.Combine(ctx, "nothing")
	require.NoError(t, err)
	require.True(t, empty.Skipped)
	_, err = os.Stat(filepath.Join(outDir, "nothing.pdf"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCLIPreviewAndMissingFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "one.pdf", pdftest.Pages("hello"))
	handler := assemblerinadapter.NewCLIHandler(newUsecase(t, t.TempDir()))

	preview, err := handler.Preview(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, preview.PageCount)
	require.NotEmpty(t, preview.PNG)

	_, err = handler.Preview(context.Background(), dir)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, _, err = handler.Combine(context.Background(), []string{filepath.Join(dir, "missing.pdf")}, "")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSplitPaths(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{"a.pdf", "b.pdf", "docs/*.pdf"}, assemblerinadapter.SplitPaths(" a.pdf, b.pdf\tdocs/*.pdf \n"))
	require.Empty(t, assemblerinadapter.SplitPaths("  ,  "))
}
