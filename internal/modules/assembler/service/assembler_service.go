package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image/png"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"pdfmerge/internal/modules/assembler/domain"
	"pdfmerge/internal/modules/assembler/dto"
	assemblerout "pdfmerge/internal/modules/assembler/port/out"
	apperrors "pdfmerge/internal/platform/errors"
	"pdfmerge/internal/platform/id"
	"pdfmerge/internal/platform/logger"
)

const logModule = "assembler"

type Options struct {
	PreviewScale   float64
	PreviewWorkers int
}

type AssemblerService struct {
	reader   assemblerout.PDFReader
	writer   assemblerout.PDFWriter
	sink     assemblerout.SaveSink
	cache    assemblerout.PreviewCache
	ids      id.Generator
	log      logger.Logger
	opts     Options
	workers  *errgroup.Group
	inflight sync.WaitGroup

	mu        sync.Mutex
	set       *domain.WorkingSet
	tasks     map[string]context.CancelFunc
	merging   bool
	observers []assemblerout.Observer
}

func NewAssemblerService(
	reader assemblerout.PDFReader,
	writer assemblerout.PDFWriter,
	sink assemblerout.SaveSink,
	cache assemblerout.PreviewCache,
	ids id.Generator,
	log logger.Logger,
	opts Options,
) *AssemblerService {
	if log == nil {
		log = logger.Nop{}
	}
	if opts.PreviewScale <= 0 {
		opts.PreviewScale = 0.5
	}
	if opts.PreviewWorkers <= 0 {
		opts.PreviewWorkers = 4
	}
	workers := &errgroup.Group{}
	workers.SetLimit(opts.PreviewWorkers)
	return &AssemblerService{
		reader:  reader,
		writer:  writer,
		sink:    sink,
		cache:   cache,
		ids:     ids,
		log:     log,
		opts:    opts,
		workers: workers,
		set:     domain.NewWorkingSet(),
		tasks:   map[string]context.CancelFunc{},
	}
}

// Subscribe registers an observer that is called after every change to the working set.
func (s *AssemblerService) Subscribe(o assemblerout.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Add appends every PDF among files and starts a preview task for each. Non-PDF files are
// skipped. The returned entries are in input order.
func (s *AssemblerService) Add(ctx context.Context, files []dto.FileInput) ([]domain.Entry, error) {
	s.mu.Lock()
	if s.merging {
		s.mu.Unlock()
		return nil, apperrors.ErrMergeInProgress
	}
	added := make([]domain.Entry, 0, len(files))
	for _, f := range files {
		mediaType := f.MediaType
		if mediaType == "" {
			mediaType = domain.DetectMediaType(f.Name, f.Data)
		}
		if mediaType != domain.MediaTypePDF {
			s.log.Info(logModule, "skipping non-pdf file", map[string]any{"name": f.Name, "media_type": mediaType})
			continue
		}
		name := f.Name
		if name == "" {
			name = filepath.Base(f.Path)
		}
		entry := domain.NewEntry(s.ids.New(), name, f.Path, f.Data)
		s.set.Append(entry)
		s.startPreview(ctx, entry.ID, entry.Source)
		added = append(added, *entry)
	}
	s.mu.Unlock()

	if len(added) > 0 {
		s.log.Info(logModule, "entries added", map[string]any{"count": len(added)})
		s.notify()
	}
	return added, nil
}

// startPreview must be called with mu held.
func (s *AssemblerService) startPreview(ctx context.Context, entryID string, data []byte) {
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.tasks[entryID] = cancel
	s.inflight.Add(1)
	go func() {
		s.workers.Go(func() error {
			defer s.inflight.Done()
			s.runPreview(taskCtx, entryID, data)
			return nil
		})
	}()
}

func (s *AssemblerService) runPreview(ctx context.Context, entryID string, data []byte) {
	var (
		preview domain.Preview
		err     error
	)
	if ctx.Err() == nil {
		preview, err = s.renderPreview(ctx, data)
	}

	s.mu.Lock()
	entry, present := s.set.Get(entryID)
	if ctx.Err() != nil || !present {
		s.mu.Unlock()
		s.log.Debug(logModule, "discarding stale preview", map[string]any{"id": entryID})
		return
	}
	delete(s.tasks, entryID)
	if err != nil {
		entry.State = domain.StatePreviewFailed
		s.mu.Unlock()
		s.log.Warn(logModule, "preview generation failed", map[string]any{"id": entryID, "name": entry.Name, "error": err.Error()})
		s.notify()
		return
	}
	entry.PageCount = preview.PageCount
	entry.Preview = preview.PNG
	entry.State = domain.StatePreviewed
	s.mu.Unlock()
	s.notify()
}

// renderPreview loads the document, counts its pages and rasterizes page 1 to PNG.
func (s *AssemblerService) renderPreview(ctx context.Context, data []byte) (domain.Preview, error) {
	key := contentKey(data)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}
	doc, err := s.reader.Load(ctx, data)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("%w: %w", apperrors.ErrPreviewFailed, err)
	}
	pages := doc.PageCount()
	if pages < 1 {
		return domain.Preview{}, fmt.Errorf("%w: document has no pages", apperrors.ErrPreviewFailed)
	}
	img, err := doc.RenderPage(ctx, 1, s.opts.PreviewScale)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("%w: %w", apperrors.ErrPreviewFailed, err)
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return domain.Preview{}, fmt.Errorf("%w: encode png: %w", apperrors.ErrPreviewFailed, err)
	}
	preview := domain.Preview{PageCount: pages, PNG: buf.Bytes()}
	if s.cache != nil {
		s.cache.Set(key, preview)
	}
	return preview, nil
}

// RenderPreview renders a single file synchronously without touching the working set.
func (s *AssemblerService) RenderPreview(ctx context.Context, file dto.FileInput) (domain.Preview, error) {
	mediaType := file.MediaType
	if mediaType == "" {
		mediaType = domain.DetectMediaType(file.Name, file.Data)
	}
	if mediaType != domain.MediaTypePDF {
		return domain.Preview{}, fmt.Errorf("%w: %s is not a pdf", apperrors.ErrInvalidInput, file.Name)
	}
	return s.renderPreview(ctx, file.Data)
}

func (s *AssemblerService) Remove(_ context.Context, entryID string) error {
	s.mu.Lock()
	if s.merging {
		s.mu.Unlock()
		return apperrors.ErrMergeInProgress
	}
	_, ok := s.set.Remove(entryID)
	s.cancelTask(entryID)
	s.mu.Unlock()
	if ok {
		s.log.Info(logModule, "entry removed", map[string]any{"id": entryID})
		s.notify()
	}
	return nil
}

func (s *AssemblerService) Reorder(_ context.Context, movedID, targetID string) error {
	s.mu.Lock()
	if s.merging {
		s.mu.Unlock()
		return apperrors.ErrMergeInProgress
	}
	changed := s.set.Reorder(movedID, targetID)
	s.mu.Unlock()
	if changed {
		s.log.Debug(logModule, "entry moved", map[string]any{"moved": movedID, "target": targetID})
		s.notify()
	}
	return nil
}

func (s *AssemblerService) Clear(_ context.Context) error {
	s.mu.Lock()
	if s.merging {
		s.mu.Unlock()
		return apperrors.ErrMergeInProgress
	}
	removed := s.set.Clear()
	for _, e := range removed {
		s.cancelTask(e.ID)
	}
	s.mu.Unlock()
	if len(removed) > 0 {
		s.log.Info(logModule, "working set cleared", map[string]any{"count": len(removed)})
		s.notify()
	}
	return nil
}

// cancelTask must be called with mu held.
func (s *AssemblerService) cancelTask(entryID string) {
	if cancel, ok := s.tasks[entryID]; ok {
		cancel()
		delete(s.tasks, entryID)
	}
}

// CombineResult describes a finished merge. Skipped is set when the working set was empty.
type CombineResult struct {
	Skipped   bool
	Filename  string
	Path      string
	Documents int
	Bytes     int
}

// Combine merges every entry, in order, into one document and hands it to the save sink.
// The working set is never modified; on failure the caller may simply retry.
func (s *AssemblerService) Combine(ctx context.Context, outputName string) (CombineResult, error) {
	s.mu.Lock()
	if s.merging {
		s.mu.Unlock()
		return CombineResult{}, apperrors.ErrMergeInProgress
	}
	entries := s.set.Snapshot()
	if len(entries) == 0 {
		s.mu.Unlock()
		s.log.Debug(logModule, "combine skipped", map[string]any{"reason": apperrors.ErrEmptyWorkingSet.Error()})
		return CombineResult{Skipped: true}, nil
	}
	s.merging = true
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.merging = false
		s.mu.Unlock()
		s.notify()
	}()

	filename := domain.SanitizeOutputName(outputName)
	data, err := s.merge(ctx, entries)
	if err != nil {
		return CombineResult{}, s.mergeFailure(filename, err)
	}
	path, err := s.sink.Save(ctx, data, filename)
	if err != nil {
		return CombineResult{}, s.mergeFailure(filename, fmt.Errorf("save: %w", err))
	}
	s.log.Info(logModule, "documents combined", map[string]any{"filename": filename, "path": path, "documents": len(entries), "bytes": len(data)})
	return CombineResult{Filename: filename, Path: path, Documents: len(entries), Bytes: len(data)}, nil
}

func (s *AssemblerService) merge(ctx context.Context, entries []domain.Entry) ([]byte, error) {
	builder := s.writer.CreateEmpty()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.writer.CopyAllPages(ctx, builder, e.Source); err != nil {
			return nil, fmt.Errorf("copy pages of %s: %w", e.Name, err)
		}
	}
	return s.writer.Serialize(ctx, builder)
}

func (s *AssemblerService) mergeFailure(filename string, err error) error {
	s.log.Error(logModule, "combine failed", map[string]any{"filename": filename, "error": err})
	return fmt.Errorf("%w: %w", apperrors.ErrMergeFailed, err)
}

func (s *AssemblerService) Snapshot() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Snapshot()
}

func (s *AssemblerService) Entry(entryID string) (domain.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.set.Get(entryID)
	if !ok {
		return domain.Entry{}, false
	}
	return *e, true
}

func (s *AssemblerService) Merging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merging
}

// AwaitPreviews blocks until every started preview task has finished or ctx ends.
func (s *AssemblerService) AwaitPreviews(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AssemblerService) notify() {
	s.mu.Lock()
	observers := append([]assemblerout.Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range observers {
		o.Changed()
	}
}

func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
