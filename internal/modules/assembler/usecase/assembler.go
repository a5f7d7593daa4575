package usecase

import (
	"context"
	"fmt"

	"pdfmerge/internal/modules/assembler/domain"
	"pdfmerge/internal/modules/assembler/dto"
	assemblerin "pdfmerge/internal/modules/assembler/port/in"
	"pdfmerge/internal/modules/assembler/service"
	apperrors "pdfmerge/internal/platform/errors"
)

type Interactor struct {
	svc *service.AssemblerService
}

func NewInteractor(svc *service.AssemblerService) assemblerin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) OnAdd(ctx context.Context, files []dto.FileInput) ([]dto.EntryView, error) {
	added, err := i.svc.Add(ctx, files)
	if err != nil {
		return nil, err
	}
	positions := positionsByID(i.svc.Snapshot())
	views := make([]dto.EntryView, 0, len(added))
	for _, e := range added {
		views = append(views, toView(e, positions[e.ID]))
	}
	return views, nil
}

func (i *Interactor) OnRemove(ctx context.Context, id string) error {
	return i.svc.Remove(ctx, id)
}

func (i *Interactor) OnReorder(ctx context.Context, input dto.ReorderInput) error {
	return i.svc.Reorder(ctx, input.MovedID, input.TargetID)
}

func (i *Interactor) Clear(ctx context.Context) error {
	return i.svc.Clear(ctx)
}

func (i *Interactor) OnCombine(ctx context.Context, input dto.CombineInput) (dto.CombineOutput, error) {
	result, err := i.svc.Combine(ctx, input.OutputName)
	if err != nil {
		return dto.CombineOutput{}, err
	}
	return dto.CombineOutput{
		Skipped:   result.Skipped,
		Filename:  result.Filename,
		Path:      result.Path,
		Documents: result.Documents,
		Bytes:     result.Bytes,
	}, nil
}

func (i *Interactor) List(_ context.Context) ([]dto.EntryView, error) {
	entries := i.svc.Snapshot()
	views := make([]dto.EntryView, 0, len(entries))
	for idx, e := range entries {
		views = append(views, toView(e, idx+1))
	}
	return views, nil
}

func (i *Interactor) Preview(_ context.Context, id string) (dto.PreviewOutput, error) {
	e, ok := i.svc.Entry(id)
	if !ok {
		return dto.PreviewOutput{}, fmt.Errorf("entry %s: %w", id, apperrors.ErrNotFound)
	}
	return dto.PreviewOutput{ID: e.ID, Name: e.Name, State: string(e.State), PageCount: e.PageCount, PNG: e.Preview}, nil
}

func (i *Interactor) RenderPreview(ctx context.Context, file dto.FileInput) (dto.PreviewOutput, error) {
	preview, err := i.svc.RenderPreview(ctx, file)
	if err != nil {
		return dto.PreviewOutput{}, err
	}
	return dto.PreviewOutput{
		Name:      file.Name,
		State:     string(domain.StatePreviewed),
		PageCount: preview.PageCount,
		PNG:       preview.PNG,
	}, nil
}

func (i *Interactor) AwaitPreviews(ctx context.Context) error {
	return i.svc.AwaitPreviews(ctx)
}

func toView(e domain.Entry, position int) dto.EntryView {
	return dto.EntryView{
		ID:         e.ID,
		Position:   position,
		Name:       e.Name,
		SizeLabel:  e.SizeLabel,
		SourcePath: e.SourcePath,
		PageCount:  e.PageCount,
		State:      string(e.State),
		HasPreview: len(e.Preview) > 0,
	}
}

func positionsByID(entries []domain.Entry) map[string]int {
	positions := make(map[string]int, len(entries))
	for idx, e := range entries {
		positions[e.ID] = idx + 1
	}
	return positions
}
