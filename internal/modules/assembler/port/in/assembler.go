package in

import (
	"context"

	"pdfmerge/internal/modules/assembler/dto"
)

type Usecase interface {
	OnAdd(ctx context.Context, files []dto.FileInput) ([]dto.EntryView, error)
	OnRemove(ctx context.Context, id string) error
	OnReorder(ctx context.Context, input dto.ReorderInput) error
	Clear(ctx context.Context) error
	OnCombine(ctx context.Context, input dto.CombineInput) (dto.CombineOutput, error)
	List(ctx context.Context) ([]dto.EntryView, error)
	Preview(ctx context.Context, id string) (dto.PreviewOutput, error)
	RenderPreview(ctx context.Context, file dto.FileInput) (dto.PreviewOutput, error)
	AwaitPreviews(ctx context.Context) error
}
