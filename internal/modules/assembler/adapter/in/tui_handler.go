package in

import (
	"context"

	"pdfmerge/internal/modules/assembler/dto"
	assemblerin "pdfmerge/internal/modules/assembler/port/in"
)

type TUIHandler struct {
	usecase assemblerin.Usecase
}

func NewTUIHandler(usecase assemblerin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

// AddPaths reads the space or comma separated paths and globs in input.
func (h TUIHandler) AddPaths(ctx context.Context, input string) ([]dto.EntryView, error) {
	files, err := ReadFiles(SplitPaths(input))
	if err != nil {
		return nil, err
	}
	return h.usecase.OnAdd(ctx, files)
}

func (h TUIHandler) Remove(ctx context.Context, id string) error {
	return h.usecase.OnRemove(ctx, id)
}

// MoveUp swaps the entry at index with its predecessor.
func (h TUIHandler) MoveUp(ctx context.Context, entries []dto.EntryView, index int) error {
	if index <= 0 || index >= len(entries) {
		return nil
	}
	return h.usecase.OnReorder(ctx, dto.ReorderInput{MovedID: entries[index].ID, TargetID: entries[index-1].ID})
}

// MoveDown swaps the entry at index with its successor by moving the successor before it.
func (h TUIHandler) MoveDown(ctx context.Context, entries []dto.EntryView, index int) error {
	if index < 0 || index >= len(entries)-1 {
		return nil
	}
	return h.usecase.OnReorder(ctx, dto.ReorderInput{MovedID: entries[index+1].ID, TargetID: entries[index].ID})
}

// Drop places the picked-up entry immediately before the target.
func (h TUIHandler) Drop(ctx context.Context, movedID, targetID string) error {
	return h.usecase.OnReorder(ctx, dto.ReorderInput{MovedID: movedID, TargetID: targetID})
}

func (h TUIHandler) Clear(ctx context.Context) error {
	return h.usecase.Clear(ctx)
}

func (h TUIHandler) Combine(ctx context.Context, outputName string) (dto.CombineOutput, error) {
	return h.usecase.OnCombine(ctx, dto.CombineInput{OutputName: outputName})
}

func (h TUIHandler) List(ctx context.Context) ([]dto.EntryView, error) {
	return h.usecase.List(ctx)
}

func (h TUIHandler) Preview(ctx context.Context, id string) (dto.PreviewOutput, error) {
	return h.usecase.Preview(ctx, id)
}
