package in

import (
	"context"
	"fmt"

	"pdfmerge/internal/modules/assembler/dto"
	assemblerin "pdfmerge/internal/modules/assembler/port/in"
	apperrors "pdfmerge/internal/platform/errors"
)

type CLIHandler struct {
	usecase assemblerin.Usecase
}

func NewCLIHandler(usecase assemblerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Combine loads the files in argument order and merges them into one document.
func (h CLIHandler) Combine(ctx context.Context, paths []string, outputName string) (dto.CombineOutput, []dto.EntryView, error) {
	files, err := ReadFiles(paths)
	if err != nil {
		return dto.CombineOutput{}, nil, err
	}
	added, err := h.usecase.OnAdd(ctx, files)
	if err != nil {
		return dto.CombineOutput{}, nil, err
	}
	out, err := h.usecase.OnCombine(ctx, dto.CombineInput{OutputName: outputName})
	if err != nil {
		return dto.CombineOutput{}, added, err
	}
	return out, added, nil
}

// Preview renders the first page of a single file.
func (h CLIHandler) Preview(ctx context.Context, path string) (dto.PreviewOutput, error) {
	files, err := ReadFiles([]string{path})
	if err != nil {
		return dto.PreviewOutput{}, err
	}
	if len(files) == 0 {
		return dto.PreviewOutput{}, fmt.Errorf("%w: %s is a directory", apperrors.ErrInvalidInput, path)
	}
	return h.usecase.RenderPreview(ctx, files[0])
}
