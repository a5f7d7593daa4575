package in

import (
	"context"

	"pdfmerge/internal/modules/access/dto"
)

type Usecase interface {
	CheckSession(ctx context.Context) (bool, error)
	Verify(ctx context.Context, input dto.VerifyInput) (dto.VerifyOutput, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (dto.StatusOutput, error)
}
