package in

import (
	"context"

	"pdfmerge/internal/modules/access/dto"
	accessin "pdfmerge/internal/modules/access/port/in"
	apperrors "pdfmerge/internal/platform/errors"
)

type CLIHandler struct {
	usecase accessin.Usecase
}

func NewCLIHandler(usecase accessin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) CheckSession(ctx context.Context) (bool, error) {
	return h.usecase.CheckSession(ctx)
}

// Login verifies the password and returns ErrCredentialMismatch when it is wrong.
func (h CLIHandler) Login(ctx context.Context, password string) (dto.VerifyOutput, error) {
	out, err := h.usecase.Verify(ctx, dto.VerifyInput{Candidate: password})
	if err != nil {
		return dto.VerifyOutput{}, err
	}
	if !out.Authorized {
		return out, apperrors.ErrCredentialMismatch
	}
	return out, nil
}

func (h CLIHandler) Logout(ctx context.Context) error {
	return h.usecase.Logout(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}
