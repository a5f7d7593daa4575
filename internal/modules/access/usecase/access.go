package usecase

import (
	"context"

	"pdfmerge/internal/modules/access/dto"
	accessin "pdfmerge/internal/modules/access/port/in"
	"pdfmerge/internal/modules/access/service"
)

type Interactor struct {
	svc *service.AccessService
}

func NewInteractor(svc *service.AccessService) accessin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) CheckSession(ctx context.Context) (bool, error) {
	return i.svc.CheckSession(ctx)
}

func (i *Interactor) Verify(ctx context.Context, input dto.VerifyInput) (dto.VerifyOutput, error) {
	authorized, persisted, err := i.svc.Verify(ctx, input.Candidate)
	if err != nil {
		return dto.VerifyOutput{}, err
	}
	return dto.VerifyOutput{Authorized: authorized, Persisted: persisted}, nil
}

func (i *Interactor) Logout(ctx context.Context) error {
	return i.svc.Logout(ctx)
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	record, ok, err := i.svc.Status(ctx)
	if err != nil || !ok {
		return dto.StatusOutput{}, err
	}
	expires := record.ExpiresAt(i.svc.SessionDuration())
	return dto.StatusOutput{
		Authorized: true,
		CreatedAt:  record.CreatedAt,
		ExpiresAt:  expires,
		Remaining:  expires.Sub(i.svc.Now()),
	}, nil
}
