package service

import (
	"context"
	"fmt"
	"time"

	"pdfmerge/internal/modules/access/domain"
	accessout "pdfmerge/internal/modules/access/port/out"
	"pdfmerge/internal/platform/clock"
	apperrors "pdfmerge/internal/platform/errors"
	"pdfmerge/internal/platform/logger"
)

const logModule = "access"

type Options struct {
	CredentialDigest    string
	SessionDuration     time.Duration
	DevelopmentOverride bool
}

type AccessService struct {
	clock clock.Clock
	store accessout.KeyValueStore
	log   logger.Logger
	opts  Options
}

func NewAccessService(clock clock.Clock, store accessout.KeyValueStore, log logger.Logger, opts Options) *AccessService {
	if log == nil {
		log = logger.Nop{}
	}
	return &AccessService{clock: clock, store: store, log: log, opts: opts}
}

// CheckSession reports whether a stored, unexpired session exists. Expired or unreadable
// records are deleted. The development override wipes the record and always reports false.
// Storage failures are logged and reported as no session, so the caller asks for the password.
func (s *AccessService) CheckSession(ctx context.Context) (bool, error) {
	if s.opts.DevelopmentOverride {
		s.discard(ctx, "development override")
		return false, nil
	}
	record, ok, err := s.load(ctx)
	if err != nil {
		s.log.Warn(logModule, "session store unreadable", map[string]any{"error": err.Error()})
		return false, nil
	}
	if !ok {
		return false, nil
	}
	if record.ValidAt(s.clock.Now(), s.opts.SessionDuration) {
		return true, nil
	}
	s.log.Info(logModule, "session expired", map[string]any{"created_at": record.CreatedAt})
	s.discard(ctx, "expired")
	return false, nil
}

func (s *AccessService) discard(ctx context.Context, reason string) {
	if err := s.store.Delete(ctx, domain.SessionKey); err != nil {
		s.log.Warn(logModule, "session record not deleted", map[string]any{"reason": reason, "error": err.Error()})
	}
}

// Verify compares the candidate against the configured digest and starts a session on match.
// A storage failure leaves the caller authorized for this process only.
func (s *AccessService) Verify(ctx context.Context, candidate string) (bool, bool, error) {
	if s.opts.CredentialDigest == "" {
		return false, false, fmt.Errorf("%w: credential digest is not configured", apperrors.ErrInvalidInput)
	}
	if !domain.DigestMatches(candidate, s.opts.CredentialDigest) {
		s.log.Warn(logModule, "credential mismatch", nil)
		return false, false, nil
	}
	encoded, err := domain.SessionRecord{CreatedAt: s.clock.Now()}.Encode()
	if err != nil {
		return true, false, err
	}
	if err := s.store.Set(ctx, domain.SessionKey, encoded); err != nil {
		s.log.Warn(logModule, "session record not persisted", map[string]any{"error": err.Error()})
		return true, false, nil
	}
	s.log.Info(logModule, "session started", nil)
	return true, true, nil
}

func (s *AccessService) Logout(ctx context.Context) error {
	return s.store.Delete(ctx, domain.SessionKey)
}

// Status describes the current session, applying the same expiry cleanup as CheckSession.
func (s *AccessService) Status(ctx context.Context) (domain.SessionRecord, bool, error) {
	ok, err := s.CheckSession(ctx)
	if err != nil || !ok {
		return domain.SessionRecord{}, false, err
	}
	record, ok, err := s.load(ctx)
	if err != nil || !ok {
		return domain.SessionRecord{}, false, err
	}
	return record, true, nil
}

func (s *AccessService) SessionDuration() time.Duration {
	return s.opts.SessionDuration
}

func (s *AccessService) Now() time.Time {
	return s.clock.Now()
}

func (s *AccessService) load(ctx context.Context) (domain.SessionRecord, bool, error) {
	value, ok, err := s.store.Get(ctx, domain.SessionKey)
	if err != nil {
		return domain.SessionRecord{}, false, fmt.Errorf("read session record: %w", err)
	}
	if !ok {
		return domain.SessionRecord{}, false, nil
	}
	record, err := domain.DecodeSessionRecord(value)
	if err != nil {
		s.log.Warn(logModule, "discarding unreadable session record", map[string]any{"error": err.Error()})
		if err := s.store.Delete(ctx, domain.SessionKey); err != nil {
			return domain.SessionRecord{}, false, err
		}
		return domain.SessionRecord{}, false, nil
	}
	return record, true, nil
}
