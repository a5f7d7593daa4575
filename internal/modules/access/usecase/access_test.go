package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pdfmerge/internal/modules/access/domain"
	"pdfmerge/internal/modules/access/dto"
	"pdfmerge/internal/modules/access/service"
	"pdfmerge/internal/modules/access/usecase"
	apperrors "pdfmerge/internal/platform/errors"
)

const (
	secret       = "hunter2"
	secretDigest = "f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type memoryStore struct {
	values    map[string]string
	failSet   bool
	deletes   int
	getErr    error
	deleteErr error
	setCalled int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.setCalled++
	if s.failSet {
		return errors.New("quota exceeded")
	}
	s.values[key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.values, key)
	return nil
}

func newUsecase(clk *fakeClock, store *memoryStore, dev bool) *usecase.Interactor {
	svc := service.NewAccessService(clk, store, nil, service.Options{
		CredentialDigest:    secretDigest,
		SessionDuration:     2 * time.Hour,
		DevelopmentOverride: dev,
	})
	return usecase.NewInteractor(svc).(*usecase.Interactor)
}

func TestVerifyStartsSessionThatStaysValidUntilExpiry(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	store := newMemoryStore()
	uc := newUsecase(clk, store, false)
	ctx := context.Background()

	if ok, err := uc.CheckSession(ctx); err != nil || ok {
		t.Fatalf("fresh store must not be authorized: ok=%t err=%v", ok, err)
	}
	out, err := uc.Verify(ctx, dto.VerifyInput{Candidate: secret})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !out.Authorized || !out.Persisted {
		t.Fatalf("expected authorized and persisted, got %+v", out)
	}

	clk.now = clk.now.Add(2*time.Hour - time.Second)
	if ok, err := uc.CheckSession(ctx); err != nil || !ok {
		t.Fatalf("session should still be valid: ok=%t err=%v", ok, err)
	}
	if store.deletes != 0 {
		t.Fatalf("valid check must not delete, got %d deletes", store.deletes)
	}

	status, err := uc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Authorized || status.Remaining != time.Second {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestVerifyMismatchLeavesStoreUntouched(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	store := newMemoryStore()
	store.values[domain.SessionKey] = `{"timestamp":1000}`
	uc := newUsecase(clk, store, false)

	for _, candidate := range []string{"", "Hunter2", "hunter2 ", secretDigest} {
		out, err := uc.Verify(context.Background(), dto.VerifyInput{Candidate: candidate})
		if err != nil {
			t.Fatalf("verify %q: %v", candidate, err)
		}
		if out.Authorized {
			t.Fatalf("candidate %q must not be accepted", candidate)
		}
	}
	if store.setCalled != 0 || store.values[domain.SessionKey] != `{"timestamp":1000}` {
		t.Fatalf("mismatch must not create or alter the record: %+v", store.values)
	}
}

func TestCheckSessionExpiresAndDeletesIdempotently(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: start}
	store := newMemoryStore()
	uc := newUsecase(clk, store, false)
	ctx := context.Background()

	if _, err := uc.Verify(ctx, dto.VerifyInput{Candidate: secret}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	clk.now = start.Add(2 * time.Hour)
	for i := 0; i < 2; i++ {
		ok, err := uc.CheckSession(ctx)
		if err != nil || ok {
			t.Fatalf("check %d: expected expired session, ok=%t err=%v", i, ok, err)
		}
	}
	if _, ok := store.values[domain.SessionKey]; ok {
		t.Fatalf("expired record should be deleted")
	}
	if status, err := uc.Status(ctx); err != nil || status.Authorized {
		t.Fatalf("status after expiry: %+v %v", status, err)
	}
}

func TestDevelopmentOverrideAlwaysRePrompts(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	store := newMemoryStore()
	uc := newUsecase(clk, store, true)
	ctx := context.Background()

	out, err := uc.Verify(ctx, dto.VerifyInput{Candidate: secret})
	if err != nil || !out.Authorized {
		t.Fatalf("verify under override: %+v %v", out, err)
	}
	if ok, err := uc.CheckSession(ctx); err != nil || ok {
		t.Fatalf("override must report unauthorized: ok=%t err=%v", ok, err)
	}
	if len(store.values) != 0 {
		t.Fatalf("override must delete the record, got %+v", store.values)
	}
}

func TestStorageWriteFailureFallsBackToUnauthorized(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	store := newMemoryStore()
	store.failSet = true
	uc := newUsecase(clk, store, false)
	ctx := context.Background()

	out, err := uc.Verify(ctx, dto.VerifyInput{Candidate: secret})
	if err != nil {
		t.Fatalf("storage failure must not surface: %v", err)
	}
	if !out.Authorized || out.Persisted {
		t.Fatalf("expected authorized but not persisted, got %+v", out)
	}
	if ok, _ := uc.CheckSession(ctx); ok {
		t.Fatalf("next check must not be authorized")
	}
}

func TestUnreadableRecordIsDiscarded(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	store := newMemoryStore()
	store.values[domain.SessionKey] = "garbage"
	uc := newUsecase(clk, store, false)

	if ok, err := uc.CheckSession(context.Background()); err != nil || ok {
		t.Fatalf("garbage record: ok=%t err=%v", ok, err)
	}
	if _, ok := store.values[domain.SessionKey]; ok {
		t.Fatalf("garbage record should be deleted")
	}
}

func TestVerifyWithoutDigestAndLogout(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	store := newMemoryStore()
	noDigest := usecase.NewInteractor(service.NewAccessService(clk, store, nil, service.Options{SessionDuration: time.Hour}))
	if _, err := noDigest.Verify(context.Background(), dto.VerifyInput{Candidate: secret}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input without digest, got %v", err)
	}

	uc := newUsecase(clk, store, false)
	if _, err := uc.Verify(context.Background(), dto.VerifyInput{Candidate: secret}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := uc.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := uc.Logout(context.Background()); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if ok, _ := uc.CheckSession(context.Background()); ok {
		t.Fatalf("logout must end the session")
	}
}

func TestCheckSessionTreatsStorageFailuresAsSignedOut(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Now()}
	store := newMemoryStore()
	store.getErr = errors.New("disk gone")
	uc := newUsecase(clk, store, false)
	ctx := context.Background()

	if ok, err := uc.CheckSession(ctx); err != nil || ok {
		t.Fatalf("unreadable store should ask for the password: ok=%t err=%v", ok, err)
	}
	store.getErr = nil
	if out, err := uc.Verify(ctx, dto.VerifyInput{Candidate: secret}); err != nil || !out.Authorized {
		t.Fatalf("verify after read failure: %+v %v", out, err)
	}
	if ok, err := uc.CheckSession(ctx); err != nil || !ok {
		t.Fatalf("session should be valid again: ok=%t err=%v", ok, err)
	}

	clk.now = clk.now.Add(3 * time.Hour)
	store.deleteErr = errors.New("read-only")
	if ok, err := uc.CheckSession(ctx); err != nil || ok {
		t.Fatalf("expired session with failing delete: ok=%t err=%v", ok, err)
	}

	dev := newMemoryStore()
	dev.deleteErr = errors.New("read-only")
	if ok, err := newUsecase(clk, dev, true).CheckSession(ctx); err != nil || ok {
		t.Fatalf("override with failing delete: ok=%t err=%v", ok, err)
	}
}
