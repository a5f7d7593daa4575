package apperrors

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrMergeInProgress    = errors.New("merge in progress")
	ErrMergeFailed        = errors.New("merge failed")
	ErrPreviewFailed      = errors.New("preview generation failed")
	ErrEmptyWorkingSet    = errors.New("working set is empty")
)
