package dto

import "time"

type VerifyInput struct {
	Candidate string
}

type VerifyOutput struct {
	Authorized bool
	// Persisted is false when the session record could not be stored.
	Persisted bool
}

type StatusOutput struct {
	Authorized bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Remaining  time.Duration
}
