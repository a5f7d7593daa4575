package domain

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SessionKey is the storage key the session record lives under.
const SessionKey = "pdfmerge_session"

// SessionRecord proves a prior successful credential check.
type SessionRecord struct {
	CreatedAt time.Time
}

type sessionRecordJSON struct {
	Timestamp int64 `json:"timestamp"`
}

func (r SessionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionRecordJSON{Timestamp: r.CreatedAt.UnixMilli()})
}

func (r *SessionRecord) UnmarshalJSON(b []byte) error {
	raw := sessionRecordJSON{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Timestamp <= 0 {
		return fmt.Errorf("session record has no timestamp")
	}
	r.CreatedAt = time.UnixMilli(raw.Timestamp).UTC()
	return nil
}

func (r SessionRecord) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode session record: %w", err)
	}
	return string(b), nil
}

func DecodeSessionRecord(value string) (SessionRecord, error) {
	r := SessionRecord{}
	if err := json.Unmarshal([]byte(value), &r); err != nil {
		return SessionRecord{}, fmt.Errorf("decode session record: %w", err)
	}
	return r, nil
}

func (r SessionRecord) ExpiresAt(lifetime time.Duration) time.Time {
	return r.CreatedAt.Add(lifetime)
}

// ValidAt reports whether now falls inside [CreatedAt, CreatedAt+lifetime).
func (r SessionRecord) ValidAt(now time.Time, lifetime time.Duration) bool {
	return now.Sub(r.CreatedAt) < lifetime
}

// HashCredential returns the lowercase hex SHA-256 digest of the candidate.
func HashCredential(candidate string) string {
	sum := sha256.Sum256([]byte(candidate))
	return hex.EncodeToString(sum[:])
}

// DigestMatches compares the candidate's digest against the stored hex digest, ignoring hex case.
func DigestMatches(candidate, digest string) bool {
	want := strings.ToLower(strings.TrimSpace(digest))
	got := HashCredential(candidate)
	if len(want) != len(got) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
