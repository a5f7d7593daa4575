package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Generator mints opaque identifiers that are never reused within a process.
type Generator interface {
	New() string
}

// RandomHex yields 128-bit random tokens, optionally prefixed.
type RandomHex struct {
	Prefix string
}

func (g RandomHex) New() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return g.Prefix + hex.EncodeToString(buf)
}
