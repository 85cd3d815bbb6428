// Package sha256 derives stable candidate identifiers from URLs.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// idLen is the number of hex digest characters kept for candidate IDs.
// 48 bits is ample for a personal reading list and keeps subject tokens
// short.
const idLen = 12

// Hasher produces hex SHA-256 digests.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the full hex digest of data.
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CandidateID returns the stable short identifier for a candidate URL.
// The same URL string always yields the same ID across runs and hosts,
// unlike language-provided hash functions.
func (h *Hasher) CandidateID(url string) string {
	return h.Hash([]byte(url))[:idLen]
}
