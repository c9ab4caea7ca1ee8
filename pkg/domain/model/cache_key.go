package model

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

// fingerprintLength is the number of hex characters of the digest kept in a key
const fingerprintLength = 16

// CacheKey indexes an evaluation by ticket and reply content
type CacheKey string

// String returns the string representation of CacheKey
func (k CacheKey) String() string {
	return string(k)
}

// DeriveCacheKey returns "<ticketID>_<fingerprint>" where the fingerprint is the
// first 16 hex characters of the SHA-256 of responseText. Editing the reply
// always produces a different key.
func DeriveCacheKey(ticketID types.TicketID, responseText string) CacheKey {
	sum := sha256.Sum256([]byte(responseText))
	return CacheKey(ticketID.String() + "_" + hex.EncodeToString(sum[:])[:fingerprintLength])
}
