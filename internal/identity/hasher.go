// Package identity derives non-reversible store keys from raw user
// identifiers so the real-world identifier (a phone number) never appears in
// the session store's key space.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrEmptySalt is returned when constructing a Hasher without a secret.
	ErrEmptySalt = errors.New("identity: salt must not be empty")
	// ErrEmptyIdentifier is returned when deriving a key from an empty identifier.
	ErrEmptyIdentifier = errors.New("identity: identifier must not be empty")
)

// Hasher derives session keys with an HMAC-SHA256 construction keyed by a
// service-held secret. A plain hash would let anyone with a candidate list of
// phone numbers brute-force the mapping; keying it with the secret prevents
// that. Rotating the salt invalidates every existing session-to-identity
// mapping, which is the intended key-rotation mechanism.
type Hasher struct {
	salt []byte
}

// NewHasher creates a Hasher with the given secret salt.
func NewHasher(salt string) (*Hasher, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	return &Hasher{salt: []byte(salt)}, nil
}

// DeriveKey returns the hex-encoded HMAC of rawID. The same identifier and
// salt always produce the same key; the identifier is not recoverable from it.
func (h *Hasher) DeriveKey(rawID string) (string, error) {
	if rawID == "" {
		return "", ErrEmptyIdentifier
	}

	mac := hmac.New(sha256.New, h.salt)
	mac.Write([]byte(rawID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
