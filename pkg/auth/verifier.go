package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// Verifier checks client passphrases against the shared secret.
// The secret is reduced to its SHA-256 digest at construction; only
// digests are compared afterwards.
type Verifier struct {
	digest [sha256.Size]byte
}

// NewVerifier creates a verifier for the given shared secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret cannot be empty")
	}

	return &Verifier{digest: sha256.Sum256([]byte(secret))}, nil
}

// Verify reports whether candidate matches the shared secret. The
// candidate is hashed and the digests are compared in constant time.
func (v *Verifier) Verify(candidate []byte) bool {
	h := sha256.Sum256(candidate)
	return subtle.ConstantTimeCompare(h[:], v.digest[:]) == 1
}
