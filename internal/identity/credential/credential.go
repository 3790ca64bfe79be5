// Package credential digests passwords before they reach the identity store.
//
// Lookup is by (email, digest), so the digest must be deterministic: the
// same password always yields the same value. A server-wide pepper replaces
// a per-row salt.
package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Hasher turns a plaintext password into a stored digest.
type Hasher interface {
	Digest(password string) string
}

const pbkdf2KeyLen = 32

// PBKDF2 is the default scheme: PBKDF2-HMAC-SHA256 keyed by the pepper.
type PBKDF2 struct {
	pepper     []byte
	iterations int
}

func NewPBKDF2(pepper string, iterations int) *PBKDF2 {
	if iterations <= 0 {
		iterations = 100_000
	}
	return &PBKDF2{pepper: []byte(pepper), iterations: iterations}
}

func (h *PBKDF2) Digest(password string) string {
	key := pbkdf2.Key([]byte(password), h.pepper, h.iterations, pbkdf2KeyLen, sha256.New)
	return "pbkdf2$" + hex.EncodeToString(key)
}

// SHA256 reproduces the legacy unsalted hex digest so records imported from
// the previous back-office still authenticate.
type SHA256 struct{}

func (SHA256) Digest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// New selects a hasher by scheme name.
func New(scheme, pepper string, iterations int) (Hasher, error) {
	switch scheme {
	case "", "pbkdf2":
		return NewPBKDF2(pepper, iterations), nil
	case "sha256":
		return SHA256{}, nil
	default:
		return nil, fmt.Errorf("unknown credential scheme %q", scheme)
	}
}
