// Package auth — credential and token utilities.
//
// CREDENTIAL SCHEME:
// At signup we generate a random 16-byte salt, then store
//
//	hash = base64(SHA-256(password ++ salt))
//
// alongside the salt. Login recomputes the digest from the submitted
// password and the stored salt and compares the two encoded values.
// The plaintext password is never stored anywhere.
//
// This mirrors the credential format of the accounts we migrated from —
// changing the digest would invalidate every existing record, so the
// scheme is fixed. A fresh design would reach for bcrypt or argon2
// instead of a fast hash.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// saltBytes is the number of random bytes drawn for a new salt.
// Hex encoding doubles it: the stored salt string is 32 characters.
const saltBytes = 16

// CredentialService derives and verifies salted password digests.
//
// It's a struct (not free functions) so it can be injected and swapped
// in tests, same as the other services in this codebase.
type CredentialService struct{}

// NewCredentialService creates a CredentialService.
func NewCredentialService() *CredentialService {
	return &CredentialService{}
}

// NewSalt returns a fresh random salt, hex-encoded.
//
// crypto/rand (NOT math/rand) — salts must be unpredictable.
func (c *CredentialService) NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Digest computes the stored form of a password: base64(SHA-256(password ++ salt)).
// The salt is appended to the plaintext, not prepended — order matters,
// the two produce different digests.
func (c *CredentialService) Digest(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Verify reports whether the submitted password matches the stored digest.
//
// subtle.ConstantTimeCompare keeps the comparison time independent of how
// many leading bytes match, so response timing leaks nothing about the hash.
func (c *CredentialService) Verify(password, salt, storedHash string) bool {
	computed := c.Digest(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
