package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the amount of randomness behind each bearer token.
// 64 bytes → 86 base64 characters; brute-forcing that is not a concern.
const tokenBytes = 64

// NewToken generates an opaque bearer token.
//
// TOKEN MODEL:
// The token is NOT a signed structure (no JWT). It carries no claims and
// no expiry — it is a random string stored on the user record, and every
// authenticated request resolves it with one store lookup (see
// middleware.go). That lookup-per-request cost buys instant revocation:
// delete the row and the token is dead. The flip side, inherited from the
// original system: tokens never expire and are never rotated.
//
// base64.RawURLEncoding keeps the token header-safe (no '+', '/' or '=').
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
