// Package model defines the data structures used throughout the application.
package model

import (
	"encoding/json"
	"time"
)

// Avatar is the image-host metadata stored for a user's profile picture.
//
// We keep the whole upload response rather than just a URL — the image
// host returns a public ID, dimensions, and both HTTP/HTTPS URLs, and the
// frontend picks what it needs. The struct is persisted as a JSON blob in
// the avatar column, so adding fields later doesn't need a migration.
type Avatar struct {
	PublicID  string `json:"public_id,omitempty"`
	URL       string `json:"url,omitempty"`
	SecureURL string `json:"secure_url,omitempty"`
	Format    string `json:"format,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// Account is the public profile portion of a user record.
//
// It is nested (rather than flattened into User) because API responses
// expose it as a single "account" object: {"username": ..., "avatar": ...}.
// Avatar is a pointer so a user without an uploaded image serialises as
// null, not as an empty object.
type Account struct {
	Username string  `json:"username"`
	Avatar   *Avatar `json:"avatar"`
}

// User represents a registered user record.
//
// Salt, Hash, and Token are credential material and must NEVER appear in
// an API response — note the json:"-" tags. The only way a token leaves
// the server is through the explicit signup/login response payloads.
//
// WHY SEPARATE SALT AND HASH COLUMNS?
// The stored credential is base64(SHA-256(password ++ salt)) with the salt
// kept alongside it. Login recomputes the digest with the stored salt and
// compares. The salt is per-user and random, so equal passwords produce
// different hashes.
//
// Token is an opaque random string issued once at signup. It never expires
// and is never rotated — a known weakness of this design, kept as-is.
//
// FavCharacters and FavComics hold upstream catalog IDs (24-char hex
// strings). They are nil until the user saves a first list, and each
// update replaces a list wholesale.
type User struct {
	ID            string    `json:"id"`
	Account       Account   `json:"account"`
	Email         string    `json:"email"`
	Salt          string    `json:"-"`
	Hash          string    `json:"-"`
	Token         string    `json:"-"`
	FavCharacters []string  `json:"favCharacters"`
	FavComics     []string  `json:"favComics"`
	CreatedAt     time.Time `json:"createdAt"`
}

// MarshalAvatar serialises the avatar reference for storage.
// Returns nil (stored as SQL NULL) when the user has no avatar.
func (u *User) MarshalAvatar() ([]byte, error) {
	if u.Account.Avatar == nil {
		return nil, nil
	}
	return json.Marshal(u.Account.Avatar)
}
