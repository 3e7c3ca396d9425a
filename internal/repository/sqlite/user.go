package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/avernhe/marvel-backend/internal/model"
	"github.com/avernhe/marvel-backend/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user record, generating its ID and timestamp.
// The caller is expected to have filled in the credential fields
// (salt, hash, token) — the repository does not invent them.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	avatar, err := user.MarshalAvatar()
	if err != nil {
		return fmt.Errorf("sqlite: encoding avatar: %w", err)
	}
	favCharacters, err := marshalList(user.FavCharacters)
	if err != nil {
		return fmt.Errorf("sqlite: encoding favCharacters: %w", err)
	}
	favComics, err := marshalList(user.FavComics)
	if err != nil {
		return fmt.Errorf("sqlite: encoding favComics: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, avatar, email, salt, hash, token,
		                    fav_characters, fav_comics, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Account.Username,
		nullableBytes(avatar),
		user.Email,
		user.Salt,
		user.Hash,
		user.Token,
		nullableBytes(favCharacters),
		nullableBytes(favComics),
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByEmail returns the user registered with the given email, or
// (nil, nil) if none exists. Email is the login lookup key.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getBy(ctx, "email", email)
}

// GetByToken returns the user owning the given bearer token, or
// (nil, nil) if the token is unknown. Called once per authenticated request.
func (db *DB) GetByToken(ctx context.Context, token string) (*model.User, error) {
	return db.getBy(ctx, "token", token)
}

// getBy fetches a single user by an exact match on one column.
// Shared by GetByEmail and GetByToken — the scan is identical.
func (db *DB) getBy(ctx context.Context, column, value string) (*model.User, error) {
	var (
		u             model.User
		avatar        sql.NullString
		favCharacters sql.NullString
		favComics     sql.NullString
	)

	// column is always a compile-time constant from this package, never
	// caller input, so the Sprintf is safe.
	query := fmt.Sprintf(
		`SELECT id, username, avatar, email, salt, hash, token,
		        fav_characters, fav_comics, created_at
		 FROM users WHERE %s = ?`, column)

	err := db.conn.QueryRowContext(ctx, query, value).Scan(
		&u.ID,
		&u.Account.Username,
		&avatar,
		&u.Email,
		&u.Salt,
		&u.Hash,
		&u.Token,
		&favCharacters,
		&favComics,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}

	if avatar.Valid {
		var a model.Avatar
		if err := json.Unmarshal([]byte(avatar.String), &a); err != nil {
			return nil, fmt.Errorf("sqlite: decoding avatar for user %s: %w", u.ID, err)
		}
		u.Account.Avatar = &a
	}
	if u.FavCharacters, err = unmarshalList(favCharacters); err != nil {
		return nil, fmt.Errorf("sqlite: decoding favCharacters for user %s: %w", u.ID, err)
	}
	if u.FavComics, err = unmarshalList(favComics); err != nil {
		return nil, fmt.Errorf("sqlite: decoding favComics for user %s: %w", u.ID, err)
	}

	return &u, nil
}

// UpdateFavorites replaces the favorites columns for the given user.
// A nil slice leaves that column untouched; a non-nil (even empty) slice
// overwrites it wholesale — last write wins, no merging.
func (db *DB) UpdateFavorites(ctx context.Context, id string, favCharacters, favComics []string) error {
	if favCharacters != nil {
		encoded, err := marshalList(favCharacters)
		if err != nil {
			return fmt.Errorf("sqlite: encoding favCharacters: %w", err)
		}
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE users SET fav_characters = ? WHERE id = ?`, string(encoded), id,
		); err != nil {
			return fmt.Errorf("sqlite: updating favCharacters for user %s: %w", id, err)
		}
	}

	if favComics != nil {
		encoded, err := marshalList(favComics)
		if err != nil {
			return fmt.Errorf("sqlite: encoding favComics: %w", err)
		}
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE users SET fav_comics = ? WHERE id = ?`, string(encoded), id,
		); err != nil {
			return fmt.Errorf("sqlite: updating favComics for user %s: %w", id, err)
		}
	}

	return nil
}

// SetAvatar stores the image-host reference on an existing record.
// Called once, right after the signup upload completes.
func (db *DB) SetAvatar(ctx context.Context, id string, avatar *model.Avatar) error {
	encoded, err := json.Marshal(avatar)
	if err != nil {
		return fmt.Errorf("sqlite: encoding avatar: %w", err)
	}
	_, err = db.conn.ExecContext(ctx,
		`UPDATE users SET avatar = ? WHERE id = ?`, string(encoded), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting avatar for user %s: %w", id, err)
	}
	return nil
}

// marshalList encodes a favorites list for storage.
// nil stays nil (stored as SQL NULL) — absent and empty are distinct states.
func marshalList(list []string) ([]byte, error) {
	if list == nil {
		return nil, nil
	}
	return json.Marshal(list)
}

func unmarshalList(col sql.NullString) ([]string, error) {
	if !col.Valid {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(col.String), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func nullableBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
