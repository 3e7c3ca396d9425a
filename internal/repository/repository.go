package repository

import (
	"context"

	"github.com/avernhe/marvel-backend/internal/model"
)

// UserRepository is the storage contract for user records.
//
// There is deliberately no Delete — accounts are never removed, only
// created at signup and mutated by favorites/avatar updates. GetByEmail
// and GetByToken return (nil, nil) when nothing matches; callers decide
// whether an absent record is an error.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByToken(ctx context.Context, token string) (*model.User, error)
	// UpdateFavorites replaces a favorites column wholesale. A nil slice
	// for either argument means "leave that list untouched".
	UpdateFavorites(ctx context.Context, id string, favCharacters, favComics []string) error
	// SetAvatar stores the image-host reference after a signup upload.
	SetAvatar(ctx context.Context, id string, avatar *model.Avatar) error
}
