package handler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/avernhe/marvel-backend/internal/apperror"
	"github.com/avernhe/marvel-backend/internal/auth"
	"github.com/avernhe/marvel-backend/internal/service"
)

// maxUploadBytes caps an avatar upload at 10 MB.
const maxUploadBytes = 10 << 20

// UserHandler owns the account endpoints: signup, login, and favorites.
//
// The favorites handlers sit behind auth.RequireToken, so they read the
// already-resolved account from the request context instead of touching
// the store themselves.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleSignup creates an account.
//
// HTTP: POST /user/signup
//
// The frontend submits multipart/form-data when an avatar file is
// attached (fields: username, email, password, avatar) and plain JSON
// otherwise. Both shapes are accepted here.
//
// RESPONSE: 201 {"message": ..., "token": ..., "id": ...}
// The token is the account's permanent bearer credential.
func (h *UserHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseSignup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.users.Signup(r.Context(), *input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created.",
		"token":   result.Token,
		"id":      result.ID,
	})
}

// parseSignup extracts the signup fields from either body encoding.
func (h *UserHandler) parseSignup(r *http.Request) (*service.SignupInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, apperror.ValidationFailed("", "Malformed form data.")
		}

		input := &service.SignupInput{
			Username: r.FormValue("username"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}

		// The avatar file is optional — http.ErrMissingFile is fine.
		file, header, err := r.FormFile("avatar")
		if err == nil {
			// Closed when the multipart form is cleaned up after the handler.
			input.Avatar = file
			input.AvatarFilename = header.Filename
		} else if err != http.ErrMissingFile {
			return nil, apperror.ValidationFailed("avatar", "Could not read the avatar file.")
		}

		return input, nil
	}

	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, apperror.ValidationFailed("", "Malformed JSON body.")
	}

	return &service.SignupInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	}, nil
}

// HandleLogin authenticates with email + password.
//
// HTTP: PUT /user/login
//
// RESPONSE: 200 with the stored token, the public account object, the
// record ID, and both favorite lists — everything the frontend needs to
// restore a session in one call. Salt and hash never leave the server.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("", "Malformed JSON body."))
		return
	}

	user, err := h.users.Login(r.Context(), service.LoginInput{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":         user.Token,
		"account":       user.Account,
		"id":            user.ID,
		"favCharacters": user.FavCharacters,
		"favComics":     user.FavComics,
	})
}

// HandleReadFav returns the authenticated user's favorite lists.
//
// HTTP: GET /user/fav (bearer token required)
func (h *UserHandler) HandleReadFav(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Unauthorized to do this action."))
		return
	}

	fav := h.users.ReadFavorites(user)
	writeJSON(w, http.StatusOK, map[string]any{
		"favComics":     fav.FavComics,
		"favCharacters": fav.FavCharacters,
	})
}

// HandleUpdateFav replaces the authenticated user's favorite lists.
//
// HTTP: PUT /user/fav (bearer token required)
// BODY: {"comicFav": [...]} and/or {"characterFav": [...]}
//
// Pointers distinguish "absent" from "present but empty": an omitted
// (or null) key leaves that list alone, [] clears it. A key with a
// non-array value fails JSON decoding and comes back as a 400.
func (h *UserHandler) HandleUpdateFav(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Unauthorized to do this action."))
		return
	}

	var body struct {
		CharacterFav *[]string `json:"characterFav"`
		ComicFav     *[]string `json:"comicFav"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("", "Please send lists of catalog IDs."))
		return
	}

	update := service.FavoritesUpdate{}
	if body.CharacterFav != nil {
		update.CharacterFav = *body.CharacterFav
	}
	if body.ComicFav != nil {
		update.ComicFav = *body.ComicFav
	}

	fav, err := h.users.UpdateFavorites(r.Context(), user, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"favComics":     fav.FavComics,
		"favCharacters": fav.FavCharacters,
	})
}
