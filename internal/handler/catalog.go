package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avernhe/marvel-backend/internal/apperror"
	"github.com/avernhe/marvel-backend/internal/marvel"
)

// CatalogHandler relays character and comic queries to the upstream
// catalog API.
//
// These handlers are deliberately thin: validate the client-supplied
// filters, let the marvel client build the keyed upstream URL, and relay
// the upstream JSON body verbatim. No payload is parsed or reshaped — the
// backend's only job on this surface is to keep the API key server-side.
type CatalogHandler struct {
	catalog *marvel.Client
	logger  *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog *marvel.Client, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// HandleListCharacters relays the character list.
//
// HTTP: GET /characters?name=&limit=&skip=
// All filters are optional; limit and skip must be numeric strings.
func (h *CatalogHandler) HandleListCharacters(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r, "name")
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := h.catalog.ListCharacters(r.Context(), filter)
	if err != nil {
		writeError(w, apperror.Upstream(err))
		return
	}

	writeRelay(w, http.StatusOK, body)
}

// HandleCharacterByID relays one character's details.
//
// HTTP: GET /character/{characterId}
func (h *CatalogHandler) HandleCharacterByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "characterId")
	if !marvel.IsValidID(id) {
		writeError(w, apperror.ValidationFailed("characterId", "Please use a valid Id."))
		return
	}

	body, err := h.catalog.CharacterByID(r.Context(), id)
	if err != nil {
		writeError(w, apperror.Upstream(err))
		return
	}

	writeRelay(w, http.StatusOK, body)
}

// HandleListComics relays the comic list.
//
// HTTP: GET /comics?title=&limit=&skip=
func (h *CatalogHandler) HandleListComics(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r, "title")
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := h.catalog.ListComics(r.Context(), filter)
	if err != nil {
		writeError(w, apperror.Upstream(err))
		return
	}

	writeRelay(w, http.StatusOK, body)
}

// HandleComicsByCharacter relays the comics a character appears in.
//
// HTTP: GET /comics/{characterId}
func (h *CatalogHandler) HandleComicsByCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "characterId")
	if !marvel.IsValidID(id) {
		writeError(w, apperror.ValidationFailed("characterId", "Please use a valid Id."))
		return
	}

	body, err := h.catalog.ComicsByCharacter(r.Context(), id)
	if err != nil {
		writeError(w, apperror.Upstream(err))
		return
	}

	writeRelay(w, http.StatusOK, body)
}

// HandleComicByID relays one comic's details.
//
// HTTP: GET /comic/{comicId}
func (h *CatalogHandler) HandleComicByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comicId")
	if !marvel.IsValidID(id) {
		writeError(w, apperror.ValidationFailed("comicId", "Please use a valid Id."))
		return
	}

	body, err := h.catalog.ComicByID(r.Context(), id)
	if err != nil {
		writeError(w, apperror.Upstream(err))
		return
	}

	writeRelay(w, http.StatusOK, body)
}

// listFilter reads the optional list-endpoint filters off the query
// string. textParam is "name" for characters and "title" for comics.
// limit and skip must parse as integers when present — anything else is
// rejected before the upstream ever sees it.
func listFilter(r *http.Request, textParam string) (marvel.ListFilter, error) {
	query := r.URL.Query()
	filter := marvel.ListFilter{
		Name:  query.Get(textParam),
		Limit: query.Get("limit"),
		Skip:  query.Get("skip"),
	}

	for _, field := range []struct{ name, value string }{
		{"limit", filter.Limit},
		{"skip", filter.Skip},
	} {
		if field.value == "" {
			continue
		}
		if _, err := strconv.Atoi(field.value); err != nil {
			return marvel.ListFilter{}, apperror.ValidationFailed(field.name, "Please use the right type of query.")
		}
	}

	return filter, nil
}
