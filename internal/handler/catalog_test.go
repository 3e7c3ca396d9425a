package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avernhe/marvel-backend/internal/handler"
	"github.com/avernhe/marvel-backend/internal/marvel"
)

const validID = "507f1f77bcf86cd799439011"

// newTestCatalogHandler wires a CatalogHandler against a stub upstream.
// Each test reads the captured upstream URL to check query assembly.
func newTestCatalogHandler(t *testing.T, upstream http.HandlerFunc) (*handler.CatalogHandler, *url.URL) {
	t.Helper()

	captured := &url.URL{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r.URL
		upstream(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := marvel.NewClientWithHTTP(srv.URL, "test-key", srv.Client())
	return handler.NewCatalogHandler(client, logger), captured
}

// withPathValue attaches a chi route parameter to the request, standing in
// for the routing the real server performs before the handler runs.
func withPathValue(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func relayOK(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"count":0,"results":[]}`))
}

func TestHandleListCharacters_RelaysFilters(t *testing.T) {
	h, upstreamURL := newTestCatalogHandler(t, relayOK)

	req := httptest.NewRequest(http.MethodGet, "/characters?name=John%20Doe&limit=5", nil)
	rr := httptest.NewRecorder()
	h.HandleListCharacters(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":0,"results":[]}`, rr.Body.String())

	query := upstreamURL.Query()
	assert.Equal(t, "John Doe", query.Get("name"))
	assert.Equal(t, "5", query.Get("limit"))
	assert.Equal(t, "test-key", query.Get("apiKey"))
}

func TestHandleListCharacters_NonNumericLimit(t *testing.T) {
	h, _ := newTestCatalogHandler(t, relayOK)

	req := httptest.NewRequest(http.MethodGet, "/characters?limit=abc", nil)
	rr := httptest.NewRecorder()
	h.HandleListCharacters(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please use the right type of query.")
}

func TestHandleListComics_NonNumericSkip(t *testing.T) {
	h, _ := newTestCatalogHandler(t, relayOK)

	req := httptest.NewRequest(http.MethodGet, "/comics?skip=x", nil)
	rr := httptest.NewRecorder()
	h.HandleListComics(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleCharacterByID_InvalidID(t *testing.T) {
	h, _ := newTestCatalogHandler(t, relayOK)

	req := httptest.NewRequest(http.MethodGet, "/character/not-a-hex-id", nil)
	req = withPathValue(req, "characterId", "not-a-hex-id")
	rr := httptest.NewRecorder()
	h.HandleCharacterByID(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please use a valid Id.")
}

func TestHandleCharacterByID_Valid(t *testing.T) {
	h, upstreamURL := newTestCatalogHandler(t, relayOK)

	req := httptest.NewRequest(http.MethodGet, "/character/"+validID, nil)
	req = withPathValue(req, "characterId", validID)
	rr := httptest.NewRecorder()
	h.HandleCharacterByID(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/character/"+validID, upstreamURL.Path)
}

func TestHandleComicsByCharacter_Valid(t *testing.T) {
	h, upstreamURL := newTestCatalogHandler(t, relayOK)

	req := httptest.NewRequest(http.MethodGet, "/comics/"+validID, nil)
	req = withPathValue(req, "characterId", validID)
	rr := httptest.NewRecorder()
	h.HandleComicsByCharacter(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/comics/"+validID, upstreamURL.Path)
}

func TestHandleComicByID_InvalidID(t *testing.T) {
	h, _ := newTestCatalogHandler(t, relayOK)

	req := httptest.NewRequest(http.MethodGet, "/comic/123", nil)
	req = withPathValue(req, "comicId", "123")
	rr := httptest.NewRecorder()
	h.HandleComicByID(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleListCharacters_UpstreamFailure(t *testing.T) {
	h, _ := newTestCatalogHandler(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/characters", nil)
	rr := httptest.NewRecorder()
	h.HandleListCharacters(rr, req)

	// Upstream failures surface as 500 with the raw message
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "status 503")
}
