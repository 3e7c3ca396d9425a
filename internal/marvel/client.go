// Package marvel is the client for the upstream comics-catalog API.
//
// The backend is a pass-through in front of this API: handlers validate
// the incoming filters, the client builds the keyed upstream URL, and the
// upstream JSON body is relayed to the frontend byte-for-byte. No
// response shape is parsed or transformed here — the payloads stay
// opaque, which keeps this package immune to upstream schema changes.
package marvel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

// objectIDPattern matches the catalog's identifiers: 24 hex characters
// (the upstream stores its data keyed by document-store object IDs).
var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsValidID reports whether id is a well-formed catalog identifier.
func IsValidID(id string) bool {
	return objectIDPattern.MatchString(id)
}

// ListFilter carries the optional query filters for the list endpoints.
// Limit and Skip are kept as strings: they arrive as query parameters,
// are validated as numeric by the handler, and are forwarded verbatim —
// the upstream does its own parsing.
type ListFilter struct {
	Name  string // character name filter ("title" upstream for comics)
	Limit string
	Skip  string
}

// Client talks to the upstream catalog API.
//
// Every upstream request carries the API key as a query parameter.
// The http.Client is injected so tests can point at an httptest server;
// the default carries a 30s timeout so a hung upstream cannot hang a
// frontend request forever.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a catalog client for the given base URL and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithHTTP creates a Client with a custom http.Client. Used in tests.
func NewClientWithHTTP(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

// ListCharacters fetches the character list, optionally filtered by name
// and paginated with limit/skip. Returns the raw upstream JSON body.
func (c *Client) ListCharacters(ctx context.Context, f ListFilter) ([]byte, error) {
	return c.get(ctx, "/characters", f.query("name"))
}

// CharacterByID fetches one character's details. The caller validates the
// ID shape first (IsValidID) — this method trusts its input.
func (c *Client) CharacterByID(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, "/character/"+id, nil)
}

// ListComics fetches the comic list, optionally filtered by title.
func (c *Client) ListComics(ctx context.Context, f ListFilter) ([]byte, error) {
	return c.get(ctx, "/comics", f.query("title"))
}

// ComicsByCharacter fetches the comics a given character appears in.
func (c *Client) ComicsByCharacter(ctx context.Context, characterID string) ([]byte, error) {
	return c.get(ctx, "/comics/"+characterID, nil)
}

// ComicByID fetches one comic's details.
func (c *Client) ComicByID(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, "/comic/"+id, nil)
}

// query builds the filter parameters, naming the text filter after the
// endpoint's convention (name for characters, title for comics).
func (f ListFilter) query(textParam string) url.Values {
	values := url.Values{}
	if f.Name != "" {
		values.Set(textParam, f.Name)
	}
	if f.Limit != "" {
		values.Set("limit", f.Limit)
	}
	if f.Skip != "" {
		values.Set("skip", f.Skip)
	}
	return values
}

// get performs the upstream request and relays the body.
//
// Any transport failure or non-2xx upstream status is surfaced as an
// error — the handler maps it to a 500 with the raw message, which is
// exactly how the original surface behaved (axios throws, catch responds
// 500 with error.message).
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	u := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("marvel: building request for %s: %w", path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marvel: calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("marvel: %s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("marvel: reading %s response: %w", path, err)
	}

	return body, nil
}
