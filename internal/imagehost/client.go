// Package imagehost is the client for the managed image-hosting API that
// stores user avatars.
//
// It is only exercised at signup: the submitted avatar file (or, when the
// user didn't attach one, a fixed default image URL) is uploaded under a
// per-account folder, and the host's response — public ID, delivery URLs,
// dimensions — is persisted on the user record as an opaque reference.
//
// UPLOAD PROTOCOL (Cloudinary-style signed upload):
// A multipart POST carrying the file (or a remote URL the host fetches
// itself), the target folder, a unix timestamp, the API key, and a
// signature: SHA-1 over the sorted non-credential parameters concatenated
// with the API secret. The secret itself never goes over the wire.
package imagehost

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/avernhe/marvel-backend/internal/model"
)

// Client uploads images to the hosting API.
type Client struct {
	uploadURL string
	apiKey    string
	apiSecret string
	http      *http.Client
	// now is stubbed in tests to make signatures deterministic
	now func() time.Time
}

// NewClient creates an image-host client.
// uploadURL is the full upload endpoint, e.g.
// "https://api.cloudinary.com/v1_1/<cloud>/image/upload".
func NewClient(uploadURL, apiKey, apiSecret string) *Client {
	return &Client{
		uploadURL: uploadURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// NewClientWithHTTP creates a Client with a custom http.Client. Used in tests.
func NewClientWithHTTP(uploadURL, apiKey, apiSecret string, httpClient *http.Client) *Client {
	c := NewClient(uploadURL, apiKey, apiSecret)
	c.http = httpClient
	return c
}

// UploadFile uploads raw image bytes into the given folder.
// filename is only a hint for the host; the returned reference carries
// the canonical public ID.
func (c *Client) UploadFile(ctx context.Context, folder, filename string, file io.Reader) (*model.Avatar, error) {
	return c.upload(ctx, folder, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, file)
		return err
	})
}

// UploadRemote asks the host to fetch and store an image from a public
// URL. Used for the default avatar when signup carries no file.
func (c *Client) UploadRemote(ctx context.Context, folder, imageURL string) (*model.Avatar, error) {
	return c.upload(ctx, folder, func(w *multipart.Writer) error {
		return w.WriteField("file", imageURL)
	})
}

// upload builds the signed multipart request and decodes the host's response.
func (c *Client) upload(ctx context.Context, folder string, writeFile func(*multipart.Writer) error) (*model.Avatar, error) {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	params := map[string]string{
		"folder":    folder,
		"timestamp": timestamp,
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := writeFile(form); err != nil {
		return nil, fmt.Errorf("imagehost: writing file part: %w", err)
	}
	for key, value := range params {
		if err := form.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("imagehost: writing %s field: %w", key, err)
		}
	}
	if err := form.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("imagehost: writing api_key field: %w", err)
	}
	if err := form.WriteField("signature", c.sign(params)); err != nil {
		return nil, fmt.Errorf("imagehost: writing signature field: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("imagehost: finalising form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("imagehost: building upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagehost: uploading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("imagehost: upload returned status %d: %s", resp.StatusCode, body)
	}

	var avatar model.Avatar
	if err := json.NewDecoder(resp.Body).Decode(&avatar); err != nil {
		return nil, fmt.Errorf("imagehost: decoding upload response: %w", err)
	}

	return &avatar, nil
}

// sign computes the upload signature: SHA-1 over the parameters sorted by
// key, joined as key=value with '&', followed by the API secret.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var toSign bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			toSign.WriteByte('&')
		}
		toSign.WriteString(k + "=" + params[k])
	}
	toSign.WriteString(c.apiSecret)

	sum := sha1.Sum(toSign.Bytes())
	return hex.EncodeToString(sum[:])
}
