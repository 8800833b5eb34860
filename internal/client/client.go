// Package client talks to the recipe API and keeps the caller's local state:
// session, favorites and settings.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/recipebook/backend/internal/types"
)

// ErrNotLoggedIn is returned without contacting the server when the session has no credential
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response
type APIError struct {
	Status  int
	Kind    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d (%s)", e.Status, e.Kind)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Kind, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// RecipeForm is what the user submits on create and edit
type RecipeForm struct {
	Title       string
	Description string
	Ingredients string
	Steps       string
	Category    string
	// Image is optional; ImageName supplies the extension kept by the server
	Image     io.Reader
	ImageName string
}

// Client calls the recipe API with the session's bearer credential
type Client struct {
	baseURL *url.URL
	session *Session
	http    *http.Client
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for baseURL
func New(baseURL string, session *Session, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c := &Client{
		baseURL: u,
		session: session,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ImageURL resolves a stored image reference against the base URL
func (c *Client) ImageURL(ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	u := *c.baseURL
	u.Path = path.Join("/", u.Path, ref)
	return u.String()
}

// List fetches the caller's recipes, newest first
func (c *Client) List(ctx context.Context) ([]types.RecipeResponse, error) {
	var out []types.RecipeResponse
	if err := c.do(ctx, http.MethodGet, "/api/recipes", nil, "", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one recipe
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*types.RecipeResponse, error) {
	var out types.RecipeResponse
	if err := c.do(ctx, http.MethodGet, "/api/recipes/"+id.String(), nil, "", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create submits a new recipe and returns the stored representation
func (c *Client) Create(ctx context.Context, form RecipeForm) (*types.RecipeResponse, error) {
	body, contentType, err := encodeForm(form)
	if err != nil {
		return nil, err
	}
	var out types.RecipeResponse
	if err := c.do(ctx, http.MethodPost, "/api/recipes", body, contentType, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces every field of a recipe; a nil Image keeps the stored one
func (c *Client) Update(ctx context.Context, id uuid.UUID, form RecipeForm) error {
	body, contentType, err := encodeForm(form)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/api/recipes/"+id.String(), body, contentType, http.StatusNoContent, nil)
}

// Delete removes a recipe
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/recipes/"+id.String(), nil, "", http.StatusNoContent, nil)
}

func (c *Client) do(ctx context.Context, method, p string, body io.Reader, contentType string, want int, out any) error {
	if c.session == nil || !c.session.LoggedIn() {
		return ErrNotLoggedIn
	}

	u := *c.baseURL
	u.Path = path.Join("/", u.Path, p)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.session.Token())
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Kind: http.StatusText(resp.StatusCode)}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body types.ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Kind = body.Error
		apiErr.Message = body.Message
		apiErr.Field = body.Field
	} else if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

func encodeForm(form RecipeForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"title", form.Title},
		{"description", form.Description},
		{"ingredients", form.Ingredients},
		{"steps", form.Steps},
		{"category", form.Category},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if form.Image != nil {
		name := form.ImageName
		if name == "" {
			name = "image"
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, form.Image); err != nil {
			return nil, "", fmt.Errorf("read image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
