// Package client talks to a running dalleboard server's JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eringen/dalleboard/store"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dalleboard: %d: %s", e.Status, e.Message)
}

// Client is a small wrapper over the /api/v1 routes.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the server at baseURL. A nil httpClient uses a
// client with a timeout long enough for image generation.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Minute}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api/v1",
		http:    httpClient,
	}
}

// Generate asks the server for an image of prompt and returns it as bare base64.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var out struct {
		Photo string `json:"photo"`
	}
	if err := c.do(ctx, http.MethodPost, "/dalle", map[string]string{"prompt": prompt}, &out); err != nil {
		return "", err
	}
	return out.Photo, nil
}

// CreatePost shares a post. photo is a data URI or a remote image URL.
func (c *Client) CreatePost(ctx context.Context, name, prompt, photo string) (store.Post, error) {
	var out struct {
		Data store.Post `json:"data"`
	}
	body := map[string]string{"name": name, "prompt": prompt, "photo": photo}
	if err := c.do(ctx, http.MethodPost, "/post", body, &out); err != nil {
		return store.Post{}, err
	}
	return out.Data, nil
}

// ListPosts returns every shared post.
func (c *Client) ListPosts(ctx context.Context) ([]store.Post, error) {
	var out struct {
		Data []store.Post `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/post", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// RandomPrompt returns a "surprise me" prompt different from current.
func (c *Client) RandomPrompt(ctx context.Context, current string) (string, error) {
	var out struct {
		Prompt string `json:"prompt"`
	}
	path := "/prompt?current=" + url.QueryEscape(current)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Prompt, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dalleboard: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("dalleboard: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("dalleboard: decode response: %w", err)
	}
	return nil
}

// errorMessage pulls the message out of a JSON envelope, or returns the
// body as text; the generate route replies in plain text.
func errorMessage(raw []byte) string {
	var env struct {
		Message any `json:"message"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Message != nil {
		if s, ok := env.Message.(string); ok {
			return s
		}
		return fmt.Sprint(env.Message)
	}
	return strings.TrimSpace(string(raw))
}
