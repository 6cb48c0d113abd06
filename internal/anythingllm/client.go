// Package anythingllm talks to the AnythingLLM REST API. It exposes the
// four remote operations the reconciliation engine needs plus an auth
// preflight, mapping HTTP outcomes onto the shared error kinds.
package anythingllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	apperrors "github.com/gcurrier/anythingllm-document-sync/internal/errors"
)

//go:generate mockgen -source=client.go -destination=mock_client.go -package=anythingllm

// Client is the remote surface consumed by the engine. Raw ids are the
// document locations AnythingLLM assigns on upload; the same location
// addresses the embedding inside a workspace, so Embed returns it as the
// embed id.
type Client interface {
	// Auth verifies the API key before anything else runs.
	Auth(ctx context.Context) error

	// UploadRaw uploads content under the file's base name and returns
	// the server-assigned document location.
	UploadRaw(ctx context.Context, path string, content []byte) (string, error)

	// Embed adds an uploaded document to the workspace vector index and
	// returns the embedding id.
	Embed(ctx context.Context, rawID string) (string, error)

	// Unembed removes an embedding from the workspace. Removing one that
	// is already gone succeeds.
	Unembed(ctx context.Context, embedID string) error

	// DeleteRaw deletes an uploaded document from server storage.
	// Deleting one that is already gone succeeds.
	DeleteRaw(ctx context.Context, rawID string) error
}

const (
	// httpTimeout bounds every API call. Embedding large documents is
	// the slowest operation the server performs synchronously.
	httpTimeout = 120 * time.Second

	// defaultEmbedDelay is the pause after each successful embed call so
	// a large first sync does not flood the server's vectorizer.
	defaultEmbedDelay = 500 * time.Millisecond

	// maxResponseBytes caps response body reads. API responses are small
	// JSON payloads; workspace listings stay well under this.
	maxResponseBytes = 4 * 1024 * 1024
)

// HTTPClient is the production Client backed by the AnythingLLM HTTP API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	workspace  string
	httpClient *http.Client
	embedDelay time.Duration
}

// NewHTTPClient creates a client for one workspace. A nil httpClient
// gets a default with a 120-second timeout.
func NewHTTPClient(baseURL, apiKey, workspace string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpTimeout}
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		workspace:  workspace,
		httpClient: httpClient,
		embedDelay: defaultEmbedDelay,
	}
}

// SetEmbedDelay overrides the post-embed pause. Tests set it to zero.
func (c *HTTPClient) SetEmbedDelay(d time.Duration) {
	c.embedDelay = d
}

// Auth checks the API key against /api/v1/auth.
func (c *HTTPClient) Auth(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/auth", nil)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if !gjson.GetBytes(body, "authenticated").Bool() {
		return apperrors.Rejectedf("auth: API key was not accepted")
	}

	return nil
}

// UploadRaw uploads one document via multipart form and returns the
// location the server stored it under.
func (c *HTTPClient) UploadRaw(ctx context.Context, path string, content []byte) (string, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	body, err := c.doRaw(ctx, http.MethodPost, "/api/v1/document/upload", mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}

	if !gjson.GetBytes(body, "success").Bool() {
		msg := gjson.GetBytes(body, "error").Str
		return "", apperrors.Rejectedf("uploading %s: %s", path, msg)
	}

	location := gjson.GetBytes(body, "documents.0.location").Str
	if location == "" {
		return "", apperrors.Rejectedf("uploading %s: response carried no document location", path)
	}

	return location, nil
}

// updateEmbeddingsRequest is the adds/deletes payload for the workspace
// update-embeddings endpoint.
type updateEmbeddingsRequest struct {
	Adds    []string `json:"adds,omitempty"`
	Deletes []string `json:"deletes,omitempty"`
}

// removeDocumentsRequest is the payload for system/remove-documents.
type removeDocumentsRequest struct {
	Names []string `json:"names"`
}

// Embed adds the uploaded document to the workspace index. The document
// location doubles as the embedding id.
func (c *HTTPClient) Embed(ctx context.Context, rawID string) (string, error) {
	payload := updateEmbeddingsRequest{Adds: []string{rawID}}

	if _, err := c.do(ctx, http.MethodPost, c.workspacePath(), payload); err != nil {
		return "", fmt.Errorf("embedding %s: %w", rawID, err)
	}

	if c.embedDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.embedDelay):
		}
	}

	return rawID, nil
}

// Unembed removes the embedding from the workspace. An id the server no
// longer knows is treated as already removed.
func (c *HTTPClient) Unembed(ctx context.Context, embedID string) error {
	payload := updateEmbeddingsRequest{Deletes: []string{embedID}}

	if _, err := c.do(ctx, http.MethodPost, c.workspacePath(), payload); err != nil {
		if apperrors.Kind(err) == apperrors.ErrNotFound {
			return nil
		}

		return fmt.Errorf("unembedding %s: %w", embedID, err)
	}

	return nil
}

// DeleteRaw removes the uploaded document from server storage. An id
// that is already absent is treated as deleted.
func (c *HTTPClient) DeleteRaw(ctx context.Context, rawID string) error {
	payload := removeDocumentsRequest{Names: []string{rawID}}

	if _, err := c.do(ctx, http.MethodDelete, "/api/v1/system/remove-documents", payload); err != nil {
		if apperrors.Kind(err) == apperrors.ErrNotFound {
			return nil
		}

		return fmt.Errorf("deleting raw %s: %w", rawID, err)
	}

	return nil
}

func (c *HTTPClient) workspacePath() string {
	return "/api/v1/workspace/" + c.workspace + "/update-embeddings"
}

// do sends a JSON request. A nil body sends no payload.
func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	if body == nil {
		return c.doRaw(ctx, method, endpoint, "", nil)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling request body: %w", err)
	}

	return c.doRaw(ctx, method, endpoint, "application/json", payload)
}

// doRaw sends a request and classifies the outcome: network failures and
// 5xx/429 map to the transport kind, 404 to not-found, other non-2xx to
// remote rejection.
func (c *HTTPClient) doRaw(ctx context.Context, method, endpoint, contentType string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Transportf("%s %s: %v", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Transportf("reading response from %s: %v", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := gjson.GetBytes(body, "error").Str
		if detail == "" {
			detail = sanitizeBody(body)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, apperrors.NotFoundf("%s %s (%d): %s", method, endpoint, resp.StatusCode, detail)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, apperrors.Transportf("%s %s (%d): %s", method, endpoint, resp.StatusCode, detail)
		default:
			return nil, apperrors.Rejectedf("%s %s (%d): %s", method, endpoint, resp.StatusCode, detail)
		}
	}

	return body, nil
}

// sanitizeBody truncates a response body for error messages and strips
// control characters so server output cannot inject into logs.
func sanitizeBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}
