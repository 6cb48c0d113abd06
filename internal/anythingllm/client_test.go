package anythingllm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gcurrier/anythingllm-document-sync/internal/errors"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, "test-key", "docs", srv.Client())
	c.SetEmbedDelay(0)

	return c
}

func TestAuth_Success(t *testing.T) {
	var gotAuth string

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/auth", r.URL.Path)
		io.WriteString(w, `{"authenticated": true}`)
	})

	require.NoError(t, c.Auth(context.Background()))
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestAuth_Rejected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"authenticated": false}`)
	})

	err := c.Auth(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrRemoteRejected)
}

func TestAuth_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewHTTPClient(srv.URL, "k", "docs", nil)

	err := c.Auth(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestUploadRaw_Success(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/document/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "notes.md", header.Filename)
		assert.Equal(t, "# hello", string(content))

		io.WriteString(w, `{"success": true, "error": null, "documents": [{"location": "custom-documents/notes.md-abc123.json"}]}`)
	})

	loc, err := c.UploadRaw(context.Background(), "/docs/notes.md", []byte("# hello"))
	require.NoError(t, err)
	assert.Equal(t, "custom-documents/notes.md-abc123.json", loc)
}

func TestUploadRaw_ServerSaysNo(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"success": false, "error": "No text content found"}`)
	})

	_, err := c.UploadRaw(context.Background(), "/docs/slides.odp", []byte("x"))
	require.ErrorIs(t, err, apperrors.ErrRemoteRejected)
	assert.Contains(t, err.Error(), "No text content found")
}

func TestUploadRaw_MissingLocation(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"success": true, "documents": []}`)
	})

	_, err := c.UploadRaw(context.Background(), "/docs/a.md", []byte("x"))
	assert.ErrorIs(t, err, apperrors.ErrRemoteRejected)
}

func TestEmbed_PostsAddsAndReturnsLocation(t *testing.T) {
	var got updateEmbeddingsRequest

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workspace/docs/update-embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"workspace": {"slug": "docs"}}`)
	})

	id, err := c.Embed(context.Background(), "custom-documents/a.md-1.json")
	require.NoError(t, err)
	assert.Equal(t, "custom-documents/a.md-1.json", id)
	assert.Equal(t, []string{"custom-documents/a.md-1.json"}, got.Adds)
	assert.Empty(t, got.Deletes)
}

func TestEmbed_UnknownRawID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "document not found"}`, http.StatusNotFound)
	})

	_, err := c.Embed(context.Background(), "custom-documents/gone.json")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUnembed_PostsDeletes(t *testing.T) {
	var got updateEmbeddingsRequest

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"workspace": {"slug": "docs"}}`)
	})

	require.NoError(t, c.Unembed(context.Background(), "custom-documents/a.md-1.json"))
	assert.Equal(t, []string{"custom-documents/a.md-1.json"}, got.Deletes)
	assert.Empty(t, got.Adds)
}

func TestUnembed_AlreadyGoneIsSuccess(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "not in workspace"}`, http.StatusNotFound)
	})

	assert.NoError(t, c.Unembed(context.Background(), "custom-documents/gone.json"))
}

func TestDeleteRaw_SendsNames(t *testing.T) {
	var got removeDocumentsRequest

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/system/remove-documents", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"success": true}`)
	})

	require.NoError(t, c.DeleteRaw(context.Background(), "custom-documents/a.md-1.json"))
	assert.Equal(t, []string{"custom-documents/a.md-1.json"}, got.Names)
}

func TestDeleteRaw_AlreadyGoneIsSuccess(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "no such document"}`, http.StatusNotFound)
	})

	assert.NoError(t, c.DeleteRaw(context.Background(), "custom-documents/gone.json"))
}

func TestErrorMapping_ServerErrorsAreTransport(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	err := c.Auth(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestErrorMapping_TooManyRequestsIsTransport(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := c.UploadRaw(context.Background(), "/docs/a.md", []byte("x"))
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestErrorMapping_ClientErrorIsRejection(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "unsupported"}`, http.StatusUnprocessableEntity)
	})

	_, err := c.UploadRaw(context.Background(), "/docs/a.md", []byte("x"))
	assert.ErrorIs(t, err, apperrors.ErrRemoteRejected)
}

func TestSanitizeBody_StripsControlBytes(t *testing.T) {
	got := sanitizeBody([]byte("ok\x00\x1b[31mred"))
	assert.Equal(t, "ok??[31mred", got)
}
