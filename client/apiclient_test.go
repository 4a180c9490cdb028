package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/echo":
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"method": r.Method,
			"query":  r.URL.RawQuery,
			"body":   string(body),
			"agent":  r.Header.Get("User-Agent"),
		})
	case "/api/missing":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, `{"error":"NotFound","message":"no such post"}`)
	case "/api/broken":
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	case "/api/empty":
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func TestAPIClientGet(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer srv.Close()

	c := NewAPIClient(srv.URL)
	var out map[string]any
	require.NoError(c.Get(ctx, "/api/echo", map[string]any{"page": 2}, &out))
	assert.Equal("GET", out["method"])
	assert.Equal("page=2", out["query"])
	assert.Equal("unrot-client", out["agent"])
}

func TestAPIClientPost(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer srv.Close()

	c := NewAPIClient(srv.URL)
	var out map[string]any
	require.NoError(c.Post(ctx, "/api/echo", map[string]string{"content": "hi"}, &out))
	assert.Equal("POST", out["method"])
	assert.Equal(`{"content":"hi"}`, out["body"])

	require.NoError(c.Post(ctx, "/api/echo", nil, &out))
	assert.Equal("", out["body"])

	require.NoError(c.Delete(ctx, "/api/empty"))
}

func TestAPIClientErrors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	var apierr *APIError

	srv := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer srv.Close()

	c := NewAPIClient(srv.URL)

	err := c.Get(ctx, "/api/missing", nil, nil)
	assert.ErrorAs(err, &apierr)
	assert.Equal(404, apierr.StatusCode)
	assert.Equal("NotFound", apierr.Name)
	assert.Equal("no such post", apierr.Message)
	assert.ErrorIs(err, ErrNotFound)
	assert.NotErrorIs(err, ErrUnauthorized)
	assert.False(apierr.Temporary())

	// non-JSON error body
	err = c.Get(ctx, "/api/broken", nil, nil)
	assert.ErrorAs(err, &apierr)
	assert.Equal(502, apierr.StatusCode)
	assert.Equal("", apierr.Name)
	assert.True(apierr.Temporary())
}

func TestRestDo(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer srv.Close()

	c := NewAPIClient(srv.URL)
	var out map[string]any
	params, err := ParseParams(map[string]any{"size": 10})
	require.NoError(err)
	require.NoError(c.RestDo(ctx, http.MethodPost, "/api/echo", params, strings.NewReader("raw"), &out))
	assert.Equal("POST", out["method"])
	assert.Equal("size=10", out["query"])
	assert.Equal("raw", out["body"])

	require.NoError(c.RestDo(ctx, http.MethodDelete, "/api/empty", nil, nil, nil))
}

func TestHTTPRequest(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	req := NewAPIRequest(http.MethodGet, "/api/posts/abc", nil)
	req.Headers.Set("User-Agent", "request-agent")
	req.QueryParams.Set("page", "1")

	hr, err := req.HTTPRequest(ctx, "https://api.example.com/base/", http.Header{
		"User-Agent": []string{"client-agent"},
		"X-Extra":    []string{"yes"},
	})
	require.NoError(err)
	assert.Equal("https://api.example.com/base/api/posts/abc?page=1", hr.URL.String())
	assert.Equal("request-agent", hr.Header.Get("User-Agent"))
	assert.Equal("yes", hr.Header.Get("X-Extra"))

	_, err = req.HTTPRequest(ctx, "api.example.com", nil)
	assert.Error(err)

	bad := NewAPIRequest(http.MethodGet, "api/posts", nil)
	_, err = bad.HTTPRequest(ctx, "https://api.example.com", nil)
	assert.Error(err)
}
