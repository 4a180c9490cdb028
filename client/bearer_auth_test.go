package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leandroruel/unrot.app-front/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer good-token" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintln(w, `{"error":"Unauthorized","message":"token expired"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"status":"success"}`)
}

func TestBearerAuth(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(bearerHandler))
	defer srv.Close()

	tokens := tokenstore.NewMemoryStore()
	calls := 0
	c := NewAPIClient(srv.URL)
	c.Auth = &BearerAuth{
		Tokens:         tokens,
		OnUnauthorized: func(ctx context.Context) { calls++ },
	}

	require.NoError(tokens.Save(ctx, "good-token"))
	require.NoError(c.Get(ctx, "/api/feed", nil, nil))
	assert.Equal(0, calls)

	require.NoError(tokens.Save(ctx, "stale-token"))
	err := c.Get(ctx, "/api/feed", nil, nil)
	assert.ErrorIs(err, ErrUnauthorized)
	assert.Equal(1, calls)

	_, err = tokens.Load(ctx)
	assert.ErrorIs(err, tokenstore.ErrNoToken)

	// no credential at all: request goes out unauthenticated
	err = c.Get(ctx, "/api/feed", nil, nil)
	assert.ErrorIs(err, ErrUnauthorized)
	assert.Equal(2, calls)
}
