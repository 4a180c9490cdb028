package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leandroruel/unrot.app-front/tokenstore"
)

// BearerAuth attaches the stored bearer token to every request.
//
// A 401 response clears the stored token and then calls OnUnauthorized. The response itself is still returned to the caller, which will surface it as an [APIError] matching [ErrUnauthorized].
type BearerAuth struct {
	Tokens tokenstore.Store

	// Optional process-wide handler for expired or revoked credentials.
	OnUnauthorized func(ctx context.Context)

	Logger *slog.Logger
}

var _ AuthMethod = (*BearerAuth)(nil)

func (a *BearerAuth) DoWithAuth(c *http.Client, req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	token, err := a.Tokens.Load(ctx)
	if err != nil && !errors.Is(err, tokenstore.ErrNoToken) {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		a.unauthorized(ctx, req)
	}
	return resp, nil
}

func (a *BearerAuth) unauthorized(ctx context.Context, req *http.Request) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("unauthorized response, clearing credential", "method", req.Method, "path", req.URL.Path)

	if err := a.Tokens.Clear(ctx); err != nil {
		logger.Warn("failed to clear credential", "err", err)
	}
	if a.OnUnauthorized != nil {
		a.OnUnauthorized(ctx)
	}
}
