package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// Interface for auth implementations which can be used with [APIClient].
type AuthMethod interface {
	DoWithAuth(c *http.Client, req *http.Request) (*http.Response, error)
}

// General purpose client for unrot API endpoints.
type APIClient struct {
	// Inner HTTP client. May be customized after the overall [APIClient] struct is created; for example to set a default request timeout.
	Client *http.Client

	// Host URL prefix: scheme, hostname, port, and optional base path. This field is required.
	Host string

	// Optional auth client "middleware".
	Auth AuthMethod

	// Optional HTTP headers which will be included in all requests. Only a single value per key is included; request-level headers will override any client-level defaults.
	Headers http.Header

	// Optional client-side rate limit. If set, every request waits on the limiter before being sent.
	Limiter *rate.Limiter
}

// Creates a simple APIClient for the provided host, without authentication.
//
// Uses [http.DefaultClient], and sets a default User-Agent.
func NewAPIClient(host string) *APIClient {
	return &APIClient{
		Client: http.DefaultClient,
		Host:   host,
		Headers: map[string][]string{
			"User-Agent": []string{"unrot-client"},
		},
	}
}

// High-level helper for simple JSON GET API calls.
//
// This method automatically parses non-successful responses to [APIError].
func (c *APIClient) Get(ctx context.Context, path string, params map[string]any, out any) error {

	req := NewAPIRequest(http.MethodGet, path, nil)
	req.Headers.Set("Accept", "application/json")

	if params != nil {
		qp, err := ParseParams(params)
		if err != nil {
			return err
		}
		req.QueryParams = qp
	}

	return c.doJSON(ctx, req, out)
}

// High-level helper for simple JSON-to-JSON POST API calls, with no query params. A nil body sends an empty request body.
//
// This method automatically parses non-successful responses to [APIError].
func (c *APIClient) Post(ctx context.Context, path string, body any, out any) error {
	var req *APIRequest
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req = NewAPIRequest(http.MethodPost, path, bytes.NewReader(bodyJSON))
		req.Headers.Set("Content-Type", "application/json")
	} else {
		req = NewAPIRequest(http.MethodPost, path, nil)
	}
	req.Headers.Set("Accept", "application/json")

	return c.doJSON(ctx, req, out)
}

// High-level helper for DELETE API calls. Any response body is discarded.
func (c *APIClient) Delete(ctx context.Context, path string) error {
	req := NewAPIRequest(http.MethodDelete, path, nil)
	req.Headers.Set("Accept", "application/json")
	return c.doJSON(ctx, req, nil)
}

func (c *APIClient) doJSON(ctx context.Context, req *APIRequest, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		// drain body before returning
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed decoding JSON response body: %w", err)
	}
	return nil
}

// Full-featured method for API requests.
//
// Does not parse API error responses; the caller owns the response body.
func (c *APIClient) Do(ctx context.Context, req *APIRequest) (*http.Response, error) {

	if c.Client == nil {
		c.Client = http.DefaultClient
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	httpReq, err := req.HTTPRequest(ctx, c.Host, c.Headers)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	if c.Auth != nil {
		resp, err = c.Auth.DoWithAuth(c.Client, httpReq)
	} else {
		resp, err = c.Client.Do(httpReq)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
