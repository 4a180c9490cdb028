package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/leandroruel/unrot.app-front/api/unrot"
)

var _ unrot.RestClient = (*APIClient)(nil)

// Implements the [unrot.RestClient] interface, for use with the endpoint helpers.
func (c *APIClient) RestDo(ctx context.Context, method string, path string, params url.Values, bodyobj any, out any) error {

	var body io.Reader
	if bodyobj != nil {
		if rr, ok := bodyobj.(io.Reader); ok {
			body = rr
		} else {
			b, err := json.Marshal(bodyobj)
			if err != nil {
				return err
			}

			body = bytes.NewReader(b)
		}
	}

	req := NewAPIRequest(method, path, body)
	req.Headers.Set("Accept", "application/json")
	if bodyobj != nil {
		req.Headers.Set("Content-Type", "application/json")
	}
	if params != nil {
		req.QueryParams = params
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if buf, ok := out.(*bytes.Buffer); ok {
		if _, err := io.Copy(buf, resp.Body); err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed decoding JSON response body: %w", err)
	}

	return nil
}
