// Package unrot holds the wire types of the unrot backend HTTP API, and one
// helper function per endpoint.
//
// The backend is a fixed external contract. Two pagination conventions are in
// use: the home feed returns a flat JSON array (exhaustion is implied when a
// page has fewer items than requested), while post listings, comments and
// notifications return a [Page] envelope with an explicit 'last' flag.
package unrot

import (
	"context"
	"net/http"
	"net/url"
)

const (
	Query     = http.MethodGet
	Procedure = http.MethodPost
	Remove    = http.MethodDelete
)

// API client interface used by the endpoint helpers.
//
// 'method' is the HTTP method. 'path' is the URL path, relative to the API host. 'params' are query parameters (may be nil). 'bodyData' should be either 'nil', an [io.Reader], or a type which can be marshalled to JSON. 'out' is optional; if not nil it should be a pointer to a type which can be un-Marshaled as JSON, for the response body.
type RestClient interface {
	RestDo(ctx context.Context, method string, path string, params url.Values, bodyData any, out any) error
}
