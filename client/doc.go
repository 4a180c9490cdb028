/*
General-purpose client for the unrot backend HTTP API.

[APIClient] wraps an [http.Client] and provides an ergonomic JSON interface for GET, POST and DELETE endpoints. The client is expected to be used with a single host at a time. The client does not authenticate requests by default, but supports pluggable authentication methods through the [AuthMethod] interface. The [APIRequest] struct represents a generic API request, and helps with conversion to an [http.Request].

The [APIError] struct represents a generic API error response (eg, an HTTP response with a 4xx or 5xx response code), including the 'error' and 'message' JSON response fields. It is intended to be used with [errors.Is] in error handling (see [ErrUnauthorized]), or to provide helpful error messages.

[BearerAuth] is the only auth method the backend supports: an opaque bearer token, read from a [tokenstore.Store] on every request. When any response comes back with HTTP 401, the stored token is cleared and the configured unauthorized handler is called. This is the one error class which ends the current session; callers are expected to tear down session state in the handler.

## Design Notes

Requests should be "retryable" as often as possible, since the default [http.Client] from [util.RobustHTTPClient] retries on 5xx and 429 responses. The [http.Client] will attempt to "unclose" some common [io.ReadCloser] types (like [bytes.Buffer]), and this package makes types implementing [io.Seeker] retryable through [APIRequest.GetBody].
*/
package client
