package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// Matches any [APIError] with HTTP status 401. The bearer credential has already been cleared when this is returned.
	ErrUnauthorized = errors.New("unauthorized")

	// Matches any [APIError] with HTTP status 404.
	ErrNotFound = errors.New("not found")
)

type APIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (ae *APIError) Error() string {
	if ae.StatusCode > 0 {
		if ae.Name != "" && ae.Message != "" {
			return fmt.Sprintf("API request failed (HTTP %d): %s: %s", ae.StatusCode, ae.Name, ae.Message)
		} else if ae.Name != "" {
			return fmt.Sprintf("API request failed (HTTP %d): %s", ae.StatusCode, ae.Name)
		} else if ae.Message != "" {
			return fmt.Sprintf("API request failed (HTTP %d): %s", ae.StatusCode, ae.Message)
		}
		return fmt.Sprintf("API request failed (HTTP %d)", ae.StatusCode)
	}
	return "API request failed"
}

func (ae *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return ae.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return ae.StatusCode == http.StatusNotFound
	}
	return false
}

// Temporary reports whether retrying the same request later could succeed.
func (ae *APIError) Temporary() bool {
	return ae.StatusCode == http.StatusTooManyRequests || ae.StatusCode >= 500
}

type ErrorBody struct {
	Name    string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (eb *ErrorBody) APIError(statusCode int) error {
	return &APIError{
		StatusCode: statusCode,
		Name:       eb.Name,
		Message:    eb.Message,
	}
}

// the body may be JSON, plain text, or empty; only JSON bodies contribute a name and message
func errorFromResponse(resp *http.Response) error {
	var eb ErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&eb); err != nil {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return eb.APIError(resp.StatusCode)
}
