package shopify

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrThrottled means the retry budget was spent on 429 responses.
	ErrThrottled = errors.New("shopify: max retries exceeded due to rate limiting")
	// ErrTransport means the retry budget was spent on timeouts or connection failures.
	ErrTransport = errors.New("shopify: request failed after retries")

	ErrMissingCursor = errors.New("shopify: next page reported without an end cursor")
)

type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// APIError carries the GraphQL error list of an otherwise successful response.
type APIError struct {
	Errors []GraphQLError
}

func (e *APIError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msg := ge.Message
		if msg == "" {
			msg = "Unknown error"
		}
		messages = append(messages, msg)
	}
	return "GraphQL errors: " + strings.Join(messages, "; ")
}

// StatusError is a non-retryable HTTP status from the Admin API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shopify: unexpected status %d: %s", e.StatusCode, e.Body)
}
