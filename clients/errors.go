package clients

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-2xx answer from the raffle API.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("raffle api returned %d: %s", e.Status, e.Message)
}

// AsAPIError unwraps err to an *APIError when there is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		Status:  status,
		Message: extractMessage(status, body),
		Body:    string(body),
	}
}

// extractMessage picks the human-readable part of an error body: a message
// or error field, then problem-details detail/title, then a bare JSON string,
// then the raw body. Only an empty body gets the generic text.
func extractMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Sprintf("request failed with status %d", status)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(trimmed, &fields); err == nil {
		for _, key := range []string{"message", "error", "detail", "title"} {
			if s, ok := fields[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil && strings.TrimSpace(s) != "" {
		return s
	}

	return string(trimmed)
}
