package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ErrMissingID is returned when a create call succeeds without saying what
// it created.
var ErrMissingID = errors.New("gateway returned no id")

// APIError is a non-2xx answer from the gateway. Message is what the
// backend said, suitable for showing next to a form.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Message: messageOf(resp.StatusCode(), resp.Body())}
	}
	return nil
}

// messageOf extracts a human readable message from an error body. The
// backend answers with plain text, a JSON string or a JSON object.
func messageOf(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}

	var asString string
	if err := json.Unmarshal(body, &asString); err == nil && asString != "" {
		return asString
	}

	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if v, ok := asObject[key].(string); ok && v != "" {
				return v
			}
		}
		return http.StatusText(status)
	}
	return text
}
