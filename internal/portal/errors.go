package portal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FetchError is returned for non-2xx responses and network failures.
// Status is 0 when no response was received.
type FetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the backend rejected the session.
func (e *FetchError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsUnauthorized reports whether err is a FetchError with status 401.
func IsUnauthorized(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Unauthorized()
}

// errorFromBody builds a FetchError from a failed response body.
// The message comes from JSON "message", then "error", then the raw text.
func errorFromBody(status int, body []byte) *FetchError {
	msg := ""
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = strings.TrimSpace(payload.Error)
		}
	} else {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed (%d)", status)
	}
	return &FetchError{Status: status, Message: msg}
}
