package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common error types
var (
	ErrNetwork          = errors.New("network error occurred")
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("conflict")
	ErrRateLimited      = errors.New("rate limited")
	ErrServerError      = errors.New("server error")
	ErrInvalidResponse  = errors.New("invalid upstream response")
)

// Error is a failed Notion API call. Code and Message are filled from the
// Notion error body when it could be decoded.
type Error struct {
	Status  int
	Code    string
	Message string

	sentinel error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Unwrap().Error())
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	fmt.Fprintf(&b, " (status code: %d)", e.Status)
	return b.String()
}

// Unwrap lets callers match the status class with errors.Is.
func (e *Error) Unwrap() error {
	if e.sentinel == nil {
		return sentinelFor(e.Status)
	}
	return e.sentinel
}

// apiErrorBody is the JSON body Notion returns on failure.
type apiErrorBody struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newError(status int, body []byte) *Error {
	e := &Error{Status: status, sentinel: sentinelFor(status)}

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Object == "error" {
		e.Code = parsed.Code
		e.Message = parsed.Message
	} else if msg := strings.TrimSpace(string(body)); msg != "" {
		e.Message = msg
	}

	return e
}

func sentinelFor(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrServerError
	}
}

// ErrorDetails extracts the optional diagnostic fields from a failed call.
// Code is only known for errors reported by the Notion API itself; any other
// error contributes its text as the message.
func ErrorDetails(err error) (message, code string) {
	if err == nil {
		return "", ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message, apiErr.Code
	}
	return err.Error(), ""
}
