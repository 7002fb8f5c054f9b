package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrTimeout indicates the provider did not answer within the request timeout.
	ErrTimeout = errors.New("quote provider timed out")
	// ErrUnreachable indicates a transport-level failure reaching the provider.
	ErrUnreachable = errors.New("quote provider unreachable")
	// ErrSchemaMismatch indicates a response without the expected key or fields.
	ErrSchemaMismatch = errors.New("unexpected quote provider response")
)

// StatusError is returned when the provider answers with a non-success status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("quote provider error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("quote provider error (%d)", e.StatusCode)
}

// Kind returns a stable label for a fetch error, used in logs and metrics.
func Kind(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	case errors.As(err, &statusErr):
		return "http_status"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema"
	default:
		return "unknown"
	}
}

func classifyTransport(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return &StatusError{StatusCode: status, Message: apiErr.Message}
		}
		if apiErr.Code != "" {
			return &StatusError{StatusCode: status, Message: apiErr.Code}
		}
	}
	return &StatusError{StatusCode: status, Message: strings.TrimSpace(string(payload))}
}
