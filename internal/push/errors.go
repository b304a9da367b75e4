package push

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized marks credential acquisition failure. It fails the
// whole fan-out invocation, unlike per-target delivery errors.
var ErrUnauthorized = errors.New("push gateway authorization failed")

// GatewayError is a per-target delivery failure.
type GatewayError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *GatewayError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "push gateway error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *GatewayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
