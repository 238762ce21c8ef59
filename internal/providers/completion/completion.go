// Package completion holds clients for the external LLM completion services
// that produce the cloned document. Providers classify their failures so the
// generator can retry transport blips and fail fast on everything else.
package completion

import (
	"context"
	"errors"
	"fmt"
)

// Request is one completion call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completer is the contract every provider implements.
type Completer interface {
	// Complete sends the prompt and returns the raw completion text.
	Complete(ctx context.Context, req Request) (string, error)
}

// Error records which provider failed and whether the failure is transient
// (worth retrying with backoff) or permanent.
type Error struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s completion error: %v", e.Provider, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a provider error marked retryable.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Transient
}

// transientStatus reports whether an HTTP status from a completion service
// should be retried: request timeout, rate limiting, overload, and 5xx.
func transientStatus(status int) bool {
	switch {
	case status == 408, status == 429:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
