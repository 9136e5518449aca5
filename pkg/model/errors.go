package model

import (
	"errors"
	"fmt"
)

// ProviderError is a transient generation failure. It triggers fallback to
// the next provider in the chain and is never surfaced past the executor.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// NewProviderError creates a ProviderError.
func NewProviderError(provider string, statusCode int, message string) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: statusCode, Message: message}
}

// InvariantViolation signals a fatal scheduling bug: more than one active
// SubSegment, or a slate containing duplicate items. It propagates to the
// top-level fault handler and aborts the broadcast.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return "scheduling invariant violated: " + e.Detail
}

// Invariantf creates an InvariantViolation.
func Invariantf(format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Detail: fmt.Sprintf(format, args...)}
}

// Voting errors are user-facing and recoverable; a failed cast leaves the
// tally unchanged.
var (
	ErrDuplicateVote    = errors.New("identity has already voted in this session")
	ErrUnknownCandidate = errors.New("candidate is not part of this session")
	ErrSessionClosed    = errors.New("voting session is not open")
	ErrSessionOpen      = errors.New("a voting session is already open")
)
