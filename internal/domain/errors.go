package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingUnavailable signals a transport or quota failure while
	// talking to the embedding service.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrCompletionUnavailable signals a transport or quota failure while
	// talking to the completion service.
	ErrCompletionUnavailable = errors.New("completion service unavailable")

	// ErrIndexCorruption means a vector belonging to another tenant surfaced
	// inside a tenant's namespace. Serving for that tenant must halt.
	ErrIndexCorruption = errors.New("tenant index corruption detected")

	// ErrTenantHalted is returned for every operation against a tenant whose
	// namespace was halted after corruption was detected.
	ErrTenantHalted = errors.New("tenant serving halted")

	// ErrModelVersionMismatch is returned when an upserted vector was produced
	// by a different embedding model version than the namespace tracks.
	ErrModelVersionMismatch = errors.New("embedding model version mismatch")

	// ErrUnsupportedFormat is returned for document formats without an
	// extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	ErrDocumentNotFound     = errors.New("document not found")
	ErrChunkNotFound        = errors.New("chunk not found")
	ErrConversationNotFound = errors.New("conversation not found")
)

// RecoverableError is an agent failure the router may answer with a single
// reroute to the next-best agent. It is never surfaced raw to the caller.
type RecoverableError struct {
	Agent  string
	Reason string
	Err    error
}

func (e *RecoverableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Agent, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Agent, e.Reason)
}

func (e *RecoverableError) Unwrap() error { return e.Err }

// Recoverable wraps a failure reason as a RecoverableError.
func Recoverable(agent, reason string, err error) error {
	return &RecoverableError{Agent: agent, Reason: reason, Err: err}
}

// IsRecoverable reports whether err is (or wraps) a RecoverableError.
func IsRecoverable(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}
