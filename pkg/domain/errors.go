package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session id cannot be resolved.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConversationNotFound is returned when a conversation id cannot be
	// resolved.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrExtractorUnavailable is surfaced when the entity extraction
	// collaborator fails its health check before the acute-relief flow.
	ErrExtractorUnavailable = errors.New("entity extraction service unavailable")
)

// ValidationError marks malformed caller input. It is always recoverable
// locally and never mutates state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a caller-input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TreeConfigError marks a defect in a tree definition (unknown version,
// dangling node reference, rule list that matched nothing). It is kept
// distinct from ValidationError so operators can detect authoring bugs.
type TreeConfigError struct {
	Version string
	NodeID  string
	Reason  string
}

func (e *TreeConfigError) Error() string {
	msg := "tree configuration error"
	if e.Version != "" {
		msg += fmt.Sprintf(" [version %s]", e.Version)
	}
	if e.NodeID != "" {
		msg += fmt.Sprintf(" [node %s]", e.NodeID)
	}
	return msg + ": " + e.Reason
}

// IsTreeConfig reports whether err indicates a tree authoring defect.
func IsTreeConfig(err error) bool {
	var te *TreeConfigError
	return errors.As(err, &te)
}

// UpstreamError wraps a collaborator failure or malformed collaborator
// response. RawPayload carries the offending output for diagnosis.
type UpstreamError struct {
	Service    string
	RawPayload string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("upstream %s failed", e.Service)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err originated at a collaborator boundary.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
