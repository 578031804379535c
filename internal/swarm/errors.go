package swarm

import (
	"errors"
	"fmt"
)

// Kind classifies a programmer error or context-derivation failure raised
// synchronously from the public API, as distinct from a recovered
// SubAgentResult outcome.
type Kind int

const (
	KindNamingConflict Kind = iota
	KindUnknownAgent
	KindInvalidConfig
	KindContextDerivation
)

func (k Kind) String() string {
	switch k {
	case KindNamingConflict:
		return "naming_conflict"
	case KindUnknownAgent:
		return "unknown_agent"
	case KindInvalidConfig:
		return "invalid_config"
	case KindContextDerivation:
		return "context_derivation"
	default:
		return "unknown"
	}
}

// Error is the typed error raised for cases 4 and 5 of the error taxonomy:
// naming conflicts, unknown targets, invalid configuration, and
// context-derivation failures. It wraps an underlying cause where one
// exists, so errors.Is/errors.As work against both the Kind and the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs an Error with no wrapped cause.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var swarmErr *Error
	if !errors.As(err, &swarmErr) {
		return false
	}
	return swarmErr.Kind == kind
}
