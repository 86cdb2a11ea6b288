package api

import (
	"errors"
	"fmt"
)

// Kind classifies an API failure.
type Kind int

const (
	// KindAuth covers bad credentials and rejected tokens.
	KindAuth Kind = iota
	// KindValidation covers malformed fields (e.g. empty title).
	KindValidation
	// KindNotFound covers operations on ids not owned by the session.
	KindNotFound
	// KindConflict covers duplicate registration.
	KindConflict
	// KindNetwork covers transport failures, timeouts and unexpected
	// server responses.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is a structured API failure. Status is the HTTP status code, or 0
// for transport-level failures. Detail carries the server's "detail"
// message when one was returned.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s error: status %d", e.Kind, e.Status)
	default:
		return fmt.Sprintf("%s error", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsConflict reports whether err is a conflict failure.
func IsConflict(err error) bool { return isKind(err, KindConflict) }

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool { return isKind(err, KindNetwork) }

func isKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
