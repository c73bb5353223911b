package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error code. The HTTP layer maps kinds
// to status codes; message text is free to change, kinds are not.
type Kind string

const (
	KindAlreadyRegistered  Kind = "ALREADY_REGISTERED"
	KindCapacityExceeded   Kind = "CAPACITY_EXCEEDED"
	KindRegistrationClosed Kind = "REGISTRATION_CLOSED"
	KindCannotCancelPaid   Kind = "CANNOT_CANCEL_PAID"
	KindAlreadyOnTeam      Kind = "ALREADY_ON_TEAM"
	KindTeamFull           Kind = "TEAM_FULL"
	KindCannotRemoveLead   Kind = "CANNOT_REMOVE_LEAD"
	KindInvalidRole        Kind = "INVALID_ROLE"
	KindInvalidProgress    Kind = "INVALID_PROGRESS"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindNotFound           Kind = "NOT_FOUND"
	KindTimeout            Kind = "TIMEOUT"
)

// Error is a tagged failure returned by every core operation.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// E builds a tagged error.
func E(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// WrapStorage converts low-level storage failures into domain errors:
// deadline or cancellation becomes Timeout, a missing row becomes NotFound.
// Anything else passes through wrapped for the caller's logs.
func WrapStorage(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return E(KindTimeout, "%s timed out", what)
	case errors.Is(err, sql.ErrNoRows):
		return E(KindNotFound, "%s not found", what)
	default:
		var de *Error
		if errors.As(err, &de) {
			return err
		}
		return fmt.Errorf("%s: %w", what, err)
	}
}
