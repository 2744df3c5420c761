package tracker

import (
	"fmt"
	"strings"
)

type AuthReason string

const (
	ReasonMissingToken     AuthReason = "missing token"
	ReasonInvalidToken     AuthReason = "invalid token"
	ReasonExpiredToken     AuthReason = "expired token"
	ReasonRoleMismatch     AuthReason = "role mismatch"
	ReasonUnknownIdentity  AuthReason = "unknown identity"
	ReasonInactiveIdentity AuthReason = "inactive identity"
)

// AuthError refuses admission. No session exists when it is returned.
type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string {
	return "authentication failed: " + string(e.Reason)
}

// Forbidden reports whether the caller is known but not allowed in.
func (e *AuthError) Forbidden() bool {
	return e.Reason == ReasonRoleMismatch || e.Reason == ReasonInactiveIdentity
}

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid or missing fields: " + strings.Join(e.Fields, ", ")
}

// PersistenceError is a failed store operation surfaced to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
