package domain

import "fmt"

// Typed errors returned by services and stores. Handlers map each one to a
// status code; anything else is a 500.

// ErrNotFound means the resource does not exist for the requesting user.
// Records owned by someone else are reported the same way.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ErrExternalService wraps a failed call to the storage backend.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error { return e.Err }

// ErrCircuitOpen is returned without touching the backend while its
// breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("%s temporarily unavailable (circuit open)", e.Service)
}

// ErrValidation rejects a single input field.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// ErrConflict reports a duplicate, such as an email that is already registered.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string { return e.Message }
