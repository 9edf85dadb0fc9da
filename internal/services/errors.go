package services

// Typed service errors. Handlers map these onto HTTP status codes; the
// services themselves only care about the category.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// InvalidStateError marks a lifecycle transition that is not legal from the
// session's current state, e.g. pausing an already-paused session.
type InvalidStateError struct{ Message string }

func (e *InvalidStateError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }
