package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Services return these (usually wrapped with fmt.Errorf and %w) so callers can
// classify a failure with errors.Is without depending on the layer that produced
// it. The API layer maps them to HTTP status codes; the session controller maps
// the completion kinds to a visible assistant message.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation could not be completed because
	// it conflicts with the current state of a resource.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrPermission signifies that the caller is not allowed to perform the
	// requested action (e.g. no credential has been stored yet).
	// This is typically mapped to a 403 Forbidden HTTP status.
	ErrPermission = errors.New("permission denied")

	// ErrInternal signifies an unexpected error. It is used to avoid leaking
	// implementation details to clients.
	ErrInternal = errors.New("internal server error")
)

// Completion and collaborator failures.
var (
	// ErrNetwork is a transport-level failure reaching the completion endpoint.
	ErrNetwork = errors.New("network error")

	// ErrEndpoint is a non-success HTTP status from the completion endpoint.
	ErrEndpoint = errors.New("endpoint error")

	// ErrStreamDecode marks a malformed streaming frame. It never leaves the
	// decoder: such frames are logged and skipped.
	ErrStreamDecode = errors.New("stream decode error")

	// ErrCollaboratorUnavailable means the page-extraction agent could not be
	// reached, even after re-injection. Callers degrade to "no page context".
	ErrCollaboratorUnavailable = errors.New("page agent unavailable")

	// ErrStorage is a failure of the persistence collaborator.
	ErrStorage = errors.New("storage error")

	// ErrTurnInProgress is returned when a turn is submitted while another
	// response is still pending for the same session.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrTurnInProgress = errors.New("a response is already pending")
)
