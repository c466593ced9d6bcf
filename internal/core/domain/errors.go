package domain

import "errors"

// Domain errors represent engine failures scoped to a single lookup.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested layer is not part of the stack.
	ErrNotFound = errors.New("not found")

	// ErrNodeNotFound indicates the requested path is absent from the composed stage.
	// It is a navigation error, never to be confused with an unauthored property.
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnsupportedType indicates a value type has no interpolation or hold rule.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDocumentUnavailable indicates the composed document could not be opened or read.
	// It is fatal for the session; the only recovery is a reload.
	ErrDocumentUnavailable = errors.New("document unavailable")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionClosed indicates the session has been closed.
	ErrSessionClosed = errors.New("session closed")
)
