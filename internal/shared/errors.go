package shared

import "errors"

// Failure taxonomy shared by all modules. Services wrap these with context via
// fmt.Errorf("…: %w", err); the HTTP layer maps them to status codes.
var (
	// ErrUnauthenticated indicates no authenticated principal on the request.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUnauthorized indicates the principal lacks the relationship or role
	// required for the attempted action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict indicates a uniqueness violation (duplicate title, name, email).
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing request fields.
	ErrValidation = errors.New("validation failed")
	// ErrInvariant indicates the mutation would break a structural invariant,
	// such as deleting a project that still has tasks.
	ErrInvariant = errors.New("invariant violation")

	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when the CSRF token is missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
