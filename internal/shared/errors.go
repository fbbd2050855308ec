package shared

import "errors"

// Sentinel errors shared across the application. HTTP handlers map these to
// response codes via httpx.RespondError; services return them wrapped with
// context using fmt.Errorf("...: %w", Err...).
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input that fails type or schema validation.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateName indicates a unique-name collision.
	ErrDuplicateName = errors.New("name already in use")
	// ErrUnknownPermission indicates a reference to a permission outside the registry.
	ErrUnknownPermission = errors.New("unknown permission")
	// ErrInUse indicates a delete blocked by live references.
	ErrInUse = errors.New("record is referenced and cannot be deleted")
	// ErrForbidden indicates an access-guard denial.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when the CSRF token is absent.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
