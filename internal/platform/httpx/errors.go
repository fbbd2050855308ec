package httpx

import (
	"errors"
	"net/http"

	"github.com/lanhub-app/lanhub/internal/shared"
)

// RespondError maps shared sentinel errors to RFC7807 responses. Anything
// unrecognised becomes an opaque 500 so internals never leak to clients.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateName):
		Problem(w, http.StatusConflict, "Duplicate Name", err.Error())
	case errors.Is(err, shared.ErrInUse):
		Problem(w, http.StatusConflict, "In Use", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrUnknownPermission):
		Problem(w, http.StatusBadRequest, "Unknown Permission", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
