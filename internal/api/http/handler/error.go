package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/blogauth-server/internal/logger"
	"github.com/dtroode/blogauth-server/internal/model"
	"github.com/dtroode/blogauth-server/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFieldErrors(w http.ResponseWriter, errs ...validation.FieldError) {
	writeJSON(w, http.StatusBadRequest, errorsResponse{ErrorsMessages: errs})
}

// decode reads a JSON body into dst. On failure it writes a 400 response.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeFieldErrors(w, validation.FieldError{Message: "request body must be a JSON object", Field: "body"})
		return false
	}
	return true
}

// handleError maps domain errors to HTTP responses. Unknown errors become a
// bare 500 and are logged.
func handleError(w http.ResponseWriter, err error, logger *logger.Logger) {
	switch {
	case errors.Is(err, model.ErrDuplicateLogin):
		writeFieldErrors(w, validation.FieldError{Message: "login already exists", Field: "login"})
	case errors.Is(err, model.ErrDuplicateEmail):
		writeFieldErrors(w, validation.FieldError{Message: "email already exists", Field: "email"})
	case errors.Is(err, model.ErrInvalidCode):
		writeFieldErrors(w, validation.FieldError{Message: "code is incorrect, expired or already applied", Field: "code"})
	case errors.Is(err, model.ErrConfirmationRejected):
		writeFieldErrors(w, validation.FieldError{Message: "email is already confirmed or does not exist", Field: "email"})
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, model.ErrUnauthorized):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, model.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
	case errors.Is(err, model.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	default:
		logger.Error("HTTP handler: internal error",
			"error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
	}
}
