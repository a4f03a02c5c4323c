package api

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

var ErrNotFound = errors.New("requested item not found")
var ErrConflict = errors.New("item already exists or conflict")
var ErrUnauthenticated = errors.New("authentication required or invalid credentials")
var ErrForbidden = errors.New("action forbidden")
var ErrBadRequest = errors.New("invalid request")

// ErrorResponse is the uniform error envelope returned by every endpoint.
type ErrorResponse struct {
	Timestamp time.Time    `json:"timestamp"`
	Status    int          `json:"status"`
	Error     string       `json:"error"`
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Path      string       `json:"path"`
	Details   []FieldError `json:"details,omitempty"`
}

// FieldError carries a single field-validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorWithCode writes the error envelope with an explicit status and code.
func ErrorWithCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeErrorEnvelope(w, r, status, code, message, nil)
}

// ValidationError writes a 400 envelope carrying per-field details.
func ValidationError(w http.ResponseWriter, r *http.Request, details []FieldError) {
	writeErrorEnvelope(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
}

// RespondError maps a service error to the envelope. Unexpected errors become
// a generic 500 so internals never leak to the client.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeErrorEnvelope(w, r, http.StatusBadRequest, "BAD_REQUEST", rootMessage(err, "Invalid request"), nil)
	case errors.Is(err, ErrUnauthenticated):
		writeErrorEnvelope(w, r, http.StatusUnauthorized, "AUTH_UNAUTHORIZED", rootMessage(err, "Unauthorized"), nil)
	case errors.Is(err, ErrForbidden):
		writeErrorEnvelope(w, r, http.StatusForbidden, "ACCESS_DENIED", rootMessage(err, "Access denied"), nil)
	case errors.Is(err, ErrNotFound):
		writeErrorEnvelope(w, r, http.StatusNotFound, "NOT_FOUND", rootMessage(err, "Not found"), nil)
	case errors.Is(err, ErrConflict):
		writeErrorEnvelope(w, r, http.StatusConflict, "RESOURCE_ALREADY_EXISTS", rootMessage(err, "Conflict"), nil)
	default:
		writeErrorEnvelope(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error occurred", nil)
	}
}

// rootMessage strips the sentinel suffix added by fmt.Errorf("msg: %w", sentinel)
// so clients see the human message, not the wrapped chain.
func rootMessage(err error, fallback string) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrBadRequest, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict} {
		if msg == sentinel.Error() {
			return fallback
		}
		if trimmed, ok := strings.CutSuffix(msg, ": "+sentinel.Error()); ok {
			return trimmed
		}
	}
	if msg == "" {
		return fallback
	}
	return msg
}

func writeErrorEnvelope(w http.ResponseWriter, r *http.Request, status int, code, message string, details []FieldError) {
	resp := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Code:      code,
		Message:   message,
		Path:      r.URL.Path,
		Details:   details,
	}
	WriteJSONResponse(w, r, status, resp)
}
