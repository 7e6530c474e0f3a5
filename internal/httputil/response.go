package httputil

import (
	"encoding/json"
	"net/http"
)

// Error codes exposed to clients. UNAUTHENTICATED and NOT_PROVISIONED are
// deliberately distinct: the former is a security failure, the latter a
// legitimate first-contact state the client resolves by syncing the user.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeValidation      = "VALIDATION_FAILED"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeNotProvisioned  = "NOT_PROVISIONED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already sent; nothing useful left to do.
			return
		}
	}
}

// WriteError writes an error response in the standard envelope:
// {"error": {"code": "ERROR_CODE", "message": "Human readable message"}}
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteValidationFailed writes a 400 with the VALIDATION_FAILED code
func WriteValidationFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeValidation, message)
}

// WriteUnauthenticated writes a 401 Unauthenticated error
func WriteUnauthenticated(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthenticated, message)
}

// WriteUnauthenticatedWithCode writes a 401 with a custom code
func WriteUnauthenticatedWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusUnauthorized, code, message)
}

// WriteNotProvisioned writes a 403 with the NOT_PROVISIONED code
func WriteNotProvisioned(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeNotProvisioned, message)
}

// WriteForbidden writes a 403 Forbidden error
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteConflict writes a 409 Conflict error
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ErrCodeConflict, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}
