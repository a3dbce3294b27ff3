package api

import "net/http"

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusBadRequest, msg)
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusNotFound, msg)
}

// TokenRejected writes a 409 for an upload whose credential was refused
// even after a retry. The client may try again.
func TokenRejected(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusConflict, ErrorBody{Error: msg, Retryable: true})
}

// UnprocessableEntity writes a 422 error response.
func UnprocessableEntity(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusUnprocessableEntity, msg)
}

// TooLarge writes a 413 error response.
func TooLarge(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusRequestEntityTooLarge, msg)
}

// TooManyRequests writes a 429 error response.
func TooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	WriteError(w, http.StatusTooManyRequests, "Too many requests")
}

// BadGateway writes a 502 for failures of the CDN.
func BadGateway(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusBadGateway, msg)
}

// InternalError writes a 500 with a generic message. Callers log the cause.
func InternalError(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusInternalServerError, msg)
}
