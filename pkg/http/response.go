package http

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope used by every API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON envelope with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, resp Response) {
	WriteJSONValue(w, statusCode, resp)
}

// WriteJSONValue writes any value as JSON. Used for the few bare, non-envelope responses.
func WriteJSONValue(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Encoding errors are not exposed to the client
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a successful envelope
func WriteSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, Response{Success: true, Message: message, Data: data})
}

// WriteError writes a failed envelope
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, Response{Success: false, Message: message})
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func WriteLocked(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusLocked, message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

// WriteInternalError hides the cause; callers log it first
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "Server error")
}
