// Package httpx provides JSON response helpers using the platform envelope:
// {"success":true,"data":...} on success, {"success":false,"message":...} on
// failure.
package httpx

import (
	"encoding/json"
	"net/http"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON sends a raw JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a success envelope with the given payload.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, successEnvelope{Success: true, Data: data})
}

// Fail sends a failure envelope. Message should be safe for end users; the
// caller logs the underlying cause.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorEnvelope{Success: false, Message: message})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
