// Package httpx provides HTTP response utilities shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the JSON response wrapper used by every API endpoint.
type Envelope struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message,omitempty"`
	Data               any      `json:"data,omitempty"`
	Meta               any      `json:"meta,omitempty"`
	MissingPermissions []string `json:"missingPermissions,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a success envelope with payload data.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

// OKWithMeta sends a success envelope with payload data and listing metadata.
func OKWithMeta(w http.ResponseWriter, status int, data, meta any) {
	JSON(w, status, Envelope{Success: true, Data: data, Meta: meta})
}

// Fail sends a failure envelope.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// FailWithMissing sends a 403 failure envelope enumerating the permissions
// the caller lacks. Permission names are not secret, so listing them helps
// API consumers correct their role setup.
func FailWithMissing(w http.ResponseWriter, message string, missing []string) {
	JSON(w, http.StatusForbidden, Envelope{Success: false, Message: message, MissingPermissions: missing})
}

// DecodeJSON decodes a JSON request body into the target struct. Unknown
// fields are rejected so client typos surface as 400s instead of silently
// dropped settings.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
