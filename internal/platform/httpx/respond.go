// Package httpx provides HTTP response utilities.
package httpx

import (
	"encoding/json"
	"net/http"
)

// MessageBody is the JSON envelope used for non-payload responses.
type MessageBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message sends a `{message}` body with the given status code.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageBody{Message: message})
}

// Failure sends a `{message, error}` body carrying the failure detail.
func Failure(w http.ResponseWriter, status int, message string, err error) {
	body := MessageBody{Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	JSON(w, status, body)
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
