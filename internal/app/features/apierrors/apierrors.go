// internal/app/features/apierrors/apierrors.go

// Package apierrors writes the JSON error envelope used by every API
// handler: {"error": "..."}. Internal detail goes to the logs, never to
// the client.
package apierrors

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

type envelope struct {
	Error string `json:"error"`
}

// Write sends a JSON error with the given status and client-safe message.
func Write(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: msg})
}

// BadRequest sends a 400 with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	Write(w, http.StatusBadRequest, msg)
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Write(w, http.StatusUnauthorized, "unauthorized")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "not found"
	}
	Write(w, http.StatusNotFound, msg)
}

// Conflict sends a 409 with the given message.
func Conflict(w http.ResponseWriter, msg string) {
	Write(w, http.StatusConflict, msg)
}

// TooManyRequests sends a 429 with the given message.
func TooManyRequests(w http.ResponseWriter, msg string) {
	Write(w, http.StatusTooManyRequests, msg)
}

// Internal logs the error and sends a generic 500. The client never
// sees the underlying message.
func Internal(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	if log != nil {
		log.Error(op, zap.Error(err))
	}
	Write(w, http.StatusInternalServerError, "internal error")
}

// WriteJSON sends any value as a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields
// and trailing data. Returns a client-safe error message on failure.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if dec.More() {
		return errors.New("invalid request body")
	}
	return nil
}
