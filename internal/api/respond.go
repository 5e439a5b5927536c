package api

import (
	"log"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigFastest

// Envelope is the uniform response contract shared by every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type Meta struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source,omitempty"`
}

func newMeta(source string) *Meta {
	return &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    source,
	}
}

func writeJSON(w http.ResponseWriter, status int, body Envelope, logger *log.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := codec.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Printf("failed to encode response: %v", err)
	}
}

func respondOK(w http.ResponseWriter, data any, source string, logger *log.Logger) {
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta:    newMeta(source),
	}, logger)
}

func respondError(w http.ResponseWriter, status int, message string, logger *log.Logger) {
	writeJSON(w, status, Envelope{
		Success: false,
		Data:    nil,
		Error:   message,
	}, logger)
}

func respondValidation(w http.ResponseWriter, details []FieldError, logger *log.Logger) {
	writeJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Data:    nil,
		Error:   "Validation error",
		Details: details,
	}, logger)
}
