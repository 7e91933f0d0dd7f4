package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emberhall/hearth-core/internal/command"
	"github.com/emberhall/hearth-core/internal/hardware"
	"github.com/emberhall/hearth-core/internal/registry"
	"github.com/emberhall/hearth-core/internal/rules"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Suggestions lists close device-name matches on failed resolution.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Common error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeInternal    = "internal_error"
	ErrCodeValidation  = "validation_error"
	ErrCodeTimeout     = "operation_timed_out"
	ErrCodeFailed      = "operation_failed"
	ErrCodeNotWritable = "no_writable_capability"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDeviceNotFound writes a 404 carrying close-match suggestions for the
// failed query.
func (s *Server) writeDeviceNotFound(w http.ResponseWriter, query string) {
	writeJSON(w, http.StatusNotFound, Error{
		Status:      http.StatusNotFound,
		Code:        ErrCodeNotFound,
		Message:     "no device matches " + query,
		Suggestions: s.registry.Suggestions(query),
	})
}

// writeCommandError maps a core error onto an HTTP response. Every sentinel
// the registry, bridge, adapter, and rule engine return has a stable status
// and code so clients can branch without string matching.
func (s *Server) writeCommandError(w http.ResponseWriter, query string, err error) {
	switch {
	case errors.Is(err, registry.ErrDeviceNotFound):
		s.writeDeviceNotFound(w, query)
	case errors.Is(err, registry.ErrSceneNotFound):
		writeNotFound(w, "no scene matches "+query)
	case errors.Is(err, hardware.ErrNotWritable):
		writeError(w, http.StatusConflict, ErrCodeNotWritable, "device has no writable power channel")
	case errors.Is(err, command.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, "hardware did not respond in time")
	case errors.Is(err, command.ErrFailed):
		writeError(w, http.StatusBadGateway, ErrCodeFailed, err.Error())
	case errors.Is(err, rules.ErrRuleNotFound):
		writeNotFound(w, "rule not found")
	case errors.Is(err, rules.ErrInvalidRule), errors.Is(err, rules.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
