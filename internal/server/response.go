// Package server provides the HTTP server, router, middleware, and JSON
// response helpers for Quarry.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quarrylabs/quarry-cms/internal/notify"
)

// PaginationMeta holds pagination metadata for list responses.
type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// successResponse wraps a single data item.
type successResponse struct {
	Data any `json:"data"`
}

// paginatedResponse wraps a list of data items with pagination metadata.
type paginatedResponse struct {
	Data any            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// errorBody is the inner structure of an error response.
type errorBody struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Details []notify.Notification `json:"details,omitempty"`
}

// errorResponse is the top-level error response envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

// JSON writes a JSON response with the given status code. The data is
// wrapped in a {"data": ...} envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Data: data})
}

// Error writes a JSON error response with the given status code, error code,
// message, and optional notification details.
func Error(w http.ResponseWriter, status int, code string, message string, details []notify.Notification) {
	writeJSON(w, status, errorResponse{
		Error: errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Paginated writes a JSON list response with pagination metadata.
func Paginated(w http.ResponseWriter, data any, meta PaginationMeta) {
	writeJSON(w, http.StatusOK, paginatedResponse{Data: data, Meta: meta})
}

// NotifyError translates a service error into an HTTP response. A
// *notify.Error with only client notifications becomes a 400 carrying every
// notification as a detail; anything server-severity (or a plain error)
// becomes a 500 with a generic body.
func NotifyError(w http.ResponseWriter, err error) {
	if nerr, ok := err.(*notify.Error); ok && !nerr.HasServer() {
		first := nerr.Notifications[0]
		status := http.StatusBadRequest
		if strings.HasSuffix(first.Code, "_NOT_FOUND") {
			status = http.StatusNotFound
		}
		Error(w, status, first.Code, first.Message, nerr.Notifications)
		return
	}
	slog.Error("operation failed", "error", err)
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
}

// writeJSON marshals v to JSON and writes it to the response writer.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// At this point headers are already sent, so we can only log.
		slog.Error("failed to encode JSON response", "error", err)
	}
}
