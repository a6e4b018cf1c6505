// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to HTTP status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	data       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.data != nil {
		if err := json.NewEncoder(w).Encode(b.data); err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorResponse creates an error response with a machine-readable code.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(errorBody{Error: message, Code: code})
}

var validationErrors = []struct {
	err  error
	code string
}{
	{core.ErrInvalidDate, "invalid_date"},
	{core.ErrInvalidRule, "invalid_rule"},
	{core.ErrInvalidInstallmentCount, "invalid_installment_count"},
	{core.ErrInvalidAmount, "invalid_amount"},
	{core.ErrInvalidCard, "invalid_card"},
	{core.ErrEmptyDescription, "invalid_description"},
	{core.ErrDescriptionLong, "invalid_description"},
	{services.ErrAmbiguousAmount, "invalid_amount"},
}

// responseForError maps an error to its status code and error code.
func responseForError(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, storage.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	}
	for _, v := range validationErrors {
		if errors.Is(err, v.err) {
			return http.StatusUnprocessableEntity, v.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeError writes err as JSON. Internal errors are logged and their text hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := responseForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, operationFor(r), nil)
		msg = "internal error"
	}
	ErrorResponse(status, code, msg).Write(w)
}

// operationFor names the operation a request performs, for error logs.
func operationFor(r *http.Request) string {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/preview/"):
		return applog.OpPreview
	case strings.HasSuffix(r.URL.Path, "/paid"), r.Method == http.MethodPut:
		return applog.OpUpdate
	case r.Method == http.MethodGet:
		return applog.OpList
	default:
		return applog.OpCreate
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}
