// Package httpx defines the JSON error envelope every handler writes.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	requestctx "github.com/simple-store/api/internal/platform/requestctx"
)

const (
	codeLimit      = 80
	messageLimit   = 512
	requestIDLimit = 80
	traceIDLimit   = 64
)

// Error is the API error envelope. Values are immutable; the With* methods
// return modified copies so a shared sentinel stays safe to decorate.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
	TraceID   string
	Details   map[string]any
}

// NewError builds an envelope with a sanitized code and message. A zero
// status becomes 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    clamp(code, codeLimit),
		Message: clamp(message, messageLimit),
		Status:  status,
	}
}

// WithRequestID returns a copy tagged with the request id.
func (e Error) WithRequestID(id string) Error {
	e.RequestID = clamp(id, requestIDLimit)
	return e
}

// WithTraceID returns a copy tagged with the trace id.
func (e Error) WithTraceID(id string) Error {
	e.TraceID = clamp(id, traceIDLimit)
	return e
}

// WithDetails returns a copy carrying extra payload fields. The map is
// copied so later mutation of the argument cannot leak in.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	copied := make(map[string]any, len(details))
	for key, value := range details {
		copied[key] = value
	}
	e.Details = copied
	return e
}

// WriteError renders the envelope as JSON. Missing request and trace ids are
// filled from the context before writing.
func WriteError(ctx context.Context, w http.ResponseWriter, apiErr Error) {
	if apiErr.Status == 0 {
		apiErr.Status = http.StatusInternalServerError
	}
	if apiErr.RequestID == "" {
		apiErr.RequestID = clamp(middleware.GetReqID(ctx), requestIDLimit)
	}
	if apiErr.TraceID == "" {
		apiErr.TraceID = clamp(requestctx.TraceID(ctx), traceIDLimit)
	}

	payload := map[string]any{
		"error":   apiErr.Code,
		"message": apiErr.Message,
		"status":  apiErr.Status,
	}
	if apiErr.RequestID != "" {
		payload["request_id"] = apiErr.RequestID
	}
	if apiErr.TraceID != "" {
		payload["trace_id"] = apiErr.TraceID
	}
	for key, value := range apiErr.Details {
		if _, reserved := payload[key]; reserved {
			continue
		}
		payload[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(payload)
}

// clamp strips newlines, trims whitespace, and caps the length so log and
// payload fields stay single-line.
func clamp(value string, limit int) string {
	replacer := strings.NewReplacer("\n", " ", "\r", " ")
	value = strings.TrimSpace(replacer.Replace(value))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
