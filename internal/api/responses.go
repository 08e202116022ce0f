package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "pagechat/backend/internal/errors"
	"pagechat/backend/internal/model"
	"pagechat/backend/internal/service"
)

// This file contains shared DTOs (Data Transfer Objects) for API requests and
// responses, and helper functions for sending consistent HTTP responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse defines a generic success response for operations that
// don't need to return a full resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// AttachmentRequest is an image attached to a message, as a base64 data URL.
type AttachmentRequest struct {
	DataURL string `json:"data_url" validate:"required,datauri" example:"data:image/png;base64,iVBORw0KGgo="`
}

func (a *AttachmentRequest) toModel() *model.Attachment {
	if a == nil {
		return nil
	}
	return &model.Attachment{DataURL: a.DataURL}
}

// SendMessageRequest is the body of POST /session/messages. Omitted text or
// attachment fall back to the session draft.
type SendMessageRequest struct {
	Text           *string            `json:"text,omitempty" validate:"omitempty,max=100000" example:"What is this page about?"`
	Attachment     *AttachmentRequest `json:"attachment,omitempty"`
	IncludeContext bool               `json:"include_context"`
}

// DraftRequest replaces the session draft.
type DraftRequest struct {
	Text       string             `json:"text" validate:"max=100000"`
	Attachment *AttachmentRequest `json:"attachment,omitempty"`
}

// OptionsRequest updates the session options.
type OptionsRequest struct {
	Model          string `json:"model" validate:"required" example:"openai/gpt-oss-120b"`
	ResponseLength string `json:"response_length" validate:"required,oneof=short medium long" example:"medium"`
	IncludeContext bool   `json:"include_context"`
}

// PinRequest sets the pin state of a conversation.
type PinRequest struct {
	Pinned *bool `json:"pinned" validate:"required"`
}

// APIKeyRequest stores the bearer credential for the completion endpoint.
type APIKeyRequest struct {
	APIKey string `json:"api_key" validate:"required" example:"gsk_..."`
}

// SessionCreatedResponse is returned when a new session is started.
type SessionCreatedResponse struct {
	ID string `json:"id"`
}

// SettingsResponse reports whether a key is stored (never the key itself)
// and the saved options.
type SettingsResponse struct {
	HasAPIKey bool              `json:"has_api_key"`
	Options   *service.Settings `json:"options,omitempty"`
}

// errorStatus maps business-layer errors to an HTTP status code and a message
// that is safe to show to the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		return http.StatusNotFound, "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation):
		// Validation messages are already descriptive and user-friendly.
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, app_errors.ErrTurnInProgress):
		return http.StatusConflict, "A response is still being generated."
	case errors.Is(err, app_errors.ErrConflict):
		return http.StatusConflict, "A conflict occurred with the current state of the resource."
	case errors.Is(err, app_errors.ErrPermission):
		return http.StatusForbidden, "An API key must be saved before chatting."
	case errors.Is(err, app_errors.ErrEndpoint), errors.Is(err, app_errors.ErrNetwork):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.Canceled):
		return http.StatusConflict, "The response was discarded because the session changed."
	case errors.Is(err, app_errors.ErrStorage):
		return http.StatusInternalServerError, "Conversation storage is unavailable."
	default:
		// Never leak implementation details of unexpected errors.
		return http.StatusInternalServerError, "An unexpected internal server error occurred."
	}
}

// respondWithError is the centralized error handling function for the API layer.
func respondWithError(w http.ResponseWriter, err error) {
	statusCode, message := errorStatus(err)
	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)
	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithJSON marshals payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// sendStreamError sends a structured error message over a Server-Sent Events
// stream as an `event: error` frame.
func sendStreamError(w http.ResponseWriter, message string) {
	slog.Warn("Sending stream error to client", "message", message)
	jsonData, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		slog.Error("Failed to marshal stream error payload", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: error\ndata: %s\n\n", string(jsonData)); err != nil {
		// Usually the client closed the connection.
		slog.Warn("Failed to write stream error, client might have disconnected", "error", err)
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// writeStreamEvent marshals data and writes it as one SSE data frame. A
// write error means the client has gone away.
func writeStreamEvent(w http.ResponseWriter, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data to JSON", "error", err)
		return nil
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(jsonData)); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
