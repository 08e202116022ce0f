package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pagechat/backend/internal/interfaces"
	"pagechat/backend/internal/llm"
	"pagechat/backend/internal/model"
	"pagechat/backend/internal/service"
)

// ChatHandler serves the active session and the conversation history.
type ChatHandler struct {
	service interfaces.ChatService
}

func NewChatHandler(svc interfaces.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// GetSession godoc
// @Summary      Get the active session
// @Description  Returns the transcript, draft, options and pending flag of the open conversation.
// @Tags         Session
// @Produce      json
// @Success      200  {object}  service.Session
// @Router       /v1/session [get]
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Snapshot())
}

// StartSession godoc
// @Summary      Start a new session
// @Description  Opens a fresh, empty conversation. A response still streaming for the previous one is discarded.
// @Tags         Session
// @Produce      json
// @Success      201  {object}  SessionCreatedResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/session [post]
func (h *ChatHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.StartNewSession(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, SessionCreatedResponse{ID: id})
}

// UpdateDraft godoc
// @Summary      Update the draft
// @Description  Replaces the unsent text and attachment of the active session.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        draft  body      DraftRequest  true  "Draft"
// @Success      200    {object}  service.Session
// @Failure      400    {object}  ErrorResponse
// @Router       /v1/session/draft [put]
func (h *ChatHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.SetDraft(req.Text, req.Attachment.toModel()); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.Snapshot())
}

// UpdateOptions godoc
// @Summary      Update session options
// @Description  Changes the model, the response length and the page-context toggle. Switching models drops an attached image.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        options  body      OptionsRequest  true  "Options"
// @Success      200      {object}  service.Settings
// @Failure      400      {object}  ErrorResponse
// @Router       /v1/session/options [put]
func (h *ChatHandler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	var req OptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	opts, err := h.service.UpdateOptions(r.Context(), service.Settings{
		Model:          req.Model,
		ResponseLength: service.ResponseLength(req.ResponseLength),
		IncludeContext: req.IncludeContext,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, opts)
}

// HandleSendMessage godoc
// @Summary      Send a message
// @Description  Sends a user turn and streams the reply as Server-Sent Events: one `{"delta"}` frame per fragment, then `{"done":true,"message"}`.
// @Tags         Session
// @Accept       json
// @Produce      text/event-stream
// @Param        message  body      SendMessageRequest  true  "Message"
// @Success      200      {object}  model.StreamResponse  "Stream of deltas"
// @Failure      400      {object}  ErrorResponse         "Sent as a stream error event"
// @Router       /v1/session/messages [post]
func (h *ChatHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body", "error", err)
		sendStreamError(w, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		_, message := errorStatus(err)
		sendStreamError(w, message)
		return
	}

	turn := service.TurnRequest{
		Text:           req.Text,
		Attachment:     req.Attachment.toModel(),
		IncludeContext: req.IncludeContext,
	}
	h.stream(w, r, func(onDelta llm.ChunkFunc) (*model.Message, error) {
		return h.service.SendTurn(r.Context(), turn, onDelta)
	})
}

// HandleQuickAction godoc
// @Summary      Run a quick action
// @Description  Sends a canned prompt about the current page (summarize, explain, key_points) with page context, streaming the reply like /session/messages.
// @Tags         Session
// @Produce      text/event-stream
// @Param        action  path      string                true  "Quick action"  Enums(summarize, explain, key_points)
// @Success      200     {object}  model.StreamResponse  "Stream of deltas"
// @Failure      400     {object}  ErrorResponse         "Sent as a stream error event"
// @Router       /v1/session/quick-actions/{action} [post]
func (h *ChatHandler) HandleQuickAction(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)
	action := chi.URLParam(r, "action")
	h.stream(w, r, func(onDelta llm.ChunkFunc) (*model.Message, error) {
		return h.service.RunQuickAction(r.Context(), action, onDelta)
	})
}

// stream runs one turn, forwarding deltas as SSE frames and closing with the
// final message or an error event.
func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request, run func(llm.ChunkFunc) (*model.Message, error)) {
	clientGone := false
	onDelta := func(delta string) {
		if clientGone {
			return
		}
		if err := writeStreamEvent(w, model.StreamResponse{Delta: delta}); err != nil {
			slog.Warn("Could not write to stream, client likely disconnected.", "error", err)
			clientGone = true
		}
	}

	msg, err := run(onDelta)
	if err != nil {
		if r.Context().Err() != nil {
			slog.Info("Client disconnected.")
			return
		}
		_, message := errorStatus(err)
		sendStreamError(w, message)
		return
	}

	final := model.StreamResponse{Done: true, Message: msg}
	if msg.IsError {
		final.Error = msg.Content.PlainText()
	}
	if err := writeStreamEvent(w, final); err != nil {
		slog.Warn("Could not write final stream event.", "error", err)
		return
	}
	slog.Info("Finished streaming response.")
}

// ListConversations godoc
// @Summary      List conversations
// @Description  Returns the history list, pinned conversations first and then the most recently updated.
// @Tags         Conversations
// @Produce      json
// @Success      200  {array}   model.ConversationSummary
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations [get]
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListConversations(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// GetConversation godoc
// @Summary      Get a conversation
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  model.Conversation
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{id} [get]
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.service.GetConversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conv)
}

// LoadConversation godoc
// @Summary      Open a conversation
// @Description  Makes a stored conversation the active session.
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  service.Session
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{id}/load [post]
func (h *ChatHandler) LoadConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LoadSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.Snapshot())
}

// PinConversation godoc
// @Summary      Pin or unpin a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        id   path      string      true  "Conversation ID"
// @Param        pin  body      PinRequest  true  "Pin state"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{id}/pin [put]
func (h *ChatHandler) PinConversation(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.PinConversation(r.Context(), chi.URLParam(r, "id"), *req.Pinned); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// DeleteConversation godoc
// @Summary      Delete a conversation
// @Description  Deleting the active conversation starts a new session.
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations/{id} [delete]
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteConversation(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
