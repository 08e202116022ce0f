package interfaces

import (
	"context"

	"pagechat/backend/internal/llm"
	"pagechat/backend/internal/model"
	"pagechat/backend/internal/service"
)

// The API layer depends on these contracts instead of the concrete services,
// so handlers can be tested against mocks.

// ChatService is the session controller as seen by the transport layer.
type ChatService interface {
	Snapshot() service.Session
	StartNewSession(ctx context.Context) (string, error)
	LoadSession(ctx context.Context, id string) error
	SetDraft(text string, attachment *model.Attachment) error
	UpdateOptions(ctx context.Context, opts service.Settings) (service.Settings, error)
	SendTurn(ctx context.Context, req service.TurnRequest, onDelta llm.ChunkFunc) (*model.Message, error)
	RunQuickAction(ctx context.Context, action string, onDelta llm.ChunkFunc) (*model.Message, error)

	ListConversations(ctx context.Context) ([]model.ConversationSummary, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	PinConversation(ctx context.Context, id string, pinned bool) error
}

// ModelService serves the model catalog.
type ModelService interface {
	List(ctx context.Context, apiKey string) []llm.ModelDescriptor
}

// SettingsService manages the stored credential and options.
type SettingsService interface {
	Get(ctx context.Context) (*service.Settings, error)
	APIKey(ctx context.Context) (string, error)
	SaveAPIKey(ctx context.Context, key string) error
}

var (
	_ ChatService     = (*service.ChatService)(nil)
	_ ModelService    = (*service.ModelService)(nil)
	_ SettingsService = (*service.SettingsService)(nil)
)
