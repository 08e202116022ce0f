package repository

import (
	"context"

	"pagechat/backend/internal/model"
)

// KVStore is the persistence collaborator: a flat key-value capability.
// Get returns ErrNotFound for an absent key; Remove of an absent key is not an
// error.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Repository defines the conversation persistence operations.
// This interface makes it easy to switch the backing store.
type Repository interface {
	List(ctx context.Context) (map[string]*model.Conversation, error)
	Get(ctx context.Context, id string) (*model.Conversation, error)
	Save(ctx context.Context, conv *model.Conversation) error
	Remove(ctx context.Context, id string) error
	SetPinned(ctx context.Context, id string, pinned bool) error

	GetCurrent(ctx context.Context) (string, error)
	SetCurrent(ctx context.Context, id string) error
	ClearCurrent(ctx context.Context) error
}
