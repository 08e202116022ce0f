package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	app_errors "pagechat/backend/internal/errors"
	"pagechat/backend/internal/model"
)

// Storage keys. They match the ones the extension used in browser storage so
// an exported storage dump can be loaded as is.
const (
	ConversationsKey = "groq_conversations"
	CurrentIDKey     = "groq_current_conversation_id"
)

var _ Repository = (*ConversationStore)(nil)

// ConversationStore keeps the whole conversation mapping under a single key.
// Every mutation is a read-modify-write of that mapping; mu serializes them so
// writes land in call order and a stale read never overwrites a newer save.
type ConversationStore struct {
	kv  KVStore
	mu  sync.Mutex
	now func() time.Time
}

// NewConversationStore returns a Repository on top of kv.
func NewConversationStore(kv KVStore) *ConversationStore {
	return &ConversationStore{kv: kv, now: time.Now}
}

// WithClock replaces the time source used to stamp updated_at.
func (s *ConversationStore) WithClock(now func() time.Time) *ConversationStore {
	s.now = now
	return s
}

func (s *ConversationStore) List(ctx context.Context) (map[string]*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *ConversationStore) Get(ctx context.Context, id string) (*model.Conversation, error) {
	convs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	conv, ok := convs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conv, nil
}

// Save upserts conv by id. The store is authoritative for updated_at: it is
// stamped here, never earlier than the stored value, and written back to conv.
func (s *ConversationStore) Save(ctx context.Context, conv *model.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("%w: conversation id is required", app_errors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load(ctx)
	if err != nil {
		return err
	}
	stamp := s.now().UTC()
	if prev, ok := convs[conv.ID]; ok && stamp.Before(prev.UpdatedAt) {
		stamp = prev.UpdatedAt
	}
	stored := *conv
	stored.Messages = append([]model.Message(nil), conv.Messages...)
	stored.UpdatedAt = stamp
	convs[conv.ID] = &stored

	if err := s.store(ctx, convs); err != nil {
		return err
	}
	conv.UpdatedAt = stamp
	return nil
}

// Remove deletes the conversation. Removing an unknown id is a no-op.
func (s *ConversationStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := convs[id]; !ok {
		return nil
	}
	delete(convs, id)
	return s.store(ctx, convs)
}

// SetPinned changes only is_pinned. Unknown ids are ignored.
func (s *ConversationStore) SetPinned(ctx context.Context, id string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load(ctx)
	if err != nil {
		return err
	}
	conv, ok := convs[id]
	if !ok {
		return nil
	}
	conv.IsPinned = pinned
	return s.store(ctx, convs)
}

// GetCurrent returns the active conversation id, or "" when none is set.
func (s *ConversationStore) GetCurrent(ctx context.Context) (string, error) {
	val, err := s.kv.Get(ctx, CurrentIDKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: could not read current conversation: %v", app_errors.ErrStorage, err)
	}
	return string(val), nil
}

func (s *ConversationStore) SetCurrent(ctx context.Context, id string) error {
	if err := s.kv.Set(ctx, CurrentIDKey, []byte(id)); err != nil {
		return fmt.Errorf("%w: could not set current conversation: %v", app_errors.ErrStorage, err)
	}
	return nil
}

func (s *ConversationStore) ClearCurrent(ctx context.Context) error {
	if err := s.kv.Remove(ctx, CurrentIDKey); err != nil {
		return fmt.Errorf("%w: could not clear current conversation: %v", app_errors.ErrStorage, err)
	}
	return nil
}

// load reads the mapping. The caller must hold mu.
func (s *ConversationStore) load(ctx context.Context) (map[string]*model.Conversation, error) {
	data, err := s.kv.Get(ctx, ConversationsKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return make(map[string]*model.Conversation), nil
		}
		return nil, fmt.Errorf("%w: could not read conversations: %v", app_errors.ErrStorage, err)
	}
	convs := make(map[string]*model.Conversation)
	if len(data) == 0 {
		return convs, nil
	}
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, fmt.Errorf("%w: could not decode conversations: %v", app_errors.ErrStorage, err)
	}
	for id, conv := range convs {
		if conv == nil {
			delete(convs, id)
		}
	}
	return convs, nil
}

// store writes the mapping. The caller must hold mu.
func (s *ConversationStore) store(ctx context.Context, convs map[string]*model.Conversation) error {
	data, err := json.Marshal(convs)
	if err != nil {
		return fmt.Errorf("could not encode conversations: %w", err)
	}
	if err := s.kv.Set(ctx, ConversationsKey, data); err != nil {
		return fmt.Errorf("%w: could not write conversations: %v", app_errors.ErrStorage, err)
	}
	return nil
}
