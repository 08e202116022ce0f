package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	app_errors "pagechat/backend/internal/errors"
	"pagechat/backend/internal/repository"
)

// Keys under which settings live in the KV store.
const (
	apiKeyKey   = "groq_api_key"
	settingsKey = "groq_settings"
)

// ResponseLength selects how verbose answers should be.
type ResponseLength string

const (
	LengthShort  ResponseLength = "short"
	LengthMedium ResponseLength = "medium"
	LengthLong   ResponseLength = "long"
)

// Valid reports whether l is one of the known lengths.
func (l ResponseLength) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// Settings are the persisted session options.
type Settings struct {
	Model          string         `json:"model"`
	ResponseLength ResponseLength `json:"response_length"`
	IncludeContext bool           `json:"include_context"`
}

type SettingsService struct {
	kv repository.KVStore
}

func NewSettingsService(kv repository.KVStore) *SettingsService {
	return &SettingsService{kv: kv}
}

// InitAndGet returns the stored settings, saving defaults first when nothing
// has been stored yet. A non-empty seedAPIKey is stored if no key exists.
func (s *SettingsService) InitAndGet(ctx context.Context, defaults Settings, seedAPIKey string) (*Settings, error) {
	if seedAPIKey = strings.TrimSpace(seedAPIKey); seedAPIKey != "" {
		existing, err := s.APIKey(ctx)
		if err != nil {
			return nil, err
		}
		if existing == "" {
			if err := s.SaveAPIKey(ctx, seedAPIKey); err != nil {
				return nil, err
			}
			slog.Info("Stored API key from configuration.")
		}
	}

	settings, err := s.Get(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, app_errors.ErrNotFound) {
		return nil, err
	}

	slog.Info("No settings found, initializing defaults.", "model", defaults.Model, "response_length", defaults.ResponseLength)
	if !defaults.ResponseLength.Valid() {
		defaults.ResponseLength = LengthMedium
	}
	if err := s.store(ctx, &defaults); err != nil {
		return nil, fmt.Errorf("failed to save initial settings: %w", err)
	}
	return &defaults, nil
}

// Get returns the stored settings or ErrNotFound.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	data, err := s.kv.Get(ctx, settingsKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: settings have not been initialized", app_errors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: could not read settings: %v", app_errors.ErrStorage, err)
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("%w: could not decode settings: %v", app_errors.ErrStorage, err)
	}
	return &settings, nil
}

// Save validates and stores settings.
func (s *SettingsService) Save(ctx context.Context, settings *Settings) error {
	if settings.Model == "" {
		return fmt.Errorf("%w: model is required", app_errors.ErrValidation)
	}
	if !settings.ResponseLength.Valid() {
		return fmt.Errorf("%w: unknown response length %q", app_errors.ErrValidation, settings.ResponseLength)
	}
	return s.store(ctx, settings)
}

// APIKey returns the stored bearer credential, or "" when none is stored.
func (s *SettingsService) APIKey(ctx context.Context) (string, error) {
	data, err := s.kv.Get(ctx, apiKeyKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: could not read api key: %v", app_errors.ErrStorage, err)
	}
	return string(data), nil
}

// SaveAPIKey stores key after trimming it. Blank keys are rejected.
func (s *SettingsService) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: api key cannot be empty", app_errors.ErrValidation)
	}
	if err := s.kv.Set(ctx, apiKeyKey, []byte(key)); err != nil {
		return fmt.Errorf("%w: could not save api key: %v", app_errors.ErrStorage, err)
	}
	return nil
}

func (s *SettingsService) store(ctx context.Context, settings *Settings) error {
	val, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.kv.Set(ctx, settingsKey, val); err != nil {
		return fmt.Errorf("%w: could not save settings: %v", app_errors.ErrStorage, err)
	}
	return nil
}
