package service

import (
	"context"
	"log/slog"
	"sync"

	"pagechat/backend/internal/llm"
)

// ModelService serves the model catalog: the built-in list extended with
// whatever the endpoint reports.
type ModelService struct {
	llm   llm.Provider
	local *llm.Catalog

	mu     sync.RWMutex
	merged *llm.Catalog
}

// NewModelService creates a new ModelService around the built-in catalog.
func NewModelService(llmProvider llm.Provider, local *llm.Catalog) *ModelService {
	if local == nil {
		local = llm.NewCatalog(llm.DefaultModels)
	}
	return &ModelService{llm: llmProvider, local: local, merged: local}
}

// List returns the catalog. With an API key the remote list is fetched and
// merged in; on failure the last known catalog is returned.
func (s *ModelService) List(ctx context.Context, apiKey string) []llm.ModelDescriptor {
	if apiKey == "" {
		return s.catalog().Models()
	}
	remote, err := s.llm.ListModels(ctx, apiKey)
	if err != nil {
		slog.Warn("Could not fetch remote model list, using local catalog.", "error", err)
		return s.catalog().Models()
	}

	merged := s.local.Merge(remote)
	s.mu.Lock()
	s.merged = merged
	s.mu.Unlock()
	return merged.Models()
}

// Lookup finds a model in the last known catalog.
func (s *ModelService) Lookup(id string) (llm.ModelDescriptor, bool) {
	return s.catalog().Lookup(id)
}

// Resolve is Lookup with one catalog refresh from the endpoint when id is not
// known yet, so a remote-only model can be selected before anyone has listed
// the catalog.
func (s *ModelService) Resolve(ctx context.Context, apiKey, id string) (llm.ModelDescriptor, bool) {
	if m, ok := s.Lookup(id); ok {
		return m, true
	}
	if apiKey == "" {
		return llm.ModelDescriptor{}, false
	}
	s.List(ctx, apiKey)
	return s.Lookup(id)
}

func (s *ModelService) catalog() *llm.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merged
}
