package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pagechat/backend/internal/llm"
	"pagechat/backend/internal/llm/mocks"
	"pagechat/backend/internal/service"
)

func setupModelService(t *testing.T) (*service.ModelService, *mocks.MockProvider) {
	mockProvider := mocks.NewMockProvider(t)
	modelService := service.NewModelService(mockProvider, nil)
	return modelService, mockProvider
}

func ids(models []llm.ModelDescriptor) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.ID
	}
	return out
}

func TestModelService_List(t *testing.T) {
	ctx := context.Background()
	local := ids(llm.DefaultModels)

	t.Run("No API key - local catalog only", func(t *testing.T) {
		modelService, _ := setupModelService(t)
		assert.Equal(t, local, ids(modelService.List(ctx, "")))
	})

	t.Run("Remote models are merged after the local ones", func(t *testing.T) {
		modelService, mockProvider := setupModelService(t)
		mockProvider.On("ListModels", ctx, "key").Return([]llm.RemoteModel{
			{ID: "llama-3.1-8b-instant"},
			{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Capabilities: []string{"vision", "telepathy"}},
		}, nil).Once()

		models := modelService.List(ctx, "key")
		assert.Equal(t, append(local, "meta-llama/llama-4-scout-17b-16e-instruct"), ids(models))

		scout, ok := modelService.Lookup("meta-llama/llama-4-scout-17b-16e-instruct")
		assert.True(t, ok)
		assert.True(t, scout.Has(llm.CapabilityVision))
		assert.Len(t, scout.Capabilities, 1, "unknown tags are inert")
	})

	t.Run("Provider failure falls back to the known catalog", func(t *testing.T) {
		modelService, mockProvider := setupModelService(t)
		mockProvider.On("ListModels", ctx, "key").Return(nil, errors.New("provider error")).Once()

		assert.Equal(t, local, ids(modelService.List(ctx, "key")))
	})
}

func TestModelService_Resolve(t *testing.T) {
	ctx := context.Background()
	scout := "meta-llama/llama-4-scout-17b-16e-instruct"

	t.Run("Known model - no refresh", func(t *testing.T) {
		modelService, mockProvider := setupModelService(t)
		m, ok := modelService.Resolve(ctx, "key", llm.DefaultModelID)
		assert.True(t, ok)
		assert.Equal(t, llm.DefaultModelID, m.ID)
		mockProvider.AssertNotCalled(t, "ListModels", mock.Anything, mock.Anything)
	})

	t.Run("Unknown model - catalog is refreshed once", func(t *testing.T) {
		modelService, mockProvider := setupModelService(t)
		mockProvider.On("ListModels", ctx, "key").Return([]llm.RemoteModel{{ID: scout, Capabilities: []string{"vision"}}}, nil).Once()

		m, ok := modelService.Resolve(ctx, "key", scout)
		require.True(t, ok)
		assert.True(t, m.Has(llm.CapabilityVision))
	})

	t.Run("Unknown model without a key", func(t *testing.T) {
		modelService, mockProvider := setupModelService(t)
		_, ok := modelService.Resolve(ctx, "", scout)
		assert.False(t, ok)
		mockProvider.AssertNotCalled(t, "ListModels", mock.Anything, mock.Anything)
	})
}
