package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pagechat/backend/internal/api"
	"pagechat/backend/internal/interfaces/mocks"
	"pagechat/backend/internal/llm"
)

func setupModelHandler(t *testing.T) (*api.ModelHandler, *mocks.MockModelService, *mocks.MockSettingsService) {
	mockModelSvc := mocks.NewMockModelService(t)
	mockSettingsSvc := mocks.NewMockSettingsService(t)
	return api.NewModelHandler(mockModelSvc, mockSettingsSvc), mockModelSvc, mockSettingsSvc
}

func TestModelHandler_HandleListModels(t *testing.T) {
	catalog := []llm.ModelDescriptor{
		{ID: "openai/gpt-oss-120b", Name: "GPT OSS 120B"},
		{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Name: "Llama 4 Scout", Capabilities: []llm.Capability{llm.CapabilityVision}},
	}

	t.Run("Success - Uses stored key", func(t *testing.T) {
		// ARRANGE
		handler, mockModelSvc, mockSettingsSvc := setupModelHandler(t)
		mockSettingsSvc.On("APIKey", mock.Anything).Return("gsk_test", nil).Once()
		mockModelSvc.On("List", mock.Anything, "gsk_test").Return(catalog).Once()

		// ACT
		rr := httptest.NewRecorder()
		handler.HandleListModels(rr, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
		var got []llm.ModelDescriptor
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, catalog, got)
	})

	t.Run("Success - Key lookup fails", func(t *testing.T) {
		handler, mockModelSvc, mockSettingsSvc := setupModelHandler(t)
		mockSettingsSvc.On("APIKey", mock.Anything).Return("", errors.New("disk on fire")).Once()
		mockModelSvc.On("List", mock.Anything, "").Return(catalog[:1]).Once()

		rr := httptest.NewRecorder()
		handler.HandleListModels(rr, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "openai/gpt-oss-120b")
	})
}
