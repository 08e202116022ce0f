package api

import (
	"log/slog"
	"net/http"

	"pagechat/backend/internal/interfaces"
)

// ModelHandler serves the model catalog.
type ModelHandler struct {
	service  interfaces.ModelService
	settings interfaces.SettingsService
}

func NewModelHandler(svc interfaces.ModelService, settings interfaces.SettingsService) *ModelHandler {
	return &ModelHandler{service: svc, settings: settings}
}

// HandleListModels godoc
// @Summary      List models
// @Description  Returns the built-in models followed by any extra ones the endpoint reports for the stored API key.
// @Tags         Models
// @Produce      json
// @Success      200  {array}   llm.ModelDescriptor
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/models [get]
func (h *ModelHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	apiKey, err := h.settings.APIKey(r.Context())
	if err != nil {
		// The local catalog is still useful without a key.
		slog.Warn("Could not read API key for model listing", "error", err)
		apiKey = ""
	}
	respondWithJSON(w, http.StatusOK, h.service.List(r.Context(), apiKey))
}
