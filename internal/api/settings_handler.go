package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"pagechat/backend/internal/interfaces"
)

// SettingsHandler serves the stored credential and options.
type SettingsHandler struct {
	settings interfaces.SettingsService
}

func NewSettingsHandler(settings interfaces.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings godoc
// @Summary      Get settings
// @Description  Reports whether an API key is stored and returns the saved options. The key itself is never returned.
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  SettingsResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/settings [get]
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	key, err := h.settings.APIKey(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	opts, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, SettingsResponse{HasAPIKey: key != "", Options: opts})
}

// SaveAPIKey godoc
// @Summary      Save the API key
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        key  body      APIKeyRequest  true  "API key"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /v1/settings/api-key [put]
func (h *SettingsHandler) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req APIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.settings.SaveAPIKey(r.Context(), req.APIKey); err != nil {
		respondWithError(w, err)
		return
	}
	slog.Info("API key updated.")
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
