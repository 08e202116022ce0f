package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "pagechat/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates and configures a new chi router with all the application's routes.
// A zero requestTimeout disables the timeout on non-streaming routes.
func NewRouter(chatHandler *ChatHandler, modelHandler *ModelHandler, settingsHandler *SettingsHandler, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Plain JSON routes.
		r.Group(func(r chi.Router) {
			if requestTimeout > 0 {
				r.Use(middleware.Timeout(requestTimeout))
			}

			// --- Session ---
			r.Get("/session", chatHandler.GetSession)
			r.Post("/session", chatHandler.StartSession)
			r.Put("/session/draft", chatHandler.UpdateDraft)
			r.Put("/session/options", chatHandler.UpdateOptions)

			// --- Conversations ---
			r.Get("/conversations", chatHandler.ListConversations)
			r.Get("/conversations/{id}", chatHandler.GetConversation)
			r.Post("/conversations/{id}/load", chatHandler.LoadConversation)
			r.Put("/conversations/{id}/pin", chatHandler.PinConversation)
			r.Delete("/conversations/{id}", chatHandler.DeleteConversation)

			// --- Models & settings ---
			r.Get("/models", modelHandler.HandleListModels)
			r.Get("/settings", settingsHandler.GetSettings)
			r.Put("/settings/api-key", settingsHandler.SaveAPIKey)
		})

		// Streaming routes hold the connection for the whole reply and must not
		// have a timeout.
		r.Group(func(r chi.Router) {
			r.Post("/session/messages", chatHandler.HandleSendMessage)
			r.Post("/session/quick-actions/{action}", chatHandler.HandleQuickAction)
		})
	})

	return r
}
