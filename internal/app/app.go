package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pagechat/backend/internal/api"
	"pagechat/backend/internal/config"
	"pagechat/backend/internal/database"
	"pagechat/backend/internal/llm"
	"pagechat/backend/internal/pagecontext"
	"pagechat/backend/internal/repository"
	"pagechat/backend/internal/service"
)

// App holds the wired services and the HTTP server built on top of them.
type App struct {
	Config   *config.Config
	Chat     *service.ChatService
	Settings *service.SettingsService
	Models   *service.ModelService
	Server   *http.Server

	closers []func() error
}

// NewApp opens the configured storage backend, builds the services and
// restores the last open conversation.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	kv, closeKV, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg}
	if closeKV != nil {
		a.closers = append(a.closers, closeKV)
	}

	// Streaming replies can run for minutes; the request context bounds them.
	groqProvider := llm.NewGroqProvider(cfg.GroqAPIURL, 0)

	var pages pagecontext.Provider = pagecontext.Noop{}
	if cfg.PageAgentURL != "" {
		pages = pagecontext.NewAgentClient(cfg.PageAgentURL, cfg.PageAgentRetries, cfg.PageAgentRetryDelay, 10*time.Second)
	} else {
		slog.Info("PAGE_AGENT_URL not set, page context is disabled.")
	}

	a.Settings = service.NewSettingsService(kv)
	a.Models = service.NewModelService(groqProvider, nil)
	a.Chat = service.NewChatService(
		repository.NewConversationStore(kv),
		groqProvider,
		pages,
		a.Settings,
		a.Models,
		service.ChatConfig{
			Defaults: service.Settings{
				Model:          cfg.DefaultModel,
				ResponseLength: service.ResponseLength(cfg.DefaultResponseLength),
			},
			SeedAPIKey: cfg.GroqAPIKey,
		},
	)

	session, err := a.Chat.Restore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	slog.Info("Restored session", "conversation_id", session.ID, "messages", len(session.Messages), "model", session.Options.Model)

	router := api.NewRouter(
		api.NewChatHandler(a.Chat),
		api.NewModelHandler(a.Models, a.Settings),
		api.NewSettingsHandler(a.Settings),
		cfg.RequestTimeout,
	)
	a.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return a, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", a.Config.AppPort)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}

// Run is the entry point of cmd/server.
func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	SetupLogger(cfg.LogLevel, os.Stdout)
	logConfigSource(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	if err := a.Serve(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		return 1
	}
	return 0
}

// openStore returns the key-value backend named by STORAGE_DRIVER and the
// function that releases it.
func openStore(ctx context.Context, cfg *config.Config) (repository.KVStore, func() error, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		db, err := database.InitDB(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)
		return repository.NewSQLiteKV(db), db.Close, nil

	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		slog.Info("Successfully connected to Redis.", "addr", cfg.RedisAddr)
		return repository.NewRedisKV(rdb, cfg.RedisKeyPrefix), rdb.Close, nil

	case config.StorageMemory:
		slog.Warn("Using in-memory storage, conversations are lost on exit.")
		return repository.NewMemoryKV(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func logConfigSource(cfg *config.Config) {
	if cfg.ConfigFile != "" {
		slog.Info("Successfully loaded configuration from file.", "file", cfg.ConfigFile)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

// SetupLogger installs a JSON slog logger writing to w at the given level.
func SetupLogger(logLevel string, w io.Writer) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
