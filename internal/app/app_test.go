package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagechat/backend/internal/config"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		StorageDriver:         driver,
		DefaultModel:          "openai/gpt-oss-120b",
		DefaultResponseLength: "medium",
		RequestTimeout:        time.Second,
		LogLevel:              "DEBUG",
	}
}

func TestNewApp(t *testing.T) {
	t.Run("SQLite", func(t *testing.T) {
		cfg := testConfig(config.StorageSQLite)
		cfg.DatabasePath = filepath.Join(t.TempDir(), "data", "pagechat.db")

		app, err := NewApp(context.Background(), cfg)
		require.NoError(t, err)
		require.NotNil(t, app)
		defer func() { require.NoError(t, app.Close()) }()

		assert.NotNil(t, app.Server)
		assert.NotEmpty(t, app.Chat.Snapshot().ID)
		assert.FileExists(t, cfg.DatabasePath)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(config.StorageRedis)
		cfg.RedisAddr = mr.Addr()
		cfg.RedisKeyPrefix = "pagechat:"

		app, err := NewApp(context.Background(), cfg)
		require.NoError(t, err)
		defer func() { require.NoError(t, app.Close()) }()

		assert.NotEmpty(t, mr.Keys())
	})

	t.Run("Redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig(config.StorageRedis)
		cfg.RedisAddr = addr

		_, err := NewApp(context.Background(), cfg)
		assert.ErrorContains(t, err, "failed to connect to redis")
	})

	t.Run("Unknown driver", func(t *testing.T) {
		_, err := NewApp(context.Background(), testConfig("postgres"))
		assert.ErrorContains(t, err, "unknown storage driver")
	})

	t.Run("Seeds the API key", func(t *testing.T) {
		cfg := testConfig(config.StorageMemory)
		cfg.GroqAPIKey = "gsk_seed"

		app, err := NewApp(context.Background(), cfg)
		require.NoError(t, err)

		key, err := app.Settings.APIKey(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "gsk_seed", key)
	})
}

func TestApp_Routes(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(config.StorageMemory))
	require.NoError(t, err)

	srv := httptest.NewServer(app.Server.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	sessResp, err := http.Get(srv.URL + "/api/v1/session")
	require.NoError(t, err)
	defer func() { _ = sessResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, sessResp.StatusCode)
	assert.Equal(t, "application/json", sessResp.Header.Get("Content-Type"))
}

func TestApp_ServeStopsOnCancel(t *testing.T) {
	cfg := testConfig(config.StorageMemory)
	cfg.AppPort = 0

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
