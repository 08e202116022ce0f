package pagecontext

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "pagechat/backend/internal/errors"
)

// fakeBridge mimics the extension's HTTP bridge. Until inject is called the
// tab has no agent.
type fakeBridge struct {
	mu          sync.Mutex
	injected    bool
	injectFails bool
	neverLoads  bool
	content     string
	messages    int
	injects     int
}

func (b *fakeBridge) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /message", func(w http.ResponseWriter, r *http.Request) {
		var req bridgeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, actionGetPageContent, req.Action)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.messages++
		w.Header().Set("Content-Type", "application/json")
		if !b.injected || b.neverLoads {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Could not establish connection. Receiving end does not exist."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"content": b.content})
	})
	mux.HandleFunc("POST /inject", func(w http.ResponseWriter, r *http.Request) {
		var req bridgeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, actionInjectAgent, req.Action)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.injects++
		if b.injectFails {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Cannot access a chrome:// URL"}`))
			return
		}
		b.injected = true
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func TestAgentClient_PageContent(t *testing.T) {
	t.Run("agent present", func(t *testing.T) {
		bridge := &fakeBridge{injected: true, content: "  Hello\n\n  world\t again "}
		srv := httptest.NewServer(bridge.handler(t))
		defer srv.Close()

		text, err := NewAgentClient(srv.URL, 1, time.Millisecond, time.Second).PageContent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Hello world again", text)
		assert.Equal(t, 0, bridge.injects)
	})

	t.Run("agent missing is injected once and retried", func(t *testing.T) {
		bridge := &fakeBridge{content: "Article body"}
		srv := httptest.NewServer(bridge.handler(t))
		defer srv.Close()

		text, err := NewAgentClient(srv.URL, 1, time.Millisecond, time.Second).PageContent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Article body", text)
		assert.Equal(t, 1, bridge.injects)
		assert.Equal(t, 2, bridge.messages)
	})

	t.Run("retries are bounded", func(t *testing.T) {
		bridge := &fakeBridge{neverLoads: true}
		srv := httptest.NewServer(bridge.handler(t))
		defer srv.Close()

		_, err := NewAgentClient(srv.URL, 1, time.Millisecond, time.Second).PageContent(context.Background())
		assert.ErrorIs(t, err, app_errors.ErrCollaboratorUnavailable)
		assert.Equal(t, 1, bridge.injects)
		assert.Equal(t, 2, bridge.messages)
	})

	t.Run("injection failure gives up", func(t *testing.T) {
		bridge := &fakeBridge{injectFails: true}
		srv := httptest.NewServer(bridge.handler(t))
		defer srv.Close()

		_, err := NewAgentClient(srv.URL, 3, time.Millisecond, time.Second).PageContent(context.Background())
		assert.ErrorIs(t, err, app_errors.ErrCollaboratorUnavailable)
		assert.ErrorContains(t, err, noReceiverMarker)
		assert.Equal(t, 1, bridge.messages)
	})

	t.Run("bridge unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewAgentClient(url, 1, time.Millisecond, time.Second).PageContent(context.Background())
		assert.ErrorIs(t, err, app_errors.ErrCollaboratorUnavailable)
	})

	t.Run("other bridge errors are not retried", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"tab crashed"}`))
		}))
		defer srv.Close()

		_, err := NewAgentClient(srv.URL, 1, time.Millisecond, time.Second).PageContent(context.Background())
		assert.ErrorIs(t, err, app_errors.ErrCollaboratorUnavailable)
		assert.ErrorContains(t, err, "tab crashed")
		assert.Equal(t, 1, calls)
	})
}

func TestNoop(t *testing.T) {
	text, err := Noop{}.PageContent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
}
