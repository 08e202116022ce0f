package app

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagechat/backend/internal/config"
)

// fakeGroq streams a fixed two-fragment reply for every completion.
func fakeGroq(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"2+2 \"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"is 4.\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFullChatWorkflow(t *testing.T) {
	groq := fakeGroq(t)
	cfg := testConfig(config.StorageSQLite)
	cfg.DatabasePath = filepath.Join(t.TempDir(), "pagechat.db")
	cfg.GroqAPIURL = groq.URL
	cfg.GroqAPIKey = "gsk_test"

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	srv := httptest.NewServer(app.Server.Handler)
	defer srv.Close()
	baseAPIURL := srv.URL + "/api/v1"

	var chatID string
	initialContent := "What is 2+2?"

	t.Run("SendMessage", func(t *testing.T) {
		resp, err := http.Post(baseAPIURL+"/session/messages", "application/json",
			strings.NewReader(`{"text":"`+initialContent+`"}`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var deltas []string
		foundDone := false
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var frame struct {
				Delta string `json:"delta"`
				Done  bool   `json:"done"`
			}
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
			if frame.Done {
				foundDone = true
				break
			}
			deltas = append(deltas, frame.Delta)
		}
		require.NoError(t, scanner.Err())
		assert.True(t, foundDone, "stream finished without a done frame")
		assert.Equal(t, []string{"2+2 ", "is 4."}, deltas)
	})

	t.Run("ListConversations", func(t *testing.T) {
		resp, err := http.Get(baseAPIURL + "/conversations")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var chats []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&chats))
		require.Len(t, chats, 1)
		chatID = chats[0]["id"].(string)
		assert.Equal(t, initialContent, chats[0]["title"])
		assert.EqualValues(t, 2, chats[0]["message_count"])
	})

	t.Run("GetConversation", func(t *testing.T) {
		require.NotEmpty(t, chatID, "chat ID not set from previous step")

		resp, err := http.Get(baseAPIURL + "/conversations/" + chatID)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var conv struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&conv))
		require.Len(t, conv.Messages, 2)
		assert.Equal(t, "assistant", conv.Messages[1].Role)
		assert.Equal(t, "2+2 is 4.", conv.Messages[1].Content)
	})

	t.Run("PinConversation", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, baseAPIURL+"/conversations/"+chatID+"/pin", strings.NewReader(`{"pinned":true}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("DeleteConversation", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, baseAPIURL+"/conversations/"+chatID, nil)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("VerifyDeletion", func(t *testing.T) {
		resp, err := http.Get(baseAPIURL + "/conversations")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var chats []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&chats))
		assert.Empty(t, chats)
		assert.NotEqual(t, chatID, app.Chat.Snapshot().ID)
	})
}
