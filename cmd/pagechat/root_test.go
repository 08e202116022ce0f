package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliEnv points the CLI at a throwaway SQLite file and a fake completion
// endpoint that streams "Hello there".
type cliEnv struct {
	dbPath   string
	requests int
	lastBody string
}

func newCLIEnv(t *testing.T, status int) *cliEnv {
	t.Helper()
	env := &cliEnv{dbPath: filepath.Join(t.TempDir(), "pagechat.db")}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.URL.Path == "/models" {
			_, _ = w.Write([]byte(`{"data":[{"id":"meta-llama/llama-4-scout-17b-16e-instruct"}]}`))
			return
		}
		env.requests++
		env.lastBody = string(body)
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key"}}`))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	t.Cleanup(server.Close)

	t.Setenv("GROQ_API_URL", server.URL)
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("PAGE_AGENT_URL", "")
	t.Setenv("LOG_LEVEL", "ERROR")
	return env
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--storage", "sqlite", "--db", e.dbPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLI_ConversationLifecycle(t *testing.T) {
	env := newCLIEnv(t, http.StatusOK)

	// Without a key the turn is refused before anything is sent.
	_, _, err := env.run(t, "", "ask", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission")
	assert.Zero(t, env.requests)

	out, _, err := env.run(t, "gsk_from_stdin\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "API key saved.")

	out, _, err = env.run(t, "", "new")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, _, err = env.run(t, "", "ask", "--context", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "Hello there\n", out)
	assert.Equal(t, 1, env.requests)

	out, _, err = env.run(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "hello world")

	_, _, err = env.run(t, "", "pin", id)
	require.NoError(t, err)
	out, _, err = env.run(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, ">*")

	_, _, err = env.run(t, "", "unpin", id)
	require.NoError(t, err)

	out, _, err = env.run(t, "", "open", id)
	require.NoError(t, err)
	assert.Equal(t, "user: hello world\nassistant: Hello there\n", out)

	_, _, err = env.run(t, "", "delete", id)
	require.NoError(t, err)
	out, _, err = env.run(t, "", "history")
	require.NoError(t, err)
	assert.NotContains(t, out, id)
}

func TestCLI_AskReportsFailedReply(t *testing.T) {
	env := newCLIEnv(t, http.StatusUnauthorized)
	t.Setenv("GROQ_API_KEY", "gsk_bad")

	_, stderr, err := env.run(t, "", "ask", "hello")
	require.ErrorIs(t, err, errReplyFailed)
	assert.Contains(t, stderr, "Error:")
}

func TestCLI_AskValidatesFlags(t *testing.T) {
	env := newCLIEnv(t, http.StatusOK)
	t.Setenv("GROQ_API_KEY", "gsk_test")

	_, _, err := env.run(t, "", "ask")
	assert.ErrorContains(t, err, "a question, --image or --action is required")

	_, _, err = env.run(t, "", "ask", "--length", "epic", "hi")
	assert.ErrorContains(t, err, "invalid --length")

	_, _, err = env.run(t, "", "ask", "--model", "no/such-model", "hi")
	assert.ErrorContains(t, err, "unknown model")

	assert.Zero(t, env.requests)
}

func TestCLI_AskWithImageOnly(t *testing.T) {
	env := newCLIEnv(t, http.StatusOK)
	t.Setenv("GROQ_API_KEY", "gsk_test")

	png := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	scout := "meta-llama/llama-4-scout-17b-16e-instruct"
	out, _, err := env.run(t, "", "ask", "--model", scout, "--image", png)
	require.NoError(t, err)
	assert.Equal(t, "Hello there\n", out)
	require.Equal(t, 1, env.requests)

	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(env.lastBody), &req))
	assert.Equal(t, scout, req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "user", req.Messages[1].Role)

	var parts []map[string]any
	require.NoError(t, json.Unmarshal(req.Messages[1].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, map[string]any{"type": "text", "text": ""}, parts[0])
	assert.Equal(t, "image_url", parts[1]["type"])
}

func TestImageAttachment(t *testing.T) {
	dir := t.TempDir()

	png := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))
	att, err := imageAttachment(png)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(att.DataURL, "data:image/png;base64,"))

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("just text"), 0o600))
	_, err = imageAttachment(txt)
	assert.ErrorContains(t, err, "is not an image")

	_, err = imageAttachment(filepath.Join(dir, "missing.png"))
	assert.ErrorContains(t, err, "could not read image")
}
