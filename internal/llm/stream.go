package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	app_errors "pagechat/backend/internal/errors"
	"pagechat/backend/internal/model"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "data: [DONE]"

	readBufferSize = 4096
)

// streamChunk is the JSON payload of one "data: " frame.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// streamState is the per-request decoder state. Bytes after the last newline
// are kept in pending until the next read completes the frame, so a frame or a
// multi-byte character split across reads decodes as if it arrived whole.
type streamState struct {
	content strings.Builder
	pending []byte
	onChunk ChunkFunc
}

func newStreamState(onChunk ChunkFunc) *streamState {
	return &streamState{onChunk: onChunk}
}

// write feeds raw bytes from one network read.
func (s *streamState) write(p []byte) {
	s.pending = append(s.pending, p...)
	for {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			return
		}
		line := s.pending[:i]
		s.handleFrame(line)
		s.pending = s.pending[i+1:]
	}
}

// flush processes a trailing frame that was not newline-terminated.
func (s *streamState) flush() {
	if len(s.pending) > 0 {
		s.handleFrame(s.pending)
		s.pending = nil
	}
}

func (s *streamState) handleFrame(raw []byte) {
	line := strings.TrimSpace(string(raw))
	if line == "" || line == doneSentinel {
		return
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return
	}
	delta, err := decodeFrame(line[len(dataPrefix):])
	if err != nil {
		slog.Warn("Skipping malformed stream frame", "error", err, "frame", line)
		return
	}
	if delta == "" {
		return
	}
	s.content.WriteString(delta)
	if s.onChunk != nil {
		s.onChunk(delta)
	}
}

func decodeFrame(payload string) (string, error) {
	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", fmt.Errorf("%w: %v", app_errors.ErrStreamDecode, err)
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}

func (s *streamState) message() *model.Message {
	return &model.Message{Role: model.RoleAssistant, Content: model.TextContent(s.content.String())}
}

// decodeStream reads body until EOF, delivering deltas to onChunk in arrival
// order, and returns the aggregated assistant message.
func decodeStream(ctx context.Context, body io.Reader, onChunk ChunkFunc) (*model.Message, error) {
	state := newStreamState(onChunk)
	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := body.Read(buf)
		if n > 0 {
			state.write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			state.flush()
			return state.message(), nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, newNetworkError(fmt.Errorf("could not read response stream: %w", err))
		}
	}
}
