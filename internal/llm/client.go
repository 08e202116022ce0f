package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	app_errors "pagechat/backend/internal/errors"
	"pagechat/backend/internal/model"
)

// DefaultBaseURL is the OpenAI-compatible Groq API root.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// ChunkFunc receives each incremental text fragment of a streamed completion,
// in arrival order.
type ChunkFunc func(delta string)

// Provider defines the interface for interacting with the completion endpoint.
type Provider interface {
	// Complete sends messages to the model. When onChunk is non-nil the
	// response is streamed and every fragment is passed to it before the
	// aggregated message is returned.
	Complete(ctx context.Context, req *CompletionRequest, onChunk ChunkFunc) (*model.Message, error)
	// ListModels returns the ids the endpoint currently serves.
	ListModels(ctx context.Context, apiKey string) ([]RemoteModel, error)
}

// CompletionRequest is the input of Complete.
type CompletionRequest struct {
	APIKey   string          `validate:"required"`
	Model    string          `validate:"required"`
	Messages []model.Message `validate:"required,min=1,dive"`
}

// RemoteModel is one entry of the endpoint's model list.
type RemoteModel struct {
	ID            string   `json:"id"`
	OwnedBy       string   `json:"owned_by,omitempty"`
	Active        bool     `json:"active,omitempty"`
	ContextWindow int      `json:"context_window,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty"`
}

// wireMessage is a message as transmitted: role and content only.
type wireMessage struct {
	Role    model.Role    `json:"role"`
	Content model.Content `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message model.Message `json:"message"`
	} `json:"choices"`
}

type groqProvider struct {
	client   *http.Client
	url      string
	validate *validator.Validate
}

// NewGroqProvider returns a Provider for an OpenAI-compatible endpoint rooted at
// baseURL. A zero timeout leaves requests bounded only by their context.
func NewGroqProvider(baseURL string, timeout time.Duration) Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	v := validator.New()
	v.RegisterStructValidation(validateMessage, model.Message{})
	return &groqProvider{
		client:   &http.Client{Timeout: timeout},
		url:      strings.TrimRight(baseURL, "/"),
		validate: v,
	}
}

func validateMessage(sl validator.StructLevel) {
	msg := sl.Current().Interface().(model.Message)
	switch msg.Role {
	case model.RoleSystem, model.RoleUser, model.RoleAssistant:
	default:
		sl.ReportError(msg.Role, "Role", "role", "oneof", "system user assistant")
	}
}

func (p *groqProvider) Complete(ctx context.Context, req *CompletionRequest, onChunk ChunkFunc) (*model.Message, error) {
	if err := p.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: invalid completion request: %v", app_errors.ErrValidation, err)
	}

	payload := chatRequest{
		Model:    req.Model,
		Messages: sanitize(req.Messages),
		Stream:   onChunk != nil,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if payload.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, newEndpointError(resp.StatusCode, bodyBytes)
	}

	if payload.Stream {
		return decodeStream(ctx, resp.Body, onChunk)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("could not read response body: %w", err))
	}
	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return nil, &CompletionError{
			Kind:       app_errors.ErrEndpoint,
			Message:    fmt.Sprintf("could not decode response: %v", err),
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &CompletionError{
			Kind:       app_errors.ErrEndpoint,
			Message:    "completion response contained no choices",
			StatusCode: resp.StatusCode,
			Err:        errors.New("empty choices"),
		}
	}
	msg := chatResp.Choices[0].Message
	return &msg, nil
}

func (p *groqProvider) ListModels(ctx context.Context, apiKey string) ([]RemoteModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: an API key is required to list models", app_errors.ErrValidation)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("could not read response body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newEndpointError(resp.StatusCode, bodyBytes)
	}

	var list struct {
		Data []RemoteModel `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &list); err != nil {
		return nil, fmt.Errorf("could not decode model list: %w", err)
	}
	return list.Data, nil
}

// sanitize keeps only role and content of each message.
func sanitize(messages []model.Message) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, m := range messages {
		out[i] = wireMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
