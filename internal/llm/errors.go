package llm

import (
	"encoding/json"
	"fmt"

	app_errors "pagechat/backend/internal/errors"
)

// genericCompletionFailure is used when an error response carries no message.
const genericCompletionFailure = "Failed to get completion"

// CompletionError is returned by Complete for every endpoint and transport
// failure. Error() is the human-readable message shown in the transcript;
// errors.Is matches the Kind sentinel (ErrEndpoint or ErrNetwork).
type CompletionError struct {
	Kind       error
	Message    string
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	return e.Message
}

// Is lets errors.Is match the kind sentinel.
func (e *CompletionError) Is(target error) bool {
	return e.Kind == target
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

func newNetworkError(err error) *CompletionError {
	return &CompletionError{Kind: app_errors.ErrNetwork, Message: err.Error(), Err: err}
}

// newEndpointError builds an ErrEndpoint error from a non-success response,
// preferring the remote error.message when the body is an error envelope.
func newEndpointError(statusCode int, body []byte) *CompletionError {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := genericCompletionFailure
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	return &CompletionError{
		Kind:       app_errors.ErrEndpoint,
		Message:    msg,
		StatusCode: statusCode,
		Err:        fmt.Errorf("api returned status %d", statusCode),
	}
}
