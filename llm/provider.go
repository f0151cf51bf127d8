package llm

import (
	"context"
	"errors"
)

// ErrorCode aligns provider failures with HTTP status and retryability.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "LLM_INVALID_REQUEST"
	ErrUnauthorized   ErrorCode = "LLM_UNAUTHORIZED"
	ErrRateLimited    ErrorCode = "LLM_RATE_LIMITED"
	ErrModelNotFound  ErrorCode = "LLM_MODEL_NOT_FOUND"
	ErrUpstreamError  ErrorCode = "LLM_UPSTREAM_ERROR"
	ErrTimeout        ErrorCode = "LLM_TIMEOUT"
)

// Error is a structured provider error.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// AsError extracts a *Error from err, or nil.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a provider-agnostic chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is a provider-agnostic chat completion result.
type ChatResponse struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Model        string `json:"model,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

// Provider is the chat completion capability paper agents depend on.
type Provider interface {
	// Name returns the provider identifier for logs and metrics.
	Name() string
	// Chat performs one chat completion.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
