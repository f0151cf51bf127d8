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

	"go.uber.org/zap"
)

// OpenAICompatConfig configures an OpenAI-compatible chat endpoint.
type OpenAICompatConfig struct {
	// BaseURL of the API, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// APIKey sent as a bearer token.
	APIKey string `yaml:"api_key" json:"api_key"`
	// Model used when the request does not set one.
	Model string `yaml:"model" json:"model"`
	// Timeout for a single completion call.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// OpenAICompatProvider implements Provider against any OpenAI-compatible
// chat-completions API (OpenAI, DashScope, DeepSeek, local gateways).
type OpenAICompatProvider struct {
	cfg    OpenAICompatConfig
	client *http.Client
	logger *zap.Logger
}

// NewOpenAICompatProvider creates a provider instance.
func NewOpenAICompatProvider(cfg OpenAICompatConfig, logger *zap.Logger) *OpenAICompatProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAICompatProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "llm_provider")),
	}
}

func (p *OpenAICompatProvider) Name() string { return "openai-compat" }

// Wire types for the chat-completions payload.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

type chatErrorResp struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat performs one chat completion call.
func (p *OpenAICompatProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	body := chatRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, &Error{Code: ErrTimeout, Message: err.Error(), Retryable: true, Provider: p.Name()}
		}
		return nil, &Error{Code: ErrUpstreamError, Message: err.Error(), Retryable: true, Provider: p.Name()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Code: ErrUpstreamError, Message: fmt.Sprintf("decode chat response: %v", err), Provider: p.Name()}
	}
	if len(out.Choices) == 0 {
		return nil, &Error{Code: ErrUpstreamError, Message: "chat response has no choices", Provider: p.Name()}
	}

	choice := out.Choices[0]
	p.logger.Debug("chat completion",
		zap.String("model", out.Model),
		zap.String("finish_reason", choice.FinishReason),
		zap.Duration("latency", time.Since(start)),
	)

	return &ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Model:        out.Model,
		Usage:        out.Usage,
	}, nil
}

func (p *OpenAICompatProvider) mapHTTPError(resp *http.Response) error {
	msg := readErrMsg(resp.Body)

	code := ErrUpstreamError
	retryable := false
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		code = ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		code = ErrRateLimited
		retryable = true
	case resp.StatusCode == http.StatusNotFound:
		code = ErrModelNotFound
	case resp.StatusCode == http.StatusBadRequest:
		code = ErrInvalidRequest
	case resp.StatusCode >= 500:
		retryable = true
	}

	return &Error{
		Code:       code,
		Message:    msg,
		HTTPStatus: resp.StatusCode,
		Retryable:  retryable,
		Provider:   p.Name(),
	}
}

func readErrMsg(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "upstream error"
	}
	var er chatErrorResp
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return string(data)
}
