package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paperflow-ai/paperflow/llm"
)

// PaperMeta is the paper context a PaperAgent speaks for.
type PaperMeta struct {
	ID         string   `json:"id"`
	ArxivID    string   `json:"arxiv_id,omitempty"`
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// ResponseCache is the optional cache a PaperAgent stores answers in. Any
// error from GetJSON is treated as a miss.
type ResponseCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// PaperAgentConfig tunes one paper agent.
type PaperAgentConfig struct {
	// Model passed to the provider; empty uses the provider default.
	Model string `yaml:"model" json:"model"`
	// SystemPrompt overrides the generated paper prompt when set.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`
	// Temperature for completions.
	Temperature float32 `yaml:"temperature" json:"temperature"`
	// MaxTokens per completion.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
	// MaxExchanges retained in conversation memory.
	MaxExchanges int `yaml:"max_exchanges" json:"max_exchanges"`
	// MemoryTokenBudget bounds the memory window; 0 disables.
	MemoryTokenBudget int `yaml:"memory_token_budget" json:"memory_token_budget"`
	// CacheTTL for cached responses; 0 uses the cache default.
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// DefaultPaperAgentConfig returns the default agent tuning.
func DefaultPaperAgentConfig() PaperAgentConfig {
	return PaperAgentConfig{
		Temperature:       0.7,
		MaxTokens:         1024,
		MaxExchanges:      10,
		MemoryTokenBudget: 4096,
		CacheTTL:          5 * time.Minute,
	}
}

// PaperAgent is the LLM-backed Agent for one research paper. It keeps its own
// conversation memory between calls; everything else is stateless.
type PaperAgent struct {
	id     string
	name   string
	paper  PaperMeta
	cfg    PaperAgentConfig
	prov   llm.Provider
	memory *ConversationMemory
	cache  ResponseCache
	logger *zap.Logger
}

// PaperAgentOption customizes a PaperAgent.
type PaperAgentOption func(*PaperAgent)

// WithResponseCache attaches a response cache.
func WithResponseCache(c ResponseCache) PaperAgentOption {
	return func(a *PaperAgent) { a.cache = c }
}

// WithTokenCounter sets the counter used for memory budgeting.
func WithTokenCounter(c llm.TokenCounter) PaperAgentOption {
	return func(a *PaperAgent) {
		a.memory = NewConversationMemory(a.cfg.MaxExchanges, a.cfg.MemoryTokenBudget, c)
	}
}

// NewPaperAgent creates an agent for the given paper.
func NewPaperAgent(id string, paper PaperMeta, prov llm.Provider, cfg PaperAgentConfig, logger *zap.Logger, opts ...PaperAgentOption) *PaperAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &PaperAgent{
		id:     id,
		name:   paper.Title,
		paper:  paper,
		cfg:    cfg,
		prov:   prov,
		memory: NewConversationMemory(cfg.MaxExchanges, cfg.MemoryTokenBudget, nil),
		logger: logger.With(zap.String("component", "paper_agent"), zap.String("agent_id", id)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *PaperAgent) ID() string   { return a.id }
func (a *PaperAgent) Name() string { return a.name }

// Paper returns the paper metadata this agent speaks for.
func (a *PaperAgent) Paper() PaperMeta { return a.paper }

// Query answers a prompt about the paper. Collaboration context is folded
// into the user turn so any chat-completion provider can serve it.
func (a *PaperAgent) Query(ctx context.Context, prompt string, qc *QueryContext) (*Response, error) {
	start := time.Now()

	cacheKey := a.cacheKey(prompt, qc)
	if a.cache != nil {
		var cached Response
		if err := a.cache.GetJSON(ctx, cacheKey, &cached); err == nil && cached.Content != "" {
			a.logger.Debug("response served from cache")
			return &cached, nil
		}
	}

	req := &llm.ChatRequest{
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		Messages:    a.buildMessages(prompt, qc),
	}

	out, err := a.prov.Chat(ctx, req)
	if err != nil {
		a.logger.Warn("query failed", zap.Error(err))
		return nil, fmt.Errorf("agent %s query: %w", a.id, err)
	}

	resp := &Response{
		AgentID:    a.id,
		Content:    out.Content,
		Confidence: estimateConfidence(out),
		ProducedAt: time.Now(),
		Metadata: map[string]any{
			"model":         out.Model,
			"finish_reason": out.FinishReason,
			"latency_ms":    time.Since(start).Milliseconds(),
		},
	}
	if out.Usage != nil {
		resp.Metadata["total_tokens"] = out.Usage.TotalTokens
	}

	a.memory.Add(Exchange{
		Query:   prompt,
		Answer:  out.Content,
		AskedAt: start,
	})

	if a.cache != nil {
		if err := a.cache.SetJSON(ctx, cacheKey, resp, a.cfg.CacheTTL); err != nil {
			a.logger.Debug("response cache store failed", zap.Error(err))
		}
	}

	a.logger.Debug("query processed",
		zap.Duration("latency", time.Since(start)),
		zap.Float64("confidence", resp.Confidence),
	)
	return resp, nil
}

// buildMessages assembles system prompt, recent memory, and the user turn.
func (a *PaperAgent) buildMessages(prompt string, qc *QueryContext) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: a.systemPrompt()}}

	for _, e := range a.memory.Recent(a.cfg.MaxExchanges) {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: e.Query},
			llm.Message{Role: llm.RoleAssistant, Content: e.Answer},
		)
	}

	user := prompt
	if preamble := collaborationPreamble(qc); preamble != "" {
		user = preamble + "\n\n" + prompt
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: user})
}

func (a *PaperAgent) systemPrompt() string {
	if a.cfg.SystemPrompt != "" {
		return a.cfg.SystemPrompt
	}
	var b strings.Builder
	b.WriteString("You are an expert research assistant representing the paper ")
	fmt.Fprintf(&b, "%q", a.paper.Title)
	if len(a.paper.Authors) > 0 {
		fmt.Fprintf(&b, " by %s", strings.Join(a.paper.Authors, ", "))
	}
	b.WriteString(".")
	if a.paper.Abstract != "" {
		b.WriteString("\n\nAbstract: ")
		b.WriteString(a.paper.Abstract)
	}
	b.WriteString("\n\nAnswer questions grounded in this paper. Say so when the paper does not cover something.")
	return b.String()
}

// collaborationPreamble renders the protocol state for the model.
func collaborationPreamble(qc *QueryContext) string {
	if qc == nil {
		return ""
	}
	var parts []string
	if qc.Mode != "" {
		parts = append(parts, fmt.Sprintf("You are participating in a %s collaboration with %d agents.", qc.Mode, qc.TotalAgents))
	}
	if qc.Position > 0 {
		parts = append(parts, fmt.Sprintf("You are agent %d of %d.", qc.Position, qc.TotalAgents))
	}
	if qc.Round > 1 {
		parts = append(parts, fmt.Sprintf("This is round %d.", qc.Round))
	}
	if goal, ok := qc.Extra["goal"].(string); ok && goal != "" {
		parts = append(parts, "Goal: "+goal)
	}
	return strings.Join(parts, " ")
}

func (a *PaperAgent) cacheKey(prompt string, qc *QueryContext) string {
	h := sha256.New()
	h.Write([]byte(a.id))
	h.Write([]byte{0})
	h.Write([]byte(a.cfg.Model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	if qc != nil {
		if data, err := json.Marshal(qc); err == nil {
			h.Write([]byte{0})
			h.Write(data)
		}
	}
	return "paperflow:response:" + hex.EncodeToString(h.Sum(nil))
}

// estimateConfidence derives a crude confidence from completion shape. The
// 0.8 baseline matches what downstream scoring assumes for an unremarkable
// answer.
func estimateConfidence(out *llm.ChatResponse) float64 {
	score := 0.8
	if out.FinishReason == "length" {
		score -= 0.2
	}
	switch {
	case len(out.Content) < 40:
		score -= 0.2
	case len(out.Content) > 400:
		score += 0.1
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
