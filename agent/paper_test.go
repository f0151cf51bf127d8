package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperflow-ai/paperflow/llm"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	finish   string
	err      error
	requests []*llm.ChatRequest
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	finish := p.finish
	if finish == "" {
		finish = "stop"
	}
	return &llm.ChatResponse{Content: p.reply, FinishReason: finish, Model: "fake-model"}, nil
}

func (p *fakeProvider) lastRequest() *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) GetJSON(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.sets++
	return nil
}

func testPaper() PaperMeta {
	return PaperMeta{
		ID:       "p1",
		ArxivID:  "2301.00001",
		Title:    "Attention Is All You Need",
		Abstract: "We propose the Transformer, based solely on attention mechanisms.",
		Authors:  []string{"Vaswani", "Shazeer"},
	}
}

// ---------------------------------------------------------------------------
// PaperAgent
// ---------------------------------------------------------------------------

func TestPaperAgent_IdentityFromPaper(t *testing.T) {
	t.Parallel()
	a := NewPaperAgent("paper-p1", testPaper(), &fakeProvider{reply: "ok"}, DefaultPaperAgentConfig(), nil)
	assert.Equal(t, "paper-p1", a.ID())
	assert.Equal(t, "Attention Is All You Need", a.Name())
	assert.Equal(t, "p1", a.Paper().ID)
}

func TestPaperAgent_Query_BuildsGroundedSystemPrompt(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{reply: "the paper introduces multi-head attention"}
	a := NewPaperAgent("paper-p1", testPaper(), prov, DefaultPaperAgentConfig(), nil)

	resp, err := a.Query(context.Background(), "What is the core idea?", nil)
	require.NoError(t, err)
	assert.Equal(t, "paper-p1", resp.AgentID)
	assert.Equal(t, "the paper introduces multi-head attention", resp.Content)

	req := prov.lastRequest()
	require.NotEmpty(t, req.Messages)
	sys := req.Messages[0]
	assert.Equal(t, llm.RoleSystem, sys.Role)
	assert.Contains(t, sys.Content, `"Attention Is All You Need"`)
	assert.Contains(t, sys.Content, "Vaswani, Shazeer")
	assert.Contains(t, sys.Content, "Abstract: We propose the Transformer")

	user := req.Messages[len(req.Messages)-1]
	assert.Equal(t, llm.RoleUser, user.Role)
	assert.Equal(t, "What is the core idea?", user.Content)
}

func TestPaperAgent_Query_SystemPromptOverride(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{reply: "ok"}
	cfg := DefaultPaperAgentConfig()
	cfg.SystemPrompt = "custom persona"
	a := NewPaperAgent("paper-p1", testPaper(), prov, cfg, nil)

	_, err := a.Query(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "custom persona", prov.lastRequest().Messages[0].Content)
}

func TestPaperAgent_Query_FoldsCollaborationContextIntoUserTurn(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{reply: "ok"}
	a := NewPaperAgent("paper-p1", testPaper(), prov, DefaultPaperAgentConfig(), nil)

	qc := &QueryContext{
		Mode:        "debate",
		Round:       2,
		TotalAgents: 3,
		Extra:       map[string]any{"goal": "work towards consensus"},
	}
	_, err := a.Query(context.Background(), "Refine your position.", qc)
	require.NoError(t, err)

	user := prov.lastRequest().Messages[len(prov.lastRequest().Messages)-1].Content
	assert.Contains(t, user, "debate collaboration with 3 agents")
	assert.Contains(t, user, "round 2")
	assert.Contains(t, user, "Goal: work towards consensus")
	assert.True(t, strings.HasSuffix(user, "Refine your position."))
}

func TestPaperAgent_Query_CarriesMemoryAcrossCalls(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{reply: "first answer"}
	a := NewPaperAgent("paper-p1", testPaper(), prov, DefaultPaperAgentConfig(), nil)

	_, err := a.Query(context.Background(), "first question", nil)
	require.NoError(t, err)

	prov.reply = "second answer"
	_, err = a.Query(context.Background(), "second question", nil)
	require.NoError(t, err)

	req := prov.lastRequest()
	// system + prior exchange (user, assistant) + current user turn.
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "first question", req.Messages[1].Content)
	assert.Equal(t, llm.RoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "first answer", req.Messages[2].Content)
}

func TestPaperAgent_Query_ProviderErrorPropagates(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{err: errors.New("upstream exploded")}
	a := NewPaperAgent("paper-p1", testPaper(), prov, DefaultPaperAgentConfig(), nil)

	_, err := a.Query(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paper-p1")
}

func TestPaperAgent_Query_CacheRoundTrip(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{reply: "a cacheable explanation of positional encoding"}
	cache := newMapCache()
	a := NewPaperAgent("paper-p1", testPaper(), prov, DefaultPaperAgentConfig(), nil,
		WithResponseCache(cache))

	first, err := a.Query(context.Background(), "explain positional encoding", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := a.Query(context.Background(), "explain positional encoding", nil)
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)
	// The provider was only consulted once.
	assert.Len(t, prov.requests, 1)
}

func TestPaperAgent_Query_CacheKeyVariesWithContext(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{reply: "answer"}
	cache := newMapCache()
	a := NewPaperAgent("paper-p1", testPaper(), prov, DefaultPaperAgentConfig(), nil,
		WithResponseCache(cache))

	_, err := a.Query(context.Background(), "same prompt", nil)
	require.NoError(t, err)
	_, err = a.Query(context.Background(), "same prompt", &QueryContext{Mode: "debate", Round: 1})
	require.NoError(t, err)

	assert.Len(t, prov.requests, 2)
	assert.Equal(t, 2, cache.sets)
}

// ---------------------------------------------------------------------------
// estimateConfidence
// ---------------------------------------------------------------------------

func TestEstimateConfidence(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("detail ", 80)

	tests := []struct {
		name string
		out  *llm.ChatResponse
		want float64
	}{
		{"baseline", &llm.ChatResponse{Content: strings.Repeat("x", 100), FinishReason: "stop"}, 0.8},
		{"truncated completion", &llm.ChatResponse{Content: strings.Repeat("x", 100), FinishReason: "length"}, 0.6},
		{"very short answer", &llm.ChatResponse{Content: "no", FinishReason: "stop"}, 0.6},
		{"long answer bonus", &llm.ChatResponse{Content: long, FinishReason: "stop"}, 0.9},
		{"short and truncated", &llm.ChatResponse{Content: "no", FinishReason: "length"}, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, estimateConfidence(tt.out), 1e-9)
		})
	}
}
