package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paperflow-ai/paperflow/agent"
	"github.com/paperflow-ai/paperflow/llm"
)

// ScriptedAgent is a test double implementing agent.Agent. Replies are
// served per call in order; the last reply repeats once the script runs out.
// When Err is set every call fails with it. Delay, when positive, is slept
// before answering so timeout behavior can be exercised.
type ScriptedAgent struct {
	AgentID    string
	AgentName  string
	Replies    []string
	Confidence float64
	Err        error
	Delay      time.Duration

	calls atomic.Int32

	mu       sync.Mutex
	prompts  []string
	contexts []*agent.QueryContext
}

// NewScriptedAgent creates a scripted agent with confidence 0.8.
func NewScriptedAgent(id string, replies ...string) *ScriptedAgent {
	return &ScriptedAgent{
		AgentID:    id,
		AgentName:  "scripted-" + id,
		Replies:    replies,
		Confidence: 0.8,
	}
}

func (s *ScriptedAgent) ID() string   { return s.AgentID }
func (s *ScriptedAgent) Name() string { return s.AgentName }

// Query serves the next scripted reply.
func (s *ScriptedAgent) Query(ctx context.Context, prompt string, qc *agent.QueryContext) (*agent.Response, error) {
	call := int(s.calls.Add(1)) - 1

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.contexts = append(s.contexts, qc)
	s.mu.Unlock()

	if len(s.Replies) == 0 {
		return nil, fmt.Errorf("scripted agent %s has no replies", s.AgentID)
	}
	idx := call
	if idx >= len(s.Replies) {
		idx = len(s.Replies) - 1
	}

	return &agent.Response{
		AgentID:    s.AgentID,
		Content:    s.Replies[idx],
		Confidence: s.Confidence,
		ProducedAt: time.Now(),
	}, nil
}

// Calls returns how many times Query was invoked.
func (s *ScriptedAgent) Calls() int {
	return int(s.calls.Load())
}

// Prompts returns a copy of the prompts received so far.
func (s *ScriptedAgent) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Contexts returns the query contexts received so far.
func (s *ScriptedAgent) Contexts() []*agent.QueryContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*agent.QueryContext, len(s.contexts))
	copy(out, s.contexts)
	return out
}

// ScriptedProvider is a test double implementing llm.Provider. Replies are
// served in order; the last reply repeats.
type ScriptedProvider struct {
	Replies []string
	Err     error

	calls atomic.Int32

	mu       sync.Mutex
	requests []*llm.ChatRequest
}

// NewScriptedProvider creates a provider replaying the given completions.
func NewScriptedProvider(replies ...string) *ScriptedProvider {
	return &ScriptedProvider{Replies: replies}
}

func (p *ScriptedProvider) Name() string { return "scripted" }

// Chat serves the next scripted completion.
func (p *ScriptedProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	call := int(p.calls.Add(1)) - 1

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}

	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if len(p.Replies) == 0 {
		return nil, fmt.Errorf("scripted provider has no replies")
	}
	idx := call
	if idx >= len(p.Replies) {
		idx = len(p.Replies) - 1
	}

	return &llm.ChatResponse{
		Model:        req.Model,
		Content:      p.Replies[idx],
		FinishReason: "stop",
	}, nil
}

// Calls returns how many times Chat was invoked.
func (p *ScriptedProvider) Calls() int {
	return int(p.calls.Load())
}

// Requests returns the chat requests received so far.
func (p *ScriptedProvider) Requests() []*llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*llm.ChatRequest, len(p.requests))
	copy(out, p.requests)
	return out
}
