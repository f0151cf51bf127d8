package agent

import (
	"context"
	"time"
)

// Agent is the minimal contract every conversational paper agent satisfies.
// Implementations must be safe for concurrent Query calls: collaboration
// protocols fan out to several agents at once.
type Agent interface {
	// ID returns the agent's unique identifier within a registry.
	ID() string
	// Name returns the agent's human-readable display name.
	Name() string
	// Query answers a free-text prompt given an optional collaboration context.
	Query(ctx context.Context, prompt string, qc *QueryContext) (*Response, error)
}

// QueryContext carries the collaboration state an agent may use to frame its
// answer. A nil QueryContext means a standalone query outside any protocol.
type QueryContext struct {
	// Mode is the collaboration mode label (sequential, parallel, ...).
	Mode string `json:"mode,omitempty"`
	// Round is the 1-based protocol round.
	Round int `json:"round,omitempty"`
	// Position is the agent's 1-based ordinal in sequential mode.
	Position int `json:"position,omitempty"`
	// TotalAgents is the participant count of the running task.
	TotalAgents int `json:"total_agents,omitempty"`
	// PreviousResponses holds prior response texts, most recent last.
	PreviousResponses []string `json:"previous_responses,omitempty"`
	// Extra carries protocol-specific hints (goal, consensus score, ...).
	Extra map[string]any `json:"extra,omitempty"`
}

// Response is one agent's answer to a query. It is created once per Query
// call and never mutated afterwards.
type Response struct {
	AgentID    string         `json:"agent_id"`
	Content    string         `json:"content"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ProducedAt time.Time      `json:"produced_at"`
}
