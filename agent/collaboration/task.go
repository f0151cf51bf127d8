package collaboration

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mode selects the collaboration protocol.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
	ModeDebate     Mode = "debate"
	ModeConsensus  Mode = "consensus"
)

// Participant bounds and task defaults.
const (
	MinParticipants = 2
	MaxParticipants = 10

	DefaultMaxIterations = 3
	DefaultTimeout       = 5 * time.Minute
)

// Task describes one orchestration request. It is consumed once by
// Orchestrator.Run and never persisted by the core.
type Task struct {
	// TaskID is generated when empty.
	TaskID string `json:"task_id"`
	// TaskType is a free-form label for logs and metrics.
	TaskType string `json:"task_type,omitempty"`
	// Prompt is the question the agents collaborate on.
	Prompt string `json:"prompt"`
	// Participants are registry ids, queried in this order where order
	// matters. 2 to 10 entries, no duplicates.
	Participants []string `json:"participants"`
	// Mode selects the protocol.
	Mode Mode `json:"mode"`
	// MaxIterations bounds debate/consensus rounds. Defaults to 3.
	MaxIterations int `json:"max_iterations,omitempty"`
	// Timeout bounds the whole run. Defaults to 5 minutes.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// NewTask creates a task with generated id and defaults applied.
func NewTask(prompt string, participants []string, mode Mode) *Task {
	t := &Task{
		Prompt:       prompt,
		Participants: participants,
		Mode:         mode,
	}
	t.normalize()
	return t
}

// normalize fills the id and zero-valued bounds.
func (t *Task) normalize() {
	if t.TaskID == "" {
		t.TaskID = uuid.New().String()
	}
	if t.MaxIterations == 0 {
		t.MaxIterations = DefaultMaxIterations
	}
	if t.Timeout == 0 {
		t.Timeout = DefaultTimeout
	}
}

// validate rejects malformed tasks. Registry resolution is checked
// separately so missing agents surface as their own error kind.
func (t *Task) validate() error {
	if n := len(t.Participants); n < MinParticipants || n > MaxParticipants {
		return &InvalidTaskError{
			TaskID: t.TaskID,
			Reason: fmt.Sprintf("participant count %d outside [%d, %d]", n, MinParticipants, MaxParticipants),
		}
	}
	seen := make(map[string]struct{}, len(t.Participants))
	for _, id := range t.Participants {
		if _, dup := seen[id]; dup {
			return &InvalidTaskError{TaskID: t.TaskID, Reason: "duplicate participant " + id}
		}
		seen[id] = struct{}{}
	}
	if t.MaxIterations < 1 {
		return &InvalidTaskError{TaskID: t.TaskID, Reason: "max_iterations must be >= 1"}
	}
	switch t.Mode {
	case ModeSequential, ModeParallel, ModeDebate, ModeConsensus:
	default:
		return &InvalidTaskError{TaskID: t.TaskID, Reason: fmt.Sprintf("unsupported mode %q", t.Mode)}
	}
	return nil
}

// Result is the synthesized outcome of one collaboration run. A successful
// run always returns a complete Result; a failed run returns none.
type Result struct {
	TaskID      string `json:"task_id"`
	Mode        Mode   `json:"mode"`
	Synthesized string `json:"synthesized_response"`
	// PerAgent maps agent id to its last-round response text.
	PerAgent map[string]string `json:"per_agent_responses"`
	// Participants lists the agents that contributed to the last round.
	Participants []string `json:"participating_agents"`
	// Iterations reports how many rounds actually executed.
	Iterations int `json:"iterations_run"`
	// ConsensusScore is the last-round similarity in [0, 1].
	ConsensusScore float64 `json:"consensus_score"`
	// QualityScore weighs confidence and diversity, in [0, 1].
	QualityScore float64 `json:"quality_score"`
	// ConsensusAchieved reports whether consensus mode cleared its target.
	ConsensusAchieved bool `json:"consensus_achieved,omitempty"`
	// Agreements and Disagreements are extracted from the full debate
	// history; empty outside debate mode.
	Agreements    []string      `json:"agreements,omitempty"`
	Disagreements []string      `json:"disagreements,omitempty"`
	Duration      time.Duration `json:"duration"`
}
