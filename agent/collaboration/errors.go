package collaboration

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTask is the sentinel wrapped by InvalidTaskError.
	ErrInvalidTask = errors.New("invalid collaboration task")

	// ErrNoAgentResponded is the sentinel wrapped by NoAgentRespondedError.
	ErrNoAgentResponded = errors.New("no agent responded")

	// ErrTimeout is the sentinel wrapped by TimeoutError.
	ErrTimeout = errors.New("collaboration timed out")
)

// InvalidTaskError reports a malformed task, detected before any agent is
// contacted.
type InvalidTaskError struct {
	TaskID string
	Reason string
}

func (e *InvalidTaskError) Error() string {
	return fmt.Sprintf("task %s invalid: %s", e.TaskID, e.Reason)
}

func (e *InvalidTaskError) Unwrap() error { return ErrInvalidTask }

// NoAgentRespondedError reports a round in which every participant failed.
type NoAgentRespondedError struct {
	TaskID string
	Mode   Mode
	Round  int
}

func (e *NoAgentRespondedError) Error() string {
	return fmt.Sprintf("task %s (%s): no agent responded in round %d", e.TaskID, e.Mode, e.Round)
}

func (e *NoAgentRespondedError) Unwrap() error { return ErrNoAgentResponded }

// TimeoutError reports that the whole run exceeded the task timeout. No
// partial result accompanies it.
type TimeoutError struct {
	TaskID  string
	Mode    Mode
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s (%s) timed out after %s", e.TaskID, e.Mode, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }
