package agent

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateAgent is returned by Registry.Register when the id is taken.
	ErrDuplicateAgent = errors.New("agent already registered")

	// ErrAgentNotFound is the sentinel wrapped by NotFoundError.
	ErrAgentNotFound = errors.New("agent not found")
)

// NotFoundError reports every participant id that failed to resolve, so the
// caller can surface the complete problem in one error.
type NotFoundError struct {
	Missing []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agents not registered: %s", strings.Join(e.Missing, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrAgentNotFound }
