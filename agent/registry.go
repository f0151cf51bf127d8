package agent

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry is the process-wide mapping from agent id to Agent. It is
// read-mostly: collaboration runs only resolve, while onboarding registers
// and retires. An RWMutex keeps both safe to interleave.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		agents: make(map[string]Agent),
		logger: logger.With(zap.String("component", "agent_registry")),
	}
}

// Register adds an agent. An id, once registered, maps to exactly one agent
// until unregistered; registering it again fails with ErrDuplicateAgent.
func (r *Registry) Register(a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if _, ok := r.agents[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, id)
	}
	r.agents[id] = a

	r.logger.Info("agent registered",
		zap.String("agent_id", id),
		zap.String("name", a.Name()),
	)
	return nil
}

// Unregister removes an agent. Removing an absent id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[id]; !ok {
		return
	}
	delete(r.agents, id)
	r.logger.Info("agent unregistered", zap.String("agent_id", id))
}

// Resolve returns the agent for id.
func (r *Registry) Resolve(id string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return nil, &NotFoundError{Missing: []string{id}}
	}
	return a, nil
}

// ResolveAll returns the agents for ids in the given order. When any id is
// unresolved it fails with a NotFoundError listing all missing ids at once,
// not just the first.
func (r *Registry) ResolveAll(ids []string) ([]Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make([]Agent, 0, len(ids))
	var missing []string
	for _, id := range ids {
		a, ok := r.agents[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		resolved = append(resolved, a)
	}
	if len(missing) > 0 {
		return nil, &NotFoundError{Missing: missing}
	}
	return resolved, nil
}

// IDs returns the registered agent ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
