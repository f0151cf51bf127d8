package paper

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paperflow-ai/paperflow/agent"
	"github.com/paperflow-ai/paperflow/llm"
)

// Factory turns stored papers into registered agents.
type Factory struct {
	store    *Store
	registry *agent.Registry
	provider llm.Provider
	cfg      agent.PaperAgentConfig
	opts     []agent.PaperAgentOption
	logger   *zap.Logger
}

// NewFactory wires the store, registry and provider used for onboarding.
// opts are applied to every agent the factory creates.
func NewFactory(store *Store, registry *agent.Registry, provider llm.Provider, cfg agent.PaperAgentConfig, logger *zap.Logger, opts ...agent.PaperAgentOption) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		store:    store,
		registry: registry,
		provider: provider,
		cfg:      cfg,
		opts:     opts,
		logger:   logger.With(zap.String("component", "paper_factory")),
	}
}

// Onboard loads a stored paper and registers its agent. The returned agent
// answers under the ID "paper-<uuid>".
func (f *Factory) Onboard(ctx context.Context, paperID string) (*agent.PaperAgent, error) {
	p, err := f.store.Get(ctx, paperID)
	if err != nil {
		return nil, err
	}
	return f.onboard(p)
}

// OnboardAll registers agents for every stored paper. Papers whose agent ID
// is already registered are skipped.
func (f *Factory) OnboardAll(ctx context.Context) (int, error) {
	papers, err := f.store.List(ctx, 0, 0)
	if err != nil {
		return 0, err
	}

	onboarded := 0
	for _, p := range papers {
		if _, err := f.registry.Resolve(p.AgentID()); err == nil {
			continue
		}
		if _, err := f.onboard(p); err != nil {
			return onboarded, fmt.Errorf("onboard paper %s: %w", p.ID, err)
		}
		onboarded++
	}

	f.logger.Info("papers onboarded", zap.Int("count", onboarded))
	return onboarded, nil
}

// Retire unregisters the agent for a paper. Retiring a paper that was never
// onboarded is a no-op.
func (f *Factory) Retire(paperID string) {
	f.registry.Unregister("paper-" + paperID)
}

func (f *Factory) onboard(p *Paper) (*agent.PaperAgent, error) {
	meta := agent.PaperMeta{
		ID:         p.ID,
		ArxivID:    p.ArxivID,
		Title:      p.Title,
		Abstract:   p.Abstract,
		Authors:    p.Authors,
		Categories: p.Categories,
	}

	a := agent.NewPaperAgent(p.AgentID(), meta, f.provider, f.cfg, f.logger, f.opts...)
	if err := f.registry.Register(a); err != nil {
		return nil, err
	}

	f.logger.Debug("paper agent registered",
		zap.String("paper_id", p.ID),
		zap.String("agent_id", a.ID()),
	)
	return a, nil
}
