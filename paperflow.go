// Package paperflow provides a top-level entry point wiring the full
// research-paper intelligence stack: paper store, response cache, LLM
// provider, agent registry, and collaboration orchestrator.
//
// Usage:
//
//	cfg, err := config.NewLoader().WithConfigPath("paperflow.yaml").Load()
//	sys, err := paperflow.New(cfg)
//	defer sys.Close(ctx)
//
//	result, err := sys.Orchestrator().Run(ctx, task)
package paperflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/paperflow-ai/paperflow/agent"
	"github.com/paperflow-ai/paperflow/agent/collaboration"
	"github.com/paperflow-ai/paperflow/config"
	"github.com/paperflow-ai/paperflow/internal/cache"
	"github.com/paperflow-ai/paperflow/internal/metrics"
	"github.com/paperflow-ai/paperflow/internal/telemetry"
	"github.com/paperflow-ai/paperflow/llm"
	"github.com/paperflow-ai/paperflow/paper"
)

// System holds the wired components of a running PaperFlow instance.
type System struct {
	cfg *config.Config

	logger       *zap.Logger
	store        *paper.Store
	cache        *cache.Manager
	provider     llm.Provider
	registry     *agent.Registry
	orchestrator *collaboration.Orchestrator
	factory      *paper.Factory
	collector    *metrics.Collector
	telemetry    *telemetry.Providers
}

// New wires a System from configuration. Components that are disabled in
// cfg (cache, telemetry) are left nil and the rest run without them.
func New(cfg *config.Config) (*System, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	sys := &System{cfg: cfg, logger: logger}

	sys.telemetry, err = telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	sys.store, err = paper.NewStore(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open paper store: %w", err)
	}

	if cfg.Redis.Enabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Addr = cfg.Redis.Addr
		cacheCfg.Password = cfg.Redis.Password
		cacheCfg.DB = cfg.Redis.DB
		cacheCfg.DefaultTTL = cfg.Redis.DefaultTTL
		cacheCfg.PoolSize = cfg.Redis.PoolSize

		sys.cache, err = cache.NewManager(cacheCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect response cache: %w", err)
		}
	}

	sys.collector = metrics.NewCollector("paperflow", prometheus.DefaultRegisterer, logger)

	provider := llm.Provider(llm.NewOpenAICompatProvider(llm.OpenAICompatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger))
	if cfg.LLM.RequestsPerSecond > 0 {
		provider = llm.RateLimited(provider, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
	}
	sys.provider = provider

	sys.registry = agent.NewRegistry(logger)

	sys.orchestrator = collaboration.NewOrchestrator(sys.registry,
		collaboration.WithLogger(logger),
		collaboration.WithMetrics(sys.collector),
		collaboration.WithConsensusTarget(cfg.Collaboration.ConsensusTarget),
		collaboration.WithConvergenceDetector(&collaboration.ConvergenceDetector{
			Threshold: cfg.Collaboration.ConvergenceThreshold,
		}),
	)

	agentCfg := agent.DefaultPaperAgentConfig()
	agentCfg.Model = cfg.LLM.Model
	agentCfg.Temperature = float32(cfg.Agent.Temperature)
	agentCfg.MaxTokens = cfg.Agent.MaxTokens
	agentCfg.MaxExchanges = cfg.Agent.MaxExchanges
	agentCfg.MemoryTokenBudget = cfg.Agent.MemoryTokenBudget
	agentCfg.CacheTTL = cfg.Redis.DefaultTTL

	var agentOpts []agent.PaperAgentOption
	if sys.cache != nil {
		agentOpts = append(agentOpts, agent.WithResponseCache(sys.cache))
	}
	if cfg.Agent.TokenEncoding != "" {
		agentOpts = append(agentOpts, agent.WithTokenCounter(llm.NewTiktokenCounter(cfg.Agent.TokenEncoding)))
	}

	sys.factory = paper.NewFactory(sys.store, sys.registry, sys.provider, agentCfg, logger, agentOpts...)

	logger.Info("paperflow system initialized",
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("cache_enabled", cfg.Redis.Enabled),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
	)
	return sys, nil
}

// Logger returns the root logger.
func (s *System) Logger() *zap.Logger { return s.logger }

// Store returns the paper store.
func (s *System) Store() *paper.Store { return s.store }

// Registry returns the agent registry.
func (s *System) Registry() *agent.Registry { return s.registry }

// Orchestrator returns the collaboration orchestrator.
func (s *System) Orchestrator() *collaboration.Orchestrator { return s.orchestrator }

// Factory returns the paper-agent factory.
func (s *System) Factory() *paper.Factory { return s.factory }

// Provider returns the configured LLM provider.
func (s *System) Provider() llm.Provider { return s.provider }

// Close flushes telemetry and releases connections.
func (s *System) Close(ctx context.Context) error {
	var errs []error
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if err := s.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
	}
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

// newLogger builds a zap logger from LogConfig.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
