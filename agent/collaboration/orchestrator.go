package collaboration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paperflow-ai/paperflow/agent"
	"github.com/paperflow-ai/paperflow/internal/metrics"
)

const defaultConsensusTarget = 0.8

// Orchestrator drives collaboration tasks against a populated registry. The
// registry is resolved once per run; agents registered or retired mid-task
// do not affect a running protocol.
type Orchestrator struct {
	registry        *agent.Registry
	synth           *Synthesizer
	detector        *ConvergenceDetector
	similarity      SimilarityFunc
	extractor       AgreementExtractor
	consensusTarget float64

	logger    *zap.Logger
	collector *metrics.Collector
	tracer    trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics wires a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.collector = c }
}

// WithSimilarity replaces the consensus similarity heuristic. The substitute
// must stay symmetric, bounded to [0, 1], higher = more similar.
func WithSimilarity(fn SimilarityFunc) Option {
	return func(o *Orchestrator) { o.similarity = fn }
}

// WithConvergenceDetector replaces the debate convergence heuristic.
func WithConvergenceDetector(d *ConvergenceDetector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithAgreementExtractor replaces the debate agreement/disagreement
// extraction.
func WithAgreementExtractor(x AgreementExtractor) Option {
	return func(o *Orchestrator) { o.extractor = x }
}

// WithConsensusTarget overrides the score above which consensus mode stops.
func WithConsensusTarget(target float64) Option {
	return func(o *Orchestrator) { o.consensusTarget = target }
}

// NewOrchestrator creates an orchestrator over registry.
func NewOrchestrator(registry *agent.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:        registry,
		synth:           NewSynthesizer(),
		detector:        NewConvergenceDetector(),
		similarity:      LengthVarianceSimilarity,
		extractor:       NewLexicalExtractor(),
		consensusTarget: defaultConsensusTarget,
		tracer:          otel.Tracer("github.com/paperflow-ai/paperflow/agent/collaboration"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	o.logger = o.logger.With(zap.String("component", "collaboration_orchestrator"))
	return o
}

// Run executes one collaboration task and returns the synthesized result.
// Validation happens before any agent is contacted; the whole run is bounded
// by the task timeout, and a run that exceeds it fails without a partial
// result.
func (o *Orchestrator) Run(ctx context.Context, task *Task) (*Result, error) {
	start := time.Now()
	task.normalize()

	if err := task.validate(); err != nil {
		o.collector.RecordCollaboration(string(task.Mode), "invalid", time.Since(start), 0)
		return nil, err
	}

	participants, err := o.registry.ResolveAll(task.Participants)
	if err != nil {
		o.collector.RecordCollaboration(string(task.Mode), "unresolved", time.Since(start), 0)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "collaboration.run", trace.WithAttributes(
		attribute.String("task.id", task.TaskID),
		attribute.String("task.mode", string(task.Mode)),
		attribute.Int("task.participants", len(task.Participants)),
	))
	defer span.End()

	o.logger.Info("collaboration started",
		zap.String("task_id", task.TaskID),
		zap.String("mode", string(task.Mode)),
		zap.Int("participants", len(participants)),
	)

	var result *Result
	switch task.Mode {
	case ModeSequential:
		result, err = o.runSequential(ctx, task, participants)
	case ModeParallel:
		result, err = o.runParallel(ctx, task, participants)
	case ModeDebate:
		result, err = o.runDebate(ctx, task, participants)
	case ModeConsensus:
		result, err = o.runConsensus(ctx, task, participants)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &TimeoutError{TaskID: task.TaskID, Mode: task.Mode, Timeout: task.Timeout}
		}
		span.RecordError(err)
		o.collector.RecordCollaboration(string(task.Mode), "error", time.Since(start), 0)
		o.logger.Warn("collaboration failed",
			zap.String("task_id", task.TaskID),
			zap.Error(err),
		)
		return nil, err
	}

	result.Duration = time.Since(start)
	o.collector.RecordCollaboration(string(task.Mode), "ok", result.Duration, result.Iterations)
	o.collector.RecordConsensusScore(string(task.Mode), result.ConsensusScore)

	o.logger.Info("collaboration completed",
		zap.String("task_id", task.TaskID),
		zap.Int("iterations", result.Iterations),
		zap.Float64("consensus_score", result.ConsensusScore),
		zap.Float64("quality_score", result.QualityScore),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// runSequential serializes one pass over the participants; each agent sees a
// bounded excerpt of its predecessor's answer rather than the full history.
func (o *Orchestrator) runSequential(ctx context.Context, task *Task, agents []agent.Agent) (*Result, error) {
	var responses []*agent.Response
	prompt := task.Prompt

	for i, ag := range agents {
		qc := &agent.QueryContext{
			Mode:              string(ModeSequential),
			Round:             1,
			Position:          i + 1,
			TotalAgents:       len(agents),
			PreviousResponses: lastTexts(responses, 3),
		}

		qStart := time.Now()
		resp, err := ag.Query(ctx, prompt, qc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			o.collector.RecordAgentQuery(ag.ID(), "error", time.Since(qStart))
			o.logger.Warn("agent dropped from sequential round",
				zap.String("task_id", task.TaskID),
				zap.String("agent_id", ag.ID()),
				zap.Error(err),
			)
			continue
		}
		o.collector.RecordAgentQuery(ag.ID(), "ok", time.Since(qStart))
		responses = append(responses, resp)

		prompt = fmt.Sprintf("%s\n\nPrevious agent (%s) responded: %s",
			task.Prompt, ag.ID(), excerpt(resp.Content, 200))
	}

	if len(responses) == 0 {
		return nil, &NoAgentRespondedError{TaskID: task.TaskID, Mode: task.Mode, Round: 1}
	}

	result := o.newResult(task, responses, 1)
	result.Synthesized = o.synth.Sequential(task, responses)
	return result, nil
}

// runParallel fans the identical prompt out to every participant at once.
func (o *Orchestrator) runParallel(ctx context.Context, task *Task, agents []agent.Agent) (*Result, error) {
	prompts := make([]string, len(agents))
	qcs := make([]*agent.QueryContext, len(agents))
	for i := range agents {
		prompts[i] = task.Prompt
		qcs[i] = &agent.QueryContext{
			Mode:        string(ModeParallel),
			Round:       1,
			TotalAgents: len(agents),
		}
	}

	responses, err := o.fanOut(ctx, task, agents, prompts, qcs, 1)
	if err != nil {
		return nil, err
	}

	result := o.newResult(task, responses, 1)
	result.Synthesized = o.synth.Parallel(task, responses)
	return result, nil
}

// runDebate alternates counter-argument rounds until convergence or the
// iteration bound. Each agent only ever sees its peers' latest answers,
// never its own.
func (o *Orchestrator) runDebate(ctx context.Context, task *Task, agents []agent.Agent) (*Result, error) {
	prompts := make([]string, len(agents))
	qcs := make([]*agent.QueryContext, len(agents))
	for i := range agents {
		prompts[i] = task.Prompt
		qcs[i] = &agent.QueryContext{
			Mode:        string(ModeDebate),
			Round:       1,
			TotalAgents: len(agents),
		}
	}

	current, err := o.fanOut(ctx, task, agents, prompts, qcs, 1)
	if err != nil {
		return nil, err
	}
	history := [][]*agent.Response{current}
	rounds := 1

	for rounds < task.MaxIterations {
		for i, ag := range agents {
			var b strings.Builder
			fmt.Fprintf(&b, "Original query: %s\n\n", task.Prompt)
			b.WriteString("Other agents have responded:\n")

			var others []string
			for _, r := range current {
				if r.AgentID == ag.ID() {
					continue
				}
				fmt.Fprintf(&b, "- %s: %s\n", r.AgentID, excerpt(r.Content, 150))
				others = append(others, r.Content)
			}
			b.WriteString("\nProvide your counter-argument or refined response:")

			prompts[i] = b.String()
			qcs[i] = &agent.QueryContext{
				Mode:              string(ModeDebate),
				Round:             rounds + 1,
				TotalAgents:       len(agents),
				PreviousResponses: others,
			}
		}

		next, err := o.fanOut(ctx, task, agents, prompts, qcs, rounds+1)
		if err != nil {
			return nil, err
		}
		history = append(history, next)
		rounds++

		converged := o.detector.Converged(next, current)
		current = next
		if converged {
			o.logger.Debug("debate converged",
				zap.String("task_id", task.TaskID),
				zap.Int("round", rounds),
			)
			break
		}
	}

	agreements, disagreements := o.extractor.Extract(history)

	result := o.newResult(task, current, rounds)
	result.Agreements = agreements
	result.Disagreements = disagreements
	result.QualityScore = o.synth.Quality(flatten(history))
	result.Synthesized = o.synth.Debate(task, rounds, agreements, disagreements)
	return result, nil
}

// runConsensus iterates reconciliation rounds until the similarity score
// clears the target or the iteration bound is hit.
func (o *Orchestrator) runConsensus(ctx context.Context, task *Task, agents []agent.Agent) (*Result, error) {
	prompts := make([]string, len(agents))
	qcs := make([]*agent.QueryContext, len(agents))
	for i := range agents {
		prompts[i] = task.Prompt
		qcs[i] = &agent.QueryContext{
			Mode:        string(ModeConsensus),
			Round:       1,
			TotalAgents: len(agents),
			Extra:       map[string]any{"goal": "work towards consensus"},
		}
	}

	current, err := o.fanOut(ctx, task, agents, prompts, qcs, 1)
	if err != nil {
		return nil, err
	}
	rounds := 1
	score := o.similarity(current)

	for score <= o.consensusTarget && rounds < task.MaxIterations {
		var b strings.Builder
		fmt.Fprintf(&b, "Original query: %s\n\n", task.Prompt)
		b.WriteString("Current responses from the team:\n")
		for _, r := range current {
			fmt.Fprintf(&b, "- %s: %s\n", r.AgentID, excerpt(r.Content, 150))
		}
		b.WriteString("\nWork towards a consensus by finding common ground and addressing differences:")
		prompt := b.String()

		for i := range agents {
			prompts[i] = prompt
			qcs[i] = &agent.QueryContext{
				Mode:              string(ModeConsensus),
				Round:             rounds + 1,
				TotalAgents:       len(agents),
				PreviousResponses: texts(current),
				Extra:             map[string]any{"consensus_score": score},
			}
		}

		next, err := o.fanOut(ctx, task, agents, prompts, qcs, rounds+1)
		if err != nil {
			return nil, err
		}
		current = next
		rounds++
		score = o.similarity(current)
	}

	result := o.newResult(task, current, rounds)
	result.ConsensusScore = score
	result.ConsensusAchieved = score > o.consensusTarget
	result.Synthesized = o.synth.Consensus(task, current, score)
	return result, nil
}

// fanOut issues one concurrent query per agent and collects responses in
// participant order. Individual failures are absorbed; the round fails only
// when the deadline expires (discarding partial completions) or when every
// agent failed.
func (o *Orchestrator) fanOut(ctx context.Context, task *Task, agents []agent.Agent, prompts []string, qcs []*agent.QueryContext, round int) ([]*agent.Response, error) {
	results := make([]*agent.Response, len(agents))

	var g errgroup.Group
	for i, ag := range agents {
		i, ag := i, ag
		g.Go(func() error {
			qStart := time.Now()
			resp, err := ag.Query(ctx, prompts[i], qcs[i])
			if err != nil {
				o.collector.RecordAgentQuery(ag.ID(), "error", time.Since(qStart))
				o.logger.Warn("agent dropped from round",
					zap.String("task_id", task.TaskID),
					zap.String("agent_id", ag.ID()),
					zap.Int("round", round),
					zap.Error(err),
				)
				return nil
			}
			o.collector.RecordAgentQuery(ag.ID(), "ok", time.Since(qStart))
			results[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	responses := make([]*agent.Response, 0, len(agents))
	for _, r := range results {
		if r != nil {
			responses = append(responses, r)
		}
	}
	if len(responses) == 0 {
		return nil, &NoAgentRespondedError{TaskID: task.TaskID, Mode: task.Mode, Round: round}
	}

	trace.SpanFromContext(ctx).AddEvent("round completed", trace.WithAttributes(
		attribute.Int("round", round),
		attribute.Int("responses", len(responses)),
	))
	return responses, nil
}

// newResult assembles the per-agent view of the last round plus the default
// scores. Protocols override the fields they compute differently.
func (o *Orchestrator) newResult(task *Task, last []*agent.Response, iterations int) *Result {
	perAgent := make(map[string]string, len(last))
	ids := make([]string, 0, len(last))
	for _, r := range last {
		perAgent[r.AgentID] = r.Content
		ids = append(ids, r.AgentID)
	}
	return &Result{
		TaskID:         task.TaskID,
		Mode:           task.Mode,
		PerAgent:       perAgent,
		Participants:   ids,
		Iterations:     iterations,
		ConsensusScore: o.similarity(last),
		QualityScore:   o.synth.Quality(last),
	}
}

func lastTexts(responses []*agent.Response, n int) []string {
	if len(responses) > n {
		responses = responses[len(responses)-n:]
	}
	return texts(responses)
}

func texts(responses []*agent.Response) []string {
	out := make([]string, len(responses))
	for i, r := range responses {
		out[i] = r.Content
	}
	return out
}

func flatten(history [][]*agent.Response) []*agent.Response {
	var out []*agent.Response
	for _, round := range history {
		out = append(out, round...)
	}
	return out
}
