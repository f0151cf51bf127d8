package collaboration

import (
	"fmt"
	"strings"

	"github.com/paperflow-ai/paperflow/agent"
)

// Synthesizer folds a round of agent responses into one narrative answer.
// All methods are deterministic and derive output only from their inputs.
type Synthesizer struct{}

// NewSynthesizer returns the default synthesizer.
func NewSynthesizer() *Synthesizer { return &Synthesizer{} }

// Sequential renders a "builds from initial to refined" narrative.
func (s *Synthesizer) Sequential(task *Task, responses []*agent.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on sequential analysis by %d specialized agents:\n\n", len(responses))
	for i, r := range responses {
		fmt.Fprintf(&b, "Agent %d analysis: %s\n\n", i+1, excerpt(r.Content, 200))
	}
	b.WriteString("Integrated conclusion: the sequential analysis builds from initial insights ")
	fmt.Fprintf(&b, "to a refined conclusion addressing: %s", task.Prompt)
	return b.String()
}

// Parallel groups responses by confidence for narrative structure.
func (s *Synthesizer) Parallel(task *Task, responses []*agent.Response) string {
	var high, other []*agent.Response
	for _, r := range responses {
		if r.Confidence > 0.8 {
			high = append(high, r)
		} else {
			other = append(other, r)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Parallel analysis by %d specialized agents reveals:\n\n", len(responses))
	if len(high) > 0 {
		b.WriteString("High confidence insights:\n")
		for _, r := range high {
			fmt.Fprintf(&b, "- %s\n", excerpt(r.Content, 150))
		}
		b.WriteString("\n")
	}
	if len(other) > 0 {
		b.WriteString("Additional considerations:\n")
		for _, r := range other {
			fmt.Fprintf(&b, "- %s\n", excerpt(r.Content, 150))
		}
		b.WriteString("\n")
	}
	b.WriteString("Unified conclusion: the parallel analysis provides multiple perspectives ")
	fmt.Fprintf(&b, "that collectively address the query: %s", task.Prompt)
	return b.String()
}

// Debate renders a balanced conclusion with extracted agreements and
// disagreements.
func (s *Synthesizer) Debate(task *Task, rounds int, agreements, disagreements []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "After %d rounds of debate:\n\n", rounds)
	if len(agreements) > 0 {
		b.WriteString("Points of agreement:\n")
		for _, a := range agreements {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		b.WriteString("\n")
	}
	if len(disagreements) > 0 {
		b.WriteString("Remaining disagreements:\n")
		for _, d := range disagreements {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}
	b.WriteString("Balanced conclusion: through debate, the agents have explored ")
	fmt.Fprintf(&b, "multiple facets of: %s", task.Prompt)
	return b.String()
}

// Consensus frames the conclusion by agreement level.
func (s *Synthesizer) Consensus(task *Task, responses []*agent.Response, score float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Consensus analysis (agreement level: %.1f%%):\n\n", score*100)
	for _, r := range responses {
		fmt.Fprintf(&b, "- %s: %s\n", r.AgentID, excerpt(r.Content, 150))
	}

	level := "partial consensus"
	switch {
	case score > 0.8:
		level = "strong consensus"
	case score > 0.6:
		level = "moderate consensus"
	}
	fmt.Fprintf(&b, "\nConsensus conclusion: the agents have reached %s on the key aspects of: %s", level, task.Prompt)
	return b.String()
}

// Quality scores a set of contributions: 0.6 weight on average confidence,
// 0.4 on diversity, where diversity is the share of distinct first-100-rune
// prefixes. Near-identical answers from every agent score low even when each
// is individually confident.
func (s *Synthesizer) Quality(responses []*agent.Response) float64 {
	if len(responses) == 0 {
		return 0
	}

	var confSum float64
	prefixes := make(map[string]struct{}, len(responses))
	for _, r := range responses {
		confSum += r.Confidence
		prefixes[excerpt(r.Content, 100)] = struct{}{}
	}
	avgConfidence := confSum / float64(len(responses))
	diversity := float64(len(prefixes)) / float64(len(responses))

	return clamp01(avgConfidence*0.6 + diversity*0.4)
}

// excerpt truncates s to at most n runes, marking the cut with an ellipsis.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
