package collaboration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paperflow-ai/paperflow/agent"
)

func resp(id, content string, confidence float64) *agent.Response {
	return &agent.Response{AgentID: id, Content: content, Confidence: confidence}
}

func TestSynthesizer_Sequential(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer()
	task := NewTask("How does it scale?", []string{"a1", "a2"}, ModeSequential)

	out := s.Sequential(task, []*agent.Response{
		resp("a1", "initial framing", 0.8),
		resp("a2", "refined answer", 0.8),
	})

	assert.Contains(t, out, "sequential analysis by 2 specialized agents")
	assert.Contains(t, out, "Agent 1 analysis: initial framing")
	assert.Contains(t, out, "Agent 2 analysis: refined answer")
	assert.Contains(t, out, "How does it scale?")
}

func TestSynthesizer_Parallel_GroupsByConfidence(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer()
	task := NewTask("q", []string{"a1", "a2", "a3"}, ModeParallel)

	out := s.Parallel(task, []*agent.Response{
		resp("a1", "confident claim", 0.95),
		resp("a2", "tentative claim", 0.5),
		resp("a3", "borderline claim", 0.8),
	})

	highIdx := strings.Index(out, "High confidence insights")
	otherIdx := strings.Index(out, "Additional considerations")
	assert.Greater(t, highIdx, -1)
	assert.Greater(t, otherIdx, highIdx)
	assert.Contains(t, out, "- confident claim")
	// Exactly 0.8 does not qualify as high confidence.
	assert.Contains(t, out[otherIdx:], "borderline claim")
}

func TestSynthesizer_Parallel_AllHighConfidence(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer()
	task := NewTask("q", []string{"a1", "a2"}, ModeParallel)

	out := s.Parallel(task, []*agent.Response{
		resp("a1", "x", 0.9),
		resp("a2", "y", 0.9),
	})
	assert.NotContains(t, out, "Additional considerations")
}

func TestSynthesizer_Debate(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer()
	task := NewTask("q", []string{"a1", "a2"}, ModeDebate)

	out := s.Debate(task, 3,
		[]string{"both accept the baseline"},
		[]string{"sample efficiency is contested"},
	)

	assert.Contains(t, out, "After 3 rounds of debate")
	assert.Contains(t, out, "Points of agreement:\n- both accept the baseline")
	assert.Contains(t, out, "Remaining disagreements:\n- sample efficiency is contested")
}

func TestSynthesizer_Debate_OmitsEmptySections(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer()
	task := NewTask("q", []string{"a1", "a2"}, ModeDebate)

	out := s.Debate(task, 1, nil, nil)
	assert.NotContains(t, out, "Points of agreement")
	assert.NotContains(t, out, "Remaining disagreements")
}

func TestSynthesizer_Consensus_Levels(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer()
	task := NewTask("q", []string{"a1", "a2"}, ModeConsensus)
	responses := []*agent.Response{resp("a1", "x", 0.8), resp("a2", "y", 0.8)}

	tests := []struct {
		score float64
		level string
	}{
		{0.95, "strong consensus"},
		{0.7, "moderate consensus"},
		{0.3, "partial consensus"},
		// Boundary values fall into the weaker bucket.
		{0.8, "moderate consensus"},
		{0.6, "partial consensus"},
	}
	for _, tt := range tests {
		out := s.Consensus(task, responses, tt.score)
		assert.Contains(t, out, tt.level, "score %.2f", tt.score)
	}
}

func TestSynthesizer_Quality(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, s.Quality(nil))
	})

	t.Run("confidence and diversity weighted", func(t *testing.T) {
		t.Parallel()
		// avg confidence 0.8 with fully distinct answers: 0.6*0.8 + 0.4*1.0.
		score := s.Quality([]*agent.Response{
			resp("a1", "transformers dominate the benchmarks", 0.9),
			resp("a2", "state space models close the gap", 0.7),
		})
		assert.InDelta(t, 0.88, score, 1e-9)
	})

	t.Run("identical answers lose diversity credit", func(t *testing.T) {
		t.Parallel()
		same := "the very same answer from everyone"
		score := s.Quality([]*agent.Response{
			resp("a1", same, 1.0),
			resp("a2", same, 1.0),
		})
		// 0.6*1.0 + 0.4*(1/2).
		assert.InDelta(t, 0.8, score, 1e-9)
	})

	t.Run("diversity keys on the first 100 runes", func(t *testing.T) {
		t.Parallel()
		prefix := strings.Repeat("p", 100)
		score := s.Quality([]*agent.Response{
			resp("a1", prefix+" tail one", 1.0),
			resp("a2", prefix+" tail two", 1.0),
		})
		assert.InDelta(t, 0.8, score, 1e-9)
	})
}

func TestExcerpt(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "abcde...", excerpt("abcdefgh", 5))
	// Runes, not bytes.
	assert.Equal(t, "日本語...", excerpt("日本語テキスト", 3))
}
