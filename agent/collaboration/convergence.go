package collaboration

import (
	"unicode/utf8"

	"github.com/paperflow-ai/paperflow/agent"
)

// SimilarityFunc scores how alike a round of responses is. The contract:
// symmetric in its inputs, bounded to [0, 1], higher means more similar.
// Any substitute (e.g. embedding cosine similarity) must preserve it.
type SimilarityFunc func(responses []*agent.Response) float64

// LengthVarianceSimilarity maps the variance of response lengths relative to
// the mean length onto [0, 1]: score = 1 - variance/mean². A crude proxy for
// semantic agreement, kept as the default because it is cheap and
// deterministic.
func LengthVarianceSimilarity(responses []*agent.Response) float64 {
	if len(responses) < 2 {
		return 1.0
	}

	lengths := make([]float64, len(responses))
	var sum float64
	for i, r := range responses {
		lengths[i] = float64(utf8.RuneCountInString(r.Content))
		sum += lengths[i]
	}
	mean := sum / float64(len(lengths))
	if mean == 0 {
		// All responses empty, therefore identical.
		return 1.0
	}

	var variance float64
	for _, l := range lengths {
		d := l - mean
		variance += d * d
	}
	variance /= float64(len(lengths))

	return clamp01(1.0 - variance/(mean*mean))
}

// ConvergenceDetector decides whether an iterative protocol should stop
// early. The default heuristic compares mean response lengths between
// consecutive rounds.
type ConvergenceDetector struct {
	// Threshold is the relative mean-length change below which two rounds
	// count as converged.
	Threshold float64
}

// NewConvergenceDetector returns a detector with the 10% default threshold.
func NewConvergenceDetector() *ConvergenceDetector {
	return &ConvergenceDetector{Threshold: 0.10}
}

// Converged reports whether current changed less than Threshold relative to
// previous. Empty rounds never converge.
func (d *ConvergenceDetector) Converged(current, previous []*agent.Response) bool {
	if len(current) == 0 || len(previous) == 0 {
		return false
	}

	curMean := meanLength(current)
	prevMean := meanLength(previous)
	if prevMean == 0 {
		return curMean == 0
	}

	change := curMean - prevMean
	if change < 0 {
		change = -change
	}
	return change/prevMean < d.Threshold
}

func meanLength(responses []*agent.Response) float64 {
	var sum float64
	for _, r := range responses {
		sum += float64(utf8.RuneCountInString(r.Content))
	}
	return sum / float64(len(responses))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
