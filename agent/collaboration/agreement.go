package collaboration

import (
	"strings"
	"unicode"

	"github.com/paperflow-ai/paperflow/agent"
)

// AgreementExtractor derives points of agreement and disagreement from a
// multi-round collaboration history. Implementations must be deterministic
// and derive output only from the given responses.
type AgreementExtractor interface {
	Extract(history [][]*agent.Response) (agreements, disagreements []string)
}

// LexicalExtractor finds agreements and disagreements by lexical overlap:
// every response is split into sentences, each sentence reduced to a
// stopword-filtered term set, and sentences are matched across agents by
// Jaccard similarity. A sentence echoed by another agent is an agreement; a
// substantial sentence no other agent comes near is a disagreement. An
// embedding-based extractor can replace this behind the same interface.
type LexicalExtractor struct {
	// AgreementThreshold is the minimum cross-agent Jaccard similarity for
	// a sentence to count as agreed.
	AgreementThreshold float64
	// DisagreementThreshold is the maximum best-match similarity for a
	// sentence to count as contested.
	DisagreementThreshold float64
	// MinTerms filters out sentences too short to be meaningful points.
	MinTerms int
	// MaxItems caps each output list.
	MaxItems int
}

// NewLexicalExtractor returns an extractor with the default thresholds.
func NewLexicalExtractor() *LexicalExtractor {
	return &LexicalExtractor{
		AgreementThreshold:    0.5,
		DisagreementThreshold: 0.15,
		MinTerms:              4,
		MaxItems:              5,
	}
}

type sentence struct {
	agentID string
	text    string
	terms   map[string]struct{}
}

// Extract scans the entire history, not just the last round, so points
// conceded mid-debate still register.
func (x *LexicalExtractor) Extract(history [][]*agent.Response) (agreements, disagreements []string) {
	sentences := x.collect(history)
	if len(sentences) == 0 {
		return nil, nil
	}

	seenAgree := make(map[string]struct{})
	seenDisagree := make(map[string]struct{})

	for i, s := range sentences {
		best := 0.0
		bestIdx := -1
		for j, other := range sentences {
			if i == j || other.agentID == s.agentID {
				continue
			}
			if sim := jaccard(s.terms, other.terms); sim > best {
				best = sim
				bestIdx = j
			}
		}

		switch {
		case bestIdx >= 0 && best >= x.AgreementThreshold:
			// Keep the shorter phrasing of the matched pair.
			text := s.text
			if len(sentences[bestIdx].text) < len(text) {
				text = sentences[bestIdx].text
			}
			key := normalizeKey(text)
			if _, dup := seenAgree[key]; !dup && len(agreements) < x.MaxItems {
				seenAgree[key] = struct{}{}
				agreements = append(agreements, text)
			}
		case best <= x.DisagreementThreshold:
			key := normalizeKey(s.text)
			if _, dup := seenDisagree[key]; !dup && len(disagreements) < x.MaxItems {
				seenDisagree[key] = struct{}{}
				disagreements = append(disagreements, s.text)
			}
		}
	}
	return agreements, disagreements
}

// collect flattens the history into qualifying sentences in round order, so
// output ordering is stable across runs.
func (x *LexicalExtractor) collect(history [][]*agent.Response) []sentence {
	var out []sentence
	for _, round := range history {
		for _, r := range round {
			for _, text := range splitSentences(r.Content) {
				terms := termSet(text)
				if len(terms) < x.MinTerms {
					continue
				}
				out = append(out, sentence{agentID: r.AgentID, text: text, terms: terms})
			}
		}
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, strings.TrimRight(s, ".!?\n"))
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "their": {}, "this": {}, "to": {}, "was": {},
	"we": {}, "which": {}, "with": {}, "would": {}, "can": {}, "not": {},
}

func termSet(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(w) < 2 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		terms[w] = struct{}{}
	}
	return terms
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func normalizeKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
