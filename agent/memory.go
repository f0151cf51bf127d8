package agent

import (
	"sync"
	"time"

	"github.com/paperflow-ai/paperflow/llm"
)

// Exchange is one query/answer pair kept in conversation memory.
type Exchange struct {
	Query    string
	Answer   string
	AskedAt  time.Time
	Metadata map[string]any
}

// ConversationMemory keeps a bounded window of recent exchanges. Trimming is
// by exchange count first, then by token budget so the window always fits the
// model context the agent prompts with.
type ConversationMemory struct {
	mu           sync.Mutex
	exchanges    []Exchange
	maxExchanges int
	tokenBudget  int
	counter      llm.TokenCounter
}

// NewConversationMemory creates a memory window. maxExchanges <= 0 defaults
// to 10. A zero tokenBudget disables token trimming. A nil counter falls back
// to the estimator.
func NewConversationMemory(maxExchanges, tokenBudget int, counter llm.TokenCounter) *ConversationMemory {
	if maxExchanges <= 0 {
		maxExchanges = 10
	}
	if counter == nil {
		counter = llm.EstimatorCounter{}
	}
	return &ConversationMemory{
		maxExchanges: maxExchanges,
		tokenBudget:  tokenBudget,
		counter:      counter,
	}
}

// Add records an exchange and trims the window.
func (m *ConversationMemory) Add(e Exchange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exchanges = append(m.exchanges, e)
	if len(m.exchanges) > m.maxExchanges {
		m.exchanges = m.exchanges[len(m.exchanges)-m.maxExchanges:]
	}
	m.trimToBudget()
}

// trimToBudget drops oldest exchanges until the window fits the token budget.
// The most recent exchange is always kept.
func (m *ConversationMemory) trimToBudget() {
	if m.tokenBudget <= 0 {
		return
	}
	for len(m.exchanges) > 1 && m.tokens() > m.tokenBudget {
		m.exchanges = m.exchanges[1:]
	}
}

func (m *ConversationMemory) tokens() int {
	total := 0
	for _, e := range m.exchanges {
		total += m.counter.Count(e.Query) + m.counter.Count(e.Answer)
	}
	return total
}

// Recent returns up to n most recent exchanges, oldest first.
func (m *ConversationMemory) Recent(n int) []Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || n > len(m.exchanges) {
		n = len(m.exchanges)
	}
	out := make([]Exchange, n)
	copy(out, m.exchanges[len(m.exchanges)-n:])
	return out
}

// Len returns the number of retained exchanges.
func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.exchanges)
}

// Clear drops all retained exchanges.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges = nil
}
