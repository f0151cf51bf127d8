package agent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter struct{ perText int }

func (c fixedCounter) Count(string) int { return c.perText }

func TestConversationMemory_Defaults(t *testing.T) {
	t.Parallel()
	m := NewConversationMemory(0, 0, nil)
	for i := 0; i < 15; i++ {
		m.Add(Exchange{Query: fmt.Sprintf("q%d", i), Answer: "a"})
	}
	assert.Equal(t, 10, m.Len())
}

func TestConversationMemory_TrimsByExchangeCount(t *testing.T) {
	t.Parallel()
	m := NewConversationMemory(3, 0, nil)
	for i := 0; i < 5; i++ {
		m.Add(Exchange{Query: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)})
	}

	require.Equal(t, 3, m.Len())
	recent := m.Recent(0)
	assert.Equal(t, "q2", recent[0].Query)
	assert.Equal(t, "q4", recent[2].Query)
}

func TestConversationMemory_TrimsByTokenBudget(t *testing.T) {
	t.Parallel()
	// Each exchange costs 20 tokens (10 query + 10 answer); budget fits two.
	m := NewConversationMemory(10, 40, fixedCounter{perText: 10})
	m.Add(Exchange{Query: "q1", Answer: "a1"})
	m.Add(Exchange{Query: "q2", Answer: "a2"})
	assert.Equal(t, 2, m.Len())

	m.Add(Exchange{Query: "q3", Answer: "a3"})
	require.Equal(t, 2, m.Len())
	recent := m.Recent(0)
	assert.Equal(t, "q2", recent[0].Query)
	assert.Equal(t, "q3", recent[1].Query)
}

func TestConversationMemory_AlwaysKeepsMostRecent(t *testing.T) {
	t.Parallel()
	// A single exchange over budget is still retained.
	m := NewConversationMemory(10, 5, fixedCounter{perText: 100})
	m.Add(Exchange{Query: "huge question", Answer: "huge answer"})
	assert.Equal(t, 1, m.Len())

	m.Add(Exchange{Query: "next", Answer: strings.Repeat("x", 1000)})
	require.Equal(t, 1, m.Len())
	assert.Equal(t, "next", m.Recent(0)[0].Query)
}

func TestConversationMemory_RecentBounds(t *testing.T) {
	t.Parallel()
	m := NewConversationMemory(10, 0, nil)
	m.Add(Exchange{Query: "q1"})
	m.Add(Exchange{Query: "q2"})
	m.Add(Exchange{Query: "q3"})

	assert.Len(t, m.Recent(2), 2)
	assert.Equal(t, "q2", m.Recent(2)[0].Query)
	assert.Len(t, m.Recent(100), 3)
	assert.Len(t, m.Recent(-1), 3)
}

func TestConversationMemory_Clear(t *testing.T) {
	t.Parallel()
	m := NewConversationMemory(10, 0, nil)
	m.Add(Exchange{Query: "q"})
	m.Clear()
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Recent(0))
}
