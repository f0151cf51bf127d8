package llm

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens for context budgeting.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts with a tiktoken encoding, initialized lazily because
// the encoding data may be fetched on first use. When initialization fails it
// falls back to EstimatorCounter permanently.
type TiktokenCounter struct {
	encoding string

	initOnce sync.Once
	enc      *tiktoken.Tiktoken
	fallback EstimatorCounter
}

// NewTiktokenCounter creates a counter for the given encoding name
// (e.g. "cl100k_base").
func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenCounter{encoding: encoding}
}

func (c *TiktokenCounter) init() {
	c.initOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err == nil {
			c.enc = enc
		}
	})
}

func (c *TiktokenCounter) Count(text string) int {
	c.init()
	if c.enc == nil {
		return c.fallback.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

func (c *TiktokenCounter) String() string {
	return fmt.Sprintf("tiktoken[%s]", c.encoding)
}

// EstimatorCounter approximates token counts without encoding data: roughly
// four characters per token for Latin text, one token per rune otherwise.
type EstimatorCounter struct{}

func (EstimatorCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	bytes := len(text)
	if bytes > runes*2 {
		// Mostly multi-byte script, closer to one token per rune.
		return runes
	}
	n := bytes / 4
	if n == 0 {
		n = 1
	}
	return n
}
