// Package llm defines the chat-completion provider contract the paper agents
// delegate to, an OpenAI-compatible HTTP implementation, a rate-limited
// provider wrapper, and token counting for context budgeting.
package llm
