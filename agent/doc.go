// Package agent defines the conversational paper-agent contract and the
// process-wide registry that collaboration protocols resolve participants from.
//
// An Agent answers free-text queries about one research paper. PaperAgent is
// the LLM-backed implementation; test doubles only need to satisfy the Query
// capability.
package agent
