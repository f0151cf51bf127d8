// Package paper persists research paper metadata and turns stored papers
// into registered conversational agents.
//
// The Store wraps GORM over sqlite or postgres. The Factory onboards a
// stored paper as a registered agent with ID "paper-<uuid>", so that
// collaboration tasks can address papers directly.
package paper
