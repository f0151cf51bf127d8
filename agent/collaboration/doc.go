// Package collaboration drives multiple paper agents through iterative
// conversational protocols and folds their answers into one synthesized
// result.
//
// Four protocols are provided: sequential (each agent builds on the previous
// answer), parallel (independent fan-out), debate (agents counter-argue over
// rounds until convergence), and consensus (agents reconcile until the
// consensus score clears a threshold). The Orchestrator validates tasks,
// isolates per-agent failures, bounds the whole run with a timeout, and
// reports scoring diagnostics alongside the synthesized text.
package collaboration
