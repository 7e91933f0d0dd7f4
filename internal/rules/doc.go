// Package rules implements context-triggered automation.
//
// A rule binds an application pattern to a list of actions. The engine
// consumes context-change signals (which application is frontmost), matches
// every enabled rule against each signal, executes the actions of rules
// entering the active set, and runs the revert path for rules leaving it.
//
// Rule definitions are persisted; the active set is derived state and
// recomputed from scratch on every signal.
package rules
