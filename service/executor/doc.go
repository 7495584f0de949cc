// Package executor defines the per-kind validate/execute contract behind
// the gating service. Each executor owns exactly one side effect; validate
// runs before a request is persisted, execute runs exactly once after
// approval.
package executor
