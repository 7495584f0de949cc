// Package gating provides a human-in-the-loop approval service for
// side-effecting operations. Callers submit typed approval requests; the
// service authorizes them against chat-scoped policies, posts approval
// cards through a pluggable messenger, records every transition on a
// durable audit trail and executes the gated action exactly once after a
// human approves it.
package gating
