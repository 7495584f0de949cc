package executor

import (
	"context"

	"github.com/openclaw/gating/model"
)

// Validation is the outcome of a request-time payload check. A failing
// validation means the request is never persisted.
type Validation struct {
	OK     bool
	Reason string
}

// Valid is the passing validation.
func Valid() Validation {
	return Validation{OK: true}
}

// Invalid returns a failing validation with a stable reason string.
func Invalid(reason string) Validation {
	return Validation{OK: false, Reason: reason}
}

// Result reports the outcome of an executed side effect. Failures surface
// here rather than as errors; they are recorded on the audit trail and
// never retried automatically.
type Result struct {
	OK      bool
	Message string
	LogRef  string
	Details map[string]any
}

// Service implements one approval kind's side effect.
type Service interface {
	// Kind returns the approval kind this executor handles.
	Kind() model.Kind

	// Validate checks the payload at request time: required fields, numeric
	// ranges and referential checks against the resources the execution
	// will touch.
	Validate(ctx context.Context, payload model.Payload) Validation

	// Execute performs the side effect. Called at most once per approval,
	// only after the request transitioned to approved.
	Execute(ctx context.Context, payload model.Payload, actor model.Actor) *Result
}
