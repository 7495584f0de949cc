package gating

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/cronops"
	"github.com/openclaw/gating/service/executor"
)

func TestRequestCronApplyBudgetedEnforcesBudget(t *testing.T) {
	f := newFixture(t, func(config *Config) {
		config.Budgets = &cronops.BudgetConfig{MaxSingleRunCostUsd: 1}
	})
	ctx := context.Background()

	outcome, err := f.service.RequestCronApplyBudgeted(ctx, "p1", false,
		&model.CronMetrics{EstimatedCostUsd: 5}, adminActor)
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Equal(t, "budget-max-cost", outcome.Reason)

	snapshot, err := f.service.Store().Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Approvals, "budget denial precedes persistence")

	missing, err := f.service.RequestCronApplyBudgeted(ctx, "p1", false, nil, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "budget-missing-cost-estimate", missing.Reason)
}

type stubExecutor struct {
	kind model.Kind
}

func (s *stubExecutor) Kind() model.Kind { return s.kind }

func (s *stubExecutor) Validate(context.Context, model.Payload) executor.Validation {
	return executor.Valid()
}

func (s *stubExecutor) Execute(context.Context, model.Payload, model.Actor) *executor.Result {
	return &executor.Result{OK: true}
}

func TestRequestCronApplyPicksKind(t *testing.T) {
	f := newFixture(t, nil)
	f.service.executors.Register(
		&stubExecutor{kind: model.KindCronApply},
		&stubExecutor{kind: model.KindCronApplyRecreate},
	)
	ctx := context.Background()

	outcome, err := f.service.RequestCronApply(ctx, "p1", false, adminActor)
	require.NoError(t, err)
	require.True(t, outcome.OK, outcome.Reason)
	assert.Equal(t, model.KindCronApply, outcome.Request.Kind)

	recreate, err := f.service.RequestCronApply(ctx, "p1", true, adminActor)
	require.NoError(t, err)
	require.True(t, recreate.OK, recreate.Reason)
	assert.Equal(t, model.KindCronApplyRecreate, recreate.Request.Kind)
	payload, ok := recreate.Request.Payload.(*model.CronApplyPayload)
	require.True(t, ok)
	assert.True(t, payload.AllowRecreate)
}
