package cron

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/cronops"
)

func newTestWorkspace(t *testing.T) *cronops.Workspace {
	t.Helper()
	workspace, err := cronops.NewWorkspace(t.TempDir())
	require.NoError(t, err)
	return workspace
}

func TestValidate(t *testing.T) {
	workspace := newTestWorkspace(t)
	service := New(workspace)
	ctx := context.Background()

	validation := service.Validate(ctx, &model.CronApplyPayload{})
	assert.Equal(t, "proposal-id-missing", validation.Reason)

	validation = service.Validate(ctx, &model.CronApplyPayload{ProposalID: "bad id"})
	assert.Equal(t, "proposal-id-invalid", validation.Reason)

	validation = service.Validate(ctx, &model.CronApplyPayload{ProposalID: "p1"})
	assert.Equal(t, "proposal-not-found", validation.Reason)

	require.NoError(t, os.MkdirAll(workspace.ProposalDir("p1"), 0o700))
	validation = service.Validate(ctx, &model.CronApplyPayload{ProposalID: "p1"})
	assert.True(t, validation.OK)
}

func TestValidateBudgetedPayload(t *testing.T) {
	workspace := newTestWorkspace(t)
	require.NoError(t, os.MkdirAll(workspace.ProposalDir("p1"), 0o700))

	usage, err := cronops.NewUsageJournal(workspace.Root())
	require.NoError(t, err)
	service := NewBudgeted(workspace, usage)

	validation := service.Validate(context.Background(), &model.CronApplyBudgetedPayload{
		CronApplyPayload: model.CronApplyPayload{ProposalID: "p1"},
		Metrics:          &model.CronMetrics{EstimatedTokens: 100},
	})
	assert.True(t, validation.OK)
}

func TestExecuteMissingWrapper(t *testing.T) {
	workspace := newTestWorkspace(t)
	service := New(workspace)

	result := service.Execute(context.Background(), &model.CronApplyPayload{ProposalID: "p1"}, model.Actor{})
	assert.False(t, result.OK)
	assert.Equal(t, "cronops wrapper not found", result.Message)
}

func TestExecuteBudgetedRecordsUsage(t *testing.T) {
	workspace := newTestWorkspace(t)
	usage, err := cronops.NewUsageJournal(workspace.Root())
	require.NoError(t, err)
	service := NewBudgeted(workspace, usage)

	result := service.Execute(context.Background(), &model.CronApplyBudgetedPayload{
		CronApplyPayload: model.CronApplyPayload{ProposalID: "p1"},
		Metrics:          &model.CronMetrics{EstimatedTokens: 100, ModelTier: "small", EstimatedCostUsd: 0.2},
	}, model.Actor{})
	assert.False(t, result.OK, "wrapper is absent")

	events, err := usage.Read()
	require.NoError(t, err)
	require.Len(t, events, 1, "usage is recorded regardless of outcome")
	assert.Equal(t, "p1", events[0].ProposalID)
	assert.Equal(t, "failed", events[0].ExitStatus)
	assert.Equal(t, 100, events[0].TokensUsed)
	assert.Equal(t, "small", events[0].Model)
}

func TestExecutorsFamily(t *testing.T) {
	workspace := newTestWorkspace(t)
	usage, err := cronops.NewUsageJournal(workspace.Root())
	require.NoError(t, err)

	kinds := map[model.Kind]bool{}
	for _, service := range Executors(workspace, usage) {
		kinds[service.Kind()] = true
	}
	assert.True(t, kinds[model.KindCronApply])
	assert.True(t, kinds[model.KindCronApplyRecreate])
	assert.True(t, kinds[model.KindCronApplyBudgeted])
}
