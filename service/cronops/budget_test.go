package cronops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/gating/model"
)

func TestEnforceBudgetNoConfig(t *testing.T) {
	check := EnforceBudget(nil, nil, nil, time.Now())
	assert.True(t, check.OK)
}

func TestEnforceBudgetCostCaps(t *testing.T) {
	cfg := &BudgetConfig{MaxSingleRunCostUsd: 2}

	check := EnforceBudget(cfg, nil, nil, time.Now())
	assert.False(t, check.OK)
	assert.Equal(t, "budget-missing-cost-estimate", check.Reason)

	check = EnforceBudget(cfg, &model.CronMetrics{EstimatedCostUsd: 5}, nil, time.Now())
	assert.False(t, check.OK)
	assert.Equal(t, "budget-max-cost", check.Reason)

	check = EnforceBudget(cfg, &model.CronMetrics{EstimatedCostUsd: 1.5}, nil, time.Now())
	assert.True(t, check.OK)
}

func TestEnforceBudgetDailyTokens(t *testing.T) {
	now, err := time.Parse(time.RFC3339, "2026-08-29T12:00:00Z")
	require.NoError(t, err)

	journal, jErr := NewUsageJournal(t.TempDir())
	require.NoError(t, jErr)
	require.NoError(t, journal.Append(&UsageEvent{
		ProposalID: "p1",
		StartTime:  "2026-08-29T08:00:00Z",
		EndTime:    "2026-08-29T08:01:00Z",
		TokensUsed: 600,
	}))
	require.NoError(t, journal.Append(&UsageEvent{
		ProposalID: "yesterday",
		EndTime:    "2026-08-28T23:59:00Z",
		TokensUsed: 10_000,
	}))

	cfg := &BudgetConfig{MaxDailyTokens: 1000}

	check := EnforceBudget(cfg, nil, journal, now)
	assert.False(t, check.OK)
	assert.Equal(t, "budget-missing-token-estimate", check.Reason)

	check = EnforceBudget(cfg, &model.CronMetrics{EstimatedTokens: 500}, journal, now)
	assert.False(t, check.OK)
	assert.Equal(t, "budget-max-daily-tokens", check.Reason)
	assert.Equal(t, 600, check.Details["usedToday"], "only today's usage counts")

	check = EnforceBudget(cfg, &model.CronMetrics{EstimatedTokens: 300}, journal, now)
	assert.True(t, check.OK)
}
