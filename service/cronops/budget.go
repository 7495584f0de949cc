package cronops

import (
	"time"

	"github.com/openclaw/gating/model"
)

// BudgetConfig caps what a budgeted cron apply may cost. Zero values mean
// the corresponding cap is not enforced.
type BudgetConfig struct {
	MaxDailyTokens      int     `json:"maxDailyTokens,omitempty" yaml:"maxDailyTokens,omitempty"`
	MaxSingleRunCostUsd float64 `json:"maxSingleRunCostUsd,omitempty" yaml:"maxSingleRunCostUsd,omitempty"`
}

// BudgetCheck is the outcome of a budget enforcement pass. Reason is one of
// budget-missing-cost-estimate, budget-max-cost,
// budget-missing-token-estimate or budget-max-daily-tokens.
type BudgetCheck struct {
	OK      bool
	Reason  string
	Details map[string]any
}

func budgetDenied(reason string, details map[string]any) BudgetCheck {
	return BudgetCheck{OK: false, Reason: reason, Details: details}
}

func dateKey(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}

// EnforceBudget checks the request's cost metrics against the configured
// caps. A configured cap with no corresponding estimate is a denial: budget
// enforcement never passes on missing data. Daily token usage is summed
// from the usage journal by UTC date.
func EnforceBudget(cfg *BudgetConfig, metrics *model.CronMetrics, journal *UsageJournal, now time.Time) BudgetCheck {
	if cfg == nil {
		return BudgetCheck{OK: true}
	}
	if metrics == nil {
		metrics = &model.CronMetrics{}
	}
	if cfg.MaxSingleRunCostUsd > 0 {
		if metrics.EstimatedCostUsd <= 0 {
			return budgetDenied("budget-missing-cost-estimate", map[string]any{
				"maxSingleRunCostUsd": cfg.MaxSingleRunCostUsd,
			})
		}
		if metrics.EstimatedCostUsd > cfg.MaxSingleRunCostUsd {
			return budgetDenied("budget-max-cost", map[string]any{
				"estimatedCostUsd":    metrics.EstimatedCostUsd,
				"maxSingleRunCostUsd": cfg.MaxSingleRunCostUsd,
			})
		}
	}
	if cfg.MaxDailyTokens > 0 {
		if metrics.EstimatedTokens <= 0 {
			return budgetDenied("budget-missing-token-estimate", map[string]any{
				"maxDailyTokens": cfg.MaxDailyTokens,
			})
		}
		usedToday := 0
		if journal != nil {
			events, _ := journal.Read()
			today := dateKey(now)
			for _, event := range events {
				timestamp := event.EndTime
				if timestamp == "" {
					timestamp = event.StartTime
				}
				if timestamp == "" {
					continue
				}
				at, err := time.Parse(time.RFC3339, timestamp)
				if err != nil {
					continue
				}
				if dateKey(at) != today {
					continue
				}
				usedToday += event.TokensUsed
			}
		}
		if usedToday+metrics.EstimatedTokens > cfg.MaxDailyTokens {
			return budgetDenied("budget-max-daily-tokens", map[string]any{
				"maxDailyTokens":  cfg.MaxDailyTokens,
				"usedToday":       usedToday,
				"estimatedTokens": metrics.EstimatedTokens,
			})
		}
	}
	return BudgetCheck{OK: true}
}
