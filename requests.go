package gating

import (
	"context"

	"github.com/openclaw/gating/internal/clock"
	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/cronops"
)

// RequestCronApply submits a cron proposal apply for approval. With
// allowRecreate set the request uses the recreate kind up front.
func (s *Service) RequestCronApply(ctx context.Context, proposalID string, allowRecreate bool, actor model.Actor) (*RequestOutcome, error) {
	kind := model.KindCronApply
	if allowRecreate {
		kind = model.KindCronApplyRecreate
	}
	return s.RequestApproval(ctx, &RequestInput{
		Kind:     kind,
		Resource: model.Resource{Type: model.ResourceCronProposal, ID: proposalID},
		Payload:  &model.CronApplyPayload{ProposalID: proposalID, AllowRecreate: allowRecreate},
		Actor:    actor,
	})
}

// RequestCronApplyBudgeted submits a budgeted cron apply. The budget is
// enforced before anything is persisted; a denial returns its reason and
// details without creating a request.
func (s *Service) RequestCronApplyBudgeted(ctx context.Context, proposalID string, allowRecreate bool, metrics *model.CronMetrics, actor model.Actor) (*RequestOutcome, error) {
	check := cronops.EnforceBudget(s.config.Budgets, metrics, s.usage, clock.Now())
	if !check.OK {
		return &RequestOutcome{Reason: check.Reason}, nil
	}
	return s.RequestApproval(ctx, &RequestInput{
		Kind:     model.KindCronApplyBudgeted,
		Resource: model.Resource{Type: model.ResourceCronProposal, ID: proposalID},
		Payload: &model.CronApplyBudgetedPayload{
			CronApplyPayload: model.CronApplyPayload{ProposalID: proposalID, AllowRecreate: allowRecreate},
			Metrics:          metrics,
		},
		Actor: actor,
	})
}

// RequestLedgerPatch submits a ledger patch for approval.
func (s *Service) RequestLedgerPatch(ctx context.Context, ledger string, patch model.LedgerPatch, actor model.Actor) (*RequestOutcome, error) {
	return s.RequestApproval(ctx, &RequestInput{
		Kind:     model.KindLedgerPatch,
		Resource: model.Resource{Type: model.ResourceLedger, ID: ledger},
		Payload:  &model.LedgerPatchPayload{Ledger: ledger, Patch: patch},
		Actor:    actor,
	})
}

// RequestLedgerPostingsApply submits a set of ledger postings for
// approval.
func (s *Service) RequestLedgerPostingsApply(ctx context.Context, payload *model.LedgerPostingsApplyPayload, actor model.Actor) (*RequestOutcome, error) {
	return s.RequestApproval(ctx, &RequestInput{
		Kind:     model.KindLedgerPostingsApply,
		Resource: model.Resource{Type: model.ResourceLedger, ID: payload.Ledger},
		Payload:  payload,
		Actor:    actor,
	})
}

// RequestTradeExecute submits a trade intent for approval.
func (s *Service) RequestTradeExecute(ctx context.Context, payload *model.TradeExecutePayload, actor model.Actor) (*RequestOutcome, error) {
	return s.RequestApproval(ctx, &RequestInput{
		Kind:     model.KindTradeExecute,
		Resource: model.Resource{Type: model.ResourceExchange, ID: payload.Exchange},
		Payload:  payload,
		Actor:    actor,
	})
}
