package cron

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"

	"github.com/openclaw/gating/internal/clock"
	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/cronops"
	"github.com/openclaw/gating/service/executor"
)

const defaultTimeout = 10 * time.Minute

// Service applies approved cron proposals by invoking the cronops apply
// wrapper through a local shell session. The recreate variant forces the
// ALLOW_RECREATE argument and the budgeted variant additionally records a
// usage event for budget accounting.
type Service struct {
	kind      model.Kind
	workspace *cronops.Workspace
	usage     *cronops.UsageJournal
	timeout   time.Duration

	mux     sync.Mutex
	session *gosh.Service
}

var _ executor.Service = (*Service)(nil)

// New creates the executor for plain cron.apply.
func New(workspace *cronops.Workspace) *Service {
	return &Service{kind: model.KindCronApply, workspace: workspace, timeout: defaultTimeout}
}

// NewRecreate creates the executor for cron.apply_recreate.
func NewRecreate(workspace *cronops.Workspace) *Service {
	return &Service{kind: model.KindCronApplyRecreate, workspace: workspace, timeout: defaultTimeout}
}

// NewBudgeted creates the executor for cron.apply_budgeted; every run is
// recorded in the usage journal regardless of outcome.
func NewBudgeted(workspace *cronops.Workspace, usage *cronops.UsageJournal) *Service {
	return &Service{kind: model.KindCronApplyBudgeted, workspace: workspace, usage: usage, timeout: defaultTimeout}
}

// Executors returns the full cron.apply executor family.
func Executors(workspace *cronops.Workspace, usage *cronops.UsageJournal) []executor.Service {
	return []executor.Service{New(workspace), NewRecreate(workspace), NewBudgeted(workspace, usage)}
}

// Kind returns the approval kind this executor handles.
func (s *Service) Kind() model.Kind {
	return s.kind
}

func (s *Service) applyPayload(payload model.Payload) *model.CronApplyPayload {
	switch actual := payload.(type) {
	case *model.CronApplyPayload:
		return actual
	case *model.CronApplyBudgetedPayload:
		return &actual.CronApplyPayload
	}
	return nil
}

// Validate checks the proposal id shape and that the pending proposal
// directory exists.
func (s *Service) Validate(ctx context.Context, payload model.Payload) executor.Validation {
	apply := s.applyPayload(payload)
	if apply == nil || apply.ProposalID == "" {
		return executor.Invalid("proposal-id-missing")
	}
	if !cronops.IsValidProposalID(apply.ProposalID) {
		return executor.Invalid("proposal-id-invalid")
	}
	if !s.workspace.ProposalExists(ctx, apply.ProposalID) {
		return executor.Invalid("proposal-not-found")
	}
	return executor.Valid()
}

// Execute invokes the apply wrapper for the proposal.
func (s *Service) Execute(ctx context.Context, payload model.Payload, _ model.Actor) *executor.Result {
	apply := s.applyPayload(payload)
	if apply == nil {
		return &executor.Result{OK: false, Message: "unexpected payload type"}
	}
	if s.kind == model.KindCronApplyBudgeted {
		return s.executeBudgeted(ctx, payload.(*model.CronApplyBudgetedPayload))
	}
	allowRecreate := apply.AllowRecreate || s.kind == model.KindCronApplyRecreate
	return s.runApply(ctx, apply.ProposalID, allowRecreate)
}

func (s *Service) executeBudgeted(ctx context.Context, payload *model.CronApplyBudgetedPayload) *executor.Result {
	startTime := clock.Now()
	result := s.runApply(ctx, payload.ProposalID, payload.AllowRecreate)
	endTime := clock.Now()
	if s.usage != nil {
		event := &cronops.UsageEvent{
			ProposalID: payload.ProposalID,
			StartTime:  startTime.UTC().Format(time.RFC3339),
			EndTime:    endTime.UTC().Format(time.RFC3339),
			ExitStatus: "success",
		}
		if !result.OK {
			event.ExitStatus = "failed"
		}
		if payload.Metrics != nil {
			event.TokensUsed = payload.Metrics.EstimatedTokens
			event.Model = payload.Metrics.ModelTier
			event.EstimatedCostUsd = payload.Metrics.EstimatedCostUsd
		}
		if err := s.usage.Append(event); err != nil {
			result.Message = strings.TrimSpace(result.Message + "; usage event not recorded: " + err.Error())
		}
	}
	return result
}

func (s *Service) runApply(ctx context.Context, proposalID string, allowRecreate bool) *executor.Result {
	if !s.workspace.ApplyScriptExists(ctx) {
		return &executor.Result{OK: false, Message: "cronops wrapper not found"}
	}
	scriptPath := s.workspace.ApplyScriptPath()
	session, err := s.getSession(ctx)
	if err != nil {
		return &executor.Result{OK: false, Message: fmt.Sprintf("failed to open shell session: %v", err)}
	}
	command := fmt.Sprintf("cd %s && %s %s", s.workspace.Root(), scriptPath, proposalID)
	if allowRecreate {
		command += " ALLOW_RECREATE"
	}
	output, status, err := session.Run(ctx, command, runner.WithTimeout(int(s.timeout.Milliseconds())))
	logRef := s.workspace.ResolveLogRef(ctx, proposalID)
	if err != nil || status != 0 {
		message := output
		if err != nil {
			message = err.Error()
		}
		return &executor.Result{
			OK:      false,
			Message: fmt.Sprintf("cronops wrapper failed: %s", strings.TrimSpace(message)),
			LogRef:  logRef,
		}
	}
	return &executor.Result{OK: true, LogRef: logRef}
}

func (s *Service) getSession(ctx context.Context) (*gosh.Service, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.session != nil {
		return s.session, nil
	}
	session, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, err
	}
	s.session = session
	return session, nil
}

// Close releases the shell session, if any.
func (s *Service) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}
