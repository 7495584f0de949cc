package gating

import (
	"context"
	"fmt"
	"time"

	"github.com/openclaw/gating/callback"
	"github.com/openclaw/gating/internal/clock"
	"github.com/openclaw/gating/internal/idgen"
	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/policy"
	"github.com/openclaw/gating/service/cronops"
	"github.com/openclaw/gating/service/executor"
	"github.com/openclaw/gating/service/messenger"
	mmemory "github.com/openclaw/gating/service/messenger/memory"
	"github.com/openclaw/gating/service/store"
	smemory "github.com/openclaw/gating/service/store/memory"
	"github.com/openclaw/gating/tracing"
)

// Service gates side-effecting operations behind human approval.
type Service struct {
	config    *Config
	store     store.Service
	messenger messenger.Service
	executors *executor.Registry
	workspace *cronops.Workspace
	usage     *cronops.UsageJournal
	tracing   bool
}

// New creates a gating service. Unset collaborators default to in-memory
// implementations; production callers wire a filesystem store and a real
// messenger through options.
func New(options ...Option) *Service {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	ret.ensureBaseSetup()
	return ret
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.store == nil {
		s.store = smemory.New()
	}
	if s.messenger == nil {
		s.messenger = mmemory.New()
	}
	if s.executors == nil {
		s.executors = executor.NewRegistry()
	}
}

// Store returns the approval store.
func (s *Service) Store() store.Service {
	return s.store
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}

// RequestInput describes a new approval request.
type RequestInput struct {
	Kind     model.Kind
	Resource model.Resource
	Payload  model.Payload
	Actor    model.Actor
}

// RequestOutcome reports whether a request was created. A refusal carries
// one of the stable reason strings; refusals are not errors.
type RequestOutcome struct {
	OK      bool
	Reason  string
	Request *model.ApprovalRequest
}

// CallbackOutcome reports how a callback token was handled. Handled false
// means the token belongs to some other subsystem.
type CallbackOutcome struct {
	Handled bool
	Reason  string
}

func auditEvent(eventType model.AuditEventType, actor *model.Actor, note string, details map[string]any) model.AuditEvent {
	return model.AuditEvent{
		Type:    eventType,
		At:      clock.Now(),
		Actor:   actor,
		Note:    note,
		Details: details,
	}
}

// RequestApproval authorizes, validates and persists a new approval
// request, then posts its card to the resolved target chats. Nothing is
// persisted when authorization or validation refuses the request.
func (s *Service) RequestApproval(ctx context.Context, input *RequestInput) (outcome *RequestOutcome, err error) {
	if s.tracing {
		var span *tracing.Span
		ctx, span = tracing.StartSpan(ctx, "gating.RequestApproval", "SERVER")
		span.WithAttributes(map[string]string{"kind": string(input.Kind), "resource": input.Resource.String()})
		defer func() { tracing.EndSpan(span, err) }()
	}
	decision := policy.IsActionAllowed(&s.config.Gating, policy.ActionRequest, input.Resource, input.Actor)
	if !decision.Allowed {
		return &RequestOutcome{Reason: decision.Reason}, nil
	}
	exec := s.executors.Lookup(input.Kind)
	if exec == nil {
		return &RequestOutcome{Reason: "unsupported-kind"}, nil
	}
	validation := exec.Validate(ctx, input.Payload)
	if !validation.OK {
		return &RequestOutcome{Reason: validation.Reason}, nil
	}
	actor := input.Actor
	request := &model.ApprovalRequest{
		ApprovalID:     idgen.New(),
		Kind:           input.Kind,
		Resource:       input.Resource,
		Payload:        input.Payload,
		CreatedBy:      actor,
		CreatedAt:      clock.Now(),
		Status:         model.StatusPending,
		Audit:          []model.AuditEvent{auditEvent(model.AuditPosted, &actor, "", nil)},
		PostedMessages: []model.MessageRef{},
	}
	if err := s.store.Append(ctx, request); err != nil {
		return nil, err
	}
	card := s.BuildCard(ctx, request)
	targets := s.resolveTargets(input.Resource)
	posted, err := s.messenger.PostCard(ctx, request, card, targets)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, request.ApprovalID, func(entry *model.ApprovalRequest) *model.ApprovalRequest {
		out := entry.Clone()
		out.PostedMessages = posted
		return out
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		updated = request
	}
	return &RequestOutcome{OK: true, Request: updated}, nil
}

// HandleCallback processes a button press. Unrecognised tokens are not
// handled; everything else resolves to a handled outcome whose reason
// explains any refusal. An approval triggers the executor exactly once.
func (s *Service) HandleCallback(ctx context.Context, data string, actor model.Actor) (outcome *CallbackOutcome, err error) {
	if s.tracing {
		var span *tracing.Span
		ctx, span = tracing.StartSpan(ctx, "gating.HandleCallback", "SERVER")
		defer func() { tracing.EndSpan(span, err) }()
	}
	parsed := callback.Decode(data)
	if parsed == nil {
		return &CallbackOutcome{}, nil
	}
	request, err := s.store.Get(ctx, parsed.ApprovalID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return &CallbackOutcome{Handled: true, Reason: "not-found"}, nil
	}
	if parsed.Action == callback.ActionApproveRecreate && !request.Kind.IsCronApply() {
		return &CallbackOutcome{Handled: true, Reason: "invalid-action"}, nil
	}
	decision := policy.IsActionAllowed(&s.config.Gating, policy.ActionApprove, request.Resource, actor)
	clicked := auditEvent(model.AuditClicked, &actor, "", nil)
	if !decision.Allowed {
		if _, err := s.store.Update(ctx, request.ApprovalID, func(entry *model.ApprovalRequest) *model.ApprovalRequest {
			return entry.WithAudit(clicked)
		}); err != nil {
			return nil, err
		}
		return &CallbackOutcome{Handled: true, Reason: "not-authorized"}, nil
	}
	if request.Status != model.StatusPending {
		return &CallbackOutcome{Handled: true, Reason: "not-pending"}, nil
	}

	nextStatus := model.StatusApproved
	resolution := model.AuditApproved
	if parsed.Action == callback.ActionDeny {
		nextStatus = model.StatusDenied
		resolution = model.AuditDenied
	}
	updated, err := s.store.Update(ctx, request.ApprovalID, func(entry *model.ApprovalRequest) *model.ApprovalRequest {
		out := entry.WithAudit(clicked, auditEvent(resolution, &actor, "", nil))
		out.Status = nextStatus
		return out
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return &CallbackOutcome{Handled: true, Reason: "not-found"}, nil
	}
	s.syncApprovalMessages(ctx, updated)

	if nextStatus == model.StatusApproved {
		executorKind := updated.Kind
		if parsed.Action == callback.ActionApproveRecreate {
			executorKind = model.KindCronApplyRecreate
		}
		exec := s.executors.Lookup(executorKind)
		if exec == nil {
			return &CallbackOutcome{Handled: true, Reason: "missing-executor"}, nil
		}
		result := exec.Execute(ctx, updated.Payload, actor)
		eventType := model.AuditExecuted
		if !result.OK {
			eventType = model.AuditFailed
		}
		details := result.Details
		if result.LogRef != "" {
			details = map[string]any{"logRef": result.LogRef}
			for key, value := range result.Details {
				details[key] = value
			}
		}
		final, err := s.store.Update(ctx, updated.ApprovalID, func(entry *model.ApprovalRequest) *model.ApprovalRequest {
			return entry.WithAudit(auditEvent(eventType, &actor, result.Message, details))
		})
		if err != nil {
			return nil, err
		}
		if final != nil {
			s.syncApprovalMessages(ctx, final)
		}
	}
	return &CallbackOutcome{Handled: true}, nil
}

// ExpirePending transitions pending requests older than olderThan to
// expired and resyncs their cards. It returns the number of requests
// expired.
func (s *Service) ExpirePending(ctx context.Context, olderThan time.Duration) (int, error) {
	snapshot, err := s.store.Read(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := clock.Now().Add(-olderThan)
	expired := 0
	for _, entry := range snapshot.Approvals {
		if entry.Status != model.StatusPending || entry.CreatedAt.After(cutoff) {
			continue
		}
		updated, err := s.store.Update(ctx, entry.ApprovalID, func(record *model.ApprovalRequest) *model.ApprovalRequest {
			if record.Status != model.StatusPending {
				return record
			}
			out := record.WithAudit(auditEvent(model.AuditExpired, nil, "", nil))
			out.Status = model.StatusExpired
			return out
		})
		if err != nil {
			return expired, err
		}
		if updated == nil || updated.Status != model.StatusExpired {
			continue
		}
		expired++
		s.syncApprovalMessages(ctx, updated)
	}
	return expired, nil
}

// resolveTargets computes the chats a card posts to: every admin chat,
// plus the public chats when the resource's policy grants a public chat
// class or the public-view flag covers cron proposals.
func (s *Service) resolveTargets(resource model.Resource) []messenger.Target {
	gatingConfig := &s.config.Gating
	seen := map[string]bool{}
	targets := make([]messenger.Target, 0, len(gatingConfig.AdminChats)+len(gatingConfig.PublicChats))
	for _, chatID := range gatingConfig.AdminChats {
		if chatID == "" || seen[chatID] {
			continue
		}
		seen[chatID] = true
		targets = append(targets, messenger.Target{ChatID: chatID})
	}
	resolved := policy.ResolveForResource(gatingConfig, resource)
	publicAllowed := roleAllowsPublic(resolvedRole(resolved, policy.ActionApprove)) ||
		roleAllowsPublic(resolvedRole(resolved, policy.ActionRequest))
	allowPublicView := resource.Type == model.ResourceCronProposal && gatingConfig.AllowPublicViewForCronProposals
	if !publicAllowed && !allowPublicView {
		return targets
	}
	for _, chatID := range gatingConfig.PublicChats {
		if chatID == "" || seen[chatID] {
			continue
		}
		seen[chatID] = true
		targets = append(targets, messenger.Target{ChatID: chatID})
	}
	return targets
}

func resolvedRole(resolved *policy.Policy, action policy.Action) *policy.Role {
	if resolved == nil {
		return nil
	}
	if action == policy.ActionRequest {
		return resolved.Request
	}
	return resolved.Approve
}

func roleAllowsPublic(role *policy.Role) bool {
	if role == nil {
		return false
	}
	for _, class := range role.ChatClasses {
		if class == policy.ChatPublic {
			return true
		}
	}
	return false
}

// syncApprovalMessages re-renders the card on every posted message.
// Edits are best effort: when one fails the chat gets a plain notification
// instead, so a deleted message never blocks resolution.
func (s *Service) syncApprovalMessages(ctx context.Context, request *model.ApprovalRequest) {
	card := s.BuildCard(ctx, request)
	for _, message := range request.PostedMessages {
		if err := s.messenger.EditCard(ctx, message, card); err != nil {
			notice := fmt.Sprintf("Approval %s %s elsewhere.", request.ApprovalID, request.Status)
			_ = s.messenger.Notify(ctx, message.ChatID, notice)
		}
	}
}
