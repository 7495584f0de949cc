package gating

import (
	"context"
	"fmt"
	"strings"

	"github.com/openclaw/gating/callback"
	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/ledger"
	"github.com/openclaw/gating/service/messenger"
)

const cardMaxLines = 10

func formatActorLabel(request *model.ApprovalRequest) string {
	event := request.LastAudit(model.AuditApproved)
	if event == nil {
		event = request.LastAudit(model.AuditDenied)
	}
	if event == nil || event.Actor == nil {
		return ""
	}
	if event.Actor.Username != "" {
		return "@" + event.Actor.Username
	}
	if event.Actor.UserID != "" {
		return "id:" + event.Actor.UserID
	}
	return ""
}

func formatStatusLine(request *model.ApprovalRequest) string {
	switch request.Status {
	case model.StatusPending:
		return "pending"
	case model.StatusApproved:
		if label := formatActorLabel(request); label != "" {
			return "approved by " + label
		}
		return "approved"
	case model.StatusDenied:
		if label := formatActorLabel(request); label != "" {
			return "denied by " + label
		}
		return "denied"
	}
	return "expired"
}

func (s *Service) formatCronSummary(ctx context.Context, proposalID string) string {
	if s.workspace == nil {
		return "pending cron proposal"
	}
	summary := s.workspace.LoadProposalSummary(ctx, proposalID)
	if summary == nil {
		return "pending cron proposal"
	}
	parts := make([]string, 0, 2)
	if summary.LogicalID != "" {
		parts = append(parts, summary.LogicalID)
	}
	if summary.Schedule != "" {
		parts = append(parts, "@ "+summary.Schedule)
	}
	if len(parts) == 0 {
		return "pending cron proposal"
	}
	return strings.Join(parts, " ")
}

func approveDenyRow(approvalID string) []messenger.Button {
	return []messenger.Button{
		{Text: "✅ Approve", CallbackData: callback.Encode(approvalID, callback.ActionApprove)},
		{Text: "❌ Deny", CallbackData: callback.Encode(approvalID, callback.ActionDeny)},
	}
}

// BuildCard renders the approval card for a request. Buttons appear only
// while the request is pending; the recreate row only for the cron.apply
// family.
func (s *Service) BuildCard(ctx context.Context, request *model.ApprovalRequest) *messenger.Card {
	header := "Approval"
	resourceLine := fmt.Sprintf("Resource: %s", request.Resource)
	summaryLine := ""
	buttons := [][]messenger.Button{approveDenyRow(request.ApprovalID)}

	switch {
	case request.Kind.IsCronApply():
		header = "Cron Apply"
		resourceLine = fmt.Sprintf("Resource: proposal %s", request.Resource.ID)
		summaryLine = "Summary: " + s.formatCronSummary(ctx, request.Resource.ID)
		buttons = append(buttons, []messenger.Button{{
			Text:         "⚠️ Approve (RECREATE)",
			CallbackData: callback.Encode(request.ApprovalID, callback.ActionApproveRecreate),
		}})
	case request.Kind == model.KindLedgerPatch:
		header = "Ledger Patch"
		resourceLine = fmt.Sprintf("Resource: ledger %s", request.Resource.ID)
		if payload, ok := request.Payload.(*model.LedgerPatchPayload); ok {
			summaryLine = "Summary: " + ledger.SummarizePatch(payload.Patch)
		}
	case request.Kind == model.KindLedgerPostingsApply:
		header = "Ledger Postings"
		resourceLine = fmt.Sprintf("Resource: ledger %s", request.Resource.ID)
		if payload, ok := request.Payload.(*model.LedgerPostingsApplyPayload); ok {
			summaryLine = fmt.Sprintf("Summary: %d posting(s), run %s", len(payload.Postings), payload.RunID)
		}
	case request.Kind == model.KindTradeExecute:
		header = "Trade Execute"
		if payload, ok := request.Payload.(*model.TradeExecutePayload); ok {
			resourceLine = fmt.Sprintf("Resource: exchange %s", payload.Exchange)
			summaryLine = fmt.Sprintf("Summary: %s %v %s %s", payload.Side, payload.Quantity, payload.Symbol, payload.OrderType)
		}
	}

	lines := make([]string, 0, 5)
	lines = append(lines, header, resourceLine)
	if summaryLine != "" {
		lines = append(lines, summaryLine)
	}
	lines = append(lines, "Status: "+formatStatusLine(request), "Approval: "+request.ApprovalID)
	if len(lines) > cardMaxLines {
		lines = lines[:cardMaxLines]
	}

	card := &messenger.Card{Text: strings.Join(lines, "\n")}
	if request.Status == model.StatusPending {
		card.Buttons = buttons
	}
	return card
}
