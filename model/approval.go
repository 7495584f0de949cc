package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the side-effecting action an approval request gates.
type Kind string

const (
	KindCronApply           Kind = "cron.apply"
	KindCronApplyRecreate   Kind = "cron.apply_recreate"
	KindCronApplyBudgeted   Kind = "cron.apply_budgeted"
	KindLedgerPatch         Kind = "ledger.patch"
	KindLedgerPostingsApply Kind = "ledger.postings.apply"
	KindTradeExecute        Kind = "trade.execute"
)

// IsCronApply reports whether the kind belongs to the cron.apply family.
func (k Kind) IsCronApply() bool {
	switch k {
	case KindCronApply, KindCronApplyRecreate, KindCronApplyBudgeted:
		return true
	}
	return false
}

// Status represents the lifecycle state of an approval request. Once a
// request leaves pending its status never changes again; only the audit
// trail keeps growing.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

// ResourceType scopes a resource identifier.
type ResourceType string

const (
	ResourceCronProposal ResourceType = "cron_proposal"
	ResourceLedger       ResourceType = "ledger"
	ResourceExchange     ResourceType = "exchange"
)

// Resource identifies what an approval request operates on.
type Resource struct {
	Type ResourceType `json:"type" yaml:"type"`
	ID   string       `json:"id" yaml:"id"`
}

func (r Resource) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

// Actor identifies who initiated an action. ChatID is always present;
// UserID and Username are optional and channel dependent.
type Actor struct {
	Channel  string `json:"channel" yaml:"channel"`
	ChatID   string `json:"chatId" yaml:"chatId"`
	UserID   string `json:"userId,omitempty" yaml:"userId,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
}

// AuditEventType enumerates the events recorded on a request's audit trail.
type AuditEventType string

const (
	AuditPosted   AuditEventType = "posted"
	AuditClicked  AuditEventType = "clicked"
	AuditApproved AuditEventType = "approved"
	AuditDenied   AuditEventType = "denied"
	AuditExecuted AuditEventType = "executed"
	AuditFailed   AuditEventType = "failed"
	AuditExpired  AuditEventType = "expired"
)

// AuditEvent is a single append-only entry in a request's audit trail.
type AuditEvent struct {
	Type    AuditEventType `json:"type"`
	At      time.Time      `json:"at"`
	Actor   *Actor         `json:"actor,omitempty"`
	Note    string         `json:"note,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// MessageRef is an opaque reference to a posted approval card, kept so the
// card can be edited once the request resolves.
type MessageRef struct {
	Channel   string `json:"channel"`
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// ApprovalRequest is the persisted record of a gated action. Records are
// never deleted; transitions produce a new value via copy-on-write.
type ApprovalRequest struct {
	ApprovalID     string       `json:"approvalId"`
	Kind           Kind         `json:"kind"`
	Resource       Resource     `json:"resource"`
	Payload        Payload      `json:"payload"`
	CreatedBy      Actor        `json:"createdBy"`
	CreatedAt      time.Time    `json:"createdAt"`
	Status         Status       `json:"status"`
	Audit          []AuditEvent `json:"audit"`
	PostedMessages []MessageRef `json:"postedMessages"`
}

// Clone returns a deep-enough copy for copy-on-write transitions: audit
// and message slices are duplicated, the payload is shared (payloads are
// immutable once persisted).
func (r *ApprovalRequest) Clone() *ApprovalRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.Audit = append([]AuditEvent(nil), r.Audit...)
	out.PostedMessages = append([]MessageRef(nil), r.PostedMessages...)
	return &out
}

// WithAudit returns a copy with the supplied events appended.
func (r *ApprovalRequest) WithAudit(events ...AuditEvent) *ApprovalRequest {
	out := r.Clone()
	out.Audit = append(out.Audit, events...)
	return out
}

// LastAudit returns the most recent audit event of the given type, or nil.
func (r *ApprovalRequest) LastAudit(eventType AuditEventType) *AuditEvent {
	for i := len(r.Audit) - 1; i >= 0; i-- {
		if r.Audit[i].Type == eventType {
			return &r.Audit[i]
		}
	}
	return nil
}

// UnmarshalJSON decodes the record, resolving the payload variant from the
// record's kind tag.
func (r *ApprovalRequest) UnmarshalJSON(data []byte) error {
	type alias ApprovalRequest
	raw := struct {
		*alias
		Payload json.RawMessage `json:"payload"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Payload) == 0 {
		return nil
	}
	payload, err := DecodePayload(r.Kind, raw.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode %v payload: %w", r.Kind, err)
	}
	r.Payload = payload
	return nil
}

// SnapshotVersion is the on-disk schema version of the approval store file.
const SnapshotVersion = 1

// Snapshot is the full content of an approval store file.
type Snapshot struct {
	Version   int                `json:"version"`
	Approvals []*ApprovalRequest `json:"approvals"`
}

// NewSnapshot returns an empty snapshot at the current schema version.
func NewSnapshot() *Snapshot {
	return &Snapshot{Version: SnapshotVersion, Approvals: []*ApprovalRequest{}}
}

// Lookup returns the request with the given approval id, or nil.
func (s *Snapshot) Lookup(approvalID string) *ApprovalRequest {
	for _, entry := range s.Approvals {
		if entry.ApprovalID == approvalID {
			return entry
		}
	}
	return nil
}
