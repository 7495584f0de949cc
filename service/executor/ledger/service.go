package ledger

import (
	"context"
	"math"
	"strings"

	"github.com/openclaw/gating/internal/clock"
	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/executor"
	"github.com/openclaw/gating/service/ledger"
)

// PatchService applies approved ledger patches to the snapshot store.
type PatchService struct {
	store *ledger.Store
}

var _ executor.Service = (*PatchService)(nil)

// NewPatch creates the ledger.patch executor.
func NewPatch(store *ledger.Store) *PatchService {
	return &PatchService{store: store}
}

// Kind returns the approval kind this executor handles.
func (s *PatchService) Kind() model.Kind {
	return model.KindLedgerPatch
}

// Validate checks the ledger name and the patch shape.
func (s *PatchService) Validate(_ context.Context, payload model.Payload) executor.Validation {
	patch, ok := payload.(*model.LedgerPatchPayload)
	if !ok || strings.TrimSpace(patch.Ledger) == "" {
		return executor.Invalid("ledger-missing")
	}
	if !ledger.IsValidName(patch.Ledger) {
		return executor.Invalid("ledger-invalid")
	}
	if validation := ledger.ValidatePatch(patch.Patch); !validation.OK {
		return executor.Invalid(validation.Reason)
	}
	return executor.Valid()
}

// Execute applies the patch to the named ledger snapshot.
func (s *PatchService) Execute(ctx context.Context, payload model.Payload, _ model.Actor) *executor.Result {
	patch, ok := payload.(*model.LedgerPatchPayload)
	if !ok {
		return &executor.Result{OK: false, Message: "unexpected payload type"}
	}
	if _, err := s.store.ApplyPatch(ctx, patch.Ledger, patch.Patch); err != nil {
		return &executor.Result{OK: false, Message: err.Error()}
	}
	return &executor.Result{OK: true}
}

// PostingsService appends approved postings to a ledger journal.
type PostingsService struct {
	journal *ledger.Journal
}

var _ executor.Service = (*PostingsService)(nil)

// NewPostings creates the ledger.postings.apply executor.
func NewPostings(journal *ledger.Journal) *PostingsService {
	return &PostingsService{journal: journal}
}

// Kind returns the approval kind this executor handles.
func (s *PostingsService) Kind() model.Kind {
	return model.KindLedgerPostingsApply
}

// Validate checks ledger, run id, postings and provenance.
func (s *PostingsService) Validate(_ context.Context, payload model.Payload) executor.Validation {
	postings, ok := payload.(*model.LedgerPostingsApplyPayload)
	if !ok || strings.TrimSpace(postings.Ledger) == "" {
		return executor.Invalid("ledger-missing")
	}
	if !ledger.IsValidName(postings.Ledger) {
		return executor.Invalid("ledger-invalid")
	}
	if strings.TrimSpace(postings.RunID) == "" {
		return executor.Invalid("run-id-missing")
	}
	if len(postings.Postings) == 0 {
		return executor.Invalid("postings-missing")
	}
	for _, posting := range postings.Postings {
		if strings.TrimSpace(posting.Account) == "" || strings.TrimSpace(posting.Asset) == "" {
			return executor.Invalid("posting-invalid")
		}
		if math.IsNaN(posting.Amount) || math.IsInf(posting.Amount, 0) {
			return executor.Invalid("posting-amount-invalid")
		}
	}
	if strings.TrimSpace(postings.Provenance.Exchange) == "" {
		return executor.Invalid("provenance-missing")
	}
	return executor.Valid()
}

// Execute appends a journal entry carrying the postings and a hash of the
// approved payload.
func (s *PostingsService) Execute(_ context.Context, payload model.Payload, _ model.Actor) *executor.Result {
	postings, ok := payload.(*model.LedgerPostingsApplyPayload)
	if !ok {
		return &executor.Result{OK: false, Message: "unexpected payload type"}
	}
	approvalID := postings.ApprovalID
	if approvalID == "" {
		approvalID = "unknown"
	}
	entry := &ledger.JournalEntry{
		RunID:       postings.RunID,
		ApprovalID:  approvalID,
		Timestamp:   clock.Now(),
		Postings:    postings.Postings,
		Provenance:  postings.Provenance,
		PayloadHash: ledger.HashPayload(postings),
	}
	if err := s.journal.Append(postings.Ledger, entry); err != nil {
		return &executor.Result{OK: false, Message: err.Error()}
	}
	return &executor.Result{OK: true, Details: map[string]any{"ledger": postings.Ledger}}
}
