package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/ledger"
)

func TestPatchValidate(t *testing.T) {
	service := NewPatch(nil)
	testCases := []struct {
		name    string
		payload model.Payload
		reason  string
	}{
		{"wrong type", &model.CronApplyPayload{ProposalID: "p"}, "ledger-missing"},
		{"missing ledger", &model.LedgerPatchPayload{}, "ledger-missing"},
		{"invalid ledger", &model.LedgerPatchPayload{Ledger: "no/slashes"}, "ledger-invalid"},
		{"empty patch", &model.LedgerPatchPayload{Ledger: "finance"}, "patch-empty"},
		{
			"valid",
			&model.LedgerPatchPayload{
				Ledger: "finance",
				Patch:  model.LedgerPatch{Set: map[string]model.LedgerValue{"mode": "live"}},
			},
			"",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			validation := service.Validate(context.Background(), testCase.payload)
			if testCase.reason == "" {
				assert.True(t, validation.OK)
				return
			}
			assert.False(t, validation.OK)
			assert.Equal(t, testCase.reason, validation.Reason)
		})
	}
}

func TestPatchExecute(t *testing.T) {
	store, err := ledger.NewStore(t.TempDir())
	require.NoError(t, err)
	service := NewPatch(store)
	ctx := context.Background()

	result := service.Execute(ctx, &model.LedgerPatchPayload{
		Ledger: "finance",
		Patch:  model.LedgerPatch{Set: map[string]model.LedgerValue{"mode": "live"}},
	}, model.Actor{})
	require.True(t, result.OK, result.Message)

	snapshot, err := store.Read(ctx, "finance")
	require.NoError(t, err)
	assert.Equal(t, "live", snapshot.Entries["mode"])
}

func validPostings() *model.LedgerPostingsApplyPayload {
	return &model.LedgerPostingsApplyPayload{
		Ledger:     "finance",
		ApprovalID: "a-1",
		RunID:      "run-1",
		Postings: []model.LedgerPosting{
			{Account: "trading:position", Amount: 0.5, Asset: "BTC"},
			{Account: "trading:cash", Amount: -25_000, Asset: "USD"},
		},
		Provenance: model.LedgerProvenance{Exchange: "kraken", DryRun: true},
	}
}

func TestPostingsValidate(t *testing.T) {
	service := NewPostings(nil)
	testCases := []struct {
		name   string
		mutate func(payload *model.LedgerPostingsApplyPayload)
		reason string
	}{
		{"missing ledger", func(p *model.LedgerPostingsApplyPayload) { p.Ledger = "" }, "ledger-missing"},
		{"invalid ledger", func(p *model.LedgerPostingsApplyPayload) { p.Ledger = "a b" }, "ledger-invalid"},
		{"missing run id", func(p *model.LedgerPostingsApplyPayload) { p.RunID = " " }, "run-id-missing"},
		{"no postings", func(p *model.LedgerPostingsApplyPayload) { p.Postings = nil }, "postings-missing"},
		{
			"blank account",
			func(p *model.LedgerPostingsApplyPayload) { p.Postings[0].Account = "" },
			"posting-invalid",
		},
		{
			"missing provenance",
			func(p *model.LedgerPostingsApplyPayload) { p.Provenance.Exchange = "" },
			"provenance-missing",
		},
		{"valid", func(p *model.LedgerPostingsApplyPayload) {}, ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			payload := validPostings()
			testCase.mutate(payload)
			validation := service.Validate(context.Background(), payload)
			if testCase.reason == "" {
				assert.True(t, validation.OK)
				return
			}
			assert.False(t, validation.OK)
			assert.Equal(t, testCase.reason, validation.Reason)
		})
	}
}

func TestPostingsExecute(t *testing.T) {
	journal, err := ledger.NewJournal(t.TempDir())
	require.NoError(t, err)
	service := NewPostings(journal)

	payload := validPostings()
	result := service.Execute(context.Background(), payload, model.Actor{})
	require.True(t, result.OK, result.Message)
	assert.Equal(t, "finance", result.Details["ledger"])

	entries, err := journal.Read("finance")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.Equal(t, "a-1", entries[0].ApprovalID)
	assert.Equal(t, ledger.HashPayload(payload), entries[0].PayloadHash)
	assert.Len(t, entries[0].Postings, 2)
}
