package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/gating/model"
)

func TestValidatePatch(t *testing.T) {
	testCases := []struct {
		name   string
		patch  model.LedgerPatch
		reason string
	}{
		{"empty patch", model.LedgerPatch{}, "patch-empty"},
		{
			"empty set key",
			model.LedgerPatch{Set: map[string]model.LedgerValue{" ": "x"}},
			"patch-set-key-empty",
		},
		{
			"invalid set key",
			model.LedgerPatch{Set: map[string]model.LedgerValue{"bad key": "x"}},
			"patch-set-key-invalid",
		},
		{
			"non scalar value",
			model.LedgerPatch{Set: map[string]model.LedgerValue{"k": map[string]any{"nested": true}}},
			"patch-set-value-invalid",
		},
		{"empty remove key", model.LedgerPatch{Remove: []string{""}}, "patch-remove-empty"},
		{"invalid remove key", model.LedgerPatch{Remove: []string{"bad/key"}}, "patch-remove-key-invalid"},
		{
			"valid",
			model.LedgerPatch{Set: map[string]model.LedgerValue{"mode": "live", "limit": 5.0, "on": true}, Remove: []string{"stale"}},
			"",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			validation := ValidatePatch(testCase.patch)
			if testCase.reason == "" {
				assert.True(t, validation.OK)
				return
			}
			assert.False(t, validation.OK)
			assert.Equal(t, testCase.reason, validation.Reason)
		})
	}
}

func TestSummarizePatch(t *testing.T) {
	assert.Equal(t, "no changes", SummarizePatch(model.LedgerPatch{}))
	summary := SummarizePatch(model.LedgerPatch{
		Set:    map[string]model.LedgerValue{"b": 2, "a": 1},
		Remove: []string{"stale"},
	})
	assert.Equal(t, "+a=1, +b=2, -stale", summary)

	large := model.LedgerPatch{Set: map[string]model.LedgerValue{
		"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6, "g": 7,
	}}
	assert.Equal(t, "+a=1, +b=2, +c=3, +d=4, +e=5, +f=6", SummarizePatch(large))
}

func TestStoreApplyPatch(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "ledgers"))
	require.NoError(t, err)
	ctx := context.Background()

	snapshot, err := store.ApplyPatch(ctx, "finance", model.LedgerPatch{
		Set: map[string]model.LedgerValue{"mode": "live", "stale": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "live", snapshot.Entries["mode"])

	snapshot, err = store.ApplyPatch(ctx, "finance", model.LedgerPatch{
		Set:    map[string]model.LedgerValue{"limit": 5.0},
		Remove: []string{"stale"},
	})
	require.NoError(t, err)
	assert.Equal(t, "live", snapshot.Entries["mode"], "earlier entries survive")
	assert.Equal(t, 5.0, snapshot.Entries["limit"])
	assert.NotContains(t, snapshot.Entries, "stale")

	reloaded, err := store.Read(ctx, "finance")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Entries, reloaded.Entries)

	_, err = store.ApplyPatch(ctx, "../escape", model.LedgerPatch{Set: map[string]model.LedgerValue{"k": 1}})
	require.Error(t, err)
}

func TestStoreReadDegradesOnCorruptFile(t *testing.T) {
	baseDir := t.TempDir()
	store, err := NewStore(baseDir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "finance.json"), []byte("{broken"), 0o600))

	snapshot, err := store.Read(context.Background(), "finance")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Entries)
}

func TestJournalAppendRead(t *testing.T) {
	journal, err := NewJournal(t.TempDir())
	require.NoError(t, err)

	payload := &model.LedgerPostingsApplyPayload{
		Ledger: "finance",
		RunID:  "run-1",
		Postings: []model.LedgerPosting{
			{Account: "trading:position", Amount: 0.5, Asset: "BTC"},
		},
		Provenance: model.LedgerProvenance{Exchange: "kraken", DryRun: true},
	}
	entry := &JournalEntry{
		RunID:       payload.RunID,
		ApprovalID:  "a-1",
		Postings:    payload.Postings,
		Provenance:  payload.Provenance,
		PayloadHash: HashPayload(payload),
	}
	require.NoError(t, journal.Append("finance", entry))
	require.NoError(t, journal.Append("finance", entry))

	entries, err := journal.Read("finance")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.Equal(t, HashPayload(payload), entries[0].PayloadHash)

	empty, err := journal.Read("other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
