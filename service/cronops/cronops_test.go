package cronops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidProposalID(t *testing.T) {
	valid := []string{"p1", "daily-report", "job.2024_01", "A"}
	for _, value := range valid {
		assert.True(t, IsValidProposalID(value), value)
	}
	invalid := []string{"", ".hidden", "-leading", "has space", "a/b", strings.Repeat("a", 70)}
	for _, value := range invalid {
		assert.False(t, IsValidProposalID(value), value)
	}
}

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	workspace, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	return workspace
}

func writeProposal(t *testing.T, workspace *Workspace, proposalID, fileName, content string) {
	t.Helper()
	dir := workspace.ProposalDir(proposalID)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	if fileName != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0o600))
	}
}

func TestProposalExists(t *testing.T) {
	workspace := newTestWorkspace(t)
	ctx := context.Background()

	assert.False(t, workspace.ProposalExists(ctx, "missing"))
	writeProposal(t, workspace, "p1", "", "")
	assert.True(t, workspace.ProposalExists(ctx, "p1"))
}

func TestLoadProposalSummary(t *testing.T) {
	workspace := newTestWorkspace(t)
	ctx := context.Background()

	assert.Nil(t, workspace.LoadProposalSummary(ctx, "missing"))

	writeProposal(t, workspace, "p1", "proposal.json", `{"logicalId":"daily-report","schedule":"0 6 * * *"}`)
	summary := workspace.LoadProposalSummary(ctx, "p1")
	require.NotNil(t, summary)
	assert.Equal(t, "daily-report", summary.LogicalID)
	assert.Equal(t, "0 6 * * *", summary.Schedule)

	writeProposal(t, workspace, "p2", "meta.json", `{"logical_id":"weekly","cron":"0 0 * * 0"}`)
	summary = workspace.LoadProposalSummary(ctx, "p2")
	require.NotNil(t, summary)
	assert.Equal(t, "weekly", summary.LogicalID)
	assert.Equal(t, "0 0 * * 0", summary.Schedule)

	writeProposal(t, workspace, "p3", "proposal.json", "not json")
	assert.Nil(t, workspace.LoadProposalSummary(ctx, "p3"))
}

func TestResolveLogRef(t *testing.T) {
	workspace := newTestWorkspace(t)
	ctx := context.Background()

	assert.Equal(t, "", workspace.ResolveLogRef(ctx, "p1"))

	logsDir := filepath.Join(workspace.Root(), "logs")
	require.NoError(t, os.MkdirAll(logsDir, 0o700))
	assert.Equal(t, filepath.Join("cronops", "logs"), workspace.ResolveLogRef(ctx, "p1"))

	require.NoError(t, os.WriteFile(filepath.Join(logsDir, "p1.log"), []byte("ok"), 0o600))
	assert.Equal(t, filepath.Join("cronops", "logs", "p1.log"), workspace.ResolveLogRef(ctx, "p1"))
}

func TestUsageJournalTolerantRead(t *testing.T) {
	root := t.TempDir()
	journal, err := NewUsageJournal(root)
	require.NoError(t, err)

	empty, err := journal.Read()
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, journal.Append(&UsageEvent{ProposalID: "p1", TokensUsed: 100}))
	metricsPath := filepath.Join(root, "metrics", "usage.ndjson")
	handle, err := os.OpenFile(metricsPath, os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)
	_, err = handle.WriteString("garbage line\n")
	require.NoError(t, err)
	require.NoError(t, handle.Close())
	require.NoError(t, journal.Append(&UsageEvent{ProposalID: "p2", TokensUsed: 200}))

	events, err := journal.Read()
	require.NoError(t, err)
	require.Len(t, events, 2, "malformed lines are skipped")
	assert.Equal(t, "p1", events[0].ProposalID)
	assert.Equal(t, "p2", events[1].ProposalID)
}
