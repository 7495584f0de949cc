package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/gating/model"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	service := New()

	require.Error(t, service.Append(ctx, nil))
	require.Error(t, service.Append(ctx, &model.ApprovalRequest{}))

	request := &model.ApprovalRequest{ApprovalID: "a-1", Status: model.StatusPending}
	require.NoError(t, service.Append(ctx, request))

	loaded, err := service.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, request, loaded)

	updated, err := service.Update(ctx, "a-1", func(entry *model.ApprovalRequest) *model.ApprovalRequest {
		out := entry.Clone()
		out.Status = model.StatusDenied
		return out
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDenied, updated.Status)

	missing, err := service.Update(ctx, "a-2", func(entry *model.ApprovalRequest) *model.ApprovalRequest { return entry })
	require.NoError(t, err)
	assert.Nil(t, missing)

	snapshot, err := service.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot.Approvals, 1)
}
