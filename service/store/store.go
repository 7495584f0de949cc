package store

import (
	"context"

	"github.com/openclaw/gating/internal/lockfile"
	"github.com/openclaw/gating/model"
)

// Transform maps an approval record to its next value. Implementations must
// treat the input as immutable and return a new record (copy-on-write); the
// store persists whatever is returned.
type Transform func(entry *model.ApprovalRequest) *model.ApprovalRequest

// Service is the durable approval store contract. Read never fails on a
// missing or corrupt backing file - it degrades to an empty snapshot - and
// every mutation is serialized by an exclusive per-file lock held for the
// full read-modify-write cycle.
type Service interface {
	// Read returns the current snapshot, or an empty default one.
	Read(ctx context.Context) (*model.Snapshot, error)

	// Get returns the request with the given id, or nil when absent.
	Get(ctx context.Context, approvalID string) (*model.ApprovalRequest, error)

	// Append persists a new approval request.
	Append(ctx context.Context, request *model.ApprovalRequest) error

	// Update applies transform to the stored record and persists the result.
	// It returns the updated record, or nil when the id is unknown.
	Update(ctx context.Context, approvalID string, transform Transform) (*model.ApprovalRequest, error)
}

// ErrLockTimeout is returned when the store lock cannot be acquired within
// the bounded retry budget. It is the one store failure callers must treat
// as fatal: proceeding without the lock risks corrupting the store file.
var ErrLockTimeout = lockfile.ErrTimeout
