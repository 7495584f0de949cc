package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/store"
)

// Service is an in-process approval store. A single mutex plays the role
// the file lock plays for the filesystem store: it is held for the full
// read-modify-write cycle so interleaved updates never lose writes.
type Service struct {
	mu       sync.Mutex
	snapshot *model.Snapshot
}

var _ store.Service = (*Service)(nil)

// New creates an empty in-memory approval store.
func New() *Service {
	return &Service{snapshot: model.NewSnapshot()}
}

// Read returns a copy of the current snapshot.
func (s *Service) Read(_ context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := model.NewSnapshot()
	out.Approvals = append(out.Approvals, s.snapshot.Approvals...)
	return out, nil
}

// Get returns the request with the given id, or nil.
func (s *Service) Get(_ context.Context, approvalID string) (*model.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Lookup(approvalID), nil
}

// Append stores a new approval request.
func (s *Service) Append(_ context.Context, request *model.ApprovalRequest) error {
	if request == nil {
		return fmt.Errorf("cannot append nil approval request")
	}
	if request.ApprovalID == "" {
		return fmt.Errorf("approval ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Approvals = append(s.snapshot.Approvals, request)
	return nil
}

// Update applies transform to the stored record; nil when the id is unknown.
func (s *Service) Update(_ context.Context, approvalID string, transform store.Transform) (*model.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.snapshot.Approvals {
		if entry.ApprovalID != approvalID {
			continue
		}
		updated := transform(entry)
		s.snapshot.Approvals[i] = updated
		return updated, nil
	}
	return nil, nil
}
