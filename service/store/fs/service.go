package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/viant/afs"

	"github.com/openclaw/gating/internal/idgen"
	"github.com/openclaw/gating/internal/lockfile"
	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/store"
)

const (
	storeDirMode  = os.FileMode(0o700)
	storeFileMode = os.FileMode(0o600)
)

// Service implements a filesystem-backed approval store. All mutations run
// under an exclusive advisory lock on the backing file and writes go through
// a temp file plus atomic rename so a crash never leaves a partial store.
type Service struct {
	filePath string
	fs       afs.Service
	locker   *lockfile.Locker
}

// Ensure Service implements store.Service
var _ store.Service = (*Service)(nil)

// Read returns the current snapshot. A missing or corrupt store file
// degrades to an empty default snapshot rather than failing.
func (s *Service) Read(ctx context.Context) (*model.Snapshot, error) {
	return s.readSnapshot(ctx), nil
}

// Get returns the approval request with the given id, or nil when absent.
func (s *Service) Get(ctx context.Context, approvalID string) (*model.ApprovalRequest, error) {
	if approvalID == "" {
		return nil, fmt.Errorf("approval ID cannot be empty")
	}
	return s.readSnapshot(ctx).Lookup(approvalID), nil
}

// Append persists a new approval request under the store lock.
func (s *Service) Append(ctx context.Context, request *model.ApprovalRequest) error {
	if request == nil {
		return fmt.Errorf("cannot append nil approval request")
	}
	if request.ApprovalID == "" {
		return fmt.Errorf("approval ID cannot be empty")
	}
	return s.withLock(ctx, func() error {
		snapshot := s.readSnapshot(ctx)
		snapshot.Approvals = append(snapshot.Approvals, request)
		return s.writeSnapshot(ctx, snapshot)
	})
}

// Update applies transform to the stored record under the store lock and
// persists the result. It returns nil when the id is unknown.
func (s *Service) Update(ctx context.Context, approvalID string, transform store.Transform) (*model.ApprovalRequest, error) {
	if approvalID == "" {
		return nil, fmt.Errorf("approval ID cannot be empty")
	}
	var updated *model.ApprovalRequest
	err := s.withLock(ctx, func() error {
		snapshot := s.readSnapshot(ctx)
		for i, entry := range snapshot.Approvals {
			if entry.ApprovalID != approvalID {
				continue
			}
			updated = transform(entry)
			snapshot.Approvals[i] = updated
			return s.writeSnapshot(ctx, snapshot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) withLock(ctx context.Context, fn func() error) error {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (s *Service) readSnapshot(ctx context.Context) *model.Snapshot {
	exists, err := s.fs.Exists(ctx, s.filePath)
	if err != nil || !exists {
		return model.NewSnapshot()
	}
	data, err := s.fs.DownloadWithURL(ctx, s.filePath)
	if err != nil {
		return model.NewSnapshot()
	}
	var snapshot model.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.NewSnapshot()
	}
	if snapshot.Version != model.SnapshotVersion || snapshot.Approvals == nil {
		return model.NewSnapshot()
	}
	return &snapshot
}

func (s *Service) writeSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal approval store: %w", err)
	}
	data = append(data, '\n')
	tmpPath := fmt.Sprintf("%s.%s.tmp", s.filePath, idgen.New())
	if err := s.fs.Upload(ctx, tmpPath, storeFileMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write approval store temp file: %w", err)
	}
	if err := s.fs.Move(ctx, tmpPath, s.filePath); err != nil {
		return fmt.Errorf("failed to replace approval store file: %w", err)
	}
	return nil
}

// New creates a filesystem approval store rooted at filePath. The parent
// directory is created owner-only when missing.
func New(filePath string, options ...Option) (*Service, error) {
	if filePath == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	ret := &Service{
		filePath: filePath,
		fs:       afs.New(),
		locker:   lockfile.New(filePath, lockfile.DefaultConfig()),
	}
	for _, option := range options {
		option(ret)
	}

	ctx := context.Background()
	dir := path.Dir(filePath)
	exists, _ := ret.fs.Exists(ctx, dir)
	if !exists {
		if err := ret.fs.Create(ctx, dir, storeDirMode, true); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return ret, nil
}
