package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"

	"github.com/openclaw/gating/internal/idgen"
	"github.com/openclaw/gating/internal/lockfile"
	"github.com/openclaw/gating/model"
)

const (
	ledgerDirMode  = os.FileMode(0o700)
	ledgerFileMode = os.FileMode(0o600)
)

// SnapshotVersion is the on-disk schema version of a ledger snapshot file.
const SnapshotVersion = 1

// Snapshot is the full content of one named ledger.
type Snapshot struct {
	Version int                          `json:"version"`
	Entries map[string]model.LedgerValue `json:"entries"`
}

// NewSnapshot returns an empty snapshot at the current schema version.
func NewSnapshot() *Snapshot {
	return &Snapshot{Version: SnapshotVersion, Entries: map[string]model.LedgerValue{}}
}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// IsValidName reports whether a ledger name or entry key is acceptable.
// The same character set guards both, keeping keys path- and shell-safe.
func IsValidName(name string) bool {
	return nameRe.MatchString(name)
}

// Validation is the outcome of a patch check.
type Validation struct {
	OK     bool
	Reason string
}

func invalid(reason string) Validation {
	return Validation{OK: false, Reason: reason}
}

// ValidatePatch checks a ledger patch for well-formedness: non-empty keys
// from the allowed character set and scalar values only.
func ValidatePatch(patch model.LedgerPatch) Validation {
	if len(patch.Set) == 0 && len(patch.Remove) == 0 {
		return invalid("patch-empty")
	}
	for key, value := range patch.Set {
		if strings.TrimSpace(key) == "" {
			return invalid("patch-set-key-empty")
		}
		if !IsValidName(key) {
			return invalid("patch-set-key-invalid")
		}
		switch value.(type) {
		case string, bool, float64, int, int64:
		default:
			return invalid("patch-set-value-invalid")
		}
	}
	for _, key := range patch.Remove {
		if strings.TrimSpace(key) == "" {
			return invalid("patch-remove-empty")
		}
		if !IsValidName(key) {
			return invalid("patch-remove-key-invalid")
		}
	}
	return Validation{OK: true}
}

// SummarizePatch renders a short human summary, e.g. "+mode=live, -stale".
// At most six items are listed.
func SummarizePatch(patch model.LedgerPatch) string {
	parts := make([]string, 0, len(patch.Set)+len(patch.Remove))
	for _, key := range sortedKeys(patch.Set) {
		parts = append(parts, fmt.Sprintf("+%s=%v", key, patch.Set[key]))
	}
	for _, key := range patch.Remove {
		parts = append(parts, "-"+key)
	}
	if len(parts) == 0 {
		return "no changes"
	}
	if len(parts) > 6 {
		parts = parts[:6]
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(entries map[string]model.LedgerValue) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Store reads and patches ledger snapshot files under a base directory,
// one "<ledger>.json" file per ledger, each guarded by its own lock.
type Store struct {
	baseDir string
	fs      afs.Service

	mu      sync.Mutex
	lockers map[string]*lockfile.Locker
}

// NewStore creates a ledger store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("ledger base directory cannot be empty")
	}
	ret := &Store{baseDir: baseDir, fs: afs.New(), lockers: map[string]*lockfile.Locker{}}
	ctx := context.Background()
	exists, _ := ret.fs.Exists(ctx, baseDir)
	if !exists {
		if err := ret.fs.Create(ctx, baseDir, ledgerDirMode, true); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	return ret, nil
}

func (s *Store) snapshotPath(ledger string) (string, error) {
	if !IsValidName(ledger) {
		return "", fmt.Errorf("invalid ledger name: %q", ledger)
	}
	return path.Join(s.baseDir, ledger+".json"), nil
}

// Read returns the named ledger's snapshot; a missing or corrupt file
// degrades to an empty snapshot.
func (s *Store) Read(ctx context.Context, ledger string) (*Snapshot, error) {
	filePath, err := s.snapshotPath(ledger)
	if err != nil {
		return nil, err
	}
	return s.readFile(ctx, filePath), nil
}

func (s *Store) readFile(ctx context.Context, filePath string) *Snapshot {
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil || !exists {
		return NewSnapshot()
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return NewSnapshot()
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return NewSnapshot()
	}
	if snapshot.Version != SnapshotVersion || snapshot.Entries == nil {
		return NewSnapshot()
	}
	return &snapshot
}

func (s *Store) locker(filePath string) *lockfile.Locker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.lockers[filePath]; ok {
		return existing
	}
	created := lockfile.New(filePath, lockfile.DefaultConfig())
	s.lockers[filePath] = created
	return created
}

// ApplyPatch applies set/remove mutations to the named ledger under the
// ledger's file lock and writes the result via temp file plus atomic
// rename. It returns the new snapshot.
func (s *Store) ApplyPatch(ctx context.Context, ledger string, patch model.LedgerPatch) (*Snapshot, error) {
	filePath, err := s.snapshotPath(ledger)
	if err != nil {
		return nil, err
	}
	release, err := s.locker(filePath).Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	current := s.readFile(ctx, filePath)
	next := NewSnapshot()
	for key, value := range current.Entries {
		next.Entries[key] = value
	}
	for key, value := range patch.Set {
		next.Entries[key] = value
	}
	for _, key := range patch.Remove {
		delete(next.Entries, key)
	}
	if err := s.writeFile(ctx, filePath, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) writeFile(ctx context.Context, filePath string, snapshot *Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger snapshot: %w", err)
	}
	data = append(data, '\n')
	tmpPath := fmt.Sprintf("%s.%s.tmp", filePath, idgen.New())
	if err := s.fs.Upload(ctx, tmpPath, ledgerFileMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write ledger temp file: %w", err)
	}
	if err := s.fs.Move(ctx, tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}
