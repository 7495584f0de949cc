package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openclaw/gating/model"
)

// JournalEntry is one append-only record of postings applied to a ledger.
type JournalEntry struct {
	RunID       string                 `json:"runId"`
	ApprovalID  string                 `json:"approvalId"`
	Timestamp   time.Time              `json:"timestamp"`
	Postings    []model.LedgerPosting  `json:"postings"`
	Provenance  model.LedgerProvenance `json:"provenance"`
	PayloadHash string                 `json:"payloadHash"`
}

// HashPayload returns the hex sha256 of the payload's JSON encoding, used
// to tie a journal entry back to the exact approved payload.
func HashPayload(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Journal appends ledger journal entries as ndjson, one
// "<ledger>/journal.ndjson" file per ledger under the base directory.
type Journal struct {
	baseDir string
}

// NewJournal creates a journal rooted at baseDir.
func NewJournal(baseDir string) (*Journal, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("journal base directory cannot be empty")
	}
	return &Journal{baseDir: baseDir}, nil
}

func (j *Journal) entryPath(ledger string) (string, error) {
	if !IsValidName(ledger) {
		return "", fmt.Errorf("invalid ledger name: %q", ledger)
	}
	return filepath.Join(j.baseDir, ledger, "journal.ndjson"), nil
}

// Append writes one entry to the named ledger's journal. The journal is an
// append-only ndjson file; the O_APPEND write keeps concurrent appenders
// line-atomic without a separate lock.
func (j *Journal) Append(ledger string, entry *JournalEntry) error {
	filePath, err := j.entryPath(ledger)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	handle, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer handle.Close()
	if _, err := handle.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// Read returns all well-formed entries in the named ledger's journal.
// Malformed lines are skipped; a missing journal yields no entries.
func (j *Journal) Read(ledger string) ([]*JournalEntry, error) {
	filePath, err := j.entryPath(ledger)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	var entries []*JournalEntry
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry JournalEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
