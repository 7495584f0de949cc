package cronops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UsageEvent records one cron run for budget accounting. Timestamps are
// RFC-3339 strings so partially populated legacy lines still parse.
type UsageEvent struct {
	ProposalID       string  `json:"proposalId,omitempty"`
	JobID            string  `json:"jobId,omitempty"`
	StartTime        string  `json:"startTime"`
	EndTime          string  `json:"endTime"`
	TokensUsed       int     `json:"tokensUsed,omitempty"`
	Model            string  `json:"model,omitempty"`
	EstimatedCostUsd float64 `json:"estimatedCostUsd,omitempty"`
	ExitStatus       string  `json:"exitStatus,omitempty"`
}

// UsageJournal appends and reads cron usage events stored as ndjson in
// metrics/usage.ndjson under the cronops root.
type UsageJournal struct {
	filePath string
}

// NewUsageJournal creates a usage journal under the given cronops root.
func NewUsageJournal(root string) (*UsageJournal, error) {
	if root == "" {
		return nil, fmt.Errorf("cronops root cannot be empty")
	}
	return &UsageJournal{filePath: filepath.Join(root, "metrics", "usage.ndjson")}, nil
}

// Append writes one usage event.
func (j *UsageJournal) Append(event *UsageEvent) error {
	if err := os.MkdirAll(filepath.Dir(j.filePath), 0o700); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal usage event: %w", err)
	}
	handle, err := os.OpenFile(j.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open usage journal: %w", err)
	}
	defer handle.Close()
	if _, err := handle.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append usage event: %w", err)
	}
	return nil
}

// Read returns all well-formed usage events. Malformed lines are skipped
// and a missing journal yields no events.
func (j *UsageJournal) Read() ([]*UsageEvent, error) {
	data, err := os.ReadFile(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read usage journal: %w", err)
	}
	var events []*UsageEvent
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var event UsageEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, &event)
	}
	return events, nil
}
