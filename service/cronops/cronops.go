package cronops

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"

	"github.com/viant/afs"
)

var proposalIDRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// IsValidProposalID reports whether value is an acceptable proposal id.
func IsValidProposalID(value string) bool {
	return proposalIDRe.MatchString(value)
}

// ProposalSummary is the subset of proposal metadata shown on approval
// cards.
type ProposalSummary struct {
	LogicalID string
	Schedule  string
}

// Workspace navigates a cronops root directory: pending proposals live in
// proposals/pending/<id>, the apply wrapper in bin/ and run logs in logs/.
type Workspace struct {
	root string
	fs   afs.Service
}

// NewWorkspace creates a workspace over the given cronops root.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		return nil, fmt.Errorf("cronops root cannot be empty")
	}
	return &Workspace{root: root, fs: afs.New()}, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// ApplyScriptPath returns the path of the apply wrapper script.
func (w *Workspace) ApplyScriptPath() string {
	return path.Join(w.root, "bin", "cronops_exec_apply.sh")
}

// ApplyScriptExists reports whether the apply wrapper is present.
func (w *Workspace) ApplyScriptExists(ctx context.Context) bool {
	exists, _ := w.fs.Exists(ctx, w.ApplyScriptPath())
	return exists
}

// ProposalDir returns the pending directory of a proposal.
func (w *Workspace) ProposalDir(proposalID string) string {
	return path.Join(w.root, "proposals", "pending", proposalID)
}

// ProposalExists reports whether a pending proposal directory exists.
func (w *Workspace) ProposalExists(ctx context.Context, proposalID string) bool {
	object, err := w.fs.Object(ctx, w.ProposalDir(proposalID))
	if err != nil || object == nil {
		return false
	}
	return object.IsDir()
}

// LoadProposalSummary reads proposal.json (or the legacy meta.json) from a
// pending proposal directory; nil when neither exists or parsing fails.
// Both snake_case and camelCase metadata keys are accepted.
func (w *Workspace) LoadProposalSummary(ctx context.Context, proposalID string) *ProposalSummary {
	dir := w.ProposalDir(proposalID)
	for _, name := range []string{"proposal.json", "meta.json"} {
		candidate := path.Join(dir, name)
		exists, err := w.fs.Exists(ctx, candidate)
		if err != nil || !exists {
			continue
		}
		data, err := w.fs.DownloadWithURL(ctx, candidate)
		if err != nil {
			return nil
		}
		var meta struct {
			LogicalID      string `json:"logicalId"`
			LogicalIDSnake string `json:"logical_id"`
			Schedule       string `json:"schedule"`
			Cron           string `json:"cron"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil
		}
		summary := &ProposalSummary{LogicalID: meta.LogicalID, Schedule: meta.Schedule}
		if summary.LogicalID == "" {
			summary.LogicalID = meta.LogicalIDSnake
		}
		if summary.Schedule == "" {
			summary.Schedule = meta.Cron
		}
		return summary
	}
	return nil
}

// ResolveLogRef returns a state-relative reference to the proposal's run
// log: the per-proposal log when present, the logs directory as a fallback,
// empty when neither exists.
func (w *Workspace) ResolveLogRef(ctx context.Context, proposalID string) string {
	logsDir := path.Join(w.root, "logs")
	candidate := path.Join(logsDir, proposalID+".log")
	if exists, _ := w.fs.Exists(ctx, candidate); exists {
		return path.Join("cronops", "logs", proposalID+".log")
	}
	if exists, _ := w.fs.Exists(ctx, logsDir); exists {
		return path.Join("cronops", "logs")
	}
	return ""
}
