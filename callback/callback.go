package callback

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Action is the operation a callback token requests on an approval.
type Action string

const (
	ActionApprove         Action = "approve"
	ActionDeny            Action = "deny"
	ActionApproveRecreate Action = "approve_recreate"
)

const (
	prefix  = "gating"
	version = "v1"
)

// Data is a decoded callback token.
type Data struct {
	ApprovalID string
	Action     Action
}

// Encode builds the wire token "gating:v1:<approvalId>:<action>".
func Encode(approvalID string, action Action) string {
	return fmt.Sprintf("%s:%s:%s:%s", prefix, version, approvalID, action)
}

// Decode parses a callback token. It returns nil for anything this version
// does not recognise - wrong segment count, foreign prefix, unknown version,
// malformed approval id or unknown action - so stale or spoofed tokens are
// treated as "not handled" rather than errors.
func Decode(raw string) *Data {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 4 {
		return nil
	}
	if parts[0] != prefix || parts[1] != version {
		return nil
	}
	if _, err := uuid.Parse(parts[2]); err != nil {
		return nil
	}
	action := Action(parts[3])
	switch action {
	case ActionApprove, ActionDeny, ActionApproveRecreate:
	default:
		return nil
	}
	return &Data{ApprovalID: parts[2], Action: action}
}
