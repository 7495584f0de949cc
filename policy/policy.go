package policy

import (
	"sort"
	"strings"

	"github.com/openclaw/gating/model"
)

// Action is the policy-gated operation an actor attempts.
type Action string

const (
	ActionRequest Action = "request"
	ActionApprove Action = "approve"
)

// ChatClass is the coarse actor classification derived from chat membership.
type ChatClass string

const (
	ChatAdmin  ChatClass = "admin"
	ChatPublic ChatClass = "public"
)

var chatClassPriority = map[ChatClass]int{
	ChatAdmin:  2,
	ChatPublic: 1,
}

// Role binds an action to the chat classes and optional user allowlist that
// may perform it. An empty Users list means any user in an allowed chat.
type Role struct {
	ChatClasses []ChatClass `json:"chatClasses,omitempty" yaml:"chatClasses,omitempty"`
	Users       []string    `json:"users,omitempty" yaml:"users,omitempty"`
}

// Policy scopes request/approve roles to a resource pattern "type:id" where
// either segment may be the wildcard "*".
type Policy struct {
	Resource string `json:"resource" yaml:"resource"`
	Request  *Role  `json:"request,omitempty" yaml:"request,omitempty"`
	Approve  *Role  `json:"approve,omitempty" yaml:"approve,omitempty"`
}

// Config is the gating section of the service configuration.
type Config struct {
	Enabled                         bool     `json:"enabled" yaml:"enabled"`
	AdminChats                      []string `json:"adminChats,omitempty" yaml:"adminChats,omitempty"`
	PublicChats                     []string `json:"publicChats,omitempty" yaml:"publicChats,omitempty"`
	Policies                        []Policy `json:"policies,omitempty" yaml:"policies,omitempty"`
	AllowPublicViewForCronProposals bool     `json:"allowPublicViewForCronProposals,omitempty" yaml:"allowPublicViewForCronProposals,omitempty"`
}

// Decision is the outcome of an authorization check. Reason is one of the
// stable strings surfaced to callers: gating-disabled, no-policy, no-role,
// chat-not-allowed, user-not-allowed or allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

type match struct {
	policy      *Policy
	specificity int
}

func normalizeChatID(value string) string {
	return strings.TrimSpace(value)
}

func normalizeUser(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// parseResource splits a "type:id" pattern; nil for malformed patterns.
func parseResource(resource string) *model.Resource {
	trimmed := strings.TrimSpace(resource)
	if trimmed == "" {
		return nil
	}
	parts := strings.SplitN(trimmed, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	return &model.Resource{Type: model.ResourceType(parts[0]), ID: parts[1]}
}

func matchResource(resource model.Resource, policy *Policy) *match {
	parsed := parseResource(policy.Resource)
	if parsed == nil {
		return nil
	}
	if string(parsed.Type) != "*" && parsed.Type != resource.Type {
		return nil
	}
	if parsed.ID != "*" && parsed.ID != resource.ID {
		return nil
	}
	specificity := 0
	if string(parsed.Type) != "*" {
		specificity++
	}
	if parsed.ID != "*" {
		specificity++
	}
	return &match{policy: policy, specificity: specificity}
}

// ResolveForResource returns the maximum-specificity policy matching the
// resource, or nil when none matches. Between equally specific matches the
// first one in declaration order wins.
func ResolveForResource(cfg *Config, resource model.Resource) *Policy {
	if cfg == nil {
		return nil
	}
	var best *match
	for i := range cfg.Policies {
		candidate := matchResource(resource, &cfg.Policies[i])
		if candidate == nil {
			continue
		}
		if best == nil || candidate.specificity > best.specificity {
			best = candidate
		}
	}
	if best == nil {
		return nil
	}
	return best.policy
}

// ResolveChatClasses returns the classes the actor's chat belongs to,
// admin ranked before public.
func ResolveChatClasses(cfg *Config, chatID string) []ChatClass {
	chatID = normalizeChatID(chatID)
	if cfg == nil || chatID == "" {
		return nil
	}
	classes := make([]ChatClass, 0, 2)
	for _, candidate := range cfg.AdminChats {
		if normalizeChatID(candidate) == chatID {
			classes = append(classes, ChatAdmin)
			break
		}
	}
	for _, candidate := range cfg.PublicChats {
		if normalizeChatID(candidate) == chatID {
			classes = append(classes, ChatPublic)
			break
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		return chatClassPriority[classes[i]] > chatClassPriority[classes[j]]
	})
	return classes
}

func isChatClassAllowed(role *Role, classes []ChatClass) bool {
	if role == nil || len(role.ChatClasses) == 0 {
		return false
	}
	for _, allowed := range role.ChatClasses {
		for _, class := range classes {
			if allowed == class {
				return true
			}
		}
	}
	return false
}

// isUserAllowed checks the role's user allowlist. Entries match the actor's
// "@username", raw user id or "id:<userId>" form, case-insensitively. An
// empty allowlist allows everyone.
func isUserAllowed(role *Role, actor model.Actor) bool {
	if role == nil || len(role.Users) == 0 {
		return true
	}
	userID := normalizeUser(actor.UserID)
	username := ""
	if actor.Username != "" {
		username = normalizeUser("@" + actor.Username)
	}
	for _, entry := range role.Users {
		normalized := normalizeUser(entry)
		if normalized == "" {
			continue
		}
		if username != "" && normalized == username {
			return true
		}
		if userID != "" && normalized == userID {
			return true
		}
		if strings.HasPrefix(normalized, "id:") && userID != "" && normalized[len("id:"):] == userID {
			return true
		}
	}
	return false
}

// IsActionAllowed authorizes an actor to perform action on the resource.
func IsActionAllowed(cfg *Config, action Action, resource model.Resource, actor model.Actor) Decision {
	if cfg == nil || !cfg.Enabled {
		return Decision{Allowed: false, Reason: "gating-disabled"}
	}
	resolved := ResolveForResource(cfg, resource)
	if resolved == nil {
		return Decision{Allowed: false, Reason: "no-policy"}
	}
	role := resolved.Approve
	if action == ActionRequest {
		role = resolved.Request
	}
	if role == nil {
		return Decision{Allowed: false, Reason: "no-role"}
	}
	classes := ResolveChatClasses(cfg, actor.ChatID)
	if !isChatClassAllowed(role, classes) {
		return Decision{Allowed: false, Reason: "chat-not-allowed"}
	}
	if !isUserAllowed(role, actor) {
		return Decision{Allowed: false, Reason: "user-not-allowed"}
	}
	return Decision{Allowed: true, Reason: "allowed"}
}
