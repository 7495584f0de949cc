package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/gating/model"
)

func testConfig() *Config {
	return &Config{
		Enabled:     true,
		AdminChats:  []string{"admin-1"},
		PublicChats: []string{"public-1"},
		Policies: []Policy{
			{
				Resource: "ledger:*",
				Request:  &Role{ChatClasses: []ChatClass{ChatAdmin}},
				Approve:  &Role{ChatClasses: []ChatClass{ChatAdmin}},
			},
			{
				Resource: "ledger:finance",
				Request:  &Role{ChatClasses: []ChatClass{ChatAdmin, ChatPublic}},
				Approve:  &Role{ChatClasses: []ChatClass{ChatAdmin}, Users: []string{"@alice", "id:42"}},
			},
			{
				Resource: "cron_proposal:*",
				Request:  &Role{ChatClasses: []ChatClass{ChatAdmin}},
				Approve:  &Role{ChatClasses: []ChatClass{ChatAdmin}},
			},
		},
	}
}

func TestResolveForResource(t *testing.T) {
	cfg := testConfig()

	resolved := ResolveForResource(cfg, model.Resource{Type: model.ResourceLedger, ID: "finance"})
	require.NotNil(t, resolved)
	assert.Equal(t, "ledger:finance", resolved.Resource, "exact match beats wildcard")

	resolved = ResolveForResource(cfg, model.Resource{Type: model.ResourceLedger, ID: "ops"})
	require.NotNil(t, resolved)
	assert.Equal(t, "ledger:*", resolved.Resource)

	assert.Nil(t, ResolveForResource(cfg, model.Resource{Type: model.ResourceExchange, ID: "kraken"}))
}

func TestResolveForResourceTieBreak(t *testing.T) {
	cfg := &Config{
		Enabled: true,
		Policies: []Policy{
			{Resource: "ledger:*", Request: &Role{ChatClasses: []ChatClass{ChatAdmin}}},
			{Resource: "*:finance", Approve: &Role{ChatClasses: []ChatClass{ChatAdmin}}},
		},
	}
	resolved := ResolveForResource(cfg, model.Resource{Type: model.ResourceLedger, ID: "finance"})
	require.NotNil(t, resolved)
	assert.Equal(t, "ledger:*", resolved.Resource, "first declared policy wins between equal specificity")
}

func TestResolveChatClasses(t *testing.T) {
	cfg := testConfig()
	cfg.PublicChats = append(cfg.PublicChats, "admin-1")

	assert.Equal(t, []ChatClass{ChatAdmin, ChatPublic}, ResolveChatClasses(cfg, "admin-1"))
	assert.Equal(t, []ChatClass{ChatPublic}, ResolveChatClasses(cfg, "public-1"))
	assert.Empty(t, ResolveChatClasses(cfg, "elsewhere"))
}

func TestIsActionAllowed(t *testing.T) {
	finance := model.Resource{Type: model.ResourceLedger, ID: "finance"}
	admin := model.Actor{Channel: "telegram", ChatID: "admin-1", UserID: "42", Username: "alice"}

	testCases := []struct {
		name    string
		mutate  func(cfg *Config)
		action  Action
		actor   model.Actor
		allowed bool
		reason  string
	}{
		{
			name:    "disabled",
			mutate:  func(cfg *Config) { cfg.Enabled = false },
			action:  ActionRequest,
			actor:   admin,
			allowed: false,
			reason:  "gating-disabled",
		},
		{
			name:    "no policy",
			mutate:  func(cfg *Config) { cfg.Policies = nil },
			action:  ActionRequest,
			actor:   admin,
			allowed: false,
			reason:  "no-policy",
		},
		{
			name:    "no role",
			mutate:  func(cfg *Config) { cfg.Policies[1].Approve = nil },
			action:  ActionApprove,
			actor:   admin,
			allowed: false,
			reason:  "no-role",
		},
		{
			name:    "chat not allowed",
			action:  ActionApprove,
			actor:   model.Actor{ChatID: "public-1", Username: "alice"},
			allowed: false,
			reason:  "chat-not-allowed",
		},
		{
			name:    "user not allowed",
			action:  ActionApprove,
			actor:   model.Actor{ChatID: "admin-1", Username: "mallory", UserID: "666"},
			allowed: false,
			reason:  "user-not-allowed",
		},
		{
			name:    "allowed by username",
			action:  ActionApprove,
			actor:   model.Actor{ChatID: "admin-1", Username: "Alice"},
			allowed: true,
			reason:  "allowed",
		},
		{
			name:    "allowed by user id form",
			action:  ActionApprove,
			actor:   model.Actor{ChatID: "admin-1", UserID: "42"},
			allowed: true,
			reason:  "allowed",
		},
		{
			name:    "request from public chat",
			action:  ActionRequest,
			actor:   model.Actor{ChatID: "public-1", UserID: "7"},
			allowed: true,
			reason:  "allowed",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := testConfig()
			if testCase.mutate != nil {
				testCase.mutate(cfg)
			}
			decision := IsActionAllowed(cfg, testCase.action, finance, testCase.actor)
			assert.Equal(t, testCase.allowed, decision.Allowed)
			assert.Equal(t, testCase.reason, decision.Reason)
		})
	}
}

func TestIsUserAllowedEmptyAllowlist(t *testing.T) {
	role := &Role{ChatClasses: []ChatClass{ChatAdmin}}
	assert.True(t, isUserAllowed(role, model.Actor{UserID: "anyone"}))
}
