package gating

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/openclaw/gating/policy"
	"github.com/openclaw/gating/service/cronops"
	"github.com/openclaw/gating/service/executor/trade"
)

// TradingConfig groups per-exchange trading settings.
type TradingConfig struct {
	Kraken *trade.Config `json:"kraken,omitempty" yaml:"kraken,omitempty"`
}

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON or YAML; the zero value disables gating and
// keeps all state under the default state directory.
type Config struct {
	Gating      policy.Config         `json:"gating" yaml:"gating"`
	Budgets     *cronops.BudgetConfig `json:"budgets,omitempty" yaml:"budgets,omitempty"`
	Trading     *TradingConfig        `json:"trading,omitempty" yaml:"trading,omitempty"`
	StateDir    string                `json:"stateDir" yaml:"stateDir"`
	CronopsRoot string                `json:"cronopsRoot,omitempty" yaml:"cronopsRoot,omitempty"`
}

// DefaultConfig returns a Config with the defaults callers may modify
// before passing it to New.
func DefaultConfig() *Config {
	return &Config{StateDir: "state"}
}

// ApprovalStorePath returns the approval store file location.
func (c *Config) ApprovalStorePath() string {
	return filepath.Join(c.StateDir, "approvals.json")
}

// LedgersDir returns the directory holding ledger snapshots and journals.
func (c *Config) LedgersDir() string {
	return filepath.Join(c.StateDir, "ledgers")
}

// KrakenConfig returns the kraken trading section, or nil.
func (c *Config) KrakenConfig() *trade.Config {
	if c == nil || c.Trading == nil {
		return nil
	}
	return c.Trading.Kraken
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.StateDir == "" {
		return fmt.Errorf("stateDir cannot be empty")
	}
	if c.Budgets != nil {
		if c.Budgets.MaxDailyTokens < 0 {
			return fmt.Errorf("budgets.maxDailyTokens cannot be negative")
		}
		if c.Budgets.MaxSingleRunCostUsd < 0 {
			return fmt.Errorf("budgets.maxSingleRunCostUsd cannot be negative")
		}
	}
	return nil
}

// LoadConfig reads a YAML configuration file, filling unset fields from
// DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if config.StateDir == "" {
		config.StateDir = DefaultConfig().StateDir
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
