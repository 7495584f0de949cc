package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/openclaw/gating"
	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/cronops"
	"github.com/openclaw/gating/service/executor"
	"github.com/openclaw/gating/service/executor/cron"
	lexecutor "github.com/openclaw/gating/service/executor/ledger"
	"github.com/openclaw/gating/service/executor/trade"
	"github.com/openclaw/gating/service/ledger"
	"github.com/openclaw/gating/service/store/fs"
	"github.com/openclaw/gating/tracing"
)

func loadConfig() (*gating.Config, error) {
	config := gating.DefaultConfig()
	if path := viper.GetString("config"); path != "" {
		loaded, err := gating.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if stateDir := viper.GetString("state-dir"); stateDir != "" {
		config.StateDir = stateDir
	}
	return config, config.Validate()
}

// buildService wires a fully configured gating service: filesystem approval
// store, ledger store and journal, optional cronops workspace and the full
// executor set, with cards delivered to stdout.
func buildService() (*gating.Service, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	approvalStore, err := fs.New(config.ApprovalStorePath())
	if err != nil {
		return nil, err
	}
	ledgerStore, err := ledger.NewStore(config.LedgersDir())
	if err != nil {
		return nil, err
	}
	journal, err := ledger.NewJournal(config.LedgersDir())
	if err != nil {
		return nil, err
	}
	executors := []executor.Service{
		lexecutor.NewPatch(ledgerStore),
		lexecutor.NewPostings(journal),
		trade.New(config.KrakenConfig()),
	}
	options := []gating.Option{
		gating.WithConfig(config),
		gating.WithStore(approvalStore),
		gating.WithMessenger(newStdoutMessenger()),
		gating.WithExecutors(executors...),
	}
	if config.CronopsRoot != "" {
		workspace, err := cronops.NewWorkspace(config.CronopsRoot)
		if err != nil {
			return nil, err
		}
		usage, err := cronops.NewUsageJournal(config.CronopsRoot)
		if err != nil {
			return nil, err
		}
		options = append(options,
			gating.WithWorkspace(workspace),
			gating.WithUsageJournal(usage),
			gating.WithExecutors(cron.Executors(workspace, usage)...),
		)
	}
	if viper.GetBool("trace") {
		if err := tracing.Init("gatingctl", "0.1.0", ""); err != nil {
			return nil, fmt.Errorf("failed to initialise tracing: %w", err)
		}
		options = append(options, gating.WithTracing())
	}
	return gating.New(options...), nil
}

func actorFromFlags() model.Actor {
	return model.Actor{
		Channel:  "cli",
		ChatID:   viper.GetString("chat"),
		UserID:   viper.GetString("user"),
		Username: viper.GetString("username"),
	}
}
