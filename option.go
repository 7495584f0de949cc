package gating

import (
	"github.com/openclaw/gating/service/cronops"
	"github.com/openclaw/gating/service/executor"
	"github.com/openclaw/gating/service/messenger"
	"github.com/openclaw/gating/service/store"
)

// Option customizes the gating service.
type Option func(s *Service)

// WithConfig sets the service configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithStore sets the approval store.
func WithStore(svc store.Service) Option {
	return func(s *Service) { s.store = svc }
}

// WithMessenger sets the card delivery collaborator.
func WithMessenger(svc messenger.Service) Option {
	return func(s *Service) { s.messenger = svc }
}

// WithExecutors registers executors for the kinds they handle.
func WithExecutors(services ...executor.Service) Option {
	return func(s *Service) {
		if s.executors == nil {
			s.executors = executor.NewRegistry()
		}
		s.executors.Register(services...)
	}
}

// WithWorkspace sets the cronops workspace used for proposal summaries.
func WithWorkspace(workspace *cronops.Workspace) Option {
	return func(s *Service) { s.workspace = workspace }
}

// WithUsageJournal sets the cron usage journal consulted by budget checks.
func WithUsageJournal(journal *cronops.UsageJournal) Option {
	return func(s *Service) { s.usage = journal }
}

// WithTracing enables span creation around the service entry points.
func WithTracing() Option {
	return func(s *Service) { s.tracing = true }
}
