package fs

import (
	"github.com/viant/afs"

	"github.com/openclaw/gating/internal/lockfile"
)

// Option customizes the filesystem store.
type Option func(*Service)

// WithAfs overrides the file storage service (e.g. for mem:// backed tests).
func WithAfs(service afs.Service) Option {
	return func(s *Service) { s.fs = service }
}

// WithLockConfig overrides the lock acquisition bounds.
func WithLockConfig(config lockfile.Config) Option {
	return func(s *Service) { s.locker = lockfile.New(s.filePath, config) }
}
