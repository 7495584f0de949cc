// Package cronops exposes the on-disk layout of the cron proposal
// workspace - pending proposal directories, the apply wrapper, run logs
// and the usage-metrics journal - plus budget enforcement over it.
package cronops
