// Package callback encodes and decodes the versioned tokens that identify
// an (approval id, action) pair on approval-card buttons. The version
// segment lets future schema changes reject stale or foreign tokens safely.
package callback
