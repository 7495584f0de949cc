// Package policy provides the declarative authorization rules applied to
// approval requests: resource-scoped policies with per-action roles,
// resolved by best-match specificity, and actor classification derived
// from chat membership configuration.
package policy
