// Package model defines the approval-request data model shared by the
// gating service, the approval store and the executors: request records,
// audit events, resource/actor identities and the kind-tagged payload
// variants.
package model
