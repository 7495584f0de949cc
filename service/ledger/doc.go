// Package ledger maintains named key-value ledger snapshots and their
// append-only journals. Snapshot writes follow the same lock-then-atomic-
// rename discipline as the approval store, with one lock per ledger file.
package ledger
