// Package store defines the approval store contract together with its
// filesystem and in-memory implementations (see the fs and memory
// sub-packages).
package store
