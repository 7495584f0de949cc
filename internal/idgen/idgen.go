package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier. Override in tests for
// deterministic approval ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a fresh identifier via NewFunc.
func New() string { return NewFunc() }
