package systems

import "errors"

var (
	// ErrSpawnExhausted means no collision-free spawn pose was found.
	ErrSpawnExhausted = errors.New("no collision-free spawn position found")

	// ErrModeMismatch means an operation was used in a mode that does not support it.
	ErrModeMismatch = errors.New("operation not supported in this agent mode")
)
