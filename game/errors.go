package game

import "errors"

// ErrNotReset is returned by Step before the first Reset or after an
// episode finished.
var ErrNotReset = errors.New("env: step called before reset")
