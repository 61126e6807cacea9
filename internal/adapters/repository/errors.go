package repository

import "errors"

// ErrLockTimeout is returned when the registry file lock could not be taken
// before the context ended.
var ErrLockTimeout = errors.New("registry lock not acquired")
