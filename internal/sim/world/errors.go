package world

import "errors"

// ErrInvalidConfig marks numeric configuration that must be rejected before the first tick.
var ErrInvalidConfig = errors.New("invalid config")
