package repositories

import "errors"

// ErrNotFound is wrapped by every repository lookup that matched no row.
var ErrNotFound = errors.New("record not found")
