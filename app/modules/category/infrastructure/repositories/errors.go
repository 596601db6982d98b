package categorydb

import "errors"

// ErrNotFound indicates the requested category does not exist.
var ErrNotFound = errors.New("category not found")
