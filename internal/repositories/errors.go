package repositories

import "errors"

// ErrNotFound is wrapped by every lookup or delete that matched no record.
var ErrNotFound = errors.New("record not found")
