package repository

import "errors"

// ErrNotFound reports a missing record; callers match it with errors.Is.
var ErrNotFound = errors.New("not found")
