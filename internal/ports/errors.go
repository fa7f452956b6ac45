package ports

import "errors"

// ErrDuplicate is returned by repositories when a unique key is violated
var ErrDuplicate = errors.New("duplicate key")
