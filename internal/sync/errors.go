package sync

import "errors"

// Pre-condition / configuration errors, fatal at startup.
var (
	ErrRootMissing      = errors.New("sync: storage root does not exist")
	ErrRootNotDirectory = errors.New("sync: storage root is not a directory")
)
