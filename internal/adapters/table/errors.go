package table

import "errors"

// Sentinel kinds for table errors.
var (
	ErrColumnNotFound = errors.New("column not found")
	ErrRead           = errors.New("read table failed")
	ErrWrite          = errors.New("write table failed")
)
