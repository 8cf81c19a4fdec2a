package synthetic

import "errors"

// ErrInvalidConfig is returned when a Config cannot produce a dataset.
var ErrInvalidConfig = errors.New("invalid synthetic config")
