package split

import "errors"

var (
	// ErrInvalidRatio is returned when the test ratio is outside (0, 1).
	ErrInvalidRatio = errors.New("test ratio must be in (0, 1)")
	// ErrEmptyInput marks the warning logged for a table without rows.
	ErrEmptyInput = errors.New("empty input")
)
