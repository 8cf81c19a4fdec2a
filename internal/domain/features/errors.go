package features

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrParse           = errors.New("parse error")
	ErrJoinCardinality = errors.New("join cardinality violation")
	ErrEmptyInput      = errors.New("empty input")
)
