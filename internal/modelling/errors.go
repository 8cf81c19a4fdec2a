package modelling

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidTarget    = errors.New("invalid target")
	ErrAttributionShape = errors.New("attribution shape mismatch")
	ErrTooFewSamples    = errors.New("too few samples")
	ErrInvalidParams    = errors.New("invalid parameters")
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrFeatureMismatch  = errors.New("feature mismatch")
	ErrEmptySearchSpace = errors.New("empty search space")
)
