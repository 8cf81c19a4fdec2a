package split

import "github.com/okian/ascent/pkg/logger"

// Option applies a configuration option to a split.
type Option func(*config)

type config struct {
	logger logger.Logger
}

// WithLogger sets a custom logger for the split.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
