package casfs

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the core
type Option func(*Core)

// ReadOnly rejects all mutations
func ReadOnly(enabled bool) Option {
	return func(c *Core) {
		c.readOnly = enabled
	}
}

// Logger specifies a logger for the core
func Logger(l *zap.Logger) Option {
	return func(c *Core) {
		if l != nil {
			c.l = l
		}
	}
}

// Clock sets the time source used to stamp modified files
func Clock(now func() time.Time) Option {
	return func(c *Core) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics enables metrics collection
func WithMetrics(enabled bool) Option {
	return func(c *Core) {
		c.EnableMetrics(enabled)
	}
}
