package zvec

import (
	"log/slog"

	"github.com/zvecdb/zvec/resource"
)

type options struct {
	logger     *Logger
	controller *resource.Controller
	readOnly   bool
}

// Option configures a Collection.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithController sets the resource controller gating index builds and
// snapshot IO. Defaults to the process-wide controller installed by Init,
// or unbounded when Init was not called.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithReadOnly marks the collection read-only: Insert and CreateIndex fail
// with ErrReadOnly, queries work. Collections opened from a snapshot are
// read-only regardless.
func WithReadOnly(readOnly bool) Option {
	return func(o *options) {
		o.readOnly = readOnly
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:     processLogger(),
		controller: processController(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
