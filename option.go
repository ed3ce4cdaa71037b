package coex

import (
	"time"
)

// ServiceOption is an interface which the gateway should implement to allow using configuration options
type ServiceOption interface {
	SetCommandTimeout(time.Duration) error
	SetRetryDelay(initial, step, max time.Duration) error
	SetErrorHandler(handler func(error)) error
	SetReporter(r Reporter) error
}

// An Option is a configuration function, which configures the gateway.
type Option func(ServiceOption) error

// OptCommandTimeout sets how long Send waits for a command to complete.
func OptCommandTimeout(d time.Duration) Option {
	return func(opt ServiceOption) error {
		return opt.SetCommandTimeout(d)
	}
}

// OptRetryDelay sets the bind retry backoff: the first delay, the increment
// after each failed attempt, and the ceiling.
func OptRetryDelay(initial, step, max time.Duration) Option {
	return func(opt ServiceOption) error {
		return opt.SetRetryDelay(initial, step, max)
	}
}

// OptErrorHandler sets error handler
func OptErrorHandler(handler func(error)) Option {
	return func(opt ServiceOption) error {
		return opt.SetErrorHandler(handler)
	}
}

// OptReporter sets the telemetry reporter
func OptReporter(r Reporter) Option {
	return func(opt ServiceOption) error {
		return opt.SetReporter(r)
	}
}
