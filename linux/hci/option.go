package hci

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/coex"
)

// SetCommandTimeout sets how long Send waits for the Command Complete event.
func (h *Service) SetCommandTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.Errorf("invalid command timeout %v", d)
	}
	h.cmdTimeout = d
	return nil
}

// SetRetryDelay sets the bind retry backoff.
func (h *Service) SetRetryDelay(initial, step, max time.Duration) error {
	if initial <= 0 || step < 0 || max < initial {
		return errors.Errorf("invalid retry delay (initial %v, step %v, max %v)", initial, step, max)
	}
	h.retryInitial = initial
	h.retryStep = step
	h.retryMax = max
	return nil
}

// SetErrorHandler sets a handler for errors the caller of Send may not be
// watching for, such as command timeouts. The handler must not call Close.
func (h *Service) SetErrorHandler(handler func(error)) error {
	h.errorHandler = handler
	return nil
}

// SetReporter sets the sink for telemetry error records.
func (h *Service) SetReporter(r coex.Reporter) error {
	h.reporter = r
	return nil
}
