package hci

import (
	"time"

	"github.com/pkg/errors"
)

func (h *Service) bind() error {
	h.attempts.Add(1)
	if err := h.binder.Bind(h.Send); err != nil {
		return errors.Wrap(err, "bind to coex service")
	}
	h.bound.Store(true)
	h.logger.Info("bound to coex service")
	return nil
}

// retryLoop keeps trying to bind, waiting a little longer after each failure.
// It exits on success or when the service is closed; the wait is cut short
// by Close.
func (h *Service) retryLoop() {
	defer h.retrying.Done()

	delay := h.retryInitial
	t := time.NewTimer(delay)
	defer t.Stop()

	for {
		h.logger.Tracef("wait %v before retrying to bind", delay)
		select {
		case <-h.done:
			h.logger.Debug("hci service stopped, retry loop exit")
			return
		case <-t.C:
		}

		if h.stopped.Load() {
			h.logger.Debug("hci service stopped, retry loop exit")
			return
		}

		err := h.bind()
		if err == nil {
			return
		}

		delay = nextDelay(delay, h.retryStep, h.retryMax)
		h.logger.Debugf("%v, retry in %v", err, delay)
		t.Reset(delay)
	}
}

func nextDelay(d, step, max time.Duration) time.Duration {
	d += step
	if d > max {
		d = max
	}
	return d
}
