package hci

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/coex"
	"github.com/rigado/coex/linux/hci/cmd"
)

// NewService returns a gateway that sends HCI commands through the callbacks
// registered with vnd, and offers its Send to the coexistence service through b.
func NewService(vnd coex.CallbackProvider, b coex.Binder, opts ...coex.Option) (*Service, error) {
	h := &Service{
		vendor: vnd,
		binder: b,

		cmdTimeout:   defaultCommandTimeout,
		retryInitial: defaultRetryInitial,
		retryStep:    defaultRetryStep,
		retryMax:     defaultRetryMax,

		slot: newSlot(),
		sem:  make(chan struct{}, 1),
		done: make(chan struct{}),

		logger: coex.GetLogger().ChildLogger(map[string]interface{}{"component": component}),
	}

	if err := h.Option(opts...); err != nil {
		return nil, errors.Wrap(err, "can't set options")
	}

	return h, nil
}

// Service is a synchronous gateway in front of the asynchronous HCI command
// transport. Send blocks until the command completes, times out, or the
// service is closed. Concurrent callers are served one at a time.
type Service struct {
	vendor coex.CallbackProvider
	binder coex.Binder

	cmdTimeout   time.Duration
	retryInitial time.Duration
	retryStep    time.Duration
	retryMax     time.Duration

	// single in-flight command
	slot *slot
	sem  chan struct{}

	// Send holds muClose for reading for its whole duration, Close for writing.
	muClose sync.RWMutex

	started  atomic.Bool
	stopped  atomic.Bool
	bound    atomic.Bool
	attempts atomic.Uint64
	retrying sync.WaitGroup

	stopOnce  sync.Once
	closeOnce sync.Once
	done      chan struct{}

	//error handler
	errorHandler func(error)
	reporter     coex.Reporter
	logger       coex.Logger
}

// Option sets the options specified.
func (h *Service) Option(opts ...coex.Option) error {
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return err
		}
	}
	return nil
}

// Init binds to the coexistence service. If the first attempt fails a
// background goroutine keeps retrying until it succeeds or the service is
// closed; Init itself does not wait for it.
func (h *Service) Init() error {
	if h.stopped.Load() {
		return errors.Wrap(coex.ErrServiceUnavailable, "hci service is stopped")
	}
	if !h.started.CompareAndSwap(false, true) {
		return errors.New("hci service already started")
	}

	if err := h.validate(); err != nil {
		h.logger.Errorf("init failed: %v", err)
		h.report("init_failed")
		h.stop()
		return errors.Wrap(err, "can't init hci service")
	}

	// Close waits on retrying under the write lock, after setting stopped.
	h.muClose.RLock()
	if h.stopped.Load() {
		h.muClose.RUnlock()
		return errors.Wrap(coex.ErrServiceUnavailable, "hci service is stopped")
	}
	h.retrying.Add(1)
	h.muClose.RUnlock()

	if err := h.bind(); err != nil {
		h.logger.Debugf("bind failure, planning to retry later: %v", err)
		go h.retryLoop()
		return nil
	}
	h.retrying.Done()

	return nil
}

func (h *Service) validate() error {
	switch {
	case h.binder == nil:
		return errors.New("no binder")
	case h.vendor == nil:
		return errors.New("no vendor library")
	case h.cmdTimeout <= 0:
		return errors.Errorf("invalid command timeout %v", h.cmdTimeout)
	case h.retryInitial <= 0 || h.retryMax < h.retryInitial:
		return errors.Errorf("invalid retry delay (initial %v, max %v)", h.retryInitial, h.retryMax)
	}
	return nil
}

// Close stops the service. Calls to Send fail with ErrServiceUnavailable from
// now on; a Send waiting for its completion returns early. Close returns once
// no Send is in flight and the bind retry goroutine has exited.
func (h *Service) Close() error {
	h.closeOnce.Do(func() {
		h.logger.Debug("close requested")
		h.stop()

		h.muClose.Lock()
		h.retrying.Wait()
		h.slot.reset()
		h.muClose.Unlock()

		h.logger.Debug("closed")
	})
	return nil
}

func (h *Service) stop() {
	h.stopOnce.Do(func() {
		h.stopped.Store(true)
		close(h.done)
	})
}

// Stopped reports whether the service refuses new commands.
func (h *Service) Stopped() bool {
	return h.stopped.Load()
}

// Bound reports whether the coexistence service accepted the bind.
func (h *Service) Bound() bool {
	return h.bound.Load()
}

// BindAttempts is the number of bind attempts made so far.
func (h *Service) BindAttempts() uint64 {
	return h.attempts.Load()
}

// Send sends one HCI command and waits for its Command Complete event.
//
// Errors match (errors.Is) one of coex.ErrServiceUnavailable,
// coex.ErrInvalidArgument, coex.ErrNotInitialized, coex.ErrInternal,
// coex.ErrTimeout or coex.ErrCommandFailed. The command is never retried.
func (h *Service) Send(b []byte) error {
	if h.stopped.Load() {
		h.logger.Warn("hci service is stopped")
		return errors.Wrap(coex.ErrServiceUnavailable, "hci service is stopped")
	}

	if len(b) == 0 {
		h.logger.Error("empty command")
		return errors.Wrap(coex.ErrInvalidArgument, "empty command")
	}

	p := cmd.Packet(b)
	if err := p.Validate(); err != nil {
		h.logger.Errorf("wrong command length: %v", err)
		return errors.Wrapf(coex.ErrInvalidArgument, "%v", err)
	}

	cb := h.callbacks()
	if cb == nil {
		h.logger.Error("vendor callbacks not initialized")
		return errors.Wrap(coex.ErrNotInitialized, "vendor callbacks not initialized")
	}

	h.muClose.RLock()
	defer h.muClose.RUnlock()

	// one command at a time
	select {
	case h.sem <- struct{}{}:
	case <-h.done:
		return errors.Wrap(coex.ErrServiceUnavailable, "hci service is stopped")
	}
	defer func() { <-h.sem }()

	if h.stopped.Load() {
		return errors.Wrap(coex.ErrServiceUnavailable, "hci service is stopped")
	}

	return h.send(cb, p)
}

func (h *Service) send(cb coex.Callbacks, p cmd.Packet) error {
	// time spent in Transmit counts against the command timeout
	deadline := time.Now().Add(h.cmdTimeout)

	// Transmitted buffers are released by the stack.
	msg := cb.Alloc(len(p))
	if len(msg) < len(p) {
		if msg != nil {
			cb.Release(msg)
		}
		h.logger.Error("failed to allocate buffer")
		return errors.Wrap(coex.ErrInternal, "failed to allocate buffer")
	}
	copy(msg, p)
	h.logger.Tracef("%v", packetDump(p))

	op := p.OpCode()
	gen := h.slot.arm()
	if err := cb.Transmit(op, msg, h.completion(cb, gen, op)); err != nil {
		h.slot.abandon(gen)
		cb.Release(msg)
		h.logger.Errorf("failed to xmit buffer: %v", err)
		return errors.Wrapf(coex.ErrInternal, "failed to xmit buffer: %v", err)
	}

	return h.wait(cb, gen, op, deadline)
}

func (h *Service) wait(cb coex.Callbacks, gen uint64, op uint16, deadline time.Time) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		select {
		case <-h.slot.wake:
			status, ok := h.slot.take(gen)
			if !ok {
				continue
			}
			return h.result(op, status)

		case <-timer.C:
			// the completion may have raced the deadline
			if status, ok := h.slot.abandon(gen); ok {
				return h.result(op, status)
			}
			h.cancel(cb, op)
			err := errors.Wrapf(coex.ErrTimeout, "no command complete for opcode 0x%04X after %v", op, h.cmdTimeout)
			h.logger.Error(err)
			h.report("cmd_timeout")
			h.dispatchError(err)
			return err

		case <-h.done:
			if _, ok := h.slot.abandon(gen); !ok {
				h.cancel(cb, op)
			}
			return errors.Wrapf(coex.ErrServiceUnavailable, "hci service stopped while waiting for opcode 0x%04X", op)
		}
	}
}

func (h *Service) result(op uint16, status uint8) error {
	if status == 0x00 {
		h.logger.Tracef("command 0x%04X succeeded", op)
		return nil
	}
	h.logger.Errorf("command 0x%04X failed, status 0x%02X", op, status)
	return errors.Wrapf(coex.ErrCommand(status), "opcode 0x%04X", op)
}

// cancel tells the transport to stop tracking op, if it can.
func (h *Service) cancel(cb coex.Callbacks, op uint16) {
	if c, ok := cb.(coex.Canceler); ok {
		h.logger.Debugf("cancel opcode 0x%04X", op)
		c.Cancel(op)
	}
}

// packetDump defers building the dump until the logger formats it.
type packetDump cmd.Packet

func (d packetDump) String() string {
	return cmd.Packet(d).Dump()
}

func (h *Service) callbacks() coex.Callbacks {
	if h.vendor == nil {
		return nil
	}
	return h.vendor.Callbacks()
}

func (h *Service) report(errorClass string) {
	if h.reporter != nil {
		h.reporter.Report(component, errorClass)
	}
}

func (h *Service) dispatchError(e error) {
	switch {
	case h.errorHandler == nil:
		// logged by the caller
	case h.stopped.Load():
		//don't dispatch
		h.logger.Debugf("hci service closing: %v", e)
	default:
		h.errorHandler(e)
	}
}
