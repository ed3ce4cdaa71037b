package h4

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
	"github.com/rigado/coex"
)

// H4 packet indicators
const (
	commandPacket = 0x01
	aclPacket     = 0x02
	eventPacket   = 0x04
)

const (
	rxQueueSize = 64
	readTimeout = time.Second
)

type h4 struct {
	rw  io.ReadWriteCloser
	rmu sync.Mutex
	wmu sync.Mutex

	frame   *frame
	rxQueue chan []byte

	done chan int
	cmu  sync.Mutex
	rxWg sync.WaitGroup

	logger coex.Logger
}

// DefaultSerialOptions are the settings of an H4 UART controller.
func DefaultSerialOptions() serial.OpenOptions {
	return serial.OpenOptions{
		PortName:              "/dev/ttyACM0",
		BaudRate:              1000000,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		RTSCTSFlowControl:     true,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}
}

// NewSerial opens an H4 controller on a UART.
func NewSerial(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
	// force these
	opts.MinimumReadSize = 0
	opts.InterCharacterTimeout = 100

	sp, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %v", opts.PortName)
	}

	return newH4(sp), nil
}

// NewSocket connects to an H4 controller exposed over TCP.
func NewSocket(addr string, timeout time.Duration) (io.ReadWriteCloser, error) {
	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "can't dial %v", addr)
	}

	return newH4(&connWithTimeout{c, timeout}), nil
}

func newH4(rw io.ReadWriteCloser) *h4 {
	h := &h4{
		rw:      rw,
		done:    make(chan int),
		rxQueue: make(chan []byte, rxQueueSize),
		logger:  coex.GetLogger().ChildLogger(map[string]interface{}{"component": "h4"}),
	}
	h.frame = newFrame(h.rxQueue)

	h.rxWg.Add(1)
	go h.rxLoop()

	return h
}

// Read returns one H4 packet. It returns 0, nil when nothing arrives within
// the read timeout.
func (h *h4) Read(p []byte) (int, error) {
	if !h.isOpen() {
		return 0, io.EOF
	}

	h.rmu.Lock()
	defer h.rmu.Unlock()

	var n int
	select {
	case t := <-h.rxQueue:
		if len(p) < len(t) {
			return 0, io.ErrShortBuffer
		}
		n = copy(p, t)

	case <-h.done:
		return 0, io.EOF

	case <-time.After(readTimeout):
		return 0, nil
	}

	h.logger.Tracef("read [% 0x]", p[:n])
	return n, nil
}

func (h *h4) Write(p []byte) (int, error) {
	if !h.isOpen() {
		return 0, io.EOF
	}

	h.wmu.Lock()
	defer h.wmu.Unlock()
	n, err := h.rw.Write(p)
	h.logger.Tracef("write [% 0x], %v, %v", p, n, err)

	return n, errors.Wrap(err, "can't write h4")
}

func (h *h4) Close() error {
	h.cmu.Lock()
	defer h.cmu.Unlock()

	select {
	case <-h.done:
		return nil

	default:
		close(h.done)
		h.logger.Debug("closing h4")
		err := h.rw.Close()
		h.rxWg.Wait()

		return errors.Wrap(err, "can't close h4")
	}
}

func (h *h4) isOpen() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *h4) rxLoop() {
	defer h.rxWg.Done()

	tmp := make([]byte, 512)
	for {
		select {
		case <-h.done:
			return
		default:
		}

		n, err := h.rw.Read(tmp)
		switch {
		case err == io.EOF, isTimeout(err):
			// an idle uart reads as EOF
			continue
		case err != nil:
			if h.isOpen() {
				h.logger.Errorf("rxLoop: %v", err)
			}
			return
		case n == 0:
			continue
		}

		if err := h.frame.Assemble(tmp[:n], h.done); err != nil {
			h.logger.Debugf("dropping %v bytes: %v", n, err)
		}
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
