package h4

import (
	"time"

	"github.com/pkg/errors"
)

const (
	eventHeaderLen = 3 // indicator, code, length
	aclHeaderLen   = 5 // indicator, handle(2), length(2)
	frameTimeout   = 500 * time.Millisecond
)

var errNoStart = errors.New("no packet indicator")

// frame reassembles H4 packets out of arbitrary read chunks.
type frame struct {
	b        []byte
	deadline time.Time
	out      chan<- []byte
}

func newFrame(out chan<- []byte) *frame {
	return &frame{
		b:   make([]byte, 0, 256),
		out: out,
	}
}

// Assemble consumes b and emits every complete packet on out. A partial
// packet older than frameTimeout is dropped when more data shows up.
func (f *frame) Assemble(b []byte, done <-chan int) error {
	if len(b) == 0 {
		return nil
	}
	if len(f.b) > 0 && time.Now().After(f.deadline) {
		f.reset()
	}

	f.b = append(f.b, b...)

	var err error
	for len(f.b) > 0 {
		if f.deadline.IsZero() {
			// nothing pending, resync on an indicator
			i := start(f.b)
			if i < 0 {
				f.reset()
				return errNoStart
			}
			if i > 0 {
				err = errors.Errorf("skipped %v bytes", i)
			}
			f.b = f.b[i:]
			f.deadline = time.Now().Add(frameTimeout)
		}

		tl, ok := length(f.b)
		if !ok || len(f.b) < tl {
			return err
		}

		p := make([]byte, tl)
		copy(p, f.b)
		select {
		case f.out <- p:
		case <-done:
			return nil
		}

		f.b = f.b[tl:]
		f.deadline = time.Time{}
	}

	f.reset()
	return err
}

func (f *frame) reset() {
	f.b = f.b[:0]
	f.deadline = time.Time{}
}

func start(b []byte) int {
	for i, v := range b {
		if v == eventPacket || v == aclPacket {
			return i
		}
	}
	return -1
}

// length is the total size of the packet at the head of b, once its header
// is in.
func length(b []byte) (int, bool) {
	switch b[0] {
	case eventPacket:
		if len(b) < eventHeaderLen {
			return 0, false
		}
		return eventHeaderLen + int(b[2]), true
	case aclPacket:
		if len(b) < aclHeaderLen {
			return 0, false
		}
		return aclHeaderLen + (int(b[3]) | int(b[4])<<8), true
	default:
		return 0, false
	}
}
