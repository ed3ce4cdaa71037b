package hci

import "sync"

// slot hands the result of the single in-flight command from the completion
// callback back to the sender blocked in Send.
//
// Every submission arms the slot with a new generation. A completion is only
// accepted for the armed generation, so a reply that shows up after its
// sender timed out can't be mistaken for the next command's reply.
type slot struct {
	mu     sync.Mutex
	gen    uint64
	armed  bool
	ready  bool
	status uint8

	// wake has room for one signal; it is drained on arm.
	wake chan struct{}
}

func newSlot() *slot {
	return &slot{wake: make(chan struct{}, 1)}
}

// arm prepares the slot for a new submission and returns its generation.
func (s *slot) arm() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.armed = true
	s.ready = false
	s.status = 0
	select {
	case <-s.wake:
	default:
	}
	return s.gen
}

// complete records the status for submission gen and wakes the sender.
// It reports false for a stale or unexpected completion.
func (s *slot) complete(gen uint64, status uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed || s.ready || gen != s.gen {
		return false
	}
	s.status = status
	s.ready = true
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// take consumes the result of submission gen if it has arrived. The slot is
// disarmed once the result is consumed.
func (s *slot) take(gen uint64) (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || !s.ready {
		return 0, false
	}
	s.ready = false
	s.armed = false
	return s.status, true
}

// abandon disarms submission gen. A result that arrived in the meantime is
// still returned.
func (s *slot) abandon(gen uint64) (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return 0, false
	}
	ready, status := s.ready, s.status
	s.ready = false
	s.armed = false
	return status, ready
}

// reset disarms the slot whatever submission it holds.
func (s *slot) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.armed = false
	s.ready = false
	select {
	case <-s.wake:
	default:
	}
}
