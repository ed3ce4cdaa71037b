package host

import "sync"

// bufSize fits the largest command and the largest event.
const bufSize = 258

// pool hands out message buffers and bounds how many the stack may hold.
// Replies are taken with adopt and count against the bound without being
// refused.
type pool struct {
	mu   sync.Mutex
	free [][]byte
	used int
	max  int
}

func newPool(max int) *pool {
	return &pool{max: max}
}

// Get returns a zeroed buffer of size bytes, or nil when the pool is spent.
func (p *pool) Get(size int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.used >= p.max {
		return nil
	}
	return p.take(size)
}

func (p *pool) adopt(size int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.take(size)
}

func (p *pool) take(size int) []byte {
	p.used++

	n := len(p.free)
	switch {
	case size > bufSize:
		return make([]byte, size)
	case n == 0:
		return make([]byte, size, bufSize)
	}
	b := p.free[n-1][:size]
	p.free = p.free[:n-1]
	for i := range b {
		b[i] = 0
	}
	return b
}

func (p *pool) Put(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.used--
	if cap(b) == bufSize && len(p.free) < p.max {
		p.free = append(p.free, b[:0])
	}
}

// InUse is the number of buffers not yet returned.
func (p *pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}
