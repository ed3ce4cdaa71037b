package coex

// CompletionFunc is invoked by the transport, on its own goroutine, with the
// reply to an accepted command. The callee owns the reply until it returns.
type CompletionFunc func(reply []byte)

// Callbacks is the set of operations the Bluetooth stack hands to the vendor
// library. The gateway uses them to get commands onto the wire.
type Callbacks interface {
	// Alloc returns a message buffer of the requested size, or nil.
	Alloc(size int) []byte

	// Release gives a buffer obtained from Alloc, or a reply, back to the stack.
	Release(b []byte)

	// Transmit queues a command. A non-nil error is a synchronous rejection and
	// ownership of b stays with the caller. Otherwise done is invoked exactly
	// once, unless the transport is torn down first.
	Transmit(opcode uint16, b []byte, done CompletionFunc) error
}

// CallbackProvider exposes the callbacks currently registered with the vendor
// library. Callbacks returns nil until the stack has initialized the library.
type CallbackProvider interface {
	Callbacks() Callbacks
}

// Canceler is implemented by transports that can drop a command whose reply
// the sender stopped waiting for. Cancel frees whatever the transport holds
// for opcode; a reply showing up afterwards is discarded.
type Canceler interface {
	Cancel(opcode uint16)
}
