package coex

// SendFunc sends one HCI command buffer and blocks until it completes.
type SendFunc func(cmd []byte) error

// Binder connects the gateway to the coexistence service. Bind hands the
// service the function it uses to issue commands; an error means the service
// is not reachable yet and the bind should be retried later.
type Binder interface {
	Bind(send SendFunc) error
}

// BinderFunc adapts a function to a Binder.
type BinderFunc func(send SendFunc) error

func (f BinderFunc) Bind(send SendFunc) error {
	return f(send)
}

// Reporter records error events for diagnostics.
type Reporter interface {
	Report(component, errorClass string)
}
