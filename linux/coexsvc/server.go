package coexsvc

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/rigado/coex"
	"github.com/rigado/coex/linux/hci/cmd"
)

// Server is the coexistence service end of the binding. It accepts one
// gateway at a time and issues commands to it.
type Server struct {
	ln net.Listener

	mu   sync.Mutex
	conn net.Conn

	bound chan struct{}
	once  sync.Once
	wg    sync.WaitGroup

	xmu sync.Mutex

	logger coex.Logger
}

// Listen starts accepting a gateway on network/addr.
func Listen(network, addr string) (*Server, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "can't listen on %v", addr)
	}

	s := &Server{
		ln:     ln,
		bound:  make(chan struct{}),
		logger: coex.GetLogger().ChildLogger(map[string]interface{}{"component": "coex_server"}),
	}
	s.wg.Add(1)
	go s.accept()
	return s, nil
}

// Addr is the listening address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Server) accept() {
	defer s.wg.Done()

	conn, err := s.ln.Accept()
	if err != nil {
		s.logger.Debugf("accept: %v", err)
		return
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.logger.Infof("gateway bound from %v", conn.RemoteAddr())
	s.once.Do(func() { close(s.bound) })
}

// WaitBound blocks until a gateway connects or ctx ends.
func (s *Server) WaitBound(ctx context.Context) error {
	select {
	case <-s.bound:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exec sends one command buffer and returns the status the gateway answered.
func (s *Server) Exec(ctx context.Context, c cmd.Packet) (coex.Status, error) {
	if err := c.Validate(); err != nil {
		return coex.StatusBadValue, err
	}
	if err := s.WaitBound(ctx); err != nil {
		return coex.StatusNoInit, errors.Wrap(err, "no gateway")
	}

	s.xmu.Lock()
	defer s.xmu.Unlock()

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err != nil {
			return coex.StatusUnknownError, errors.Wrap(err, "can't set deadline")
		}
	}

	if _, err := conn.Write(c); err != nil {
		return coex.StatusUnknownError, errors.Wrap(err, "can't write command")
	}

	st := make([]byte, 1)
	if _, err := io.ReadFull(conn, st); err != nil {
		return coex.StatusUnknownError, errors.Wrap(err, "can't read status")
	}
	return coex.Status(st[0]), nil
}

// Close stops listening and drops the gateway connection.
func (s *Server) Close() error {
	err := s.ln.Close()

	s.mu.Lock()
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	s.mu.Unlock()
	s.wg.Wait()

	return errors.Wrap(err, "can't close coex server")
}
