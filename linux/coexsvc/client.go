package coexsvc

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/coex"
	"github.com/rigado/coex/linux/hci/cmd"
)

// Client binds the gateway to the coexistence service over a stream socket.
// The service writes command buffers and reads back one status byte for each.
type Client struct {
	network string
	addr    string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
	wg   sync.WaitGroup

	closeOnce sync.Once
	done      chan struct{}

	logger coex.Logger
}

// NewClient returns a Client for the service at network/addr ("unix" or "tcp").
func NewClient(network, addr string, timeout time.Duration) *Client {
	return &Client{
		network: network,
		addr:    addr,
		timeout: timeout,
		done:    make(chan struct{}),
		logger:  coex.GetLogger().ChildLogger(map[string]interface{}{"component": "coex_client"}),
	}
}

// Bind implements coex.Binder. A service that can't be reached is a failed
// bind; once connected, requests are served until the connection drops.
func (c *Client) Bind(send coex.SendFunc) error {
	if send == nil {
		return errors.Wrap(coex.ErrInvalidArgument, "nil send")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return coex.ErrServiceUnavailable
	default:
	}
	if c.conn != nil {
		return errors.New("already bound")
	}

	conn, err := net.DialTimeout(c.network, c.addr, c.timeout)
	if err != nil {
		return errors.Wrapf(err, "can't reach coex service at %v", c.addr)
	}
	c.conn = conn
	c.logger.Infof("bound to %v %v", c.network, c.addr)

	c.wg.Add(1)
	go c.serve(conn, send)
	return nil
}

// Bound reports whether the connection is up.
func (c *Client) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) serve(conn net.Conn, send coex.SendFunc) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
		c.wg.Done()
	}()

	for {
		req, err := readCommand(conn)
		if err != nil {
			select {
			case <-c.done:
			default:
				if err == io.EOF {
					c.logger.Warn("coex service went away")
				} else {
					c.logger.Errorf("read request: %v", err)
				}
			}
			return
		}

		err = send(req)
		st := coex.StatusOf(err)
		if err != nil {
			c.logger.Debugf("request % X: %v (%v)", req, err, st)
		}

		if _, err := conn.Write([]byte{byte(st)}); err != nil {
			c.logger.Errorf("write status: %v", err)
			return
		}
	}
}

// Close drops the connection and waits for the request loop to end.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.mu.Unlock()
		c.wg.Wait()
	})
	return errors.Wrap(err, "can't close coex client")
}

// readCommand reads one command buffer: the 3 byte preamble, then its
// parameters.
func readCommand(r io.Reader) (cmd.Packet, error) {
	hdr := make([]byte, cmd.PreambleSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}

	p := make(cmd.Packet, cmd.PreambleSize+int(hdr[2]))
	copy(p, hdr)
	if _, err := io.ReadFull(r, p[cmd.PreambleSize:]); err != nil {
		return nil, errors.Wrap(err, "short command")
	}
	return p, nil
}
