package h4

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

// connWithTimeout bounds every read and write on a TCP controller so the rx
// loop gets to look at its done channel.
type connWithTimeout struct {
	c       net.Conn
	timeout time.Duration
}

func (cwt *connWithTimeout) Read(b []byte) (int, error) {
	if err := cwt.c.SetReadDeadline(time.Now().Add(cwt.timeout)); err != nil {
		return 0, errors.Wrap(err, "can't set read deadline")
	}
	return cwt.c.Read(b)
}

func (cwt *connWithTimeout) Write(b []byte) (int, error) {
	if err := cwt.c.SetWriteDeadline(time.Now().Add(cwt.timeout)); err != nil {
		return 0, errors.Wrap(err, "can't set write deadline")
	}
	return cwt.c.Write(b)
}

func (cwt *connWithTimeout) Close() error {
	return cwt.c.Close()
}
