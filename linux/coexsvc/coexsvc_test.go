package coexsvc

import (
	"bytes"
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/coex"
	"github.com/rigado/coex/linux/hci"
	"github.com/rigado/coex/linux/hci/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// controller answers every command with the status kept for its opcode.
type controller struct {
	status map[uint16]uint8
}

func (c *controller) Callbacks() coex.Callbacks { return c }

func (c *controller) Alloc(size int) []byte { return make([]byte, size) }
func (c *controller) Release([]byte)        {}
func (c *controller) Transmit(op uint16, b []byte, done coex.CompletionFunc) error {
	st, ok := c.status[op]
	if !ok {
		// silent, the gateway times out
		return nil
	}
	go done([]byte{0x0E, 0x04, 0x01, byte(op), byte(op >> 8), st})
	return nil
}

func freeAddr(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestReadCommand(t *testing.T) {
	p, err := readCommand(bytes.NewReader([]byte{0x03, 0x0C, 0x02, 0xAA, 0xBB, 0xCC}))
	require.NoError(t, err)
	assert.Equal(t, cmd.Packet{0x03, 0x0C, 0x02, 0xAA, 0xBB}, p)

	_, err = readCommand(bytes.NewReader([]byte{0x03, 0x0C, 0x02, 0xAA}))
	assert.Error(t, err)

	_, err = readCommand(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestBindUnreachable(t *testing.T) {
	c := NewClient("tcp", freeAddr(t), 100*time.Millisecond)
	defer c.Close()

	err := c.Bind(func([]byte) error { return nil })
	assert.Error(t, err)
	assert.False(t, c.Bound())

	assert.Error(t, c.Bind(nil))
}

func TestExecThroughGateway(t *testing.T) {
	srv, err := Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Close()

	ctrl := &controller{status: map[uint16]uint8{0x0C03: 0x00, 0xFC10: 0x0C}}
	client := NewClient("tcp", srv.Addr().String(), time.Second)
	defer client.Close()

	svc, err := hci.NewService(ctrl, client, coex.OptCommandTimeout(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, svc.Init())
	defer svc.Close()
	assert.True(t, svc.Bound())
	assert.True(t, client.Bound())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := srv.Exec(ctx, cmd.Packet{0x03, 0x0C, 0x00})
	require.NoError(t, err)
	assert.Equal(t, coex.StatusOK, st)

	st, err = srv.Exec(ctx, cmd.Packet{0x10, 0xFC, 0x01, 0x01})
	require.NoError(t, err)
	assert.Equal(t, coex.StatusCmdFailed, st)

	// no answer from the controller
	st, err = srv.Exec(ctx, cmd.Packet{0x01, 0x10, 0x00})
	require.NoError(t, err)
	assert.Equal(t, coex.StatusUnknownError, st)

	st, err = srv.Exec(ctx, cmd.Packet{0x01, 0x10, 0x05})
	assert.Error(t, err)
	assert.Equal(t, coex.StatusBadValue, st)
}

func TestExecAfterGatewayClosed(t *testing.T) {
	srv, err := Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Close()

	client := NewClient("tcp", srv.Addr().String(), time.Second)
	defer client.Close()

	var sends atomic.Int32
	require.NoError(t, client.Bind(func([]byte) error {
		sends.Add(1)
		return errors.Wrap(coex.ErrServiceUnavailable, "closed")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := srv.Exec(ctx, cmd.Packet{0x03, 0x0C, 0x00})
	require.NoError(t, err)
	assert.Equal(t, coex.StatusInvalidOperation, st)
	assert.Equal(t, int32(1), sends.Load())

	require.NoError(t, client.Close())
	assert.False(t, client.Bound())
	assert.Equal(t, coex.ErrServiceUnavailable, client.Bind(func([]byte) error { return nil }))
}

func TestBindRetriedUntilServiceUp(t *testing.T) {
	addr := freeAddr(t)
	client := NewClient("tcp", addr, 100*time.Millisecond)
	defer client.Close()

	svc, err := hci.NewService(&controller{}, client,
		coex.OptRetryDelay(10*time.Millisecond, 10*time.Millisecond, 50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, svc.Init())
	defer svc.Close()
	assert.False(t, svc.Bound())

	srv, err := Listen("tcp", addr)
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.WaitBound(ctx))

	assert.Eventually(t, svc.Bound, time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, svc.BindAttempts(), uint64(2))
}

func TestWaitBoundTimeout(t *testing.T) {
	srv, err := Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	st, err := srv.Exec(ctx, cmd.Packet{0x03, 0x0C, 0x00})
	assert.Error(t, err)
	assert.Equal(t, coex.StatusNoInit, st)
}
