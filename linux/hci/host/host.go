package host

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/coex"
	"github.com/rigado/coex/linux/hci/cmd"
	"github.com/rigado/coex/linux/hci/evt"
)

// HCI packet types
const (
	PktTypeCommand uint8 = 0x01
	PktTypeACLData uint8 = 0x02
	PktTypeSCOData uint8 = 0x03
	PktTypeEvent   uint8 = 0x04
	PktTypeVendor  uint8 = 0xFF
)

const (
	maxCommandCredits = 16
	maxBuffers        = 8
	creditTimeout     = 250 * time.Millisecond // under the gateway's command timeout
	rxQueueSize       = 16
	readBufferSize    = 4096
)

// Host implements coex.Callbacks on top of an HCI byte stream (user channel
// socket or H4). Commands go out with the H4 packet type prepended; Command
// Complete and Command Status events are routed back to the completion of the
// command they answer.
type Host struct {
	skt io.ReadWriteCloser
	wmu sync.Mutex

	// Host to Controller command flow control [Vol 2, Part E, 4.4]
	chCmdCredits chan struct{}
	muSent       sync.Mutex
	sent         map[uint16]coex.CompletionFunc

	// buffers handed out by Alloc or carrying a reply
	bufs *pool

	sktRxChan chan []byte
	loops     sync.WaitGroup

	muErr sync.Mutex
	err   error

	closeOnce sync.Once
	done      chan struct{}

	logger coex.Logger
}

// New starts reading from skt. The controller is assumed to accept one
// command until it says otherwise.
func New(skt io.ReadWriteCloser) *Host {
	h := &Host{
		skt:          skt,
		chCmdCredits: make(chan struct{}, maxCommandCredits),
		sent:         make(map[uint16]coex.CompletionFunc),
		bufs:         newPool(maxBuffers),
		sktRxChan:    make(chan []byte, rxQueueSize),
		done:         make(chan struct{}),
		logger:       coex.GetLogger().ChildLogger(map[string]interface{}{"component": "hci_host"}),
	}
	h.setAllowedCommands(1)

	h.loops.Add(2)
	go h.sktReadLoop()
	go h.sktProcessLoop()
	return h
}

// Alloc returns a buffer for a command of size bytes, or nil when the host
// is closed or too many buffers are out.
func (h *Host) Alloc(size int) []byte {
	if size <= 0 || size > cmd.PreambleSize+cmd.MaxParamLen || !h.isOpen() {
		return nil
	}
	return h.bufs.Get(size)
}

// Release returns a buffer from Alloc or a reply handed to a completion.
func (h *Host) Release(b []byte) {
	if b == nil {
		return
	}
	h.bufs.Put(b)
}

// Outstanding is the number of buffers not yet released.
func (h *Host) Outstanding() int64 {
	return int64(h.bufs.InUse())
}

// Transmit writes the command and arranges for done to get its Command
// Complete event. Only one command per opcode may be pending.
func (h *Host) Transmit(opcode uint16, b []byte, done coex.CompletionFunc) error {
	if !h.isOpen() {
		return errors.New("hci host closed")
	}
	if err := h.Err(); err != nil {
		return err
	}

	h.muSent.Lock()
	if _, ok := h.sent[opcode]; ok {
		h.muSent.Unlock()
		return errors.Errorf("command with opcode 0x%04X pending", opcode)
	}
	h.sent[opcode] = done
	h.muSent.Unlock()

	select {
	case <-h.chCmdCredits:
	case <-h.done:
		h.forget(opcode)
		return errors.New("hci host closed")
	case <-time.After(creditTimeout):
		h.forget(opcode)
		return errors.New("no command credits from controller")
	}

	pkt := make([]byte, 0, 1+len(b))
	pkt = append(pkt, PktTypeCommand)
	pkt = append(pkt, b...)

	h.wmu.Lock()
	n, err := h.skt.Write(pkt)
	h.wmu.Unlock()
	switch {
	case err != nil:
		h.forget(opcode)
		return errors.Wrap(err, "can't write command")
	case n != len(pkt):
		h.forget(opcode)
		return errors.Errorf("short command write, %v of %v bytes", n, len(pkt))
	}

	// the stack owns transmitted buffers
	h.Release(b)
	return nil
}

// Cancel implements coex.Canceler. The pending command for opcode is
// forgotten and its command credit handed back.
func (h *Host) Cancel(opcode uint16) {
	h.muSent.Lock()
	_, found := h.sent[opcode]
	delete(h.sent, opcode)
	h.muSent.Unlock()

	if !found {
		return
	}
	h.logger.Debugf("cancelled opcode 0x%04X", opcode)
	select {
	case h.chCmdCredits <- struct{}{}:
	default:
	}
}

func (h *Host) forget(opcode uint16) {
	h.muSent.Lock()
	delete(h.sent, opcode)
	h.muSent.Unlock()
}

// Pending is the number of commands waiting for their completion.
func (h *Host) Pending() int {
	h.muSent.Lock()
	defer h.muSent.Unlock()
	return len(h.sent)
}

// Close stops the loops and closes the underlying stream. Completions still
// pending never fire.
func (h *Host) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.done)
		err = h.skt.Close()
		h.loops.Wait()

		h.muSent.Lock()
		for k := range h.sent {
			delete(h.sent, k)
		}
		h.muSent.Unlock()
	})
	return errors.Wrap(err, "can't close hci host")
}

// Err returns the error that stopped the read loop, if any.
func (h *Host) Err() error {
	h.muErr.Lock()
	defer h.muErr.Unlock()
	return h.err
}

func (h *Host) setErr(err error) {
	h.muErr.Lock()
	defer h.muErr.Unlock()
	if h.err == nil {
		h.err = err
	}
}

func (h *Host) isOpen() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *Host) sktReadLoop() {
	defer func() {
		h.logger.Debug("sktReadLoop done")
		close(h.sktRxChan)
		h.loops.Done()
	}()

	b := make([]byte, readBufferSize)

	for {
		n, err := h.skt.Read(b)

		switch {
		case n == 0 && err == nil:
			// read timeout
			if !h.isOpen() {
				return
			}
			continue

		case err != nil:
			if h.isOpen() {
				h.setErr(errors.Wrap(err, "skt read error"))
				h.logger.Error(h.Err())
			}
			return

		default:
			p := make([]byte, n)
			copy(p, b)
			select {
			case h.sktRxChan <- p:
			case <-h.done:
				return
			}
		}
	}
}

func (h *Host) sktProcessLoop() {
	defer h.loops.Done()

	for {
		select {
		case <-h.done:
			return
		case p, ok := <-h.sktRxChan:
			if !ok {
				return
			}
			if err := h.handlePkt(p); err != nil {
				h.logger.Warnf("skt: %v", err)
			}
		}
	}
}

func (h *Host) handlePkt(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty packet")
	}

	// Strip the 1-byte HCI header and pass down the rest of the packet.
	t, b := b[0], b[1:]
	switch t {
	case PktTypeEvent:
		return h.handleEvt(b)

		//unhandled stuff
	case PktTypeACLData:
		return errors.Errorf("unsupported acl packet: % X", b)
	case PktTypeCommand:
		return errors.Errorf("unmanaged cmd: % X", b)
	case PktTypeSCOData:
		return errors.Errorf("unsupported sco packet: % X", b)
	case PktTypeVendor:
		return errors.Errorf("unsupported vendor packet: % X", b)
	default:
		return errors.Errorf("invalid packet: 0x%02X % X", t, b)
	}
}

func (h *Host) handleEvt(b []byte) error {
	e := evt.Packet(b)
	if err := e.Valid(); err != nil {
		return errors.Wrapf(err, "[% X]", b)
	}

	switch e.Code() {
	case evt.CommandCompleteCode:
		return h.handleCommandComplete(evt.CommandComplete(b))
	case evt.CommandStatusCode:
		return h.handleCommandStatus(evt.CommandStatus(b))
	case evt.HardwareErrorCode:
		h.logger.Errorf("hardware error event: % X", b)
		return nil
	default:
		h.logger.Tracef("ignoring event: % X", b)
		return nil
	}
}

func (h *Host) handleCommandComplete(e evt.CommandComplete) error {
	ncmd, err := e.NumHCICommandPacketsWErr()
	if err != nil {
		return errors.Wrapf(err, "command complete [% X]", []byte(e))
	}
	h.setAllowedCommands(int(ncmd))

	op, err := e.CommandOpcodeWErr()
	if err != nil {
		return errors.Wrapf(err, "command complete [% X]", []byte(e))
	}

	// NOP command, used for flow control purpose [Vol 2, Part E, 4.4]
	if op == 0x0000 {
		return nil
	}

	return h.complete(op, e)
}

// Command Status ends a command that has no Command Complete. Its completion
// gets a Command Complete carrying the status, so it sees one layout.
func (h *Host) handleCommandStatus(e evt.CommandStatus) error {
	ncmd, err := e.NumHCICommandPacketsWErr()
	if err != nil {
		return errors.Wrapf(err, "command status [% X]", []byte(e))
	}
	h.setAllowedCommands(int(ncmd))

	op, err := e.CommandOpcodeWErr()
	if err != nil {
		return errors.Wrapf(err, "command status [% X]", []byte(e))
	}
	if op == 0x0000 {
		return nil
	}

	return h.complete(op, evt.NewCommandComplete(ncmd, op, e.Status()))
}

// complete hands a copy of e to the completion registered for op.
func (h *Host) complete(op uint16, e []byte) error {
	h.muSent.Lock()
	done, found := h.sent[op]
	delete(h.sent, op)
	h.muSent.Unlock()

	if !found {
		return errors.Errorf("can't find the cmd for opcode 0x%04X", op)
	}

	reply := h.bufs.adopt(len(e))
	copy(reply, e)
	done(reply)
	return nil
}

func (h *Host) setAllowedCommands(n int) {
	if n > maxCommandCredits {
		h.logger.Warnf("setAllowedCommands: defaulting %d -> %d", n, maxCommandCredits)
		n = maxCommandCredits
	}

	for len(h.chCmdCredits) < n {
		select {
		case h.chCmdCredits <- struct{}{}:
		default:
			return
		}
	}
}
