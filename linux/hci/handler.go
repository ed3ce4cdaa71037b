package hci

import (
	"github.com/rigado/coex"
	"github.com/rigado/coex/linux/hci/evt"
)

// completion returns the callback handed to the transport for submission gen.
func (h *Service) completion(cb coex.Callbacks, gen uint64, sent uint16) coex.CompletionFunc {
	return func(reply []byte) {
		h.handleCommandComplete(cb, gen, sent, reply)
	}
}

// handleCommandComplete runs on the transport's goroutine. It must not block
// on anything Send holds and must not call back into Send.
func (h *Service) handleCommandComplete(cb coex.Callbacks, gen uint64, sent uint16, reply []byte) {
	e := evt.CommandComplete(reply)

	status, err := e.StatusWErr()
	if err != nil {
		h.logger.Errorf("short command complete [% X]: %v", reply, err)
	}
	opcode := e.CommandOpcode()

	if status == 0x00 {
		h.logger.Debugf("HCI with opcode: 0x%04X success", opcode)
	} else {
		h.logger.Errorf("HCI with opcode: 0x%04X failure, status 0x%02X", opcode, status)
	}
	if opcode != sent {
		h.logger.Warnf("command complete opcode 0x%04X, sent 0x%04X", opcode, sent)
	}

	// the reply is ours to release, whatever it says
	cb.Release(reply)

	if !h.slot.complete(gen, status) {
		h.logger.Warnf("dropping stale completion for opcode 0x%04X", opcode)
	}
}
