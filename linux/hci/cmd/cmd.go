package cmd

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// PreambleSize is opcode (2 bytes) + parameter length (1 byte).
const PreambleSize = 3

// MaxParamLen is the largest parameter block a command can declare.
const MaxParamLen = 0xFF

// Opcode group fields [Vol 2, Part E, 5.4.1].
const (
	ogfBitShift            = 10
	ocfMask                = 0x03FF
	OGFVendorSpecificDebug = 0x3F
)

var ErrMalformed = errors.New("malformed command")

// Packet is an HCI command without the H4 packet type byte:
//
//	opcode (LE uint16), parameter length (uint8), parameters
type Packet []byte

func (p Packet) OpCode() uint16 {
	if len(p) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(p)
}

// ParamLen is the parameter length declared in the preamble.
func (p Packet) ParamLen() int {
	if len(p) < PreambleSize {
		return 0
	}
	return int(p[2])
}

func (p Packet) Params() []byte {
	if len(p) < PreambleSize {
		return nil
	}
	return p[PreambleSize:]
}

// Validate checks the declared length against the actual buffer length.
func (p Packet) Validate() error {
	switch {
	case len(p) == 0:
		return errors.Wrap(ErrMalformed, "empty command")
	case len(p) < PreambleSize:
		return errors.Wrapf(ErrMalformed, "short command, %v bytes", len(p))
	case PreambleSize+int(p[2]) != len(p):
		return errors.Wrapf(ErrMalformed, "declared length %v, buffer holds %v", PreambleSize+int(p[2]), len(p))
	}
	return nil
}

func (p Packet) String() string {
	if len(p) < PreambleSize {
		return fmt.Sprintf("invalid command [% X]", []byte(p))
	}
	op := p.OpCode()
	return fmt.Sprintf("opcode 0x%04X (ogf 0x%02X, ocf 0x%04X), %d bytes: [% X]",
		op, OGF(op), OCF(op), p.ParamLen(), p.Params())
}

// Dump renders the command as the opcode line followed by one line per
// parameter byte.
func (p Packet) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "send a %d bytes long packet. opcode = 0x%04X", p.ParamLen(), p.OpCode())
	for _, b := range p.Params() {
		fmt.Fprintf(&sb, "\n0x%02X", b)
	}
	return sb.String()
}

func OGF(op uint16) uint16 {
	return op >> ogfBitShift
}

func OCF(op uint16) uint16 {
	return op & ocfMask
}

// OpCode packs an opcode group and command field.
func OpCode(ogf, ocf uint16) uint16 {
	return (ogf << ogfBitShift) | (ocf & ocfMask)
}
