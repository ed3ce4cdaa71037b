package cmd

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// Custom is a command whose parameters are any fixed-size value, encoded
// little endian.
type Custom struct {
	Payload interface{}
	OpCode  uint16
}

// Marshal builds the command buffer.
func (c *Custom) Marshal() (Packet, error) {
	buf := &bytes.Buffer{}
	buf.Write([]byte{byte(c.OpCode), byte(c.OpCode >> 8), 0})

	if c.Payload != nil {
		if err := binary.Write(buf, binary.LittleEndian, c.Payload); err != nil {
			return nil, errors.Wrap(err, "can't encode payload")
		}
	}

	b := buf.Bytes()
	n := len(b) - PreambleSize
	if n > MaxParamLen {
		return nil, errors.Errorf("invalid length %v; max hci payload length is %v", n, MaxParamLen)
	}
	b[2] = byte(n)
	return Packet(b), nil
}

// Vendor builds a vendor specific (OGF 0x3F) command.
func Vendor(ocf uint16, payload interface{}) (Packet, error) {
	c := &Custom{
		OpCode:  OpCode(OGFVendorSpecificDebug, ocf),
		Payload: payload,
	}
	return c.Marshal()
}

// ParseHex reads a command buffer written as hex, with or without separators
// ("01 02 00", "01:02:00", "0x010200").
func ParseHex(s string) (Packet, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", ",", "").Replace(s)

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "can't decode command")
	}
	return Packet(b), nil
}
