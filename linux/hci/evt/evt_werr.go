package evt

import (
	"encoding/binary"
	"fmt"
)

// Offsets into a Command Complete event, header included.
const (
	ccNumPktsOffset = 2
	ccOpcodeOffset  = 3
	ccStatusOffset  = 5
)

// Offsets into a Command Status event, header included.
const (
	csStatusOffset  = 2
	csNumPktsOffset = 3
	csOpcodeOffset  = 4
)

func (e Packet) CodeWErr() (uint8, error) {
	return getByte(e, 0, 0)
}

func (e Packet) ParamLenWErr() (uint8, error) {
	return getByte(e, 1, 0)
}

// Valid checks the declared parameter length against the buffer.
func (e Packet) Valid() error {
	plen, err := e.ParamLenWErr()
	if err != nil {
		return err
	}
	if int(plen) != len(e)-HeaderLen {
		return fmt.Errorf("invalid event packet: declared %v, have %v", plen, len(e)-HeaderLen)
	}
	return nil
}

func (e CommandComplete) NumHCICommandPacketsWErr() (uint8, error) {
	return getByte(e, ccNumPktsOffset, 0)
}

func (e CommandComplete) CommandOpcodeWErr() (uint16, error) {
	return getUint16LE(e, ccOpcodeOffset, 0xffff)
}

func (e CommandComplete) StatusWErr() (uint8, error) {
	return getByte(e, ccStatusOffset, 0xff)
}

func (e CommandComplete) ReturnParametersWErr() ([]byte, error) {
	return getBytes(e, ccStatusOffset, -1)
}

func (e CommandStatus) StatusWErr() (uint8, error) {
	return getByte(e, csStatusOffset, 0xff)
}

func (e CommandStatus) NumHCICommandPacketsWErr() (uint8, error) {
	return getByte(e, csNumPktsOffset, 0)
}

func (e CommandStatus) CommandOpcodeWErr() (uint16, error) {
	return getUint16LE(e, csOpcodeOffset, 0xffff)
}

//get or default
func getByte(b []byte, i int, def byte) (byte, error) {
	bb, err := getBytes(b, i, 1)
	if err != nil {
		return def, err
	}
	return bb[0], nil
}

//get or default
func getUint16LE(b []byte, i int, def uint16) (uint16, error) {
	bb, err := getBytes(b, i, 2)
	if err != nil {
		return def, err
	}
	return binary.LittleEndian.Uint16(bb), nil
}

func getBytes(bytes []byte, start int, count int) ([]byte, error) {
	if bytes == nil || start >= len(bytes) {
		return nil, fmt.Errorf("index error")
	}

	if count < 0 {
		return bytes[start:], nil
	}

	end := start + count
	//end is non-inclusive
	if end > len(bytes) {
		return nil, fmt.Errorf("index error")
	}

	return bytes[start:end], nil
}
