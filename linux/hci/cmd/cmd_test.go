package cmd

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		ok   bool
	}{
		{"nil", nil, false},
		{"empty", []byte{}, false},
		{"short", []byte{0x01, 0x02}, false},
		{"no params", []byte{0x01, 0x02, 0x00}, true},
		{"declares more than present", []byte{0x01, 0x02, 0x05}, false},
		{"declares less than present", []byte{0x01, 0x02, 0x01, 0xAA, 0xBB}, false},
		{"params", []byte{0x01, 0x02, 0x02, 0xAA, 0xBB}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Packet(tt.b).Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestDecode(t *testing.T) {
	p := Packet{0x01, 0x02, 0x02, 0xAA, 0xBB}
	assert.Equal(t, uint16(0x0201), p.OpCode())
	assert.Equal(t, 2, p.ParamLen())
	assert.Equal(t, []byte{0xAA, 0xBB}, p.Params())
	assert.Equal(t, "send a 2 bytes long packet. opcode = 0x0201\n0xAA\n0xBB", p.Dump())
}

func TestOpCodeFields(t *testing.T) {
	op := OpCode(0x03, 0x0003) // HCI_Reset
	assert.Equal(t, uint16(0x0C03), op)
	assert.Equal(t, uint16(0x03), OGF(op))
	assert.Equal(t, uint16(0x0003), OCF(op))
}

func TestVendor(t *testing.T) {
	p, err := Vendor(0x0010, struct {
		Mode  uint8
		Value uint16
	}{1, 0x1234})
	require.NoError(t, err)
	assert.Equal(t, Packet{0x10, 0xFC, 0x03, 0x01, 0x34, 0x12}, p)
	assert.NoError(t, p.Validate())

	p, err = Vendor(0x0011, nil)
	require.NoError(t, err)
	assert.Equal(t, Packet{0x11, 0xFC, 0x00}, p)
}

func TestVendorTooLong(t *testing.T) {
	_, err := Vendor(0x0010, make([]byte, 256))
	assert.Error(t, err)
}

func TestParseHex(t *testing.T) {
	for _, s := range []string{"010200", "01 02 00", "01:02:00", "0x010200"} {
		p, err := ParseHex(s)
		require.NoError(t, err, s)
		assert.Equal(t, Packet{0x01, 0x02, 0x00}, p, s)
	}

	_, err := ParseHex("01 0")
	assert.Error(t, err)
}
