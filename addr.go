package coex

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/rigado/coex/sliceops"
)

// Addr is a Bluetooth device address written the usual way,
// "00:11:22:33:44:55", most significant byte first.
type Addr string

// NewAddr creates an Addr from string
func NewAddr(s string) Addr {
	return Addr(strings.ToLower(strings.TrimSpace(s)))
}

func (a Addr) String() string {
	return string(a)
}

// Bytes returns the six address bytes in written order.
func (a Addr) Bytes() ([]byte, error) {
	hexStr := strings.Replace(a.String(), ":", "", -1)

	out, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", a.String())
	}
	if len(out) != 6 {
		return nil, errors.Errorf("invalid address %q: want 6 bytes, got %d", a.String(), len(out))
	}
	return out, nil
}

// Wire returns the address as HCI carries it, least significant byte first.
func (a Addr) Wire() ([]byte, error) {
	b, err := a.Bytes()
	if err != nil {
		return nil, err
	}
	return sliceops.SwapBuf(b), nil
}
