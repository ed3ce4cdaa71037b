//go:build !linux
// +build !linux

package socket

import (
	"io"

	"github.com/pkg/errors"
)

// NewSocket is a dummy function for non-Linux platform.
func NewSocket(id int) (io.ReadWriteCloser, error) {
	return nil, errors.New("only available on linux")
}

// Create is a dummy function for non-Linux platform.
func Create() (int, error) {
	return -1, errors.New("only available on linux")
}

// Bind is a dummy function for non-Linux platform.
func Bind(fd, id int) (io.ReadWriteCloser, error) {
	return nil, errors.New("only available on linux")
}

// CloseFD is a dummy function for non-Linux platform.
func CloseFD(fd int) error {
	return nil
}
