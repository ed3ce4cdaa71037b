package coex

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds returned by the command gateway. Implementations wrap these with
// context; test with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrNotInitialized     = errors.New("transport not initialized")
	ErrInternal           = errors.New("internal error")
	ErrTimeout            = errors.New("command timeout")
	ErrCommandFailed      = errors.New("command failed")
)

// ErrCommand is a non-zero status reported by the controller for a command.
type ErrCommand byte

func (e ErrCommand) Error() string {
	return fmt.Sprintf("command failed, status 0x%02X", byte(e))
}

// Is reports ErrCommandFailed as a match so callers can test the kind.
func (e ErrCommand) Is(target error) bool {
	return target == ErrCommandFailed
}
