package coex

import "github.com/pkg/errors"

// Status is the result code handed back to the coexistence service.
type Status uint8

const (
	StatusOK Status = iota
	StatusNoInit
	StatusInvalidOperation
	StatusBadValue
	StatusUnknownError
	StatusCmdFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoInit:
		return "no init"
	case StatusInvalidOperation:
		return "invalid operation"
	case StatusBadValue:
		return "bad value"
	case StatusUnknownError:
		return "unknown error"
	case StatusCmdFailed:
		return "command failed"
	default:
		return "invalid status"
	}
}

// StatusOf maps a gateway error onto the status code seen by the coexistence
// service. Anything not recognized is an unknown error.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrServiceUnavailable):
		return StatusInvalidOperation
	case errors.Is(err, ErrInvalidArgument):
		return StatusBadValue
	case errors.Is(err, ErrCommandFailed):
		return StatusCmdFailed
	default:
		return StatusUnknownError
	}
}
