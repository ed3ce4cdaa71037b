package coex

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusOK},
		{ErrServiceUnavailable, StatusInvalidOperation},
		{errors.Wrap(ErrServiceUnavailable, "closed"), StatusInvalidOperation},
		{errors.Wrap(ErrInvalidArgument, "empty"), StatusBadValue},
		{errors.Wrapf(ErrCommand(0x0C), "opcode 0x%04X", 0x0C03), StatusCmdFailed},
		{ErrNotInitialized, StatusUnknownError},
		{errors.Wrap(ErrTimeout, "opcode 0x0C03"), StatusUnknownError},
		{ErrInternal, StatusUnknownError},
		{errors.New("other"), StatusUnknownError},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, StatusOf(tc.err), "%v", tc.err)
	}
}

func TestErrCommand(t *testing.T) {
	err := errors.Wrap(ErrCommand(0x12), "opcode 0x2006")
	assert.True(t, errors.Is(err, ErrCommandFailed))
	assert.False(t, errors.Is(err, ErrTimeout))

	var ec ErrCommand
	assert.True(t, errors.As(err, &ec))
	assert.Equal(t, ErrCommand(0x12), ec)
	assert.Contains(t, err.Error(), "0x12")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "command failed", StatusCmdFailed.String())
	assert.Equal(t, "invalid status", Status(42).String())
}
