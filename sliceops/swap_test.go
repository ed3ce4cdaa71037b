package sliceops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwapBuf(t *testing.T) {
	in := []byte{1, 2, 3}
	assert.Equal(t, []byte{3, 2, 1}, SwapBuf(in))
	assert.Equal(t, []byte{1, 2, 3}, in)
	assert.Equal(t, []byte{}, SwapBuf(nil))
	assert.Equal(t, []byte{4, 3, 2, 1}, SwapBuf([]byte{1, 2, 3, 4}))
}
