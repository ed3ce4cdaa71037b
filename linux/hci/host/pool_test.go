package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBound(t *testing.T) {
	p := newPool(2)

	a := p.Get(4)
	b := p.Get(10)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Nil(t, p.Get(1))

	// replies are never refused
	r := p.adopt(6)
	assert.Len(t, r, 6)
	assert.Equal(t, 3, p.InUse())

	a[0] = 0xAA
	p.Put(a)
	p.Put(r)
	assert.Equal(t, 1, p.InUse())

	c := p.Get(3)
	require.NotNil(t, c)
	assert.Equal(t, []byte{0, 0, 0}, c)
	assert.Equal(t, 2, p.InUse())
}

func TestPoolOversize(t *testing.T) {
	p := newPool(1)
	b := p.adopt(bufSize + 10)
	assert.Len(t, b, bufSize+10)
	p.Put(b)
	assert.Equal(t, 0, p.InUse())
	assert.Empty(t, p.free)
}
