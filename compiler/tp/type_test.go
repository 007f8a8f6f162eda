package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterning(t *testing.T) {
	c := NewContext()

	assert.Same(t, c.Int(32), c.Int(32))
	assert.NotSame(t, c.Int(32), c.Int(64))

	assert.Same(t, c.Ptr(c.Int(8), 0), c.Ptr(c.Int(8), 0))
	assert.NotSame(t, c.Ptr(c.Int(8), 0), c.Ptr(c.Int(8), 1))

	assert.Same(t,
		c.Struct(false, c.Int(32), c.Double()),
		c.Struct(false, c.Int(32), c.Double()))
	assert.NotSame(t,
		c.Struct(false, c.Int(32), c.Double()),
		c.Struct(true, c.Int(32), c.Double()))

	assert.Same(t,
		c.Func(c.Void(), []*Type{c.Int(1)}, false),
		c.Func(c.Void(), []*Type{c.Int(1)}, false))
	assert.NotSame(t,
		c.Func(c.Void(), []*Type{c.Int(1)}, false),
		c.Func(c.Void(), []*Type{c.Int(1)}, true))
}

func TestIdentity(t *testing.T) {
	c := NewContext()

	a := c.Int(8)
	b := c.Int(16)

	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, a.ID(), c.Int(8).ID())
}

func TestString(t *testing.T) {
	c := NewContext()

	assert.Equal(t, "i32", c.Int(32).String())
	assert.Equal(t, "ptr(i8)", c.Ptr(c.Int(8), 0).String())
	assert.Equal(t, "ptr(i8, 1)", c.Ptr(c.Int(8), 1).String())
	assert.Equal(t, "arr(4, i32)", c.Array(4, c.Int(32)).String())
	assert.Equal(t, "vec(8, f32)", c.Vec(8, c.Float()).String())
	assert.Equal(t, "{i32, f64}", c.Struct(false, c.Int(32), c.Double()).String())
	assert.Equal(t, "packed{i8}", c.Struct(true, c.Int(8)).String())
	assert.Equal(t, "fn(i32, i32) i32", c.Func(c.Int(32), []*Type{c.Int(32), c.Int(32)}, false).String())
	assert.Equal(t, "fn(i32)", c.Func(c.Void(), []*Type{c.Int(32)}, false).String())
	assert.Equal(t, "fn(...)", c.Func(c.Void(), nil, true).String())
}
