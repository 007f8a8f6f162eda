package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceAllUses(t *testing.T) {
	m := NewModule("test")
	i32 := m.Types.Int(32)
	sig := m.Types.Func(i32, nil, false)

	f := m.NewFunc("f", sig, Internal)
	g := m.NewFunc("g", sig, Internal)

	caller := m.NewFunc("caller", sig, External)
	bb := caller.NewBlock("entry")

	call := bb.Push(NewCall(f, nil, CCC, false))
	bb.Push(NewRet(m.Types, call))

	m.ReplaceAllUses(f, g)

	assert.Same(t, Value(g), call.Args[0])
}

func TestReplaceAllUsesThroughConstExpr(t *testing.T) {
	m := NewModule("test")
	i32 := m.Types.Int(32)
	sig := m.Types.Func(i32, nil, false)
	otherTy := m.Types.Ptr(m.Types.Func(m.Types.Void(), nil, false), 0)

	f := m.NewFunc("f", sig, Internal)
	g := m.NewFunc("g", sig, Internal)

	cast := m.ConstBitCast(f, otherTy)
	require.IsType(t, &Const{}, cast)

	a := m.AddAlias("a", otherTy, External, cast)

	m.ReplaceAllUses(f, g)

	nc, ok := a.Target.(*Const)
	require.True(t, ok)
	assert.Equal(t, ConstExpr, nc.Kind)
	assert.Same(t, Value(g), nc.X)

	// Rebuilt cast is interned like any other constant.
	assert.Same(t, Value(nc), m.ConstBitCast(g, otherTy))
}

func TestUsers(t *testing.T) {
	m := NewModule("test")
	i32 := m.Types.Int(32)
	sig := m.Types.Func(i32, nil, false)

	f := m.NewFunc("f", sig, Internal)

	caller := m.NewFunc("caller", sig, External)
	bb := caller.NewBlock("entry")

	call := bb.Push(NewCall(f, nil, CCC, false))
	bb.Push(NewRet(m.Types, call))

	users := m.Users(f)
	require.Len(t, users, 1)
	assert.Same(t, Value(call), users[0])

	assert.True(t, m.HasUses(f))
	assert.False(t, m.HasUses(caller))
}

func TestEraseAndHandles(t *testing.T) {
	m := NewModule("test")
	sig := m.Types.Func(m.Types.Void(), nil, false)

	f := m.NewFunc("f", sig, Internal)
	h := m.Handle(f)

	require.Same(t, f, h.Func())

	m.EraseFunc(f)

	assert.Nil(t, h.Func())
	assert.Nil(t, m.FuncNamed("f"))
	assert.Len(t, m.Funcs, 0)
}

func TestConstInterning(t *testing.T) {
	m := NewModule("test")
	i32 := m.Types.Int(32)
	i64 := m.Types.Int(64)

	assert.Same(t, m.ConstInt(i32, 7), m.ConstInt(i32, 7))
	assert.NotSame(t, m.ConstInt(i32, 7), m.ConstInt(i64, 7))
	assert.NotSame(t, m.ConstInt(i32, 7), m.ConstInt(i32, 8))
}

func TestBitCastFold(t *testing.T) {
	m := NewModule("test")
	i32 := m.Types.Int(32)
	i64 := m.Types.Int(64)
	f32 := m.Types.Float()
	p0 := m.Types.Ptr(m.Types.Int(8), 0)
	p0b := m.Types.Ptr(m.Types.Int(32), 0)

	// same width int <-> float reinterprets the bits
	c := m.ConstFloat(f32, 0x3f800000)
	assert.Same(t, m.ConstInt(i32, 0x3f800000), m.BitCastFold(c, i32))

	// widths differ
	assert.Nil(t, m.BitCastFold(m.ConstInt(i32, 1), i64))

	// pointer nulls fold within an address space
	assert.Same(t, m.Null(p0b), m.BitCastFold(m.Null(p0), p0b))
	assert.Nil(t, m.BitCastFold(m.ConstInt(i64, 5), p0))
}
