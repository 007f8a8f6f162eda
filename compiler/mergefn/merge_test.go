package mergefn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rilllang/rill/compiler/ir"
)

func runPass(tb testing.TB, m *ir.Module, aliases bool) (*Pass, bool) {
	tb.Helper()

	p := &Pass{Aliases: aliases}

	changed := p.Run(context.Background(), m)

	checkNoStaleCalls(tb, m)

	return p, changed
}

// checkNoStaleCalls verifies no instruction refers to a function that
// is no longer in the module.
func checkNoStaleCalls(tb testing.TB, m *ir.Module) {
	tb.Helper()

	live := map[*ir.Func]bool{}
	for _, f := range m.Funcs {
		live[f] = true
	}

	seen := func(v ir.Value) {
		if f, ok := v.(*ir.Func); ok {
			assert.True(tb, live[f], "stale reference to @%v", f.Name)
		}
	}

	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			for _, x := range b.Code {
				for _, a := range x.Args {
					seen(a)

					if c, ok := a.(*ir.Const); ok && c.Kind == ir.ConstExpr {
						seen(c.X)
					}
				}
			}
		}
	}

	for _, a := range m.Aliases {
		seen(a.Target)

		if c, ok := a.Target.(*ir.Const); ok && c.Kind == ir.ConstExpr {
			seen(c.X)
		}
	}
}

const strongPair = `
func @add_i32(i32 %a, i32 %b) i32 [internal] {
entry:
	%s = add i32, i32 %a, i32 %b
	%d = mul i32, i32 %s, i32 %a
	ret void, i32 %d
}
func @plus_i32(i32 %a, i32 %b) i32 [internal] {
entry:
	%s = add i32, i32 %a, i32 %b
	%d = mul i32, i32 %s, i32 %a
	ret void, i32 %d
}
func @user(i32 %x) i32 {
entry:
	%r = call i32, ptr(fn(i32, i32) i32) @plus_i32, i32 %x, i32 %x
	ret void, i32 %r
}
`

func TestMergeStrongPair(t *testing.T) {
	m := mustParse(t, strongPair)

	p, changed := runPass(t, m, false)

	assert.True(t, changed)
	assert.Equal(t, 1, p.Stats.Merged)
	assert.Equal(t, 0, p.Stats.Thunks)
	assert.Equal(t, 0, p.Stats.DoubleWeak)

	add := m.FuncNamed("add_i32")
	require.NotNil(t, add)
	assert.Nil(t, m.FuncNamed("plus_i32"))

	user := m.FuncNamed("user")
	require.NotNil(t, user)
	assert.Same(t, ir.Value(add), user.Entry().Code[0].Args[0])
}

func TestMergeDoubleWeak(t *testing.T) {
	m := mustParse(t, `
func @min(i32 %a, i32 %b) i32 [weak, unnamed_addr] {
entry:
	%c = icmp slt i1, i32 %a, i32 %b
	%r = select i32, i1 %c, i32 %a, i32 %b
	ret void, i32 %r
}
func @imin(i32 %a, i32 %b) i32 [weak, unnamed_addr] {
entry:
	%c = icmp slt i1, i32 %a, i32 %b
	%r = select i32, i1 %c, i32 %a, i32 %b
	ret void, i32 %r
}
`)

	p, changed := runPass(t, m, true)

	assert.True(t, changed)
	assert.Equal(t, 1, p.Stats.Merged)
	assert.Equal(t, 2, p.Stats.Aliases)
	assert.Equal(t, 1, p.Stats.DoubleWeak)

	// A single private body remains, both names are aliases to it.
	require.Len(t, m.Funcs, 1)
	impl := m.Funcs[0]

	assert.Equal(t, ir.Private, impl.Linkage)
	assert.False(t, impl.IsDeclaration())

	require.Len(t, m.Aliases, 2)

	names := map[string]bool{}
	for _, a := range m.Aliases {
		names[a.Name] = true
		assert.Same(t, ir.Value(impl), a.Target)
	}

	assert.True(t, names["min"])
	assert.True(t, names["imin"])
}

func TestMergeThunk(t *testing.T) {
	m := mustParse(t, `
func @keep(i32 %a, i32 %b) i32 {
entry:
	%s = add i32, i32 %a, i32 %b
	%d = mul i32, i32 %s, i32 %a
	ret void, i32 %d
}
func @fold(i32 %a, i32 %b) i32 {
entry:
	%s = add i32, i32 %a, i32 %b
	%d = mul i32, i32 %s, i32 %a
	ret void, i32 %d
}
`)

	p, changed := runPass(t, m, true)

	assert.True(t, changed)
	assert.Equal(t, 1, p.Stats.Merged)
	assert.Equal(t, 1, p.Stats.Thunks)
	assert.Equal(t, 0, p.Stats.Aliases)

	keep := m.FuncNamed("keep")
	thunk := m.FuncNamed("fold")
	require.NotNil(t, keep)
	require.NotNil(t, thunk)

	require.Len(t, thunk.Blocks, 1)

	call := thunk.Entry().Code[0]
	assert.Equal(t, ir.Call, call.Op)
	assert.Same(t, ir.Value(keep), call.Args[0])
	assert.NotZero(t, call.Opt&ir.OptTail)
	assert.Equal(t, keep.CC, call.CC)

	ret := thunk.Entry().Term()
	assert.Equal(t, ir.Ret, ret.Op)
	assert.Same(t, ir.Value(call), ret.Args[0])
}

func TestMergeThunkCasts(t *testing.T) {
	m := mustParse(t, ptrIntPair)

	p, changed := runPass(t, m, false)

	assert.True(t, changed)
	assert.Equal(t, 1, p.Stats.Merged)
	assert.Equal(t, 1, p.Stats.Thunks)

	keep := m.FuncNamed("viaptr")
	thunk := m.FuncNamed("viaint")
	require.NotNil(t, keep)
	require.NotNil(t, thunk)

	// The i64 argument reaches the pointer parameter through the
	// dedicated conversion.
	cast := thunk.Entry().Code[0]
	assert.Equal(t, ir.IntToPtr, cast.Op)
	assert.Same(t, ir.Value(thunk.In[0]), cast.Args[0])

	call := thunk.Entry().Code[1]
	assert.Equal(t, ir.Call, call.Op)
	assert.Same(t, ir.Value(keep), call.Args[0])
	assert.Same(t, ir.Value(cast), call.Args[1])
}

func TestMergeVolatileMismatch(t *testing.T) {
	m := mustParse(t, `
func @f(ptr(i32) %p) i32 [internal] {
entry:
	%v = load volatile i32, ptr(i32) %p
	%w = add i32, i32 %v, i32 1
	ret void, i32 %w
}
func @g(ptr(i32) %p) i32 [internal] {
entry:
	%v = load i32, ptr(i32) %p
	%w = add i32, i32 %v, i32 1
	ret void, i32 %w
}
`)

	p, changed := runPass(t, m, true)

	assert.False(t, changed)
	assert.Equal(t, Stats{}, p.Stats)
	assert.Len(t, m.Funcs, 2)
}

func TestMergeTinyVeto(t *testing.T) {
	m := mustParse(t, `
func @inc(i32 %a) i32 [internal] {
entry:
	%s = add i32, i32 %a, i32 1
	ret void, i32 %s
}
func @bump(i32 %a) i32 [internal] {
entry:
	%s = add i32, i32 %a, i32 1
	ret void, i32 %s
}
`)

	p, changed := runPass(t, m, true)

	assert.False(t, changed)
	assert.Equal(t, 0, p.Stats.Merged)
	assert.Len(t, m.Funcs, 2)
}

func TestMergeInvalidatedCaller(t *testing.T) {
	m := mustParse(t, `
func @c1(i32 %x) i32 [internal] {
entry:
	%a = add i32, i32 %x, i32 3
	%r = call i32, ptr(fn(i32) i32) @f1, i32 %a
	ret void, i32 %r
}
func @c2(i32 %x) i32 [internal] {
entry:
	%a = add i32, i32 %x, i32 3
	%r = call i32, ptr(fn(i32) i32) @f2, i32 %a
	ret void, i32 %r
}
func @f1(i32 %n) i32 [internal] {
entry:
	%p = mul i32, i32 %n, i32 5
	%q = add i32, i32 %p, i32 7
	ret void, i32 %q
}
func @f2(i32 %n) i32 [internal] {
entry:
	%p = mul i32, i32 %n, i32 5
	%q = add i32, i32 %p, i32 7
	ret void, i32 %q
}
func @root(i32 %x) i32 {
entry:
	%a = call i32, ptr(fn(i32) i32) @c1, i32 %x
	%b = call i32, ptr(fn(i32) i32) @c2, i32 %a
	ret void, i32 %b
}
`)

	// c1 and c2 disagree until f2 folds into f1. The rewriter must
	// invalidate c2 so the next round can fold it into c1.
	p, changed := runPass(t, m, false)

	assert.True(t, changed)
	assert.Equal(t, 2, p.Stats.Merged)

	assert.NotNil(t, m.FuncNamed("c1"))
	assert.Nil(t, m.FuncNamed("c2"))
	assert.NotNil(t, m.FuncNamed("f1"))
	assert.Nil(t, m.FuncNamed("f2"))

	root := m.FuncNamed("root")
	c1 := m.FuncNamed("c1")

	assert.Same(t, ir.Value(c1), root.Entry().Code[0].Args[0])
	assert.Same(t, ir.Value(c1), root.Entry().Code[1].Args[0])
}

func TestMergeIdempotent(t *testing.T) {
	for _, text := range []string{strongPair, ptrIntPair} {
		m := mustParse(t, text)

		_, changed := runPass(t, m, true)
		require.True(t, changed)

		p2, changed2 := runPass(t, m, true)

		assert.False(t, changed2)
		assert.Equal(t, Stats{}, p2.Stats)
	}
}

func TestMergeWeakAttachesToStrong(t *testing.T) {
	m := mustParse(t, `
func @strong(i32 %a) i32 {
entry:
	%x = mul i32, i32 %a, i32 3
	%y = add i32, i32 %x, i32 9
	ret void, i32 %y
}
func @soft(i32 %a) i32 [weak] {
entry:
	%x = mul i32, i32 %a, i32 3
	%y = add i32, i32 %x, i32 9
	ret void, i32 %y
}
`)

	p, changed := runPass(t, m, false)

	assert.True(t, changed)
	assert.Equal(t, 1, p.Stats.Merged)
	assert.Equal(t, 1, p.Stats.Thunks)
	assert.Equal(t, 0, p.Stats.DoubleWeak)

	// The weak function became a thunk to the strong body and kept its
	// overridable linkage.
	thunk := m.FuncNamed("soft")
	require.NotNil(t, thunk)
	assert.Equal(t, ir.Weak, thunk.Linkage)

	call := thunk.Entry().Code[0]
	assert.Same(t, ir.Value(m.FuncNamed("strong")), call.Args[0])
}

func TestMergeAliasForUnnamedAddr(t *testing.T) {
	m := mustParse(t, `
func @keep(i32 %a) i32 {
entry:
	%x = mul i32, i32 %a, i32 3
	%y = add i32, i32 %x, i32 9
	ret void, i32 %y
}
func @fold(i32 %a) i32 [unnamed_addr] {
entry:
	%x = mul i32, i32 %a, i32 3
	%y = add i32, i32 %x, i32 9
	ret void, i32 %y
}
`)

	p, changed := runPass(t, m, true)

	assert.True(t, changed)
	assert.Equal(t, 1, p.Stats.Merged)
	assert.Equal(t, 1, p.Stats.Aliases)
	assert.Equal(t, 0, p.Stats.Thunks)

	assert.Nil(t, m.FuncNamed("fold"))
	require.Len(t, m.Aliases, 1)
	assert.Equal(t, "fold", m.Aliases[0].Name)
	assert.Same(t, ir.Value(m.FuncNamed("keep")), m.Aliases[0].Target)
}
