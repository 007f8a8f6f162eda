package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rilllang/rill/compiler/format"
	"github.com/rilllang/rill/compiler/ir"
	"github.com/rilllang/rill/compiler/tp"
)

const sample = `
; a pair of simple functions and some glue
func @add(i32 %a, i32 %b) i32 [internal, cc=1, align=16, unnamed_addr] {
entry:
	%s = add nsw i32, i32 %a, i32 %b
	%c = icmp slt i1, i32 %s, i32 0
	br void, i1 %c, label %neg, label %pos
neg:
	%n = sub i32, i32 0, i32 %s
	ret void, i32 %n
pos:
	ret void, i32 %s
}

func @ext(i64) i64 [gc="shadow", section="hot"]

func @mem(ptr(i32) %p) void {
entry:
	%v = load volatile acquire align=4 i32, ptr(i32) %p
	store void, i32 %v, ptr(i32) %p
	%o = atomicrmw add seq_cst i32, ptr(i32) %p, i32 1
	%x = cmpxchg acq_rel monotonic {i32, i1}, ptr(i32) %p, i32 %o, i32 %v
	fence seq_cst void
	ret void
}

alias @plus [weak] = ptr(fn(i32, i32) i32) @add
`

func TestParse(t *testing.T) {
	m, err := Module("test", []byte(sample))
	require.NoError(t, err)

	add := m.FuncNamed("add")
	require.NotNil(t, add)

	assert.Equal(t, ir.Internal, add.Linkage)
	assert.Equal(t, ir.CallConv(1), add.CC)
	assert.Equal(t, uint32(16), add.Align)
	assert.True(t, add.UnnamedAddr)
	require.Len(t, add.Blocks, 3)

	entry := add.Entry()
	require.Len(t, entry.Code, 3)

	sum := entry.Code[0]
	assert.Equal(t, ir.Add, sum.Op)
	assert.Equal(t, ir.OptNSW, sum.Opt)
	assert.Same(t, ir.Value(add.In[0]), sum.Args[0])
	assert.Same(t, ir.Value(add.In[1]), sum.Args[1])

	cond := entry.Code[2]
	assert.Equal(t, ir.CondBr, cond.Op)
	require.Len(t, cond.Succs(), 2)
	assert.Same(t, add.Blocks[1], cond.Succs()[0])
	assert.Same(t, add.Blocks[2], cond.Succs()[1])

	ext := m.FuncNamed("ext")
	require.NotNil(t, ext)
	assert.True(t, ext.IsDeclaration())
	assert.Equal(t, "shadow", ext.GC)
	assert.Equal(t, "hot", ext.Section)

	mem := m.FuncNamed("mem")
	require.NotNil(t, mem)

	ld := mem.Entry().Code[0]
	assert.True(t, ld.Volatile)
	assert.Equal(t, ir.OrdAcquire, ld.Ord)
	assert.Equal(t, uint32(4), ld.Align)

	cx := mem.Entry().Code[3]
	assert.Equal(t, ir.CmpXchg, cx.Op)
	assert.Equal(t, ir.OrdAcqRel, cx.Ord)
	assert.Equal(t, ir.OrdMonotonic, cx.Ord2)
	assert.Equal(t, tp.Struct, cx.Typ.Kind())

	require.Len(t, m.Aliases, 1)
	assert.Equal(t, "plus", m.Aliases[0].Name)
	assert.Equal(t, ir.Weak, m.Aliases[0].Linkage)
	assert.Same(t, ir.Value(add), m.Aliases[0].Target)
}

func TestForwardRefs(t *testing.T) {
	m, err := Module("test", []byte(`
func @loop(i32 %n) i32 {
entry:
	br void, label %head
head:
	%i = phi i32, i32 0, label %entry, i32 %next, label %head
	%next = add i32, i32 %i, i32 1
	%c = icmp slt i1, i32 %next, i32 %n
	br void, i1 %c, label %head, label %done
done:
	ret void, i32 %i
}
`))
	require.NoError(t, err)

	f := m.FuncNamed("loop")
	require.NotNil(t, f)

	head := f.Blocks[1]
	phi := head.Code[0]

	assert.Equal(t, ir.Phi, phi.Op)
	assert.Same(t, ir.Value(head.Code[1]), phi.Args[2])
	assert.Same(t, ir.Value(head), phi.Args[3])
}

func TestMutualRecursion(t *testing.T) {
	m, err := Module("test", []byte(`
func @even(i32 %n) i32 {
entry:
	%r = call i32, ptr(fn(i32) i32) @odd, i32 %n
	ret void, i32 %r
}
func @odd(i32 %n) i32 {
entry:
	%r = call i32, ptr(fn(i32) i32) @even, i32 %n
	ret void, i32 %r
}
`))
	require.NoError(t, err)

	even, odd := m.FuncNamed("even"), m.FuncNamed("odd")

	assert.Same(t, ir.Value(odd), even.Entry().Code[0].Args[0])
	assert.Same(t, ir.Value(even), odd.Entry().Code[0].Args[0])
}

func TestRoundTrip(t *testing.T) {
	m, err := Module("test", []byte(sample))
	require.NoError(t, err)

	text := format.Module(nil, m)

	m2, err := Module("test", text)
	require.NoError(t, err, "%s", text)

	text2 := format.Module(nil, m2)

	assert.Equal(t, string(text), string(text2))
}

func TestErrors(t *testing.T) {
	for _, txt := range []string{
		"global @x = 4",
		"func @f(i32 %a i32 %b) void {\nentry:\n\tret void\n}",
		"func @f() void {\nentry:\n\t%x = frob i32\n}",
		"func @f() void {\nentry:\n\tret void, i32 %undefined\n}",
	} {
		_, err := Module("test", []byte(txt))
		assert.Error(t, err, "%v", txt)
	}
}
