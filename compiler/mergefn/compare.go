package mergefn

import (
	"github.com/rilllang/rill/compiler/ir"
	"github.com/rilllang/rill/compiler/layout"
	"github.com/rilllang/rill/compiler/set"
	"github.com/rilllang/rill/compiler/tp"
)

type (
	// funcComparator decides whether two functions would compile to the
	// same machine code. It errs on the side of reporting difference.
	// All state is scoped to a single comparison.
	funcComparator struct {
		mod *ir.Module
		tc  *tp.Context
		lay *layout.Layout

		f1, f2 *ir.Func

		fwd     map[ir.Value]ir.Value
		claimed map[ir.Value]struct{}
	}
)

func newComparator(m *ir.Module, f1, f2 *ir.Func) *funcComparator {
	return &funcComparator{
		mod:     m,
		tc:      m.Types,
		lay:     m.Layout,
		f1:      f1,
		f2:      f2,
		fwd:     map[ir.Value]ir.Value{},
		claimed: map[ir.Value]struct{}{},
	}
}

func (c *funcComparator) compare() bool {
	f1, f2 := c.f1, c.f2

	// Header checks first: everything the fingerprint did not cover.
	if f1.Attrs != f2.Attrs {
		return false
	}

	if (f1.GC != "") != (f2.GC != "") {
		return false
	}
	if f1.GC != "" && f1.GC != f2.GC {
		return false
	}

	if (f1.Section != "") != (f2.Section != "") {
		return false
	}
	if f1.Section != "" && f1.Section != f2.Section {
		return false
	}

	if f1.Sig.Variadic() != f2.Sig.Variadic() {
		return false
	}

	if f1.CC != f2.CC {
		return false
	}

	if !c.equivTypes(f1.Sig, f2.Sig) {
		return false
	}

	if len(f1.In) != len(f2.In) {
		bug("equivalent signatures with different parameter counts: %v vs %v", f1.Name, f2.Name)
	}

	// Seed the mapping with the parameters in declaration order.
	for i := range f1.In {
		if !c.enumerate(f1.In[i], f2.In[i]) {
			bug("parameters enumerated twice")
		}
	}

	// Paired walk from the entry blocks, taking successors in
	// terminator order. Blocks never reached this way cannot affect
	// generated code and are never compared.
	var stack1, stack2 []*ir.Block

	visited := set.MakeBitmap(len(f1.Blocks))

	stack1 = append(stack1, f1.Entry())
	stack2 = append(stack2, f2.Entry())

	visited.Set(f1.Entry().Index)

	for len(stack1) != 0 {
		b1 := stack1[len(stack1)-1]
		b2 := stack2[len(stack2)-1]
		stack1 = stack1[:len(stack1)-1]
		stack2 = stack2[:len(stack2)-1]

		if !c.enumerate(b1, b2) || !c.compareBlocks(b1, b2) {
			return false
		}

		t1, t2 := b1.Term(), b2.Term()
		s1, s2 := t1.Succs(), t2.Succs()

		if len(s1) != len(s2) {
			bug("equivalent terminators with different successor counts")
		}

		for i := range s1 {
			if visited.IsSet(s1[i].Index) {
				continue
			}

			visited.Set(s1[i].Index)

			stack1 = append(stack1, s1[i])
			stack2 = append(stack2, s2[i])
		}
	}

	return true
}

// compareBlocks walks two blocks in lock step.
func (c *funcComparator) compareBlocks(b1, b2 *ir.Block) bool {
	n := len(b1.Code)
	if len(b2.Code) < n {
		n = len(b2.Code)
	}

	for i := 0; i < n; i++ {
		x1, x2 := b1.Code[i], b2.Code[i]

		if !c.enumerate(x1, x2) {
			return false
		}

		if x1.Op == ir.GEP || x2.Op == ir.GEP {
			if x1.Op != x2.Op {
				return false
			}

			if !c.enumerate(x1.Args[0], x2.Args[0]) {
				return false
			}

			if !c.sameGEP(x1, x2) {
				return false
			}

			continue
		}

		if !c.sameOperation(x1, x2) {
			return false
		}

		for j := range x1.Args {
			o1, o2 := x1.Args[j], x2.Args[j]

			if !c.enumerate(o1, o2) {
				return false
			}

			if o1.Class() != o2.Class() || !c.equivTypes(o1.Type(), o2.Type()) {
				return false
			}
		}
	}

	return len(b1.Code) == len(b2.Code)
}

// sameGEP compares the pointer arithmetic of two address computations.
// With a layout available, both collapsing to the same constant byte
// offset is enough no matter how the indices are spelled.
func (c *funcComparator) sameGEP(g1, g2 *ir.Instr) bool {
	as := g1.Args[0].Type().AddrSpace()
	if as != g2.Args[0].Type().AddrSpace() {
		return false
	}

	if c.lay != nil {
		off1, ok1 := c.gepConstOffset(g1)
		off2, ok2 := c.gepConstOffset(g2)

		if ok1 && ok2 {
			return off1 == off2
		}
	}

	if g1.Args[0].Type() != g2.Args[0].Type() {
		return false
	}

	if len(g1.Args) != len(g2.Args) {
		return false
	}

	for i := range g1.Args {
		if !c.enumerate(g1.Args[i], g2.Args[i]) {
			return false
		}
	}

	return true
}

// gepConstOffset accumulates the byte offset of an address computation
// whose indices are all constant.
func (c *funcComparator) gepConstOffset(g *ir.Instr) (off int64, ok bool) {
	idx := make([]int64, 0, len(g.Args)-1)

	for _, a := range g.Args[1:] {
		k, isc := a.(*ir.Const)
		if !isc || k.Kind != ir.ConstInt {
			return 0, false
		}

		idx = append(idx, int64(k.Val))
	}

	if len(idx) == 0 {
		return 0, true
	}

	t := g.Args[0].Type().Elem()

	s, sized := c.lay.AllocSize(t)
	if !sized {
		return 0, false
	}

	off = idx[0] * s

	for _, i := range idx[1:] {
		switch t.Kind() {
		case tp.Struct:
			fo, ok := c.lay.FieldOffset(t, int(i))
			if !ok {
				return 0, false
			}

			off += fo
			t = t.Field(int(i))
		case tp.Array, tp.Vec:
			s, sized := c.lay.AllocSize(t.Elem())
			if !sized {
				return 0, false
			}

			off += i * s
			t = t.Elem()
		default:
			return 0, false
		}
	}

	return off, true
}
