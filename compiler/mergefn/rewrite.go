package mergefn

import (
	"github.com/rilllang/rill/compiler/ir"
	"github.com/rilllang/rill/compiler/tp"
)

// replaceDirectCallers rewrites every direct call of old into a call
// of new bit-cast to old's type. Each rewritten caller is invalidated:
// its equivalence evidence is stale now.
func (p *Pass) replaceDirectCallers(old, new *ir.Func) {
	cast := p.mod.ConstBitCast(new, old.Type())

	for _, f := range p.mod.Funcs {
		for _, b := range f.Blocks {
			for _, x := range b.Code {
				if (x.Op == ir.Call || x.Op == ir.Invoke) && x.Args[0] == ir.Value(old) {
					p.remove(f)
					x.Args[0] = cast
				}
			}
		}
	}
}

// appendCast adapts v to type t at the end of b. Integer to pointer
// width confusion uses the dedicated conversions, everything else a
// value-preserving bit-cast.
func appendCast(b *ir.Block, v ir.Value, t *tp.Type) ir.Value {
	st := v.Type()
	if st == t {
		return v
	}

	op := ir.BitCast

	switch {
	case st.Kind() == tp.Int && t.Kind() == tp.Ptr:
		op = ir.IntToPtr
	case st.Kind() == tp.Ptr && t.Kind() == tp.Int:
		op = ir.PtrToInt
	}

	return b.Push(ir.NewCast(op, v, t))
}

// writeThunk replaces g with a fresh function of g's signature that
// tail-calls f, then erases g.
func (p *Pass) writeThunk(f, g *ir.Func) {
	if !g.Overridable() {
		p.replaceDirectCallers(g, f)
	}

	// Redirecting may have consumed every use of an internal g. No
	// thunk needed then.
	if g.LocalLinkage() && !p.mod.HasUses(g) {
		p.mod.EraseFunc(g)
		return
	}

	ng := p.mod.NewFunc("", g.Sig, g.Linkage)
	bb := ng.NewBlock("entry")

	args := make([]ir.Value, 0, len(ng.In))

	for i, a := range ng.In {
		args = append(args, appendCast(bb, a, f.Sig.Param(i)))
	}

	call := bb.Push(ir.NewCall(f, args, f.CC, true))

	if ng.Sig.Ret().Kind() == tp.Void {
		bb.Push(ir.NewRet(p.mod.Types, nil))
	} else {
		bb.Push(ir.NewRet(p.mod.Types, appendCast(bb, call, ng.Sig.Ret())))
	}

	ng.CopyAttrsFrom(g)
	ng.TakeName(g)

	p.removeUsers(g)
	p.mod.ReplaceAllUses(g, ng)
	p.mod.EraseFunc(g)

	if p.tr.If("thunk") {
		p.tr.Printw("thunk written", "name", ng.Name, "target", f.Name)
	}

	p.Stats.Thunks++
}

// writeAlias replaces g with an alias to f and erases g.
func (p *Pass) writeAlias(f, g *ir.Func) {
	target := p.mod.ConstBitCast(f, g.Type())
	ga := p.mod.AddAlias("", g.Type(), g.Linkage, target)

	if g.Align > f.Align {
		f.Align = g.Align
	}

	ga.Name, g.Name = g.Name, ""
	ga.Visibility = g.Visibility

	p.removeUsers(g)
	p.mod.ReplaceAllUses(g, ga)
	p.mod.EraseFunc(g)

	if p.tr.If("alias") {
		p.tr.Printw("alias written", "name", ga.Name, "target", f.Name)
	}

	p.Stats.Aliases++
}

func (p *Pass) writeThunkOrAlias(f, g *ir.Func) {
	if p.Aliases && g.UnnamedAddr {
		switch g.Linkage {
		case ir.External, ir.Internal, ir.Private, ir.Weak:
			p.writeAlias(f, g)
			return
		}
	}

	p.writeThunk(f, g)
}

// mergeTwoFunctions folds g into f, the seated representative. g is
// erased or reduced to a thunk or alias and must not be visited again.
func (p *Pass) mergeTwoFunctions(f, g *ir.Func) {
	if f.Overridable() {
		if !g.Overridable() {
			bug("strong %v folded into weak %v", g.Name, f.Name)
		}

		if p.Aliases {
			// Neither symbol may be erased: external linkers can bind
			// each to a different definition. A fresh function takes
			// f's name and uses, f keeps the body and turns private,
			// and both names become aliases to f.
			h := p.mod.NewFunc("", f.Sig, f.Linkage)
			h.CopyAttrsFrom(f)
			h.TakeName(f)

			p.removeUsers(f)
			p.mod.ReplaceAllUses(f, h)

			maxAlign := g.Align
			if h.Align > maxAlign {
				maxAlign = h.Align
			}

			p.writeAlias(f, g)
			p.writeAlias(f, h)

			f.Align = maxAlign
			f.Linkage = ir.Private
		} else {
			// Without aliases the only win left is pointing direct
			// callers at a single body.
			p.replaceDirectCallers(g, f)
		}

		p.Stats.DoubleWeak++
	} else {
		p.writeThunkOrAlias(f, g)
	}

	p.Stats.Merged++
}
