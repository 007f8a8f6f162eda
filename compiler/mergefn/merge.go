package mergefn

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/rilllang/rill/compiler/ir"
)

type (
	// Pass folds functions that would compile to identical machine
	// code, considering pointers and integers of equal width the same.
	// One representative per equivalence class keeps its body, the rest
	// become thunks, aliases or are erased.
	Pass struct {
		// Aliases enables global-alias redirection where the host
		// object format supports it.
		Aliases bool

		Stats Stats

		mod      *ir.Module
		set      fnSet
		deferred []*ir.FuncHandle
		tr       tlog.Span
	}

	Stats struct {
		Merged     int
		Thunks     int
		Aliases    int
		DoubleWeak int
	}
)

// Run merges equivalent functions of m, repeating rounds until no
// function is left deferred, and reports whether anything changed.
// Equivalent functions vetoed as too small are left as they are.
func (p *Pass) Run(ctx context.Context, m *ir.Module) (changed bool) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "mergefn: run module", "module", m.Name)
	defer tr.Finish("changed", &changed,
		"merged", &p.Stats.Merged, "thunks", &p.Stats.Thunks,
		"aliases", &p.Stats.Aliases, "double_weak", &p.Stats.DoubleWeak)

	p.mod = m
	p.tr = tr

	for _, f := range m.Funcs {
		if !f.IsDeclaration() && f.Linkage != ir.AvailableExternally {
			p.deferred = append(p.deferred, m.Handle(f))
		}
	}

	p.set.init(len(p.deferred), p.equalFuncs)

	for {
		worklist := p.deferred
		p.deferred = nil

		if tr.If("worklist") {
			tr.Printw("round", "module_size", len(m.Funcs), "worklist_size", len(worklist))
		}

		// Strong functions first: merging two strong functions always
		// erases one. Weak functions second, so they can only attach as
		// thunks or aliases to strong representatives already seated.
		for _, h := range worklist {
			f := h.Func()
			if f == nil || f.IsDeclaration() || f.Linkage == ir.AvailableExternally || f.Overridable() {
				continue
			}

			changed = p.insert(f) || changed
		}

		for _, h := range worklist {
			f := h.Func()
			if f == nil || f.IsDeclaration() || f.Linkage == ir.AvailableExternally || !f.Overridable() {
				continue
			}

			changed = p.insert(f) || changed
		}

		if len(p.deferred) == 0 {
			break
		}
	}

	p.set.clear()

	return changed
}

func (p *Pass) equalFuncs(old, new *entry) bool {
	return newComparator(p.mod, old.fn, new.fn).compare()
}

// insert seats f in the set, or folds it into the equal incumbent.
func (p *Pass) insert(f *ir.Func) bool {
	e := &entry{fn: f, hash: fingerprint(f)}

	old := p.set.insert(e)
	if old == nil {
		if p.tr.If("insert") {
			p.tr.Printw("inserting as unique", "func", f.Name)
		}

		return false
	}

	if old.fn == f {
		return false
	}

	// Tiny functions cost less at the call sites than a thunk would.
	if len(f.Blocks) == 1 && len(f.Blocks[0].Code) <= 2 {
		if p.tr.If("insert") {
			p.tr.Printw("too small to bother merging", "func", f.Name)
		}

		return false
	}

	if old.fn.Overridable() && !f.Overridable() {
		bug("strong function %v would thunk to weak %v", f.Name, old.fn.Name)
	}

	if p.tr.If("merge") {
		p.tr.Printw("equal functions", "keep", old.fn.Name, "fold", f.Name)
	}

	p.mergeTwoFunctions(old.fn, f)

	return true
}

// remove takes f out of the set and queues it for the next round.
func (p *Pass) remove(f *ir.Func) {
	if p.set.remove(f) {
		if p.tr.If("remove") {
			p.tr.Printw("removed from set and deferred", "func", f.Name)
		}

		p.deferred = append(p.deferred, p.mod.Handle(f))
	}
}

// removeUsers invalidates every function containing an instruction
// that uses v, looking through constant expressions. Called right
// before uses of v are replaced.
func (p *Pass) removeUsers(v ir.Value) {
	worklist := []ir.Value{v}

	for len(worklist) != 0 {
		u := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, usr := range p.mod.Users(u) {
			switch usr := usr.(type) {
			case *ir.Instr:
				p.remove(usr.Blk.Fn)
			case *ir.Const:
				worklist = append(worklist, usr)
			}
		}
	}
}
