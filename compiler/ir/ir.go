package ir

import (
	"github.com/rilllang/rill/compiler/layout"
	"github.com/rilllang/rill/compiler/tp"
)

type (
	// Class tags the variant of a Value.
	Class int

	// Value is anything an instruction operand can refer to.
	Value interface {
		Type() *tp.Type
		Class() Class
	}

	Linkage    int
	Visibility int
	CallConv   uint32
	AttrSet    uint64

	// Param is a formal parameter of a function.
	Param struct {
		Name  string
		Typ   *tp.Type
		Fn    *Func
		Index int
	}

	// InlineAsm is an inline assembly literal usable as a callee.
	InlineAsm struct {
		Typ         *tp.Type
		Asm         string
		Constraints string
	}

	// Block is a basic block: a non-empty instruction sequence ending in
	// a terminator. As a Value it is a branch target of label type.
	Block struct {
		Name  string
		Fn    *Func
		Index int
		Code  []*Instr
	}

	Func struct {
		Name string
		Sig  *tp.Type

		CC          CallConv
		Attrs       AttrSet
		GC          string
		Section     string
		Linkage     Linkage
		Visibility  Visibility
		UnnamedAddr bool
		Align       uint32

		In     []*Param
		Blocks []*Block

		Mod *Module

		dead bool
	}

	// Alias is a second symbol bound to the address of its target.
	Alias struct {
		Name       string
		Typ        *tp.Type
		Linkage    Linkage
		Visibility Visibility
		Target     Value
	}

	// FuncHandle is a weak reference: Func reports nil once the function
	// was erased from its module.
	FuncHandle struct {
		fn *Func
	}

	Module struct {
		Name string

		Types  *tp.Context
		Layout *layout.Layout

		Funcs   []*Func
		Aliases []*Alias

		consts   map[constKey]*Const
		constSeq []*Const
	}
)

const (
	ClassConst Class = iota
	ClassInlineAsm
	ClassParam
	ClassBlock
	ClassInstr
	ClassFunc
	ClassAlias
)

const (
	External Linkage = iota
	AvailableExternally
	LinkOnce
	Weak
	Common
	ExternWeak
	Internal
	Private
)

const (
	DefaultVis Visibility = iota
	HiddenVis
	ProtectedVis
)

const (
	CCC CallConv = iota
	CCFast
	CCCold
)

func NewModule(name string) *Module {
	return &Module{
		Name:   name,
		Types:  tp.NewContext(),
		consts: map[constKey]*Const{},
	}
}

func (p *Param) Type() *tp.Type { return p.Typ }
func (p *Param) Class() Class   { return ClassParam }

func (a *InlineAsm) Type() *tp.Type { return a.Typ }
func (a *InlineAsm) Class() Class   { return ClassInlineAsm }

func (b *Block) Type() *tp.Type { return b.Fn.Mod.Types.Label() }
func (b *Block) Class() Class   { return ClassBlock }

// Term is the block terminator, its last instruction.
func (b *Block) Term() *Instr {
	if len(b.Code) == 0 {
		return nil
	}

	return b.Code[len(b.Code)-1]
}

func (b *Block) Push(x *Instr) *Instr {
	x.Blk = b
	b.Code = append(b.Code, x)

	return x
}

func (f *Func) Type() *tp.Type { return f.Mod.Types.Ptr(f.Sig, 0) }
func (f *Func) Class() Class   { return ClassFunc }

func (f *Func) IsDeclaration() bool { return len(f.Blocks) == 0 }

func (f *Func) Entry() *Block { return f.Blocks[0] }

// Overridable reports whether the linker may substitute another
// definition for f, which forbids erasing it.
func (f *Func) Overridable() bool {
	switch f.Linkage {
	case LinkOnce, Weak, Common, ExternWeak:
		return true
	}

	return false
}

func (f *Func) LocalLinkage() bool {
	return f.Linkage == Internal || f.Linkage == Private
}

func (f *Func) NewBlock(name string) *Block {
	b := &Block{
		Name:  name,
		Fn:    f,
		Index: len(f.Blocks),
	}

	f.Blocks = append(f.Blocks, b)

	return b
}

// TakeName moves the name of g onto f, leaving g unnamed.
func (f *Func) TakeName(g *Func) {
	f.Name, g.Name = g.Name, ""
}

// CopyAttrsFrom copies the merge-relevant function attributes of g.
func (f *Func) CopyAttrsFrom(g *Func) {
	f.CC = g.CC
	f.Attrs = g.Attrs
	f.GC = g.GC
	f.Section = g.Section
	f.Visibility = g.Visibility
	f.Align = g.Align
	f.UnnamedAddr = g.UnnamedAddr
}

func (a *Alias) Type() *tp.Type { return a.Typ }
func (a *Alias) Class() Class   { return ClassAlias }

func (h *FuncHandle) Func() *Func {
	if h.fn == nil || h.fn.dead {
		return nil
	}

	return h.fn
}

func (m *Module) Handle(f *Func) *FuncHandle {
	return &FuncHandle{fn: f}
}

// NewFunc creates a function with parameters allocated from the
// signature and appends it to the module.
func (m *Module) NewFunc(name string, sig *tp.Type, link Linkage) *Func {
	f := &Func{
		Name:    name,
		Sig:     sig,
		Linkage: link,
		Mod:     m,
	}

	for i := 0; i < sig.NumParams(); i++ {
		f.In = append(f.In, &Param{
			Typ:   sig.Param(i),
			Fn:    f,
			Index: i,
		})
	}

	m.Funcs = append(m.Funcs, f)

	return f
}

func (m *Module) AddAlias(name string, typ *tp.Type, link Linkage, target Value) *Alias {
	a := &Alias{
		Name:    name,
		Typ:     typ,
		Linkage: link,
		Target:  target,
	}

	m.Aliases = append(m.Aliases, a)

	return a
}

func (m *Module) FuncNamed(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// EraseFunc unlinks f from the module. Weak handles to f go dead,
// the object itself must not be touched again.
func (m *Module) EraseFunc(f *Func) {
	for i, g := range m.Funcs {
		if g == f {
			m.Funcs = append(m.Funcs[:i], m.Funcs[i+1:]...)
			break
		}
	}

	f.dead = true
}

// ReplaceAllUses rewrites every operand, alias target and constant
// expression referring to old to refer to new instead.
func (m *Module) ReplaceAllUses(old, new Value) {
	// Interned constant expressions over old are rebuilt over new first,
	// then replaced at their use sites like any other operand.
	remap := map[Value]Value{old: new}

	for {
		again := false

		for _, c := range m.constList() {
			if c.Op == 0 {
				continue
			}
			if _, done := remap[c]; done {
				continue
			}

			if nx, ok := remap[c.X]; ok {
				remap[c] = m.NewConstExpr(c.Op, nx, c.Typ)
				again = true
			}
		}

		if !again {
			break
		}
	}

	sub := func(v Value) Value {
		if nv, ok := remap[v]; ok {
			return nv
		}

		return v
	}

	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			for _, x := range b.Code {
				for i, a := range x.Args {
					x.Args[i] = sub(a)
				}
			}
		}
	}

	for _, a := range m.Aliases {
		a.Target = sub(a.Target)
	}
}

// Users returns the values directly using v: instructions with v as an
// operand, constant expressions over v, aliases targeting v.
func (m *Module) Users(v Value) (users []Value) {
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			for _, x := range b.Code {
				for _, a := range x.Args {
					if a == v {
						users = append(users, x)
						break
					}
				}
			}
		}
	}

	for _, c := range m.constList() {
		if c.Op != 0 && c.X == v {
			users = append(users, c)
		}
	}

	for _, a := range m.Aliases {
		if a.Target == v {
			users = append(users, a)
		}
	}

	return users
}

func (m *Module) HasUses(v Value) bool {
	return len(m.Users(v)) != 0
}
