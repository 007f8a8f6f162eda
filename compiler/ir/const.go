package ir

import (
	"github.com/rilllang/rill/compiler/tp"
)

type (
	ConstKind int

	// Const is an interned constant: a literal (Op == 0) or a constant
	// cast expression over another value (Op != 0, X set).
	Const struct {
		Typ  *tp.Type
		Kind ConstKind
		Val  uint64

		Op Op
		X  Value
	}

	constKey struct {
		typ  *tp.Type
		kind ConstKind
		val  uint64
		op   Op
		x    Value
	}
)

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstNull
	ConstUndef
	ConstExpr
)

func (c *Const) Type() *tp.Type { return c.Typ }
func (c *Const) Class() Class   { return ClassConst }

// IsNull reports whether c is the zero value of its type.
func (c *Const) IsNull() bool {
	switch c.Kind {
	case ConstNull:
		return true
	case ConstInt, ConstFloat:
		return c.Val == 0
	}

	return false
}

func (m *Module) constOf(k constKey) *Const {
	if c, ok := m.consts[k]; ok {
		return c
	}

	c := &Const{
		Typ:  k.typ,
		Kind: k.kind,
		Val:  k.val,
		Op:   k.op,
		X:    k.x,
	}

	m.consts[k] = c
	m.constSeq = append(m.constSeq, c)

	return c
}

func (m *Module) constList() []*Const { return m.constSeq }

func (m *Module) ConstInt(t *tp.Type, v uint64) *Const {
	return m.constOf(constKey{typ: t, kind: ConstInt, val: v})
}

func (m *Module) ConstFloat(t *tp.Type, bits uint64) *Const {
	return m.constOf(constKey{typ: t, kind: ConstFloat, val: bits})
}

func (m *Module) Null(t *tp.Type) *Const {
	return m.constOf(constKey{typ: t, kind: ConstNull})
}

func (m *Module) Undef(t *tp.Type) *Const {
	return m.constOf(constKey{typ: t, kind: ConstUndef})
}

// NewConstExpr interns a constant cast expression.
func (m *Module) NewConstExpr(op Op, x Value, t *tp.Type) *Const {
	return m.constOf(constKey{typ: t, kind: ConstExpr, op: op, x: x})
}

// ConstBitCast is v reinterpreted at type t: v itself when the type
// already matches, a folded literal when possible, a constant cast
// expression otherwise.
func (m *Module) ConstBitCast(v Value, t *tp.Type) Value {
	if v.Type() == t {
		return v
	}

	if c, ok := v.(*Const); ok {
		if f := m.BitCastFold(c, t); f != nil {
			return f
		}
	}

	return m.NewConstExpr(BitCast, v, t)
}

// BitCastFold folds a lossless bit-cast of a literal constant to type
// t, or returns nil when the cast is not lossless or not foldable.
func (m *Module) BitCastFold(c *Const, t *tp.Type) *Const {
	if c.Typ == t {
		return c
	}
	if c.Kind == ConstExpr {
		return nil
	}

	from, to := c.Typ.Kind(), t.Kind()

	scalar := func(k tp.Kind) (int, bool) {
		switch k {
		case tp.Int:
			return 0, true // width taken from Bits
		case tp.Float:
			return 32, true
		case tp.Double:
			return 64, true
		case tp.X86FP80:
			return 80, true
		case tp.FP128, tp.PPCFP128:
			return 128, true
		}

		return 0, false
	}

	width := func(ty *tp.Type) (int, bool) {
		w, ok := scalar(ty.Kind())
		if !ok {
			return 0, false
		}
		if ty.Kind() == tp.Int {
			w = ty.Bits()
		}

		return w, true
	}

	if from == tp.Ptr && to == tp.Ptr {
		// Same-width pointer reinterpretation preserves null only.
		if c.Kind == ConstNull && c.Typ.AddrSpace() == t.AddrSpace() {
			return m.Null(t)
		}

		return nil
	}

	wf, ok1 := width(c.Typ)
	wt, ok2 := width(t)
	if !ok1 || !ok2 || wf != wt {
		return nil
	}

	switch c.Kind {
	case ConstInt, ConstFloat:
		if to == tp.Int {
			return m.ConstInt(t, c.Val)
		}

		return m.ConstFloat(t, c.Val)
	case ConstUndef:
		return m.Undef(t)
	}

	return nil
}
