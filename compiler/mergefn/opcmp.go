package mergefn

import (
	"github.com/rilllang/rill/compiler/ir"
)

// sameOperation reports whether two instructions are the same
// operation for merging purposes: opcode, operand count, result and
// operand types up to type equivalence, optional flag bits, and the
// opcode-specific subclass data. Operand values are not compared here,
// that is enumerate's job.
func (c *funcComparator) sameOperation(x, y *ir.Instr) bool {
	if x.Op != y.Op ||
		len(x.Args) != len(y.Args) ||
		!c.equivTypes(x.Typ, y.Typ) ||
		x.Opt != y.Opt {
		return false
	}

	for i := range x.Args {
		if !c.equivTypes(x.Args[i].Type(), y.Args[i].Type()) {
			return false
		}
	}

	switch x.Op {
	case ir.Load, ir.Store:
		return x.Volatile == y.Volatile &&
			x.Align == y.Align &&
			x.Ord == y.Ord &&
			x.Scope == y.Scope
	case ir.ICmp, ir.FCmp:
		return x.Pred == y.Pred
	case ir.Call, ir.Invoke:
		return x.CC == y.CC && x.Attrs == y.Attrs
	case ir.InsertValue, ir.ExtractValue:
		if len(x.Index) != len(y.Index) {
			return false
		}

		for i := range x.Index {
			if x.Index[i] != y.Index[i] {
				return false
			}
		}

		return true
	case ir.Fence:
		return x.Ord == y.Ord && x.Scope == y.Scope
	case ir.CmpXchg:
		return x.Volatile == y.Volatile &&
			x.Ord == y.Ord &&
			x.Ord2 == y.Ord2 &&
			x.Scope == y.Scope
	case ir.AtomicRMW:
		return x.RMW == y.RMW &&
			x.Volatile == y.Volatile &&
			x.Ord == y.Ord &&
			x.Scope == y.Scope
	}

	return true
}
