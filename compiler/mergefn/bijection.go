package mergefn

import (
	"github.com/rilllang/rill/compiler/ir"
)

// enumerate checks a value pair against the mapping built so far in
// this comparison and extends it. The mapping is a partial injection:
// once %a maps to %x, %a compared against anything else fails, and so
// does anything else compared against %x.
func (c *funcComparator) enumerate(v1, v2 ir.Value) bool {
	// The functions under comparison map to each other in either
	// direction, which accepts self and mutual recursion.
	if v1 == ir.Value(c.f1) && v2 == ir.Value(c.f2) {
		return true
	}
	if v1 == ir.Value(c.f2) && v2 == ir.Value(c.f1) {
		return true
	}

	if isConstant(v1) {
		if v1 == v2 {
			return true
		}
		if !isConstant(v2) {
			return false
		}

		c1, ok1 := v1.(*ir.Const)
		c2, ok2 := v2.(*ir.Const)
		if !ok1 || !ok2 {
			// Distinct globals, or a cast expression over one. Identity
			// is the only equality we can claim for those.
			return false
		}

		if c1.IsNull() && c2.IsNull() && c.equivTypes(c1.Typ, c2.Typ) {
			return true
		}

		// Identical bit patterns behind different types: bit-cast c2 to
		// c1's type and require the fold to land exactly on c1.
		return c.mod.BitCastFold(c2, c1.Typ) == c1
	}

	if _, ok := v1.(*ir.InlineAsm); ok {
		return v1 == v2
	}
	if _, ok := v2.(*ir.InlineAsm); ok {
		return false
	}

	if img, ok := c.fwd[v1]; ok {
		return img == v2
	}

	if _, taken := c.claimed[v2]; taken {
		return false
	}

	c.fwd[v1] = v2
	c.claimed[v2] = struct{}{}

	return true
}

// isConstant covers everything with constant identity: literals, cast
// expressions and global symbols.
func isConstant(v ir.Value) bool {
	switch v.Class() {
	case ir.ClassConst, ir.ClassFunc, ir.ClassAlias:
		return true
	}

	return false
}
