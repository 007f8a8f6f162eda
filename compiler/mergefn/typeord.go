package mergefn

import (
	"github.com/rilllang/rill/compiler/tp"
)

func cmpNumbers(l, r int64) int {
	if l < r {
		return -1
	}
	if l > r {
		return 1
	}

	return 0
}

// cmpTypes defines a total order over types, with equality being the
// equivalence the whole pass is built on: with a layout available,
// address-space-0 pointers are coerced to the pointer-sized integer
// before anything else, so a pointer and an integer of pointer width
// land in the same class.
func (c *funcComparator) cmpTypes(l, r *tp.Type) int {
	if dl := c.lay; dl != nil {
		if l.Kind() == tp.Ptr && l.AddrSpace() == 0 {
			l = dl.IntPtr(c.tc, 0)
		}
		if r.Kind() == tp.Ptr && r.AddrSpace() == 0 {
			r = dl.IntPtr(c.tc, 0)
		}
	}

	if l == r {
		return 0
	}

	if res := cmpNumbers(int64(l.Kind()), int64(r.Kind())); res != 0 {
		return res
	}

	switch l.Kind() {
	case tp.Int, tp.Vec:
		// Equal handles returned above, distinct handles of these kinds
		// are distinct types. Order by handle identity.
		return cmpNumbers(int64(l.ID()), int64(r.ID()))

	case tp.Void, tp.Float, tp.Double, tp.X86FP80, tp.FP128, tp.PPCFP128, tp.Label, tp.Metadata:
		return 0

	case tp.Ptr:
		return cmpNumbers(int64(l.AddrSpace()), int64(r.AddrSpace()))

	case tp.Struct:
		if res := cmpNumbers(int64(l.NumFields()), int64(r.NumFields())); res != 0 {
			return res
		}

		if l.Packed() != r.Packed() {
			if l.Packed() {
				return 1
			}

			return -1
		}

		for i := 0; i < l.NumFields(); i++ {
			if res := c.cmpTypes(l.Field(i), r.Field(i)); res != 0 {
				return res
			}
		}

		return 0

	case tp.Func:
		if res := cmpNumbers(int64(l.NumParams()), int64(r.NumParams())); res != 0 {
			return res
		}

		if l.Variadic() != r.Variadic() {
			if l.Variadic() {
				return 1
			}

			return -1
		}

		if res := c.cmpTypes(l.Ret(), r.Ret()); res != 0 {
			return res
		}

		for i := 0; i < l.NumParams(); i++ {
			if res := c.cmpTypes(l.Param(i), r.Param(i)); res != 0 {
				return res
			}
		}

		return 0

	case tp.Array:
		if res := cmpNumbers(int64(l.Len()), int64(r.Len())); res != 0 {
			return res
		}

		return c.cmpTypes(l.Elem(), r.Elem())

	default:
		bug("unknown type kind %v", l.Kind())
		return 0
	}
}

func (c *funcComparator) equivTypes(l, r *tp.Type) bool {
	return c.cmpTypes(l, r) == 0
}
