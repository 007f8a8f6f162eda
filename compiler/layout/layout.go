package layout

import (
	"github.com/rilllang/rill/compiler/tp"
)

type (
	// Layout is the target layout oracle: pointer widths per address
	// space and size/alignment of sized types.
	Layout struct {
		PtrBits int

		// SpaceBits overrides PtrBits for particular address spaces.
		SpaceBits map[int]int
	}
)

func New(ptrBits int) *Layout {
	return &Layout{PtrBits: ptrBits}
}

func (l *Layout) PointerBits(space int) int {
	if b, ok := l.SpaceBits[space]; ok {
		return b
	}

	return l.PtrBits
}

// IntPtr returns the integer type with the width of a pointer in the
// given address space.
func (l *Layout) IntPtr(tc *tp.Context, space int) *tp.Type {
	return tc.Int(l.PointerBits(space))
}

// Size returns the store size of t in bytes. ok is false for unsized
// kinds (void, label, metadata, function).
func (l *Layout) Size(t *tp.Type) (size int64, ok bool) {
	switch t.Kind() {
	case tp.Int:
		return int64(t.Bits()+7) / 8, true
	case tp.Float:
		return 4, true
	case tp.Double:
		return 8, true
	case tp.X86FP80:
		return 10, true
	case tp.FP128, tp.PPCFP128:
		return 16, true
	case tp.Ptr:
		return int64(l.PointerBits(t.AddrSpace())+7) / 8, true
	case tp.Vec, tp.Array:
		s, ok := l.AllocSize(t.Elem())
		if !ok {
			return 0, false
		}

		return s * int64(t.Len()), true
	case tp.Struct:
		if t.NumFields() == 0 {
			return 0, true
		}

		off, ok := l.FieldOffset(t, t.NumFields()-1)
		if !ok {
			return 0, false
		}

		s, ok := l.AllocSize(t.Field(t.NumFields() - 1))
		if !ok {
			return 0, false
		}

		return off + s, true
	default:
		return 0, false
	}
}

// AllocSize is the size of t rounded up to its alignment, the stride
// between consecutive array elements.
func (l *Layout) AllocSize(t *tp.Type) (int64, bool) {
	s, ok := l.Size(t)
	if !ok {
		return 0, false
	}

	a := l.Align(t)

	return (s + a - 1) / a * a, true
}

// Align is the abi alignment of t. Unsized types align to 1.
func (l *Layout) Align(t *tp.Type) int64 {
	switch t.Kind() {
	case tp.Struct:
		if t.Packed() {
			return 1
		}

		a := int64(1)

		for i := 0; i < t.NumFields(); i++ {
			if fa := l.Align(t.Field(i)); fa > a {
				a = fa
			}
		}

		return a
	case tp.Vec, tp.Array:
		return l.Align(t.Elem())
	default:
		s, ok := l.Size(t)
		if !ok {
			return 1
		}

		for a := int64(1); ; a <<= 1 {
			if a >= s || a == 16 {
				return a
			}
		}
	}
}

// FieldOffset returns the byte offset of field i of struct type st.
func (l *Layout) FieldOffset(st *tp.Type, i int) (int64, bool) {
	off := int64(0)

	for j := 0; j <= i; j++ {
		f := st.Field(j)

		if !st.Packed() {
			a := l.Align(f)
			off = (off + a - 1) / a * a
		}

		if j == i {
			return off, true
		}

		s, ok := l.Size(f)
		if !ok {
			return 0, false
		}

		off += s
	}

	return off, true
}
