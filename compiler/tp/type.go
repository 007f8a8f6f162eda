package tp

import (
	"fmt"
	"strings"
)

type (
	Kind int

	// Type is an interned type handle. Two structurally equal types
	// created through the same Context are the same pointer, and every
	// handle carries a stable sequence number usable as identity.
	Type struct {
		kind Kind
		id   int

		bits  int
		space int

		elem  *Type
		count int

		fields []*Type
		packed bool

		ret      *Type
		params   []*Type
		variadic bool
	}

	Context struct {
		byKey map[string]*Type
		seq   int
	}
)

const (
	Void Kind = iota
	Float
	Double
	X86FP80
	FP128
	PPCFP128
	Label
	Metadata
	Int
	Func
	Struct
	Array
	Ptr
	Vec
)

func NewContext() *Context {
	return &Context{
		byKey: map[string]*Type{},
	}
}

func (c *Context) intern(key string, mk func() *Type) *Type {
	if t, ok := c.byKey[key]; ok {
		return t
	}

	t := mk()
	t.id = c.seq
	c.seq++

	c.byKey[key] = t

	return t
}

func (c *Context) simple(k Kind, key string) *Type {
	return c.intern(key, func() *Type { return &Type{kind: k} })
}

func (c *Context) Void() *Type     { return c.simple(Void, "void") }
func (c *Context) Float() *Type    { return c.simple(Float, "f32") }
func (c *Context) Double() *Type   { return c.simple(Double, "f64") }
func (c *Context) X86FP80() *Type  { return c.simple(X86FP80, "f80") }
func (c *Context) FP128() *Type    { return c.simple(FP128, "f128") }
func (c *Context) PPCFP128() *Type { return c.simple(PPCFP128, "ppcf128") }
func (c *Context) Label() *Type    { return c.simple(Label, "label") }
func (c *Context) Metadata() *Type { return c.simple(Metadata, "md") }

func (c *Context) Int(bits int) *Type {
	return c.intern(fmt.Sprintf("i%d", bits), func() *Type {
		return &Type{kind: Int, bits: bits}
	})
}

func (c *Context) Ptr(elem *Type, space int) *Type {
	return c.intern(fmt.Sprintf("p%d:%d", space, elem.id), func() *Type {
		return &Type{kind: Ptr, elem: elem, space: space}
	})
}

func (c *Context) Vec(count int, elem *Type) *Type {
	return c.intern(fmt.Sprintf("v%d:%d", count, elem.id), func() *Type {
		return &Type{kind: Vec, elem: elem, count: count}
	})
}

func (c *Context) Array(count int, elem *Type) *Type {
	return c.intern(fmt.Sprintf("a%d:%d", count, elem.id), func() *Type {
		return &Type{kind: Array, elem: elem, count: count}
	})
}

func (c *Context) Struct(packed bool, fields ...*Type) *Type {
	var key strings.Builder

	key.WriteByte('s')
	if packed {
		key.WriteByte('p')
	}

	for _, f := range fields {
		fmt.Fprintf(&key, ":%d", f.id)
	}

	return c.intern(key.String(), func() *Type {
		return &Type{kind: Struct, fields: append([]*Type{}, fields...), packed: packed}
	})
}

func (c *Context) Func(ret *Type, params []*Type, variadic bool) *Type {
	var key strings.Builder

	fmt.Fprintf(&key, "f%d", ret.id)
	if variadic {
		key.WriteByte('v')
	}

	for _, p := range params {
		fmt.Fprintf(&key, ":%d", p.id)
	}

	return c.intern(key.String(), func() *Type {
		return &Type{kind: Func, ret: ret, params: append([]*Type{}, params...), variadic: variadic}
	})
}

func (t *Type) Kind() Kind     { return t.kind }
func (t *Type) ID() int        { return t.id }
func (t *Type) Bits() int      { return t.bits }
func (t *Type) AddrSpace() int { return t.space }
func (t *Type) Elem() *Type    { return t.elem }
func (t *Type) Len() int       { return t.count }

func (t *Type) NumFields() int    { return len(t.fields) }
func (t *Type) Field(i int) *Type { return t.fields[i] }
func (t *Type) Packed() bool      { return t.packed }

func (t *Type) Ret() *Type        { return t.ret }
func (t *Type) NumParams() int    { return len(t.params) }
func (t *Type) Param(i int) *Type { return t.params[i] }
func (t *Type) Variadic() bool    { return t.variadic }

func (t *Type) String() string {
	switch t.kind {
	case Void:
		return "void"
	case Float:
		return "f32"
	case Double:
		return "f64"
	case X86FP80:
		return "f80"
	case FP128:
		return "f128"
	case PPCFP128:
		return "ppcf128"
	case Label:
		return "label"
	case Metadata:
		return "md"
	case Int:
		return fmt.Sprintf("i%d", t.bits)
	case Ptr:
		if t.space == 0 {
			return fmt.Sprintf("ptr(%v)", t.elem)
		}

		return fmt.Sprintf("ptr(%v, %d)", t.elem, t.space)
	case Vec:
		return fmt.Sprintf("vec(%d, %v)", t.count, t.elem)
	case Array:
		return fmt.Sprintf("arr(%d, %v)", t.count, t.elem)
	case Struct:
		var b strings.Builder

		if t.packed {
			b.WriteString("packed")
		}

		b.WriteByte('{')

		for i, f := range t.fields {
			if i != 0 {
				b.WriteString(", ")
			}

			b.WriteString(f.String())
		}

		b.WriteByte('}')

		return b.String()
	case Func:
		var b strings.Builder

		b.WriteString("fn(")

		for i, p := range t.params {
			if i != 0 {
				b.WriteString(", ")
			}

			b.WriteString(p.String())
		}

		if t.variadic {
			if len(t.params) != 0 {
				b.WriteString(", ")
			}

			b.WriteString("...")
		}

		b.WriteByte(')')

		if t.ret.kind != Void {
			b.WriteByte(' ')
			b.WriteString(t.ret.String())
		}

		return b.String()
	default:
		panic(t.kind)
	}
}
