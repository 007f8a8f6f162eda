package format

import (
	"fmt"

	"github.com/rilllang/rill/compiler/ir"
	"github.com/rilllang/rill/compiler/tp"
)

// Module renders m in the textual form compiler/parse reads back.
func Module(b []byte, m *ir.Module) []byte {
	for i, f := range m.Funcs {
		if i != 0 {
			b = append(b, '\n')
		}

		b = appendFunc(b, f)
	}

	for _, a := range m.Aliases {
		b = appendAlias(b, a)
	}

	return b
}

func appendFunc(b []byte, f *ir.Func) []byte {
	names := valueNames(f)

	b = fmt.Appendf(b, "func @%s(", f.Name)

	for i, p := range f.In {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = fmt.Appendf(b, "%v %%%s", p.Typ, names[p])
	}

	if f.Sig.Variadic() {
		if len(f.In) != 0 {
			b = append(b, ", "...)
		}

		b = append(b, "..."...)
	}

	b = fmt.Appendf(b, ") %v", f.Sig.Ret())

	b = appendFuncAttrs(b, f)

	if f.IsDeclaration() {
		return append(b, '\n')
	}

	b = append(b, " {\n"...)

	for _, blk := range f.Blocks {
		b = fmt.Appendf(b, "%s:\n", blockName(blk))

		for _, x := range blk.Code {
			b = appendInstr(b, x, names)
		}
	}

	b = append(b, "}\n"...)

	return b
}

func appendFuncAttrs(b []byte, f *ir.Func) []byte {
	var attrs []string

	if f.Linkage != ir.External {
		attrs = append(attrs, f.Linkage.String())
	}
	if f.Visibility == ir.HiddenVis {
		attrs = append(attrs, "hidden")
	}
	if f.Visibility == ir.ProtectedVis {
		attrs = append(attrs, "protected")
	}
	if f.CC != ir.CCC {
		attrs = append(attrs, fmt.Sprintf("cc=%d", f.CC))
	}
	if f.Attrs != 0 {
		attrs = append(attrs, fmt.Sprintf("attrs=%#x", uint64(f.Attrs)))
	}
	if f.Align != 0 {
		attrs = append(attrs, fmt.Sprintf("align=%d", f.Align))
	}
	if f.GC != "" {
		attrs = append(attrs, fmt.Sprintf("gc=%q", f.GC))
	}
	if f.Section != "" {
		attrs = append(attrs, fmt.Sprintf("section=%q", f.Section))
	}
	if f.UnnamedAddr {
		attrs = append(attrs, "unnamed_addr")
	}

	if len(attrs) == 0 {
		return b
	}

	b = append(b, " ["...)

	for i, a := range attrs {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = append(b, a...)
	}

	return append(b, ']')
}

func appendAlias(b []byte, a *ir.Alias) []byte {
	b = fmt.Appendf(b, "alias @%s", a.Name)

	if a.Linkage != ir.External {
		b = fmt.Appendf(b, " [%v]", a.Linkage)
	}

	b = append(b, " = "...)
	b = appendOperand(b, a.Target, nil)

	return append(b, '\n')
}

func appendInstr(b []byte, x *ir.Instr, names map[ir.Value]string) []byte {
	b = append(b, '\t')

	if hasResult(x) {
		b = fmt.Appendf(b, "%%%s = ", names[x])
	}

	b = append(b, x.Op.String()...)

	b = appendInstrMods(b, x)

	b = fmt.Appendf(b, " %v", x.Typ)

	for _, a := range x.Args {
		b = append(b, ", "...)
		b = appendOperand(b, a, names)
	}

	return append(b, '\n')
}

func appendInstrMods(b []byte, x *ir.Instr) []byte {
	for _, f := range []struct {
		bit ir.OptFlags
		n   string
	}{
		{ir.OptNUW, "nuw"}, {ir.OptNSW, "nsw"}, {ir.OptExact, "exact"},
		{ir.OptFast, "fast"}, {ir.OptTail, "tail"},
	} {
		if x.Opt&f.bit != 0 {
			b = fmt.Appendf(b, " %s", f.n)
		}
	}

	switch x.Op {
	case ir.ICmp, ir.FCmp:
		b = fmt.Appendf(b, " %v", x.Pred)
	case ir.AtomicRMW:
		b = fmt.Appendf(b, " %v", x.RMW)
	}

	if x.Volatile {
		b = append(b, " volatile"...)
	}

	if x.Ord != ir.OrdNone {
		b = fmt.Appendf(b, " %v", x.Ord)
	}
	if x.Op == ir.CmpXchg && x.Ord2 != ir.OrdNone {
		b = fmt.Appendf(b, " %v", x.Ord2)
	}
	if x.Ord != ir.OrdNone && x.Scope != ir.ScopeSystem {
		b = fmt.Appendf(b, " scope=%d", x.Scope)
	}

	if x.Align != 0 {
		b = fmt.Appendf(b, " align=%d", x.Align)
	}

	switch x.Op {
	case ir.Call, ir.Invoke:
		if x.CC != ir.CCC {
			b = fmt.Appendf(b, " cc=%d", x.CC)
		}
		if x.Attrs != 0 {
			b = fmt.Appendf(b, " attrs=%#x", uint64(x.Attrs))
		}
	case ir.ExtractValue, ir.InsertValue:
		b = append(b, " idx="...)

		for i, v := range x.Index {
			if i != 0 {
				b = append(b, ',')
			}

			b = fmt.Appendf(b, "%d", v)
		}
	}

	return b
}

func appendOperand(b []byte, v ir.Value, names map[ir.Value]string) []byte {
	switch v := v.(type) {
	case *ir.Block:
		return fmt.Appendf(b, "label %%%s", blockName(v))
	case *ir.Func:
		return fmt.Appendf(b, "%v @%s", v.Type(), v.Name)
	case *ir.Alias:
		return fmt.Appendf(b, "%v @%s", v.Typ, v.Name)
	case *ir.Const:
		return appendConst(b, v)
	case *ir.InlineAsm:
		return fmt.Appendf(b, "%v asm(%q, %q)", v.Typ, v.Asm, v.Constraints)
	default:
		return fmt.Appendf(b, "%v %%%s", v.Type(), names[v])
	}
}

func appendConst(b []byte, c *ir.Const) []byte {
	b = fmt.Appendf(b, "%v ", c.Typ)

	switch c.Kind {
	case ir.ConstInt:
		return fmt.Appendf(b, "%d", int64(c.Val))
	case ir.ConstFloat:
		return fmt.Appendf(b, "%#x", c.Val)
	case ir.ConstNull:
		return append(b, "null"...)
	case ir.ConstUndef:
		return append(b, "undef"...)
	case ir.ConstExpr:
		b = fmt.Appendf(b, "%v(", c.Op)
		b = appendConstExprArg(b, c.X)

		return append(b, ')')
	default:
		panic(c.Kind)
	}
}

func appendConstExprArg(b []byte, v ir.Value) []byte {
	switch v := v.(type) {
	case *ir.Func:
		return fmt.Appendf(b, "@%s", v.Name)
	case *ir.Alias:
		return fmt.Appendf(b, "@%s", v.Name)
	case *ir.Const:
		return appendConst(b, v)
	default:
		panic(v)
	}
}

func hasResult(x *ir.Instr) bool {
	switch x.Op {
	case ir.Store, ir.Fence, ir.Ret, ir.Br, ir.CondBr, ir.Switch, ir.Unreachable:
		return false
	}

	return x.Typ.Kind() != tp.Void
}

func blockName(b *ir.Block) string {
	if b.Name != "" {
		return b.Name
	}

	return fmt.Sprintf("b%d", b.Index)
}

// valueNames assigns printable names to params and instruction
// results, keeping explicit names and numbering the rest.
func valueNames(f *ir.Func) map[ir.Value]string {
	names := map[ir.Value]string{}
	next := 0

	name := func(v ir.Value, given string) {
		if given != "" {
			names[v] = given
			return
		}

		names[v] = fmt.Sprintf("v%d", next)
		next++
	}

	for _, p := range f.In {
		name(p, p.Name)
	}

	for _, blk := range f.Blocks {
		for _, x := range blk.Code {
			if hasResult(x) {
				name(x, x.Name)
			}
		}
	}

	return names
}
