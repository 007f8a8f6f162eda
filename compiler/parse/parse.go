package parse

import (
	"tlog.app/go/errors"

	"github.com/rilllang/rill/compiler/ir"
	"github.com/rilllang/rill/compiler/tp"
)

type (
	parser struct {
		b []byte
		i int

		m *ir.Module

		bodies   []body
		aliasDef []aliasDef
	}

	body struct {
		fn *ir.Func
		at int
	}

	aliasDef struct {
		al *ir.Alias
		at int
	}

	// funcState is the per-function resolution state: named locals,
	// labels, and operands referring to things defined further down.
	funcState struct {
		fn     *ir.Func
		locals map[string]ir.Value
		blocks map[string]*ir.Block
		fixups []fixup
	}

	fixup struct {
		x     *ir.Instr
		arg   int
		name  string
		block bool
	}
)

// Module reads the textual IR in text into a fresh module.
func Module(name string, text []byte) (*ir.Module, error) {
	p := &parser{
		b: text,
		m: ir.NewModule(name),
	}

	err := p.scanTop()
	if err != nil {
		return nil, errors.Wrap(err, "at offset %d", p.i)
	}

	err = p.parseBodies()
	if err != nil {
		return nil, errors.Wrap(err, "at offset %d", p.i)
	}

	return p.m, nil
}

// scanTop parses every function header and alias head, creating the
// globals so bodies can refer to them in any order. Bodies are only
// located, not parsed.
func (p *parser) scanTop() error {
	for {
		p.space()

		if p.i == len(p.b) {
			return nil
		}

		switch kw := p.ident(); kw {
		case "func":
			err := p.scanFunc()
			if err != nil {
				return errors.Wrap(err, "func")
			}
		case "alias":
			err := p.scanAlias()
			if err != nil {
				return errors.Wrap(err, "alias")
			}
		default:
			return errors.New("func or alias expected, got %q", kw)
		}
	}
}

func (p *parser) scanFunc() error {
	name, err := p.global()
	if err != nil {
		return err
	}

	if !p.eat('(') {
		return errors.New("( expected")
	}

	var ptypes []*tp.Type
	var pnames []string

	variadic := false

	for !p.eat(')') {
		if len(ptypes) != 0 && !p.eat(',') {
			return errors.New(", or ) expected")
		}

		p.space()

		if p.has("...") {
			p.i += 3
			variadic = true

			continue
		}

		t, err := p.typ()
		if err != nil {
			return errors.Wrap(err, "param type")
		}

		pn := ""

		p.space()
		if p.eat('%') {
			pn = p.ident()
		}

		ptypes = append(ptypes, t)
		pnames = append(pnames, pn)
	}

	ret, err := p.typ()
	if err != nil {
		return errors.Wrap(err, "return type")
	}

	f := p.m.NewFunc(name, p.m.Types.Func(ret, ptypes, variadic), ir.External)

	for i, pn := range pnames {
		f.In[i].Name = pn
	}

	err = p.funcAttrs(f)
	if err != nil {
		return errors.Wrap(err, "attrs")
	}

	p.space()

	if p.eat('{') {
		p.bodies = append(p.bodies, body{fn: f, at: p.i})

		depth := 1
		for p.i < len(p.b) && depth != 0 {
			switch p.b[p.i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			p.i++
		}

		if depth != 0 {
			return errors.New("unbalanced body of @%v", name)
		}
	}

	return nil
}

func (p *parser) scanAlias() error {
	name, err := p.global()
	if err != nil {
		return err
	}

	link := ir.External

	p.space()
	if p.eat('[') {
		l, ok := ir.LinkageByName(p.ident())
		if !ok || !p.eat(']') {
			return errors.New("linkage expected")
		}

		link = l
	}

	if !p.eat('=') {
		return errors.New("= expected")
	}

	p.space()

	a := p.m.AddAlias(name, nil, link, nil)
	p.aliasDef = append(p.aliasDef, aliasDef{al: a, at: p.i})

	p.skipLine()

	return nil
}

func (p *parser) parseBodies() error {
	for _, d := range p.aliasDef {
		p.i = d.at

		v, err := p.operand(nil)
		if err != nil {
			return errors.Wrap(err, "alias @%v", d.al.Name)
		}

		d.al.Typ = v.Type()
		d.al.Target = v
	}

	for _, bd := range p.bodies {
		p.i = bd.at

		err := p.parseBody(bd.fn)
		if err != nil {
			return errors.Wrap(err, "func @%v", bd.fn.Name)
		}
	}

	return nil
}

func (p *parser) parseBody(f *ir.Func) error {
	st := &funcState{
		fn:     f,
		locals: map[string]ir.Value{},
		blocks: map[string]*ir.Block{},
	}

	for _, pr := range f.In {
		if pr.Name != "" {
			st.locals[pr.Name] = pr
		}
	}

	var blk *ir.Block

	for {
		p.space()

		if p.eat('}') {
			break
		}

		// A label opens the next block.
		if j := p.labelAhead(); j >= 0 {
			name := string(p.b[p.i:j])
			p.i = j + 1

			blk = st.block(name)

			continue
		}

		if blk == nil {
			return errors.New("instruction outside a block")
		}

		err := p.instr(st, blk)
		if err != nil {
			return errors.Wrap(err, "block %v", blk.Name)
		}
	}

	for _, fx := range st.fixups {
		var v ir.Value

		if fx.block {
			b, ok := st.blocks[fx.name]
			if !ok {
				return errors.New("undefined label %%%v", fx.name)
			}

			v = b
		} else {
			lv, ok := st.locals[fx.name]
			if !ok {
				return errors.New("undefined value %%%v", fx.name)
			}

			v = lv
		}

		fx.x.Args[fx.arg] = v
	}

	return nil
}

func (st *funcState) block(name string) *ir.Block {
	if b, ok := st.blocks[name]; ok {
		return b
	}

	b := st.fn.NewBlock(name)
	st.blocks[name] = b

	return b
}

// labelAhead reports the position of the ':' if the line ahead is a
// block label, -1 otherwise.
func (p *parser) labelAhead() int {
	j := p.i

	for j < len(p.b) && isIdent(p.b[j]) {
		j++
	}

	if j > p.i && j < len(p.b) && p.b[j] == ':' {
		return j
	}

	return -1
}

func (p *parser) instr(st *funcState, blk *ir.Block) error {
	x := &ir.Instr{}

	p.space()

	if p.eat('%') {
		x.Name = p.ident()

		if !p.eat('=') {
			return errors.New("= expected after %%%v", x.Name)
		}

		p.space()
	}

	opname := p.ident()

	op, ok := ir.OpByName(opname)
	if !ok {
		return errors.New("unknown instruction %q", opname)
	}

	x.Op = op

	err := p.mods(x)
	if err != nil {
		return errors.Wrap(err, "%v", opname)
	}

	x.Typ, err = p.typ()
	if err != nil {
		return errors.Wrap(err, "%v: result type", opname)
	}

	for {
		p.space()
		if !p.eat(',') {
			break
		}

		err = p.operandOf(st, x)
		if err != nil {
			return errors.Wrap(err, "%v: operand %d", opname, len(x.Args)-1)
		}
	}

	if x.Op == ir.Br && len(x.Args) == 3 {
		x.Op = ir.CondBr
	}

	blk.Push(x)

	if x.Name != "" {
		st.locals[x.Name] = x
	}

	return nil
}

// mods consumes the modifier tokens between the opcode and the result
// type: flag bits, predicates, orderings and the k=v attributes.
func (p *parser) mods(x *ir.Instr) error {
	sawOrd := false

	for {
		p.space()

		save := p.i
		w := p.ident()

		if w == "" {
			return nil
		}

		if p.typeStart(w) {
			p.i = save
			return nil
		}

		switch w {
		case "nuw":
			x.Opt |= ir.OptNUW
			continue
		case "nsw":
			x.Opt |= ir.OptNSW
			continue
		case "exact":
			x.Opt |= ir.OptExact
			continue
		case "fast":
			x.Opt |= ir.OptFast
			continue
		case "tail":
			x.Opt |= ir.OptTail
			continue
		case "volatile":
			x.Volatile = true
			continue
		}

		if o, ok := ir.OrdByName(w); ok {
			if !sawOrd {
				x.Ord = o
				x.Scope = ir.ScopeSystem
				sawOrd = true
			} else {
				x.Ord2 = o
			}

			continue
		}

		if x.Op == ir.AtomicRMW {
			if k, ok := ir.RMWByName(w); ok {
				x.RMW = k
				continue
			}
		}

		if x.Op == ir.ICmp || x.Op == ir.FCmp {
			if pr, ok := ir.PredByName(w); ok {
				x.Pred = pr
				continue
			}
		}

		if p.eat('=') {
			switch w {
			case "scope":
				n, err := p.uint()
				if err != nil {
					return err
				}

				x.Scope = ir.SyncScope(n)
			case "align":
				n, err := p.uint()
				if err != nil {
					return err
				}

				x.Align = uint32(n)
			case "cc":
				n, err := p.uint()
				if err != nil {
					return err
				}

				x.CC = ir.CallConv(n)
			case "attrs":
				n, err := p.uint()
				if err != nil {
					return err
				}

				x.Attrs = ir.AttrSet(n)
			case "idx":
				for {
					n, err := p.uint()
					if err != nil {
						return err
					}

					x.Index = append(x.Index, uint32(n))

					if !p.eatRaw(',') {
						break
					}
				}
			default:
				return errors.New("unknown attribute %q", w)
			}

			continue
		}

		return errors.New("unexpected token %q", w)
	}
}

// operandOf parses one typed operand into x.Args, recording a fixup
// when it refers forward.
func (p *parser) operandOf(st *funcState, x *ir.Instr) error {
	arg := len(x.Args)
	x.Args = append(x.Args, nil)

	v, err := p.typedValue(st, func(name string, block bool) {
		st.fixups = append(st.fixups, fixup{x: x, arg: arg, name: name, block: block})
	})
	if err != nil {
		return err
	}

	x.Args[arg] = v

	return nil
}

// operand parses a typed operand that may only refer to globals and
// constants, for alias targets.
func (p *parser) operand(st *funcState) (ir.Value, error) {
	return p.typedValue(st, nil)
}

func (p *parser) typedValue(st *funcState, pend func(name string, block bool)) (ir.Value, error) {
	t, err := p.typ()
	if err != nil {
		return nil, err
	}

	p.space()

	if p.eat('%') {
		name := p.ident()

		if t.Kind() == tp.Label {
			if st == nil {
				return nil, errors.New("label outside function")
			}
			if b, ok := st.blocks[name]; ok {
				return b, nil
			}

			pend(name, true)

			return nil, nil
		}

		if st == nil {
			return nil, errors.New("local outside function")
		}

		if v, ok := st.locals[name]; ok {
			return v, nil
		}

		pend(name, false)

		return nil, nil
	}

	if p.eat('@') {
		return p.globalRef(p.ident())
	}

	save := p.i
	w := p.ident()

	switch w {
	case "null":
		return p.m.Null(t), nil
	case "undef":
		return p.m.Undef(t), nil
	case "asm":
		if !p.eat('(') {
			return nil, errors.New("( expected after asm")
		}

		s1, err := p.str()
		if err != nil {
			return nil, err
		}

		if !p.eat(',') {
			return nil, errors.New(", expected")
		}
		p.space()

		s2, err := p.str()
		if err != nil {
			return nil, err
		}

		if !p.eat(')') {
			return nil, errors.New(") expected")
		}

		return &ir.InlineAsm{Typ: t, Asm: s1, Constraints: s2}, nil
	case "bitcast", "inttoptr", "ptrtoint":
		op := map[string]ir.Op{"bitcast": ir.BitCast, "inttoptr": ir.IntToPtr, "ptrtoint": ir.PtrToInt}[w]

		if !p.eat('(') {
			return nil, errors.New("( expected after %v", w)
		}

		p.space()

		var inner ir.Value

		if p.eat('@') {
			inner, err = p.globalRef(p.ident())
		} else {
			inner, err = p.typedValue(nil, nil)
		}
		if err != nil {
			return nil, err
		}

		if !p.eat(')') {
			return nil, errors.New(") expected")
		}

		return p.m.NewConstExpr(op, inner, t), nil
	}

	p.i = save

	n, err := p.int()
	if err != nil {
		return nil, errors.Wrap(err, "constant")
	}

	switch t.Kind() {
	case tp.Float, tp.Double, tp.X86FP80, tp.FP128, tp.PPCFP128:
		return p.m.ConstFloat(t, n), nil
	default:
		return p.m.ConstInt(t, n), nil
	}
}

func (p *parser) globalRef(name string) (ir.Value, error) {
	if f := p.m.FuncNamed(name); f != nil {
		return f, nil
	}

	for _, a := range p.m.Aliases {
		if a.Name == name {
			return a, nil
		}
	}

	return nil, errors.New("undefined global @%v", name)
}

func (p *parser) funcAttrs(f *ir.Func) error {
	p.space()

	if !p.eat('[') {
		return nil
	}

	for {
		p.space()

		w := p.ident()

		if l, ok := ir.LinkageByName(w); ok {
			f.Linkage = l
		} else {
			switch w {
			case "hidden":
				f.Visibility = ir.HiddenVis
			case "protected":
				f.Visibility = ir.ProtectedVis
			case "unnamed_addr":
				f.UnnamedAddr = true
			case "cc", "attrs", "align", "gc", "section":
				if !p.eat('=') {
					return errors.New("= expected after %v", w)
				}

				switch w {
				case "gc", "section":
					p.space()

					s, err := p.str()
					if err != nil {
						return err
					}

					if w == "gc" {
						f.GC = s
					} else {
						f.Section = s
					}
				default:
					n, err := p.uint()
					if err != nil {
						return err
					}

					switch w {
					case "cc":
						f.CC = ir.CallConv(n)
					case "attrs":
						f.Attrs = ir.AttrSet(n)
					case "align":
						f.Align = uint32(n)
					}
				}
			default:
				return errors.New("unknown function attribute %q", w)
			}
		}

		p.space()

		if p.eat(']') {
			return nil
		}
		if !p.eat(',') {
			return errors.New(", or ] expected")
		}
	}
}
