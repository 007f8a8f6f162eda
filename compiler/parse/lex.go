package parse

import (
	"strconv"

	"tlog.app/go/errors"

	"github.com/rilllang/rill/compiler/tp"
)

// space skips whitespace and ; comments.
func (p *parser) space() {
	for p.i < len(p.b) {
		switch p.b[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		case ';':
			p.skipLine()
		default:
			return
		}
	}
}

func (p *parser) skipLine() {
	for p.i < len(p.b) && p.b[p.i] != '\n' {
		p.i++
	}
}

// eat consumes c, skipping leading space.
func (p *parser) eat(c byte) bool {
	p.space()
	return p.eatRaw(c)
}

func (p *parser) eatRaw(c byte) bool {
	if p.i < len(p.b) && p.b[p.i] == c {
		p.i++
		return true
	}

	return false
}

func (p *parser) has(s string) bool {
	return p.i+len(s) <= len(p.b) && string(p.b[p.i:p.i+len(s)]) == s
}

func isIdent(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.'
}

func (p *parser) ident() string {
	st := p.i

	for p.i < len(p.b) && isIdent(p.b[p.i]) {
		p.i++
	}

	return string(p.b[st:p.i])
}

func (p *parser) global() (string, error) {
	if !p.eat('@') {
		return "", errors.New("@name expected")
	}

	n := p.ident()
	if n == "" {
		return "", errors.New("empty global name")
	}

	return n, nil
}

func (p *parser) str() (string, error) {
	if !p.eatRaw('"') {
		return "", errors.New("string expected")
	}

	st := p.i

	for p.i < len(p.b) && p.b[p.i] != '"' {
		p.i++
	}

	if p.i == len(p.b) {
		return "", errors.New("unterminated string")
	}

	s := string(p.b[st:p.i])
	p.i++

	return s, nil
}

func (p *parser) num() (string, error) {
	p.space()

	st := p.i

	if p.i < len(p.b) && p.b[p.i] == '-' {
		p.i++
	}
	if p.i+1 < len(p.b) && p.b[p.i] == '0' && (p.b[p.i+1] == 'x' || p.b[p.i+1] == 'X') {
		p.i += 2
	}

	for p.i < len(p.b) && (p.b[p.i] >= '0' && p.b[p.i] <= '9' ||
		p.b[p.i] >= 'a' && p.b[p.i] <= 'f' || p.b[p.i] >= 'A' && p.b[p.i] <= 'F') {
		p.i++
	}

	if p.i == st {
		return "", errors.New("number expected")
	}

	return string(p.b[st:p.i]), nil
}

func (p *parser) uint() (uint64, error) {
	s, err := p.num()
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.Wrap(err, "number %q", s)
	}

	return n, nil
}

func (p *parser) int() (uint64, error) {
	s, err := p.num()
	if err != nil {
		return 0, err
	}

	if len(s) != 0 && s[0] == '-' {
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, errors.Wrap(err, "number %q", s)
		}

		return uint64(n), nil
	}

	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.Wrap(err, "number %q", s)
	}

	return n, nil
}

// typeStart reports whether the identifier begins a type.
func (p *parser) typeStart(w string) bool {
	switch w {
	case "void", "label", "md", "f32", "f64", "f80", "f128", "ppcf128",
		"ptr", "vec", "arr", "fn", "packed":
		return true
	}

	if len(w) >= 2 && w[0] == 'i' {
		for _, c := range w[1:] {
			if c < '0' || c > '9' {
				return false
			}
		}

		return true
	}

	return false
}

func (p *parser) typ() (*tp.Type, error) {
	tc := p.m.Types

	p.space()

	if p.eatRaw('{') {
		return p.structType(false)
	}

	w := p.ident()

	switch w {
	case "void":
		return tc.Void(), nil
	case "label":
		return tc.Label(), nil
	case "md":
		return tc.Metadata(), nil
	case "f32":
		return tc.Float(), nil
	case "f64":
		return tc.Double(), nil
	case "f80":
		return tc.X86FP80(), nil
	case "f128":
		return tc.FP128(), nil
	case "ppcf128":
		return tc.PPCFP128(), nil
	case "packed":
		if !p.eatRaw('{') {
			return nil, errors.New("{ expected after packed")
		}

		return p.structType(true)
	case "ptr":
		if !p.eat('(') {
			return nil, errors.New("( expected after ptr")
		}

		el, err := p.typ()
		if err != nil {
			return nil, errors.Wrap(err, "ptr elem")
		}

		space := 0

		if p.eat(',') {
			n, err := p.uint()
			if err != nil {
				return nil, err
			}

			space = int(n)
		}

		if !p.eat(')') {
			return nil, errors.New(") expected")
		}

		return tc.Ptr(el, space), nil
	case "vec", "arr":
		if !p.eat('(') {
			return nil, errors.New("( expected after %v", w)
		}

		n, err := p.uint()
		if err != nil {
			return nil, err
		}

		if !p.eat(',') {
			return nil, errors.New(", expected")
		}

		el, err := p.typ()
		if err != nil {
			return nil, errors.Wrap(err, "%v elem", w)
		}

		if !p.eat(')') {
			return nil, errors.New(") expected")
		}

		if w == "vec" {
			return tc.Vec(int(n), el), nil
		}

		return tc.Array(int(n), el), nil
	case "fn":
		if !p.eat('(') {
			return nil, errors.New("( expected after fn")
		}

		var params []*tp.Type

		variadic := false

		for !p.eat(')') {
			if len(params) != 0 || variadic {
				if !p.eat(',') {
					return nil, errors.New(", or ) expected")
				}
			}

			p.space()

			if p.has("...") {
				p.i += 3
				variadic = true

				continue
			}

			el, err := p.typ()
			if err != nil {
				return nil, errors.Wrap(err, "fn param")
			}

			params = append(params, el)
		}

		ret := tc.Void()

		save := p.i
		p.space()

		if j := p.i; j < len(p.b) && (isIdent(p.b[j]) || p.b[j] == '{') {
			w2 := p.peekIdent()
			if p.b[j] == '{' || p.typeStart(w2) {
				r, err := p.typ()
				if err != nil {
					return nil, errors.Wrap(err, "fn ret")
				}

				ret = r
			} else {
				p.i = save
			}
		} else {
			p.i = save
		}

		return tc.Func(ret, params, variadic), nil
	}

	if len(w) >= 2 && w[0] == 'i' {
		n, err := strconv.Atoi(w[1:])
		if err == nil {
			return tc.Int(n), nil
		}
	}

	return nil, errors.New("type expected, got %q", w)
}

func (p *parser) peekIdent() string {
	st := p.i
	w := p.ident()
	p.i = st

	return w
}

func (p *parser) structType(packed bool) (*tp.Type, error) {
	var fields []*tp.Type

	for !p.eat('}') {
		if len(fields) != 0 && !p.eat(',') {
			return nil, errors.New(", or } expected")
		}

		f, err := p.typ()
		if err != nil {
			return nil, errors.Wrap(err, "field")
		}

		fields = append(fields, f)
	}

	return p.m.Types.Struct(packed, fields...), nil
}
