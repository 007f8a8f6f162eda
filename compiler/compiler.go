package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/rilllang/rill/compiler/format"
	"github.com/rilllang/rill/compiler/ir"
	"github.com/rilllang/rill/compiler/layout"
	"github.com/rilllang/rill/compiler/mergefn"
	"github.com/rilllang/rill/compiler/parse"
)

func LoadFile(ctx context.Context, name string) (*ir.Module, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Load(ctx, name, text)
}

func Load(ctx context.Context, name string, text []byte) (*ir.Module, error) {
	m, err := parse.Module(name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse module")
	}

	return m, nil
}

// Merge runs function merging over m and renders the result.
// ptrBits == 0 runs without a layout oracle.
func Merge(ctx context.Context, m *ir.Module, aliases bool, ptrBits int) (obj []byte, stats mergefn.Stats, changed bool) {
	if ptrBits != 0 {
		m.Layout = layout.New(ptrBits)
	}

	p := &mergefn.Pass{
		Aliases: aliases,
	}

	changed = p.Run(ctx, m)

	return format.Module(nil, m), p.Stats, changed
}
