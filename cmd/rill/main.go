package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/rilllang/rill/compiler"
	"github.com/rilllang/rill/compiler/format"
)

func main() {
	parseCmd := &cli.Command{
		Name:   "parse",
		Action: parseAct,
		Args:   cli.Args{},
	}

	mergeCmd := &cli.Command{
		Name:   "merge",
		Action: mergeAct,
		Args:   cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("aliases", true, "object format supports global aliases"),
			cli.NewFlag("ptr-bits", 64, "pointer width for the layout oracle, 0 drops the oracle"),
		},
	}

	app := &cli.Command{
		Name:        "rill",
		Description: "rill is a tool for working with rill ir modules",
		Commands: []*cli.Command{
			parseCmd,
			mergeCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		m, err := compiler.LoadFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		fmt.Printf("%s", format.Module(nil, m))
	}

	return nil
}

func mergeAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		m, err := compiler.LoadFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "load %v", a)
		}

		obj, stats, changed := compiler.Merge(ctx, m, c.Bool("aliases"), c.Int("ptr-bits"))

		tlog.Printw("merge finished", "file", a, "changed", changed,
			"merged", stats.Merged, "thunks", stats.Thunks,
			"aliases", stats.Aliases, "double_weak", stats.DoubleWeak)

		fmt.Printf("%s", obj)
	}

	return nil
}
