package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ntfwc/ZeldaClassic/compiler"
	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/parse"
)

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse files and print their top-level declarations",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile files into ZASM scripts",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("recursion-limit", compiler.DefaultRecursionLimit, "max import nesting"),
			cli.NewFlag("dump", false, "print full listings, not just a summary"),
		},
	}

	app := &cli.Command{
		Name:        "zscript",
		Description: "zscript compiles ZScript source into ZASM",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "tlog topics to print"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
			compileCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		tree := ast.NewTree()

		root, err := parse.Parse(ctx, tree, a, text)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		prog := tree.Program(root)

		for _, id := range prog.Imports {
			fmt.Printf("%v: import %q\n", tree.Pos(id), tree.Node(id).(ast.Import).Path)
		}

		for _, id := range prog.Decls {
			switch n := tree.Node(id).(type) {
			case ast.Var:
				fmt.Printf("%v: var %v %v\n", tree.Pos(id), n.Type, n.Name)
			case ast.Func:
				fmt.Printf("%v: func %v %v/%d\n", tree.Pos(id), n.Ret, n.Name, len(n.Params))
			}
		}

		for _, id := range prog.Scripts {
			n := tree.Node(id).(ast.Script)

			fmt.Printf("%v: %v script %v (%d decls)\n", tree.Pos(id), n.Kind, n.Name, len(n.Decls))
		}
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		cfg := compiler.Config{
			FS:             os.DirFS(filepath.Dir(a)),
			RecursionLimit: c.Int("recursion-limit"),
		}

		out, err := compiler.Compile(ctx, cfg, filepath.Base(a))
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		names := make([]string, 0, len(out.Code))
		for name := range out.Code {
			names = append(names, name)
		}

		sort.Strings(names)

		var b []byte

		for _, name := range names {
			code := out.Code[name]

			b = fmt.Appendf(b, "%v script %v: %d instructions\n", out.Kinds[name], name, len(code))

			if c.Bool("dump") {
				b = asm.Listing(b, code)
				b = append(b, '\n')
			}
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}
