package compiler

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/back"
	"github.com/ntfwc/ZeldaClassic/compiler/diag"
	"github.com/ntfwc/ZeldaClassic/compiler/frame"
	"github.com/ntfwc/ZeldaClassic/compiler/front"
	"github.com/ntfwc/ZeldaClassic/compiler/ids"
	"github.com/ntfwc/ZeldaClassic/compiler/lib"
	"github.com/ntfwc/ZeldaClassic/compiler/parse"
	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

type (
	Config struct {
		// FS is where the root file and its imports are read from.
		FS fs.FS

		// RecursionLimit bounds import nesting.
		// Zero means DefaultRecursionLimit, negative fails every compile.
		RecursionLimit int

		// Providers default to lib.Default.
		Providers []lib.Provider

		// Oracle and Visitor default to a fresh frame.Layout
		// and the back.Builder over it.
		Oracle  back.Oracle
		Visitor back.Visitor
	}

	session struct {
		Config

		tree *ast.Tree
		sink *diag.Sink
	}
)

// DefaultRecursionLimit bounds import nesting unless Config says otherwise.
const DefaultRecursionLimit = front.DefaultRecursionLimit

var ErrFailed = errors.New("compilation failed")

// CompileFile compiles the file at path.
// Imports are resolved relative to the file's directory.
func CompileFile(ctx context.Context, path string) (*back.Scripts, error) {
	cfg := Config{
		FS: os.DirFS(filepath.Dir(path)),
	}

	return Compile(ctx, cfg, filepath.Base(path))
}

// Compile compiles file name from cfg.FS into one instruction list per script.
//
// Compilation stops after the first stage that reported diagnostics.
// The returned error then is a diag.Errors holding all of them.
// Every call is independent: nothing is shared between compilations.
func Compile(ctx context.Context, cfg Config, name string) (out *back.Scripts, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "file", name)
	defer tr.Finish("err", &err)

	s := &session{
		Config: cfg.withDefaults(),
		tree:   ast.NewTree(),
		sink:   &diag.Sink{},
	}

	root, err := s.parse(ctx, name)
	if err != nil {
		return nil, s.fail(err)
	}

	pre := &front.Preprocessor{
		FS:   s.FS,
		Tree: s.tree,
		Sink: s.sink,
	}

	err = pre.Preprocess(ctx, root, s.RecursionLimit)
	if err != nil {
		return nil, s.fail(err)
	}

	p := zs.NewProgram(s.tree, root, ids.New())

	a := &front.Analyzer{
		Program:   p,
		Providers: s.Providers,
		Sink:      s.sink,
	}

	err = a.Analyze(ctx)
	if err != nil {
		return nil, s.fail(err)
	}

	err = front.CheckGlobals(p, s.sink)
	if err != nil {
		return nil, s.fail(err)
	}

	g := &back.Generator{
		Oracle:    s.Oracle,
		Visitor:   s.Visitor,
		Providers: s.Providers,
		Sink:      s.sink,
	}

	in, err := g.Generate(ctx, p)
	if err != nil {
		return nil, s.fail(err)
	}

	out, err = back.Assemble(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}

	if tr.If("summary") {
		for name, code := range out.Code {
			tr.Printw("script", "name", name, "kind", out.Kinds[name], "size", len(code))
		}
	}

	return out, nil
}

func (s *session) parse(ctx context.Context, name string) (ast.NodeID, error) {
	text, err := fs.ReadFile(s.FS, name)
	if err != nil {
		s.sink.Report(ast.Pos{File: name}, diag.CantOpenSource, "%v", err)

		return ast.Nil, errors.Wrap(err, "read")
	}

	root, err := parse.Parse(ctx, s.tree, name, text)
	if err != nil {
		front.ReportSyntax(s.sink, err)

		return ast.Nil, err
	}

	return root, nil
}

// fail prefers collected diagnostics over the stage error.
func (s *session) fail(err error) error {
	if s.sink.Failed() {
		return s.sink.Err()
	}

	return errors.Wrap(ErrFailed, "%v", err)
}

func (c Config) withDefaults() Config {
	if c.RecursionLimit == 0 {
		c.RecursionLimit = DefaultRecursionLimit
	}

	if c.Providers == nil {
		c.Providers = lib.Default
	}

	if c.Oracle == nil || c.Visitor == nil {
		l := frame.New()

		if c.Oracle == nil {
			c.Oracle = l
		}

		if c.Visitor == nil {
			c.Visitor = back.NewBuilder(l)
		}
	}

	return c
}
