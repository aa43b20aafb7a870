// Package front resolves imports and builds the semantic model.
package front

import (
	"context"
	"io/fs"
	"path"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/diag"
	"github.com/ntfwc/ZeldaClassic/compiler/parse"
)

type (
	Preprocessor struct {
		FS   fs.FS
		Tree *ast.Tree
		Sink *diag.Sink
	}
)

// DefaultRecursionLimit bounds import nesting.
const DefaultRecursionLimit = 30

var (
	ErrRecursion  = errors.New("import recursion limit reached")
	ErrCantImport = errors.New("can't import")
)

// Preprocess merges everything root imports, transitively, into root.
// limit is the nesting budget left: 0 or less fails before anything is done.
func (p *Preprocessor) Preprocess(ctx context.Context, root ast.NodeID, limit int) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "preprocess", "root", root, "limit", limit)
	defer tr.Finish("err", &err)

	if limit <= 0 {
		p.Sink.Report(p.Tree.Pos(root), diag.ImportRecursion, "")

		return ErrRecursion
	}

	prog := p.Tree.Program(root)

	queue := prog.Imports
	prog.Imports = nil

	for len(queue) != 0 {
		id := queue[0]
		queue = queue[1:]

		imp, ok := p.Tree.Node(id).(ast.Import)
		if !ok {
			return errors.New("import node expected: %d", id)
		}

		name := ImportPath(imp.Path)

		if tr.If("imports") {
			tr.Printw("import", "path", imp.Path, "file", name, "limit", limit)
		}

		text, err := fs.ReadFile(p.FS, name)
		if err != nil {
			p.Sink.Report(p.Tree.Pos(id), diag.CantOpenImport, "%v", name)

			return errors.Wrap(ErrCantImport, "%v", name)
		}

		sub, err := parse.Parse(ctx, p.Tree, name, text)
		if err != nil {
			ReportSyntax(p.Sink, err)

			return errors.Wrap(ErrCantImport, "%v", name)
		}

		err = p.Preprocess(ctx, sub, limit-1)
		if err != nil {
			return err
		}

		p.Tree.Merge(root, sub)
	}

	return nil
}

// ImportPath normalizes a path as written in an import statement
// into an fs.FS name.
func ImportPath(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Clean(s)
	s = strings.TrimPrefix(s, "/")

	return s
}

// ReportSyntax reports a parse error at its position.
func ReportSyntax(sink *diag.Sink, err error) {
	var perr *parse.Error

	if errors.As(err, &perr) {
		sink.Report(perr.Pos, diag.Syntax, "%v", perr.Err)
		return
	}

	sink.Report(ast.Pos{}, diag.Syntax, "%v", err)
}
