package front

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/diag"
	"github.com/ntfwc/ZeldaClassic/compiler/parse"
)

func preprocess(t *testing.T, files map[string]string, limit int) (*ast.Tree, ast.NodeID, *diag.Sink, error) {
	t.Helper()

	fsys := fstest.MapFS{}
	for name, text := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(text)}
	}

	ctx := context.Background()
	tree := ast.NewTree()

	root, err := parse.Parse(ctx, tree, "main.z", []byte(files["main.z"]))
	require.NoError(t, err)

	p := &Preprocessor{
		FS:   fsys,
		Tree: tree,
		Sink: &diag.Sink{},
	}

	err = p.Preprocess(ctx, root, limit)

	return tree, root, p.Sink, err
}

func TestPreprocessMerge(t *testing.T) {
	tree, root, sink, err := preprocess(t, map[string]string{
		"main.z": `
import "a.z"
import "lib\\b.z";

int top;
`,
		"a.z": `
import "lib/c.z"

int a;
global script S { void run() { } }
`,
		"lib/b.z": `float b() { return 1; }`,
		"lib/c.z": `int c;`,
	}, DefaultRecursionLimit)
	require.NoError(t, err)
	assert.False(t, sink.Failed())

	prog := tree.Program(root)

	assert.Empty(t, prog.Imports)
	require.Len(t, prog.Scripts, 1)

	var names []string

	for _, id := range prog.Decls {
		switch n := tree.Node(id).(type) {
		case ast.Var:
			names = append(names, n.Name)
		case ast.Func:
			names = append(names, n.Name)
		}
	}

	assert.Equal(t, []string{"top", "a", "c", "b"}, names)
}

func TestPreprocessLimit(t *testing.T) {
	files := map[string]string{
		"main.z": `import "a.z"`,
		"a.z":    `import "b.z"`,
		"b.z":    `int b;`,
	}

	_, _, sink, err := preprocess(t, files, 3)
	assert.NoError(t, err)
	assert.False(t, sink.Failed())

	_, _, sink, err = preprocess(t, files, 2)
	assert.ErrorIs(t, err, ErrRecursion)
	assert.Equal(t, []diag.Code{diag.ImportRecursion}, sink.Codes())

	for _, limit := range []int{0, -1} {
		_, _, sink, err = preprocess(t, map[string]string{"main.z": `int x;`}, limit)
		assert.ErrorIs(t, err, ErrRecursion, "limit %d", limit)
		assert.Equal(t, []diag.Code{diag.ImportRecursion}, sink.Codes(), "limit %d", limit)
	}
}

func TestPreprocessCycle(t *testing.T) {
	for _, limit := range []int{5, -3} {
		_, _, sink, err := preprocess(t, map[string]string{
			"main.z": `import "main.z"`,
		}, limit)
		assert.ErrorIs(t, err, ErrRecursion, "limit %d", limit)
		assert.Equal(t, []diag.Code{diag.ImportRecursion}, sink.Codes(), "limit %d", limit)
	}
}

func TestPreprocessMissing(t *testing.T) {
	_, _, sink, err := preprocess(t, map[string]string{
		"main.z": `import "nope.z"`,
	}, DefaultRecursionLimit)
	assert.ErrorIs(t, err, ErrCantImport)
	assert.Equal(t, []diag.Code{diag.CantOpenImport}, sink.Codes())
}

func TestPreprocessSyntax(t *testing.T) {
	_, _, sink, err := preprocess(t, map[string]string{
		"main.z": `import "bad.z"`,
		"bad.z":  "int a;\nint = 3;\n",
	}, DefaultRecursionLimit)
	assert.ErrorIs(t, err, ErrCantImport)

	require.Len(t, sink.List(), 1)

	d := sink.List()[0]
	assert.Equal(t, diag.Syntax, d.Code)
	assert.Equal(t, "bad.z", d.Pos.File)
	assert.Equal(t, 2, d.Pos.Line)
}

func TestImportPath(t *testing.T) {
	for _, tc := range []struct {
		in, out string
	}{
		{"std.zh", "std.zh"},
		{`lib\util.zh`, "lib/util.zh"},
		{`lib\\util.zh`, "lib/util.zh"},
		{"./a/../b.z", "b.z"},
		{"/abs/x.z", "abs/x.z"},
	} {
		assert.Equal(t, tc.out, ImportPath(tc.in), "%q", tc.in)
	}
}
