package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/diag"
	"github.com/ntfwc/ZeldaClassic/compiler/frame"
	"github.com/ntfwc/ZeldaClassic/compiler/front"
	"github.com/ntfwc/ZeldaClassic/compiler/ids"
	"github.com/ntfwc/ZeldaClassic/compiler/lib"
	"github.com/ntfwc/ZeldaClassic/compiler/parse"
	"github.com/ntfwc/ZeldaClassic/compiler/tp"
	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

func analyze(t *testing.T, src string) *zs.Program {
	t.Helper()

	ctx := context.Background()
	tree := ast.NewTree()

	root, err := parse.Parse(ctx, tree, "test.z", []byte(src))
	require.NoError(t, err)

	var sink diag.Sink

	p := zs.NewProgram(tree, root, ids.New())

	a := &front.Analyzer{
		Program:   p,
		Providers: lib.Default,
		Sink:      &sink,
	}

	err = a.Analyze(ctx)
	require.NoError(t, err, "%v", sink.List())

	return p
}

func body(p *zs.Program, f *zs.Function) ast.NodeID {
	return p.Tree.Node(f.Node).(ast.Func).Body
}

func run(t *testing.T, p *zs.Program, name string) *zs.Function {
	t.Helper()

	s, ok := p.Script(name)
	require.True(t, ok)

	runs := s.Run()
	require.Len(t, runs, 1)

	return runs[0]
}

func TestBuildCall(t *testing.T) {
	p := analyze(t, `
float add(float a, float b) { return a + b; }

global script S {
	void run() {
		float x = add(1, 2);
	}
}
`)

	add := p.Global.LocalFunctions("add")[0]
	f := run(t, p, "S")

	b := NewBuilder(frame.New())

	code, err := b.Generate(&Context{Program: p, Func: f, Return: 1000}, body(p, f))
	require.NoError(t, err)
	require.Len(t, code, 10)

	ret := code[1].B.Value

	assert.Equal(t, []asm.Instr{
		asm.PushR(asm.SFRAME),
		asm.SetL(asm.EXP1, ret),
		asm.PushR(asm.EXP1),
		asm.SetV(asm.EXP1, 10000),
		asm.PushR(asm.EXP1),
		asm.SetV(asm.EXP1, 20000),
		asm.PushR(asm.EXP1),
		asm.Goto(add.Label()),
		asm.PopR(asm.SFRAME).WithLabel(ret),
		asm.StoreD(asm.EXP1, 1),
	}, code)

	code, err = b.Generate(&Context{Program: p, Func: add, Return: 1001}, body(p, add))
	require.NoError(t, err)

	assert.Equal(t, []asm.Instr{
		asm.LoadD(asm.EXP1, 1),
		asm.PushR(asm.EXP1),
		asm.LoadD(asm.EXP1, 0),
		asm.PopR(asm.EXP2),
		asm.Op2(asm.ADDR, asm.EXP2, asm.EXP1),
		asm.SetR(asm.EXP1, asm.EXP2),
		asm.Goto(1001),
	}, code)
}

func TestBuildGlobals(t *testing.T) {
	p := analyze(t, `
int g = 5;

global script S {
	void run() {
		g = g + 1;
	}
}
`)

	b := NewBuilder(frame.New())

	vars := p.GlobalVariables()
	require.Len(t, vars, 1)

	code, err := b.Generate(&Context{Program: p, Return: asm.NoLabel}, vars[0].Node())
	require.NoError(t, err)

	assert.Equal(t, []asm.Instr{
		asm.SetV(asm.EXP1, 50000),
		asm.SetR(asm.GD(0), asm.EXP1),
	}, code)

	f := run(t, p, "S")

	code, err = b.Generate(&Context{Program: p, Func: f, Return: 1000}, body(p, f))
	require.NoError(t, err)

	assert.Equal(t, []asm.Instr{
		asm.SetR(asm.EXP1, asm.GD(0)),
		asm.PushR(asm.EXP1),
		asm.SetV(asm.EXP1, 10000),
		asm.PopR(asm.EXP2),
		asm.Op2(asm.ADDR, asm.EXP2, asm.EXP1),
		asm.SetR(asm.EXP1, asm.EXP2),
		asm.SetR(asm.GD(0), asm.EXP1),
	}, code)
}

func TestBuildSetter(t *testing.T) {
	p := analyze(t, `
item script I {
	void run() {
		this->Power = 3;
	}
}
`)

	f := run(t, p, "I")
	require.NotNil(t, f.This)

	set := p.Global.Class(tp.ItemClass).LocalFunctions("setPower")
	require.Len(t, set, 1)

	code, err := NewBuilder(frame.New()).Generate(&Context{Program: p, Func: f, Return: 1000}, body(p, f))
	require.NoError(t, err)
	require.Len(t, code, 9)

	ret := code[1].B.Value

	assert.Equal(t, []asm.Instr{
		asm.PushR(asm.SFRAME),
		asm.SetL(asm.EXP1, ret),
		asm.PushR(asm.EXP1),
		asm.LoadD(asm.EXP1, 0),
		asm.PushR(asm.EXP1),
		asm.SetV(asm.EXP1, 30000),
		asm.PushR(asm.EXP1),
		asm.Goto(set[0].Label()),
		asm.PopR(asm.SFRAME).WithLabel(ret),
	}, code)
}

func TestBuildControlFlow(t *testing.T) {
	p := analyze(t, `
ffc script F {
	void run() {
		int x = 0;

		while (x < 3) {
			if (x == 1) x = 2; else x = x + 2;
		}
	}
}
`)

	f := run(t, p, "F")

	code, err := NewBuilder(frame.New()).Generate(&Context{Program: p, Func: f, Return: 1000}, body(p, f))
	require.NoError(t, err)

	// x is the only local, right after this.
	assert.Equal(t, []asm.Instr{
		asm.SetV(asm.EXP1, 0),
		asm.StoreD(asm.EXP1, 1),
	}, code[:2])

	top := code[2]
	require.Equal(t, asm.NOP, top.Op)
	require.True(t, top.HasLabel())

	end := code[len(code)-1]
	require.Equal(t, asm.NOP, end.Op)
	require.True(t, end.HasLabel())

	assert.Equal(t, asm.Goto(top.Label), code[len(code)-2])

	var labels, jumps []int

	for _, x := range code {
		if x.HasLabel() {
			labels = append(labels, x.Label)
		}

		x.Refs(func(l int) { jumps = append(jumps, l) })
	}

	for _, l := range jumps {
		assert.Contains(t, labels, l, "jump to a label inside the body")
	}

	assert.Contains(t, code, asm.Op1(asm.SETLESSI, asm.EXP1))
	assert.Contains(t, code, asm.Op1(asm.SETTRUE, asm.EXP1))
	assert.Contains(t, code, asm.New(asm.GOTOTRUE, asm.Label(end.Label)))
}

func TestBuildReturnOutside(t *testing.T) {
	tree := ast.NewTree()
	root := tree.Add(ast.Pos{}, &ast.Program{})
	ret := tree.Add(ast.Pos{}, ast.Return{Value: ast.Nil})

	p := zs.NewProgram(tree, root, ids.New())

	_, err := NewBuilder(frame.New()).Generate(&Context{Program: p, Return: asm.NoLabel}, ret)
	assert.ErrorIs(t, err, ErrReturnOutside)
}

func TestBuildUnbound(t *testing.T) {
	tree := ast.NewTree()
	root := tree.Add(ast.Pos{}, &ast.Program{})
	id := tree.Add(ast.Pos{}, ast.ExprStmt{X: tree.Add(ast.Pos{}, ast.Ident{Name: "nope"})})

	p := zs.NewProgram(tree, root, ids.New())

	_, err := NewBuilder(frame.New()).Generate(&Context{Program: p, Return: asm.NoLabel}, id)
	assert.ErrorIs(t, err, ErrUnbound)
}
