package back

import (
	"tlog.app/go/errors"

	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/frame"
	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

type (
	// Builder is the default Visitor.
	//
	// Expression values end up in EXP1.
	// A call pushes SFRAME, the return address and the arguments,
	// jumps to the callee, and restores SFRAME at the return address.
	Builder struct {
		Layout *frame.Layout
	}

	build struct {
		c    *Context
		l    *frame.Layout
		tree *ast.Tree
		tab  *zs.Table

		code []asm.Instr
		err  error
	}
)

var (
	ErrUnbound       = errors.New("unresolved name")
	ErrNoFrame       = errors.New("no frame slot")
	ErrReturnOutside = errors.New("return outside of function")
)

func NewBuilder(l *frame.Layout) *Builder {
	return &Builder{Layout: l}
}

func (b *Builder) Generate(c *Context, node ast.NodeID) ([]asm.Instr, error) {
	w := &build{
		c:    c,
		l:    b.Layout,
		tree: c.Program.Tree,
		tab:  c.Program.Table,
	}

	w.stmt(node)

	if w.err != nil {
		return nil, w.err
	}

	return w.code, nil
}

func (w *build) emit(x ...asm.Instr) {
	w.code = append(w.code, x...)
}

func (w *build) fail(id ast.NodeID, err error, format string, args ...any) {
	if w.err != nil {
		return
	}

	w.err = errors.Wrap(err, "%v: "+format, append([]any{w.tree.Pos(id)}, args...)...)
}

func (w *build) label() int {
	return w.c.Program.IDs().Label()
}

func (w *build) stmt(id ast.NodeID) {
	switch n := w.tree.Node(id).(type) {
	case ast.Block:
		for _, s := range n.Stmts {
			w.stmt(s)
		}
	case ast.Var:
		w.decl(id, n)
	case ast.If:
		w.expr(n.Cond)

		els := w.label()

		w.emit(
			asm.New(asm.COMPAREV, asm.R(asm.EXP1), asm.Lit(0)),
			asm.New(asm.GOTOTRUE, asm.Label(els)),
		)

		w.stmt(n.Then)

		if n.Else == ast.Nil {
			w.emit(asm.Nop().WithLabel(els))
			break
		}

		end := w.label()

		w.emit(asm.Goto(end))
		w.emit(asm.Nop().WithLabel(els))

		w.stmt(n.Else)

		w.emit(asm.Nop().WithLabel(end))
	case ast.While:
		top, end := w.label(), w.label()

		w.emit(asm.Nop().WithLabel(top))

		w.expr(n.Cond)

		w.emit(
			asm.New(asm.COMPAREV, asm.R(asm.EXP1), asm.Lit(0)),
			asm.New(asm.GOTOTRUE, asm.Label(end)),
		)

		w.stmt(n.Body)

		w.emit(asm.Goto(top), asm.Nop().WithLabel(end))
	case ast.Return:
		if w.c.Func == nil || w.c.Return == asm.NoLabel {
			w.fail(id, ErrReturnOutside, "return")
			return
		}

		if n.Value != ast.Nil {
			w.expr(n.Value)
		}

		w.emit(asm.Goto(w.c.Return))
	case ast.Assign:
		w.assign(id, n)
	case ast.ExprStmt:
		w.expr(n.X)
	default:
		w.fail(id, ErrUnbound, "unexpected statement %T", n)
	}
}

func (w *build) decl(id ast.NodeID, n ast.Var) {
	if n.Const {
		return
	}

	d, ok := w.tab.Datum(id)
	if !ok {
		w.fail(id, ErrUnbound, "%v", n.Name)
		return
	}

	if n.Init != ast.Nil {
		w.expr(n.Init)
	} else {
		w.emit(asm.SetV(asm.EXP1, 0))
	}

	w.store(id, d)
}

func (w *build) assign(id ast.NodeID, n ast.Assign) {
	switch t := w.tree.Node(n.Target).(type) {
	case ast.Arrow:
		f, ok := w.tab.Function(n.Target)
		if !ok {
			w.fail(n.Target, ErrUnbound, "->%v", t.Field)
			return
		}

		w.call(f, t.Left, n.Value)
	default:
		d, ok := w.tab.Datum(n.Target)
		if !ok {
			w.fail(n.Target, ErrUnbound, "assignment target")
			return
		}

		w.expr(n.Value)
		w.store(n.Target, d)
	}
}

// store saves EXP1 into d.
func (w *build) store(id ast.NodeID, d zs.Datum) {
	if g, ok := zs.GlobalSlot(d); ok {
		w.emit(asm.SetR(asm.GD(g-1), asm.EXP1))
		return
	}

	off, ok := w.offset(d)
	if !ok {
		w.fail(id, ErrNoFrame, "%v", d.Name())
		return
	}

	w.emit(asm.StoreD(asm.EXP1, off))
}

// load puts d into EXP1.
func (w *build) load(id ast.NodeID, d zs.Datum) {
	if v, ok := zs.ConstValue(d); ok {
		w.emit(asm.SetV(asm.EXP1, v))
		return
	}

	if g, ok := zs.GlobalSlot(d); ok {
		w.emit(asm.SetR(asm.EXP1, asm.GD(g-1)))
		return
	}

	off, ok := w.offset(d)
	if !ok {
		w.fail(id, ErrNoFrame, "%v", d.Name())
		return
	}

	w.emit(asm.LoadD(asm.EXP1, off))
}

func (w *build) offset(d zs.Datum) (int, bool) {
	if w.c.Func == nil || w.l == nil {
		return 0, false
	}

	return w.l.Offset(w.c.Func, d)
}

func (w *build) expr(id ast.NodeID) {
	switch n := w.tree.Node(id).(type) {
	case ast.Number:
		v := n.Value

		if d, ok := w.tab.Datum(id); ok {
			v, _ = zs.ConstValue(d)
		}

		w.emit(asm.SetV(asm.EXP1, v))
	case ast.Bool:
		v := 0
		if n.Value {
			v = 1
		}

		w.emit(asm.SetV(asm.EXP1, v))
	case ast.Ident:
		d, ok := w.tab.Datum(id)
		if !ok {
			w.fail(id, ErrUnbound, "%v", n.Name)
			return
		}

		w.load(id, d)
	case ast.Call:
		f, ok := w.tab.Function(id)
		if !ok {
			w.fail(id, ErrUnbound, "%v()", n.Name)
			return
		}

		w.call(f, n.Args...)
	case ast.Arrow:
		f, ok := w.tab.Function(id)
		if !ok {
			w.fail(id, ErrUnbound, "->%v", n.Field)
			return
		}

		w.call(f, n.Left)
	case ast.Binary:
		w.binary(id, n)
	default:
		w.fail(id, ErrUnbound, "unexpected expression %T", n)
	}
}

func (w *build) binary(id ast.NodeID, n ast.Binary) {
	w.expr(n.L)
	w.emit(asm.PushR(asm.EXP1))
	w.expr(n.R)
	w.emit(asm.PopR(asm.EXP2))

	var op asm.Op

	switch n.Op {
	case "+":
		op = asm.ADDR
	case "-":
		op = asm.SUBR
	case "*":
		op = asm.MULTR
	case "/":
		op = asm.DIVR
	}

	if op != asm.NOP {
		w.emit(asm.Op2(op, asm.EXP2, asm.EXP1), asm.SetR(asm.EXP1, asm.EXP2))
		return
	}

	switch n.Op {
	case "==":
		op = asm.SETTRUE
	case "!=":
		op = asm.SETFALSE
	case "<":
		op = asm.SETLESSI
	case "<=":
		op = asm.SETLESS
	case ">":
		op = asm.SETMOREI
	case ">=":
		op = asm.SETMORE
	default:
		w.fail(id, ErrUnbound, "operator %q", n.Op)
		return
	}

	w.emit(asm.Op2(asm.COMPARER, asm.EXP2, asm.EXP1), asm.Op1(op, asm.EXP1))
}

func (w *build) call(f *zs.Function, args ...ast.NodeID) {
	ret := w.label()

	w.emit(
		asm.PushR(asm.SFRAME),
		asm.SetL(asm.EXP1, ret),
		asm.PushR(asm.EXP1),
	)

	for _, a := range args {
		w.expr(a)
		w.emit(asm.PushR(asm.EXP1))
	}

	w.emit(
		asm.Goto(f.Label()),
		asm.PopR(asm.SFRAME).WithLabel(ret),
	)
}
