package front

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/diag"
	"github.com/ntfwc/ZeldaClassic/compiler/lib"
	"github.com/ntfwc/ZeldaClassic/compiler/tp"
	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

type (
	Analyzer struct {
		Program   *zs.Program
		Providers []lib.Provider
		Sink      *diag.Sink

		tree *ast.Tree
		tr   tlog.Span

		inits  []pending
		bodies []*zs.Function
	}

	pending struct {
		scope *zs.Scope
		node  ast.NodeID
	}
)

var ErrAnalysis = errors.New("semantic analysis failed")

// Analyze builds the semantic model of an already preprocessed program.
// Errors are reported to the Sink; the returned error says whether there were any.
func (a *Analyzer) Analyze(ctx context.Context) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "analyze")
	defer tr.Finish("err", &err)

	a.tr = tr
	a.tree = a.Program.Tree

	p := a.Program

	for _, l := range a.Providers {
		err = l.Register(p.Global)
		if err != nil {
			return errors.Wrap(err, "register library")
		}
	}

	prog := a.tree.Program(p.Node)
	if prog == nil {
		return errors.New("program node expected: %d", p.Node)
	}

	for _, d := range prog.Decls {
		a.declare(p.Global, d)
	}

	for _, id := range prog.Scripts {
		a.script(id)
	}

	for _, x := range a.inits {
		a.varInit(x.scope, x.node)
	}

	for _, f := range a.bodies {
		a.body(f)
	}

	if tr.If("scopes") {
		tr.Printw("analyzed", "scripts", len(p.Scripts), "globals", len(p.GlobalVariables()), "functions", len(p.UserFunctions()))
	}

	if a.Sink.Failed() {
		return ErrAnalysis
	}

	return nil
}

// CheckGlobals fails if there are more global variables than global registers.
func CheckGlobals(p *zs.Program, sink *diag.Sink) error {
	n := len(p.GlobalVariables())
	if n <= asm.NumGlobalRegs {
		return nil
	}

	sink.Report(p.Tree.Pos(p.Node), diag.TooManyGlobal, "%d > %d", n, asm.NumGlobalRegs)

	return errors.Wrap(diag.TooManyGlobal, "%d", n)
}

func (a *Analyzer) script(id ast.NodeID) {
	n := a.tree.Node(id).(ast.Script)
	pos := a.tree.Pos(id)

	kind := zs.ParseScriptKind(n.Kind)
	if kind == zs.InvalidScript {
		a.Sink.Report(pos, diag.ScriptBadType, "%v script %v", n.Kind, n.Name)
	}

	s, err := a.Program.AddScript(id, n.Name, kind)
	if err != nil {
		a.Sink.Report(pos, diag.ScriptRedef, "%v", n.Name)
		return
	}

	for _, d := range n.Decls {
		a.declare(s.Scope, d)
	}

	runs := s.Run()

	switch {
	case len(runs) == 0:
		a.Sink.Report(pos, diag.ScriptNoRun, "%v", n.Name)
	case len(runs) > 1:
		a.Sink.Report(pos, diag.TooManyRun, "%v", n.Name)
	case runs[0].Ret != tp.Void:
		a.Sink.Report(a.tree.Pos(runs[0].Node), diag.ScriptRunNotVoid, "%v", n.Name)
	}
}

func (a *Analyzer) declare(s *zs.Scope, id ast.NodeID) {
	switch n := a.tree.Node(id).(type) {
	case ast.Var:
		a.declareVar(s, id, n)

		if !n.Const && n.Init != ast.Nil {
			a.inits = append(a.inits, pending{scope: s, node: id})
		}
	case ast.Func:
		a.declareFunc(s, id, n)
	default:
		a.Sink.Report(a.tree.Pos(id), diag.Syntax, "unexpected declaration: %T", n)
	}
}

func (a *Analyzer) declareVar(s *zs.Scope, id ast.NodeID, n ast.Var) {
	pos := a.tree.Pos(id)

	typ, ok := a.valueType(pos, n.Type)
	if !ok {
		return
	}

	var d zs.Datum
	var err error

	if n.Const {
		v, ok := a.constValue(n.Init)
		if !ok {
			a.Sink.Report(pos, diag.ConstInit, "%v", n.Name)
			return
		}

		d, err = zs.NewConstant(s, id, n.Name, typ, v)
	} else {
		d, err = zs.NewVariable(s, id, n.Name, typ)
	}

	if err != nil {
		a.Sink.Report(pos, diag.VarRedef, "%v", n.Name)
		return
	}

	a.Program.Table.BindDatum(id, d)
}

func (a *Analyzer) declareFunc(s *zs.Scope, id ast.NodeID, n ast.Func) {
	pos := a.tree.Pos(id)

	ret, ok := tp.Lookup(n.Ret)
	if !ok {
		a.Sink.Report(pos, diag.BadType, "%v", n.Ret)
		return
	}

	params := make([]tp.Type, len(n.Params))

	for i, pid := range n.Params {
		pv := a.tree.Node(pid).(ast.Var)

		params[i], ok = a.valueType(a.tree.Pos(pid), pv.Type)
		if !ok {
			return
		}
	}

	f, err := a.Program.NewFunction(s, id, ret, n.Name, params)
	if err != nil {
		a.Sink.Report(pos, diag.FuncRedef, "%v", n.Name)
		return
	}

	a.Program.Table.BindFunction(id, f)

	if f.IsRun() {
		var this tp.Type

		switch s.Script.Kind {
		case zs.ItemScript:
			this = tp.ItemClass
		case zs.FFCScript:
			this = tp.FFC
		}

		if this != tp.Invalid {
			d, err := zs.NewBuiltinVariable(f.Scope, "this", this)
			if err != nil {
				a.Sink.Report(pos, diag.VarRedef, "this")
			} else {
				f.This = d
			}
		}
	}

	for i, pid := range n.Params {
		pv := a.tree.Node(pid).(ast.Var)

		d, err := zs.NewVariable(f.Scope, pid, pv.Name, params[i])
		if err != nil {
			a.Sink.Report(a.tree.Pos(pid), diag.VarRedef, "%v", pv.Name)
			continue
		}

		f.ParamData = append(f.ParamData, d)
		a.Program.Table.BindDatum(pid, d)
	}

	a.bodies = append(a.bodies, f)
}

func (a *Analyzer) varInit(s *zs.Scope, id ast.NodeID) {
	n := a.tree.Node(id).(ast.Var)

	a.expr(s, n.Init)
}

func (a *Analyzer) body(f *zs.Function) {
	n := a.tree.Node(f.Node).(ast.Func)

	body, ok := a.tree.Node(n.Body).(ast.Block)
	if !ok {
		a.Sink.Report(a.tree.Pos(n.Body), diag.Syntax, "function body expected")
		return
	}

	a.Program.Table.BindScope(n.Body, f.Scope)

	for _, st := range body.Stmts {
		a.stmt(f.Scope, st)
	}
}

func (a *Analyzer) stmt(s *zs.Scope, id ast.NodeID) {
	switch n := a.tree.Node(id).(type) {
	case ast.Block:
		c := s.NewChild()
		a.Program.Table.BindScope(id, c)

		for _, st := range n.Stmts {
			a.stmt(c, st)
		}
	case ast.Var:
		if !n.Const && n.Init != ast.Nil {
			a.expr(s, n.Init)
		}

		a.declareVar(s, id, n)
	case ast.If:
		a.expr(s, n.Cond)
		a.stmt(s, n.Then)

		if n.Else != ast.Nil {
			a.stmt(s, n.Else)
		}
	case ast.While:
		a.expr(s, n.Cond)
		a.stmt(s, n.Body)
	case ast.Return:
		if n.Value != ast.Nil {
			a.expr(s, n.Value)
		}
	case ast.Assign:
		a.assign(s, id, n)
	case ast.ExprStmt:
		a.expr(s, n.X)
	default:
		a.Sink.Report(a.tree.Pos(id), diag.Syntax, "unexpected statement: %T", n)
	}
}

func (a *Analyzer) assign(s *zs.Scope, id ast.NodeID, n ast.Assign) {
	a.expr(s, n.Value)

	pos := a.tree.Pos(n.Target)

	switch t := a.tree.Node(n.Target).(type) {
	case ast.Ident:
		d, ok := s.LookupDatum(t.Name)
		if !ok {
			a.Sink.Report(pos, diag.UndeclaredVar, "%v", t.Name)
			return
		}

		if _, ok := zs.ConstValue(d); ok {
			a.Sink.Report(pos, diag.ConstAssign, "%v", t.Name)
			return
		}

		a.Program.Table.BindDatum(n.Target, d)
	case ast.Arrow:
		lt := a.expr(s, t.Left)

		f := a.member(s, pos, lt, "set", t.Field, 2)
		if f != nil {
			a.Program.Table.BindFunction(n.Target, f)
		}
	default:
		a.Sink.Report(pos, diag.Syntax, "can't assign to %T", t)
	}
}

// expr resolves names in the expression and returns its type.
func (a *Analyzer) expr(s *zs.Scope, id ast.NodeID) tp.Type {
	pos := a.tree.Pos(id)

	switch n := a.tree.Node(id).(type) {
	case ast.Number:
		d, err := zs.NewLiteral(s, id, tp.Float, n.Value)
		if err != nil {
			a.Sink.Report(pos, diag.Codegen, "%v", err)
			return tp.Invalid
		}

		a.Program.Table.BindDatum(id, d)

		return tp.Float
	case ast.Bool:
		return tp.Bool
	case ast.Ident:
		d, ok := s.LookupDatum(n.Name)
		if !ok {
			a.Sink.Report(pos, diag.UndeclaredVar, "%v", n.Name)
			return tp.Invalid
		}

		a.Program.Table.BindDatum(id, d)

		return d.Type()
	case ast.Call:
		for _, arg := range n.Args {
			a.expr(s, arg)
		}

		f := a.overload(pos, s.LookupFunctions(n.Name), n.Name, len(n.Args))
		if f == nil {
			return tp.Invalid
		}

		a.Program.Table.BindFunction(id, f)

		return f.Ret
	case ast.Arrow:
		lt := a.expr(s, n.Left)

		f := a.member(s, pos, lt, "get", n.Field, 1)
		if f == nil {
			return tp.Invalid
		}

		a.Program.Table.BindFunction(id, f)

		return f.Ret
	case ast.Binary:
		a.expr(s, n.L)
		a.expr(s, n.R)

		switch n.Op {
		case "==", "!=", "<", "<=", ">", ">=":
			return tp.Bool
		}

		return tp.Float
	default:
		a.Sink.Report(pos, diag.Syntax, "unexpected expression: %T", n)
	}

	return tp.Invalid
}

func (a *Analyzer) member(s *zs.Scope, pos ast.Pos, t tp.Type, prefix, field string, arity int) *zs.Function {
	if t == tp.Invalid {
		return nil
	}

	if !t.IsPointer() {
		a.Sink.Report(pos, diag.NoMember, "%v has no members", t)
		return nil
	}

	fs := s.Class(t).LocalFunctions(prefix + field)

	var r *zs.Function

	for _, f := range fs {
		if len(f.Params) == arity {
			r = f
		}
	}

	if r == nil {
		a.Sink.Report(pos, diag.NoMember, "%v->%v", t, field)
	}

	return r
}

func (a *Analyzer) overload(pos ast.Pos, fs []*zs.Function, name string, arity int) *zs.Function {
	var r *zs.Function
	n := 0

	for _, f := range fs {
		if len(f.Params) == arity {
			r = f
			n++
		}
	}

	switch {
	case n == 0:
		a.Sink.Report(pos, diag.UndeclaredFunc, "%v/%d", name, arity)
		return nil
	case n > 1:
		a.Sink.Report(pos, diag.AmbiguousCall, "%v/%d", name, arity)
		return nil
	}

	return r
}

// valueType resolves the type of a variable or parameter.
func (a *Analyzer) valueType(pos ast.Pos, name string) (tp.Type, bool) {
	t, ok := tp.Lookup(name)
	if !ok || t == tp.Void {
		a.Sink.Report(pos, diag.BadType, "%v", name)
		return tp.Invalid, false
	}

	return t, true
}

func (a *Analyzer) constValue(id ast.NodeID) (int, bool) {
	switch n := a.tree.Node(id).(type) {
	case ast.Number:
		return n.Value, true
	case ast.Bool:
		if n.Value {
			return 1, true
		}

		return 0, true
	}

	return 0, false
}
