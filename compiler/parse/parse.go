// Package parse turns ZScript source into ast nodes.
package parse

import (
	"context"
	"sort"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ntfwc/ZeldaClassic/compiler/ast"
)

type (
	Parser struct {
		Tree *ast.Tree

		file  string
		b     []byte
		lines []int

		tr tlog.Span
	}

	// Error is a syntax error at a source position.
	Error struct {
		Pos ast.Pos
		Err error
	}
)

var precedence = map[token]int{
	punct("=="): 1,
	punct("!="): 1,
	punct("<"):  2,
	punct("<="): 2,
	punct(">"):  2,
	punct(">="): 2,
	punct("+"):  3,
	punct("-"):  3,
	punct("*"):  4,
	punct("/"):  4,
}

// Parse parses one file into tree and returns its ast.Program node.
func Parse(ctx context.Context, tree *ast.Tree, file string, text []byte) (id ast.NodeID, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse", "file", file, "size", len(text))
	defer tr.Finish("err", &err)

	p := &Parser{
		Tree: tree,
		file: file,
		b:    text,
		tr:   tr,
	}

	p.lines = append(p.lines, 0)

	for i, c := range text {
		if c == '\n' {
			p.lines = append(p.lines, i+1)
		}
	}

	id, err = p.program(0)
	if err != nil {
		return ast.Nil, err
	}

	if tr.If("dump_ast") {
		prog := tree.Program(id)
		tr.Printw("parsed", "imports", len(prog.Imports), "scripts", len(prog.Scripts), "decls", len(prog.Decls), "nodes", tree.Len())
	}

	return id, nil
}

func (p *Parser) program(st int) (id ast.NodeID, err error) {
	prog := &ast.Program{}
	id = p.Tree.Add(p.pos(st), prog)

	i := st

	for {
		t, _, err := p.token(i)
		if err != nil {
			return ast.Nil, err
		}

		var x ast.NodeID

		switch {
		case t == nil:
			return id, nil
		case t == ident("import"):
			x, i, err = p.importDecl(i)
			prog.Imports = append(prog.Imports, x)
		case p.isScript(i):
			x, i, err = p.script(i)
			prog.Scripts = append(prog.Scripts, x)
		default:
			x, i, err = p.decl(i, true)
			prog.Decls = append(prog.Decls, x)
		}

		if err != nil {
			return ast.Nil, err
		}
	}
}

func (p *Parser) importDecl(st int) (x ast.NodeID, i int, err error) {
	i, err = p.expect(st, ident("import"))
	if err != nil {
		return ast.Nil, st, err
	}

	t, i, err := p.token(i)
	if err != nil {
		return ast.Nil, st, err
	}

	path, ok := t.(str)
	if !ok {
		return ast.Nil, st, p.errorf(i, "expected import path, got %v", describe(t))
	}

	if p.peek(i) == punct(";") {
		_, i, _ = p.token(i)
	}

	return p.Tree.Add(p.pos(st), ast.Import{Path: string(path)}), i, nil
}

func (p *Parser) isScript(st int) bool {
	t, i, err := p.token(st)
	if err != nil {
		return false
	}

	if _, ok := t.(ident); !ok {
		return false
	}

	return p.peek(i) == ident("script")
}

func (p *Parser) script(st int) (x ast.NodeID, i int, err error) {
	var s ast.Script

	s.Kind, i, err = p.ident(st)
	if err != nil {
		return ast.Nil, st, err
	}

	i, err = p.expect(i, ident("script"))
	if err != nil {
		return ast.Nil, st, err
	}

	s.Name, i, err = p.ident(i)
	if err != nil {
		return ast.Nil, st, err
	}

	i, err = p.expect(i, punct("{"))
	if err != nil {
		return ast.Nil, st, err
	}

	for p.peek(i) != punct("}") {
		var d ast.NodeID

		d, i, err = p.decl(i, true)
		if err != nil {
			return ast.Nil, st, err
		}

		s.Decls = append(s.Decls, d)
	}

	i, err = p.expect(i, punct("}"))
	if err != nil {
		return ast.Nil, st, err
	}

	return p.Tree.Add(p.pos(st), s), i, nil
}

// decl parses a variable or, at the top of a file or script, a function.
func (p *Parser) decl(st int, funcs bool) (x ast.NodeID, i int, err error) {
	var v ast.Var

	i = st

	if p.peek(i) == ident("const") {
		_, i, _ = p.token(i)
		v.Const = true
	}

	v.Type, i, err = p.ident(i)
	if err != nil {
		return ast.Nil, st, err
	}

	namePos := i

	v.Name, i, err = p.ident(i)
	if err != nil {
		return ast.Nil, st, err
	}

	t, next, err := p.token(i)
	if err != nil {
		return ast.Nil, st, err
	}

	switch {
	case t == punct("(") && funcs && !v.Const:
		return p.function(st, v.Type, v.Name, next)
	case t == punct("("):
		return ast.Nil, st, p.errorf(i, "unexpected function declaration")
	case t == punct("="):
		v.Init, i, err = p.expr(next)
		if err != nil {
			return ast.Nil, st, err
		}
	default:
		v.Init = ast.Nil
	}

	i, err = p.expect(i, punct(";"))
	if err != nil {
		return ast.Nil, st, err
	}

	return p.Tree.Add(p.pos(namePos), v), i, nil
}

func (p *Parser) function(st int, ret, name string, i int) (x ast.NodeID, _ int, err error) {
	f := ast.Func{
		Ret:  ret,
		Name: name,
	}

	for p.peek(i) != punct(")") {
		if len(f.Params) != 0 {
			i, err = p.expect(i, punct(","))
			if err != nil {
				return ast.Nil, st, err
			}
		}

		var v ast.Var

		pst := i

		v.Type, i, err = p.ident(i)
		if err != nil {
			return ast.Nil, st, err
		}

		v.Name, i, err = p.ident(i)
		if err != nil {
			return ast.Nil, st, err
		}

		v.Init = ast.Nil

		f.Params = append(f.Params, p.Tree.Add(p.pos(pst), v))
	}

	i, err = p.expect(i, punct(")"))
	if err != nil {
		return ast.Nil, st, err
	}

	f.Body, i, err = p.block(i)
	if err != nil {
		return ast.Nil, st, err
	}

	return p.Tree.Add(p.pos(st), f), i, nil
}

func (p *Parser) block(st int) (x ast.NodeID, i int, err error) {
	i, err = p.expect(st, punct("{"))
	if err != nil {
		return ast.Nil, st, err
	}

	var b ast.Block

	for p.peek(i) != punct("}") {
		if p.peek(i) == nil {
			return ast.Nil, st, p.errorf(i, "unexpected end of file")
		}

		var s ast.NodeID

		s, i, err = p.stmt(i)
		if err != nil {
			return ast.Nil, st, err
		}

		b.Stmts = append(b.Stmts, s)
	}

	i, err = p.expect(i, punct("}"))
	if err != nil {
		return ast.Nil, st, err
	}

	return p.Tree.Add(p.pos(st), b), i, nil
}

func (p *Parser) stmt(st int) (x ast.NodeID, i int, err error) {
	t, i, err := p.token(st)
	if err != nil {
		return ast.Nil, st, err
	}

	switch t {
	case punct("{"):
		return p.block(st)
	case punct(";"):
		return p.Tree.Add(p.pos(st), ast.Block{}), i, nil
	case ident("if"):
		return p.ifStmt(st, i)
	case ident("while"):
		return p.whileStmt(st, i)
	case ident("return"):
		r := ast.Return{Value: ast.Nil}

		if p.peek(i) != punct(";") {
			r.Value, i, err = p.expr(i)
			if err != nil {
				return ast.Nil, st, err
			}
		}

		i, err = p.expect(i, punct(";"))
		if err != nil {
			return ast.Nil, st, err
		}

		return p.Tree.Add(p.pos(st), r), i, nil
	case ident("const"):
		return p.decl(st, false)
	}

	if _, ok := t.(ident); ok {
		if _, ok := p.peek(i).(ident); ok {
			return p.decl(st, false)
		}
	}

	lhs, i, err := p.expr(st)
	if err != nil {
		return ast.Nil, st, err
	}

	if p.peek(i) == punct("=") {
		_, i, _ = p.token(i)

		var rhs ast.NodeID

		rhs, i, err = p.expr(i)
		if err != nil {
			return ast.Nil, st, err
		}

		x = p.Tree.Add(p.pos(st), ast.Assign{Target: lhs, Value: rhs})
	} else {
		x = p.Tree.Add(p.pos(st), ast.ExprStmt{X: lhs})
	}

	i, err = p.expect(i, punct(";"))
	if err != nil {
		return ast.Nil, st, err
	}

	return x, i, nil
}

func (p *Parser) ifStmt(st, i int) (x ast.NodeID, _ int, err error) {
	s := ast.If{Else: ast.Nil}

	s.Cond, i, err = p.paren(i)
	if err != nil {
		return ast.Nil, st, err
	}

	s.Then, i, err = p.stmt(i)
	if err != nil {
		return ast.Nil, st, err
	}

	if p.peek(i) == ident("else") {
		_, i, _ = p.token(i)

		s.Else, i, err = p.stmt(i)
		if err != nil {
			return ast.Nil, st, err
		}
	}

	return p.Tree.Add(p.pos(st), s), i, nil
}

func (p *Parser) whileStmt(st, i int) (x ast.NodeID, _ int, err error) {
	var s ast.While

	s.Cond, i, err = p.paren(i)
	if err != nil {
		return ast.Nil, st, err
	}

	s.Body, i, err = p.stmt(i)
	if err != nil {
		return ast.Nil, st, err
	}

	return p.Tree.Add(p.pos(st), s), i, nil
}

func (p *Parser) paren(st int) (x ast.NodeID, i int, err error) {
	i, err = p.expect(st, punct("("))
	if err != nil {
		return ast.Nil, st, err
	}

	x, i, err = p.expr(i)
	if err != nil {
		return ast.Nil, st, err
	}

	i, err = p.expect(i, punct(")"))
	if err != nil {
		return ast.Nil, st, err
	}

	return x, i, nil
}

func (p *Parser) expr(st int) (x ast.NodeID, i int, err error) {
	return p.binary(st, 1)
}

func (p *Parser) binary(st, prec int) (x ast.NodeID, i int, err error) {
	x, i, err = p.unary(st)
	if err != nil {
		return ast.Nil, st, err
	}

	for {
		t, next, err := p.token(i)
		if err != nil {
			return ast.Nil, st, err
		}

		q, ok := precedence[t]
		if !ok || q < prec {
			return x, i, nil
		}

		opPos := i

		var y ast.NodeID

		y, i, err = p.binary(next, q+1)
		if err != nil {
			return ast.Nil, st, err
		}

		x = p.Tree.Add(p.pos(opPos), ast.Binary{Op: string(t.(punct)), L: x, R: y})
	}
}

func (p *Parser) unary(st int) (x ast.NodeID, i int, err error) {
	t, i, err := p.token(st)
	if err != nil {
		return ast.Nil, st, err
	}

	if t != punct("-") {
		return p.postfix(st)
	}

	if n, ok := p.peek(i).(number); ok {
		_, i, _ = p.token(i)

		return p.number(st, n, true), i, nil
	}

	y, i, err := p.unary(i)
	if err != nil {
		return ast.Nil, st, err
	}

	zero := p.Tree.Add(p.pos(st), ast.Number{})

	return p.Tree.Add(p.pos(st), ast.Binary{Op: "-", L: zero, R: y}), i, nil
}

func (p *Parser) postfix(st int) (x ast.NodeID, i int, err error) {
	x, i, err = p.primary(st)
	if err != nil {
		return ast.Nil, st, err
	}

	for p.peek(i) == punct("->") {
		arrow := i

		_, i, _ = p.token(i)

		var field string

		field, i, err = p.ident(i)
		if err != nil {
			return ast.Nil, st, err
		}

		x = p.Tree.Add(p.pos(arrow), ast.Arrow{Left: x, Field: field})
	}

	return x, i, nil
}

func (p *Parser) primary(st int) (x ast.NodeID, i int, err error) {
	t, i, err := p.token(st)
	if err != nil {
		return ast.Nil, st, err
	}

	switch t := t.(type) {
	case number:
		return p.number(st, t, false), i, nil
	case punct:
		if t == "(" {
			return p.paren(st)
		}
	case ident:
		switch t {
		case "true", "false":
			return p.Tree.Add(p.pos(st), ast.Bool{Value: t == "true"}), i, nil
		}

		if p.peek(i) != punct("(") {
			return p.Tree.Add(p.pos(st), ast.Ident{Name: string(t)}), i, nil
		}

		return p.call(st, string(t), i)
	}

	return ast.Nil, st, p.errorf(st, "expected expression, got %v", describe(t))
}

func (p *Parser) call(st int, name string, i int) (x ast.NodeID, _ int, err error) {
	c := ast.Call{Name: name}

	i, err = p.expect(i, punct("("))
	if err != nil {
		return ast.Nil, st, err
	}

	for p.peek(i) != punct(")") {
		if len(c.Args) != 0 {
			i, err = p.expect(i, punct(","))
			if err != nil {
				return ast.Nil, st, err
			}
		}

		var a ast.NodeID

		a, i, err = p.expr(i)
		if err != nil {
			return ast.Nil, st, err
		}

		c.Args = append(c.Args, a)
	}

	i, err = p.expect(i, punct(")"))
	if err != nil {
		return ast.Nil, st, err
	}

	return p.Tree.Add(p.pos(st), c), i, nil
}

func (p *Parser) number(st int, lit number, neg bool) ast.NodeID {
	v, exact := Fixed(string(lit))

	if !exact {
		p.tr.Printw("number literal altered", "pos", p.pos(st).String(), "literal", string(lit), "value", v)
	}

	if neg {
		v = -v
	}

	return p.Tree.Add(p.pos(st), ast.Number{Value: v})
}

// pos is the position of the first token at or after off.
func (p *Parser) pos(off int) ast.Pos {
	if next, err := p.skip(off); err == nil {
		off = next
	}

	return p.rawPos(off)
}

func (p *Parser) rawPos(off int) ast.Pos {
	l := sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > off }) - 1
	if l < 0 {
		l = 0
	}

	return ast.Pos{
		File: p.file,
		Line: l + 1,
		Col:  off - p.lines[l] + 1,
	}
}

func (p *Parser) errorf(off int, format string, args ...any) error {
	return &Error{
		Pos: p.pos(off),
		Err: errors.New(format, args...),
	}
}

// errorAt is errorf for the tokenizer itself: off is used as is.
func (p *Parser) errorAt(off int, format string, args ...any) error {
	return &Error{
		Pos: p.rawPos(off),
		Err: errors.New(format, args...),
	}
}

func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
