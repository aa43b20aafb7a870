// Package back generates ZASM for an analyzed program and links it
// into one self-contained instruction array per script.
package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/diag"
	"github.com/ntfwc/ZeldaClassic/compiler/lib"
	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

type (
	// Oracle knows how big activation frames are.
	Oracle interface {
		FrameSize(f *zs.Function) (int, bool)
		RootFrameSize(p *zs.Program) (int, bool)
	}

	// Visitor generates code for a syntax node.
	// For a variable declaration it is the initialization,
	// for a function body the body without frame setup.
	Visitor interface {
		Generate(c *Context, node ast.NodeID) ([]asm.Instr, error)
	}

	Context struct {
		Program *zs.Program

		// Func is nil for global initializers.
		Func *zs.Function

		// Return is the label return statements jump to.
		Return int

		// Init is filled by the Visitor with code to run
		// before what it returns. Used for global initializers only.
		Init []asm.Instr
	}

	Generator struct {
		Oracle    Oracle
		Visitor   Visitor
		Providers []lib.Provider
		Sink      *diag.Sink
	}

	// Intermediate is generated code before linking.
	Intermediate struct {
		Init  []asm.Instr
		Funcs map[int][]asm.Instr

		Entries map[string]Entry
	}

	// Entry is where a script starts.
	Entry struct {
		Label  int
		Params int
		Kind   zs.ScriptKind
	}
)

var ErrCodegen = errors.New("code generation failed")

// Generate produces the global initializer and every function body.
// All of them are attempted before failing.
// Library code goes in first, so user functions win colliding labels.
func (g *Generator) Generate(ctx context.Context, p *zs.Program) (in *Intermediate, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "generate")
	defer tr.Finish("err", &err)

	in = &Intermediate{
		Funcs:   map[int][]asm.Instr{},
		Entries: map[string]Entry{},
	}

	failed := false

	in.Init, err = g.globalInit(p)
	if err != nil {
		failed = true
	}

	for _, l := range g.Providers {
		code, err := l.Generate(p.Global)
		if err != nil {
			return nil, errors.Wrap(err, "library")
		}

		for label, c := range code {
			in.Funcs[label] = c
		}
	}

	for _, f := range p.UserFunctions() {
		code, err := g.function(p, f)
		if err != nil {
			g.Sink.Report(p.Tree.Pos(f.Node), diag.Codegen, "%v: %v", f.Signature(), err)
			failed = true

			continue
		}

		if tr.If("dump_code") {
			tr.Printw("function", "name", f.Signature(), "label", f.Label(), "code", code)
		}

		in.Funcs[f.Label()] = code
	}

	if failed {
		return nil, ErrCodegen
	}

	for _, s := range p.Scripts {
		runs := s.Run()
		if len(runs) != 1 {
			return nil, errors.New("script %v: no single run", s.Name)
		}

		in.Entries[s.Name] = Entry{
			Label:  runs[0].Label(),
			Params: len(runs[0].Params),
			Kind:   s.Kind,
		}
	}

	return in, nil
}

func (g *Generator) globalInit(p *zs.Program) (code []asm.Instr, err error) {
	n, ok := g.Oracle.RootFrameSize(p)
	if !ok {
		g.Sink.Report(p.Tree.Pos(p.Node), diag.Codegen, "no root frame size")

		return nil, errors.New("no root frame size")
	}

	code = append(code, asm.SetV(asm.EXP1, 0))

	for i := 0; i < n; i++ {
		code = append(code, asm.PushR(asm.EXP1))
	}

	for _, v := range p.GlobalVariables() {
		c := &Context{
			Program: p,
			Return:  asm.NoLabel,
		}

		x, verr := g.Visitor.Generate(c, v.Node())
		if verr != nil {
			g.Sink.Report(p.Tree.Pos(v.Node()), diag.Codegen, "%v: %v", v.Name(), verr)

			if err == nil {
				err = errors.Wrap(verr, "%v", v.Name())
			}

			continue
		}

		code = append(code, c.Init...)
		code = append(code, x...)
	}

	for i := 0; i < n; i++ {
		code = append(code, asm.PopR(asm.EXP2))
	}

	if err != nil {
		return nil, err
	}

	return code, nil
}

func (g *Generator) function(p *zs.Program, f *zs.Function) (code []asm.Instr, err error) {
	size, ok := g.Oracle.FrameSize(f)
	if !ok {
		return nil, errors.New("no frame size")
	}

	body, ok := p.Tree.Node(f.Node).(ast.Func)
	if !ok {
		return nil, errors.New("function node expected")
	}

	run := f.IsRun()

	code = append(code, asm.SetV(asm.EXP1, 0).WithLabel(f.Label()))

	for i := f.ParamCount(); i < size; i++ {
		code = append(code, asm.PushR(asm.EXP1))
	}

	if run {
		switch f.Script().Kind {
		case zs.ItemScript:
			code = append(code, asm.SetR(asm.EXP2, asm.REFITEMCLASS))
		case zs.FFCScript:
			code = append(code, asm.SetR(asm.EXP2, asm.REFFFC))
		}

		// global scripts have no this, the slot is still taken
		code = append(code, asm.PushR(asm.EXP2))
	}

	code = append(code, asm.SetR(asm.SFRAME, asm.SP))

	c := &Context{
		Program: p,
		Func:    f,
		Return:  p.IDs().Label(),
	}

	x, err := g.Visitor.Generate(c, body.Body)
	if err != nil {
		return nil, err
	}

	code = append(code, x...)

	code = append(code, asm.SetV(asm.EXP2, 0).WithLabel(c.Return))

	for i := 0; i < size; i++ {
		code = append(code, asm.PopR(asm.EXP2))
	}

	if run {
		code = append(code, asm.Quit())
	} else {
		code = append(code, asm.PopR(asm.EXP2), asm.GotoR(asm.EXP2))
	}

	return code, nil
}
