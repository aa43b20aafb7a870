// Package lib holds the built-in function libraries scripts can call.
//
// A library registers its signatures before analysis and later
// generates one instruction block per function, keyed by the function label.
package lib

import (
	"tlog.app/go/errors"

	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/tp"
	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

type (
	Provider interface {
		Register(s *zs.Scope) error
		Generate(s *zs.Scope) (map[int][]asm.Instr, error)
	}

	Kind int

	// Entry is one library function.
	// Getters and setters are members of Class named get<Name> and set<Name>.
	Entry struct {
		Name string
		Kind Kind

		Ret    tp.Type
		Params []tp.Type

		// Var is the engine register a getter reads or a setter writes.
		Var asm.Reg

		// Body of a plain function, without the entry label.
		// It starts with the arguments on the stack and the return address under them.
		Body []asm.Instr
	}

	Const struct {
		Name  string
		Type  tp.Type
		Value int
	}

	// Table is a stateless Provider.
	Table struct {
		Name string

		// Class members go to, tp.Invalid for free functions.
		Class tp.Type

		// Ref is loaded from the pointer argument before the member register
		// is touched, NoRef if the class has a single instance.
		Ref asm.Reg

		Consts  []Const
		Entries []Entry
	}
)

const (
	Function Kind = iota
	Getter
	Setter
)

const NoRef asm.Reg = -1

var ErrNotRegistered = errors.New("not registered")

// Default is every library, in the order their code is merged.
var Default = []Provider{Global, Link, Screen, FFC, ItemClass}

func (t *Table) Register(s *zs.Scope) (err error) {
	p := s.Program()

	for _, c := range t.Consts {
		_, err = zs.NewBuiltinConstant(s, c.Name, c.Type, c.Value)
		if err != nil {
			return errors.Wrap(err, "%v: constant", t.Name)
		}
	}

	for _, e := range t.Entries {
		name, ret, params := t.signature(e)

		_, err = p.NewFunction(t.scope(s), ast.Nil, ret, name, params)
		if err != nil {
			return errors.Wrap(err, "%v: function", t.Name)
		}
	}

	return nil
}

func (t *Table) Generate(s *zs.Scope) (map[int][]asm.Instr, error) {
	r := make(map[int][]asm.Instr, len(t.Entries))

	for _, e := range t.Entries {
		name, _, params := t.signature(e)

		f := find(t.scope(s), name, params)
		if f == nil {
			return nil, errors.Wrap(ErrNotRegistered, "%v: %v", t.Name, name)
		}

		var code []asm.Instr

		switch e.Kind {
		case Getter:
			code = append(code, asm.PopR(asm.EXP2))

			if t.Ref != NoRef {
				code = append(code, asm.SetR(t.Ref, asm.EXP2))
			}

			code = append(code, asm.SetR(asm.EXP1, e.Var))
		case Setter:
			code = append(code, asm.PopR(asm.EXP1), asm.PopR(asm.EXP2))

			if t.Ref != NoRef {
				code = append(code, asm.SetR(t.Ref, asm.EXP2))
			}

			code = append(code, asm.SetR(e.Var, asm.EXP1))
		default:
			code = append(code, e.Body...)
		}

		if e.Kind != Function {
			code = append(code, asm.PopR(asm.EXP2), asm.GotoR(asm.EXP2))
		}

		if len(code) == 0 {
			code = append(code, asm.Nop())
		}

		code[0] = code[0].WithLabel(f.Label())

		r[f.Label()] = code
	}

	return r, nil
}

func (t *Table) signature(e Entry) (name string, ret tp.Type, params []tp.Type) {
	switch e.Kind {
	case Getter:
		return "get" + e.Name, e.Ret, []tp.Type{t.Class}
	case Setter:
		return "set" + e.Name, tp.Void, []tp.Type{t.Class, e.Ret}
	}

	return e.Name, e.Ret, e.Params
}

func (t *Table) scope(s *zs.Scope) *zs.Scope {
	if t.Class == tp.Invalid {
		return s
	}

	return s.Class(t.Class)
}

func find(s *zs.Scope, name string, params []tp.Type) *zs.Function {
outer:
	for _, f := range s.LocalFunctions(name) {
		if len(f.Params) != len(params) {
			continue
		}

		for i := range params {
			if f.Params[i] != params[i] {
				continue outer
			}
		}

		return f
	}

	return nil
}
