package zs

import (
	"tlog.app/go/errors"

	"github.com/ntfwc/ZeldaClassic/compiler/tp"
)

type (
	ScopeKind int

	Scope struct {
		Kind   ScopeKind
		Parent *Scope

		// Script is set on script scopes, Func on function scopes,
		// ClassType on class scopes.
		Script    *Script
		Func      *Function
		ClassType tp.Type

		prog *Program

		data   []Datum
		byName map[string]Datum

		funcs     []*Function
		funcsName map[string][]*Function

		children []*Scope
		classes  map[tp.Type]*Scope
	}
)

const (
	GlobalScope ScopeKind = iota
	ScriptScope
	FuncScope
	BlockScope
	ClassScope
)

var (
	ErrRedef = errors.New("redefinition")
)

func newScope(p *Program, parent *Scope, kind ScopeKind) *Scope {
	s := &Scope{
		Kind:      kind,
		Parent:    parent,
		prog:      p,
		byName:    map[string]Datum{},
		funcsName: map[string][]*Function{},
	}

	if parent != nil {
		parent.children = append(parent.children, s)
	}

	return s
}

func (s *Scope) Program() *Program { return s.prog }

func (s *Scope) IsGlobal() bool { return s.Kind == GlobalScope }
func (s *Scope) IsScript() bool { return s.Kind == ScriptScope }

// NewChild opens a nested block scope.
func (s *Scope) NewChild() *Scope {
	return newScope(s.prog, s, BlockScope)
}

// Class returns the member scope of pointer type t, creating it on first use.
// Class scopes hang off the global scope.
func (s *Scope) Class(t tp.Type) *Scope {
	g := s
	for g.Parent != nil {
		g = g.Parent
	}

	if c, ok := g.classes[t]; ok {
		return c
	}

	c := newScope(g.prog, g, ClassScope)
	c.ClassType = t

	if g.classes == nil {
		g.classes = map[tp.Type]*Scope{}
	}

	g.classes[t] = c

	return c
}

// Function returns the function whose body s belongs to, if any.
func (s *Scope) Function() *Function {
	for ; s != nil; s = s.Parent {
		if s.Kind == FuncScope {
			return s.Func
		}
	}

	return nil
}

func (s *Scope) addDatum(d Datum) error {
	name := d.Name()

	if name != "" {
		if _, ok := s.byName[name]; ok {
			return errors.Wrap(ErrRedef, "%v", name)
		}

		s.byName[name] = d
	}

	s.data = append(s.data, d)

	return nil
}

// AddFunction declares f here. A function with the same name and
// parameter types is a redefinition.
func (s *Scope) AddFunction(f *Function) error {
	for _, g := range s.funcsName[f.Name] {
		if sameParams(f.Params, g.Params) {
			return errors.Wrap(ErrRedef, "%v", f.Signature())
		}
	}

	s.funcs = append(s.funcs, f)
	s.funcsName[f.Name] = append(s.funcsName[f.Name], f)

	return nil
}

// LocalData returns data declared directly in s in declaration order.
func (s *Scope) LocalData() []Datum { return s.data }

// LocalFunctions returns functions declared directly in s.
// With a name, only functions of that name.
func (s *Scope) LocalFunctions(name ...string) []*Function {
	if len(name) == 0 {
		return s.funcs
	}

	return s.funcsName[name[0]]
}

func (s *Scope) Children() []*Scope { return s.children }

// LookupDatum resolves name from s outwards.
func (s *Scope) LookupDatum(name string) (Datum, bool) {
	for ; s != nil; s = s.Parent {
		if d, ok := s.byName[name]; ok {
			return d, true
		}
	}

	return nil, false
}

// LookupFunctions returns the overloads of the innermost scope
// declaring name.
func (s *Scope) LookupFunctions(name string) []*Function {
	for ; s != nil; s = s.Parent {
		if fs := s.funcsName[name]; len(fs) != 0 {
			return fs
		}
	}

	return nil
}

func sameParams(a, b []tp.Type) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
