// Package zs is the semantic model of one compile:
// the program, its scripts, functions, data and scopes.
//
// Semantic objects refer to syntax by ast.NodeID.
// The Table maps the other way.
package zs

import (
	"strings"

	"tlog.app/go/errors"

	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/ids"
	"github.com/ntfwc/ZeldaClassic/compiler/tp"
)

type (
	ScriptKind int

	Program struct {
		Tree *ast.Tree
		Node ast.NodeID

		Table  *Table
		Global *Scope

		Scripts []*Script
		byName  map[string]*Script

		ids *ids.Allocator
	}

	Script struct {
		Node  ast.NodeID
		Name  string
		Kind  ScriptKind
		Scope *Scope
	}

	Function struct {
		Node ast.NodeID

		// Scope is the function's own scope; its parent is
		// where the function is declared.
		Scope *Scope

		// This is the hidden pointer of item and ffc run methods.
		This Datum

		Ret       tp.Type
		Name      string
		Params    []tp.Type
		ParamData []Datum

		ID int

		label    int
		labelSet bool
	}
)

const (
	InvalidScript ScriptKind = iota
	GlobalScript
	ItemScript
	FFCScript
)

var ErrScriptRedef = errors.New("script redefinition")

// ParseScriptKind maps a script kind keyword.
func ParseScriptKind(s string) ScriptKind {
	switch s {
	case "global":
		return GlobalScript
	case "item":
		return ItemScript
	case "ffc":
		return FFCScript
	}

	return InvalidScript
}

func (k ScriptKind) String() string {
	switch k {
	case GlobalScript:
		return "global"
	case ItemScript:
		return "item"
	case FFCScript:
		return "ffc"
	}

	return "invalid"
}

func NewProgram(tree *ast.Tree, node ast.NodeID, a *ids.Allocator) *Program {
	p := &Program{
		Tree:   tree,
		Node:   node,
		Table:  NewTable(),
		byName: map[string]*Script{},
		ids:    a,
	}

	p.Global = newScope(p, nil, GlobalScope)

	return p
}

func (p *Program) IDs() *ids.Allocator { return p.ids }

// AddScript declares a script with its own scope under the global one.
// A second script with the same name is an error and is not added.
func (p *Program) AddScript(node ast.NodeID, name string, kind ScriptKind) (*Script, error) {
	if _, ok := p.byName[name]; ok {
		return nil, errors.Wrap(ErrScriptRedef, "%v", name)
	}

	s := &Script{
		Node: node,
		Name: name,
		Kind: kind,
	}

	s.Scope = newScope(p, p.Global, ScriptScope)
	s.Scope.Script = s

	p.Scripts = append(p.Scripts, s)
	p.byName[name] = s

	return s, nil
}

func (p *Program) Script(name string) (*Script, bool) {
	s, ok := p.byName[name]
	return s, ok
}

// GlobalVariables returns variables with a global slot:
// global scope first, then each script scope, in declaration order.
func (p *Program) GlobalVariables() (r []*Variable) {
	add := func(s *Scope) {
		for _, d := range s.LocalData() {
			if v, ok := d.(*Variable); ok {
				r = append(r, v)
			}
		}
	}

	add(p.Global)

	for _, s := range p.Scripts {
		add(s.Scope)
	}

	return r
}

// UserFunctions returns every function declared in source,
// in scope-tree order.
func (p *Program) UserFunctions() (r []*Function) {
	var walk func(s *Scope)

	walk = func(s *Scope) {
		for _, f := range s.LocalFunctions() {
			if f.Node != ast.Nil {
				r = append(r, f)
			}
		}

		for _, c := range s.Children() {
			walk(c)
		}
	}

	walk(p.Global)

	return r
}

// NewFunction declares a function in s.
// Its body scope is created as a child of s.
func (p *Program) NewFunction(s *Scope, node ast.NodeID, ret tp.Type, name string, params []tp.Type) (*Function, error) {
	f := &Function{
		Node:   node,
		Ret:    ret,
		Name:   name,
		Params: params,
	}

	err := s.AddFunction(f)
	if err != nil {
		return nil, err
	}

	f.ID = p.ids.Func()

	f.Scope = newScope(p, s, FuncScope)
	f.Scope.Func = f

	return f, nil
}

// Run returns the script's run functions.
// A valid script has exactly one.
func (s *Script) Run() []*Function {
	return s.Scope.LocalFunctions("run")
}

// Label is allocated on first use and stays the same for the compile.
func (f *Function) Label() int {
	if !f.labelSet {
		f.label = f.Scope.prog.ids.Label()
		f.labelSet = true
	}

	return f.label
}

func (f *Function) Script() *Script {
	if f.Scope == nil || f.Scope.Parent == nil {
		return nil
	}

	return f.Scope.Parent.Script
}

func (f *Function) IsRun() bool {
	return f.Scope != nil && f.Scope.Parent != nil && f.Scope.Parent.IsScript() &&
		f.Name == "run" && f.Ret == tp.Void
}

func (f *Function) IsBuiltin() bool { return f.Node == ast.Nil }

// ParamCount is the number of values the caller supplies,
// plus the hidden this of run methods.
func (f *Function) ParamCount() int {
	n := len(f.Params)

	if f.IsRun() {
		n++
	}

	return n
}

func (f *Function) Signature() string {
	var b strings.Builder

	b.WriteString(f.Name)
	b.WriteByte('(')

	for i, t := range f.Params {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(t.String())
	}

	b.WriteByte(')')

	return b.String()
}
