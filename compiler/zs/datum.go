package zs

import (
	"github.com/ntfwc/ZeldaClassic/compiler/ast"
	"github.com/ntfwc/ZeldaClassic/compiler/tp"
)

type (
	// Datum is anything the symbol table tracks as a value or storage:
	// Literal, Variable, BuiltinVariable, Constant or BuiltinConstant.
	Datum interface {
		ID() int
		Scope() *Scope
		Type() tp.Type

		// Name is empty for anonymous data.
		Name() string

		// Node is the declaring node, ast.Nil for builtins.
		Node() ast.NodeID
	}

	datum struct {
		scope *Scope
		typ   tp.Type
		id    int
	}

	slot struct {
		global int
		ok     bool
	}

	Literal struct {
		datum
		node  ast.NodeID
		Value int
	}

	Variable struct {
		datum
		slot
		node ast.NodeID
		name string
	}

	BuiltinVariable struct {
		datum
		slot
		name string
	}

	Constant struct {
		datum
		node  ast.NodeID
		name  string
		Value int
	}

	BuiltinConstant struct {
		datum
		name  string
		Value int
	}
)

func (d *datum) ID() int          { return d.id }
func (d *datum) Scope() *Scope    { return d.scope }
func (d *datum) Type() tp.Type    { return d.typ }
func (d *datum) Node() ast.NodeID { return ast.Nil }
func (d *datum) Name() string     { return "" }

// GlobalSlot is the global slot id the datum lives in.
func (s *slot) GlobalSlot() (int, bool) { return s.global, s.ok }

func (d *Literal) Node() ast.NodeID { return d.node }

func (d *Variable) Node() ast.NodeID { return d.node }
func (d *Variable) Name() string     { return d.name }

func (d *BuiltinVariable) Name() string { return d.name }

func (d *Constant) Node() ast.NodeID { return d.node }
func (d *Constant) Name() string     { return d.name }

func (d *BuiltinConstant) Name() string { return d.name }

func newDatum(s *Scope, typ tp.Type) datum {
	return datum{
		scope: s,
		typ:   typ,
		id:    s.prog.ids.Var(),
	}
}

func newSlot(s *Scope) slot {
	if s.IsGlobal() || s.IsScript() {
		return slot{global: s.prog.ids.Global(), ok: true}
	}

	return slot{}
}

// NewLiteral adds an anonymous literal to s.
func NewLiteral(s *Scope, node ast.NodeID, typ tp.Type, value int) (*Literal, error) {
	d := &Literal{
		datum: newDatum(s, typ),
		node:  node,
		Value: value,
	}

	return d, s.addDatum(d)
}

// NewVariable declares a variable in s. Variables at global or
// script scope get a global slot.
func NewVariable(s *Scope, node ast.NodeID, name string, typ tp.Type) (*Variable, error) {
	d := &Variable{
		datum: newDatum(s, typ),
		slot:  newSlot(s),
		node:  node,
		name:  name,
	}

	if err := s.addDatum(d); err != nil {
		return nil, err
	}

	return d, nil
}

func NewBuiltinVariable(s *Scope, name string, typ tp.Type) (*BuiltinVariable, error) {
	d := &BuiltinVariable{
		datum: newDatum(s, typ),
		slot:  newSlot(s),
		name:  name,
	}

	if err := s.addDatum(d); err != nil {
		return nil, err
	}

	return d, nil
}

func NewConstant(s *Scope, node ast.NodeID, name string, typ tp.Type, value int) (*Constant, error) {
	d := &Constant{
		datum: newDatum(s, typ),
		node:  node,
		name:  name,
		Value: value,
	}

	if err := s.addDatum(d); err != nil {
		return nil, err
	}

	return d, nil
}

func NewBuiltinConstant(s *Scope, name string, typ tp.Type, value int) (*BuiltinConstant, error) {
	d := &BuiltinConstant{
		datum: newDatum(s, typ),
		name:  name,
		Value: value,
	}

	if err := s.addDatum(d); err != nil {
		return nil, err
	}

	return d, nil
}

// IsGlobal reports whether d is named data living at global or script scope.
func IsGlobal(d Datum) bool {
	s := d.Scope()

	return (s.IsGlobal() || s.IsScript()) && d.Name() != ""
}

// GlobalSlot returns the global slot of a variable, if it has one.
func GlobalSlot(d Datum) (int, bool) {
	if g, ok := d.(interface{ GlobalSlot() (int, bool) }); ok {
		return g.GlobalSlot()
	}

	return 0, false
}

// ConstValue returns the value of a constant datum.
func ConstValue(d Datum) (int, bool) {
	switch d := d.(type) {
	case *Constant:
		return d.Value, true
	case *BuiltinConstant:
		return d.Value, true
	case *Literal:
		return d.Value, true
	}

	return 0, false
}
