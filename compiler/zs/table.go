package zs

import (
	"github.com/ntfwc/ZeldaClassic/compiler/ast"
)

type (
	// Table binds syntax nodes to the semantic objects analysis resolved
	// them to. Nodes never point back.
	Table struct {
		data  map[ast.NodeID]Datum
		funcs map[ast.NodeID]*Function
		scope map[ast.NodeID]*Scope
	}
)

func NewTable() *Table {
	return &Table{
		data:  map[ast.NodeID]Datum{},
		funcs: map[ast.NodeID]*Function{},
		scope: map[ast.NodeID]*Scope{},
	}
}

// BindDatum records that node declares or refers to d.
func (t *Table) BindDatum(node ast.NodeID, d Datum) { t.data[node] = d }

func (t *Table) Datum(node ast.NodeID) (Datum, bool) {
	d, ok := t.data[node]
	return d, ok
}

// BindFunction records that node declares or calls f.
func (t *Table) BindFunction(node ast.NodeID, f *Function) { t.funcs[node] = f }

func (t *Table) Function(node ast.NodeID) (*Function, bool) {
	f, ok := t.funcs[node]
	return f, ok
}

// BindScope records the scope a block node opened.
func (t *Table) BindScope(node ast.NodeID, s *Scope) { t.scope[node] = s }

func (t *Table) Scope(node ast.NodeID) (*Scope, bool) {
	s, ok := t.scope[node]
	return s, ok
}
