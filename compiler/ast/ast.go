// Package ast is the syntax arena.
//
// Nodes live in a Tree and refer to each other by NodeID.
// Semantic objects refer to nodes the same way; nothing points back.
package ast

import (
	"fmt"
)

type (
	NodeID int

	Node interface{}

	Pos struct {
		File string
		Line int
		Col  int
	}

	Tree struct {
		nodes []Node
		pos   []Pos
	}

	// Program is a parsed file. Imports are consumed by preprocessing,
	// after which everything imported is merged into Scripts and Decls.
	Program struct {
		Imports []NodeID
		Scripts []NodeID
		Decls   []NodeID
	}

	Import struct {
		Path string
	}

	Script struct {
		Kind  string
		Name  string
		Decls []NodeID
	}

	Func struct {
		Ret    string
		Name   string
		Params []NodeID // Var
		Body   NodeID
	}

	Var struct {
		Type  string
		Name  string
		Const bool
		Init  NodeID
	}

	Block struct {
		Stmts []NodeID
	}

	If struct {
		Cond NodeID
		Then NodeID
		Else NodeID
	}

	While struct {
		Cond NodeID
		Body NodeID
	}

	Return struct {
		Value NodeID
	}

	Assign struct {
		Target NodeID
		Value  NodeID
	}

	ExprStmt struct {
		X NodeID
	}

	// Number is a fixed-point literal: 1.5 is 15000.
	Number struct {
		Value int
	}

	Bool struct {
		Value bool
	}

	Ident struct {
		Name string
	}

	Call struct {
		Name string
		Args []NodeID
	}

	Arrow struct {
		Left  NodeID
		Field string
	}

	Binary struct {
		Op   string
		L, R NodeID
	}
)

const Nil NodeID = -1

func NewTree() *Tree {
	return &Tree{}
}

func (t *Tree) Add(pos Pos, n Node) NodeID {
	id := NodeID(len(t.nodes))

	t.nodes = append(t.nodes, n)
	t.pos = append(t.pos, pos)

	return id
}

func (t *Tree) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}

	return t.nodes[id]
}

func (t *Tree) Pos(id NodeID) Pos {
	if id < 0 || int(id) >= len(t.pos) {
		return Pos{}
	}

	return t.pos[id]
}

func (t *Tree) Len() int { return len(t.nodes) }

// Program returns the program node id refers to, or nil.
func (t *Tree) Program(id NodeID) *Program {
	p, _ := t.Node(id).(*Program)
	return p
}

// Merge moves everything src declares into dst.
// Imports are not carried over: src must be preprocessed already.
func (t *Tree) Merge(dst, src NodeID) {
	d, s := t.Program(dst), t.Program(src)

	d.Scripts = append(d.Scripts, s.Scripts...)
	d.Decls = append(d.Decls, s.Decls...)

	s.Scripts = nil
	s.Decls = nil
}

func (p Pos) String() string {
	if p.File == "" && p.Line == 0 {
		return "-"
	}

	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}
