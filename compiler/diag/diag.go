// Package diag collects compile diagnostics keyed by source position.
package diag

import (
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/ntfwc/ZeldaClassic/compiler/ast"
)

type (
	// Code identifies a kind of compile error.
	// It is comparable, so errors.Is matches it through wrapping.
	Code int

	Diagnostic struct {
		Code Code
		Pos  ast.Pos
		Err  error

		From loc.PC
	}

	Sink struct {
		list []Diagnostic
	}

	Errors []Diagnostic
)

const (
	_ Code = iota

	CantOpenSource
	CantOpenImport
	ImportRecursion
	Syntax

	ScriptRedef
	ScriptBadType
	ScriptNoRun
	TooManyRun
	ScriptRunNotVoid

	VarRedef
	FuncRedef
	UndeclaredVar
	UndeclaredFunc
	AmbiguousCall
	BadType
	ConstAssign
	ConstInit
	NoMember

	TooManyGlobal
	Codegen

	numCodes
)

var messages = [numCodes]string{
	CantOpenSource:   "can't open source file",
	CantOpenImport:   "can't open import",
	ImportRecursion:  "import recursion limit reached",
	Syntax:           "syntax error",
	ScriptRedef:      "duplicate script name",
	ScriptBadType:    "bad script type",
	ScriptNoRun:      "script has no run function",
	TooManyRun:       "script has more than one run function",
	ScriptRunNotVoid: "run function must return void",
	VarRedef:         "variable redeclared",
	FuncRedef:        "function redeclared",
	UndeclaredVar:    "undeclared variable",
	UndeclaredFunc:   "undeclared function",
	AmbiguousCall:    "ambiguous function call",
	BadType:          "unknown type",
	ConstAssign:      "assignment to a constant",
	ConstInit:        "constant needs a literal initializer",
	NoMember:         "no such member",
	TooManyGlobal:    "too many global variables",
	Codegen:          "code generation failed",
}

func (c Code) Error() string {
	if c > 0 && c < numCodes {
		return messages[c]
	}

	return "unknown error"
}

// Report records a diagnostic. It never stops the caller:
// whoever owns the stage decides when to look at Failed.
func (s *Sink) Report(pos ast.Pos, code Code, format string, args ...any) {
	err := error(code)
	if format != "" {
		err = errors.Wrap(code, format, args...)
	}

	d := Diagnostic{
		Code: code,
		Pos:  pos,
		Err:  err,
		From: loc.Caller(1),
	}

	s.list = append(s.list, d)

	tlog.Printw("compile error", "pos", pos.String(), "code", int(code), "err", err, "from", d.From)
}

func (s *Sink) Failed() bool { return len(s.list) != 0 }

func (s *Sink) List() []Diagnostic { return s.list }

func (s *Sink) Codes() []Code {
	r := make([]Code, len(s.list))

	for i, d := range s.list {
		r[i] = d.Code
	}

	return r
}

// Err returns all diagnostics as one error, or nil.
func (s *Sink) Err() error {
	if len(s.list) == 0 {
		return nil
	}

	return Errors(append([]Diagnostic{}, s.list...))
}

func (d Diagnostic) Error() string {
	return d.Pos.String() + ": " + d.Err.Error()
}

func (e Errors) Error() string {
	var b strings.Builder

	for i, d := range e {
		if i != 0 {
			b.WriteByte('\n')
		}

		b.WriteString(d.Error())
	}

	return b.String()
}

func (e Errors) Unwrap() []error {
	r := make([]error, len(e))

	for i, d := range e {
		r[i] = d.Code
	}

	return r
}
