package asm

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	Op      int
	Reg     int
	ArgKind uint8

	Arg struct {
		Kind  ArgKind
		Value int
	}

	// Instr is a single ZASM instruction.
	// It is a plain value: copying it clones it.
	Instr struct {
		Op    Op
		Label int
		A, B  Arg
	}
)

const NoLabel = -1

// One is 1 in fixed-point literal form.
const One = 10000

const (
	None ArgKind = iota
	RegArg
	LitArg
	LabelArg
)

const (
	NOP Op = iota
	SETV
	SETR
	PUSHR
	POPR
	LOADD
	STORED
	ADDR
	SUBR
	MULTR
	DIVR
	COMPARER
	COMPAREV
	SETTRUE
	SETFALSE
	SETMORE
	SETLESS
	SETMOREI
	SETLESSI
	GOTO
	GOTOR
	GOTOTRUE
	GOTOFALSE
	QUIT
	TRACER
	WAITFRAME
	RNDR
	ABS
	MAXR
	MINR

	numOps
)

const (
	D0 Reg = iota
	D1
	D2
	D3
	D4
	D5
	D6
	D7
	A1
	A2
	SP
	SFRAME
	EXP1
	EXP2
	REFFFC
	REFITEMCLASS
	LINKX
	LINKY
	LINKDIR
	LINKHP
	FFCX
	FFCY
	FFCDATA
	IDATAPOWER
	IDATALEVEL
	IDATAFAMILY
	ROOMTYPE
	WAVY
	QUAKE

	numRegs
)

const (
	GD0 Reg = 1024

	NumGlobalRegs = 256
)

// ArgRegs hold the run arguments a script is started with.
var ArgRegs = [...]Reg{D0, D1, D2, D3, D4, D5, D6, D7, A1}

var opNames = [numOps]string{
	NOP:       "NOP",
	SETV:      "SETV",
	SETR:      "SETR",
	PUSHR:     "PUSHR",
	POPR:      "POPR",
	LOADD:     "LOADD",
	STORED:    "STORED",
	ADDR:      "ADDR",
	SUBR:      "SUBR",
	MULTR:     "MULTR",
	DIVR:      "DIVR",
	COMPARER:  "COMPARER",
	COMPAREV:  "COMPAREV",
	SETTRUE:   "SETTRUE",
	SETFALSE:  "SETFALSE",
	SETMORE:   "SETMORE",
	SETLESS:   "SETLESS",
	SETMOREI:  "SETMOREI",
	SETLESSI:  "SETLESSI",
	GOTO:      "GOTO",
	GOTOR:     "GOTOR",
	GOTOTRUE:  "GOTOTRUE",
	GOTOFALSE: "GOTOFALSE",
	QUIT:      "QUIT",
	TRACER:    "TRACER",
	WAITFRAME: "WAITFRAME",
	RNDR:      "RNDR",
	ABS:       "ABS",
	MAXR:      "MAXR",
	MINR:      "MINR",
}

var regNames = [numRegs]string{
	D0:           "D0",
	D1:           "D1",
	D2:           "D2",
	D3:           "D3",
	D4:           "D4",
	D5:           "D5",
	D6:           "D6",
	D7:           "D7",
	A1:           "A1",
	A2:           "A2",
	SP:           "SP",
	SFRAME:       "SFRAME",
	EXP1:         "EXP1",
	EXP2:         "EXP2",
	REFFFC:       "REFFFC",
	REFITEMCLASS: "REFITEMCLASS",
	LINKX:        "LINKX",
	LINKY:        "LINKY",
	LINKDIR:      "LINKDIR",
	LINKHP:       "LINKHP",
	FFCX:         "FFCX",
	FFCY:         "FFCY",
	FFCDATA:      "FFCDATA",
	IDATAPOWER:   "IDATAPOWER",
	IDATALEVEL:   "IDATALEVEL",
	IDATAFAMILY:  "IDATAFAMILY",
	ROOMTYPE:     "ROOMTYPE",
	WAVY:         "WAVY",
	QUAKE:        "QUAKE",
}

// GD returns the register backing global slot register n.
func GD(n int) Reg { return GD0 + Reg(n) }

func R(r Reg) Arg     { return Arg{Kind: RegArg, Value: int(r)} }
func Lit(v int) Arg   { return Arg{Kind: LitArg, Value: v} }
func Label(l int) Arg { return Arg{Kind: LabelArg, Value: l} }

func New(op Op, args ...Arg) Instr {
	x := Instr{Op: op, Label: NoLabel}

	switch len(args) {
	case 2:
		x.B = args[1]
		fallthrough
	case 1:
		x.A = args[0]
	case 0:
	default:
		panic("too many operands")
	}

	return x
}

func SetV(r Reg, v int) Instr { return New(SETV, R(r), Lit(v)) }
func SetL(r Reg, l int) Instr { return New(SETV, R(r), Label(l)) }
func SetR(dst, src Reg) Instr { return New(SETR, R(dst), R(src)) }
func PushR(r Reg) Instr       { return New(PUSHR, R(r)) }
func PopR(r Reg) Instr        { return New(POPR, R(r)) }
func LoadD(r Reg, off int) Instr {
	return New(LOADD, R(r), Lit(off*One))
}
func StoreD(r Reg, off int) Instr {
	return New(STORED, R(r), Lit(off*One))
}
func Goto(l int) Instr   { return New(GOTO, Label(l)) }
func GotoR(r Reg) Instr  { return New(GOTOR, R(r)) }
func Quit() Instr        { return New(QUIT) }
func Nop() Instr         { return New(NOP) }
func Op1(op Op, r Reg) Instr {
	return New(op, R(r))
}
func Op2(op Op, a, b Reg) Instr {
	return New(op, R(a), R(b))
}

func (x Instr) WithLabel(l int) Instr {
	x.Label = l

	return x
}

func (x Instr) HasLabel() bool { return x.Label != NoLabel }

// Refs calls f for every label operand.
func (x Instr) Refs(f func(l int)) {
	if x.A.Kind == LabelArg {
		f(x.A.Value)
	}

	if x.B.Kind == LabelArg {
		f(x.B.Value)
	}
}

// Relabel rewrites every label operand with f.
// The instruction's own label is left as is.
func (x *Instr) Relabel(f func(l int) int) {
	if x.A.Kind == LabelArg {
		x.A.Value = f(x.A.Value)
	}

	if x.B.Kind == LabelArg {
		x.B.Value = f(x.B.Value)
	}
}

func (op Op) String() string {
	if op >= 0 && op < numOps {
		return opNames[op]
	}

	return "OP?"
}

func (r Reg) String() string {
	switch {
	case r >= 0 && r < numRegs:
		return regNames[r]
	case r >= GD0 && r < GD0+NumGlobalRegs:
		return "GD" + strconv.Itoa(int(r-GD0))
	}

	return "R" + strconv.Itoa(int(r))
}

func (x Instr) String() string {
	return string(Append(nil, x))
}

func (x Instr) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	return e.AppendString(b, x.String())
}
