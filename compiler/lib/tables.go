package lib

import (
	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/tp"
)

func ret(code ...asm.Instr) []asm.Instr {
	return append(code, asm.PopR(asm.EXP2), asm.GotoR(asm.EXP2))
}

var Global = &Table{
	Name: "global",
	Ref:  NoRef,
	Entries: []Entry{
		{Name: "Trace", Ret: tp.Void, Params: []tp.Type{tp.Float}, Body: ret(
			asm.PopR(asm.EXP2),
			asm.Op1(asm.TRACER, asm.EXP2),
		)},
		{Name: "Waitframe", Ret: tp.Void, Body: ret(
			asm.New(asm.WAITFRAME),
		)},
		{Name: "Quit", Ret: tp.Void, Body: []asm.Instr{
			asm.Quit(),
		}},
		{Name: "Rand", Ret: tp.Float, Params: []tp.Type{tp.Float}, Body: ret(
			asm.PopR(asm.EXP2),
			asm.Op2(asm.RNDR, asm.EXP1, asm.EXP2),
		)},
		{Name: "Abs", Ret: tp.Float, Params: []tp.Type{tp.Float}, Body: ret(
			asm.PopR(asm.EXP1),
			asm.Op1(asm.ABS, asm.EXP1),
		)},
		{Name: "Max", Ret: tp.Float, Params: []tp.Type{tp.Float, tp.Float}, Body: ret(
			asm.PopR(asm.EXP2),
			asm.PopR(asm.EXP1),
			asm.Op2(asm.MAXR, asm.EXP1, asm.EXP2),
		)},
		{Name: "Min", Ret: tp.Float, Params: []tp.Type{tp.Float, tp.Float}, Body: ret(
			asm.PopR(asm.EXP2),
			asm.PopR(asm.EXP1),
			asm.Op2(asm.MINR, asm.EXP1, asm.EXP2),
		)},
	},
}

var Link = &Table{
	Name:  "link",
	Class: tp.Link,
	Ref:   NoRef,
	Consts: []Const{
		{Name: "Link", Type: tp.Link},
	},
	Entries: accessors(
		field{"X", tp.Float, asm.LINKX},
		field{"Y", tp.Float, asm.LINKY},
		field{"Dir", tp.Float, asm.LINKDIR},
		field{"HP", tp.Float, asm.LINKHP},
	),
}

var Screen = &Table{
	Name:  "screen",
	Class: tp.Screen,
	Ref:   NoRef,
	Consts: []Const{
		{Name: "Screen", Type: tp.Screen},
	},
	Entries: accessors(
		field{"RoomType", tp.Float, asm.ROOMTYPE},
		field{"Wavy", tp.Float, asm.WAVY},
		field{"Quake", tp.Float, asm.QUAKE},
	),
}

var FFC = &Table{
	Name:  "ffc",
	Class: tp.FFC,
	Ref:   asm.REFFFC,
	Entries: accessors(
		field{"X", tp.Float, asm.FFCX},
		field{"Y", tp.Float, asm.FFCY},
		field{"Data", tp.Float, asm.FFCDATA},
	),
}

var ItemClass = &Table{
	Name:  "itemclass",
	Class: tp.ItemClass,
	Ref:   asm.REFITEMCLASS,
	Entries: accessors(
		field{"Power", tp.Float, asm.IDATAPOWER},
		field{"Level", tp.Float, asm.IDATALEVEL},
		field{"Family", tp.Float, asm.IDATAFAMILY},
	),
}

type field struct {
	name string
	typ  tp.Type
	reg  asm.Reg
}

// accessors makes a getter and a setter per field.
func accessors(fs ...field) []Entry {
	r := make([]Entry, 0, 2*len(fs))

	for _, f := range fs {
		r = append(r,
			Entry{Name: f.name, Kind: Getter, Ret: f.typ, Var: f.reg},
			Entry{Name: f.name, Kind: Setter, Ret: f.typ, Var: f.reg},
		)
	}

	return r
}
