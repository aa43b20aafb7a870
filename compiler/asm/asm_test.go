package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNoLabel(t *testing.T) {
	x := SetV(EXP1, 0)

	assert.False(t, x.HasLabel())
	assert.True(t, x.WithLabel(0).HasLabel())
	assert.Equal(t, "SETV EXP1,0.0000", x.String())
}

func TestRefsAndRelabel(t *testing.T) {
	x := SetL(EXP1, 7).WithLabel(3)

	var refs []int
	x.Refs(func(l int) { refs = append(refs, l) })
	assert.Equal(t, []int{7}, refs)

	y := x
	y.Relabel(func(l int) int { return l * 10 })

	assert.Equal(t, 70, y.B.Value)
	assert.Equal(t, 3, y.Label, "own label is untouched")
	assert.Equal(t, 7, x.B.Value, "copies do not alias")

	g := Goto(5)
	refs = refs[:0]
	g.Refs(func(l int) { refs = append(refs, l) })
	assert.Equal(t, []int{5}, refs)

	p := PushR(EXP1)
	p.Refs(func(l int) { t.Errorf("unexpected label ref %d", l) })
}

func TestRegNames(t *testing.T) {
	assert.Equal(t, "SFRAME", SFRAME.String())
	assert.Equal(t, "GD0", GD(0).String())
	assert.Equal(t, "GD255", GD(255).String())
	assert.Equal(t, "A1", ArgRegs[8].String())
	assert.Len(t, ArgRegs, 9)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "PUSHR D3", PushR(D3).String())
	assert.Equal(t, "GOTO 12", Goto(12).String())
	assert.Equal(t, "QUIT", Quit().String())
	assert.Equal(t, "SETV EXP2,-1.5000", SetV(EXP2, -15000).String())
	assert.Equal(t, "LOADD EXP1,2.0000", LoadD(EXP1, 2).String())

	code := []Instr{
		SetV(EXP1, 0).WithLabel(4),
		Goto(1),
	}

	assert.Equal(t, "    1 l4     SETV EXP1,0.0000\n    2        GOTO 1\n", string(Listing(nil, code)))
}
