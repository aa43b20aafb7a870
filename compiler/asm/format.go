package asm

import (
	"github.com/nikandfor/hacked/hfmt"
)

// Append appends x in ZASM text form, without the label column.
func Append(b []byte, x Instr) []byte {
	b = append(b, x.Op.String()...)

	for i, a := range [2]Arg{x.A, x.B} {
		if a.Kind == None {
			break
		}

		if i == 0 {
			b = append(b, ' ')
		} else {
			b = append(b, ',')
		}

		b = a.append(b)
	}

	return b
}

// Listing appends code one instruction per line.
// Lines are numbered from 1, matching resolved label positions.
func Listing(b []byte, code []Instr) []byte {
	for i, x := range code {
		b = hfmt.Appendf(b, "%5d ", i+1)

		if x.HasLabel() {
			b = hfmt.Appendf(b, "l%-5d ", x.Label)
		} else {
			b = append(b, "       "...)
		}

		b = Append(b, x)
		b = append(b, '\n')
	}

	return b
}

func (a Arg) append(b []byte) []byte {
	switch a.Kind {
	case RegArg:
		return append(b, Reg(a.Value).String()...)
	case LitArg:
		return AppendFixed(b, a.Value)
	case LabelArg:
		return hfmt.Appendf(b, "%d", a.Value)
	}

	return b
}

// AppendFixed formats a fixed-point value with four decimal places.
func AppendFixed(b []byte, v int) []byte {
	if v < 0 {
		b = append(b, '-')
		v = -v
	}

	return hfmt.Appendf(b, "%d.%04d", v/10000, v%10000)
}
