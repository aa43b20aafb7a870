package back

import (
	"context"
	"sort"

	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ntfwc/ZeldaClassic/compiler/asm"
	"github.com/ntfwc/ZeldaClassic/compiler/set"
	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

type (
	// Scripts is the compiled output: self-contained code per script.
	Scripts struct {
		Code  map[string][]asm.Instr
		Kinds map[string]zs.ScriptKind
	}

	labels struct {
		heap.Heap[int]
	}
)

// InitScript holds the global initializers.
// A global script named Init is run right after them.
const InitScript = "~Init"

var ErrUnresolved = errors.New("unresolved label")

// Assemble links every script with the functions it reaches.
// in is consumed.
func Assemble(ctx context.Context, in *Intermediate) (out *Scripts, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "assemble", "scripts", len(in.Entries), "funcs", len(in.Funcs))
	defer tr.Finish("err", &err)

	out = &Scripts{
		Code:  map[string][]asm.Instr{},
		Kinds: map[string]zs.ScriptKind{},
	}

	boot := in.Init

	if e, ok := in.Entries["Init"]; ok && e.Kind == zs.GlobalScript {
		boot = append(boot[:len(boot):len(boot)], asm.Goto(e.Label))
	}

	out.Code[InitScript], err = assembleOne(tr, boot, in.Funcs, 0)
	if err != nil {
		return nil, errors.Wrap(err, "%v", InitScript)
	}

	out.Kinds[InitScript] = zs.GlobalScript

	names := make([]string, 0, len(in.Entries))
	for name := range in.Entries {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		e := in.Entries[name]

		code, ok := in.Funcs[e.Label]
		if !ok {
			return nil, errors.Wrap(ErrUnresolved, "%v: entry %d", name, e.Label)
		}

		out.Code[name], err = assembleOne(tr, code, in.Funcs, e.Params)
		if err != nil {
			return nil, errors.Wrap(err, "%v", name)
		}

		out.Kinds[name] = e.Kind

		if tr.If("dump_scripts") {
			tr.Printw("script", "name", name, "kind", e.Kind, "size", len(out.Code[name]))
		}
	}

	in.Init = nil
	in.Funcs = nil
	in.Entries = nil

	return out, nil
}

func assembleOne(tr tlog.Span, script []asm.Instr, funcs map[int][]asm.Instr, params int) (r []asm.Instr, err error) {
	for i := 0; i < params; i++ {
		reg := asm.EXP1
		if i < len(asm.ArgRegs) {
			reg = asm.ArgRegs[i]
		}

		r = append(r, asm.PushR(reg))
	}

	reach := Closure(script, funcs)

	if tr.If("closure") {
		tr.Printw("closure", "labels", reach)
	}

	r = append(r, script...)

	reach.Range(func(l int) bool {
		r = append(r, funcs[l]...)

		return true
	})

	pos := map[int]int{}

	for i, x := range r {
		if x.HasLabel() {
			pos[x.Label] = i + 1
		}
	}

	for i := range r {
		r[i].Relabel(func(l int) int {
			p, ok := pos[l]
			if !ok && err == nil {
				err = errors.Wrap(ErrUnresolved, "%d", l)
			}

			return p
		})
	}

	if err != nil {
		return nil, err
	}

	return r, nil
}

// Closure returns labels of every function in funcs reachable from code,
// directly or through other functions.
func Closure(code []asm.Instr, funcs map[int][]asm.Instr) set.Bits[int] {
	seen := set.MakeBits[int]()
	reach := set.MakeBits[int]()

	q := labels{Heap: heap.Heap[int]{Less: func(d []int, i, j int) bool { return d[i] < d[j] }}}

	scan := func(code []asm.Instr) {
		for _, x := range code {
			x.Refs(func(l int) {
				if seen.Add(l) {
					q.Push(l)
				}
			})
		}
	}

	scan(code)

	for q.Len() != 0 {
		l := q.Pop()

		body, ok := funcs[l]
		if !ok {
			continue
		}

		reach.Set(l)

		scan(body)
	}

	return reach
}
