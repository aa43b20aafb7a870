// Package frame lays out function activation frames.
//
// Frame of a function with n params and L locals, SFRAME pointing at the top:
//
//	0          this (run methods only, unused in global scripts)
//	t + j      local j
//	t + L + k  param n-1-k
//
// t is 1 for run methods and 0 otherwise.
package frame

import (
	"tlog.app/go/errors"

	"github.com/ntfwc/ZeldaClassic/compiler/zs"
)

type (
	Frame struct {
		// Size is what the function body pops on exit.
		Size int

		offsets map[int]int
	}

	// Layout computes frames on demand and caches them for the compile.
	Layout struct {
		frames map[*zs.Function]*Frame
	}
)

var ErrNoBody = errors.New("function has no body scope")

func New() *Layout {
	return &Layout{
		frames: map[*zs.Function]*Frame{},
	}
}

// FrameSize is the oracle the generator asks.
func (l *Layout) FrameSize(f *zs.Function) (int, bool) {
	fr, err := l.Frame(f)
	if err != nil {
		return 0, false
	}

	return fr.Size, true
}

// RootFrameSize is the frame global initializers run in.
// Globals live in GD registers, so nothing is needed on the stack.
func (l *Layout) RootFrameSize(p *zs.Program) (int, bool) {
	return 0, true
}

// Offset returns the SFRAME offset of d inside f.
func (l *Layout) Offset(f *zs.Function, d zs.Datum) (int, bool) {
	fr, err := l.Frame(f)
	if err != nil {
		return 0, false
	}

	off, ok := fr.offsets[d.ID()]

	return off, ok
}

func (l *Layout) Frame(f *zs.Function) (*Frame, error) {
	if fr, ok := l.frames[f]; ok {
		return fr, nil
	}

	if f.Scope == nil {
		return nil, errors.Wrap(ErrNoBody, "%v", f.Signature())
	}

	isParam := map[int]bool{}
	for _, d := range f.ParamData {
		isParam[d.ID()] = true
	}

	var locals []zs.Datum

	var walk func(s *zs.Scope)
	walk = func(s *zs.Scope) {
		for _, d := range s.LocalData() {
			if _, ok := d.(*zs.Variable); ok && !isParam[d.ID()] {
				locals = append(locals, d)
			}
		}

		for _, c := range s.Children() {
			walk(c)
		}
	}

	walk(f.Scope)

	this := 0
	if f.IsRun() {
		this = 1
	}

	n := len(f.ParamData)
	fr := &Frame{
		Size:    this + n + len(locals),
		offsets: make(map[int]int, this+n+len(locals)),
	}

	if f.This != nil {
		fr.offsets[f.This.ID()] = 0
	}

	for j, d := range locals {
		fr.offsets[d.ID()] = this + j
	}

	for i, d := range f.ParamData {
		fr.offsets[d.ID()] = this + len(locals) + n - 1 - i
	}

	l.frames[f] = fr

	return fr, nil
}
