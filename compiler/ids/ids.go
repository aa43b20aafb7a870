// Package ids mints the identifiers one compile hands out:
// variable ids, function ids, global slots and labels.
package ids

type (
	Allocator struct {
		vid int
		fid int
		gid int
		lid int
	}
)

// New returns an allocator in its initial state.
// Every compile session owns exactly one.
func New() *Allocator {
	return &Allocator{gid: 1}
}

func (a *Allocator) Var() (id int) {
	id = a.vid
	a.vid++

	return id
}

func (a *Allocator) Func() (id int) {
	id = a.fid
	a.fid++

	return id
}

// Global returns the next global slot. Slots start at 1.
func (a *Allocator) Global() (id int) {
	id = a.gid
	a.gid++

	return id
}

func (a *Allocator) Label() (id int) {
	id = a.lid
	a.lid++

	return id
}
