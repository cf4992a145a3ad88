package fcheck

import (
	"git.fractalqb.de/fractalqb/icontainer/islist"
)

// scopeGroup is a region of the output text. Only the last group of a run is
// open, i.e. has no end.
type scopeGroup struct {
	start, end int
	closed     bool
	// reached is the end of the last match accepted in this group
	reached int
	next    *scopeGroup
}

// ListNext to implement intrusive singly linked list
func (g *scopeGroup) ListNext() islist.Node {
	if g.next == nil {
		return nil
	}
	return g.next
}

// SetListNext to implement intrusive singly linked list
func (g *scopeGroup) SetListNext(n islist.Node) {
	if n == nil {
		g.next = nil
	} else {
		g.next = n.(*scopeGroup)
	}
}

// scopes tracks the regions opened and closed by label directives.
type scopes struct {
	groups *islist.List
	open   *scopeGroup
}

func newScopes() *scopes {
	g := &scopeGroup{start: 0, reached: 0}
	return &scopes{groups: islist.New(g), open: g}
}

// admissible reports whether a match starting at s lies outside all closed
// groups.
func (sc *scopes) admissible(s int) bool {
	for g := sc.groups.Front().(*scopeGroup); g != nil; g = g.next {
		if g.closed && s >= g.start && s < g.end {
			return false
		}
	}
	return true
}

// accept records the end of an accepted match in the open group.
func (sc *scopes) accept(end int) {
	if end > sc.open.reached {
		sc.open.reached = end
	}
}

// close ends the open group at the position reached in it.
func (sc *scopes) close() {
	sc.open.end = sc.open.reached
	sc.open.closed = true
}

// label opens a new group at the start of a label match. The previous group
// must have been closed before.
func (sc *scopes) label(start int) {
	g := &scopeGroup{start: start, reached: start}
	sc.groups.PushBack(g)
	sc.open = g
}

func (sc *scopes) len() int { return sc.groups.Len() }
