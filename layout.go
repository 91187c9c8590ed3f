package pallas

// Layout is a node in the hidden-class tree: it maps an attribute name to a
// slot index by recording the single step taken to reach it from its
// parent, and objects share a Layout node for as long as they have added
// attributes in the same order. Grounded 1:1 on the original interpreter's
// Layout (a parent pointer, one name, and a map of children keyed by the
// next name to be added).
type Layout struct {
	cellHeader
	parent *Layout
	name   Name
	slot   int
	children layoutChildren
}

// layoutChildren mirrors the original's single/many split: most Layouts
// have exactly one child, so the common case avoids allocating a map.
type layoutChildren struct {
	single *Layout
	many   map[Name]*Layout
}

func (c *layoutChildren) get(name Name) *Layout {
	if c.many != nil {
		return c.many[name]
	}
	if c.single != nil && c.single.name.Equal(name) {
		return c.single
	}
	return nil
}

func (c *layoutChildren) add(l *Layout) {
	if c.many != nil {
		c.many[l.name] = l
		return
	}
	if c.single == nil {
		c.single = l
		return
	}
	c.many = map[Name]*Layout{c.single.name: c.single, l.name: l}
	c.single = nil
}

func (c *layoutChildren) remove(name Name) {
	if c.many != nil {
		delete(c.many, name)
		return
	}
	if c.single != nil && c.single.name.Equal(name) {
		c.single = nil
	}
}

// EmptyLayout is the root of every Layout tree: the layout of an object
// with no attributes yet.
var EmptyLayout = &Layout{slot: -1}

func init() {
	theHeap.alloc(EmptyLayout)
}

func (l *Layout) SlotCount() int { return l.slot + 1 }

// hasName reports whether l itself (not an ancestor) was created by adding
// name — i.e. whether name is the Layout's own most-recently-added name.
func (l *Layout) hasName(name Name) bool {
	return l != EmptyLayout && l.name.Equal(name)
}

// findAncestor walks from l toward the root looking for the Layout that
// added name, returning nil if none did.
func (l *Layout) findAncestor(name Name) *Layout {
	for layout := l; layout != EmptyLayout; layout = layout.parent {
		if layout.name.Equal(name) {
			return layout
		}
	}
	return nil
}

// LookupName returns the slot index name occupies, or -1 if no ancestor
// added it.
func (l *Layout) LookupName(name Name) int {
	if layout := l.findAncestor(name); layout != nil {
		return layout.slot
	}
	return -1
}

// AddName returns the child Layout reached by adding name to l, creating
// and caching it the first time this exact transition is taken from l.
func (l *Layout) AddName(name Name) *Layout {
	if child := l.children.get(name); child != nil {
		return child
	}
	child := &Layout{parent: l, name: name, slot: l.slot + 1}
	l.children.add(child)
	theHeap.alloc(child)
	return child
}

// MaybeAddName is AddName, but a no-op if l already carries name.
func (l *Layout) MaybeAddName(name Name) *Layout {
	if l.hasName(name) || l.findAncestor(name) != nil {
		return l
	}
	return l.AddName(name)
}

// Subsumes reports whether other is l or one of l's ancestors, i.e.
// whether every attribute other's objects have, l's objects also have in
// the same slots.
func (l *Layout) Subsumes(other *Layout) bool {
	if other == EmptyLayout {
		return true
	}
	for layout := l; layout != EmptyLayout; layout = layout.parent {
		if layout == other {
			return true
		}
	}
	return false
}

func (l *Layout) trace(t *Tracer) {
	if l.parent != nil {
		t.Visit(l.parent)
	}
}

func (l *Layout) header() *cellHeader { return &l.cellHeader }

// sweep detaches a dying Layout from its parent's children map, but only if
// the parent is itself still alive — a dying parent will be swept too and
// its whole children map discarded with it.
func (l *Layout) sweep() {
	if l.parent != nil && l.parent.header().epoch == theHeap.epoch {
		l.parent.children.remove(l.name)
	}
}

// names returns every attribute name from the root to l, in slot order,
// the order a dict view over an object iterates its keys in.
func (l *Layout) names() []Name {
	out := make([]Name, l.SlotCount())
	for layout := l; layout != EmptyLayout; layout = layout.parent {
		out[layout.slot] = layout.name
	}
	return out
}

func (l *Layout) String() string {
	s := "Layout{"
	first := true
	for layout := l; layout != EmptyLayout; layout = layout.parent {
		if !first {
			s += ", "
		}
		s += layout.name.String()
		first = false
	}
	return s + "}"
}
