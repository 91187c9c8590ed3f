package pallas

// rootNode is one link in the heap's intrusive root list. Each Root holds
// its own node so registering/deregistering never allocates.
type rootNode struct {
	prev, next *rootNode
	trace      func(t *Tracer)
}

func (h *heap) addRoot(n *rootNode) {
	n.next = h.rootList
	n.prev = nil
	if n.next != nil {
		n.next.prev = n
	}
	h.rootList = n
}

func (h *heap) removeRoot(n *rootNode) {
	if n.next != nil {
		n.next.prev = n.prev
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		h.rootList = n.next
	}
	n.next, n.prev = nil, nil
}

// Root keeps a single Cell alive across collections for as long as the Root
// itself is reachable from Go's own stack/heap. Used for values that must
// survive a collection while they are not yet reachable from the VM's
// frame stack (e.g. a Layout being built up one addName call at a time
// during compilation).
type Root struct {
	cell Cell
	node rootNode
}

func NewRoot(c Cell) *Root {
	r := &Root{cell: c}
	r.node.trace = func(t *Tracer) { t.Visit(r.cell) }
	theHeap.addRoot(&r.node)
	return r
}

func (r *Root) Get() Cell   { return r.cell }
func (r *Root) Set(c Cell)  { r.cell = c }
func (r *Root) Release()    { theHeap.removeRoot(&r.node) }

// CellSlice roots every non-nil Cell in a slice that itself lives on the Go
// heap but is not itself a Cell. The slice header is captured by
// reference, so appends made through the same pointer are picked up on the
// next trace.
type CellSlice struct {
	cells *[]Value
	node  rootNode
}

// NewCellSlice roots a *[]Value, tracing every element that refers to a
// heap object each collection, instead of one Root per element. The VM
// does not use it: its frames are traced by the VM's own root.
func NewCellSlice(cells *[]Value) *CellSlice {
	r := &CellSlice{cells: cells}
	r.node.trace = func(t *Tracer) {
		for _, v := range *r.cells {
			if c, ok := v.asCell(); ok {
				t.Visit(c)
			}
		}
	}
	theHeap.addRoot(&r.node)
	return r
}

func (r *CellSlice) Release() { theHeap.removeRoot(&r.node) }
