package pallas

// Cell is the interface every heap-managed Pallas value implements: Object,
// Class, Layout and BigInt. Frames and native payloads are not Cells. Cells embed a
// cellHeader and are registered with the heap at allocation time.
type Cell interface {
	trace(t *Tracer)
	header() *cellHeader
}

// cellHeader carries the 2-epoch liveness tag used by the mark-sweep
// collector. Cells with the previous epoch's tag at sweep time die.
type cellHeader struct {
	epoch int8
}

// Tracer is passed to a Cell's trace method; the cell calls Visit once per
// outgoing reference so the collector can follow the object graph.
type Tracer struct {
	m *marker
}

func (t *Tracer) Visit(c Cell) {
	if c == nil {
		return
	}
	t.m.mark(c)
}

type marker struct {
	epoch    int8
	prevEpoch int8
	stack    []Cell
}

func (m *marker) mark(c Cell) {
	h := c.header()
	if h.epoch == m.prevEpoch {
		h.epoch = m.epoch
		m.stack = append(m.stack, c)
	}
}

func (m *marker) drain() {
	t := &Tracer{m: m}
	for len(m.stack) > 0 {
		c := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		c.trace(t)
	}
}

// sweeper is implemented by cells that must detach themselves from live
// structure before being freed, e.g. Layout removing itself from its live
// parent's children map.
type sweeper interface {
	sweep()
}

// heap owns every cell ever allocated plus the intrusive root list. It is a
// package singleton: the interpreter is single-threaded and has exactly one
// heap, matching the teacher's `gc` namespace of free functions.
type heap struct {
	cells    []Cell
	rootList *rootNode

	epoch     int8
	prevEpoch int8

	collectAt    int
	minCollectAt int
	growthFactor int

	sweeping bool
}

var theHeap = newHeap()

func newHeap() *heap {
	return &heap{
		epoch:        1,
		prevEpoch:    2,
		collectAt:    4096,
		minCollectAt: 4096,
		growthFactor: 2,
	}
}

// Configure applies gc.* knobs from a Config, letting the host tune
// collection pressure without recompiling.
func (h *heap) Configure(cfg Config) {
	h.minCollectAt = cfg.GetInt("gc.min_collect_at")
	h.growthFactor = cfg.GetInt("gc.growth_factor")
	h.collectAt = len(h.cells) * h.growthFactor
	if h.collectAt < h.minCollectAt {
		h.collectAt = h.minCollectAt
	}
}

// alloc registers a newly constructed cell with the current epoch and
// triggers a collection first if the heap has grown past its threshold.
func (h *heap) alloc(c Cell) {
	if len(h.cells) >= h.collectAt {
		h.collect()
	}
	c.header().epoch = h.epoch
	h.cells = append(h.cells, c)
}

func (h *heap) cellCount() int { return len(h.cells) }

// collect runs one full stop-the-world mark-sweep pass: advance the epoch,
// mark everything reachable from roots, partition the cell list into live
// and dying, sweep the dying cells (giving them a chance to detach from
// live structure), then drop them and reschedule the next collection.
func (h *heap) collect() {
	before := len(h.cells)
	h.prevEpoch = h.epoch
	h.epoch++
	if h.epoch > 2 {
		h.epoch = 1
	}

	m := &marker{epoch: h.epoch, prevEpoch: h.prevEpoch}
	t := &Tracer{m: m}
	for r := h.rootList; r != nil; r = r.next {
		r.trace(t)
	}
	m.drain()

	h.sweeping = true
	live := h.cells[:0]
	var dying []Cell
	for _, c := range h.cells {
		if c.header().epoch == h.epoch {
			live = append(live, c)
		} else {
			dying = append(dying, c)
		}
	}
	for _, c := range dying {
		if s, ok := c.(sweeper); ok {
			s.sweep()
		}
	}
	h.cells = live
	h.sweeping = false

	next := int(float64(len(h.cells)) * float64(h.growthFactor))
	if next < h.minCollectAt {
		next = h.minCollectAt
	}
	h.collectAt = next

	if GCTrace != nil {
		GCTrace(before, len(h.cells))
	}
}

// GCTrace, if non-nil, is invoked once per collection with the live cell
// counts observed immediately before and after — the hook the CLI's -lg
// flag installs to log GC phases.
var GCTrace func(before, after int)

// CollectGarbage forces an immediate collection. Exposed for tests.
func CollectGarbage() { theHeap.collect() }

// CellCount reports how many live cells the heap currently holds.
func CellCount() int { return theHeap.cellCount() }
