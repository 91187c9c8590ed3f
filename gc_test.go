package pallas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCCollectsUnreachableObjects(t *testing.T) {
	cfg := NewConfig()
	vm := NewVM(cfg)
	defer vm.Close()

	before := CellCount()
	for i := 0; i < 10; i++ {
		NewObject(ObjectClass)
	}
	CollectGarbage()
	after := CellCount()

	// Nothing rooted the ten objects just allocated, so the collection
	// must not leave the heap larger than it started (the VM's own
	// globals/frame roots are the only survivors).
	assert.LessOrEqual(t, after, before+1)
}

func TestGCKeepsRootedObjectAlive(t *testing.T) {
	cfg := NewConfig()
	vm := NewVM(cfg)
	defer vm.Close()

	obj := NewObject(ObjectClass)
	root := NewRoot(obj)
	defer root.Release()

	CollectGarbage()
	assert.Same(t, obj, root.Get())
}

func TestGCCellSliceRootsReachableValues(t *testing.T) {
	cfg := NewConfig()
	vm := NewVM(cfg)
	defer vm.Close()

	obj := NewObject(ObjectClass)
	slice := []Value{NewObjectValue(obj)}
	cs := NewCellSlice(&slice)
	defer cs.Release()

	CollectGarbage()

	require.Len(t, slice, 1)
	assert.Same(t, obj, slice[0].AsObject())
}

func TestGCAllocTriggersCollectionAtThreshold(t *testing.T) {
	cfg := NewConfig()
	cfg.SetInt("gc.min_collect_at", 8)
	cfg.SetInt("gc.growth_factor", 2)
	theHeap.Configure(cfg)
	defer theHeap.Configure(NewConfig())

	vm := NewVM(cfg)
	defer vm.Close()

	for i := 0; i < 50; i++ {
		NewObject(ObjectClass)
	}
	// Should not panic or grow unboundedly; a handful of live cells from
	// the VM's own globals is all that should remain reachable.
	assert.Less(t, CellCount(), 50)
}
