package pallas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutAddNameSharesTransitions(t *testing.T) {
	a := EmptyLayout.AddName(Intern("x"))
	b := EmptyLayout.AddName(Intern("x"))
	assert.Same(t, a, b, "adding the same name from the same parent must reuse the cached child")
	assert.Equal(t, 0, a.LookupName(Intern("x")))
	assert.Equal(t, -1, a.LookupName(Intern("y")))
}

func TestLayoutAddNameDivergesOnOrder(t *testing.T) {
	xy := EmptyLayout.AddName(Intern("x")).AddName(Intern("y"))
	yx := EmptyLayout.AddName(Intern("y")).AddName(Intern("x"))
	assert.NotSame(t, xy, yx, "adding names in a different order must produce distinct layouts")
	assert.Equal(t, 0, xy.LookupName(Intern("x")))
	assert.Equal(t, 1, xy.LookupName(Intern("y")))
	assert.Equal(t, 0, yx.LookupName(Intern("y")))
	assert.Equal(t, 1, yx.LookupName(Intern("x")))
}

func TestLayoutMaybeAddNameNoOpWhenPresent(t *testing.T) {
	l := EmptyLayout.AddName(Intern("x"))
	same := l.MaybeAddName(Intern("x"))
	assert.Same(t, l, same)
}

func TestLayoutSubsumes(t *testing.T) {
	base := EmptyLayout.AddName(Intern("x"))
	derived := base.AddName(Intern("y"))

	assert.True(t, derived.Subsumes(base))
	assert.True(t, derived.Subsumes(EmptyLayout))
	assert.False(t, base.Subsumes(derived))
	assert.True(t, base.Subsumes(base))
}

func TestLayoutSlotCount(t *testing.T) {
	assert.Equal(t, 0, EmptyLayout.SlotCount())
	l := EmptyLayout.AddName(Intern("a")).AddName(Intern("b")).AddName(Intern("c"))
	assert.Equal(t, 3, l.SlotCount())
}

func TestLayoutNamesInSlotOrder(t *testing.T) {
	l := EmptyLayout.AddName(Intern("first")).AddName(Intern("second"))
	names := l.names()
	assert.Equal(t, []Name{Intern("first"), Intern("second")}, names)
}

func TestLayoutManySiblings(t *testing.T) {
	// Forces the layoutChildren single->many promotion by adding three
	// distinct attributes from the same parent.
	base := EmptyLayout.AddName(Intern("shared"))
	a := base.AddName(Intern("a"))
	b := base.AddName(Intern("b"))
	c := base.AddName(Intern("c"))
	assert.NotSame(t, a, b)
	assert.NotSame(t, b, c)
	assert.Same(t, a, base.AddName(Intern("a")))
	assert.Same(t, b, base.AddName(Intern("b")))
	assert.Same(t, c, base.AddName(Intern("c")))
}
