package pallas

// Class is itself an Object (so class-level attributes and methods live in
// its own slot vector, same storage machinery as any instance), plus a
// name and the list of base classes consulted in order when an instance's
// own slots don't have an attribute. Grounded on original_source's
// `Class : public Object` and spec.md's "Classes are themselves instances
// of a metaclass; all classes ultimately descend from object."
type Class struct {
	Object
	name        string
	bases       []*Class
	initLayout  *Layout
}

// ClassClass is the metaclass every Class instance belongs to.
// ObjectClass is the root of every class's base chain.
var (
	ClassClass  *Class
	ObjectClass *Class
	NoneClass   *Class
	BoolClass   *Class
	IntClass    *Class
	FloatClass  *Class
)

func init() {
	// ClassClass and ObjectClass are mutually bootstrapping: ClassClass's
	// own class is itself, and ObjectClass has no base.
	ClassClass = &Class{name: "type"}
	theHeap.alloc(ClassClass)
	ClassClass.class = ClassClass
	ClassClass.layout = EmptyLayout

	ObjectClass = NewClass("object", nil)
	ClassClass.bases = []*Class{ObjectClass}

	NoneClass = NewClass("NoneType", ObjectClass)
	BoolClass = NewClass("bool", ObjectClass)
	IntClass = NewClass("int", ObjectClass)
	FloatClass = NewClass("float", ObjectClass)
}

// NewClass allocates a new class with a single base (or no base, for
// `object` itself). Multiple inheritance is set up afterward by calling
// SetBases when a class statement lists more than one base expression.
func NewClass(name string, base *Class) *Class {
	c := &Class{name: name}
	c.class = ClassClass
	c.layout = EmptyLayout
	c.initLayout = EmptyLayout
	if base != nil {
		c.bases = []*Class{base}
	}
	theHeap.alloc(c)
	return c
}

func (c *Class) Name() string     { return c.name }
func (c *Class) Bases() []*Class  { return c.bases }
func (c *Class) SetBases(b []*Class) { c.bases = b }

// lookupAttr searches c's own attribute slots, then linearly searches each
// base class in declaration order (depth-first), matching spec.md's
// "linearly the class's bases" rule rather than a C3 MRO.
func (c *Class) lookupAttr(name Name) (Value, bool) {
	if slot := c.layout.LookupName(name); slot != -1 {
		return c.slots[slot], true
	}
	for _, base := range c.bases {
		if v, ok := base.lookupAttr(name); ok {
			return v, true
		}
	}
	return None, false
}

// instanceLayout returns the Layout new instances of c start from,
// before any per-instance attribute grows it further.
func (c *Class) instanceLayout() *Layout { return c.initLayout }

func (c *Class) trace(t *Tracer) {
	if c.class != nil {
		t.Visit(c.class)
	}
	if c.layout != nil {
		t.Visit(c.layout)
	}
	if c.initLayout != nil {
		t.Visit(c.initLayout)
	}
	for _, v := range c.slots {
		if cell, ok := v.asCell(); ok {
			t.Visit(cell)
		}
	}
	for _, b := range c.bases {
		t.Visit(b)
	}
}

func (c *Class) displayString() string { return "<class '" + c.name + "'>" }
