package pallas

// Object is the single representation behind every instance in the
// language, including built-in containers: a class pointer, a Layout
// pointer describing where each attribute lives in slots, the slot vector
// itself, and an optional native payload for types that need more than
// named attributes (List's backing slice, Dict's hash table, a
// GeneratorIter's suspended frame, ...). Grounded on the original
// interpreter's Object (cls, layout, slots) generalized with the native
// field the original expressed instead as dedicated C++ subclasses.
type Object struct {
	cellHeader
	class  *Class
	layout *Layout
	slots  []Value
	native interface{}

	// id is a monotonically increasing allocation-order number, used as
	// the default identity hash (ObjectClass's __hash__) for instances
	// that don't override it. Go addresses aren't a safe hash source
	// (they're meaningless to the language and the GC never moves an
	// Object anyway, but nothing should depend on incidental memory
	// layout), so this sidesteps that entirely.
	id int64
}

var nextObjectID int64

// NewObject allocates an instance of cls with an empty layout.
func NewObject(cls *Class) *Object {
	return NewObjectWithLayout(cls, EmptyLayout)
}

func NewObjectWithLayout(cls *Class, layout *Layout) *Object {
	nextObjectID++
	o := &Object{class: cls, layout: layout, id: nextObjectID}
	theHeap.alloc(o)
	return o
}

// nativeTracer lets a built-in container's native payload mark the Values
// it holds outside the ordinary attribute slots (a List's elements, a
// Dict's keys and values, ...).
type nativeTracer interface {
	traceNative(t *Tracer)
}

// nativeBooler lets a built-in container override truthiness by size
// (empty list/dict/tuple/set is false) instead of the "always true"
// default for plain objects.
type nativeBooler interface {
	isTrueNative() bool
}

// nativeStringer lets a built-in container control its display string
// instead of falling back to the class-name default.
type nativeStringer interface {
	displayStringNative() string
}

func (o *Object) trace(t *Tracer) {
	if o.class != nil {
		t.Visit(o.class)
	}
	if o.layout != nil {
		t.Visit(o.layout)
	}
	for _, v := range o.slots {
		if c, ok := v.asCell(); ok {
			t.Visit(c)
		}
	}
	if nt, ok := o.native.(nativeTracer); ok {
		nt.traceNative(t)
	}
}

func (o *Object) header() *cellHeader { return &o.cellHeader }

func (o *Object) isTrue() bool {
	if nb, ok := o.native.(nativeBooler); ok {
		return nb.isTrueNative()
	}
	return true
}

func (o *Object) displayString() string {
	if ns, ok := o.native.(nativeStringer); ok {
		return ns.displayStringNative()
	}
	if o.class != nil {
		return "<" + o.class.name + " object>"
	}
	return "<object>"
}

// getAttr looks up name in o's own slots first, falling back to the
// class's attribute/method dictionary (which itself walks the base-class
// chain), matching Object::getProp's own-then-class order.
func (o *Object) getAttr(name Name) (Value, bool) {
	if slot := o.layout.LookupName(name); slot != -1 {
		return o.slots[slot], true
	}
	if o.class != nil {
		return o.class.lookupAttr(name)
	}
	return None, false
}

func (o *Object) getAttrByName(name string) (Value, bool) {
	return o.getAttr(Intern(name))
}

// setAttr assigns name, growing the slot vector and advancing to a child
// Layout the first time name is seen on this object.
func (o *Object) setAttr(name Name, v Value) {
	slot := o.layout.LookupName(name)
	if slot == -1 {
		o.layout = o.layout.AddName(name)
		slot = len(o.slots)
		o.slots = append(o.slots, None)
	}
	o.slots[slot] = v
}

func (o *Object) setAttrByName(name string, v Value) {
	o.setAttr(Intern(name), v)
}

// hasOwnAttr reports whether name was assigned directly on o (not merely
// inherited through the class chain).
func (o *Object) hasOwnAttr(name Name) bool {
	return o.layout.LookupName(name) != -1
}

func init() {
	// Every class's default equality/hash is identity-based, matching
	// spec.md §4.7's dict/set key contract: Dict maps value->value through
	// a __hash__/__eq__ dispatch, and a class that doesn't override either
	// still needs both to exist so it can be used as a key at all.
	registerMethod(ObjectClass, "__eq__", 2, 2, func(vm *VM, args []Value) (Value, error) {
		return NewBool(sameIdentity(args[0], args[1])), nil
	})
	registerMethod(ObjectClass, "__hash__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		o := args[0].AsObject()
		if o == nil {
			return NewInt(0), nil
		}
		return NewInt(o.id), nil
	})
}
