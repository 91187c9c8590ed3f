package pallas

// dictViewData exposes an Object's own attribute slots as a dict-like
// view, built by newDictView; no builtin function or attribute lookup
// returns one. It reads and writes slots directly through the
// object's Layout rather than maintaining a separate hash map, and
// remembers the Layout pointer it last saw so a cached name lookup can
// be invalidated the instant the object gains a new attribute and
// grows to a child Layout.
//
// Grounded on spec.md §4.7's DictView contract.
type dictViewData struct {
	target *Object

	cachedLayout *Layout
	cachedNames  []Name
}

func newDictView(target *Object) *Object {
	o := NewObject(DictViewClass)
	o.native = &dictViewData{target: target}
	return o
}

var DictViewClass = NewClass("dict_view", ObjectClass)

func (dv *dictViewData) traceNative(t *Tracer) { t.Visit(dv.target) }

func (dv *dictViewData) names() []Name {
	if dv.cachedLayout == dv.target.layout && dv.cachedNames != nil {
		return dv.cachedNames
	}
	dv.cachedLayout = dv.target.layout
	dv.cachedNames = dv.target.layout.names()
	return dv.cachedNames
}

func (dv *dictViewData) get(name Name) (Value, bool) {
	if slot := dv.target.layout.LookupName(name); slot != -1 {
		return dv.target.slots[slot], true
	}
	return None, false
}

func (dv *dictViewData) set(name Name, v Value) {
	dv.target.setAttr(name, v)
}

// delete overwrites name's slot with None and reports whether name was
// present. The view's cached names are left as they are, so name still
// appears in them, and, matching the Open Question decision in
// DESIGN.md, the underlying layout
// slot allocated: shrinking a Layout tree in place would require the
// same parent-detach care `sweep` uses during GC, not an eager
// in-place removal from a live object.
func (dv *dictViewData) delete(name Name) bool {
	if dv.target.layout.LookupName(name) == -1 {
		return false
	}
	dv.target.slots[dv.target.layout.LookupName(name)] = None
	return true
}

func (dv *dictViewData) displayStringNative() string {
	names := dv.names()
	parts := make([]string, len(names))
	for i, n := range names {
		v, _ := dv.get(n)
		parts[i] = "'" + n.String() + "': " + reprValue(v)
	}
	out := "{"
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out + "}"
}

func init() {
	registerMethod(DictViewClass, "keys", 1, 1, func(vm *VM, args []Value) (Value, error) {
		dv, _ := args[0].AsObject().native.(*dictViewData)
		names := dv.names()
		out := make([]Value, len(names))
		for i, n := range names {
			out[i] = NewObjectValue(newStringObject(n.String()))
		}
		return NewObjectValue(newListObject(out)), nil
	})
	registerMethod(DictViewClass, "get", 2, 3, func(vm *VM, args []Value) (Value, error) {
		dv, _ := args[0].AsObject().native.(*dictViewData)
		name, _ := valueAsGoString(args[1])
		if v, ok := dv.get(Intern(name)); ok {
			return v, nil
		}
		if len(args) == 3 {
			return args[2], nil
		}
		return None, nil
	})
}
