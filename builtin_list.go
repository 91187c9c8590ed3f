package pallas

import "strings"

// listData is the native payload behind list: a growable Value slice,
// grounded on original_source/list.h's ListBase::elements_.
type listData struct {
	items []Value
}

func (l *listData) traceNative(t *Tracer) {
	for _, v := range l.items {
		if c, ok := v.asCell(); ok {
			t.Visit(c)
		}
	}
}
func (l *listData) isTrueNative() bool { return len(l.items) > 0 }
func (l *listData) displayStringNative() string {
	return "[" + joinDisplay(l.items) + "]"
}

func joinDisplay(items []Value) string {
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = reprValue(v)
	}
	return strings.Join(parts, ", ")
}

// reprValue quotes strings the way a container's display form does,
// distinct from Value.String which prints a bare string unquoted.
func reprValue(v Value) string {
	if s, ok := valueAsGoString(v); ok {
		return "'" + s + "'"
	}
	return valueToDisplayString(v)
}

var ListClass = NewClass("list", ObjectClass)

func newListObject(items []Value) *Object {
	o := NewObject(ListClass)
	cp := make([]Value, len(items))
	copy(cp, items)
	o.native = &listData{items: cp}
	return o
}

func asList(o *Object) (*listData, bool) {
	ld, ok := o.native.(*listData)
	return ld, ok
}

// tupleData is list's immutable sibling; kept as a distinct Go type
// (rather than a "frozen" flag on listData) so TupleClass's methods
// can't accidentally be handed a mutable list.
type tupleData struct {
	items []Value
}

func (t *tupleData) traceNative(tr *Tracer) {
	for _, v := range t.items {
		if c, ok := v.asCell(); ok {
			tr.Visit(c)
		}
	}
}
func (t *tupleData) isTrueNative() bool          { return len(t.items) > 0 }
func (t *tupleData) displayStringNative() string { return "(" + joinDisplay(t.items) + ")" }

var TupleClass = NewClass("tuple", ObjectClass)

func newTupleObject(items []Value) *Object {
	o := NewObject(TupleClass)
	cp := make([]Value, len(items))
	copy(cp, items)
	o.native = &tupleData{items: cp}
	return o
}

func asTuple(o *Object) (*tupleData, bool) {
	td, ok := o.native.(*tupleData)
	return td, ok
}

// iterableToSlice materializes any iterable Value (list, tuple, set, or
// a user object implementing __iter__/__next__) into a Go slice, used
// by builtins that need every element up front (join, sorted, ...).
func iterableToSlice(vm *VM, v Value) ([]Value, error) {
	if o := v.AsObject(); o != nil {
		if ld, ok := asList(o); ok {
			return ld.items, nil
		}
		if td, ok := asTuple(o); ok {
			return td.items, nil
		}
		if sd, ok := asSet(o); ok {
			return sd.items(), nil
		}
		if s, ok := asString(o); ok {
			runes := []rune(s)
			out := make([]Value, len(runes))
			for i, r := range runes {
				out[i] = NewObjectValue(newStringObject(string(r)))
			}
			return out, nil
		}
	}
	return drainIterator(vm, v)
}

// drainIterator calls __iter__ once, then __next__ repeatedly until
// StopIteration, the general fallback for any object implementing the
// iterator protocol instead of being a built-in container.
func drainIterator(vm *VM, v Value) ([]Value, error) {
	iterFn, err := vm.getMethod(v, Intern("__iter__"))
	if err != nil {
		return nil, err
	}
	it, err := vm.call(iterFn, nil)
	if err != nil {
		return nil, err
	}
	var out []Value
	for {
		nextFn, err := vm.getMethod(it, Intern("__next__"))
		if err != nil {
			return nil, err
		}
		v, err := vm.call(nextFn, nil)
		if err != nil {
			if exc, isStop := asStopIteration(err); isStop {
				_ = exc
				return out, nil
			}
			return nil, err
		}
		out = append(out, v)
	}
}

func init() {
	registerMethod(ListClass, "append", 2, 2, func(vm *VM, args []Value) (Value, error) {
		ld, _ := asList(args[0].AsObject())
		ld.items = append(ld.items, args[1])
		return None, nil
	})
	registerMethod(ListClass, "pop", 1, 1, func(vm *VM, args []Value) (Value, error) {
		ld, _ := asList(args[0].AsObject())
		if len(ld.items) == 0 {
			return None, vm.raiseErrorf("IndexError", "pop from empty list")
		}
		v := ld.items[len(ld.items)-1]
		ld.items = ld.items[:len(ld.items)-1]
		return v, nil
	})
	registerMethod(ListClass, "__len__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		ld, _ := asList(args[0].AsObject())
		return NewInt(int64(len(ld.items))), nil
	})
	registerMethod(ListClass, "__iter__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		ld, _ := asList(args[0].AsObject())
		return NewObjectValue(newListIterator(ld.items)), nil
	})
	registerMethod(TupleClass, "__len__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		td, _ := asTuple(args[0].AsObject())
		return NewInt(int64(len(td.items))), nil
	})
	registerMethod(TupleClass, "__iter__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		td, _ := asTuple(args[0].AsObject())
		return NewObjectValue(newListIterator(td.items)), nil
	})
}

// listIteratorData is the native payload behind the plain sequence
// iterator list/tuple/str's __iter__ returns: a position cursor over a
// captured slice.
type listIteratorData struct {
	items []Value
	pos   int
}

func (li *listIteratorData) traceNative(t *Tracer) {
	for _, v := range li.items {
		if c, ok := v.asCell(); ok {
			t.Visit(c)
		}
	}
}

var ListIteratorClass = NewClass("list_iterator", ObjectClass)

func newListIterator(items []Value) *Object {
	o := NewObject(ListIteratorClass)
	o.native = &listIteratorData{items: items}
	return o
}

func init() {
	registerMethod(ListIteratorClass, "__iter__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		return args[0], nil
	})
	registerMethod(ListIteratorClass, "__next__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		li, _ := args[0].AsObject().native.(*listIteratorData)
		if li.pos >= len(li.items) {
			return None, vm.raiseStopIteration()
		}
		v := li.items[li.pos]
		li.pos++
		return v, nil
	})
}
