package pallas

// rangeData is range's native payload: the three bounds a `range(...)`
// call was given, normalized to concrete ints once at construction time.
// Grounded on original_source/range.h's lazily-iterated Range, kept
// eager here (materializing into a listIterator on __iter__) since
// nothing in this design needs a range to stay unmaterialized.
type rangeData struct {
	start, stop, step int64
}

func (r *rangeData) displayStringNative() string {
	return "range(" + valueToDisplayString(NewInt(r.start)) + ", " + valueToDisplayString(NewInt(r.stop)) + ", " + valueToDisplayString(NewInt(r.step)) + ")"
}

func (r *rangeData) len() int {
	if r.step > 0 {
		if r.stop <= r.start {
			return 0
		}
		return int((r.stop - r.start + r.step - 1) / r.step)
	}
	if r.step < 0 {
		if r.stop >= r.start {
			return 0
		}
		return int((r.start - r.stop - r.step - 1) / -r.step)
	}
	return 0
}

func (r *rangeData) items() []Value {
	n := r.len()
	out := make([]Value, n)
	v := r.start
	for i := 0; i < n; i++ {
		out[i] = NewInt(v)
		v += r.step
	}
	return out
}

var RangeClass = NewClass("range", ObjectClass)

func newRangeObject(start, stop, step int64) *Object {
	o := NewObject(RangeClass)
	o.native = &rangeData{start: start, stop: stop, step: step}
	return o
}

func asRange(o *Object) (*rangeData, bool) {
	rd, ok := o.native.(*rangeData)
	return rd, ok
}

func init() {
	registerMethod(RangeClass, "__init__", 2, 4, func(vm *VM, args []Value) (Value, error) {
		self := args[0].AsObject()
		rest := args[1:]
		start, stop, step := int64(0), int64(0), int64(1)
		switch len(rest) {
		case 1:
			stop = rest[0].AsInt64()
		case 2:
			start, stop = rest[0].AsInt64(), rest[1].AsInt64()
		case 3:
			start, stop, step = rest[0].AsInt64(), rest[1].AsInt64(), rest[2].AsInt64()
		}
		if step == 0 {
			return None, vm.raiseErrorf("ValueError", "range() arg 3 must not be zero")
		}
		self.native = &rangeData{start: start, stop: stop, step: step}
		return None, nil
	})
	registerMethod(RangeClass, "__len__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		rd, _ := asRange(args[0].AsObject())
		return NewInt(int64(rd.len())), nil
	})
	registerMethod(RangeClass, "__iter__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		rd, _ := asRange(args[0].AsObject())
		return NewObjectValue(newListIterator(rd.items())), nil
	})
	registerMethod(RangeClass, "__getitem__", 2, 2, func(vm *VM, args []Value) (Value, error) {
		rd, _ := asRange(args[0].AsObject())
		items := rd.items()
		i := int(args[1].AsInt64())
		if i < 0 {
			i += len(items)
		}
		if i < 0 || i >= len(items) {
			return None, vm.raiseErrorf("IndexError", "range index out of range")
		}
		return items[i], nil
	})
}
