package pallas

// sliceData is the native payload behind a standalone slice value built by
// calling the `slice` builtin directly (as opposed to the `a[i:j:k]` syntax,
// which lowers straight to sliceInstr without ever allocating one of
// these). Grounded on original_source/slice.h's Slice (three optional
// bounds), kept as a first-class object so a slice built once can be
// reused as a subscript key, matching spec.md's built-in name list.
type sliceData struct {
	start, stop, step Value
}

func (s *sliceData) traceNative(t *Tracer) {
	for _, v := range []Value{s.start, s.stop, s.step} {
		if c, ok := v.asCell(); ok {
			t.Visit(c)
		}
	}
}

func (s *sliceData) displayStringNative() string {
	return "slice(" + valueToDisplayString(s.start) + ", " + valueToDisplayString(s.stop) + ", " + valueToDisplayString(s.step) + ")"
}

var SliceClass = NewClass("slice", ObjectClass)

func newSliceObject(start, stop, step Value) *Object {
	o := NewObject(SliceClass)
	o.native = &sliceData{start: start, stop: stop, step: step}
	return o
}

func asSlice(o *Object) (*sliceData, bool) {
	sd, ok := o.native.(*sliceData)
	return sd, ok
}

func init() {
	// slice(stop), slice(start, stop) and slice(start, stop, step) mirror
	// the arities the `a[i:j:k]` syntax itself allows to stay unset.
	registerMethod(SliceClass, "__init__", 2, 4, func(vm *VM, args []Value) (Value, error) {
		self := args[0].AsObject()
		rest := args[1:]
		start, stop, step := None, None, None
		switch len(rest) {
		case 1:
			stop = rest[0]
		case 2:
			start, stop = rest[0], rest[1]
		case 3:
			start, stop, step = rest[0], rest[1], rest[2]
		}
		self.native = &sliceData{start: start, stop: stop, step: step}
		return None, nil
	})
	registerMethod(SliceClass, "indices", 2, 2, func(vm *VM, args []Value) (Value, error) {
		sd, _ := asSlice(args[0].AsObject())
		if !args[1].IsInt() {
			return None, vm.raiseErrorf("TypeError", "indices() requires an integer length")
		}
		length := int(args[1].AsInt64())
		lo, hi, stride := sliceBounds(sd.start, sd.stop, sd.step, length)
		return NewObjectValue(newTupleObject([]Value{NewInt(int64(lo)), NewInt(int64(hi)), NewInt(int64(stride))})), nil
	})
}
