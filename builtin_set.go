package pallas

import "strings"

// setSlot is one member, boxed so the order list can splice out the exact
// entry add/remove found instead of re-matching Values by content.
type setSlot struct{ value Value }

// setData mirrors dictData's key encoding but stores only presence, the
// same relationship original_source/set.h bears to dict.h: a primitive
// fast path plus __hash__/__eq__ dispatch for object members.
type setData struct {
	fast    map[dictKey]*setSlot
	buckets map[int64][]*setSlot
	order   []*setSlot
}

func newSetData() *setData {
	return &setData{fast: map[dictKey]*setSlot{}, buckets: map[int64][]*setSlot{}}
}

func (s *setData) traceNative(t *Tracer) {
	for _, e := range s.order {
		if c, ok := e.value.asCell(); ok {
			t.Visit(c)
		}
	}
}
func (s *setData) isTrueNative() bool { return len(s.order) > 0 }
func (s *setData) displayStringNative() string {
	parts := make([]string, len(s.order))
	for i, e := range s.order {
		parts[i] = reprValue(e.value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s *setData) items() []Value {
	out := make([]Value, len(s.order))
	for i, e := range s.order {
		out[i] = e.value
	}
	return out
}

// findHashed looks v up among non-primitive members, returning the
// matching slot (nil if absent) and the hash, since add/remove both need
// the hash again to place into or splice out of the right bucket.
func (s *setData) findHashed(vm *VM, v Value) (*setSlot, int64, error) {
	h, err := dictKeyHash(vm, v)
	if err != nil {
		return nil, 0, err
	}
	for _, e := range s.buckets[h] {
		eq, err := dictKeysEqual(vm, e.value, v)
		if err != nil {
			return nil, h, err
		}
		if eq {
			return e, h, nil
		}
	}
	return nil, h, nil
}

func (s *setData) add(vm *VM, v Value) error {
	if fk, ok := fastDictKey(v); ok {
		if _, exists := s.fast[fk]; exists {
			return nil
		}
		e := &setSlot{value: v}
		s.fast[fk] = e
		s.order = append(s.order, e)
		return nil
	}
	e, h, err := s.findHashed(vm, v)
	if err != nil {
		return err
	}
	if e != nil {
		return nil
	}
	ne := &setSlot{value: v}
	s.buckets[h] = append(s.buckets[h], ne)
	s.order = append(s.order, ne)
	return nil
}

func (s *setData) contains(vm *VM, v Value) (bool, error) {
	if fk, ok := fastDictKey(v); ok {
		_, ok := s.fast[fk]
		return ok, nil
	}
	e, _, err := s.findHashed(vm, v)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

func (s *setData) remove(vm *VM, v Value) (bool, error) {
	if fk, ok := fastDictKey(v); ok {
		e, found := s.fast[fk]
		if !found {
			return false, nil
		}
		delete(s.fast, fk)
		s.removeFromOrder(e)
		return true, nil
	}
	e, h, err := s.findHashed(vm, v)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}
	bucket := s.buckets[h]
	for i, be := range bucket {
		if be == e {
			s.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	s.removeFromOrder(e)
	return true, nil
}

func (s *setData) removeFromOrder(e *setSlot) {
	for i, entry := range s.order {
		if entry == e {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

var SetClass = NewClass("set", ObjectClass)

// newSetObject builds a set from a `{...}` literal's already-evaluated
// elements, threading vm through so an object member without a primitive
// fast encoding still gets real __hash__/__eq__ dispatch during
// construction, same as the add() method.
func newSetObject(vm *VM, items []Value) (*Object, error) {
	o := NewObject(SetClass)
	sd := newSetData()
	for _, v := range items {
		if err := sd.add(vm, v); err != nil {
			return nil, err
		}
	}
	o.native = sd
	return o, nil
}

func asSet(o *Object) (*setData, bool) {
	sd, ok := o.native.(*setData)
	return sd, ok
}

func init() {
	registerMethod(SetClass, "add", 2, 2, func(vm *VM, args []Value) (Value, error) {
		sd, _ := asSet(args[0].AsObject())
		if err := sd.add(vm, args[1]); err != nil {
			return None, err
		}
		return None, nil
	})
	registerMethod(SetClass, "remove", 2, 2, func(vm *VM, args []Value) (Value, error) {
		sd, _ := asSet(args[0].AsObject())
		ok, err := sd.remove(vm, args[1])
		if err != nil {
			return None, err
		}
		if !ok {
			return None, vm.raiseErrorf("KeyError", "%s", valueToDisplayString(args[1]))
		}
		return None, nil
	})
	registerMethod(SetClass, "__len__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		sd, _ := asSet(args[0].AsObject())
		return NewInt(int64(len(sd.order))), nil
	})
	registerMethod(SetClass, "__iter__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		sd, _ := asSet(args[0].AsObject())
		return NewObjectValue(newListIterator(sd.items())), nil
	})
}
