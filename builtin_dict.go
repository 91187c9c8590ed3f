package pallas

import (
	"math"
	"strings"
)

// dictKey is the Go-comparable projection of a Value used to back the fast
// path of dict (and set) storage: content equality for None/bool/int/bigint
// /float/string, the primitive kinds spec.md's hash Open Question covers
// directly (hash(True) == hash(1)). Anything else — a plain object instance
// — has no fast encoding and is hashed/compared through the __hash__/__eq__
// dispatch instead (see dictData.findHashed below).
type dictKey struct {
	kind byte
	i    int64
	s    string
}

const (
	keyNone byte = iota
	keyNum
	keyFloat
	keyStr
)

// fastDictKey returns v's primitive encoding and true, or ok=false if v
// must instead go through the __hash__/__eq__ dispatch path.
func fastDictKey(v Value) (dictKey, bool) {
	switch {
	case v.IsNone():
		return dictKey{kind: keyNone}, true
	case v.IsBool():
		n := int64(0)
		if v.AsBool() {
			n = 1
		}
		return dictKey{kind: keyNum, i: n}, true
	case v.tag == tagInt:
		return dictKey{kind: keyNum, i: v.n}, true
	case v.isBigInt():
		return dictKey{kind: keyNum, s: "big:" + v.AsBigInt().String()}, true
	case v.IsFloat():
		return dictKey{kind: keyFloat, i: int64(math.Float64bits(v.AsFloat()))}, true
	}
	if s, ok := valueAsGoString(v); ok {
		return dictKey{kind: keyStr, s: s}, true
	}
	return dictKey{}, false
}

// dictKeyHash calls key's __hash__ method and requires it to return an int.
func dictKeyHash(vm *VM, key Value) (int64, error) {
	fn, err := vm.getMethod(key, Intern("__hash__"))
	if err != nil {
		return 0, err
	}
	v, err := vm.call(fn, nil)
	if err != nil {
		return 0, err
	}
	if !v.IsInt() {
		return 0, vm.raiseErrorf("TypeError", "__hash__ method should return an integer")
	}
	return v.AsInt64(), nil
}

// dictKeysEqual calls a's __eq__ method with b, the same dispatch a `==`
// expression uses.
func dictKeysEqual(vm *VM, a, b Value) (bool, error) {
	fn, err := vm.getMethod(a, Intern("__eq__"))
	if err != nil {
		return false, err
	}
	v, err := vm.call(fn, []Value{b})
	if err != nil {
		return false, err
	}
	return v.IsTrue(), nil
}

// dictSlot is one key/value pair, referenced by pointer from both the fast
// map or a hash bucket and the unified order list, so insertion order
// survives regardless of which path a key took.
type dictSlot struct {
	key   Value
	value Value
}

// dictData is a dict's native payload. Primitive keys (fastDictKey) go
// straight into the Go map fast; anything else is hashed via __hash__ and
// bucketed, with collisions broken by calling __eq__ — the dispatch
// spec.md §4.7 requires so that a class overriding __eq__ can be used as a
// dict key instead of always comparing by identity.
type dictData struct {
	fast    map[dictKey]*dictSlot
	buckets map[int64][]*dictSlot
	order   []*dictSlot
}

func newDictData() *dictData {
	return &dictData{fast: map[dictKey]*dictSlot{}, buckets: map[int64][]*dictSlot{}}
}

func (d *dictData) traceNative(t *Tracer) {
	for _, s := range d.order {
		if c, ok := s.key.asCell(); ok {
			t.Visit(c)
		}
		if c, ok := s.value.asCell(); ok {
			t.Visit(c)
		}
	}
}
func (d *dictData) isTrueNative() bool { return len(d.order) > 0 }

func (d *dictData) displayStringNative() string {
	parts := make([]string, 0, len(d.order))
	for _, s := range d.order {
		parts = append(parts, reprValue(s.key)+": "+reprValue(s.value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// findHashed looks key up among non-primitive keys, returning the matching
// slot (nil if none) and the hash it computed, since set/delete both need
// the hash again to place or remove from the right bucket.
func (d *dictData) findHashed(vm *VM, key Value) (*dictSlot, int64, error) {
	h, err := dictKeyHash(vm, key)
	if err != nil {
		return nil, 0, err
	}
	for _, s := range d.buckets[h] {
		eq, err := dictKeysEqual(vm, s.key, key)
		if err != nil {
			return nil, h, err
		}
		if eq {
			return s, h, nil
		}
	}
	return nil, h, nil
}

func (d *dictData) get(vm *VM, key Value) (Value, bool, error) {
	if fk, ok := fastDictKey(key); ok {
		if s, found := d.fast[fk]; found {
			return s.value, true, nil
		}
		return None, false, nil
	}
	s, _, err := d.findHashed(vm, key)
	if err != nil {
		return None, false, err
	}
	if s == nil {
		return None, false, nil
	}
	return s.value, true, nil
}

func (d *dictData) set(vm *VM, key, value Value) error {
	if fk, ok := fastDictKey(key); ok {
		if s, found := d.fast[fk]; found {
			s.value = value
			return nil
		}
		s := &dictSlot{key: key, value: value}
		d.fast[fk] = s
		d.order = append(d.order, s)
		return nil
	}
	s, h, err := d.findHashed(vm, key)
	if err != nil {
		return err
	}
	if s != nil {
		s.value = value
		return nil
	}
	ns := &dictSlot{key: key, value: value}
	d.buckets[h] = append(d.buckets[h], ns)
	d.order = append(d.order, ns)
	return nil
}

func (d *dictData) delete(vm *VM, key Value) (bool, error) {
	if fk, ok := fastDictKey(key); ok {
		s, found := d.fast[fk]
		if !found {
			return false, nil
		}
		delete(d.fast, fk)
		d.removeFromOrder(s)
		return true, nil
	}
	s, h, err := d.findHashed(vm, key)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}
	bucket := d.buckets[h]
	for i, e := range bucket {
		if e == s {
			d.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	d.removeFromOrder(s)
	return true, nil
}

func (d *dictData) removeFromOrder(s *dictSlot) {
	for i, e := range d.order {
		if e == s {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

var DictClass = NewClass("dict", ObjectClass)

func newDictObject() *Object {
	o := NewObject(DictClass)
	o.native = newDictData()
	return o
}

func asDict(o *Object) (*dictData, bool) {
	dd, ok := o.native.(*dictData)
	return dd, ok
}

func init() {
	registerMethod(DictClass, "get", 2, 3, func(vm *VM, args []Value) (Value, error) {
		dd, _ := asDict(args[0].AsObject())
		v, ok, err := dd.get(vm, args[1])
		if err != nil {
			return None, err
		}
		if ok {
			return v, nil
		}
		if len(args) == 3 {
			return args[2], nil
		}
		return None, nil
	})
	registerMethod(DictClass, "keys", 1, 1, func(vm *VM, args []Value) (Value, error) {
		dd, _ := asDict(args[0].AsObject())
		out := make([]Value, len(dd.order))
		for i, s := range dd.order {
			out[i] = s.key
		}
		return NewObjectValue(newListObject(out)), nil
	})
	registerMethod(DictClass, "values", 1, 1, func(vm *VM, args []Value) (Value, error) {
		dd, _ := asDict(args[0].AsObject())
		out := make([]Value, len(dd.order))
		for i, s := range dd.order {
			out[i] = s.value
		}
		return NewObjectValue(newListObject(out)), nil
	})
	registerMethod(DictClass, "__len__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		dd, _ := asDict(args[0].AsObject())
		return NewInt(int64(len(dd.order))), nil
	})
	registerMethod(DictClass, "__iter__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		dd, _ := asDict(args[0].AsObject())
		out := make([]Value, len(dd.order))
		for i, s := range dd.order {
			out[i] = s.key
		}
		return NewObjectValue(newListIterator(out)), nil
	})
}
