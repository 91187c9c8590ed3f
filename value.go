package pallas

import (
	"fmt"
	"math/big"
)

// valueTag discriminates the payload a Value carries. Go cannot steal a tag
// bit out of a real pointer the way the original VM packs an immediate
// integer and an Object* into one 64-bit word (Go's own collector needs
// every Cell held live to look exactly like a pointer), so Value instead
// carries an explicit tag next to its payload fields. The fast path the tag
// bit bought in the original design survives as a cheap integer compare.
type valueTag uint8

const (
	tagNone valueTag = iota
	tagBool
	tagInt   // immediate, fits in [minImmediateInt, maxImmediateInt]
	tagFloat
	tagObject // heap Cell: *Object, *Class, *BigInt
)

// Immediate integers occupy 31 bits of range, matching the original VM's
// int32 tag check: anything outside this range promotes to a heap BigInt.
const (
	maxImmediateInt = 1<<30 - 1
	minImmediateInt = -(1 << 30)
)

// Value is Pallas's tagged value: a small immediate (none, bool, int31,
// float64) or a reference to a heap Cell.
type Value struct {
	tag valueTag
	n   int64
	f   float64
	obj Cell
}

var None = Value{tag: tagNone}

func NewBool(b bool) Value {
	n := int64(0)
	if b {
		n = 1
	}
	return Value{tag: tagBool, n: n}
}

// NewInt wraps a machine integer, promoting to a heap BigInt if it falls
// outside the immediate range.
func NewInt(n int64) Value {
	if n >= minImmediateInt && n <= maxImmediateInt {
		return Value{tag: tagInt, n: n}
	}
	return NewBigInt(big.NewInt(n))
}

// NewBigInt always heap-allocates, even if bi fits in the immediate range;
// callers that want normalization should use NewInt/normalizeBig instead.
func NewBigInt(bi *big.Int) Value {
	b := &BigInt{Int: bi}
	theHeap.alloc(b)
	return Value{tag: tagObject, obj: b}
}

// normalizeBig demotes a big.Int back to an immediate Value when it fits,
// the mirror image of the promotion NewInt performs on overflow.
func normalizeBig(bi *big.Int) Value {
	if bi.IsInt64() {
		n := bi.Int64()
		if n >= minImmediateInt && n <= maxImmediateInt {
			return Value{tag: tagInt, n: n}
		}
	}
	return NewBigInt(bi)
}

func NewFloat(f float64) Value {
	return Value{tag: tagFloat, f: f}
}

// NewObjectValue wraps any heap Cell — typically *Object, but also the
// other reference types (List, Dict, Module, GeneratorIter...) since every
// built-in container is itself an *Object with native slots in this
// design.
func NewObjectValue(c Cell) Value {
	if c == nil {
		return None
	}
	return Value{tag: tagObject, obj: c}
}

func (v Value) IsNone() bool   { return v.tag == tagNone }
func (v Value) IsBool() bool   { return v.tag == tagBool }
func (v Value) IsInt() bool    { return v.tag == tagInt || v.isBigInt() }
func (v Value) IsFloat() bool  { return v.tag == tagFloat }
func (v Value) IsObject() bool { return v.tag == tagObject }

func (v Value) isBigInt() bool {
	if v.tag != tagObject {
		return false
	}
	_, ok := v.obj.(*BigInt)
	return ok
}

// AsBool returns the immediate bool payload; callers should check IsBool
// first, exactly like the C++ WrapperMixins accessors assume a prior type
// check.
func (v Value) AsBool() bool { return v.n != 0 }

// AsInt64 returns the value as an int64, truncating a BigInt's magnitude
// if it does not fit (used only by callers that already know the
// magnitude is small, e.g. slice indices after clamping).
func (v Value) AsInt64() int64 {
	if v.tag == tagInt {
		return v.n
	}
	if bi, ok := v.obj.(*BigInt); ok {
		return bi.Int64()
	}
	return 0
}

// AsBigInt returns the value's magnitude as a *big.Int regardless of
// whether it is stored as an immediate or promoted.
func (v Value) AsBigInt() *big.Int {
	if bi, ok := v.obj.(*BigInt); ok {
		return bi.Int
	}
	return big.NewInt(v.n)
}

func (v Value) AsFloat() float64 { return v.f }

// AsObject returns the underlying *Object, or nil if this Value does not
// wrap one (asObject in the original design).
func (v Value) AsObject() *Object {
	if v.tag != tagObject {
		return nil
	}
	o, _ := v.obj.(*Object)
	return o
}

// AsClass returns the underlying *Class if this Value wraps one (classes
// are first-class values: they can be assigned, passed, and used as base
// expressions in a class statement).
func (v Value) AsClass() *Class {
	if v.tag != tagObject {
		return nil
	}
	c, _ := v.obj.(*Class)
	return c
}

// attrHolder is implemented by both *Object and *Class (which embeds
// Object), letting GetAttr/SetAttr instructions treat instances and
// classes uniformly.
type attrHolder interface {
	getAttr(Name) (Value, bool)
	setAttr(Name, Value)
}

func (v Value) AsAttrHolder() (attrHolder, bool) {
	if v.tag != tagObject || v.obj == nil {
		return nil, false
	}
	ah, ok := v.obj.(attrHolder)
	return ah, ok
}

// asCell is used by the GC's CellSlice root to find the heap Cell (if any)
// backing this Value, without assuming it is specifically an *Object.
func (v Value) asCell() (Cell, bool) {
	if v.tag != tagObject || v.obj == nil {
		return nil, false
	}
	return v.obj, true
}

// IsTrue implements the language's truthiness rule: None, zero-valued
// numbers/booleans and empty built-in containers (via their native
// payload) are false; every other value is true. No __bool__ method is
// consulted.
func (v Value) IsTrue() bool {
	switch v.tag {
	case tagNone:
		return false
	case tagBool:
		return v.n != 0
	case tagInt:
		return v.n != 0
	case tagFloat:
		return v.f != 0
	case tagObject:
		if bi, ok := v.obj.(*BigInt); ok {
			return bi.Sign() != 0
		}
		if o, ok := v.obj.(*Object); ok {
			return o.isTrue()
		}
		return true
	}
	return false
}

// Type returns the Class this value dispatches through for attribute and
// method lookup. A Value wrapping a *Class directly returns that class's
// own class (its metaclass), not the class itself.
func (v Value) Type() *Class {
	switch v.tag {
	case tagNone:
		return NoneClass
	case tagBool:
		return BoolClass
	case tagInt:
		return IntClass
	case tagFloat:
		return FloatClass
	case tagObject:
		if _, ok := v.obj.(*BigInt); ok {
			return IntClass
		}
		if c, ok := v.obj.(*Class); ok {
			return c.class
		}
		if o, ok := v.obj.(*Object); ok {
			return o.class
		}
	}
	return NoneClass
}

// IsInstanceOf walks v's class's full base-class tree looking for cls,
// matching lookupAttr's linear depth-first search over every base rather
// than just the primary one (a class declared with multiple bases must be
// caught by `except` on any of them, not just the first).
func (v Value) IsInstanceOf(cls *Class) bool {
	return classIsOrInherits(v.Type(), cls)
}

func classIsOrInherits(t, cls *Class) bool {
	if t == nil {
		return false
	}
	if t == cls {
		return true
	}
	for _, base := range t.Bases() {
		if classIsOrInherits(base, cls) {
			return true
		}
	}
	return false
}

func (v Value) String() string { return valueToDisplayString(v) }

func valueToDisplayString(v Value) string {
	switch v.tag {
	case tagNone:
		return "None"
	case tagBool:
		if v.n != 0 {
			return "True"
		}
		return "False"
	case tagInt:
		return fmt.Sprintf("%d", v.n)
	case tagFloat:
		return fmt.Sprintf("%g", v.f)
	case tagObject:
		if bi, ok := v.obj.(*BigInt); ok {
			return bi.String()
		}
		if c, ok := v.obj.(*Class); ok {
			return c.displayString()
		}
		if o, ok := v.obj.(*Object); ok {
			return o.displayString()
		}
	}
	return "<unknown>"
}

// BigInt is the heap-allocated overflow representation for integers
// outside the immediate range, grounded on the original interpreter's use
// of GMP's mpz_class for the same purpose.
type BigInt struct {
	cellHeader
	*big.Int
}

func (b *BigInt) trace(t *Tracer)     {}
func (b *BigInt) header() *cellHeader { return &b.cellHeader }
