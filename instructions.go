package pallas

import (
	"fmt"
	"math"
	"math/big"
)

// Instruction is one compiled bytecode operation: an opcode struct with
// whatever operands it needs baked in (a local slot index, a jump target,
// an argument count, ...). Grounded on original_source/instr.h's Instr
// base class, generalized from its ten-opcode subset to the full table
// this design's VM drives.
type Instruction interface {
	Execute(vm *VM, fr *Frame) error
	String() string
}

// --- stack shuffling ---

type dupInstr struct{}

func (dupInstr) Execute(vm *VM, fr *Frame) error {
	fr.push(fr.peek(0))
	return nil
}
func (dupInstr) String() string { return "Dup" }

type swapInstr struct{}

func (swapInstr) Execute(vm *VM, fr *Frame) error {
	a, b := fr.pop(), fr.pop()
	fr.push(a)
	fr.push(b)
	return nil
}
func (swapInstr) String() string { return "Swap" }

type popInstr struct{}

func (popInstr) Execute(vm *VM, fr *Frame) error {
	fr.pop()
	return nil
}
func (popInstr) String() string { return "Pop" }

// --- constants and names ---

type constInstr struct{ Value Value }

func (c constInstr) Execute(vm *VM, fr *Frame) error {
	fr.push(c.Value)
	return nil
}
func (c constInstr) String() string { return "Const " + c.Value.String() }

type getLocalInstr struct{ Slot int }

func (g getLocalInstr) Execute(vm *VM, fr *Frame) error {
	fr.push(fr.locals[g.Slot])
	return nil
}
func (g getLocalInstr) String() string { return fmt.Sprintf("GetLocal %d", g.Slot) }

type setLocalInstr struct{ Slot int }

func (s setLocalInstr) Execute(vm *VM, fr *Frame) error {
	fr.locals[s.Slot] = fr.pop()
	return nil
}
func (s setLocalInstr) String() string { return fmt.Sprintf("SetLocal %d", s.Slot) }

// getUpvalInstr reads a local belonging to an enclosing closure's frame,
// Depth parent links up from the running frame.
type getUpvalInstr struct {
	Depth, Slot int
}

func (g getUpvalInstr) Execute(vm *VM, fr *Frame) error {
	fr.push(fr.upvalFrame(g.Depth).locals[g.Slot])
	return nil
}
func (g getUpvalInstr) String() string { return fmt.Sprintf("GetUpval %d %d", g.Depth, g.Slot) }

type setUpvalInstr struct {
	Depth, Slot int
}

func (s setUpvalInstr) Execute(vm *VM, fr *Frame) error {
	fr.upvalFrame(s.Depth).locals[s.Slot] = fr.pop()
	return nil
}
func (s setUpvalInstr) String() string { return fmt.Sprintf("SetUpval %d %d", s.Depth, s.Slot) }

type getGlobalInstr struct{ Name Name }

func (g getGlobalInstr) Execute(vm *VM, fr *Frame) error {
	v, ok := vm.globals.getAttr(g.Name)
	if !ok {
		return vm.raiseErrorf("NameError", "name '%s' is not defined", g.Name.String())
	}
	fr.push(v)
	return nil
}
func (g getGlobalInstr) String() string { return "GetGlobal " + g.Name.String() }

type setGlobalInstr struct{ Name Name }

func (s setGlobalInstr) Execute(vm *VM, fr *Frame) error {
	vm.globals.setAttr(s.Name, fr.pop())
	return nil
}
func (s setGlobalInstr) String() string { return "SetGlobal " + s.Name.String() }

// --- attributes and items ---

type getPropInstr struct{ Name Name }

func (g getPropInstr) Execute(vm *VM, fr *Frame) error {
	recv := fr.pop()
	ah, ok := recv.AsAttrHolder()
	if !ok {
		return vm.raiseErrorf("AttributeError", "%s object has no attribute %s", recv.Type().Name(), g.Name.String())
	}
	v, found := ah.getAttr(g.Name)
	if !found {
		return vm.raiseErrorf("AttributeError", "%s object has no attribute %s", recv.Type().Name(), g.Name.String())
	}
	fr.push(v)
	return nil
}
func (g getPropInstr) String() string { return "GetProp " + g.Name.String() }

type setPropInstr struct{ Name Name }

func (s setPropInstr) Execute(vm *VM, fr *Frame) error {
	recv := fr.pop()
	value := fr.pop()
	ah, ok := recv.AsAttrHolder()
	if !ok {
		return vm.raiseErrorf("AttributeError", "%s object has no attribute %s", recv.Type().Name(), s.Name.String())
	}
	ah.setAttr(s.Name, value)
	return nil
}
func (s setPropInstr) String() string { return "SetProp " + s.Name.String() }

type delPropInstr struct{ Name Name }

func (d delPropInstr) Execute(vm *VM, fr *Frame) error {
	recv := fr.pop()
	o := recv.AsObject()
	if o == nil || !o.hasOwnAttr(d.Name) {
		return vm.raiseErrorf("AttributeError", "%s object has no attribute %s", recv.Type().Name(), d.Name.String())
	}
	o.setAttr(d.Name, None)
	return nil
}
func (d delPropInstr) String() string { return "DelProp " + d.Name.String() }

// getMethodInstr starts out generic: it calls vm.getMethod every time. When
// a lookup finds the name in the receiver's own slots, the instruction
// remembers the receiver's Layout and that slot index, and a later receiver
// with the same Layout reads the slot directly. A class-level attribute is
// not cached, since each receiver gets its own bound method; a Layout miss
// falls back to the generic path and re-specializes.
type getMethodInstr struct {
	Name Name

	cachedLayout *Layout
	cachedSlot   int
}

func (g *getMethodInstr) Execute(vm *VM, fr *Frame) error {
	recv := fr.pop()
	o := recv.AsObject()
	if o != nil && g.cachedLayout != nil && o.layout == g.cachedLayout {
		fr.push(o.slots[g.cachedSlot])
		return nil
	}
	v, err := vm.getMethod(recv, g.Name)
	if err != nil {
		return err
	}
	g.cachedLayout = nil
	if o != nil {
		if slot := o.layout.LookupName(g.Name); slot != -1 {
			g.cachedLayout, g.cachedSlot = o.layout, slot
		}
	}
	fr.push(v)
	return nil
}
func (g *getMethodInstr) String() string { return "GetMethod " + g.Name.String() }

type getItemInstr struct{}

func (getItemInstr) Execute(vm *VM, fr *Frame) error {
	key := fr.pop()
	recv := fr.pop()
	v, err := getItem(vm, recv, key)
	if err != nil {
		return err
	}
	fr.push(v)
	return nil
}
func (getItemInstr) String() string { return "GetItem" }

type setItemInstr struct{}

func (setItemInstr) Execute(vm *VM, fr *Frame) error {
	key := fr.pop()
	recv := fr.pop()
	value := fr.pop()
	return setItem(vm, recv, key, value)
}
func (setItemInstr) String() string { return "SetItem" }

type delItemInstr struct{}

func (delItemInstr) Execute(vm *VM, fr *Frame) error {
	key := fr.pop()
	recv := fr.pop()
	o := recv.AsObject()
	if o == nil {
		return vm.raiseErrorf("TypeError", "object does not support item deletion")
	}
	if dd, ok := asDict(o); ok {
		found, err := dd.delete(vm, key)
		if err != nil {
			return err
		}
		if !found {
			return vm.raiseErrorf("KeyError", "%s", valueToDisplayString(key))
		}
		return nil
	}
	if sd, ok := asSet(o); ok {
		found, err := sd.remove(vm, key)
		if err != nil {
			return err
		}
		if !found {
			return vm.raiseErrorf("KeyError", "%s", valueToDisplayString(key))
		}
		return nil
	}
	return vm.raiseErrorf("TypeError", "object does not support item deletion")
}
func (delItemInstr) String() string { return "DelItem" }

// getItem and setItem implement the subscript protocol shared by GetItem
// and iteration-adjacent builtins (getItem hands a slice key to
// evalSlice).
func getItem(vm *VM, recv, key Value) (Value, error) {
	o := recv.AsObject()
	if o == nil {
		return None, vm.raiseErrorf("TypeError", "%s object is not subscriptable", recv.Type().Name())
	}
	if ko := key.AsObject(); ko != nil {
		if sd, ok := asSlice(ko); ok {
			return evalSlice(vm, recv, sd.start, sd.stop, sd.step)
		}
	}
	if ld, ok := asList(o); ok {
		i, err := clampIndex(vm, key, len(ld.items))
		if err != nil {
			return None, err
		}
		return ld.items[i], nil
	}
	if td, ok := asTuple(o); ok {
		i, err := clampIndex(vm, key, len(td.items))
		if err != nil {
			return None, err
		}
		return td.items[i], nil
	}
	if s, ok := asString(o); ok {
		runes := []rune(s)
		i, err := clampIndex(vm, key, len(runes))
		if err != nil {
			return None, err
		}
		return NewObjectValue(newStringObject(string(runes[i]))), nil
	}
	if dd, ok := asDict(o); ok {
		v, found, err := dd.get(vm, key)
		if err != nil {
			return None, err
		}
		if !found {
			return None, vm.raiseErrorf("KeyError", "%s", valueToDisplayString(key))
		}
		return v, nil
	}
	getItemFn, err := vm.getMethod(recv, Intern("__getitem__"))
	if err != nil {
		return None, err
	}
	return vm.call(getItemFn, []Value{key})
}

func setItem(vm *VM, recv, key, value Value) error {
	o := recv.AsObject()
	if o == nil {
		return vm.raiseErrorf("TypeError", "%s object does not support item assignment", recv.Type().Name())
	}
	if ld, ok := asList(o); ok {
		i, err := clampIndex(vm, key, len(ld.items))
		if err != nil {
			return err
		}
		ld.items[i] = value
		return nil
	}
	if dd, ok := asDict(o); ok {
		return dd.set(vm, key, value)
	}
	setItemFn, err := vm.getMethod(recv, Intern("__setitem__"))
	if err != nil {
		return err
	}
	_, err = vm.call(setItemFn, []Value{key, value})
	return err
}

func clampIndex(vm *VM, key Value, length int) (int, error) {
	if !key.IsInt() {
		return 0, vm.raiseErrorf("TypeError", "indices must be integers")
	}
	i := int(key.AsInt64())
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, vm.raiseErrorf("IndexError", "index out of range")
	}
	return i, nil
}

// --- calls and return ---

type callInstr struct{ NArgs int }

func (c callInstr) Execute(vm *VM, fr *Frame) error {
	args := make([]Value, c.NArgs)
	for i := c.NArgs - 1; i >= 0; i-- {
		args[i] = fr.pop()
	}
	callee := fr.pop()
	v, err := vm.call(callee, args)
	if err != nil {
		return err
	}
	fr.push(v)
	return nil
}
func (c callInstr) String() string { return fmt.Sprintf("Call %d", c.NArgs) }

// callMethodInstr fuses GetMethod+Call into one opcode: it resolves the
// method with vm.getMethod (which binds a class-level function to the
// receiver) and calls the result with the popped arguments.
type callMethodInstr struct {
	Name  Name
	NArgs int
}

func (c callMethodInstr) Execute(vm *VM, fr *Frame) error {
	args := make([]Value, c.NArgs)
	for i := c.NArgs - 1; i >= 0; i-- {
		args[i] = fr.pop()
	}
	recv := fr.pop()
	fn, err := vm.getMethod(recv, c.Name)
	if err != nil {
		return err
	}
	v, err := vm.call(fn, args)
	if err != nil {
		return err
	}
	fr.push(v)
	return nil
}
func (c callMethodInstr) String() string { return fmt.Sprintf("CallMethod %s %d", c.Name.String(), c.NArgs) }

type returnInstr struct{}

func (returnInstr) Execute(vm *VM, fr *Frame) error {
	return &returnSignal{value: fr.pop()}
}
func (returnInstr) String() string { return "Return" }

type raiseInstr struct{}

func (raiseInstr) Execute(vm *VM, fr *Frame) error {
	v := fr.pop()
	o := v.AsObject()
	if o == nil || !v.IsInstanceOf(ExceptionClass) {
		return vm.raiseErrorf("TypeError", "exceptions must derive from Exception")
	}
	return vm.wrapRaise(o)
}
func (raiseInstr) String() string { return "Raise" }

// --- arithmetic / comparison ---

// binaryOpInstr starts generic (dispatch by tag, falling back to a
// __dunder__ call for Objects) and, the first time both operands are
// Objects and the dunder is a class-level method, remembers that class pair
// and the unbound method so the next call with the same classes skips
// straight to calling it. A different class pair on a later call just
// re-falls-through to the generic path.
type binaryOpInstr struct {
	Op tokenKind

	cachedLeft, cachedRight *Class
	cachedFn                Value
}

func (b *binaryOpInstr) Execute(vm *VM, fr *Frame) error {
	right := fr.pop()
	left := fr.pop()
	if lo, ro := left.AsObject(), right.AsObject(); lo != nil && ro != nil && b.cachedLeft == lo.class && b.cachedRight == ro.class {
		v, err := vm.call(b.cachedFn, []Value{left, right})
		if err != nil {
			return err
		}
		fr.push(v)
		return nil
	}
	v, dunder, err := evalBinaryOp(vm, b.Op, left, right)
	if err != nil {
		return err
	}
	if lo, ro := left.AsObject(), right.AsObject(); lo != nil && ro != nil && dunder != (Value{}) {
		if bd, ok := asBoundMethod(dunder.AsObject()); ok {
			b.cachedLeft, b.cachedRight, b.cachedFn = lo.class, ro.class, NewObjectValue(bd.fn)
		}
	}
	fr.push(v)
	return nil
}
func (b *binaryOpInstr) String() string { return "BinaryOp " + binOpName(b.Op) }

func binOpName(op tokenKind) string {
	if n, ok := binOpDunders[op]; ok {
		return n
	}
	return "?"
}

// binOpDunders maps each arithmetic/bitwise operator token to the dunder
// method name an Object operand is asked for once the fast numeric paths
// don't apply.
var binOpDunders = map[tokenKind]string{
	tokPlus:        "__add__",
	tokMinus:       "__sub__",
	tokStar:        "__mul__",
	tokSlash:       "__truediv__",
	tokDoubleSlash: "__floordiv__",
	tokPercent:     "__mod__",
	tokDoubleStar:  "__pow__",
	tokAmp:         "__and__",
	tokPipe:        "__or__",
	tokCaret:       "__xor__",
	tokLShift:      "__lshift__",
	tokRShift:      "__rshift__",
}

// evalBinaryOp computes left Op right, returning the dunder Value it used
// (so the caller can cache it) when the operands were Objects, or a zero
// Value when a fast numeric path handled it directly.
func evalBinaryOp(vm *VM, op tokenKind, left, right Value) (Value, Value, error) {
	if left.IsInt() && right.IsInt() && !left.isBigInt() && !right.isBigInt() {
		if v, ok := intFastPath(op, left.AsInt64(), right.AsInt64()); ok {
			return v, Value{}, nil
		}
	}
	if (left.IsInt() || left.IsFloat()) && (right.IsInt() || right.IsFloat()) {
		if v, ok, err := numericOp(vm, op, left, right); ok {
			return v, Value{}, err
		}
	}
	name, ok := binOpDunders[op]
	if !ok {
		return None, Value{}, vm.raiseErrorf("TypeError", "unsupported operand type(s)")
	}
	fn, err := vm.getMethod(left, Intern(name))
	if err != nil {
		return None, Value{}, err
	}
	v, err := vm.call(fn, []Value{right})
	return v, fn, err
}

func intFastPath(op tokenKind, a, b int64) (Value, bool) {
	switch op {
	case tokPlus:
		return NewInt(a + b), true
	case tokMinus:
		return NewInt(a - b), true
	case tokStar:
		return NewInt(a * b), true
	case tokAmp:
		return NewInt(a & b), true
	case tokPipe:
		return NewInt(a | b), true
	case tokCaret:
		return NewInt(a ^ b), true
	}
	return None, false
}

// numericOp handles operators that need float promotion or division,
// shared by the int/int overflow path and mixed int/float operands.
func numericOp(vm *VM, op tokenKind, left, right Value) (Value, bool, error) {
	lf, rf := asFloatOperand(left), asFloatOperand(right)
	useFloat := left.IsFloat() || right.IsFloat()
	useBig := !useFloat && (left.isBigInt() || right.isBigInt())
	if useBig {
		switch op {
		case tokPlus:
			return normalizeBig(new(big.Int).Add(left.AsBigInt(), right.AsBigInt())), true, nil
		case tokMinus:
			return normalizeBig(new(big.Int).Sub(left.AsBigInt(), right.AsBigInt())), true, nil
		case tokStar:
			return normalizeBig(new(big.Int).Mul(left.AsBigInt(), right.AsBigInt())), true, nil
		}
	}
	switch op {
	case tokSlash:
		if rf == 0 {
			return None, true, vm.raiseErrorf("ZeroDivisionError", "division by zero")
		}
		return NewFloat(lf / rf), true, nil
	case tokDoubleSlash:
		if useFloat {
			return NewFloat(floorDiv(lf, rf)), true, nil
		}
		if right.AsInt64() == 0 {
			return None, true, vm.raiseErrorf("ZeroDivisionError", "division by zero")
		}
		return NewInt(floorDivInt(left.AsInt64(), right.AsInt64())), true, nil
	case tokPercent:
		if useFloat {
			return NewFloat(lf - floorDiv(lf, rf)*rf), true, nil
		}
		if right.AsInt64() == 0 {
			return None, true, vm.raiseErrorf("ZeroDivisionError", "modulo by zero")
		}
		return NewInt(floorModInt(left.AsInt64(), right.AsInt64())), true, nil
	case tokDoubleStar:
		if useFloat {
			return NewFloat(math.Pow(lf, rf)), true, nil
		}
		return NewInt(powInt(left.AsInt64(), right.AsInt64())), true, nil
	case tokPlus:
		if useFloat {
			return NewFloat(lf + rf), true, nil
		}
	case tokMinus:
		if useFloat {
			return NewFloat(lf - rf), true, nil
		}
	case tokStar:
		if useFloat {
			return NewFloat(lf * rf), true, nil
		}
	}
	return None, false, nil
}

func asFloatOperand(v Value) float64 {
	if v.IsFloat() {
		return v.AsFloat()
	}
	return float64(v.AsInt64())
}

func floorDiv(a, b float64) float64 {
	return math.Floor(a / b)
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

func powInt(a, b int64) int64 {
	result := int64(1)
	for i := int64(0); i < b; i++ {
		result *= a
	}
	return result
}

type compareOpInstr struct{ Op tokenKind }

func (c compareOpInstr) Execute(vm *VM, fr *Frame) error {
	right := fr.pop()
	left := fr.pop()
	result, err := evalCompareOp(vm, c.Op, left, right)
	if err != nil {
		return err
	}
	fr.push(NewBool(result))
	return nil
}
func (c compareOpInstr) String() string { return "CompareOp " + compareOpName(c.Op) }

func compareOpName(op tokenKind) string {
	switch op {
	case tokEq:
		return "=="
	case tokNe:
		return "!="
	case tokLt:
		return "<"
	case tokLe:
		return "<="
	case tokGt:
		return ">"
	case tokGe:
		return ">="
	case tokIn:
		return "in"
	case tokNotIn:
		return "not in"
	case tokIs:
		return "is"
	case tokIsNot:
		return "is not"
	}
	return "?"
}

func evalCompareOp(vm *VM, op tokenKind, left, right Value) (bool, error) {
	switch op {
	case tokIs:
		return sameIdentity(left, right), nil
	case tokIsNot:
		return !sameIdentity(left, right), nil
	case tokIn, tokNotIn:
		found, err := containsValue(vm, right, left)
		if err != nil {
			return false, err
		}
		if op == tokNotIn {
			return !found, nil
		}
		return found, nil
	}
	cmp, err := compareValues(vm, left, right)
	if err != nil {
		return false, err
	}
	switch op {
	case tokEq:
		return cmp == 0, nil
	case tokNe:
		return cmp != 0, nil
	case tokLt:
		return cmp < 0, nil
	case tokLe:
		return cmp <= 0, nil
	case tokGt:
		return cmp > 0, nil
	case tokGe:
		return cmp >= 0, nil
	}
	return false, vm.raiseErrorf("TypeError", "unsupported comparison")
}

func sameIdentity(a, b Value) bool {
	ac, aok := a.asCell()
	bc, bok := b.asCell()
	if aok != bok {
		return false
	}
	if !aok {
		return a.IsNone() && b.IsNone() || (a.IsBool() && b.IsBool() && a.AsBool() == b.AsBool()) ||
			(a.IsInt() && b.IsInt() && a.AsInt64() == b.AsInt64())
	}
	return ac == bc
}

// compareValues implements the three-way ordering __eq__/__lt__ dispatch
// reduces to: 0 for equal, negative/positive otherwise. Numbers and
// strings compare directly; Objects fall back to __eq__ for equality and
// __lt__ for ordering, matching spec.md's dunder-dispatch comparison rule.
func compareValues(vm *VM, left, right Value) (int, error) {
	if (left.IsInt() || left.IsFloat()) && (right.IsInt() || right.IsFloat()) {
		lf, rf := asFloatOperand(left), asFloatOperand(right)
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if ls, lok := valueAsGoString(left); lok {
		if rs, rok := valueAsGoString(right); rok {
			switch {
			case ls < rs:
				return -1, nil
			case ls > rs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	eqFn, err := vm.getMethod(left, Intern("__eq__"))
	if err == nil {
		v, err := vm.call(eqFn, []Value{right})
		if err != nil {
			return 0, err
		}
		if v.IsTrue() {
			return 0, nil
		}
	}
	ltFn, err := vm.getMethod(left, Intern("__lt__"))
	if err != nil {
		return 0, vm.raiseErrorf("TypeError", "'<' not supported between instances")
	}
	v, err := vm.call(ltFn, []Value{right})
	if err != nil {
		return 0, err
	}
	if v.IsTrue() {
		return -1, nil
	}
	return 1, nil
}

func containsValue(vm *VM, container, item Value) (bool, error) {
	if o := container.AsObject(); o != nil {
		if dd, ok := asDict(o); ok {
			_, found, err := dd.get(vm, item)
			return found, err
		}
		if sd, ok := asSet(o); ok {
			return sd.contains(vm, item)
		}
	}
	items, err := iterableToSlice(vm, container)
	if err != nil {
		return false, err
	}
	for _, v := range items {
		if cmp, err := compareValues(vm, v, item); err == nil && cmp == 0 {
			return true, nil
		}
	}
	return false, nil
}

type unaryOpInstr struct{ Op tokenKind }

func (u unaryOpInstr) Execute(vm *VM, fr *Frame) error {
	v := fr.pop()
	switch u.Op {
	case tokNot:
		fr.push(NewBool(!v.IsTrue()))
		return nil
	case tokMinus:
		if v.IsInt() {
			fr.push(NewInt(-v.AsInt64()))
			return nil
		}
		if v.IsFloat() {
			fr.push(NewFloat(-v.AsFloat()))
			return nil
		}
	case tokPlus:
		fr.push(v)
		return nil
	case tokTilde:
		if v.IsInt() {
			fr.push(NewInt(^v.AsInt64()))
			return nil
		}
	}
	return vm.raiseErrorf("TypeError", "bad operand type for unary operator")
}
func (u unaryOpInstr) String() string { return "UnaryOp" }

// --- branching ---

type jumpInstr struct{ Target int }

func (j *jumpInstr) Execute(vm *VM, fr *Frame) error {
	fr.pc = j.Target
	return nil
}
func (j *jumpInstr) String() string { return fmt.Sprintf("Jump %d", j.Target) }

type jumpIfFalseInstr struct {
	Target int
	Pop    bool // false for and/or short-circuit peek, true for `if`/`while`
}

func (j *jumpIfFalseInstr) Execute(vm *VM, fr *Frame) error {
	v := fr.peek(0)
	if !v.IsTrue() {
		fr.pc = j.Target
		if j.Pop {
			fr.pop()
		}
		return nil
	}
	if j.Pop {
		fr.pop()
	}
	return nil
}
func (j *jumpIfFalseInstr) String() string { return fmt.Sprintf("JumpIfFalse %d", j.Target) }

type jumpIfTrueInstr struct {
	Target int
	Pop    bool
}

func (j *jumpIfTrueInstr) Execute(vm *VM, fr *Frame) error {
	v := fr.peek(0)
	if v.IsTrue() {
		fr.pc = j.Target
		if j.Pop {
			fr.pop()
		}
		return nil
	}
	if j.Pop {
		fr.pop()
	}
	return nil
}
func (j *jumpIfTrueInstr) String() string { return fmt.Sprintf("JumpIfTrue %d", j.Target) }

// forIterInstr advances the iterator on top of the stack, pushing its next
// value and falling through on success, or popping the exhausted iterator
// and jumping past the loop body on StopIteration.
type forIterInstr struct{ Target int }

func (f *forIterInstr) Execute(vm *VM, fr *Frame) error {
	it := fr.peek(0)
	nextFn, err := vm.getMethod(it, Intern("__next__"))
	if err != nil {
		return err
	}
	v, err := vm.call(nextFn, nil)
	if err != nil {
		if _, isStop := asStopIteration(err); isStop {
			fr.pop()
			fr.pc = f.Target
			return nil
		}
		return err
	}
	fr.push(v)
	return nil
}
func (f *forIterInstr) String() string { return fmt.Sprintf("ForIter %d", f.Target) }

// getIterInstr replaces the top of stack (an iterable) with its iterator,
// the SETUP step a ForStmt's FOR_ITER loop runs once before looping.
type getIterInstr struct{}

func (getIterInstr) Execute(vm *VM, fr *Frame) error {
	v := fr.pop()
	iterFn, err := vm.getMethod(v, Intern("__iter__"))
	if err != nil {
		return err
	}
	it, err := vm.call(iterFn, nil)
	if err != nil {
		return err
	}
	fr.push(it)
	return nil
}
func (getIterInstr) String() string { return "GetIter" }

// --- containers ---

type tupleInstr struct{ N int }

func (t tupleInstr) Execute(vm *VM, fr *Frame) error {
	items := make([]Value, t.N)
	for i := t.N - 1; i >= 0; i-- {
		items[i] = fr.pop()
	}
	fr.push(NewObjectValue(newTupleObject(items)))
	return nil
}
func (t tupleInstr) String() string { return fmt.Sprintf("Tuple %d", t.N) }

type listInstr struct{ N int }

func (l listInstr) Execute(vm *VM, fr *Frame) error {
	items := make([]Value, l.N)
	for i := l.N - 1; i >= 0; i-- {
		items[i] = fr.pop()
	}
	fr.push(NewObjectValue(newListObject(items)))
	return nil
}
func (l listInstr) String() string { return fmt.Sprintf("List %d", l.N) }

type setInstr struct{ N int }

func (s setInstr) Execute(vm *VM, fr *Frame) error {
	items := make([]Value, s.N)
	for i := s.N - 1; i >= 0; i-- {
		items[i] = fr.pop()
	}
	o, err := newSetObject(vm, items)
	if err != nil {
		return err
	}
	fr.push(NewObjectValue(o))
	return nil
}
func (s setInstr) String() string { return fmt.Sprintf("Set %d", s.N) }

// dictInstr builds a dict from N key/value pairs pushed key,value,key,value...
type dictInstr struct{ N int }

func (d dictInstr) Execute(vm *VM, fr *Frame) error {
	pairs := make([]Value, 2*d.N)
	for i := 2*d.N - 1; i >= 0; i-- {
		pairs[i] = fr.pop()
	}
	o := newDictObject()
	dd, _ := asDict(o)
	for i := 0; i < d.N; i++ {
		if err := dd.set(vm, pairs[2*i], pairs[2*i+1]); err != nil {
			return err
		}
	}
	fr.push(NewObjectValue(o))
	return nil
}
func (d dictInstr) String() string { return fmt.Sprintf("Dict %d", d.N) }

// sliceInstr pops step, stop, start (in that reverse order) and the
// subject, pushing a new container holding the sliced range. step may be
// None for a default-stride slice.
type sliceInstr struct{}

func (sliceInstr) Execute(vm *VM, fr *Frame) error {
	step := fr.pop()
	stop := fr.pop()
	start := fr.pop()
	subject := fr.pop()
	v, err := evalSlice(vm, subject, start, stop, step)
	if err != nil {
		return err
	}
	fr.push(v)
	return nil
}
func (sliceInstr) String() string { return "Slice" }

func evalSlice(vm *VM, subject, start, stop, step Value) (Value, error) {
	o := subject.AsObject()
	if o == nil {
		return None, vm.raiseErrorf("TypeError", "%s object is not subscriptable", subject.Type().Name())
	}
	var length int
	switch native := o.native.(type) {
	case *listData:
		length = len(native.items)
	case *tupleData:
		length = len(native.items)
	case *stringData:
		length = len([]rune(native.s))
	default:
		return None, vm.raiseErrorf("TypeError", "object is not sliceable")
	}
	lo, hi, strideVal := sliceBounds(start, stop, step, length)
	if ld, ok := asList(o); ok {
		return NewObjectValue(newListObject(sliceValues(ld.items, lo, hi, strideVal))), nil
	}
	if td, ok := asTuple(o); ok {
		return NewObjectValue(newTupleObject(sliceValues(td.items, lo, hi, strideVal))), nil
	}
	s, _ := asString(o)
	runes := []rune(s)
	var out []rune
	if strideVal > 0 {
		for i := lo; i < hi; i += strideVal {
			out = append(out, runes[i])
		}
	} else if strideVal < 0 {
		for i := lo; i > hi; i += strideVal {
			out = append(out, runes[i])
		}
	}
	return NewObjectValue(newStringObject(string(out))), nil
}

func sliceValues(items []Value, lo, hi, stride int) []Value {
	var out []Value
	if stride > 0 {
		for i := lo; i < hi; i += stride {
			out = append(out, items[i])
		}
	} else if stride < 0 {
		for i := lo; i > hi; i += stride {
			out = append(out, items[i])
		}
	}
	return out
}

// sliceBounds resolves possibly-None start/stop/step against length,
// applying Python-style negative-index and default-bound rules.
func sliceBounds(start, stop, step Value, length int) (lo, hi, stride int) {
	stride = 1
	if !step.IsNone() {
		stride = int(step.AsInt64())
	}
	if stride > 0 {
		lo, hi = 0, length
	} else {
		lo, hi = length-1, -1
	}
	if !start.IsNone() {
		lo = clampSliceIndex(int(start.AsInt64()), length, stride > 0)
	}
	if !stop.IsNone() {
		hi = clampSliceIndex(int(stop.AsInt64()), length, stride > 0)
	}
	return lo, hi, stride
}

func clampSliceIndex(i, length int, forward bool) int {
	if i < 0 {
		i += length
	}
	if forward {
		if i < 0 {
			return 0
		}
		if i > length {
			return length
		}
		return i
	}
	if i < -1 {
		return -1
	}
	if i >= length {
		return length - 1
	}
	return i
}

// --- closures, classes, generators ---

// lambdaInstr builds a Function Object from a nested Block, closing over
// the currently running frame and binding whatever default-value operands
// were pushed ahead of it (one per trailing optional parameter).
type lambdaInstr struct {
	Name     Name
	Block    *CodeBlock
	NDefault int
}

func (l lambdaInstr) Execute(vm *VM, fr *Frame) error {
	defaults := make([]Value, l.NDefault)
	for i := l.NDefault - 1; i >= 0; i-- {
		defaults[i] = fr.pop()
	}
	fr.push(NewObjectValue(newFunction(l.Name, l.Block, fr, defaults)))
	return nil
}
func (l lambdaInstr) String() string { return "Lambda " + l.Name.String() }

// makeClassInstr runs a class body's own Block as a throwaway Frame (its
// NEWLINE-level assignments become class attributes), then builds a Class
// whose own slots are seeded from that frame's local slots, named by the
// body block's classAttrNames.
// Grounded on spec.md §4.4's MakeClassFromFrame: a class statement compiles
// its suite as an ordinary Block and lets the interpreter execute it once
// to populate the class, rather than having the compiler special-case
// class-body statements.
type makeClassInstr struct {
	Name   Name
	Body   *CodeBlock
	NBases int
}

func (m makeClassInstr) Execute(vm *VM, fr *Frame) error {
	bases := make([]*Class, m.NBases)
	for i := m.NBases - 1; i >= 0; i-- {
		bases[i] = fr.pop().AsClass()
	}
	bodyFrame := newFrame(m.Body, fr)
	if _, _, err := vm.runFrame(bodyFrame); err != nil {
		return err
	}
	cls := NewClass(m.Name.String(), nil)
	if len(bases) > 0 {
		cls.SetBases(bases)
	} else {
		cls.SetBases([]*Class{ObjectClass})
	}
	for i, name := range bodyFrame.block.classAttrNames {
		cls.setAttr(name, bodyFrame.locals[i])
	}
	fr.push(NewObjectValue(cls))
	return nil
}
func (m makeClassInstr) String() string { return "MakeClassFromFrame " + m.Name.String() }

// --- exception handling ---

type setupExceptInstr struct{ Target int }

func (s *setupExceptInstr) Execute(vm *VM, fr *Frame) error {
	fr.pushExcept(s.Target, len(fr.stack))
	return nil
}
func (s *setupExceptInstr) String() string { return fmt.Sprintf("EnterCatchRegion %d", s.Target) }

type leaveCatchInstr struct{}

func (leaveCatchInstr) Execute(vm *VM, fr *Frame) error {
	fr.popExc()
	return nil
}
func (leaveCatchInstr) String() string { return "LeaveCatchRegion" }

type setupFinallyInstr struct{ Target int }

func (s *setupFinallyInstr) Execute(vm *VM, fr *Frame) error {
	fr.pushFinally(s.Target, len(fr.stack))
	return nil
}
func (s *setupFinallyInstr) String() string { return fmt.Sprintf("EnterFinallyRegion %d", s.Target) }

type leaveFinallyInstr struct{}

func (leaveFinallyInstr) Execute(vm *VM, fr *Frame) error {
	fr.popExc()
	return nil
}
func (leaveFinallyInstr) String() string { return "LeaveFinallyRegion" }

// matchExceptionInstr pops a class Value (the except clause's ClassExpr,
// already evaluated by ordinary bytecode) and pushes whether the
// exception sitting underneath it on the stack is an instance of it — the
// test a handler prologue runs before deciding to handle or re-raise.
type matchExceptionInstr struct{}

func (matchExceptionInstr) Execute(vm *VM, fr *Frame) error {
	classVal := fr.pop()
	exc := fr.peek(0)
	cls := classVal.AsClass()
	if cls == nil {
		return vm.raiseErrorf("TypeError", "catching classes that do not inherit from Exception is not allowed")
	}
	fr.push(NewBool(exc.IsInstanceOf(cls)))
	return nil
}
func (matchExceptionInstr) String() string { return "MatchCurrentException" }

// handleExceptionInstr is emitted at the top of a matched except clause's
// body: it pops the exception Value (binding it to a local first if the
// clause named one via `as`) so the handler body runs with a clean stack.
type handleExceptionInstr struct {
	BindSlot int // -1 if the clause has no `as name`
}

func (h handleExceptionInstr) Execute(vm *VM, fr *Frame) error {
	exc := fr.pop()
	if h.BindSlot >= 0 {
		fr.locals[h.BindSlot] = exc
	}
	return nil
}
func (h handleExceptionInstr) String() string { return "HandleCurrentException" }

// finishHandlerInstr marks normal completion of an except/finally body,
// the op LeaveCatchRegion/LeaveFinallyRegion bracket but which also needs
// to run when control falls out of the clause via a jump past it.
type finishHandlerInstr struct{}

func (finishHandlerInstr) Execute(vm *VM, fr *Frame) error { return nil }
func (finishHandlerInstr) String() string                  { return "FinishExceptionHandler" }

type assertionFailedInstr struct{}

func (assertionFailedInstr) Execute(vm *VM, fr *Frame) error {
	msg := fr.pop()
	text := ""
	if !msg.IsNone() {
		text = valueToDisplayString(msg)
	}
	return vm.raiseErrorf("AssertionError", "%s", text)
}
func (assertionFailedInstr) String() string { return "AssertionFailed" }

// loopControlJumpInstr implements break/continue across one or more
// enclosing exception regions: it pops FinallyCount excStack entries
// (except and finally regions alike, running none of them here — the
// compiler has already emitted a copy of each crossed finally body just
// before this instruction) and jumps to Target.
type loopControlJumpInstr struct {
	FinallyCount int
	Target       int
}

func (l loopControlJumpInstr) Execute(vm *VM, fr *Frame) error {
	for i := 0; i < l.FinallyCount; i++ {
		fr.popExc()
	}
	fr.pc = l.Target
	return nil
}
func (l loopControlJumpInstr) String() string {
	return fmt.Sprintf("LoopControlJump %d %d", l.FinallyCount, l.Target)
}

// --- generators ---

// startGeneratorInstr wraps fr in a GeneratorIter and hands that back to
// the caller instead of running the body. The compiler does not emit it:
// callFunction wraps a generator block's frame in a GeneratorIter
// directly when the block's IsGen is set.
type startGeneratorInstr struct{}

func (startGeneratorInstr) Execute(vm *VM, fr *Frame) error {
	gen := newGeneratorIter(newFunctionValue(&funcData{block: fr.block, closure: fr.parent}), fr)
	return &returnSignal{value: NewObjectValue(gen)}
}
func (startGeneratorInstr) String() string { return "StartGenerator" }

// suspendGeneratorInstr is `yield expr`: it parks the running frame exactly
// where it is (pc already advanced past this instruction) and hands the
// yielded value back to generatorNext's caller.
type suspendGeneratorInstr struct{}

func (suspendGeneratorInstr) Execute(vm *VM, fr *Frame) error {
	return &suspendSignal{value: fr.pop()}
}
func (suspendGeneratorInstr) String() string { return "SuspendGenerator" }

// resumeGeneratorInstr is the first instruction after a yield point: it
// pushes the value generatorNext's caller sent in (via `.send()`), or None
// if the resume came from a plain `next()`/for-loop call.
type resumeGeneratorInstr struct{}

func (resumeGeneratorInstr) Execute(vm *VM, fr *Frame) error {
	fr.push(fr.sentValue)
	fr.sentValue = None
	return nil
}
func (resumeGeneratorInstr) String() string { return "ResumeGenerator" }

// leaveGeneratorInstr is emitted where a generator body's Return would
// otherwise go: it ends the frame's run (so runFrame reports it as
// finished, not suspended) and the caller raises StopIteration, matching
// `return` inside a generator meaning "stop iteration" rather than
// producing the function's result value.
type leaveGeneratorInstr struct{}

func (leaveGeneratorInstr) Execute(vm *VM, fr *Frame) error {
	return &returnSignal{value: None}
}
func (leaveGeneratorInstr) String() string { return "LeaveGenerator" }
