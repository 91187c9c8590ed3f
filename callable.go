package pallas

import "fmt"

// NativeFunc is a builtin implemented in Go rather than compiled Pallas
// bytecode; Natives receive their already-evaluated arguments as a slice
// instead of popping them off the VM operand stack one at a time, the
// Go-idiomatic equivalent of original_source's NativeN hierarchy
// (Native0/Native1/Native2 specialized per arity).
type NativeFunc func(vm *VM, args []Value) (Value, error)

type nativeFuncData struct {
	name     string
	minArgs  int
	maxArgs  int // -1 means variadic
	fn       NativeFunc
}

func (n *nativeFuncData) traceNative(t *Tracer) {}

var NativeFunctionClass = NewClass("native_function", ObjectClass)

// newNative wraps fn as a callable Object of NativeFunctionClass.
func newNative(name string, minArgs, maxArgs int, fn NativeFunc) *Object {
	o := NewObject(NativeFunctionClass)
	o.native = &nativeFuncData{name: name, minArgs: minArgs, maxArgs: maxArgs, fn: fn}
	return o
}

func asNative(o *Object) (*nativeFuncData, bool) {
	nd, ok := o.native.(*nativeFuncData)
	return nd, ok
}

// funcData is the native payload behind a Function Object: its compiled
// Block, the lexical frame it closed over (nil at module scope), and its
// parameter defaults. Grounded on original_source/callable.h's Function
// (argNames + Block), extended with the captured Frame a closure needs.
type funcData struct {
	name     Name
	block    *CodeBlock
	closure  *Frame
	defaults []Value // one entry per trailing optional param, not parallel to block.Params
}

func (f *funcData) traceNative(t *Tracer) {
	for fr := f.closure; fr != nil; fr = fr.parent {
		for _, v := range fr.locals {
			if c, ok := v.asCell(); ok {
				t.Visit(c)
			}
		}
	}
	for _, d := range f.defaults {
		if c, ok := d.asCell(); ok {
			t.Visit(c)
		}
	}
}

var FunctionClass = NewClass("function", ObjectClass)

func newFunction(name Name, block *CodeBlock, closure *Frame, defaults []Value) *Object {
	o := NewObject(FunctionClass)
	o.native = &funcData{name: name, block: block, closure: closure, defaults: defaults}
	return o
}

func asFunction(o *Object) (*funcData, bool) {
	fd, ok := o.native.(*funcData)
	return fd, ok
}

func (f *funcData) requiredArgs() int {
	return len(f.block.Params) - len(f.defaults)
}

func (f *funcData) displayStringNative() string {
	return fmt.Sprintf("<function %s>", f.name.String())
}

// boundMethodData pairs an unbound function with the instance it was
// looked up on, so a subsequent Call instruction pushes self as the
// implicit first argument. Produced by GET_METHOD when attribute lookup
// resolves to a class-level function rather than an instance attribute.
type boundMethodData struct {
	self Value
	fn   *Object
}

func (b *boundMethodData) traceNative(t *Tracer) {
	if c, ok := b.self.asCell(); ok {
		t.Visit(c)
	}
	t.Visit(b.fn)
}

var BoundMethodClass = NewClass("bound_method", ObjectClass)

func newBoundMethod(self Value, fn *Object) *Object {
	o := NewObject(BoundMethodClass)
	o.native = &boundMethodData{self: self, fn: fn}
	return o
}

func asBoundMethod(o *Object) (*boundMethodData, bool) {
	bd, ok := o.native.(*boundMethodData)
	return bd, ok
}
