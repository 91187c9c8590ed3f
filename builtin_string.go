package pallas

import (
	"fmt"
	"strings"
)

// stringData is the native payload backing a str instance: an immutable
// Go string, grounded on original_source/string.h wrapping a single
// std::string field.
type stringData struct {
	s string
}

func (s *stringData) traceNative(t *Tracer)    {}
func (s *stringData) isTrueNative() bool       { return s.s != "" }
func (s *stringData) displayStringNative() string { return s.s }

var StringClass = NewClass("str", ObjectClass)

func newStringObject(s string) *Object {
	o := NewObject(StringClass)
	o.native = &stringData{s: s}
	return o
}

func asString(o *Object) (string, bool) {
	sd, ok := o.native.(*stringData)
	if !ok {
		return "", false
	}
	return sd.s, true
}

func valueAsGoString(v Value) (string, bool) {
	o := v.AsObject()
	if o == nil {
		return "", false
	}
	return asString(o)
}

func init() {
	registerMethod(StringClass, "upper", 1, 1, func(vm *VM, args []Value) (Value, error) {
		s, _ := valueAsGoString(args[0])
		return NewObjectValue(newStringObject(strings.ToUpper(s))), nil
	})
	registerMethod(StringClass, "lower", 1, 1, func(vm *VM, args []Value) (Value, error) {
		s, _ := valueAsGoString(args[0])
		return NewObjectValue(newStringObject(strings.ToLower(s))), nil
	})
	registerMethod(StringClass, "strip", 1, 1, func(vm *VM, args []Value) (Value, error) {
		s, _ := valueAsGoString(args[0])
		return NewObjectValue(newStringObject(strings.TrimSpace(s))), nil
	})
	registerMethod(StringClass, "split", 1, 2, func(vm *VM, args []Value) (Value, error) {
		s, _ := valueAsGoString(args[0])
		sep := " "
		if len(args) == 2 {
			sep, _ = valueAsGoString(args[1])
		}
		var parts []string
		if len(args) == 2 {
			parts = strings.Split(s, sep)
		} else {
			parts = strings.Fields(s)
		}
		items := make([]Value, len(parts))
		for i, p := range parts {
			items[i] = NewObjectValue(newStringObject(p))
		}
		return NewObjectValue(newListObject(items)), nil
	})
	registerMethod(StringClass, "join", 2, 2, func(vm *VM, args []Value) (Value, error) {
		sep, _ := valueAsGoString(args[0])
		items, err := iterableToSlice(vm, args[1])
		if err != nil {
			return None, err
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = valueToDisplayString(it)
		}
		return NewObjectValue(newStringObject(strings.Join(parts, sep))), nil
	})
	registerMethod(StringClass, "format", 1, -1, func(vm *VM, args []Value) (Value, error) {
		s, _ := valueAsGoString(args[0])
		rest := args[1:]
		for _, a := range rest {
			s = strings.Replace(s, "{}", valueToDisplayString(a), 1)
		}
		return NewObjectValue(newStringObject(s)), nil
	})
	registerMethod(StringClass, "__add__", 2, 2, func(vm *VM, args []Value) (Value, error) {
		s, _ := valueAsGoString(args[0])
		t, ok := valueAsGoString(args[1])
		if !ok {
			return None, vm.raiseErrorf("TypeError", "can only concatenate str to str")
		}
		return NewObjectValue(newStringObject(s + t)), nil
	})
	registerMethod(StringClass, "__len__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		s, _ := valueAsGoString(args[0])
		return NewInt(int64(len([]rune(s)))), nil
	})
	registerMethod(StringClass, "__str__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		return args[0], nil
	})
	registerMethod(StringClass, "__iter__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		s, _ := valueAsGoString(args[0])
		runes := []rune(s)
		items := make([]Value, len(runes))
		for i, r := range runes {
			items[i] = NewObjectValue(newStringObject(string(r)))
		}
		return NewObjectValue(newListIterator(items)), nil
	})
}

// registerMethod installs a native builtin as a method attribute on cls,
// the Go equivalent of original_source's initNativeMethod helper.
func registerMethod(cls *Class, name string, minArgs, maxArgs int, fn NativeFunc) {
	cls.setAttr(Intern(name), NewObjectValue(newNative(fmt.Sprintf("%s.%s", cls.name, name), minArgs, maxArgs, fn)))
}
