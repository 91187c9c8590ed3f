package pallas

// builtinExceptionClasses maps each name in exceptionClassNames to its
// predeclared *Class, built once at package init so both registerBuiltins
// (installing each class as a global) and the VM (constructing an
// exception to raise internally) share one instance per class.
var builtinExceptionClasses = map[string]*Class{}

// ExceptionClass is the root every other built-in exception inherits
// from; user code may also subclass it directly.
var ExceptionClass *Class

func init() {
	ExceptionClass = NewClass("Exception", ObjectClass)
	builtinExceptionClasses["Exception"] = ExceptionClass
	for _, name := range exceptionClassNames {
		if name == "Exception" {
			continue
		}
		builtinExceptionClasses[name] = NewClass(name, ExceptionClass)
	}
}

// lookupBuiltinExceptionClass returns the predeclared class for name, or
// the base Exception class if name isn't one of the predeclared ones
// (used when the VM raises an exception kind a user class shadowed).
func lookupBuiltinExceptionClass(name string) *Class {
	if c, ok := builtinExceptionClasses[name]; ok {
		return c
	}
	return ExceptionClass
}

// newException builds an Exception-family instance with its message
// attribute set, the shape a RAISE instruction and the VM's internal
// raise helper both produce.
func newException(cls *Class, message string) *Object {
	exc := NewObject(cls)
	exc.setAttrByName("message", NewObjectValue(newStringObject(message)))
	return exc
}

func init() {
	// Every built-in exception subclass inherits these through the base
	// chain, so `raise ValueError("bad")` sets message the same way the
	// VM's own internal raise helper does.
	registerMethod(ExceptionClass, "__init__", 1, 2, func(vm *VM, args []Value) (Value, error) {
		self := args[0].AsObject()
		msg := ""
		if len(args) == 2 {
			msg = valueToDisplayString(args[1])
		}
		self.setAttrByName("message", NewObjectValue(newStringObject(msg)))
		return None, nil
	})
	registerMethod(ExceptionClass, "__str__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		self := args[0].AsObject()
		if v, ok := self.getAttrByName("message"); ok {
			return v, nil
		}
		return NewObjectValue(newStringObject("")), nil
	})
}
