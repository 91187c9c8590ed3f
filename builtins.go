package pallas

// notImplementedData is the native payload behind the single
// NotImplemented sentinel a rich-comparison dunder returns to say "I
// don't know how to compare against this type", mirrored here even
// though no binary op currently consults it, so user code can reference
// the name the way spec.md's built-in list requires.
type notImplementedData struct{}

func (notImplementedData) displayStringNative() string { return "NotImplemented" }

var NotImplementedClass = NewClass("NotImplementedType", ObjectClass)

var notImplementedSingleton = func() *Object {
	o := NewObject(NotImplementedClass)
	o.native = notImplementedData{}
	return o
}()

// registerBuiltins populates vm.globals with every name spec.md's
// external-interfaces section requires on every module: the built-in
// types, the True/False/None/NotImplemented singletons, the exception
// classes, and the hasattr/range callables. Grounded on
// original_source/builtins.cpp's registerBuiltins, which does the same
// thing against its own global namespace at startup.
func registerBuiltins(vm *VM) {
	set := func(name string, v Value) { vm.globals.setAttrByName(name, v) }

	set("object", NewObjectValue(ObjectClass))
	set("type", NewObjectValue(ClassClass))
	set("bool", NewObjectValue(BoolClass))
	set("int", NewObjectValue(IntClass))
	set("float", NewObjectValue(FloatClass))
	set("str", NewObjectValue(StringClass))
	set("tuple", NewObjectValue(TupleClass))
	set("list", NewObjectValue(ListClass))
	set("dict", NewObjectValue(DictClass))
	set("set", NewObjectValue(SetClass))
	set("slice", NewObjectValue(SliceClass))
	set("range", NewObjectValue(RangeClass))
	set("file", NewObjectValue(FileClass))

	set("True", NewBool(true))
	set("False", NewBool(false))
	set("None", None)
	set("NotImplemented", NewObjectValue(notImplementedSingleton))

	for _, name := range exceptionClassNames {
		set(name, NewObjectValue(builtinExceptionClasses[name]))
	}

	set("hasattr", NewObjectValue(newNative("hasattr", 2, 2, builtinHasattr)))
	set("__import__", NewObjectValue(newNative("__import__", 1, 1, builtinImport(vm))))
}

// builtinHasattr reports whether obj has the named attribute, without
// letting a missing one raise AttributeError — the Go equivalent of
// original_source's hasattr swallowing its own probe's failure.
func builtinHasattr(vm *VM, args []Value) (Value, error) {
	obj := args[0]
	name, ok := valueAsGoString(args[1])
	if !ok {
		return None, vm.raiseErrorf("TypeError", "hasattr() attribute name must be a string")
	}
	ah, ok := obj.AsAttrHolder()
	if !ok {
		return NewBool(false), nil
	}
	_, found := ah.getAttr(Intern(name))
	return NewBool(found), nil
}

// builtinImport returns a native backing `import`/`from import`: it
// looks up name in the VM's already-loaded library table (populated by
// Program.LoadLibraryDir/LoadLibraryFile before the module runs) rather
// than touching the filesystem at runtime, matching spec.md's "library
// files are loaded from -l DIR" — import just names what's already there.
func builtinImport(vm *VM) NativeFunc {
	return func(vm *VM, args []Value) (Value, error) {
		name, ok := valueAsGoString(args[0])
		if !ok {
			return None, vm.raiseErrorf("TypeError", "__import__() module name must be a string")
		}
		mod, ok := vm.modules[name]
		if !ok {
			return None, vm.raiseErrorf("ImportError", "no module named '%s'", name)
		}
		return NewObjectValue(mod), nil
	}
}
