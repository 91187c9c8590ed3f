package pallas

// ModuleClass is the class every loaded library ends up as: Program's
// library loader runs a library file's top-level code with a fresh
// Object of this class standing in for vm.globals, then caches that
// same object in vm.modules so import/from-import see its attributes
// exactly as the library left them. Grounded on original_source's
// Module wrapping a Namespace, simplified here since *Object already
// behaves as an attribute namespace on its own.
var ModuleClass = NewClass("module", ObjectClass)

func newModuleObject(name string) *Object {
	o := NewObject(ModuleClass)
	o.setAttrByName("__name__", NewObjectValue(newStringObject(name)))
	return o
}

func init() {
	registerMethod(ModuleClass, "__str__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		self := args[0].AsObject()
		name, _ := self.getAttrByName("__name__")
		s, _ := valueAsGoString(name)
		return NewObjectValue(newStringObject("<module '" + s + "'>")), nil
	})
}
