package pallas

import "fmt"

// VM is the stack-machine interpreter: a flat frame stack shared by
// ordinary calls and suspended generators, plus the module-level
// namespace bytecode resolves GetGlobal/SetGlobal against. Grounded on
// original_source/interp.h's Interpreter (frame stack + operand stack),
// reshaped so each Frame owns its own operand stack instead of one
// shared across the whole VM — the detail that lets a GeneratorIter
// keep its pending expression stack intact across a suspend.
type VM struct {
	frames  []*Frame
	globals *Object
	config  Config
	idx     *LineIndex
	file    string

	// modules holds every library Program.LoadLibraryDir/LoadLibraryFile
	// has already loaded, keyed by library name. import/from-import only
	// ever consult this cache — there is no on-demand filesystem search
	// at runtime.
	modules map[string]*Object

	root rootNode

	// Trace, if non-nil, is invoked by the dispatch loop for every frame
	// transition and executed instruction — the hook the CLI's -le/-lf
	// flags install to print a running trace. Left nil (the default) it
	// costs the hot loop nothing beyond a pointer check.
	Trace func(TraceEvent)
}

// TraceEvent describes one step the dispatch loop just took. Kind is
// "enter"/"exit" for a frame transition, or "instr" for one executed
// instruction; Instr is nil for frame-transition events.
type TraceEvent struct {
	Kind  string
	Frame *Frame
	PC    int
	Instr Instruction
}

func NewVM(cfg Config) *VM {
	theHeap.Configure(cfg)
	vm := &VM{
		globals: NewObject(ObjectClass),
		config:  cfg,
		modules: make(map[string]*Object),
	}
	// The collector only finds cells reachable from its root list, never by
	// walking Go pointers, so every frame currently on the VM's stack (and
	// the globals namespace) needs an explicit root for as long as the VM
	// itself is alive. A Function's captured closure chain is covered
	// separately by funcData.traceNative once the Function value itself is
	// reachable from one of these roots.
	vm.root.trace = vm.traceRoots
	theHeap.addRoot(&vm.root)
	return vm
}

func (vm *VM) traceRoots(t *Tracer) {
	t.Visit(vm.globals)
	for _, mod := range vm.modules {
		t.Visit(mod)
	}
	for _, fr := range vm.frames {
		for _, v := range fr.locals {
			if c, ok := v.asCell(); ok {
				t.Visit(c)
			}
		}
		for _, v := range fr.stack {
			if c, ok := v.asCell(); ok {
				t.Visit(c)
			}
		}
		if c, ok := fr.self.asCell(); ok {
			t.Visit(c)
		}
		if c, ok := fr.sentValue.asCell(); ok {
			t.Visit(c)
		}
	}
}

// Close releases the VM's GC root; callers that create short-lived VMs
// (e.g. tests running many scripts in one process) should call this when
// done so the heap doesn't keep tracing a dead VM's frames forever.
func (vm *VM) Close() { theHeap.removeRoot(&vm.root) }

// returnSignal and suspendSignal are control-flow sentinels an
// Instruction's Execute returns instead of a genuine error; runFrame's
// dispatch loop recognizes them by type and never lets them escape to a
// caller as if they were raised exceptions.
type returnSignal struct{ value Value }

func (r *returnSignal) Error() string { return "return" }

type suspendSignal struct{ value Value }

func (s *suspendSignal) Error() string { return "yield" }

// runFrame pushes fr onto the VM's frame stack and drives the dispatch
// loop until fr (and anything it calls) either returns, suspends at a
// YIELD, or raises uncaught past fr itself. baseDepth is the frame stack
// depth at entry, so nested runFrame calls (a generator resumed from
// inside another frame's Call) can tell their own frames apart from the
// caller's.
func (vm *VM) runFrame(fr *Frame) (Value, bool, error) {
	baseDepth := len(vm.frames)
	vm.frames = append(vm.frames, fr)
	if vm.Trace != nil {
		vm.Trace(TraceEvent{Kind: "enter", Frame: fr})
	}

	for len(vm.frames) > baseDepth {
		top := vm.frames[len(vm.frames)-1]

		if top.pc >= top.block.instrCount() {
			vm.frames = vm.frames[:len(vm.frames)-1]
			if vm.Trace != nil {
				vm.Trace(TraceEvent{Kind: "exit", Frame: top})
			}
			if len(vm.frames) > baseDepth {
				vm.frames[len(vm.frames)-1].push(None)
				continue
			}
			return None, false, nil
		}

		idx := top.pc
		top.pc = idx + 1
		instr := top.block.at(idx)
		if vm.Trace != nil {
			vm.Trace(TraceEvent{Kind: "instr", Frame: top, PC: idx, Instr: instr})
		}
		err := instr.Execute(vm, top)
		if err == nil {
			continue
		}

		switch sig := err.(type) {
		case *suspendSignal:
			vm.frames = vm.frames[:len(vm.frames)-1]
			if vm.Trace != nil {
				vm.Trace(TraceEvent{Kind: "exit", Frame: top})
			}
			return sig.value, true, nil
		case *returnSignal:
			vm.frames = vm.frames[:len(vm.frames)-1]
			if vm.Trace != nil {
				vm.Trace(TraceEvent{Kind: "exit", Frame: top})
			}
			if len(vm.frames) > baseDepth {
				vm.frames[len(vm.frames)-1].push(sig.value)
				continue
			}
			return sig.value, false, nil
		}

		if !vm.unwind(baseDepth, err) {
			return None, false, err
		}
	}
	return None, false, nil
}

// unwind searches frames above baseDepth for a pending exception/finally
// region, from the innermost frame out, truncating each frame's operand
// stack and pushing the exception for the compiler-generated handler
// prologue to inspect. Returns false if no region claims it, leaving the
// error to propagate to whatever called runFrame.
func (vm *VM) unwind(baseDepth int, err error) bool {
	ue, ok := err.(*UnwindError)
	if !ok {
		return false
	}
	for len(vm.frames) > baseDepth {
		fr := vm.frames[len(vm.frames)-1]
		if len(fr.excStack) > 0 {
			region := fr.excStack[len(fr.excStack)-1]
			fr.excStack = fr.excStack[:len(fr.excStack)-1]
			fr.truncateStack(region.stackDepth)
			fr.push(NewObjectValue(ue.Exception))
			fr.pc = region.target
			return true
		}
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	return false
}

func (vm *VM) raiseErrorf(className, format string, args ...interface{}) error {
	return vm.raise(className, fmt.Sprintf(format, args...))
}

func (vm *VM) raiseStopIteration() error {
	return vm.raise("StopIteration", "")
}

// raise builds an exception Object of the named builtin class and wraps
// it as an UnwindError, the same shape a compiled RAISE instruction
// produces.
func (vm *VM) raise(className, message string) error {
	return vm.wrapRaise(newException(lookupBuiltinExceptionClass(className), message))
}

// wrapRaise attaches the current top frame's source position to exc and
// wraps it as an UnwindError. Reading vm.frames here, rather than
// threading a Frame through every raise call site, is what lets a
// compiled RAISE instruction (which only has the Object to raise, not a
// position) get the same Span a native raiseErrorf call does.
func (vm *VM) wrapRaise(exc *Object) *UnwindError {
	ue := &UnwindError{Exception: exc}
	if n := len(vm.frames); n > 0 {
		top := vm.frames[n-1]
		pc := top.pc - 1
		if pc < 0 {
			pc = 0
		}
		ue.Span = Span{File: vm.file, Range: top.block.rangeAt(pc)}
	}
	return ue
}

// call invokes callee with args already evaluated, dispatching on its
// concrete kind: a compiled Function pushes and drives a new Frame, a
// NativeFunc calls straight into Go, a Class constructs an instance and
// runs __init__, and a bound method re-inserts its receiver.
func (vm *VM) call(callee Value, args []Value) (Value, error) {
	obj := callee.AsObject()
	if obj == nil {
		if cls := callee.AsClass(); cls != nil {
			return vm.construct(cls, args)
		}
		return None, vm.raiseErrorf("TypeError", "object is not callable")
	}
	if bd, ok := asBoundMethod(obj); ok {
		return vm.call(NewObjectValue(bd.fn), append([]Value{bd.self}, args...))
	}
	if nd, ok := asNative(obj); ok {
		if len(args) < nd.minArgs || (nd.maxArgs >= 0 && len(args) > nd.maxArgs) {
			return None, vm.raiseErrorf("TypeError", "%s() takes between %d and %d arguments (%d given)", nd.name, nd.minArgs, nd.maxArgs, len(args))
		}
		return nd.fn(vm, args)
	}
	if fd, ok := asFunction(obj); ok {
		return vm.callFunction(fd, args)
	}
	return None, vm.raiseErrorf("TypeError", "object is not callable")
}

func (vm *VM) callFunction(fd *funcData, args []Value) (Value, error) {
	nparams := len(fd.block.Params)
	ndefaults := len(fd.defaults)
	required := nparams - ndefaults
	hasRest := !fd.block.RestParam.IsZero()
	if len(args) < required || (!hasRest && len(args) > nparams) {
		return None, vm.raiseErrorf("TypeError", "%s() takes %d arguments (%d given)", fd.name.String(), nparams, len(args))
	}
	fr := newFrame(fd.block, fd.closure)
	for i := 0; i < nparams; i++ {
		if i < len(args) {
			fr.locals[i] = args[i]
		} else {
			fr.locals[i] = fd.defaults[i-required]
		}
	}
	if hasRest {
		var extra []Value
		if len(args) > nparams {
			extra = append(extra, args[nparams:]...)
		}
		fr.locals[nparams] = NewObjectValue(newTupleObject(extra))
	}
	if fd.block.IsGen {
		gen := newGeneratorIter(newFunctionValue(fd), fr)
		return NewObjectValue(gen), nil
	}
	value, _, err := vm.runFrame(fr)
	return value, err
}

func newFunctionValue(fd *funcData) *Object {
	o := NewObject(FunctionClass)
	o.native = fd
	return o
}

// construct allocates an instance of cls and runs its __init__ (if any)
// with the new instance bound as self, then returns the instance.
func (vm *VM) construct(cls *Class, args []Value) (Value, error) {
	inst := NewObjectWithLayout(cls, cls.instanceLayout())
	instVal := NewObjectValue(inst)
	if initFn, ok := cls.lookupAttr(Intern("__init__")); ok {
		if _, err := vm.call(initFn, append([]Value{instVal}, args...)); err != nil {
			return None, err
		}
	}
	return instVal, nil
}

// getMethod resolves name on recv the way GET_METHOD's inline cache
// does at full generality (no cache): instance attributes win outright;
// a class-level function is bound to recv first so a subsequent Call
// instruction doesn't need to special-case unbound functions.
func (vm *VM) getMethod(recv Value, name Name) (Value, error) {
	ah, ok := recv.AsAttrHolder()
	if !ok {
		return None, vm.raiseErrorf("AttributeError", "%s object has no attribute %s", recv.Type().Name(), name.String())
	}
	v, found := ah.getAttr(name)
	if !found {
		return None, vm.raiseErrorf("AttributeError", "%s object has no attribute %s", recv.Type().Name(), name.String())
	}
	if o := recv.AsObject(); o != nil && o.hasOwnAttr(name) {
		return v, nil
	}
	if fnObj := v.AsObject(); fnObj != nil {
		_, isFn := asFunction(fnObj)
		_, isNative := asNative(fnObj)
		if isFn || isNative {
			return NewObjectValue(newBoundMethod(recv, fnObj)), nil
		}
	}
	return v, nil
}
