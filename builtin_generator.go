package pallas

// genState is the four-state generator lifecycle from spec.md:
// Initial (never run), Suspended (parked at a yield), Running (currently
// executing, reentrancy is an error), Finished (body returned or raised
// past the boundary). Grounded on original_source/generator.h's State
// enum.
type genState int

const (
	genInitial genState = iota
	genSuspended
	genRunning
	genFinished
)

// generatorState is the native payload of a GeneratorIter Object: the
// function that produced it and the (possibly suspended) Frame running
// its body. Frame.stack/locals/pc already capture everything needed to
// resume, so unlike original_source there is no separate savedStack_ —
// the Frame simply sits out of vm.frames while suspended.
type generatorState struct {
	state genState
	fn    *Object
	frame *Frame
}

func (g *generatorState) traceNative(t *Tracer) {
	t.Visit(g.fn)
	for _, v := range g.frame.locals {
		if c, ok := v.asCell(); ok {
			t.Visit(c)
		}
	}
	for _, v := range g.frame.stack {
		if c, ok := v.asCell(); ok {
			t.Visit(c)
		}
	}
	if c, ok := g.frame.sentValue.asCell(); ok {
		t.Visit(c)
	}
}

var GeneratorIterClass = NewClass("generator", ObjectClass)

func newGeneratorIter(fn *Object, frame *Frame) *Object {
	o := NewObject(GeneratorIterClass)
	gs := &generatorState{state: genInitial, fn: fn, frame: frame}
	frame.gen = gs
	o.native = gs
	return o
}

func asGeneratorIter(o *Object) (*generatorState, bool) {
	gs, ok := o.native.(*generatorState)
	return gs, ok
}

// generatorNext drives one step of a generator: on first call it starts
// the suspended frame running from pc 0, on later calls it reinstalls
// the frame where YIELD left it, delivering sent as the result of the
// `yield` expression that suspended it (None for a plain next()/for-loop
// step). It returns the yielded (or returned) value, or a StopIteration
// exception once the body has finished.
func generatorNext(vm *VM, g *Object, sent Value) (Value, error) {
	gs, _ := asGeneratorIter(g)
	switch gs.state {
	case genRunning:
		return None, vm.raiseErrorf("ValueError", "generator already executing")
	case genFinished:
		return None, vm.raiseStopIteration()
	}
	gs.frame.sentValue = sent
	gs.state = genRunning
	result, suspended, err := vm.runFrame(gs.frame)
	if err != nil {
		gs.state = genFinished
		return None, err
	}
	if !suspended {
		gs.state = genFinished
		return None, vm.raiseStopIteration()
	}
	gs.state = genSuspended
	return result, nil
}

func asStopIteration(err error) (*Object, bool) {
	ue, ok := err.(*UnwindError)
	if !ok {
		return nil, false
	}
	return ue.Exception, ue.Exception.class != nil && ue.Exception.class.name == "StopIteration"
}

func init() {
	registerMethod(GeneratorIterClass, "__iter__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		return args[0], nil
	})
	registerMethod(GeneratorIterClass, "__next__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		return generatorNext(vm, args[0].AsObject(), None)
	})
	registerMethod(GeneratorIterClass, "send", 2, 2, func(vm *VM, args []Value) (Value, error) {
		return generatorNext(vm, args[0].AsObject(), args[1])
	})
}
