package pallas

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kallory/pallas/ascii"
)

// Program ties compilation and execution together for one running script:
// the VM driving it, the Config governing the compiler/VM/GC, and the
// library namespaces loaded so far via LoadLibraryFile/LoadLibraryDir.
// Grounded on original_source/interp.h's top-level run/load entry points,
// adapted to Go's error-return idiom instead of a thrown exception.
type Program struct {
	VM     *VM
	Config Config
	Trace  ascii.Theme
}

// NewProgram builds a VM under cfg and, unless grammar.add_builtins is
// turned off, populates its globals with the built-in types/exceptions
// registerBuiltins provides. Most callers still also LoadLibraryFile the
// "builtin" library for standard-library names written in Pallas itself
// that only make sense as interpreted code.
func NewProgram(cfg Config) *Program {
	p := &Program{VM: NewVM(cfg), Config: cfg, Trace: ascii.DefaultTheme}
	if cfg.GetBool("grammar.add_builtins") {
		registerBuiltins(p.VM)
	}
	return p
}

// Close releases the Program's VM's GC root.
func (p *Program) Close() { p.VM.Close() }

// Compile parses and compiles src (named file for diagnostics and
// tracebacks) into a module-level CodeBlock, without running it.
func (p *Program) Compile(file, src string) (*CodeBlock, error) {
	return CompileModule(file, src)
}

// Disassemble renders blk one instruction per line using the Program's
// trace theme.
func (p *Program) Disassemble(blk *CodeBlock) string {
	return blk.disassemble(p.Trace)
}

// Run compiles and executes src as the program's entry module against the
// VM's current globals, returning the module's running result (the value
// of its last top-level expression statement, or None if it had none). A
// program that raises past its root frame returns an *UnwindError.
func (p *Program) Run(file, src string) (Value, error) {
	blk, err := p.Compile(file, src)
	if err != nil {
		return None, err
	}
	return p.runBlock(file, blk, p.VM.globals)
}

// runBlock drives blk to completion with globals installed as vm.globals
// for the duration of the run — every GetGlobal/SetGlobal instruction
// reads and writes vm.globals directly, never a Frame-local namespace, so
// running a library against its own fresh namespace means swapping it in
// here rather than passing it down through Frame.
//
// runFrame itself always reports None for a normally-completing root
// frame (the frame is popped off vm.frames before it returns), so the
// module's actual running-result value is read back off the frame's own
// operand stack once runFrame returns.
func (p *Program) runBlock(file string, blk *CodeBlock, globals *Object) (Value, error) {
	vm := p.VM
	savedGlobals, savedFile := vm.globals, vm.file
	vm.globals = globals
	vm.file = file
	defer func() {
		vm.globals = savedGlobals
		vm.file = savedFile
	}()

	fr := newFrame(blk, nil)
	if _, _, err := vm.runFrame(fr); err != nil {
		return None, err
	}
	if len(fr.stack) == 0 {
		return None, nil
	}
	return fr.peek(0), nil
}

// libraryName derives a library's import name from its file path: the
// base name with its extension stripped, e.g. "builtin.pls" -> "builtin".
func libraryName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadLibraryFile compiles and runs one library source file, caching the
// namespace it leaves behind so import/from-import can find it by name.
// The library named "builtin" is special-cased per spec.md: its top-level
// code runs directly against the VM's existing globals instead of a fresh
// module namespace, so its definitions land as ordinary built-ins rather
// than names reachable only through `import builtin`.
func (p *Program) LoadLibraryFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	blk, err := p.Compile(path, string(data))
	if err != nil {
		return err
	}

	name := libraryName(path)
	if name == "builtin" {
		_, err := p.runBlock(path, blk, p.VM.globals)
		return err
	}

	mod := newModuleObject(name)
	if _, err := p.runBlock(path, blk, mod); err != nil {
		return err
	}
	p.VM.modules[name] = mod
	return nil
}

// LoadLibraryDir loads every regular file directly inside dir as a
// library, in name order, except "builtin" (if present) which always
// loads first so the rest of the standard library and user code both see
// its names already installed.
func (p *Program) LoadLibraryDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for i, n := range names {
		if libraryName(n) == "builtin" {
			names = append([]string{n}, append(names[:i:i], names[i+1:]...)...)
			break
		}
	}
	for _, n := range names {
		if err := p.LoadLibraryFile(filepath.Join(dir, n)); err != nil {
			return err
		}
	}
	return nil
}
