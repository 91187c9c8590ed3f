package pallas

import "fmt"

// exceptionClassNames lists every built-in Exception subclass the runtime
// predeclares at startup. Order matches spec.md §7.
var exceptionClassNames = []string{
	"Exception",
	"AttributeError",
	"NameError",
	"TypeError",
	"ValueError",
	"IndexError",
	"KeyError",
	"ZeroDivisionError",
	"StopIteration",
	"AssertionError",
	"RuntimeError",
	"NotImplementedError",
	"OSError",
	"ImportError",
	"SyntaxError",
}

// CompileError aborts compilation. It always carries a SyntaxError class
// name so the host can report it the same way an interpreted SyntaxError
// would be printed, even though compilation never runs interpreted code.
type CompileError struct {
	ClassName string
	Message   string
	Span      Span
	idx       *LineIndex
}

func newCompileError(class, msg string, span Span, idx *LineIndex) *CompileError {
	return &CompileError{ClassName: class, Message: msg, Span: span, idx: idx}
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s @ %s", e.ClassName, e.Message, e.Span.String(e.idx))
}

// UnwindError is returned by Program.Run when the interpreted program
// terminates with an uncaught exception at the root frame. It wraps the
// *Object representing the exception so the host can inspect it further.
// Span records where the raise happened, read from the VM's top frame at
// the moment it was built, so a CLI host can print a source location
// without threading position information through every raise call site.
type UnwindError struct {
	Exception *Object
	Span      Span
}

func (e *UnwindError) Error() string {
	return fullExceptionMessage(e.Exception)
}

// ClassName and Message expose the raised exception's class name and
// message text to hosts outside this package (the CLI's uncaught-
// exception report) without exposing Object's internals generally.
func (e *UnwindError) ClassName() string {
	if e.Exception.class != nil {
		return e.Exception.class.name
	}
	return "Exception"
}

func (e *UnwindError) Message() string {
	if v, ok := e.Exception.getAttrByName("message"); ok {
		return valueToDisplayString(v)
	}
	return ""
}

func fullExceptionMessage(exc *Object) string {
	class := "Exception"
	if exc.class != nil {
		class = exc.class.name
	}
	msg := ""
	if v, ok := exc.getAttrByName("message"); ok {
		msg = valueToDisplayString(v)
	}
	return fmt.Sprintf("%s: %s", class, msg)
}
