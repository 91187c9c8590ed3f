package pallas

import (
	"bufio"
	"io"
	"os"
)

// fileData is File's native payload: an open os.File plus a buffered
// reader shared by read/readline, and the name/mode it was opened with.
// Grounded on original_source/file.h's File wrapping a C FILE*,
// generalized to Go's os.File/bufio.Reader. Signatures only, per spec.md's
// "native method tables for individual built-in types... bodies do not
// [matter]" scoping note — read/write/readline/close do real I/O but
// without original_source's seek/truncate/tell/fileno/isatty surface.
type fileData struct {
	f      *os.File
	r      *bufio.Reader
	name   string
	mode   string
	closed bool
}

func (fd *fileData) displayStringNative() string {
	state := "open"
	if fd.closed {
		state = "closed"
	}
	return "<" + state + " file '" + fd.name + "', mode '" + fd.mode + "'>"
}

var FileClass = NewClass("file", ObjectClass)

func newFileObject(f *os.File, name, mode string) *Object {
	o := NewObject(FileClass)
	o.native = &fileData{f: f, r: bufio.NewReader(f), name: name, mode: mode}
	return o
}

func asFile(o *Object) (*fileData, bool) {
	fd, ok := o.native.(*fileData)
	return fd, ok
}

func openFileForMode(name, mode string) (*os.File, error) {
	switch mode {
	case "w":
		return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	case "a":
		return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	default:
		return os.Open(name)
	}
}

func init() {
	registerMethod(FileClass, "__init__", 2, 3, func(vm *VM, args []Value) (Value, error) {
		self := args[0].AsObject()
		name, ok := valueAsGoString(args[1])
		if !ok {
			return None, vm.raiseErrorf("TypeError", "file() name must be a string")
		}
		mode := "r"
		if len(args) == 3 {
			m, ok := valueAsGoString(args[2])
			if !ok {
				return None, vm.raiseErrorf("TypeError", "file() mode must be a string")
			}
			mode = m
		}
		f, err := openFileForMode(name, mode)
		if err != nil {
			return None, vm.raiseErrorf("OSError", "%s", err.Error())
		}
		self.native = &fileData{f: f, r: bufio.NewReader(f), name: name, mode: mode}
		return None, nil
	})

	registerMethod(FileClass, "read", 1, 2, func(vm *VM, args []Value) (Value, error) {
		fd, _ := asFile(args[0].AsObject())
		if fd.closed {
			return None, vm.raiseErrorf("ValueError", "I/O operation on closed file")
		}
		if len(args) == 2 && !args[1].IsNone() {
			n := int(args[1].AsInt64())
			buf := make([]byte, n)
			k, err := io.ReadFull(fd.r, buf)
			if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
				return None, vm.raiseErrorf("OSError", "%s", err.Error())
			}
			return NewObjectValue(newStringObject(string(buf[:k]))), nil
		}
		data, err := io.ReadAll(fd.r)
		if err != nil {
			return None, vm.raiseErrorf("OSError", "%s", err.Error())
		}
		return NewObjectValue(newStringObject(string(data))), nil
	})

	registerMethod(FileClass, "readline", 1, 1, func(vm *VM, args []Value) (Value, error) {
		fd, _ := asFile(args[0].AsObject())
		if fd.closed {
			return None, vm.raiseErrorf("ValueError", "I/O operation on closed file")
		}
		line, err := fd.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return None, vm.raiseErrorf("OSError", "%s", err.Error())
		}
		return NewObjectValue(newStringObject(line)), nil
	})

	registerMethod(FileClass, "write", 2, 2, func(vm *VM, args []Value) (Value, error) {
		fd, _ := asFile(args[0].AsObject())
		if fd.closed {
			return None, vm.raiseErrorf("ValueError", "I/O operation on closed file")
		}
		s, ok := valueAsGoString(args[1])
		if !ok {
			return None, vm.raiseErrorf("TypeError", "write() argument must be a string")
		}
		n, err := fd.f.WriteString(s)
		if err != nil {
			return None, vm.raiseErrorf("OSError", "%s", err.Error())
		}
		return NewInt(int64(n)), nil
	})

	registerMethod(FileClass, "close", 1, 1, func(vm *VM, args []Value) (Value, error) {
		fd, _ := asFile(args[0].AsObject())
		if !fd.closed {
			fd.f.Close()
			fd.closed = true
		}
		return None, nil
	})

	registerMethod(FileClass, "__str__", 1, 1, func(vm *VM, args []Value) (Value, error) {
		fd, _ := asFile(args[0].AsObject())
		return NewObjectValue(newStringObject(fd.displayStringNative())), nil
	})
}
