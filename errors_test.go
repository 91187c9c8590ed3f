package pallas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorOnSyntaxFailure(t *testing.T) {
	prog := NewProgram(NewConfig())
	defer prog.Close()

	_, err := prog.Run("<test>", "def f(:\n    1\n")
	require.Error(t, err)

	// A malformed def must fail before any code runs, so it can never
	// surface as an *UnwindError (a raised exception from running code).
	_, isUnwind := err.(*UnwindError)
	assert.False(t, isUnwind)
}

func TestCompileErrorOnUnresolvableBreak(t *testing.T) {
	prog := NewProgram(NewConfig())
	defer prog.Close()

	_, err := prog.Run("<test>", "break\n")
	require.Error(t, err)

	ce, ok := err.(*CompileError)
	require.True(t, ok, "break outside a loop must fail at compile time")
	assert.Equal(t, "SyntaxError", ce.ClassName)
}

func TestUnwindErrorCarriesOriginalExceptionClass(t *testing.T) {
	prog := NewProgram(NewConfig())
	defer prog.Close()

	_, err := prog.Run("<test>", `raise ValueError("bad input")`)
	require.Error(t, err)

	ue, ok := err.(*UnwindError)
	require.True(t, ok)
	assert.Equal(t, "ValueError", ue.ClassName())
	assert.Equal(t, "bad input", ue.Message())
}

func TestUnwindErrorPropagatesThroughNestedCalls(t *testing.T) {
	prog := NewProgram(NewConfig())
	defer prog.Close()

	src := `
def inner():
    raise KeyError("missing")

def outer():
    inner()

outer()
`
	_, err := prog.Run("<test>", src)
	require.Error(t, err)
	ue, ok := err.(*UnwindError)
	require.True(t, ok)
	assert.Equal(t, "KeyError", ue.ClassName())
}

func TestExceptionClassesPredeclaredOnGlobals(t *testing.T) {
	prog := NewProgram(NewConfig())
	defer prog.Close()

	for _, name := range exceptionClassNames {
		v, found := prog.VM.globals.getAttrByName(name)
		require.True(t, found, "built-in exception class %s must be predeclared", name)
		assert.True(t, v.IsObject())
	}
}
