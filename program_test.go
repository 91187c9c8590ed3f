package pallas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSource(t *testing.T, src string) Value {
	t.Helper()
	prog := NewProgram(NewConfig())
	defer prog.Close()
	v, err := prog.Run("<test>", src)
	require.NoError(t, err)
	return v
}

func TestProgramRunModuleResult(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", "1 + 2 * 3", "7"},
		{"last expr wins", "1\n2\n3", "3"},
		{"string concat", `"a" + "b"`, "ab"},
		{"comparison chain", "1 < 2 < 3", "True"},
		{"comparison chain short circuits", "3 < 2 < 1", "False"},
		{"bool and", "True and 5", "5"},
		{"bool or short circuit", "0 or 4", "4"},
		{"list literal", "[1, 2, 3]", "[1, 2, 3]"},
		{"ternary", "1 if True else 2", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := runSource(t, tt.src)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestProgramFunctionsAndClosures(t *testing.T) {
	src := `
def adder(n):
    def inner(x):
        return x + n
    return inner

add5 = adder(5)
add5(10)
`
	v := runSource(t, src)
	assert.Equal(t, int64(15), v.AsInt64())
}

func TestProgramClassesAndMethods(t *testing.T) {
	src := `
class Counter:
    def __init__(self, start):
        self.n = start
    def bump(self):
        self.n = self.n + 1
        return self.n

c = Counter(10)
c.bump()
c.bump()
`
	v := runSource(t, src)
	assert.Equal(t, int64(12), v.AsInt64())
}

func TestProgramListComprehension(t *testing.T) {
	src := `[x * x for x in [1, 2, 3, 4] if x != 3]`
	v := runSource(t, src)
	assert.Equal(t, "[1, 4, 16]", v.String())
}

func TestProgramForLoopBreakContinue(t *testing.T) {
	src := `
total = 0
for i in [1, 2, 3, 4, 5]:
    if i == 2:
        continue
    if i == 5:
        break
    total = total + i
total
`
	v := runSource(t, src)
	assert.Equal(t, int64(8), v.AsInt64())
}

func TestProgramTryExceptFinally(t *testing.T) {
	src := `
log = []
def run():
    try:
        raise ValueError("boom")
    except ValueError as e:
        log.append("caught")
    finally:
        log.append("done")

run()
log
`
	v := runSource(t, src)
	assert.Equal(t, "['caught', 'done']", v.String())
}

func TestProgramGenerator(t *testing.T) {
	src := `
def gen():
    yield 1
    yield 2
    yield 3

result = []
for v in gen():
    result.append(v)
result
`
	v := runSource(t, src)
	assert.Equal(t, "[1, 2, 3]", v.String())
}

func TestProgramDestructuringAssignment(t *testing.T) {
	src := `
a, b, c = [1, 2, 3]
a + b + c
`
	v := runSource(t, src)
	assert.Equal(t, int64(6), v.AsInt64())
}

func TestProgramUncaughtExceptionUnwind(t *testing.T) {
	prog := NewProgram(NewConfig())
	defer prog.Close()
	_, err := prog.Run("<test>", `raise RuntimeError("kaboom")`)
	require.Error(t, err)
	ue, ok := err.(*UnwindError)
	require.True(t, ok)
	assert.Equal(t, "RuntimeError", ue.ClassName())
	assert.Equal(t, "kaboom", ue.Message())
}

func TestProgramLoadLibraryFile(t *testing.T) {
	dir := t.TempDir()
	writeLib(t, dir, "greet.pls", `
def hello(name):
    return "hello " + name
`)
	prog := NewProgram(NewConfig())
	defer prog.Close()
	require.NoError(t, prog.LoadLibraryDir(dir))

	v, err := prog.Run("<test>", `
import greet
greet.hello("world")
`)
	require.NoError(t, err)
	assert.Equal(t, "hello world", v.String())
}

func writeLib(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
}
