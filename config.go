package pallas

import "fmt"

type cfgValType int

const (
	cfgUndefined cfgValType = iota
	cfgBool
	cfgInt
	cfgString
)

type cfgVal struct {
	t cfgValType
	b bool
	i int
	s string
}

func (v *cfgVal) assignType(t cfgValType) {
	if v.t == cfgUndefined {
		v.t = t
		return
	}
	v.checkType(t)
}

func (v *cfgVal) checkType(t cfgValType) {
	if v.t != t {
		panic(fmt.Sprintf("pallas: config value type mismatch: have %d, want %d", v.t, t))
	}
}

// Config is a typed-variant settings map controlling the compiler, VM and
// GC. Keys are dotted names ("gc.min_collect_at"); values panic if read or
// written with the wrong type, which catches typos at the call site
// instead of silently defaulting.
type Config map[string]*cfgVal

// NewConfig returns a Config with Pallas's defaults set.
func NewConfig() Config {
	c := Config{}
	c.SetBool("vm.optimize", true)
	c.SetInt("gc.min_collect_at", 4096)
	c.SetInt("gc.growth_factor", 2)
	c.SetBool("compiler.assert_stack_depth", false)
	c.SetBool("grammar.add_builtins", true)
	return c
}

func (c Config) entry(key string) *cfgVal {
	v, ok := c[key]
	if !ok {
		v = &cfgVal{}
		c[key] = v
	}
	return v
}

func (c Config) SetBool(key string, v bool) {
	e := c.entry(key)
	e.assignType(cfgBool)
	e.b = v
}

func (c Config) GetBool(key string) bool {
	e := c.entry(key)
	e.checkType(cfgBool)
	return e.b
}

func (c Config) SetInt(key string, v int) {
	e := c.entry(key)
	e.assignType(cfgInt)
	e.i = v
}

func (c Config) GetInt(key string) int {
	e := c.entry(key)
	e.checkType(cfgInt)
	return e.i
}

func (c Config) SetString(key string, v string) {
	e := c.entry(key)
	e.assignType(cfgString)
	e.s = v
}

func (c Config) GetString(key string) string {
	e := c.entry(key)
	e.checkType(cfgString)
	return e.s
}
