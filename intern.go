package pallas

import "sync"

// Name is an interned identifier. Two Names compare equal iff their
// underlying strings are equal, and the interning makes that check a
// pointer comparison instead of a byte-by-byte one.
type Name struct {
	s *string
}

func (n Name) String() string { return *n.s }
func (n Name) IsZero() bool   { return n.s == nil }

func (n Name) Equal(o Name) bool { return n.s == o.s }

var internTable = struct {
	sync.Mutex
	m map[string]*string
}{m: map[string]*string{}}

// Intern returns the canonical Name for s, allocating a new entry the
// first time s is seen.
func Intern(s string) Name {
	internTable.Lock()
	defer internTable.Unlock()
	if p, ok := internTable.m[s]; ok {
		return Name{p}
	}
	p := new(string)
	*p = s
	internTable.m[s] = p
	return Name{p}
}
