package brisk

// StringObject is an immutable, interned character buffer. Two strings
// with equal bytes are the same object after interning, so downstream
// equality and hashing reduce to identity in the common case.
type StringObject struct {
	Object
	Length int
	Hash   uint32
	Chars  string
}

// fnv1a32 matches the hash the reference implementation and its table
// both rely on for string keys.
func fnv1a32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Interner canonicalizes string content to a single heap object. It is
// owned by a Memory rather than kept in a package-level global, so two
// Interpreter instances never share string identity.
type Interner struct {
	table map[string]*StringObject
}

func NewInterner() *Interner {
	return &Interner{table: make(map[string]*StringObject)}
}

// Intern returns the canonical StringObject for s, creating and tracking
// it on first use and bumping its reference count on every use
// thereafter (the interner itself holds one logical strong reference
// for as long as any entry exists).
func (m *Memory) Intern(s string) *StringObject {
	if existing, ok := m.interner.table[s]; ok {
		m.IncRef(existing)
		return existing
	}
	obj := &StringObject{
		Object: Object{Kind: ObjString, RefCount: 1},
		Length: len(s),
		Hash:   fnv1a32(s),
		Chars:  s,
	}
	m.interner.table[s] = obj
	m.track(obj, int64(len(s))+1)
	return obj
}

// Release removes the interner's entry when the object being freed was
// the canonical instance for its content (refcount already hit zero by
// the time this runs).
func (in *Interner) Release(s *StringObject) {
	if cur, ok := in.table[s.Chars]; ok && cur == s {
		delete(in.table, s.Chars)
	}
}

// Str interns src and wraps it as a Value in one step; the most common
// entry point for producing string values from literals and builtins.
func (m *Memory) Str(src string) Value {
	return ObjVal(m.Intern(src))
}
