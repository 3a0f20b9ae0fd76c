package brisk

import "testing"

// Interned strings with equal bytes are the same object.
func TestInterningIdentity(t *testing.T) {
	mem := NewMemory()
	a := mem.Intern("hello")
	b := mem.Intern("hello")
	if a != b {
		t.Fatalf("interning the same bytes twice produced distinct objects")
	}
	if a.RefCount != 2 {
		t.Fatalf("want refcount 2 after two interns, got %d", a.RefCount)
	}
	mem.DecRef(a)
	mem.DecRef(b)
	if _, stillThere := mem.interner.table["hello"]; stillThere {
		t.Fatalf("interner entry should be gone after the last reference is released")
	}
}

// Pushing a value into an array increments its refcount; popping does
// not decrement it (the caller takes ownership of the popped value).
func TestArrayRefcounting(t *testing.T) {
	mem := NewMemory()
	s := mem.Intern("x")
	arr := mem.NewArray(nil)
	if s.RefCount != 1 {
		t.Fatalf("want refcount 1 before push, got %d", s.RefCount)
	}
	arr.Push(mem, ObjVal(s))
	if s.RefCount != 2 {
		t.Fatalf("want refcount 2 after push, got %d", s.RefCount)
	}
	v, ok := arr.Pop()
	if !ok || v.AsString() != s {
		t.Fatalf("pop did not return the pushed string")
	}
	if s.RefCount != 2 {
		t.Fatalf("pop must not decref; want refcount 2, got %d", s.RefCount)
	}
	mem.DecRef(s) // release the caller's ownership of the popped value
	mem.DecRef(s) // release the original reference from Intern
}

// Releasing an array at refcount zero recursively releases its owned
// elements.
func TestArrayReleaseCascades(t *testing.T) {
	mem := NewMemory()
	s := mem.Intern("y")
	arr := mem.NewArray([]Value{ObjVal(s)})
	if s.RefCount != 2 {
		t.Fatalf("want refcount 2 after NewArray owns it, got %d", s.RefCount)
	}
	mem.DecRef(arr)
	if s.RefCount != 1 {
		t.Fatalf("want refcount 1 after the array releases its element, got %d", s.RefCount)
	}
}

// Table Set on a const entry fails without mutating the value.
func TestTableConstEntryRejectsSet(t *testing.T) {
	mem := NewMemory()
	tbl := mem.NewTable()
	key := mem.Intern("k")
	defer mem.DecRef(key)
	tbl.Set(mem, key, Int(1), true)
	ok := tbl.Set(mem, key, Int(2), false)
	if ok {
		t.Fatalf("expected Set on a const entry to fail")
	}
	v, _ := tbl.GetInterned(key)
	wantInt(t, v, 1)
}

// Table growth preserves every live entry.
func TestTableGrowthPreservesEntries(t *testing.T) {
	mem := NewMemory()
	tbl := mem.NewTable()
	keys := make([]*StringObject, 0, 20)
	for i := 0; i < 20; i++ {
		k := mem.Intern(string(rune('a' + i)))
		keys = append(keys, k)
		tbl.Set(mem, k, Int(int64(i)), false)
	}
	for i, k := range keys {
		v, ok := tbl.GetInterned(k)
		if !ok {
			t.Fatalf("key %d missing after growth", i)
		}
		wantInt(t, v, int64(i))
	}
	for _, k := range keys {
		mem.DecRef(k)
	}
}

// Environment.DecRef at refcount zero releases every binding it owns
// and propagates to its parent.
func TestEnvironmentReleaseCascades(t *testing.T) {
	mem := NewMemory()
	parent := NewEnv(mem, nil)
	child := NewEnv(mem, parent)
	s := mem.Intern("z")
	child.Define("v", ObjVal(s), false)
	if s.RefCount != 2 {
		t.Fatalf("want refcount 2 after Define, got %d", s.RefCount)
	}
	child.DecRef()
	if s.RefCount != 1 {
		t.Fatalf("want refcount 1 after the environment releases it, got %d", s.RefCount)
	}
	parent.DecRef()
}
