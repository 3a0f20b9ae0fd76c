package brisk

// tableEntry is one slot of the open-addressed hash map. Key == nil
// marks an empty slot; Tombstone marks a deleted slot that must still
// be skipped-over (not reused as empty) during probing.
type tableEntry struct {
	Key       *StringObject
	Value     Value
	Const     bool
	Tombstone bool
}

// TableObject is an open-addressed map from interned string keys to
// values, with a const flag per entry and tombstones for deletion.
// Growth: doubles when count+1 exceeds 75% of capacity; initial
// capacity 8.
type TableObject struct {
	Object
	Entries []tableEntry
	Count   int // live entries, excludes tombstones
	order   []*StringObject
}

const tableInitialCapacity = 8

func (m *Memory) NewTable() *TableObject {
	t := &TableObject{
		Object:  Object{Kind: ObjTable, RefCount: 1},
		Entries: make([]tableEntry, tableInitialCapacity),
	}
	m.track(t, int64(tableInitialCapacity)*24)
	return t
}

func (m *Memory) Tab() Value { return ObjVal(m.NewTable()) }

func (t *TableObject) findSlot(key *StringObject) int {
	cap := len(t.Entries)
	idx := int(key.Hash) % cap
	for i := 0; i < cap; i++ {
		slot := (idx + i) % cap
		e := &t.Entries[slot]
		if e.Key == nil && !e.Tombstone {
			return slot
		}
		if e.Key == key {
			return slot
		}
	}
	return -1
}

func (t *TableObject) grow(m *Memory) {
	old := t.Entries
	t.Entries = make([]tableEntry, len(old)*2)
	t.Count = 0
	for _, e := range old {
		if e.Key == nil || e.Tombstone {
			continue
		}
		t.insertNoRef(e.Key, e.Value, e.Const)
	}
}

// insertNoRef places a key/value into the (already correctly-sized)
// table without touching reference counts; used by grow(), which is
// re-homing entries that already own their references.
func (t *TableObject) insertNoRef(key *StringObject, v Value, isConst bool) {
	slot := t.findSlot(key)
	e := &t.Entries[slot]
	wasEmpty := e.Key == nil
	e.Key = key
	e.Value = v
	e.Const = isConst
	e.Tombstone = false
	if wasEmpty {
		t.Count++
	}
}

// Set inserts or overwrites key with v. Returns false if the existing
// entry is const (matching the assignment-target contract in §4.3.3;
// callers doing a fresh literal/declare bind pass isConst appropriately
// and ignore the false case since there is no pre-existing entry then).
func (t *TableObject) Set(m *Memory, key *StringObject, v Value, isConst bool) bool {
	if float64(t.Count+1) > 0.75*float64(len(t.Entries)) {
		t.grow(m)
	}
	slot := t.findSlot(key)
	e := &t.Entries[slot]
	if e.Key == key && !e.Tombstone {
		if e.Const {
			return false
		}
		old := e.Value
		m.IncRefValue(v)
		e.Value = v
		m.DecRefValue(old)
		return true
	}
	wasEmpty := e.Key == nil
	m.IncRef(key)
	m.IncRefValue(v)
	e.Key = key
	e.Value = v
	e.Const = isConst
	e.Tombstone = false
	if wasEmpty {
		t.Count++
	}
	t.order = append(t.order, key)
	return true
}

func (t *TableObject) getEntry(key *StringObject) *tableEntry {
	cap := len(t.Entries)
	if cap == 0 {
		return nil
	}
	idx := int(key.Hash) % cap
	for i := 0; i < cap; i++ {
		slot := (idx + i) % cap
		e := &t.Entries[slot]
		if e.Key == nil && !e.Tombstone {
			return nil
		}
		if e.Key == key && !e.Tombstone {
			return e
		}
	}
	return nil
}

func (t *TableObject) Get(key string) (Value, bool) {
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.Key != nil && !e.Tombstone && e.Key.Chars == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

func (t *TableObject) GetInterned(key *StringObject) (Value, bool) {
	e := t.getEntry(key)
	if e == nil {
		return Value{}, false
	}
	return e.Value, true
}

func (t *TableObject) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

func (t *TableObject) IsConst(key *StringObject) bool {
	e := t.getEntry(key)
	return e != nil && e.Const
}

// Delete tombstones the entry for key, decref'ing its key and value.
func (t *TableObject) Delete(m *Memory, key *StringObject) bool {
	e := t.getEntry(key)
	if e == nil {
		return false
	}
	m.DecRef(e.Key)
	m.DecRefValue(e.Value)
	e.Tombstone = true
	e.Key = nil
	e.Value = Value{}
	t.Count--
	return true
}

// OrderedKeys returns live keys in insertion order, for deterministic
// printing; the hash map itself makes no ordering guarantee.
func (t *TableObject) OrderedKeys() []string {
	out := make([]string, 0, t.Count)
	seen := make(map[string]bool, t.Count)
	for _, k := range t.order {
		if seen[k.Chars] {
			continue
		}
		if e := t.getEntry(k); e != nil {
			out = append(out, k.Chars)
			seen[k.Chars] = true
		}
	}
	return out
}
