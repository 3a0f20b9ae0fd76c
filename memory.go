package brisk

// ObjectKind tags every heap-allocated value with its concrete shape.
type ObjectKind uint8

const (
	ObjString ObjectKind = iota
	ObjArray
	ObjTable
	ObjFunction
	ObjNative
	ObjPointer
	ObjCStruct
	ObjCFunction
)

func (k ObjectKind) String() string {
	switch k {
	case ObjString:
		return "string"
	case ObjArray:
		return "array"
	case ObjTable:
		return "table"
	case ObjFunction:
		return "function"
	case ObjNative:
		return "native"
	case ObjPointer:
		return "pointer"
	case ObjCStruct:
		return "cstruct"
	case ObjCFunction:
		return "cfunction"
	default:
		return "unknown"
	}
}

// Object is the common header every heap object embeds. The mark bit is
// reserved for a future tracing collector layered on top of refcounting;
// the baseline design never sets it.
type Object struct {
	Kind     ObjectKind
	RefCount int32
	Next     Heap
	Marked   bool
}

func (o *Object) Header() *Object { return o }

// Heap is implemented by every heap object kind; it gives uniform access
// to the embedded header so incref/decref can dispatch by Kind without
// a type switch at every call site.
type Heap interface {
	Header() *Object
}

// Memory is the process-wide state the reference design keeps in globals
// (all-objects list, live byte counter, string interner) encapsulated
// behind an explicit context so multiple interpreters can coexist.
type Memory struct {
	allObjects     Heap
	bytesAllocated int64
	objectCount    int64
	interner       *Interner
}

func NewMemory() *Memory {
	return &Memory{interner: NewInterner()}
}

func (m *Memory) track(h Heap, size int64) {
	hdr := h.Header()
	hdr.Next = m.allObjects
	m.allObjects = h
	m.bytesAllocated += size
	m.objectCount++
}

// BytesAllocated reports the total bytes charged by track, used for
// diagnostics; release does not subtract, so the figure never goes down.
func (m *Memory) BytesAllocated() int64 { return m.bytesAllocated }

// ObjectCount reports the number of heap objects ever tracked (not the
// number currently live; the all-objects list is append-only by design,
// matching the reference implementation's bulk-teardown-only usage).
func (m *Memory) ObjectCount() int64 { return m.objectCount }

// IncRef bumps an object's reference count. Nil-safe: a nil Heap value
// means "no object", which callers pass freely when releasing optional
// fields.
func (m *Memory) IncRef(h Heap) {
	if h == nil {
		return
	}
	h.Header().RefCount++
}

// DecRef drops a reference; at zero it releases the object's owned
// children recursively, per the kind-specific release rules in §4.1.
func (m *Memory) DecRef(h Heap) {
	if h == nil {
		return
	}
	hdr := h.Header()
	hdr.RefCount--
	if hdr.RefCount > 0 {
		return
	}
	m.release(h)
}

func (m *Memory) release(h Heap) {
	switch v := h.(type) {
	case *StringObject:
		m.interner.Release(v)
	case *ArrayObject:
		for _, e := range v.Elements {
			if e.Tag == VObj {
				m.DecRef(e.Data.(Heap))
			}
		}
	case *TableObject:
		for i := range v.Entries {
			ent := &v.Entries[i]
			if ent.Key == nil || ent.Tombstone {
				continue
			}
			m.DecRef(ent.Key)
			if ent.Value.Tag == VObj {
				m.DecRef(ent.Value.Data.(Heap))
			}
		}
	case *FunctionObject:
		if v.Env != nil {
			v.Env.DecRef()
		}
	case *PointerObject:
		// nothing owned
	case *CStructObject:
		for _, fv := range v.Fields {
			if fv.Tag == VObj {
				m.DecRef(fv.Data.(Heap))
			}
		}
	case *CFunctionObject:
		// descriptor is shared metadata, not refcounted
	case *NativeObject:
		// nothing owned
	}
}

// IncRefValue/DecRefValue are the Value-level counterparts used by the
// evaluator and containers, which only need to touch the counter when
// the value is a heap reference.
func (m *Memory) IncRefValue(v Value) {
	if v.Tag == VObj {
		m.IncRef(v.Data.(Heap))
	}
}

func (m *Memory) DecRefValue(v Value) {
	if v.Tag == VObj {
		m.DecRef(v.Data.(Heap))
	}
}
