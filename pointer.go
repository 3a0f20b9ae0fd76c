package brisk

import "unsafe"

// PointerObject surfaces a raw C address at the scripting level. The
// type name is purely diagnostic (used in ToString), never consulted
// for dispatch.
type PointerObject struct {
	Object
	Addr     uintptr
	TypeName string
}

func (m *Memory) NewPointer(addr uintptr, typeName string) *PointerObject {
	p := &PointerObject{Object: Object{Kind: ObjPointer, RefCount: 1}, Addr: addr, TypeName: typeName}
	m.track(p, 24)
	return p
}

func (m *Memory) Ptr(addr uintptr, typeName string) Value {
	return ObjVal(m.NewPointer(addr, typeName))
}

func (p *PointerObject) IsNull() bool { return p.Addr == 0 }

func (p *PointerObject) UnsafePointer() unsafe.Pointer {
	return unsafe.Pointer(p.Addr) //nolint:govet
}
