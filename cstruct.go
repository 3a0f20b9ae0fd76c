package brisk

import "unsafe"

// CFieldDesc describes one field of a C struct: its name, C type, and
// computed byte offset/size. StructType is set for nested-struct
// fields.
type CFieldDesc struct {
	Name       string
	Type       CType
	Offset     int
	Size       int
	StructType *CStructDesc
}

// CStructDesc is the layout metadata for a C struct: fields in source
// order plus the computed total size and alignment. finalize() (the
// Finalize method below) performs the offset/size computation per
// §4.4's natural-alignment rule.
type CStructDesc struct {
	Name      string
	Fields    []CFieldDesc
	Size      int
	Alignment int
	ffiType   *structFFIType
}

func NewCStructDesc(name string, fieldCount int) *CStructDesc {
	return &CStructDesc{Name: name, Fields: make([]CFieldDesc, 0, fieldCount)}
}

func (d *CStructDesc) AddField(name string, t CType, nested *CStructDesc) {
	size := CTypeSize(t)
	if t == CStructType && nested != nil {
		size = nested.Size
	}
	d.Fields = append(d.Fields, CFieldDesc{Name: name, Type: t, Size: size, StructType: nested})
}

// alignUp rounds n up to the nearest multiple of align (align must be
// a power of two).
func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

func fieldAlignment(size int) int {
	if size > 8 {
		return 8
	}
	if size == 0 {
		return 1
	}
	return size
}

// Finalize computes each field's offset using the reference design's
// simplified natural-alignment rule: align each field up to
// min(size_of_field, 8) before placing it, then round the total size
// up to the struct's maximum field alignment.
func (d *CStructDesc) Finalize() {
	offset := 0
	maxAlign := 1
	for i := range d.Fields {
		f := &d.Fields[i]
		size := f.Size
		if f.Type == CStructType && f.StructType != nil {
			size = f.StructType.Size
		}
		align := fieldAlignment(size)
		if f.Type == CStructType && f.StructType != nil {
			align = f.StructType.Alignment
		}
		if align > maxAlign {
			maxAlign = align
		}
		offset = alignUp(offset, align)
		f.Offset = offset
		f.Size = size
		offset += size
	}
	d.Size = alignUp(offset, maxAlign)
	d.Alignment = maxAlign
}

// FieldByName does the linear scan §4.8 specifies for field lookup by
// name; struct field counts are small so this is not a hotspot.
func (d *CStructDesc) FieldByName(name string) (*CFieldDesc, bool) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// CStructObject is a live struct instance: a descriptor pointer plus a
// freshly allocated, zero-initialized raw buffer sized per the
// descriptor. Fields holds the Brisk values assigned to fields whose
// type is a nested struct (CStructType), so refcounting has something
// to walk; every other field lives only in Data.
type CStructObject struct {
	Object
	Desc   *CStructDesc
	Data   []byte
	Fields map[string]Value
}

func (m *Memory) NewCStruct(desc *CStructDesc) *CStructObject {
	s := &CStructObject{
		Object: Object{Kind: ObjCStruct, RefCount: 1},
		Desc:   desc,
		Data:   make([]byte, desc.Size),
		Fields: make(map[string]Value),
	}
	m.track(s, int64(desc.Size))
	return s
}

func (m *Memory) CStruct(desc *CStructDesc) Value {
	return ObjVal(m.NewCStruct(desc))
}

func (s *CStructObject) DataPtr() uintptr {
	if len(s.Data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s.Data[0]))
}
