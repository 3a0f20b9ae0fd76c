package brisk

import "strings"

// CType enumerates every C scalar/pointer/struct kind Brisk's FFI layer
// recognizes, matching the reference implementation's CType exactly
// (see original_source/include/cffi.h) rather than collapsing to a
// handful of representative widths.
type CType uint8

const (
	CVoid CType = iota
	CChar
	CSChar
	CUChar
	CShort
	CUShort
	CInt
	CUInt
	CLong
	CULong
	CLongLong
	CULongLong
	CFloat
	CDouble
	CPointer
	CString // char* (NUL-terminated)
	CStructType
	CBool
	CSizeT
	CInt8
	CInt16
	CInt32
	CInt64
	CUInt8
	CUInt16
	CUInt32
	CUInt64
)

var ctypeNames = map[CType]string{
	CVoid: "void", CChar: "char", CSChar: "schar", CUChar: "uchar",
	CShort: "short", CUShort: "ushort", CInt: "int", CUInt: "uint",
	CLong: "long", CULong: "ulong", CLongLong: "longlong", CULongLong: "ulonglong",
	CFloat: "float", CDouble: "double", CPointer: "pointer", CString: "string",
	CStructType: "struct", CBool: "bool", CSizeT: "size_t",
	CInt8: "int8", CInt16: "int16", CInt32: "int32", CInt64: "int64",
	CUInt8: "uint8", CUInt16: "uint16", CUInt32: "uint32", CUInt64: "uint64",
}

func (t CType) String() string {
	if n, ok := ctypeNames[t]; ok {
		return n
	}
	return "int"
}

// CTypeFromString parses the type recognizer's base-type vocabulary per
// §4.7. Unknown identifiers default to CInt — a known soundness hazard
// inherited from the reference design (see design notes).
func CTypeFromString(s string) CType {
	switch strings.TrimSpace(s) {
	case "void":
		return CVoid
	case "char":
		return CChar
	case "signed char":
		return CSChar
	case "unsigned char":
		return CUChar
	case "short", "short int", "signed short":
		return CShort
	case "unsigned short", "unsigned short int":
		return CUShort
	case "int", "signed", "signed int":
		return CInt
	case "unsigned", "unsigned int":
		return CUInt
	case "long", "long int", "signed long":
		return CLong
	case "unsigned long", "unsigned long int":
		return CULong
	case "long long", "long long int":
		return CLongLong
	case "unsigned long long", "unsigned long long int":
		return CULongLong
	case "float":
		return CFloat
	case "double", "long double":
		return CDouble
	case "bool", "_Bool":
		return CBool
	case "size_t":
		return CSizeT
	case "ssize_t", "int64_t":
		return CInt64
	case "int8_t":
		return CInt8
	case "int16_t":
		return CInt16
	case "int32_t":
		return CInt32
	case "uint8_t":
		return CUInt8
	case "uint16_t":
		return CUInt16
	case "uint32_t":
		return CUInt32
	case "uint64_t":
		return CUInt64
	case "void*", "void *":
		return CPointer
	case "char*", "char *", "const char*", "const char *":
		return CString
	default:
		return CInt
	}
}

// CTypeSize returns the fixed byte size for a scalar kind. Struct size
// comes from the struct's own descriptor, not from this table.
func CTypeSize(t CType) int {
	switch t {
	case CVoid:
		return 0
	case CChar, CSChar, CUChar, CBool, CInt8, CUInt8:
		return 1
	case CShort, CUShort, CInt16, CUInt16:
		return 2
	case CInt, CUInt, CFloat, CInt32, CUInt32:
		return 4
	case CLong, CULong, CLongLong, CULongLong, CDouble, CPointer, CString,
		CSizeT, CInt64, CUInt64:
		return 8
	default:
		return 8
	}
}

func CTypeIsSigned(t CType) bool {
	switch t {
	case CSChar, CShort, CInt, CLong, CLongLong, CInt8, CInt16, CInt32, CInt64, CChar:
		return true
	default:
		return false
	}
}

func CTypeIsFloat(t CType) bool {
	return t == CFloat || t == CDouble
}

func CTypeIsPointerLike(t CType) bool {
	return t == CPointer || t == CString || t == CStructType
}

// CFunctionDesc is runtime metadata sufficient to call a resolved C
// symbol: the lazily-prepared FFI call interface is cached here so a
// descriptor pays the preparation cost once, on first call.
type CFunctionDesc struct {
	Name         string
	ReturnType   CType
	ParamTypes   []CType
	Variadic     bool
	FuncPtr      uintptr
	cifPrepared  bool
	cifHandle    *cif
}

// CFunctionObject wraps a descriptor as a heap value so it can be
// bound into an environment like any other callable.
type CFunctionObject struct {
	Object
	Desc *CFunctionDesc
}

func (m *Memory) NewCFunction(desc *CFunctionDesc) *CFunctionObject {
	f := &CFunctionObject{Object: Object{Kind: ObjCFunction, RefCount: 1}, Desc: desc}
	m.track(f, 48)
	return f
}

func (m *Memory) CFunc(desc *CFunctionDesc) Value {
	return ObjVal(m.NewCFunction(desc))
}
