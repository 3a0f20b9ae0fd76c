// ffi.go: the C foreign-function bridge — CIF preparation, dlopen/dlsym,
// and the marshalling contract described in §4.5/§4.6. This is the one
// file in the package that talks to C directly; everything else only
// ever sees Go types (CType, CFunctionDesc, uintptr addresses).
package brisk

/*
#cgo LDFLAGS: -ldl
#cgo pkg-config: libffi

#include <ffi.h>
#include <dlfcn.h>
#include <stdlib.h>
#include <string.h>
#include <errno.h>
#include <stdint.h>

static void* brisk_dlopen(const char* path) {
    if (path == NULL) {
        return dlopen(NULL, RTLD_NOW | RTLD_GLOBAL);
    }
    return dlopen(path, RTLD_NOW | RTLD_GLOBAL);
}

static void* brisk_dlsym(void* handle, const char* name) {
    return dlsym(handle, name);
}

static const char* brisk_dlerror(void) {
    return dlerror();
}

static ffi_cif* brisk_alloc_cif(void) {
    return (ffi_cif*)calloc(1, sizeof(ffi_cif));
}

static ffi_type** brisk_alloc_type_array(int n) {
    if (n <= 0) return NULL;
    return (ffi_type**)calloc((size_t)n, sizeof(ffi_type*));
}

static void brisk_set_type_at(ffi_type** arr, int i, ffi_type* t) {
    arr[i] = t;
}

static void** brisk_alloc_ptr_array(int n) {
    if (n <= 0) return NULL;
    return (void**)calloc((size_t)n, sizeof(void*));
}

static void brisk_set_ptr_at(void** arr, int i, void* p) {
    arr[i] = p;
}

static int brisk_prep_cif(ffi_cif* cif, unsigned int nargs, ffi_type* rtype, ffi_type** atypes) {
    return ffi_prep_cif(cif, FFI_DEFAULT_ABI, nargs, rtype, atypes);
}

static int brisk_prep_cif_var(ffi_cif* cif, unsigned int nfixed, unsigned int ntotal, ffi_type* rtype, ffi_type** atypes) {
    return ffi_prep_cif_var(cif, FFI_DEFAULT_ABI, nfixed, ntotal, rtype, atypes);
}

static void brisk_call(ffi_cif* cif, void* fn, void* rvalue, void** avalues) {
    ffi_call(cif, (void (*)(void))fn, rvalue, avalues);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
)

// dynLib is a resolved shared-object handle. The default handle
// (path == "") resolves against the whole process image, matching the
// POSIX dlopen(NULL, ...) behavior §4.5 relies on for libc symbols.
type dynLib struct {
	handle unsafe.Pointer
	path   string
}

func dlLastError() string {
	cstr := C.brisk_dlerror()
	if cstr == nil {
		return "unknown dynamic-loader error"
	}
	return C.GoString(cstr)
}

// openLibrary opens path ("" for the default/process-wide handle).
func openLibrary(path string) (*dynLib, error) {
	var cpath *C.char
	if path != "" {
		cpath = C.CString(path)
		defer C.free(unsafe.Pointer(cpath))
	}
	h := C.brisk_dlopen(cpath)
	if h == nil {
		return nil, fmt.Errorf("dlopen %q: %s", path, dlLastError())
	}
	return &dynLib{handle: unsafe.Pointer(h), path: path}, nil
}

// findSymbol resolves name in lib; the reference design never dlcloses
// a library once opened (handles are process-lifetime and leaked on
// shutdown, per the resource model), so there is no matching closeLibrary
// call anywhere in this package — by design, not oversight.
func findSymbol(lib *dynLib, name string) (uintptr, bool) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	sym := C.brisk_dlsym(lib.handle, cname)
	if sym == nil {
		return 0, false
	}
	return uintptr(sym), true
}

// cif wraps a prepared libffi call interface and its argument count
// (matching the reference's cif_prepared/cif pairing on CFunctionDesc).
// prepareCIF leaves argTypes unset; the argument-type array it hands to
// ffi_prep_cif is never freed, so it stays valid as long as the cif.
type cif struct {
	raw      *C.ffi_cif
	argTypes *C.ffi_type
	nargs    int
}

// structFFIType holds a libffi type descriptor for a C struct. No code
// builds one: CStructDesc.ffiType stays nil, and ctypeToFFI passes
// every struct as a pointer.
type structFFIType struct {
	raw *C.ffi_type
}

func ctypeToFFI(t CType) *C.ffi_type {
	switch t {
	case CVoid:
		return &C.ffi_type_void
	case CChar, CSChar:
		return &C.ffi_type_sint8
	case CUChar, CBool, CUInt8:
		return &C.ffi_type_uint8
	case CInt8:
		return &C.ffi_type_sint8
	case CShort:
		return &C.ffi_type_sint16
	case CUShort, CUInt16:
		return &C.ffi_type_uint16
	case CInt16:
		return &C.ffi_type_sint16
	case CInt, CInt32:
		return &C.ffi_type_sint32
	case CUInt, CUInt32:
		return &C.ffi_type_uint32
	case CLong:
		return &C.ffi_type_sint64
	case CULong:
		return &C.ffi_type_uint64
	case CLongLong, CInt64:
		return &C.ffi_type_sint64
	case CULongLong, CUInt64, CSizeT:
		return &C.ffi_type_uint64
	case CFloat:
		return &C.ffi_type_float
	case CDouble:
		return &C.ffi_type_double
	case CPointer, CString, CStructType:
		return &C.ffi_type_pointer
	default:
		return &C.ffi_type_sint32
	}
}

// prepareCIF lazily builds and caches the call interface on desc,
// matching the "prepare once, on first call" contract from the
// supplemented original_source detail in SPEC_FULL.md §4.
func prepareCIF(desc *CFunctionDesc) error {
	if desc.cifPrepared {
		return nil
	}
	n := len(desc.ParamTypes)
	atypes := C.brisk_alloc_type_array(C.int(n))
	for i, pt := range desc.ParamTypes {
		C.brisk_set_type_at(atypes, C.int(i), ctypeToFFI(pt))
	}
	rtype := ctypeToFFI(desc.ReturnType)
	raw := C.brisk_alloc_cif()
	var rc C.int
	if desc.Variadic {
		rc = C.brisk_prep_cif_var(raw, C.uint(n), C.uint(n), rtype, atypes)
	} else {
		rc = C.brisk_prep_cif(raw, C.uint(n), rtype, atypes)
	}
	if rc != C.FFI_OK {
		return errors.Errorf("ffi_prep_cif failed for %s (code %d)", desc.Name, int(rc))
	}
	desc.cifHandle = &cif{raw: raw, nargs: n}
	desc.cifPrepared = true
	return nil
}

// inferCType implements step 4 of §4.6 for arguments beyond the
// declared parameter count (variadic tail).
func inferCType(v Value) CType {
	switch v.Tag {
	case VInt:
		return CInt64
	case VFloat:
		return CDouble
	case VObj:
		switch {
		case v.Is(ObjString):
			return CString
		case v.Is(ObjPointer), v.Is(ObjCStruct):
			return CPointer
		}
	}
	return CInt64
}

// argSlot is a 16-byte buffer per §4.6 step 3 — large enough for every
// supported scalar and pointer kind.
type argSlot struct {
	buf unsafe.Pointer
}

func allocSlot() argSlot {
	return argSlot{buf: C.malloc(16)}
}

func (s argSlot) free() { C.free(s.buf) }

// marshalToC implements §4.6 step 5.
func marshalToC(mem *Memory, v Value, t CType, slot unsafe.Pointer) error {
	switch {
	case v.IsNull() && CTypeIsPointerLike(t):
		*(*unsafe.Pointer)(slot) = nil
		return nil
	case v.Tag == VInt && CTypeIsPointerLike(t):
		*(*unsafe.Pointer)(slot) = unsafe.Pointer(uintptr(v.AsInt()))
		return nil
	}
	switch t {
	case CFloat:
		if !v.IsNumber() {
			return fmt.Errorf("expected number for float parameter, got %s", TypeName(v))
		}
		*(*C.float)(slot) = C.float(v.AsFloat64())
	case CDouble:
		if !v.IsNumber() {
			return fmt.Errorf("expected number for double parameter, got %s", TypeName(v))
		}
		*(*C.double)(slot) = C.double(v.AsFloat64())
	case CBool, CChar, CSChar, CUChar, CInt8, CUInt8:
		n, err := intArg(v)
		if err != nil {
			return err
		}
		*(*C.int8_t)(slot) = C.int8_t(n)
	case CShort, CUShort, CInt16, CUInt16:
		n, err := intArg(v)
		if err != nil {
			return err
		}
		*(*C.int16_t)(slot) = C.int16_t(n)
	case CInt, CUInt, CInt32, CUInt32:
		n, err := intArg(v)
		if err != nil {
			return err
		}
		*(*C.int32_t)(slot) = C.int32_t(n)
	case CLong, CULong, CLongLong, CULongLong, CInt64, CUInt64, CSizeT:
		n, err := intArg(v)
		if err != nil {
			return err
		}
		*(*C.int64_t)(slot) = C.int64_t(n)
	case CString:
		if !v.Is(ObjString) {
			return fmt.Errorf("expected string for char* parameter, got %s", TypeName(v))
		}
		*(*unsafe.Pointer)(slot) = unsafe.Pointer(C.CString(v.AsString().Chars))
	case CPointer, CStructType:
		switch {
		case v.Is(ObjPointer):
			*(*unsafe.Pointer)(slot) = unsafe.Pointer(v.AsPointer().Addr)
		case v.Is(ObjCStruct):
			*(*unsafe.Pointer)(slot) = unsafe.Pointer(v.AsCStruct().DataPtr())
		case v.Is(ObjString):
			*(*unsafe.Pointer)(slot) = unsafe.Pointer(C.CString(v.AsString().Chars))
		default:
			return fmt.Errorf("cannot marshal %s as pointer", TypeName(v))
		}
	default:
		return fmt.Errorf("unsupported C parameter type %s", t)
	}
	return nil
}

func intArg(v Value) (int64, error) {
	switch v.Tag {
	case VInt:
		return v.AsInt(), nil
	case VBool:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case VFloat:
		return int64(v.AsFloat()), nil
	}
	return 0, fmt.Errorf("expected int-like value, got %s", TypeName(v))
}

// marshalFromC implements §4.6 step 7.
func marshalFromC(mem *Memory, slot unsafe.Pointer, t CType) Value {
	switch t {
	case CVoid:
		return Null()
	case CFloat:
		return Float(float64(*(*C.float)(slot)))
	case CDouble:
		return Float(float64(*(*C.double)(slot)))
	case CBool:
		return Bool(*(*C.int8_t)(slot) != 0)
	case CChar, CSChar, CInt8:
		return Int(int64(*(*C.int8_t)(slot)))
	case CUChar, CUInt8:
		return Int(int64(*(*byte)(slot)))
	case CShort, CInt16:
		return Int(int64(*(*C.int16_t)(slot)))
	case CUShort, CUInt16:
		return Int(int64(*(*C.uint16_t)(slot)))
	case CInt, CInt32:
		return Int(int64(*(*C.int32_t)(slot)))
	case CUInt, CUInt32:
		return Int(int64(*(*C.uint32_t)(slot)))
	case CLong, CLongLong, CInt64:
		return Int(int64(*(*C.int64_t)(slot)))
	case CULong, CULongLong, CUInt64, CSizeT:
		// Reinterpreted as signed 64-bit: values above INT64_MAX lose
		// their magnitude, a known hazard inherited from the reference
		// marshal_from_c (see design notes).
		return Int(int64(*(*C.uint64_t)(slot)))
	case CString:
		p := *(*unsafe.Pointer)(slot)
		if p == nil {
			return Null()
		}
		return mem.Str(C.GoString((*C.char)(p)))
	case CPointer, CStructType:
		p := *(*unsafe.Pointer)(slot)
		if p == nil {
			return Null()
		}
		return mem.Ptr(uintptr(p), "")
	}
	return Null()
}

// callCFunction implements the full §4.6 bridge contract.
func (ip *Interpreter) callCFunction(desc *CFunctionDesc, args []Value, line, col int) (Value, error) {
	if err := prepareCIF(desc); err != nil {
		return Value{}, NewRuntimeError(line, col, ErrFFI, "%s", err.Error())
	}
	declared := len(desc.ParamTypes)
	if desc.Variadic {
		if len(args) < declared {
			return Value{}, NewRuntimeError(line, col, ErrArity, "%s expects at least %d arguments, got %d", desc.Name, declared, len(args))
		}
	} else if len(args) != declared {
		return Value{}, NewRuntimeError(line, col, ErrArity, "%s expects %d arguments, got %d", desc.Name, declared, len(args))
	}

	slots := make([]argSlot, len(args))
	ptrArr := C.brisk_alloc_ptr_array(C.int(len(args)))
	defer func() {
		for _, s := range slots {
			s.free()
		}
		if ptrArr != nil {
			C.free(unsafe.Pointer(ptrArr))
		}
	}()

	for i, a := range args {
		argType := inferCType(a)
		if i < declared {
			argType = desc.ParamTypes[i]
		}
		slots[i] = allocSlot()
		if err := marshalToC(ip.Mem, a, argType, slots[i].buf); err != nil {
			return Value{}, NewRuntimeError(line, col, ErrFFI, "argument %d to %s: %s", i, desc.Name, err.Error())
		}
		C.brisk_set_ptr_at(ptrArr, C.int(i), slots[i].buf)
	}

	resultSlot := allocSlot()
	defer resultSlot.free()

	C.brisk_call(desc.cifHandle.raw, unsafe.Pointer(desc.FuncPtr), resultSlot.buf, ptrArr)

	return marshalFromC(ip.Mem, resultSlot.buf, desc.ReturnType), nil
}
