package brisk

import (
	"fmt"
	"math"
)

// ValueTag identifies which of the five value kinds a Value holds.
type ValueTag uint8

const (
	VNull ValueTag = iota
	VBool
	VInt
	VFloat
	VObj
)

// Value is the tagged sum every expression produces. It is copied by
// value; copying a VObj value shares ownership of the referent. The
// container operations (NewArray, Push, table Set, Define) take their
// own reference, so callers do not IncRef before storing.
type Value struct {
	Tag  ValueTag
	Data any
}

func Null() Value            { return Value{Tag: VNull} }
func Bool(b bool) Value       { return Value{Tag: VBool, Data: b} }
func Int(i int64) Value       { return Value{Tag: VInt, Data: i} }
func Float(f float64) Value   { return Value{Tag: VFloat, Data: f} }
func ObjVal(h Heap) Value     { return Value{Tag: VObj, Data: h} }

func (v Value) IsNull() bool { return v.Tag == VNull }
func (v Value) IsBool() bool { return v.Tag == VBool }
func (v Value) IsInt() bool  { return v.Tag == VInt }
func (v Value) IsFloat() bool { return v.Tag == VFloat }
func (v Value) IsObj() bool  { return v.Tag == VObj }
func (v Value) IsNumber() bool { return v.Tag == VInt || v.Tag == VFloat }

func (v Value) AsBool() bool     { return v.Data.(bool) }
func (v Value) AsInt() int64     { return v.Data.(int64) }
func (v Value) AsFloat() float64 { return v.Data.(float64) }
func (v Value) AsObj() Heap      { return v.Data.(Heap) }

// AsFloat64 promotes an Int or Float value to float64; it panics on any
// other kind, callers must guard with IsNumber first.
func (v Value) AsFloat64() float64 {
	if v.Tag == VInt {
		return float64(v.Data.(int64))
	}
	return v.Data.(float64)
}

func (v Value) ObjKind() (ObjectKind, bool) {
	if v.Tag != VObj {
		return 0, false
	}
	return v.AsObj().Header().Kind, true
}

func (v Value) Is(k ObjectKind) bool {
	kind, ok := v.ObjKind()
	return ok && kind == k
}

func (v Value) AsString() *StringObject {
	return v.Data.(Heap).(*StringObject)
}

func (v Value) AsArray() *ArrayObject {
	return v.Data.(Heap).(*ArrayObject)
}

func (v Value) AsTable() *TableObject {
	return v.Data.(Heap).(*TableObject)
}

func (v Value) AsFunction() *FunctionObject {
	return v.Data.(Heap).(*FunctionObject)
}

func (v Value) AsNative() *NativeObject {
	return v.Data.(Heap).(*NativeObject)
}

func (v Value) AsPointer() *PointerObject {
	return v.Data.(Heap).(*PointerObject)
}

func (v Value) AsCStruct() *CStructObject {
	return v.Data.(Heap).(*CStructObject)
}

func (v Value) AsCFunction() *CFunctionObject {
	return v.Data.(Heap).(*CFunctionObject)
}

// Truthy implements §4.1: Nil, false, numeric zero and the empty string
// are falsy; every other value, including empty arrays and tables, is
// truthy.
func (v Value) Truthy() bool {
	switch v.Tag {
	case VNull:
		return false
	case VBool:
		return v.AsBool()
	case VInt:
		return v.AsInt() != 0
	case VFloat:
		return v.AsFloat() != 0
	case VObj:
		if v.Is(ObjString) {
			return v.AsString().Length > 0
		}
		return true
	}
	return false
}

// Callable reports whether the value is one of the three callee kinds
// the evaluator's call semantics recognize.
func (v Value) Callable() bool {
	kind, ok := v.ObjKind()
	return ok && (kind == ObjFunction || kind == ObjNative || kind == ObjCFunction)
}

// Equals implements value_equals from §4.1: numeric equality promotes
// across int/float, strings compare by interned identity (falling back
// to content for any transient uninterned copy), other objects compare
// by identity, and Nil equals only Nil.
func Equals(a, b Value) bool {
	if a.Tag == VInt && b.Tag == VInt {
		return a.AsInt() == b.AsInt()
	}
	if (a.Tag == VInt || a.Tag == VFloat) && (b.Tag == VInt || b.Tag == VFloat) {
		return a.AsFloat64() == b.AsFloat64()
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VNull:
		return true
	case VBool:
		return a.AsBool() == b.AsBool()
	case VObj:
		ak, _ := a.ObjKind()
		bk, _ := b.ObjKind()
		if ak != bk {
			return false
		}
		if ak == ObjString {
			as, bs := a.AsString(), b.AsString()
			if as == bs {
				return true
			}
			return as.Length == bs.Length && as.Hash == bs.Hash && as.Chars == bs.Chars
		}
		return a.Data.(Heap) == b.Data.(Heap)
	}
	return false
}

// ToString implements value_to_string: the representation used when a
// value is coerced into a string concatenation or printed.
func ToString(v Value) string {
	switch v.Tag {
	case VNull:
		return "nil"
	case VBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case VInt:
		return fmt.Sprintf("%d", v.AsInt())
	case VFloat:
		return formatFloat(v.AsFloat())
	case VObj:
		kind, _ := v.ObjKind()
		switch kind {
		case ObjString:
			return v.AsString().Chars
		case ObjArray:
			return formatArray(v.AsArray())
		case ObjTable:
			return formatTable(v.AsTable())
		case ObjFunction:
			f := v.AsFunction()
			if f.Name != "" {
				return fmt.Sprintf("<fn %s>", f.Name)
			}
			return "<fn>"
		case ObjNative:
			return fmt.Sprintf("<native %s>", v.AsNative().Name)
		case ObjPointer:
			p := v.AsPointer()
			if p.TypeName != "" {
				return fmt.Sprintf("<pointer:%s>", p.TypeName)
			}
			return "<pointer>"
		case ObjCStruct:
			return fmt.Sprintf("<cstruct %s>", v.AsCStruct().Desc.Name)
		case ObjCFunction:
			return fmt.Sprintf("<cfunction %s>", v.AsCFunction().Desc.Name)
		}
	}
	return "<?>"
}

// formatFloat matches the reference's %g-style output: scenario 6 of
// the testable properties expects sqrt(16.0) to print as "4", not
// "4.000000".
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	return fmt.Sprintf("%g", f)
}

func formatArray(a *ArrayObject) string {
	s := "["
	for i, e := range a.Elements {
		if i > 0 {
			s += ", "
		}
		if e.Is(ObjString) {
			s += fmt.Sprintf("%q", e.AsString().Chars)
		} else {
			s += ToString(e)
		}
	}
	return s + "]"
}

func formatTable(t *TableObject) string {
	s := "{"
	first := true
	for _, k := range t.OrderedKeys() {
		if !first {
			s += ", "
		}
		first = false
		v, _ := t.Get(k)
		if v.Is(ObjString) {
			s += fmt.Sprintf("%s: %q", k, v.AsString().Chars)
		} else {
			s += fmt.Sprintf("%s: %s", k, ToString(v))
		}
	}
	return s + "}"
}

// TypeName returns the name the error taxonomy and built-in `type()`
// function surface for a value.
func TypeName(v Value) string {
	switch v.Tag {
	case VNull:
		return "nil"
	case VBool:
		return "bool"
	case VInt:
		return "int"
	case VFloat:
		return "float"
	case VObj:
		kind, _ := v.ObjKind()
		return kind.String()
	}
	return "unknown"
}
