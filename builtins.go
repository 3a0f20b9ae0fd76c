// builtins.go: the flat intrinsic library — print, len, collection
// helpers, scalar conversions, struct definition, and the handful of
// introspection/identifier helpers pulled in from the rest of the
// example corpus's dependency stack. Per §1 this surface is
// deliberately a thin, obvious-semantics adapter layer; none of it
// participates in the core's invariants.
package brisk

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

func registerBuiltins(ip *Interpreter) {
	def := func(name string, arity int, fn NativeFn) {
		ip.Global.Define(name, ip.Mem.Native(name, arity, fn), true)
	}

	def("print", -1, builtinPrint)
	def("println", -1, builtinPrintln)
	def("len", 1, builtinLen)
	def("type", 1, builtinType)
	def("push", 2, builtinPush)
	def("pop", 1, builtinPop)
	def("has", 2, builtinHas)
	def("keys", 1, builtinKeys)
	def("values", 1, builtinValues)
	def("delete", 2, builtinDelete)
	def("str", 1, builtinStr)
	def("int", 1, builtinInt)
	def("float", 1, builtinFloat)
	def("bool", 1, builtinBool)
	def("assert", -1, builtinAssert)
	def("exit", -1, builtinExit)
	def("uuid", 0, builtinUUID)
	def("bytes", 0, builtinBytes)
	def("object_count", 0, builtinObjectCount)
	def("struct_def", -1, builtinStructDef)
	def("struct_new", 1, builtinStructNew)
}

func builtinPrint(ip *Interpreter, args []Value) (Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(ip.Out, " ")
		}
		fmt.Fprint(ip.Out, ToString(a))
	}
	return Null(), nil
}

func builtinPrintln(ip *Interpreter, args []Value) (Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(ip.Out, " ")
		}
		fmt.Fprint(ip.Out, ToString(a))
	}
	fmt.Fprintln(ip.Out)
	return Null(), nil
}

func builtinLen(ip *Interpreter, args []Value) (Value, error) {
	v := args[0]
	switch {
	case v.Is(ObjArray):
		return Int(int64(v.AsArray().Len())), nil
	case v.Is(ObjTable):
		return Int(int64(v.AsTable().Count)), nil
	case v.Is(ObjString):
		return Int(int64(v.AsString().Length)), nil
	default:
		return Value{}, fmt.Errorf("len: unsupported kind %s", TypeName(v))
	}
}

func builtinType(ip *Interpreter, args []Value) (Value, error) {
	return ip.Mem.Str(TypeName(args[0])), nil
}

func builtinPush(ip *Interpreter, args []Value) (Value, error) {
	if !args[0].Is(ObjArray) {
		return Value{}, fmt.Errorf("push: expected an array, got %s", TypeName(args[0]))
	}
	args[0].AsArray().Push(ip.Mem, args[1])
	return Null(), nil
}

func builtinPop(ip *Interpreter, args []Value) (Value, error) {
	if !args[0].Is(ObjArray) {
		return Value{}, fmt.Errorf("pop: expected an array, got %s", TypeName(args[0]))
	}
	v, ok := args[0].AsArray().Pop()
	if !ok {
		return Null(), nil
	}
	return v, nil
}

func builtinHas(ip *Interpreter, args []Value) (Value, error) {
	if !args[0].Is(ObjTable) {
		return Value{}, fmt.Errorf("has: expected a table, got %s", TypeName(args[0]))
	}
	if !args[1].Is(ObjString) {
		return Value{}, fmt.Errorf("has: key must be a string, got %s", TypeName(args[1]))
	}
	return Bool(args[0].AsTable().Has(args[1].AsString().Chars)), nil
}

func builtinKeys(ip *Interpreter, args []Value) (Value, error) {
	if !args[0].Is(ObjTable) {
		return Value{}, fmt.Errorf("keys: expected a table, got %s", TypeName(args[0]))
	}
	out := make([]Value, 0)
	for _, k := range args[0].AsTable().OrderedKeys() {
		out = append(out, ip.Mem.Str(k))
	}
	return ip.Mem.Arr(out), nil
}

func builtinValues(ip *Interpreter, args []Value) (Value, error) {
	if !args[0].Is(ObjTable) {
		return Value{}, fmt.Errorf("values: expected a table, got %s", TypeName(args[0]))
	}
	tbl := args[0].AsTable()
	out := make([]Value, 0)
	for _, k := range tbl.OrderedKeys() {
		v, _ := tbl.Get(k)
		out = append(out, v)
	}
	return ip.Mem.Arr(out), nil
}

func builtinDelete(ip *Interpreter, args []Value) (Value, error) {
	if !args[0].Is(ObjTable) {
		return Value{}, fmt.Errorf("delete: expected a table, got %s", TypeName(args[0]))
	}
	if !args[1].Is(ObjString) {
		return Value{}, fmt.Errorf("delete: key must be a string, got %s", TypeName(args[1]))
	}
	key := ip.Mem.Intern(args[1].AsString().Chars)
	ok := args[0].AsTable().Delete(ip.Mem, key)
	ip.Mem.DecRef(key)
	return Bool(ok), nil
}

func builtinStr(ip *Interpreter, args []Value) (Value, error) {
	return ip.Mem.Str(ToString(args[0])), nil
}

func builtinInt(ip *Interpreter, args []Value) (Value, error) {
	v := args[0]
	switch v.Tag {
	case VInt:
		return v, nil
	case VFloat:
		return Int(int64(v.AsFloat())), nil
	case VBool:
		if v.AsBool() {
			return Int(1), nil
		}
		return Int(0), nil
	case VObj:
		if v.Is(ObjString) {
			n, err := strconv.ParseInt(v.AsString().Chars, 0, 64)
			if err != nil {
				return Value{}, fmt.Errorf("int: cannot parse %q", v.AsString().Chars)
			}
			return Int(n), nil
		}
	}
	return Value{}, fmt.Errorf("int: cannot convert %s", TypeName(v))
}

func builtinFloat(ip *Interpreter, args []Value) (Value, error) {
	v := args[0]
	switch v.Tag {
	case VFloat:
		return v, nil
	case VInt:
		return Float(float64(v.AsInt())), nil
	case VObj:
		if v.Is(ObjString) {
			f, err := strconv.ParseFloat(v.AsString().Chars, 64)
			if err != nil {
				return Value{}, fmt.Errorf("float: cannot parse %q", v.AsString().Chars)
			}
			return Float(f), nil
		}
	}
	return Value{}, fmt.Errorf("float: cannot convert %s", TypeName(v))
}

func builtinBool(ip *Interpreter, args []Value) (Value, error) {
	return Bool(args[0].Truthy()), nil
}

func builtinAssert(ip *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, fmt.Errorf("assert: missing condition")
	}
	if args[0].Truthy() {
		return Null(), nil
	}
	msg := "assertion failed"
	if len(args) > 1 {
		msg = ToString(args[1])
	}
	return Value{}, fmt.Errorf("%s", msg)
}

func builtinExit(ip *Interpreter, args []Value) (Value, error) {
	code := 0
	if len(args) > 0 && args[0].IsInt() {
		code = int(args[0].AsInt())
	}
	os.Exit(code)
	return Null(), nil
}

// builtinUUID mints a random (v4) identifier; grounded on the pack's
// identifier-generation library rather than a hand-rolled generator.
func builtinUUID(ip *Interpreter, args []Value) (Value, error) {
	return ip.Mem.Str(uuid.NewString()), nil
}

// builtinBytes surfaces the cumulative allocated-byte counter
// (Memory.BytesAllocated) in human-readable form
// (e.g. "2.1 kB"), matching the pack's size-formatting library rather
// than hand-rolling unit suffixes.
func builtinBytes(ip *Interpreter, args []Value) (Value, error) {
	return ip.Mem.Str(humanize.Bytes(uint64(ip.Mem.BytesAllocated()))), nil
}

func builtinObjectCount(ip *Interpreter, args []Value) (Value, error) {
	return Int(ip.Mem.ObjectCount()), nil
}

// builtinStructDef implements the script-level half of §4.8: since
// the header parser skips struct/union bodies outright, struct
// layouts are declared explicitly — struct_def("Vector2", "x",
// "float", "y", "float") — rather than recovered from a header.
func builtinStructDef(ip *Interpreter, args []Value) (Value, error) {
	if len(args) < 1 || !args[0].Is(ObjString) {
		return Value{}, fmt.Errorf("struct_def: expected a struct name as the first argument")
	}
	name := args[0].AsString().Chars
	rest := args[1:]
	if len(rest)%2 != 0 {
		return Value{}, fmt.Errorf("struct_def: expected field name/type pairs")
	}
	desc := NewCStructDesc(name, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		if !rest[i].Is(ObjString) || !rest[i+1].Is(ObjString) {
			return Value{}, fmt.Errorf("struct_def: field name and type must be strings")
		}
		fieldName := rest[i].AsString().Chars
		fieldType := CTypeFromString(rest[i+1].AsString().Chars)
		desc.AddField(fieldName, fieldType, nil)
	}
	desc.Finalize()
	ip.cstructDescs[name] = desc
	return Null(), nil
}

func builtinStructNew(ip *Interpreter, args []Value) (Value, error) {
	if !args[0].Is(ObjString) {
		return Value{}, fmt.Errorf("struct_new: expected a struct name")
	}
	name := args[0].AsString().Chars
	desc, ok := ip.cstructDescs[name]
	if !ok {
		return Value{}, fmt.Errorf("struct_new: no struct named %q", name)
	}
	return ip.Mem.CStruct(desc), nil
}
