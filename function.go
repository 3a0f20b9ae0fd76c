package brisk

// FunctionObject is a user-defined closure. Body and Params are borrowed
// pointers into the AST (see the "Borrowed AST" design note); Env is a
// strong reference to the environment captured at creation time.
type FunctionObject struct {
	Object
	Name   string
	Params []string
	Arity  int
	Body   *BlockStmt
	Env    *Environment
}

func (m *Memory) NewFunction(name string, params []string, body *BlockStmt, env *Environment) *FunctionObject {
	env.IncRef()
	f := &FunctionObject{
		Object: Object{Kind: ObjFunction, RefCount: 1},
		Name:   name,
		Params: params,
		Arity:  len(params),
		Body:   body,
		Env:    env,
	}
	m.track(f, 64)
	return f
}

// NativeFn is the adapter signature every built-in conforms to: arity
// is checked by the caller before invocation, so the implementation
// only needs to handle its own declared parameter count (or, for
// variadic natives, any count).
type NativeFn func(ip *Interpreter, args []Value) (Value, error)

// NativeObject wraps a Go function pointer as a callable Brisk value.
// Arity -1 means variadic.
type NativeObject struct {
	Object
	Name  string
	Arity int
	Fn    NativeFn
}

func (m *Memory) NewNative(name string, arity int, fn NativeFn) *NativeObject {
	n := &NativeObject{Object: Object{Kind: ObjNative, RefCount: 1}, Name: name, Arity: arity, Fn: fn}
	m.track(n, 32)
	return n
}

func (m *Memory) Native(name string, arity int, fn NativeFn) Value {
	return ObjVal(m.NewNative(name, arity, fn))
}
