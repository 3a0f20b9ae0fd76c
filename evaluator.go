// evaluator.go: the tree-walking core — statement execution,
// expression evaluation, function invocation, and the scope/defer
// bookkeeping that implements §4.3's contract.
package brisk

import (
	"math"
	"os"
	"strings"
	"unsafe"
)

// pushScope replaces ip.current with a fresh child scope, using the
// increment-new-owner-before-decrement-old-owner discipline: NewEnv
// already increfs the parent on the child's behalf, so the
// interpreter's own direct reference to the old scope is released
// only after that new reference exists — there is never a moment
// where the old scope's count could transiently reach zero while it
// is still reachable through ip.current's former value.
func (ip *Interpreter) pushScope() {
	old := ip.current
	next := NewEnv(ip.Mem, old)
	old.DecRef()
	ip.current = next
}

// popScope reverses pushScope: the parent regains a direct interpreter
// reference before the child scope that was holding it is released.
func (ip *Interpreter) popScope() {
	cur := ip.current
	parent := cur.parent
	if parent != nil {
		parent.IncRef()
	}
	ip.current = parent
	cur.DecRef()
}

// unwindDefers runs every deferred statement pushed since start, in
// LIFO order, with the control-flow latches masked for the duration
// of each one (so a deferred `return`/`break`/`continue` cannot hijack
// the unwind already in progress). Per §7, unwinding because of an
// error still runs these defers.
func (ip *Interpreter) unwindDefers(start int) error {
	var firstErr error
	for i := len(ip.deferStack) - 1; i >= start; i-- {
		frame := ip.deferStack[i]
		savedCur := ip.current
		savedReturning, savedBreaking, savedContinuing := ip.returning, ip.breaking, ip.continuing
		ip.current = frame.Env
		ip.returning, ip.breaking, ip.continuing = false, false, false

		err := ip.execStmt(frame.Stmt)

		ip.returning, ip.breaking, ip.continuing = savedReturning, savedBreaking, savedContinuing
		ip.current = savedCur
		frame.Env.DecRef()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	ip.deferStack = ip.deferStack[:start]
	return firstErr
}

// execBlock implements the generic "block" statement semantics of
// §4.3.3: push a scope and a defer marker, run statements until a
// latch fires or an error occurs, unwind defers back to the marker
// regardless of how the block exited, then pop the scope.
func (ip *Interpreter) execBlock(b *BlockStmt) error {
	ip.pushScope()
	marker := len(ip.deferStack)

	var runErr error
	for _, stmt := range b.Stmts {
		if err := ip.execStmt(stmt); err != nil {
			runErr = err
			break
		}
		if ip.returning || ip.breaking || ip.continuing {
			break
		}
	}

	if err := ip.unwindDefers(marker); err != nil && runErr == nil {
		runErr = err
	}
	ip.popScope()
	return runErr
}

func (ip *Interpreter) execStmt(n Node) error {
	switch s := n.(type) {
	case *ExprStmt:
		v, err := ip.evalExpr(s.Expr)
		if err != nil {
			return err
		}
		ip.lastValue = v
		return nil
	case *VarDecl:
		return ip.execVarDecl(s)
	case *AssignStmt:
		return ip.execAssign(s)
	case *BlockStmt:
		return ip.execBlock(s)
	case *IfStmt:
		return ip.execIf(s)
	case *WhileStmt:
		return ip.execWhile(s)
	case *ForStmt:
		return ip.execFor(s)
	case *ReturnStmt:
		return ip.execReturn(s)
	case *BreakStmt:
		ip.breaking = true
		return nil
	case *ContinueStmt:
		ip.continuing = true
		return nil
	case *MatchStmt:
		return ip.execMatch(s)
	case *DeferStmt:
		ip.current.IncRef()
		ip.deferStack = append(ip.deferStack, deferFrame{Stmt: s.Stmt, Env: ip.current})
		return nil
	case *FnDecl:
		fn := ip.Mem.NewFunction(s.Name, s.Params, s.Body, ip.current)
		if !ip.current.Define(s.Name, ObjVal(fn), false) {
			return ip.runtimeErr(s, ErrName, "'%s' is already defined in this scope", s.Name)
		}
		return nil
	case *ImportStmt:
		return ip.execImport(s)
	case *InlineCStmt:
		return ip.runtimeErr(s, ErrRuntime, "inline C blocks are not implemented")
	default:
		return ip.runtimeErr(n, ErrRuntime, "unhandled statement kind")
	}
}

func (ip *Interpreter) execVarDecl(s *VarDecl) error {
	v, err := ip.evalExpr(s.Value)
	if err != nil {
		return err
	}
	if !ip.current.Define(s.Name, v, s.IsConst) {
		return ip.runtimeErr(s, ErrName, "'%s' is already defined in this scope", s.Name)
	}
	return nil
}

func (ip *Interpreter) execAssign(s *AssignStmt) error {
	v, err := ip.evalExpr(s.Value)
	if err != nil {
		return err
	}
	switch target := s.Target.(type) {
	case *Ident:
		switch ip.current.Set(target.Name, v) {
		case setOK:
			return nil
		case setConst:
			return ip.runtimeErr(s, ErrConst, "Cannot assign to constant '%s'", target.Name)
		default:
			return ip.runtimeErr(s, ErrName, "'%s' is not defined", target.Name)
		}
	case *IndexExpr:
		tv, err := ip.evalExpr(target.Target)
		if err != nil {
			return err
		}
		iv, err := ip.evalExpr(target.Index)
		if err != nil {
			return err
		}
		switch {
		case tv.Is(ObjArray):
			if !iv.IsInt() {
				return ip.runtimeErr(s, ErrType, "array index must be an int, got %s", TypeName(iv))
			}
			if !tv.AsArray().Set(ip.Mem, iv.AsInt(), v) {
				return ip.runtimeErr(s, ErrIndex, "array index %d out of bounds", iv.AsInt())
			}
			return nil
		case tv.Is(ObjTable):
			if !iv.Is(ObjString) {
				return ip.runtimeErr(s, ErrType, "table key must be a string, got %s", TypeName(iv))
			}
			key := ip.Mem.Intern(iv.AsString().Chars)
			if tbl := tv.AsTable(); tbl.IsConst(key) {
				ip.Mem.DecRef(key)
				return ip.runtimeErr(s, ErrConst, "Cannot assign to constant field")
			}
			ok := tv.AsTable().Set(ip.Mem, key, v, false)
			ip.Mem.DecRef(key)
			if !ok {
				return ip.runtimeErr(s, ErrConst, "Cannot assign to constant field")
			}
			return nil
		default:
			return ip.runtimeErr(s, ErrType, "cannot index into %s", TypeName(tv))
		}
	case *FieldExpr:
		tv, err := ip.evalExpr(target.Target)
		if err != nil {
			return err
		}
		switch {
		case tv.Is(ObjTable):
			key := ip.Mem.Intern(target.Name)
			tbl := tv.AsTable()
			if tbl.IsConst(key) {
				ip.Mem.DecRef(key)
				return ip.runtimeErr(s, ErrConst, "Cannot assign to constant field '%s'", target.Name)
			}
			tbl.Set(ip.Mem, key, v, false)
			ip.Mem.DecRef(key)
			return nil
		case tv.Is(ObjCStruct):
			cs := tv.AsCStruct()
			field, ok := cs.Desc.FieldByName(target.Name)
			if !ok {
				return ip.runtimeErr(s, ErrName, "struct '%s' has no field '%s'", cs.Desc.Name, target.Name)
			}
			if err := setCStructField(ip.Mem, cs, field, v); err != nil {
				return ip.runtimeErr(s, ErrFFI, "%s", err.Error())
			}
			return nil
		default:
			return ip.runtimeErr(s, ErrType, "field access target must be a table or struct, got %s", TypeName(tv))
		}
	default:
		return ip.runtimeErr(s, ErrType, "invalid assignment target")
	}
}

func (ip *Interpreter) execIf(s *IfStmt) error {
	cond, err := ip.evalExpr(s.Cond)
	if err != nil {
		return err
	}
	if cond.Truthy() {
		return ip.execBlock(s.Then)
	}
	switch e := s.Else.(type) {
	case nil:
		return nil
	case *BlockStmt:
		return ip.execBlock(e)
	case *IfStmt:
		return ip.execIf(e)
	default:
		return ip.runtimeErr(s, ErrRuntime, "malformed if-else chain")
	}
}

func (ip *Interpreter) execWhile(s *WhileStmt) error {
	for {
		cond, err := ip.evalExpr(s.Cond)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}
		if err := ip.execBlock(s.Body); err != nil {
			return err
		}
		if ip.returning {
			return nil
		}
		if ip.breaking {
			ip.breaking = false
			return nil
		}
		if ip.continuing {
			ip.continuing = false
		}
	}
}

// execFor implements §4.3.3's "for" over an array. The iterator
// binding lives in a scope created fresh each iteration so it is not
// visible outside the loop once it ends, matching the boundary
// behavior in §8.
func (ip *Interpreter) execFor(s *ForStmt) error {
	var elems []Value
	if rl, ok := s.Iterable.(*RangeLit); ok {
		startV, err := ip.evalExpr(rl.Start)
		if err != nil {
			return err
		}
		endV, err := ip.evalExpr(rl.End)
		if err != nil {
			return err
		}
		if !startV.IsInt() || !endV.IsInt() {
			return ip.runtimeErr(rl, ErrType, "range bounds must be integers")
		}
		elems = materializeRange(startV.AsInt(), endV.AsInt())
	} else {
		iterVal, err := ip.evalExpr(s.Iterable)
		if err != nil {
			return err
		}
		if !iterVal.Is(ObjArray) {
			return ip.runtimeErr(s, ErrType, "'for' requires an array, got %s", TypeName(iterVal))
		}
		elems = iterVal.AsArray().Elements
	}

	for _, elem := range elems {
		ip.pushScope()
		ip.current.Define(s.Var, elem, false)
		marker := len(ip.deferStack)

		var runErr error
		for _, stmt := range s.Body.Stmts {
			if err := ip.execStmt(stmt); err != nil {
				runErr = err
				break
			}
			if ip.returning || ip.breaking || ip.continuing {
				break
			}
		}
		if err := ip.unwindDefers(marker); err != nil && runErr == nil {
			runErr = err
		}
		ip.popScope()

		if runErr != nil {
			return runErr
		}
		if ip.returning {
			return nil
		}
		if ip.breaking {
			ip.breaking = false
			return nil
		}
		if ip.continuing {
			ip.continuing = false
		}
	}
	return nil
}

func (ip *Interpreter) execReturn(s *ReturnStmt) error {
	if s.Value == nil {
		ip.returnValue = Null()
	} else {
		v, err := ip.evalExpr(s.Value)
		if err != nil {
			return err
		}
		ip.returnValue = v
	}
	ip.returning = true
	return nil
}

// execMatch implements §4.3.3's match semantics: wildcard, int-range
// pattern, or value_equals comparison, first arm wins.
func (ip *Interpreter) execMatch(s *MatchStmt) error {
	scrutinee, err := ip.evalExpr(s.Scrutinee)
	if err != nil {
		return err
	}
	for _, arm := range s.Arms {
		matched := false
		switch {
		case arm.Pattern == nil:
			matched = true
		default:
			if rl, ok := arm.Pattern.(*RangeLit); ok && scrutinee.IsInt() {
				startV, err := ip.evalExpr(rl.Start)
				if err != nil {
					return err
				}
				endV, err := ip.evalExpr(rl.End)
				if err != nil {
					return err
				}
				if startV.IsInt() && endV.IsInt() {
					n := scrutinee.AsInt()
					matched = n >= startV.AsInt() && n < endV.AsInt()
				}
			} else {
				patVal, err := ip.evalExpr(arm.Pattern)
				if err != nil {
					return err
				}
				matched = Equals(scrutinee, patVal)
			}
		}
		if !matched {
			continue
		}
		if arm.IsBlock {
			return ip.execBlock(arm.Block)
		}
		v, err := ip.evalExpr(arm.Expr)
		if err != nil {
			return err
		}
		ip.lastValue = v
		return nil
	}
	return nil
}

// materializeRange implements the range literal semantics of §4.3.2:
// ascending [start, end) when start <= end, else descending with
// step -1.
func materializeRange(start, end int64) []Value {
	var out []Value
	if start <= end {
		for i := start; i < end; i++ {
			out = append(out, Int(i))
		}
	} else {
		for i := start; i > end; i-- {
			out = append(out, Int(i))
		}
	}
	return out
}

// ---- expressions ----

func (ip *Interpreter) evalExpr(n Node) (Value, error) {
	switch e := n.(type) {
	case *NullLit:
		return Null(), nil
	case *BoolLit:
		return Bool(e.Value), nil
	case *IntLit:
		return Int(e.Value), nil
	case *FloatLit:
		return Float(e.Value), nil
	case *StringLit:
		return ip.Mem.Str(e.Value), nil
	case *Ident:
		v, ok := ip.current.Get(e.Name)
		if !ok {
			return Value{}, ip.runtimeErr(e, ErrName, "'%s' is not defined", e.Name)
		}
		return v, nil
	case *BinaryExpr:
		return ip.evalBinary(e)
	case *UnaryExpr:
		return ip.evalUnary(e)
	case *ArrayLit:
		elems := make([]Value, 0, len(e.Elements))
		for _, el := range e.Elements {
			v, err := ip.evalExpr(el)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return ip.Mem.Arr(elems), nil
	case *TableLit:
		tbl := ip.Mem.NewTable()
		for i, k := range e.Keys {
			v, err := ip.evalExpr(e.Values[i])
			if err != nil {
				return Value{}, err
			}
			key := ip.Mem.Intern(k)
			tbl.Set(ip.Mem, key, v, false)
			ip.Mem.DecRef(key)
		}
		return ObjVal(tbl), nil
	case *RangeLit:
		startV, err := ip.evalExpr(e.Start)
		if err != nil {
			return Value{}, err
		}
		endV, err := ip.evalExpr(e.End)
		if err != nil {
			return Value{}, err
		}
		if !startV.IsInt() || !endV.IsInt() {
			return Value{}, ip.runtimeErr(e, ErrType, "range bounds must be integers")
		}
		return ip.Mem.Arr(materializeRange(startV.AsInt(), endV.AsInt())), nil
	case *IndexExpr:
		return ip.evalIndex(e)
	case *FieldExpr:
		return ip.evalField(e)
	case *CallExpr:
		return ip.evalCall(e)
	case *LambdaExpr:
		return ObjVal(ip.Mem.NewFunction("", e.Params, e.Body, ip.current)), nil
	case *AddrOfExpr:
		return ip.evalAddrOf(e)
	default:
		return Value{}, ip.runtimeErr(n, ErrRuntime, "unhandled expression kind")
	}
}

func (ip *Interpreter) evalBinary(e *BinaryExpr) (Value, error) {
	if e.Op == TAnd || e.Op == TOr {
		left, err := ip.evalExpr(e.Left)
		if err != nil {
			return Value{}, err
		}
		if e.Op == TAnd && !left.Truthy() {
			return left, nil
		}
		if e.Op == TOr && left.Truthy() {
			return left, nil
		}
		return ip.evalExpr(e.Right)
	}

	left, err := ip.evalExpr(e.Left)
	if err != nil {
		return Value{}, err
	}
	right, err := ip.evalExpr(e.Right)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case TEq:
		return Bool(Equals(left, right)), nil
	case TNeq:
		return Bool(!Equals(left, right)), nil
	case TPlus:
		if left.Is(ObjString) {
			if right.Is(ObjString) {
				return ip.Mem.Str(left.AsString().Chars + right.AsString().Chars), nil
			}
			return ip.Mem.Str(left.AsString().Chars + ToString(right)), nil
		}
		return ip.numericBinary(e, left, right)
	case TMinus, TStar, TSlash, TPercent:
		return ip.numericBinary(e, left, right)
	case TLt, TLte, TGt, TGte:
		return ip.comparisonBinary(e, left, right)
	default:
		return Value{}, ip.runtimeErr(e, ErrRuntime, "unhandled binary operator")
	}
}

func (ip *Interpreter) numericBinary(e *BinaryExpr, left, right Value) (Value, error) {
	if !left.IsNumber() || !right.IsNumber() {
		return Value{}, ip.runtimeErr(e, ErrType, "expected numbers, got %s and %s", TypeName(left), TypeName(right))
	}
	if left.IsInt() && right.IsInt() {
		a, b := left.AsInt(), right.AsInt()
		switch e.Op {
		case TPlus:
			return Int(a + b), nil
		case TMinus:
			return Int(a - b), nil
		case TStar:
			return Int(a * b), nil
		case TSlash:
			if b == 0 {
				return Value{}, ip.runtimeErr(e, ErrRuntime, "division by zero")
			}
			return Int(a / b), nil
		case TPercent:
			if b == 0 {
				return Value{}, ip.runtimeErr(e, ErrRuntime, "modulo by zero")
			}
			return Int(a % b), nil
		}
	}
	a, b := left.AsFloat64(), right.AsFloat64()
	switch e.Op {
	case TPlus:
		return Float(a + b), nil
	case TMinus:
		return Float(a - b), nil
	case TStar:
		return Float(a * b), nil
	case TSlash:
		if b == 0 {
			return Value{}, ip.runtimeErr(e, ErrRuntime, "division by zero")
		}
		return Float(a / b), nil
	case TPercent:
		if b == 0 {
			return Value{}, ip.runtimeErr(e, ErrRuntime, "modulo by zero")
		}
		return Float(math.Remainder(a, b)), nil
	}
	return Value{}, ip.runtimeErr(e, ErrRuntime, "unhandled numeric operator")
}

func (ip *Interpreter) comparisonBinary(e *BinaryExpr, left, right Value) (Value, error) {
	if left.IsNumber() && right.IsNumber() {
		a, b := left.AsFloat64(), right.AsFloat64()
		switch e.Op {
		case TLt:
			return Bool(a < b), nil
		case TLte:
			return Bool(a <= b), nil
		case TGt:
			return Bool(a > b), nil
		case TGte:
			return Bool(a >= b), nil
		}
	}
	if left.Is(ObjString) && right.Is(ObjString) {
		a, b := left.AsString().Chars, right.AsString().Chars
		switch e.Op {
		case TLt:
			return Bool(a < b), nil
		case TLte:
			return Bool(a <= b), nil
		case TGt:
			return Bool(a > b), nil
		case TGte:
			return Bool(a >= b), nil
		}
	}
	return Value{}, ip.runtimeErr(e, ErrType, "cannot compare %s and %s", TypeName(left), TypeName(right))
}

func (ip *Interpreter) evalUnary(e *UnaryExpr) (Value, error) {
	v, err := ip.evalExpr(e.Operand)
	if err != nil {
		return Value{}, err
	}
	switch e.Op {
	case TMinus:
		switch v.Tag {
		case VInt:
			return Int(-v.AsInt()), nil
		case VFloat:
			return Float(-v.AsFloat()), nil
		default:
			return Value{}, ip.runtimeErr(e, ErrType, "unary '-' expects a number, got %s", TypeName(v))
		}
	case TNot, TBang:
		return Bool(!v.Truthy()), nil
	default:
		return Value{}, ip.runtimeErr(e, ErrRuntime, "unhandled unary operator")
	}
}

func (ip *Interpreter) evalIndex(e *IndexExpr) (Value, error) {
	target, err := ip.evalExpr(e.Target)
	if err != nil {
		return Value{}, err
	}
	idx, err := ip.evalExpr(e.Index)
	if err != nil {
		return Value{}, err
	}
	switch {
	case target.Is(ObjArray):
		if !idx.IsInt() {
			return Value{}, ip.runtimeErr(e, ErrType, "array index must be an int, got %s", TypeName(idx))
		}
		v, ok := target.AsArray().Get(idx.AsInt())
		if !ok {
			return Value{}, ip.runtimeErr(e, ErrIndex, "array index %d out of bounds", idx.AsInt())
		}
		return v, nil
	case target.Is(ObjTable):
		if !idx.Is(ObjString) {
			return Value{}, ip.runtimeErr(e, ErrType, "table key must be a string, got %s", TypeName(idx))
		}
		key := ip.Mem.Intern(idx.AsString().Chars)
		v, ok := target.AsTable().GetInterned(key)
		ip.Mem.DecRef(key)
		if !ok {
			return Null(), nil
		}
		return v, nil
	case target.Is(ObjString):
		if !idx.IsInt() {
			return Value{}, ip.runtimeErr(e, ErrType, "string index must be an int, got %s", TypeName(idx))
		}
		s := target.AsString().Chars
		i := idx.AsInt()
		if i < 0 || i >= int64(len(s)) {
			return Value{}, ip.runtimeErr(e, ErrIndex, "string index %d out of bounds", i)
		}
		return ip.Mem.Str(string(s[i])), nil
	default:
		return Value{}, ip.runtimeErr(e, ErrType, "cannot index into %s", TypeName(target))
	}
}

// evalField implements §4.3.2: field access is table-only sugar for a
// string-keyed index, extended (§4.8) to CStruct field reads by name.
func (ip *Interpreter) evalField(e *FieldExpr) (Value, error) {
	target, err := ip.evalExpr(e.Target)
	if err != nil {
		return Value{}, err
	}
	switch {
	case target.Is(ObjTable):
		key := ip.Mem.Intern(e.Name)
		v, ok := target.AsTable().GetInterned(key)
		ip.Mem.DecRef(key)
		if !ok {
			return Null(), nil
		}
		return v, nil
	case target.Is(ObjCStruct):
		cs := target.AsCStruct()
		field, ok := cs.Desc.FieldByName(e.Name)
		if !ok {
			return Value{}, ip.runtimeErr(e, ErrName, "struct '%s' has no field '%s'", cs.Desc.Name, e.Name)
		}
		return getCStructField(ip.Mem, cs, field), nil
	default:
		return Value{}, ip.runtimeErr(e, ErrType, "field access target must be a table or struct, got %s", TypeName(target))
	}
}

// getCStructField/setCStructField implement §4.8's cstruct_get_field /
// cstruct_set_field by reinterpreting the struct's raw buffer at the
// field's computed offset, reusing the FFI bridge's own marshalling
// so a struct field and a C function argument of the same type decode
// identically.
func getCStructField(mem *Memory, cs *CStructObject, f *CFieldDesc) Value {
	if f.Type == CStructType {
		if v, ok := cs.Fields[f.Name]; ok {
			return v
		}
		return Null()
	}
	slot := unsafe.Pointer(&cs.Data[f.Offset])
	return marshalFromC(mem, slot, f.Type)
}

func setCStructField(mem *Memory, cs *CStructObject, f *CFieldDesc, v Value) error {
	if f.Type == CStructType {
		old, had := cs.Fields[f.Name]
		mem.IncRefValue(v)
		cs.Fields[f.Name] = v
		if had {
			mem.DecRefValue(old)
		}
		return nil
	}
	slot := unsafe.Pointer(&cs.Data[f.Offset])
	return marshalToC(mem, v, f.Type, slot)
}

// evalAddrOf implements §4.3.2's address-of: defined only for CStruct.
func (ip *Interpreter) evalAddrOf(e *AddrOfExpr) (Value, error) {
	v, err := ip.evalExpr(e.Target)
	if err != nil {
		return Value{}, err
	}
	if !v.Is(ObjCStruct) {
		return Value{}, ip.runtimeErr(e, ErrType, "'&' expects a struct, got %s", TypeName(v))
	}
	cs := v.AsCStruct()
	return ip.Mem.Ptr(cs.DataPtr(), cs.Desc.Name), nil
}

func (ip *Interpreter) evalCall(e *CallExpr) (Value, error) {
	callee, err := ip.evalExpr(e.Callee)
	if err != nil {
		return Value{}, err
	}
	if !callee.Callable() {
		return Value{}, ip.runtimeErr(e, ErrType, "value of kind %s is not callable", TypeName(callee))
	}
	args := make([]Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := ip.evalExpr(a)
		if err != nil {
			return Value{}, err
		}
		args = append(args, v)
	}
	line, col := e.Pos()
	kind, _ := callee.ObjKind()
	switch kind {
	case ObjNative:
		n := callee.AsNative()
		if n.Arity >= 0 && len(args) != n.Arity {
			return Value{}, ip.runtimeErr(e, ErrArity, "%s expects %d arguments, got %d", n.Name, n.Arity, len(args))
		}
		return n.Fn(ip, args)
	case ObjCFunction:
		return ip.callCFunction(callee.AsCFunction().Desc, args, line, col)
	case ObjFunction:
		return ip.callFunction(callee.AsFunction(), args, line, col)
	default:
		return Value{}, ip.runtimeErr(e, ErrType, "value is not callable")
	}
}

// callFunction implements §4.3.4's Function call contract.
func (ip *Interpreter) callFunction(fn *FunctionObject, args []Value, line, col int) (Value, error) {
	if len(args) != fn.Arity {
		label := fn.Name
		if label == "" {
			label = "<anonymous fn>"
		}
		return Value{}, NewRuntimeError(line, col, ErrArity, "%s expects %d arguments, got %d", label, fn.Arity, len(args))
	}
	callEnv := NewEnv(ip.Mem, fn.Env)
	for i, p := range fn.Params {
		callEnv.Define(p, args[i], false)
	}

	savedCurrent := ip.current
	ip.current = callEnv
	ip.lastValue = Null()
	deferStart := len(ip.deferStack)

	var runErr error
	for _, stmt := range fn.Body.Stmts {
		if err := ip.execStmt(stmt); err != nil {
			runErr = err
			break
		}
		if ip.returning || ip.hadError {
			break
		}
	}

	if err := ip.unwindDefers(deferStart); err != nil && runErr == nil {
		runErr = err
	}

	var result Value
	switch {
	case runErr != nil:
		result = Value{}
	case ip.returning:
		result = ip.returnValue
		ip.returning = false
	default:
		result = ip.lastValue
	}
	ip.breaking = false
	ip.continuing = false
	ip.current = savedCurrent
	callEnv.DecRef()
	return result, runErr
}

// ---- import resolution (§4.5) ----

func (ip *Interpreter) execImport(s *ImportStmt) error {
	if strings.HasSuffix(s.Path, ".brisk") {
		return ip.importBriskModule(s)
	}
	return ip.importCHeader(s)
}

func (ip *Interpreter) importBriskModule(s *ImportStmt) error {
	candidates := []string{s.Path}
	if !strings.HasPrefix(s.Path, "/") && !strings.HasPrefix(s.Path, ".") {
		candidates = []string{"./" + s.Path, "lib/" + s.Path}
	} else if strings.HasPrefix(s.Path, ".") {
		candidates = []string{s.Path}
	}
	var data []byte
	var readErr error
	var resolved string
	for _, c := range candidates {
		d, err := os.ReadFile(c)
		if err == nil {
			data, resolved = d, c
			break
		}
		readErr = err
	}
	if resolved == "" {
		return ip.runtimeErr(s, ErrIO, "cannot find module %q: %s", s.Path, readErr.Error())
	}
	if ip.modules[resolved] {
		return nil
	}
	ip.modules[resolved] = true

	p, err := NewParser(string(data))
	if err != nil {
		return WrapErrorWithName(err, resolved, string(data))
	}
	program, err := p.ParseProgram()
	if err != nil {
		return WrapErrorWithName(err, resolved, string(data))
	}
	savedCurrent := ip.current
	ip.current = ip.Global
	for _, stmt := range program.Stmts {
		if err := ip.execStmt(stmt); err != nil {
			ip.current = savedCurrent
			return err
		}
	}
	ip.current = savedCurrent
	return nil
}

func (ip *Interpreter) importCHeader(s *ImportStmt) error {
	lib, err := ip.resolveLibraryFor(s.Path)
	if err != nil {
		return ip.runtimeErr(s, ErrFFI, "cannot resolve library for %q: %s", s.Path, err.Error())
	}

	var result *HeaderResult
	if headerPath, ok := findHeaderFile(s.Path); ok {
		if data, err := os.ReadFile(headerPath); err == nil {
			result = ParseHeader(string(data))
		}
	}

	seen := map[string]bool{}
	if result != nil {
		for _, fn := range result.Functions {
			if addr, ok := findSymbol(lib, fn.Name); ok {
				ip.bindCFunction(fn.Name, fn.ReturnType, fn.ParamTypes, fn.Variadic, addr)
				seen[fn.Name] = true
			}
		}
		for _, enumConst := range result.Enums {
			ip.Global.Define(enumConst.Name, Int(enumConst.Value), true)
		}
		for _, mc := range result.Macros {
			switch {
			case mc.IsInt:
				ip.Global.Define(mc.Name, Int(mc.IntValue), true)
			case mc.IsFloat:
				ip.Global.Define(mc.Name, Float(mc.FloatVal), true)
			default:
				ip.Global.Define(mc.Name, ip.Mem.Str(mc.StrVal), true)
			}
		}
	}

	if strings.Contains(s.Path, "math.h") {
		for name, params := range hardcodedMathFunctions {
			if seen[name] {
				continue
			}
			if addr, ok := findSymbol(lib, name); ok {
				ip.bindCFunction(name, CDouble, params, false, addr)
			}
		}
	}
	return nil
}

func (ip *Interpreter) bindCFunction(name string, ret CType, params []CType, variadic bool, addr uintptr) {
	desc := &CFunctionDesc{Name: name, ReturnType: ret, ParamTypes: params, Variadic: variadic, FuncPtr: addr}
	val := ip.Mem.CFunc(desc)
	if !ip.Global.Define(name, val, true) {
		ip.Global.Set(name, val)
	}
}

func (ip *Interpreter) runtimeErr(n Node, kind ErrorKind, format string, args ...any) error {
	line, col := n.Pos()
	return NewRuntimeError(line, col, kind, format, args...)
}
