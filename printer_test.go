package brisk

import "testing"

// reparse parses src into an AST, prints it back to text, and reparses
// that text, returning both programs for shape comparison.
func reparse(t *testing.T, src string) (*Program, *Program) {
	t.Helper()
	p1, err := NewParser(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	prog1, err := p1.ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	printed := PrintAST(prog1)
	p2, err := NewParser(printed)
	if err != nil {
		t.Fatalf("reparse error: %v\nprinted:\n%s", err, printed)
	}
	prog2, err := p2.ParseProgram()
	if err != nil {
		t.Fatalf("reparse error: %v\nprinted:\n%s", err, printed)
	}
	return prog1, prog2
}

// shapeEqual compares two nodes' structural shape, ignoring position
// info, per the idempotence property in §8.
func shapeEqual(a, b Node) bool {
	switch x := a.(type) {
	case *Program:
		y, ok := b.(*Program)
		return ok && stmtsShapeEqual(x.Stmts, y.Stmts)
	case *NullLit:
		_, ok := b.(*NullLit)
		return ok
	case *BoolLit:
		y, ok := b.(*BoolLit)
		return ok && x.Value == y.Value
	case *IntLit:
		y, ok := b.(*IntLit)
		return ok && x.Value == y.Value
	case *FloatLit:
		y, ok := b.(*FloatLit)
		return ok && x.Value == y.Value
	case *StringLit:
		y, ok := b.(*StringLit)
		return ok && x.Value == y.Value
	case *Ident:
		y, ok := b.(*Ident)
		return ok && x.Name == y.Name
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && shapeEqual(x.Left, y.Left) && shapeEqual(x.Right, y.Right)
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && shapeEqual(x.Operand, y.Operand)
	case *CallExpr:
		y, ok := b.(*CallExpr)
		if !ok || len(x.Args) != len(y.Args) || !shapeEqual(x.Callee, y.Callee) {
			return false
		}
		for i := range x.Args {
			if !shapeEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *ExprStmt:
		y, ok := b.(*ExprStmt)
		return ok && shapeEqual(x.Expr, y.Expr)
	case *VarDecl:
		y, ok := b.(*VarDecl)
		return ok && x.Name == y.Name && x.IsConst == y.IsConst && shapeEqual(x.Value, y.Value)
	case *FnDecl:
		y, ok := b.(*FnDecl)
		if !ok || x.Name != y.Name || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if x.Params[i] != y.Params[i] {
				return false
			}
		}
		return shapeEqual(x.Body, y.Body)
	case *BlockStmt:
		y, ok := b.(*BlockStmt)
		return ok && stmtsShapeEqual(x.Stmts, y.Stmts)
	case *ReturnStmt:
		y, ok := b.(*ReturnStmt)
		if !ok {
			return false
		}
		if x.Value == nil || y.Value == nil {
			return x.Value == nil && y.Value == nil
		}
		return shapeEqual(x.Value, y.Value)
	}
	return false
}

func stmtsShapeEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !shapeEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestPrintReparseIdempotence_Function(t *testing.T) {
	src := "fn f(x, y) { return x + y * 2 }"
	prog1, prog2 := reparse(t, src)
	if !shapeEqual(prog1, prog2) {
		t.Fatalf("shape mismatch after print/reparse for %q", src)
	}
}

func TestPrintReparseIdempotence_VarDeclAndCall(t *testing.T) {
	src := `n :: 10
f(n, "hi", -3.5)`
	prog1, prog2 := reparse(t, src)
	if !shapeEqual(prog1, prog2) {
		t.Fatalf("shape mismatch after print/reparse for %q", src)
	}
}

func TestPrintReparseIdempotence_NestedBlocks(t *testing.T) {
	src := `fn outer() {
  fn inner() { return 1 + 2 }
  return inner()
}`
	prog1, prog2 := reparse(t, src)
	if !shapeEqual(prog1, prog2) {
		t.Fatalf("shape mismatch after print/reparse for %q", src)
	}
}
