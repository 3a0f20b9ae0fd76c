package brisk

import (
	"bytes"
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func runCapture(t *testing.T, src string) (string, error) {
	t.Helper()
	ip := NewInterpreter()
	var buf bytes.Buffer
	ip.Out = &buf
	err := ip.RunSource(src, "")
	return buf.String(), err
}

func mustRunCapture(t *testing.T, src string) string {
	t.Helper()
	out, err := runCapture(t, src)
	if err != nil {
		t.Fatalf("run error for %q: %v", src, err)
	}
	return out
}

func wantInt(t *testing.T, v Value, n int64) {
	t.Helper()
	if !v.IsInt() || v.AsInt() != n {
		t.Fatalf("want int %d, got %#v", n, v)
	}
}

func wantFloat(t *testing.T, v Value, f float64) {
	t.Helper()
	if !v.IsFloat() || v.AsFloat() != f {
		t.Fatalf("want float %g, got %#v", f, v)
	}
}

func wantBool(t *testing.T, v Value, b bool) {
	t.Helper()
	if !v.IsBool() || v.AsBool() != b {
		t.Fatalf("want bool %v, got %#v", b, v)
	}
}

// --- scenario 1: arithmetic & implicit return -------------------------------

func TestScenario_ArithmeticImplicitReturn(t *testing.T) {
	out := mustRunCapture(t, "fn f(x) { x * x }\nprintln(f(7))")
	if out != "49\n" {
		t.Fatalf("got %q, want %q", out, "49\n")
	}
}

// --- scenario 2: closures ----------------------------------------------------

func TestScenario_Closures(t *testing.T) {
	src := `fn make_counter() { c := 0; fn() { c = c + 1; c } }
k := make_counter(); println(k()); println(k()); println(k())`
	out := mustRunCapture(t, src)
	if out != "1\n2\n3\n" {
		t.Fatalf("got %q, want %q", out, "1\n2\n3\n")
	}
}

// --- scenario 3: defer LIFO --------------------------------------------------

func TestScenario_DeferLIFO(t *testing.T) {
	src := `fn g() { defer println("a"); defer println("b"); println("c") }
g()`
	out := mustRunCapture(t, src)
	if out != "c\nb\na\n" {
		t.Fatalf("got %q, want %q", out, "c\nb\na\n")
	}
}

// --- scenario 4: match with range pattern -----------------------------------

func TestScenario_MatchRangePattern(t *testing.T) {
	src := `fn grade(s) { match s { 90..101 => "A", 80..90 => "B", _ => "F" } }
println(grade(95)); println(grade(85)); println(grade(50))`
	out := mustRunCapture(t, src)
	if out != "A\nB\nF\n" {
		t.Fatalf("got %q, want %q", out, "A\nB\nF\n")
	}
}

// --- scenario 5: table as ordered-by-insertion literal ----------------------

func TestScenario_TableHas(t *testing.T) {
	src := `t := {a: 1, b: 2}; println(has(t, "a")); println(has(t, "c"))`
	out := mustRunCapture(t, src)
	if out != "true\nfalse\n" {
		t.Fatalf("got %q, want %q", out, "true\nfalse\n")
	}
}

// --- scenario 7: const violation ---------------------------------------------

func TestScenario_ConstViolation(t *testing.T) {
	_, err := runCapture(t, "PI :: 3.14; PI = 3")
	if err == nil {
		t.Fatalf("expected an error assigning to a const binding")
	}
	if !strings.Contains(err.Error(), "Cannot assign to constant 'PI'") {
		t.Fatalf("error %q does not contain the required message", err.Error())
	}
}

// --- boundary: array index -1 is out of bounds ------------------------------

func TestBoundary_ArrayNegativeIndex(t *testing.T) {
	_, err := runCapture(t, "a := [1, 2, 3]; a[-1]")
	if err == nil {
		t.Fatalf("expected an IndexError for a negative array index")
	}
	if !strings.Contains(err.Error(), "IndexError") {
		t.Fatalf("error %q is not an IndexError", err.Error())
	}
}

// --- boundary: empty-array for-loop runs zero times, var not visible after --

func TestBoundary_EmptyForLoop(t *testing.T) {
	src := `n := 0
for x in [] { n = n + 1 }
println(n)
println(type(x))`
	_, err := runCapture(t, src)
	if err == nil {
		t.Fatalf("expected a NameError for referencing the loop variable after the loop")
	}
	if !strings.Contains(err.Error(), "NameError") {
		t.Fatalf("error %q is not a NameError", err.Error())
	}
}

func TestBoundary_EmptyForLoopBodyNeverRuns(t *testing.T) {
	out := mustRunCapture(t, "n := 0\nfor x in [] { n = n + 1 }\nprintln(n)")
	if out != "0\n" {
		t.Fatalf("got %q, want %q", out, "0\n")
	}
}

// --- boundary: match with no matching arm and no wildcard leaves last_value

func TestBoundary_MatchNoArmLeavesLastValueUnchanged(t *testing.T) {
	ip := NewInterpreter()
	var buf bytes.Buffer
	ip.Out = &buf
	v, err := ip.EvalExpression(`5
match 99 { 1 => "one" }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantInt(t, v, 5)
}

// --- boundary: falsy-non-bool passthrough for and/or ------------------------

func TestBoundary_AndOrPassthroughNonBoolFalsy(t *testing.T) {
	ip := NewInterpreter()
	v, err := ip.EvalExpression(`0 and true`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantInt(t, v, 0)

	v, err = ip.EvalExpression(`"" or 3`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantInt(t, v, 3)
}

// --- invariant: for every const binding, set fails --------------------------

func TestInvariant_ConstBindingSetAlwaysFails(t *testing.T) {
	ip := NewInterpreter()
	ip.Global.Define("k", Int(1), true)
	if res := ip.Global.Set("k", Int(2)); res != setConst {
		t.Fatalf("expected setConst, got %v", res)
	}
}

// --- invariant: defer-stack depth restored at block exit --------------------

func TestInvariant_DeferStackDepthRestoredAtBlockExit(t *testing.T) {
	ip := NewInterpreter()
	src := `fn f() { defer println("x"); 1 }
f(); f(); f()`
	var buf bytes.Buffer
	ip.Out = &buf
	if err := ip.RunSource(src, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ip.deferStack) != 0 {
		t.Fatalf("defer stack not unwound, depth=%d", len(ip.deferStack))
	}
}

// --- invariant: current environment restored at call return -----------------

func TestInvariant_CurrentEnvRestoredAtCallReturn(t *testing.T) {
	ip := NewInterpreter()
	before := ip.current
	src := `fn f() { x := 1; y := 2; x + y }
f()`
	if err := ip.RunSource(src, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ip.current != before {
		t.Fatalf("current environment not restored after call")
	}
}

// --- invariant: value_equals(clone(v), v) for scalar kinds -------------------

func TestInvariant_ScalarEqualsClone(t *testing.T) {
	ip := NewInterpreter()
	vals := []Value{Int(42), Float(3.5), Bool(true), Null(), ip.Mem.Str("hi")}
	for _, v := range vals {
		clone := v
		if !Equals(clone, v) {
			t.Fatalf("value_equals(clone(%#v), %#v) failed", clone, v)
		}
	}
}

// --- arithmetic & comparisons -------------------------------------------------

func TestArithmeticAndComparisons(t *testing.T) {
	ip := NewInterpreter()
	evalOK := func(src string) Value {
		v, err := ip.EvalExpression(src)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", src, err)
		}
		return v
	}
	wantInt(t, evalOK("1 + 2 * 3"), 7)
	wantFloat(t, evalOK("5.0 / 2"), 2.5)
	wantInt(t, evalOK("7 % 4"), 3)
	wantBool(t, evalOK("3 < 4"), true)
	wantBool(t, evalOK("3.0 >= 3"), true)
}

// --- division by zero is a runtime error, not a panic -----------------------

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := runCapture(t, "1 / 0")
	if err == nil {
		t.Fatalf("expected a runtime error for division by zero")
	}
}
