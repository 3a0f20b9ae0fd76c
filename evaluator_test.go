package brisk

import (
	"strings"
	"testing"
)

// --- for-loop strictness ------------------------------------------------

func TestForOverRangeLiteral(t *testing.T) {
	out := mustRunCapture(t, `for i in 1..4 { print(i) }`)
	if out != "123" {
		t.Fatalf("got %q, want %q", out, "123")
	}
}

func TestForOverDescendingRange(t *testing.T) {
	out := mustRunCapture(t, `for i in 4..1 { print(i) }`)
	if out != "432" {
		t.Fatalf("got %q, want %q", out, "432")
	}
}

func TestForOverNonArrayIsTypeError(t *testing.T) {
	_, err := runCapture(t, `for x in "abc" { print(x) }`)
	if err == nil {
		t.Fatalf("expected a TypeError iterating a string with for")
	}
	if !strings.Contains(err.Error(), "TypeError") {
		t.Fatalf("error %q is not a TypeError", err.Error())
	}
}

func TestForOverTableIsTypeError(t *testing.T) {
	_, err := runCapture(t, `for x in {a: 1} { print(x) }`)
	if err == nil {
		t.Fatalf("expected a TypeError iterating a table with for")
	}
	if !strings.Contains(err.Error(), "TypeError") {
		t.Fatalf("error %q is not a TypeError", err.Error())
	}
}

// --- indexing ------------------------------------------------------------

func TestStringIndexing(t *testing.T) {
	ip := NewInterpreter()
	v, err := ip.EvalExpression(`"hello"[1]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ToString(v) != "e" {
		t.Fatalf("got %q, want %q", ToString(v), "e")
	}
}

func TestTableIndexMissingKeyReturnsNullNotError(t *testing.T) {
	ip := NewInterpreter()
	v, err := ip.EvalExpression(`t := {a: 1}; t["missing"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("want null for a missing table key, got %#v", v)
	}
}

// --- arity errors ----------------------------------------------------------

func TestFunctionArityMismatchIsError(t *testing.T) {
	_, err := runCapture(t, `fn f(a, b) { a + b }
f(1)`)
	if err == nil {
		t.Fatalf("expected an arity error")
	}
	if !strings.Contains(err.Error(), "ArityError") {
		t.Fatalf("error %q is not an ArityError", err.Error())
	}
}

// --- break/continue ----------------------------------------------------------

func TestBreakExitsLoop(t *testing.T) {
	out := mustRunCapture(t, `i := 0
while true {
  i = i + 1
  if i == 3 { break }
}
println(i)`)
	if out != "3\n" {
		t.Fatalf("got %q, want %q", out, "3\n")
	}
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	out := mustRunCapture(t, `n := 0
for i in 1..6 {
  if i % 2 == 0 { continue }
  n = n + i
}
println(n)`)
	if out != "9\n" {
		t.Fatalf("got %q, want %q", out, "9\n")
	}
}

// --- builtins ----------------------------------------------------------------

func TestBuiltinPushPopLen(t *testing.T) {
	out := mustRunCapture(t, `a := [1, 2]
push(a, 3)
println(len(a))
println(pop(a))
println(len(a))`)
	if out != "3\n3\n2\n" {
		t.Fatalf("got %q, want %q", out, "3\n3\n2\n")
	}
}

func TestBuiltinKeysHasDelete(t *testing.T) {
	out := mustRunCapture(t, `t := {a: 1, b: 2}
delete(t, "a")
println(has(t, "a"))
println(len(keys(t)))`)
	if out != "false\n1\n" {
		t.Fatalf("got %q, want %q", out, "false\n1\n")
	}
}

func TestBuiltinAssertFailureStopsExecution(t *testing.T) {
	_, err := runCapture(t, `assert(1 == 2, "nope")`)
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected assert failure to surface its message, got %v", err)
	}
}
