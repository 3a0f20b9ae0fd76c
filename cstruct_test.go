package brisk

import "testing"

// Natural-alignment layout: a struct with an int then a double places
// the double at offset 8 (aligned up from 4), and the whole struct
// rounds up to a multiple of its widest field's alignment.
func TestCStructLayoutAlignment(t *testing.T) {
	desc := NewCStructDesc("Mixed", 2)
	desc.AddField("a", CInt, nil)
	desc.AddField("b", CDouble, nil)
	desc.Finalize()

	if desc.Fields[0].Offset != 0 {
		t.Fatalf("want field a at offset 0, got %d", desc.Fields[0].Offset)
	}
	if desc.Fields[1].Offset != 8 {
		t.Fatalf("want field b at offset 8, got %d", desc.Fields[1].Offset)
	}
	if desc.Size != 16 {
		t.Fatalf("want struct size 16, got %d", desc.Size)
	}
}

func TestCStructLayoutAllNarrowFields(t *testing.T) {
	desc := NewCStructDesc("Vector2", 2)
	desc.AddField("x", CFloat, nil)
	desc.AddField("y", CFloat, nil)
	desc.Finalize()

	if desc.Size != 8 {
		t.Fatalf("want struct size 8, got %d", desc.Size)
	}
	if desc.Fields[1].Offset != 4 {
		t.Fatalf("want field y at offset 4, got %d", desc.Fields[1].Offset)
	}
}

func TestCStructFieldByName(t *testing.T) {
	desc := NewCStructDesc("Point", 2)
	desc.AddField("x", CInt, nil)
	desc.AddField("y", CInt, nil)
	desc.Finalize()

	f, ok := desc.FieldByName("y")
	if !ok {
		t.Fatalf("expected to find field y")
	}
	if f.Offset != 4 {
		t.Fatalf("want y at offset 4, got %d", f.Offset)
	}
	if _, ok := desc.FieldByName("z"); ok {
		t.Fatalf("did not expect to find field z")
	}
}

// Scalar fields round-trip through the struct's raw buffer via
// get/set field access.
func TestCStructScalarFieldRoundTrip(t *testing.T) {
	mem := NewMemory()
	desc := NewCStructDesc("Point", 2)
	desc.AddField("x", CInt, nil)
	desc.AddField("y", CInt, nil)
	desc.Finalize()

	cs := mem.NewCStruct(desc)
	fx, _ := desc.FieldByName("x")
	fy, _ := desc.FieldByName("y")

	if err := setCStructField(mem, cs, fx, Int(7)); err != nil {
		t.Fatalf("setCStructField error: %v", err)
	}
	if err := setCStructField(mem, cs, fy, Int(-3)); err != nil {
		t.Fatalf("setCStructField error: %v", err)
	}
	wantInt(t, getCStructField(mem, cs, fx), 7)
	wantInt(t, getCStructField(mem, cs, fy), -3)
}

// Struct field access is reachable through dot syntax at the script
// level (an extension of field access beyond plain tables, see
// evalField and execAssign in evaluator.go).
func TestCStructDotSyntaxFieldAccess(t *testing.T) {
	src := `struct_def("Point", "x", "int", "y", "int")
p := struct_new("Point")
p.x = 3
p.y = 4
println(p.x + p.y)`
	out := mustRunCapture(t, src)
	if out != "7\n" {
		t.Fatalf("got %q, want %q", out, "7\n")
	}
}
