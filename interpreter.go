// interpreter.go: the public surface. Host programs run Brisk code
// through an *Interpreter; the CLI also calls the exported ToString to
// print REPL results, and the lexer, parser and Memory types are
// exported as well.
package brisk

import (
	"io"
	"os"
)

// deferFrame is one pending deferred statement: the statement itself
// plus the environment active when `defer` registered it (held by a
// strong reference so later scope pops cannot free it out from under
// the eventual unwind).
type deferFrame struct {
	Stmt Node
	Env  *Environment
}

// Interpreter is the single mutable evaluator context described in
// §4.3.1/§5: one heap, one global scope, one call stack, one defer
// stack. Creating a second Interpreter gives a fully independent
// program — nothing here is a package-level global.
type Interpreter struct {
	Mem     *Memory
	Global  *Environment
	current *Environment

	returning  bool
	breaking   bool
	continuing bool
	hadError   bool

	returnValue Value
	lastValue   Value

	deferStack []deferFrame

	defaultLib *dynLib
	libs       map[string]*dynLib

	cstructDescs map[string]*CStructDesc
	modules      map[string]bool

	Out io.Writer
}

func NewInterpreter() *Interpreter {
	mem := NewMemory()
	global := NewEnv(mem, nil)
	ip := &Interpreter{
		Mem:          mem,
		Global:       global,
		current:      global,
		libs:         make(map[string]*dynLib),
		cstructDescs: make(map[string]*CStructDesc),
		modules:      make(map[string]bool),
		Out:          os.Stdout,
	}
	registerBuiltins(ip)
	return ip
}

// RunSource parses and runs src as a complete program. srcName labels
// any error snippet (empty for REPL input, a path for file execution).
func (ip *Interpreter) RunSource(src, srcName string) error {
	p, err := NewParser(src)
	if err != nil {
		return WrapErrorWithName(err, srcName, src)
	}
	program, err := p.ParseProgram()
	if err != nil {
		return WrapErrorWithName(err, srcName, src)
	}
	if err := ip.Run(program); err != nil {
		return WrapErrorWithName(err, srcName, src)
	}
	return nil
}

// EvalExpression is the REPL's entry point: parse src as a single
// expression-or-statement program and return the value of its last
// expression statement (ip.lastValue), for auto-printing.
func (ip *Interpreter) EvalExpression(src string) (Value, error) {
	p, err := NewParser(src)
	if err != nil {
		return Value{}, WrapErrorWithName(err, "", src)
	}
	program, err := p.ParseProgram()
	if err != nil {
		return Value{}, WrapErrorWithName(err, "", src)
	}
	ip.lastValue = Null()
	if err := ip.Run(program); err != nil {
		return Value{}, WrapErrorWithName(err, "", src)
	}
	return ip.lastValue, nil
}

func (ip *Interpreter) RunFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return wrapIOError(path, err)
	}
	return ip.RunSource(string(data), path)
}

// Run executes an already-parsed program's top-level statements
// against the global scope, in order, stopping at the first error.
func (ip *Interpreter) Run(program *Program) error {
	ip.hadError = false
	for _, stmt := range program.Stmts {
		if err := ip.execStmt(stmt); err != nil {
			ip.hadError = true
			return err
		}
	}
	return nil
}

// ClearError resets the error latch; the REPL calls this between
// inputs per §7's recovery contract (scripts never call it — a script
// that errors exits).
func (ip *Interpreter) ClearError() {
	ip.hadError = false
	ip.returning, ip.breaking, ip.continuing = false, false, false
}

func wrapIOError(path string, err error) error {
	return NewRuntimeError(0, 0, ErrIO, "cannot read %s: %s", path, err.Error())
}
