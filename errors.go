// errors.go: user-facing error wrapping and caret-snippet rendering.
//
// WrapErrorWithSource turns a *LexError, *ParseError, or *RuntimeError
// into a Python-style snippet with a caret under the offending column:
//
//	RUNTIME ERROR at 3:8: TypeError: expected numbers, got string and int
//
//	   2 | x := "oops"
//	   3 | y := x * 2
//	     |        ^
//	   4 | println(y)
//
// Any other error is returned unchanged.
package brisk

import (
	"fmt"
	"strings"
)

// ErrorKind is the taxonomy from §7: every RuntimeError carries one of
// these so the rendered message names what went wrong, not just where.
type ErrorKind string

const (
	ErrSyntax ErrorKind = "SyntaxError"
	ErrName   ErrorKind = "NameError"
	ErrType   ErrorKind = "TypeError"
	ErrIndex  ErrorKind = "IndexError"
	ErrArity  ErrorKind = "ArityError"
	ErrFFI    ErrorKind = "FFIError"
	ErrIO     ErrorKind = "IOError"
	ErrRuntime ErrorKind = "RuntimeError"
	ErrConst  ErrorKind = "ConstError"
)

// RuntimeError is the single error type the evaluator's runtime_error
// path produces; Kind selects which taxonomy entry the message
// describes.
type RuntimeError struct {
	Line, Col int
	Kind      ErrorKind
	Msg       string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Col, e.Kind, e.Msg)
}

func NewRuntimeError(line, col int, kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: line, Col: col, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapErrorWithSource returns an error augmented with a caret-annotated
// snippet of src. Lex/parse/runtime errors get the treatment; any
// other error passes through unchanged.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

func WrapErrorWithName(err error, srcName, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *RuntimeError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "RUNTIME ERROR", srcName, e.Line, e.Col+1, fmt.Sprintf("%s: %s", e.Kind, e.Msg)))
	default:
		return err
	}
}

func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
