// errors.go: error kinds and caret-snippet rendering
//
// One structured error type per phase, each carrying a 1-based line and a
// 0-based column (rendered 1-based). WrapErrorWithSource recognizes the four
// phase errors and reformats them as a multi-line snippet with up to one line
// of context and a caret under the offending column:
//
//	TYPE ERROR at 3:13: type mismatch: expected int, got string for "x"
//
//	   2 | var int a = 1;
//	   3 | var int x = "hi";
//	     |             ^
//	   4 | print(x);
//
// Other errors pass through unchanged.
package wrench

import (
	"fmt"
	"strings"
)

// LexError reports a malformed input character or literal.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEX ERROR at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// ParseError reports a grammar violation, with the expected and actual token.
type ParseError struct {
	Line     int
	Col      int
	Expected string
	Got      string
	Msg      string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col+1, e.Msg)
	}
	return fmt.Sprintf("PARSE ERROR at %d:%d: expected %s, got %s", e.Line, e.Col+1, e.Expected, e.Got)
}

// TypeError reports a static type rule violation. Checking halts on the
// first one.
type TypeError struct {
	Line int
	Col  int
	Msg  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("TYPE ERROR at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// RuntimeErrorKind discriminates the evaluation-time failures.
type RuntimeErrorKind int

const (
	DivideByZero RuntimeErrorKind = iota
	IndexOutOfRange
	ColumnMissing
	ImportFailed
	SchemaMismatch
	UnreturnedFunction
	NegativeIntExponent
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case DivideByZero:
		return "DivideByZero"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case ColumnMissing:
		return "ColumnMissing"
	case ImportFailed:
		return "ImportFailed"
	case SchemaMismatch:
		return "SchemaMismatch"
	case UnreturnedFunction:
		return "UnreturnedFunction"
	case NegativeIntExponent:
		return "NegativeIntExponent"
	default:
		return "Unknown"
	}
}

// RuntimeError reports an execution-time failure at the call site's position.
type RuntimeError struct {
	Kind RuntimeErrorKind
	Line int
	Col  int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("RUNTIME ERROR at %d:%d: %s: %s", e.Line, e.Col+1, e.Kind, e.Msg)
}

/* ===========================
   Snippet rendering
   =========================== */

// WrapErrorWithSource returns an error whose message is a caret-annotated
// snippet of src. Phase errors are recognized by type; anything else is
// returned unchanged.
func WrapErrorWithSource(err error, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", snippet(src, "LEX ERROR", e.Line, e.Col+1, e.Msg))
	case *ParseError:
		msg := e.Msg
		if msg == "" {
			msg = fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
		}
		return fmt.Errorf("%s", snippet(src, "PARSE ERROR", e.Line, e.Col+1, msg))
	case *TypeError:
		return fmt.Errorf("%s", snippet(src, "TYPE ERROR", e.Line, e.Col+1, e.Msg))
	case *RuntimeError:
		return fmt.Errorf("%s", snippet(src, "RUNTIME ERROR", e.Line, e.Col+1, e.Kind.String()+": "+e.Msg))
	default:
		return err
	}
}

// snippet builds a numbered source excerpt with a caret. Shows at most one
// previous and one next line. Coordinates are 1-based and clamped.
func snippet(src, header string, line, col int, msg string) string {
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
	fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
