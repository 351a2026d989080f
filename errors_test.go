package wrench

import (
	"strings"
	"testing"
)

func Test_Errors_Messages(t *testing.T) {
	le := &LexError{Line: 2, Col: 4, Msg: "unexpected character: '@'"}
	if got := le.Error(); !strings.Contains(got, "2:5") || !strings.HasPrefix(got, "LEX ERROR") {
		t.Fatalf("got %q", got)
	}
	pe := &ParseError{Line: 1, Col: 0, Expected: "';'", Got: "end of input"}
	if got := pe.Error(); !strings.Contains(got, "expected ';'") {
		t.Fatalf("got %q", got)
	}
	rte := &RuntimeError{Kind: DivideByZero, Line: 3, Col: 7, Msg: "integer division by zero"}
	if got := rte.Error(); !strings.Contains(got, "DivideByZero") {
		t.Fatalf("got %q", got)
	}
}

func Test_Errors_SnippetPointsAtTheColumn(t *testing.T) {
	src := "var int a = 1;\nvar int x = \"hi\";\nprint(x);"
	_, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog, _ := Parse(src)
	cerr := Check(prog)
	if cerr == nil {
		t.Fatalf("want type error")
	}
	wrapped := WrapErrorWithSource(cerr, src)
	text := wrapped.Error()

	if !strings.Contains(text, "TYPE ERROR at 2:13") {
		t.Fatalf("missing header:\n%s", text)
	}
	// context lines and the caret line
	for _, want := range []string{
		"   1 | var int a = 1;",
		"   2 | var int x = \"hi\";",
		"   3 | print(x);",
		"^",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("snippet missing %q:\n%s", want, text)
		}
	}
	// the caret must sit under the opening quote of "hi" (column 13)
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "^") {
			if idx := strings.Index(line, "^"); idx != len("     | ")+12 {
				t.Fatalf("caret at offset %d:\n%s", idx, text)
			}
		}
	}
}

func Test_Errors_SnippetClampsOutOfRangePositions(t *testing.T) {
	err := WrapErrorWithSource(&RuntimeError{Kind: ImportFailed, Line: 99, Col: 99, Msg: "x"}, "one line")
	if err == nil || err.Error() == "" {
		t.Fatalf("snippet rendering must not fail on clamped positions")
	}
}

func Test_Errors_OtherErrorsPassThrough(t *testing.T) {
	base := &LexError{Line: 1, Col: 0, Msg: "m"}
	if WrapErrorWithSource(base, "x") == error(base) {
		t.Fatalf("lex errors should be wrapped")
	}
	other := errString("boring")
	if WrapErrorWithSource(other, "x") != error(other) {
		t.Fatalf("unknown errors must pass through unchanged")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
