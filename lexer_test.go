// lexer_test.go
package wrench

import (
	"reflect"
	"testing"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src)
	ts, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	return ts
}

func typesWithoutEOF(tokens []Token) []TokenType {
	if len(tokens) == 0 {
		return nil
	}
	end := len(tokens)
	if tokens[end-1].Type == EOF {
		end--
	}
	out := make([]TokenType, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, tokens[i].Type)
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got := toks(t, src)
	gotTypes := typesWithoutEOF(got)
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("\nsource:\n%s\nwant types:\n%v\ngot types:\n%v\n", src, want, gotTypes)
	}
	return got
}

func Test_Lexer_ArithmeticStatement(t *testing.T) {
	wantTypes(t, "3 + 5 * 2;", []TokenType{
		INT_LIT, PLUS, INT_LIT, STAR, INT_LIT, SEMICOLON,
	})
}

func Test_Lexer_PowVersusStar(t *testing.T) {
	got := wantTypes(t, "2 ** 3 * 4;", []TokenType{
		INT_LIT, POW, INT_LIT, STAR, INT_LIT, SEMICOLON,
	})
	if got[1].Lexeme != "**" {
		t.Fatalf("want lexeme **, got %q", got[1].Lexeme)
	}
}

func Test_Lexer_Keywords(t *testing.T) {
	wantTypes(t, "var const fn return if else for in while pipe row table bool int double string and or true false null",
		[]TokenType{
			VAR, CONST, FN, RETURN, IF, ELSE, FOR, IN, WHILE, PIPE, ROW, TABLE,
			KWBOOL, KWINT, KWDOUBLE, KWSTRING, AND, OR, TRUE, FALSE, NULL,
		})
}

func Test_Lexer_IdentifiersAreNotKeywords(t *testing.T) {
	got := wantTypes(t, "variable int_count pipeline", []TokenType{ID, ID, ID})
	if got[0].Lexeme != "variable" || got[1].Lexeme != "int_count" || got[2].Lexeme != "pipeline" {
		t.Fatalf("unexpected lexemes: %v", got)
	}
}

func Test_Lexer_Comparisons(t *testing.T) {
	wantTypes(t, "a == b < c > d <= e >= f", []TokenType{
		ID, EQ, ID, LESS, ID, GREATER, ID, LESS_EQ, ID, GREATER_EQ, ID,
	})
}

func Test_Lexer_IntVersusDouble(t *testing.T) {
	got := wantTypes(t, "42 3.14 1e-6 2.5e3 7;", []TokenType{
		INT_LIT, DOUBLE_LIT, DOUBLE_LIT, DOUBLE_LIT, INT_LIT, SEMICOLON,
	})
	if got[0].Literal.(int32) != 42 {
		t.Fatalf("want 42, got %v", got[0].Literal)
	}
	if got[1].Literal.(float64) != 3.14 {
		t.Fatalf("want 3.14, got %v", got[1].Literal)
	}
	if got[2].Literal.(float64) != 1e-6 {
		t.Fatalf("want 1e-6, got %v", got[2].Literal)
	}
}

func Test_Lexer_IntegerRange(t *testing.T) {
	_, err := NewLexer("2147483648;").Scan()
	if err == nil {
		t.Fatalf("want range error for 2147483648")
	}
	if _, ok := err.(*LexError); !ok {
		t.Fatalf("want *LexError, got %T", err)
	}
	got := toks(t, "2147483647;")
	if got[0].Literal.(int32) != 2147483647 {
		t.Fatalf("want max int32, got %v", got[0].Literal)
	}
}

func Test_Lexer_DotAfterIntIsProjectionNotDouble(t *testing.T) {
	// `xs[0].name` must not read `0.` as a double prefix.
	wantTypes(t, "xs[0].name", []TokenType{ID, LSQUARE, INT_LIT, RSQUARE, PERIOD, ID})
}

func Test_Lexer_StringEscapes(t *testing.T) {
	got := wantTypes(t, `"a\tb\n\"q\"";`, []TokenType{STRING_LIT, SEMICOLON})
	if got[0].Literal.(string) != "a\tb\n\"q\"" {
		t.Fatalf("unexpected literal %q", got[0].Literal)
	}
}

func Test_Lexer_UnterminatedString(t *testing.T) {
	_, err := NewLexer("\"abc\n\";").Scan()
	if err == nil {
		t.Fatalf("want error for unterminated string")
	}
}

func Test_Lexer_CommentsAndWhitespaceIgnored(t *testing.T) {
	wantTypes(t, "3;      //Comment ag \n2;", []TokenType{
		INT_LIT, SEMICOLON, INT_LIT, SEMICOLON,
	})
}

func Test_Lexer_Positions(t *testing.T) {
	got := toks(t, "var int x = 1;\nx = 2;")
	// `x` on line 2 starts at column 0.
	var assignTok *Token
	for i := range got {
		if got[i].Type == ID && got[i].Line == 2 {
			assignTok = &got[i]
			break
		}
	}
	if assignTok == nil || assignTok.Col != 0 {
		t.Fatalf("want x at 2:0, got %+v", assignTok)
	}
}

func Test_Lexer_UnexpectedCharacter(t *testing.T) {
	_, err := NewLexer("var int x = 1 @ 2;").Scan()
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("want *LexError, got %v", err)
	}
	if le.Line != 1 {
		t.Fatalf("want line 1, got %d", le.Line)
	}
}
