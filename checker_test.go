package wrench

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func check(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src)
	be.Err(t, err, nil)
	err = Check(prog)
	be.Err(t, err, nil)
	return prog
}

// typeError checks that src fails with a *TypeError mentioning fragment.
func typeError(t *testing.T, src, fragment string) *TypeError {
	t.Helper()
	prog, err := Parse(src)
	be.Err(t, err, nil)
	err = Check(prog)
	if err == nil {
		t.Fatalf("typecheck passed for %q", src)
	}
	te, ok := err.(*TypeError)
	if !ok {
		t.Fatalf("want *TypeError, got %T: %v", err, err)
	}
	if !strings.Contains(te.Msg, fragment) {
		t.Fatalf("want error containing %q, got %q", fragment, te.Msg)
	}
	return te
}

func Test_Checker_LiteralTypes(t *testing.T) {
	prog := check(t, "1; 1.5; \"s\"; true; null;")
	be.Equal(t, TypInt, prog.Stmts[0].(*ExprStmt).X.Type())
	be.Equal(t, TypDouble, prog.Stmts[1].(*ExprStmt).X.Type())
	be.Equal(t, TypString, prog.Stmts[2].(*ExprStmt).X.Type())
	be.Equal(t, TypBool, prog.Stmts[3].(*ExprStmt).X.Type())
	be.Equal(t, TypNull, prog.Stmts[4].(*ExprStmt).X.Type())
}

func Test_Checker_ArithmeticWidening(t *testing.T) {
	prog := check(t, "1 + 1.0; 1 / 2; 1.0 / 2; 2 ** 3; 2.0 ** 3;")
	be.Equal(t, TypDouble, prog.Stmts[0].(*ExprStmt).X.Type())
	be.Equal(t, TypInt, prog.Stmts[1].(*ExprStmt).X.Type())
	be.Equal(t, TypDouble, prog.Stmts[2].(*ExprStmt).X.Type())
	be.Equal(t, TypInt, prog.Stmts[3].(*ExprStmt).X.Type())
	be.Equal(t, TypDouble, prog.Stmts[4].(*ExprStmt).X.Type())
}

func Test_Checker_ArithmeticRejectsNonNumerics(t *testing.T) {
	typeError(t, `"a" + "b";`, "numeric")
	typeError(t, "true * 2;", "numeric")
	typeError(t, "null - 1;", "numeric")
}

func Test_Checker_ComparisonRules(t *testing.T) {
	prog := check(t, "1 < 2; 1 <= 2.0; 2 > 1; 1 == 1.0; true == false; \"a\" == \"b\"; null == null;")
	for i, s := range prog.Stmts {
		be.Equal(t, TypBool, s.(*ExprStmt).X.Type())
		_ = i
	}
	typeError(t, `"a" < "b";`, "numeric")
	typeError(t, "true == 1;", "==")
	typeError(t, `1 == "1";`, "==")
}

func Test_Checker_LogicalOperators(t *testing.T) {
	check(t, "true and false; true or false; !true;")
	typeError(t, "1 and true;", "bool")
	typeError(t, "!0;", "bool")
}

func Test_Checker_VarDeclTypeMismatch(t *testing.T) {
	te := typeError(t, `var int x = "hi";`, "type mismatch")
	be.Equal(t, 1, te.Line)
	// the error points at the offending value
	be.True(t, te.Col >= 12)
}

func Test_Checker_VarDeclWidening(t *testing.T) {
	check(t, "var double x = 1;")
	typeError(t, "var int x = 1.0;", "type mismatch")
}

func Test_Checker_AssignmentRules(t *testing.T) {
	check(t, "var int x = 1; x = 2;")
	typeError(t, "x = 2;", "undefined")
	typeError(t, "const int x = 1; x = 2;", "not a var")
	typeError(t, `var int x = 1; x = "s";`, "type mismatch")
	typeError(t, "fn int f() { return 1; }; f = 2;", "not a var")
}

func Test_Checker_ShadowingRules(t *testing.T) {
	// same scope: rejected
	typeError(t, "var int x = 1; var int x = 2;", "already declared")
	// inner scope: allowed
	check(t, "var int x = 1; if (true) { var string x = \"s\"; print(x); }")
}

func Test_Checker_UndefinedIdentifier(t *testing.T) {
	typeError(t, "print(y);", "undefined")
}

func Test_Checker_ArrayRules(t *testing.T) {
	prog := check(t, "[1, 2, 3];")
	be.True(t, prog.Stmts[0].(*ExprStmt).X.Type().Equal(ArrayOf(TypInt)))
	typeError(t, "[1, \"a\"];", "share one type")
	typeError(t, "[];", "empty array")
}

func Test_Checker_IndexingRules(t *testing.T) {
	prog := check(t, "var array(int) xs = [1, 2]; xs[0];")
	be.Equal(t, TypInt, prog.Stmts[1].(*ExprStmt).X.Type())
	typeError(t, "var array(int) xs = [1]; xs[1.0];", "index must be int")
	typeError(t, "var int x = 1; x[0];", "cannot index")
}

func Test_Checker_RowLiteralAndProjection(t *testing.T) {
	prog := check(t, `var row(int a, string b) r = row(int a = 1, string b = "z"); r.a; r.b;`)
	be.Equal(t, TypInt, prog.Stmts[1].(*ExprStmt).X.Type())
	be.Equal(t, TypString, prog.Stmts[2].(*ExprStmt).X.Type())
	typeError(t, "var row(int a) r = row(int a = 1); r.missing;", "no column")
	typeError(t, `row(int a = "s");`, "type mismatch")
	typeError(t, "row(int a = 1, int a = 2);", "duplicate column")
}

func Test_Checker_RowStructuralAssignment(t *testing.T) {
	// declared column order differs from the literal's order
	check(t, "var row(int a, int b) x = row(int b = 2, int a = 1);")
	// and from a function's parameter type
	check(t, `
fn null takes(row(int b, int a) r) { print(r.a); };
var row(int a, int b) x = row(int a = 1, int b = 2);
takes(x);
`)
}

func Test_Checker_TableRules(t *testing.T) {
	prog := check(t, "table(int id, string name);")
	be.True(t, prog.Stmts[0].(*ExprStmt).X.Type().Equal(
		TableOf([]Column{{Name: "name", Type: TypString}, {Name: "id", Type: TypInt}})))
	typeError(t, "table(int a, string a);", "duplicate column")
}

func Test_Checker_ForLoopRules(t *testing.T) {
	check(t, `
var table(int n) t = table(int n);
for (row(int n) r in t) { print(r.n); }
`)
	typeError(t, "for (row(int n) r in 5) { }", "must be a table")
	typeError(t, `
var table(int n) t = table(int n);
for (row(double n) r in t) { }
`, "does not match")
}

func Test_Checker_FunctionRules(t *testing.T) {
	check(t, "fn int add(int a, int b) { return a + b; }; print(add(2, 3));")
	// widening at the call site
	check(t, "fn double half(double x) { return x / 2.0; }; half(4);")
	typeError(t, "fn int f(int a) { return a; }; f();", "expects 1 arguments")
	typeError(t, `fn int f(int a) { return a; }; f("s");`, "expected int")
	typeError(t, "fn int f() { return 1.5; }; ", "return type mismatch")
	typeError(t, "fn int f() { return 1; }; var int x = 1; x(2);", "not a function")
	typeError(t, "g(1);", "undefined function")
	typeError(t, "return 1;", "outside of a function")
	typeError(t, "fn int f(int a, int a) { return a; };", "duplicate parameter")
}

func Test_Checker_RecursionChecks(t *testing.T) {
	check(t, `
fn int fac(int n) {
  if (n < 2) { return 1; }
  return n * fac(n - 1);
};
print(fac(5));
`)
}

func Test_Checker_BareReturnOnlyInNullFunctions(t *testing.T) {
	check(t, "fn null f() { return; };")
	typeError(t, "fn int f() { return; };", "bare return")
}

func Test_Checker_PipeRewrites(t *testing.T) {
	prog := check(t, `
fn int total(table(int n) t) { return 0; };
var table(int n) data = table(int n);
data pipe total();
`)
	be.Equal(t, TypInt, prog.Stmts[2].(*ExprStmt).X.Type())

	// the piped value becomes the first argument
	typeError(t, `
fn int total(table(int n) t) { return 0; };
5 pipe total();
`, "expected table(int n)")

	// remaining arguments shift right
	check(t, `
fn int nth(table(int n) t, int i) { return i; };
var table(int n) data = table(int n);
data pipe nth(3);
`)
}

func Test_Checker_IntrinsicSignatures(t *testing.T) {
	check(t, `print(1); print("x"); print(table(int a));`)
	typeError(t, "print();", "1 argument")
	typeError(t, "print(1, 2);", "1 argument")

	check(t, `import("f.csv", table(int a));`)
	typeError(t, `import(5, table(int a));`, "path must be string")
	typeError(t, `import("f.csv", 5);`, "schema must be a table")

	check(t, `
var table(int a) t = table(int a);
table_add_row(t, row(int a = 1));
`)
	typeError(t, `
var table(int a) t = table(int a);
table_add_row(t, row(double a = 1.0));
`, "does not match")
	typeError(t, "table_add_row(1, 2);", "must be a table")
}

func Test_Checker_ImportResultTypeComesFromSchema(t *testing.T) {
	prog := check(t, `var table(int a, double b) t = import("f.csv", table(int a, double b));`)
	vd := prog.Stmts[0].(*VarDecl)
	be.True(t, vd.Value.Type().Equal(TableOf([]Column{
		{Name: "a", Type: TypInt}, {Name: "b", Type: TypDouble},
	})))
}

func Test_Checker_IntrinsicNamesAreReserved(t *testing.T) {
	typeError(t, "var int print = 1;", "reserved")
	typeError(t, "fn int import() { return 1; };", "reserved")
}

func Test_Checker_NegativeIntExponentLiteral(t *testing.T) {
	// `0 - 1` is not a literal, so this passes the checker (and fails at run
	// time); there is no unary minus, so a syntactically negative literal
	// cannot occur.
	check(t, "2 ** (0 - 1);")
}

func Test_Checker_FirstErrorWins(t *testing.T) {
	te := typeError(t, "var int a = true; var int b = \"x\";", "type mismatch")
	be.Equal(t, 1, te.Line)
	be.True(t, te.Col < 17)
}
