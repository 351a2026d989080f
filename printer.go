// printer.go — human-readable rendering.
//
// Three renderers live here: FormatValue (the print intrinsic's output
// format), FormatProgram (surface-syntax pretty-printing of an AST, used by
// the debug dumps and by the parse→print→parse round-trip tests), and
// DumpTokens (the debug token listing).
//
// Value format: int in base 10; double in shortest round-tripping form with
// inf/-inf/nan for the non-finite values; bool as true/false; string
// verbatim; null as null; rows as {f1=v1, ...} in schema order; tables as
// newline-separated row renderings.
package wrench

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatValue renders v the way the print intrinsic shows it.
func FormatValue(v Value) string {
	switch v.Tag {
	case VTNull:
		return "null"
	case VTBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case VTInt:
		return strconv.FormatInt(int64(v.Data.(int32)), 10)
	case VTDouble:
		return formatDouble(v.Data.(float64))
	case VTString:
		return v.Data.(string)
	case VTArray:
		xs := v.Data.([]Value)
		parts := make([]string, len(xs))
		for i, x := range xs {
			parts[i] = FormatValue(x)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case VTRow:
		return formatRow(v.Data.(*RowValue))
	case VTTable:
		t := v.Data.(*TableValue)
		var b strings.Builder
		for i, r := range t.Rows() {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(formatRow(r))
		}
		return b.String()
	case VTFunc:
		return "<fn " + v.Data.(*FuncValue).Decl.Name + ">"
	default:
		return "<unknown>"
	}
}

func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatRow(r *RowValue) string {
	parts := make([]string, len(r.Schema))
	for i, col := range r.Schema {
		parts[i] = col.Name + "=" + FormatValue(r.Fields[col.Name])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ───────────────────────────── AST printing ────────────────────────────

// FormatProgram renders an AST back to parseable surface syntax. Reparsing
// the output yields a structurally equal AST: binary operands are always
// parenthesized, so no precedence information is lost, and the desugared
// forms (`b < a` for `a > b`) print as what they became.
func FormatProgram(p *Program) string {
	var b strings.Builder
	for _, s := range p.Stmts {
		writeStmt(&b, s, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func writeStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch st := s.(type) {
	case *ExprStmt:
		b.WriteString(exprString(st.X))
		b.WriteString(";\n")
	case *VarDecl:
		if st.Const {
			b.WriteString("const ")
		} else {
			b.WriteString("var ")
		}
		b.WriteString(st.DeclType.String())
		b.WriteByte(' ')
		b.WriteString(st.Name)
		b.WriteString(" = ")
		b.WriteString(exprString(st.Value))
		b.WriteString(";\n")
	case *Assign:
		b.WriteString(st.Name)
		b.WriteString(" = ")
		b.WriteString(exprString(st.Value))
		b.WriteString(";\n")
	case *FuncDecl:
		b.WriteString("fn ")
		b.WriteString(st.Ret.String())
		b.WriteByte(' ')
		b.WriteString(st.Name)
		b.WriteByte('(')
		for i, prm := range st.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(prm.Type.String())
			b.WriteByte(' ')
			b.WriteString(prm.Name)
		}
		b.WriteString(") {\n")
		for _, inner := range st.Body.Stmts {
			writeStmt(b, inner, depth+1)
		}
		indent(b, depth)
		b.WriteString("};\n")
	case *Return:
		if st.Value == nil {
			b.WriteString("return;\n")
		} else {
			b.WriteString("return ")
			b.WriteString(exprString(st.Value))
			b.WriteString(";\n")
		}
	case *If:
		b.WriteString("if (")
		b.WriteString(exprString(st.Cond))
		b.WriteString(") {\n")
		for _, inner := range st.Then.Stmts {
			writeStmt(b, inner, depth+1)
		}
		indent(b, depth)
		b.WriteString("}")
		if st.Else != nil {
			b.WriteString(" else {\n")
			for _, inner := range st.Else.Stmts {
				writeStmt(b, inner, depth+1)
			}
			indent(b, depth)
			b.WriteString("}")
		}
		b.WriteString("\n")
	case *While:
		b.WriteString("while (")
		b.WriteString(exprString(st.Cond))
		b.WriteString(") {\n")
		for _, inner := range st.Body.Stmts {
			writeStmt(b, inner, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *For:
		b.WriteString("for (")
		b.WriteString(st.Param.Type.String())
		b.WriteByte(' ')
		b.WriteString(st.Param.Name)
		b.WriteString(" in ")
		b.WriteString(exprString(st.Source))
		b.WriteString(") {\n")
		for _, inner := range st.Body.Stmts {
			writeStmt(b, inner, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *Block:
		for _, inner := range st.Stmts {
			writeStmt(b, inner, depth)
		}
	}
}

func exprString(e Expr) string {
	switch ex := e.(type) {
	case *IntLit:
		return strconv.FormatInt(int64(ex.V), 10)
	case *DoubleLit:
		s := strconv.FormatFloat(ex.V, 'g', -1, 64)
		// keep the literal a double on reparse
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case *StringLit:
		return strconv.Quote(ex.V)
	case *BoolLit:
		if ex.V {
			return "true"
		}
		return "false"
	case *NullLit:
		return "null"
	case *Ident:
		return ex.Name
	case *Not:
		return "!" + parenthesized(ex.X)
	case *Logical:
		return "(" + exprString(ex.L) + " " + ex.Op + " " + exprString(ex.R) + ")"
	case *Binary:
		return "(" + exprString(ex.L) + " " + string(ex.Op) + " " + exprString(ex.R) + ")"
	case *ArrayLit:
		parts := make([]string, len(ex.Elems))
		for i, el := range ex.Elems {
			parts[i] = exprString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *RowLit:
		parts := make([]string, len(ex.Cols))
		for i, ca := range ex.Cols {
			parts[i] = ca.Type.String() + " " + ca.Name + " = " + exprString(ca.Value)
		}
		return "row(" + strings.Join(parts, ", ") + ")"
	case *TableLit:
		return "table(" + formatCols(ex.Cols) + ")"
	case *Call:
		return ex.Name + "(" + argsString(ex.Args) + ")"
	case *Index:
		return parenthesized(ex.X) + "[" + exprString(ex.Idx) + "]"
	case *Project:
		return parenthesized(ex.X) + "." + ex.Name
	case *PipeExpr:
		return parenthesized(ex.X) + " pipe " + ex.Name + "(" + argsString(ex.Args) + ")"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func argsString(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = exprString(a)
	}
	return strings.Join(parts, ", ")
}

// parenthesized wraps operator expressions so they survive a postfix or
// prefix context. Binary and Logical already print their own parentheses;
// atoms print bare.
func parenthesized(e Expr) string {
	switch e.(type) {
	case *Not, *PipeExpr:
		return "(" + exprString(e) + ")"
	}
	return exprString(e)
}

// ───────────────────────────── token dump ──────────────────────────────

// DumpTokens lexes src and renders one token per line, for debug mode.
func DumpTokens(src string) (string, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, t := range toks {
		fmt.Fprintf(&b, "%4d:%-3d %-18s %q\n", t.Line, t.Col+1, t.Type, t.Lexeme)
	}
	return b.String(), nil
}
