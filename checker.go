// checker.go — the Wrench static type checker.
//
// Check walks the AST once, attaching a static type to every expression and
// enforcing the well-formedness rules: nominal primitives, structural
// row/table equivalence, numeric widening (int -> double at arithmetic, call
// and assignment sites), and scope/mutability discipline. The first violation
// halts checking with a *TypeError carrying the offending position.
package wrench

import "fmt"

type binding struct {
	typ     *Type
	mutable bool
}

type checker struct {
	scopes []map[string]binding
	fnRet  []*Type // enclosing function return types, innermost last
}

// Check type-checks a parsed program in place. On success every expression
// node carries its static type.
func Check(prog *Program) error {
	c := &checker{}
	c.pushScope()
	defer c.popScope()
	for _, s := range prog.Stmts {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) pushScope() { c.scopes = append(c.scopes, map[string]binding{}) }
func (c *checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *checker) lookup(name string) (binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// declare binds name in the innermost scope. Redeclaration within the same
// scope is rejected; shadowing an outer scope is fine.
func (c *checker) declare(pos Pos, name string, b binding) error {
	if isIntrinsic(name) {
		return c.errf(pos, "cannot declare %q: the name is reserved for an intrinsic", name)
	}
	top := c.scopes[len(c.scopes)-1]
	if _, exists := top[name]; exists {
		return c.errf(pos, "%q is already declared in this scope", name)
	}
	top[name] = b
	return nil
}

func (c *checker) errf(pos Pos, format string, args ...interface{}) error {
	return &TypeError{Line: pos.Line, Col: pos.Col, Msg: fmt.Sprintf(format, args...)}
}

// ───────────────────────────── statements ─────────────────────────────

func (c *checker) stmt(s Stmt) error {
	switch st := s.(type) {
	case *ExprStmt:
		_, err := c.expr(st.X)
		return err

	case *VarDecl:
		vt, err := c.expr(st.Value)
		if err != nil {
			return err
		}
		if !vt.AssignableTo(st.DeclType) {
			return c.errf(st.Value.Pos(), "type mismatch: expected %s, got %s for %q",
				st.DeclType, vt, st.Name)
		}
		return c.declare(st.Pos(), st.Name, binding{typ: st.DeclType, mutable: !st.Const})

	case *Assign:
		b, ok := c.lookup(st.Name)
		if !ok {
			return c.errf(st.Pos(), "undefined variable %q", st.Name)
		}
		if !b.mutable {
			return c.errf(st.Pos(), "cannot assign to %q: not a var binding", st.Name)
		}
		vt, err := c.expr(st.Value)
		if err != nil {
			return err
		}
		if !vt.AssignableTo(b.typ) {
			return c.errf(st.Value.Pos(), "type mismatch: expected %s, got %s for %q",
				b.typ, vt, st.Name)
		}
		st.Target = b.typ
		return nil

	case *FuncDecl:
		params := make([]*Type, len(st.Params))
		seen := map[string]bool{}
		for i, prm := range st.Params {
			if seen[prm.Name] {
				return c.errf(prm.Pos(), "duplicate parameter %q", prm.Name)
			}
			seen[prm.Name] = true
			params[i] = prm.Type
		}
		// Bind the name before the body so recursion checks.
		if err := c.declare(st.Pos(), st.Name, binding{typ: FuncOf(params, st.Ret)}); err != nil {
			return err
		}
		c.pushScope()
		for _, prm := range st.Params {
			// parameters behave like var bindings
			c.scopes[len(c.scopes)-1][prm.Name] = binding{typ: prm.Type, mutable: true}
		}
		c.fnRet = append(c.fnRet, st.Ret)
		err := c.stmts(st.Body.Stmts)
		c.fnRet = c.fnRet[:len(c.fnRet)-1]
		c.popScope()
		return err

	case *Return:
		if len(c.fnRet) == 0 {
			return c.errf(st.Pos(), "return outside of a function body")
		}
		want := c.fnRet[len(c.fnRet)-1]
		if st.Value == nil {
			if want.Kind != KindNull {
				return c.errf(st.Pos(), "bare return in a function returning %s", want)
			}
			return nil
		}
		got, err := c.expr(st.Value)
		if err != nil {
			return err
		}
		if !got.AssignableTo(want) {
			return c.errf(st.Value.Pos(), "return type mismatch: expected %s, got %s", want, got)
		}
		return nil

	case *If:
		ct, err := c.expr(st.Cond)
		if err != nil {
			return err
		}
		if ct.Kind != KindBool {
			return c.errf(st.Cond.Pos(), "if condition must be bool, got %s", ct)
		}
		if err := c.scopedStmts(st.Then.Stmts); err != nil {
			return err
		}
		if st.Else != nil {
			return c.scopedStmts(st.Else.Stmts)
		}
		return nil

	case *While:
		ct, err := c.expr(st.Cond)
		if err != nil {
			return err
		}
		if ct.Kind != KindBool {
			return c.errf(st.Cond.Pos(), "while condition must be bool, got %s", ct)
		}
		return c.scopedStmts(st.Body.Stmts)

	case *For:
		srcT, err := c.expr(st.Source)
		if err != nil {
			return err
		}
		if srcT.Kind != KindTable {
			return c.errf(st.Source.Pos(), "for source must be a table, got %s", srcT)
		}
		rowT := RowOf(srcT.Cols)
		if !st.Param.Type.Equal(rowT) {
			return c.errf(st.Param.Pos(), "for parameter type %s does not match %s", st.Param.Type, rowT)
		}
		c.pushScope()
		c.scopes[len(c.scopes)-1][st.Param.Name] = binding{typ: rowT, mutable: true}
		err = c.stmts(st.Body.Stmts)
		c.popScope()
		return err

	case *Block:
		return c.scopedStmts(st.Stmts)

	default:
		return c.errf(s.Pos(), "unsupported statement")
	}
}

func (c *checker) stmts(list []Stmt) error {
	for _, s := range list {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) scopedStmts(list []Stmt) error {
	c.pushScope()
	defer c.popScope()
	return c.stmts(list)
}

// ───────────────────────────── expressions ─────────────────────────────

func (c *checker) expr(e Expr) (*Type, error) {
	t, err := c.exprType(e)
	if err != nil {
		return nil, err
	}
	e.setType(t)
	return t, nil
}

func (c *checker) exprType(e Expr) (*Type, error) {
	switch ex := e.(type) {
	case *IntLit:
		return TypInt, nil
	case *DoubleLit:
		return TypDouble, nil
	case *StringLit:
		return TypString, nil
	case *BoolLit:
		return TypBool, nil
	case *NullLit:
		return TypNull, nil

	case *Ident:
		b, ok := c.lookup(ex.Name)
		if !ok {
			return nil, c.errf(ex.Pos(), "undefined identifier %q", ex.Name)
		}
		return b.typ, nil

	case *Not:
		xt, err := c.expr(ex.X)
		if err != nil {
			return nil, err
		}
		if xt.Kind != KindBool {
			return nil, c.errf(ex.X.Pos(), "operand of ! must be bool, got %s", xt)
		}
		return TypBool, nil

	case *Logical:
		lt, err := c.expr(ex.L)
		if err != nil {
			return nil, err
		}
		rt, err := c.expr(ex.R)
		if err != nil {
			return nil, err
		}
		if lt.Kind != KindBool || rt.Kind != KindBool {
			return nil, c.errf(ex.Pos(), "operands of %s must be bool, got %s and %s", ex.Op, lt, rt)
		}
		return TypBool, nil

	case *Binary:
		return c.binary(ex)

	case *ArrayLit:
		if len(ex.Elems) == 0 {
			return nil, c.errf(ex.Pos(), "cannot infer the element type of an empty array literal")
		}
		first, err := c.expr(ex.Elems[0])
		if err != nil {
			return nil, err
		}
		for _, el := range ex.Elems[1:] {
			t, err := c.expr(el)
			if err != nil {
				return nil, err
			}
			if !t.Equal(first) {
				return nil, c.errf(el.Pos(), "array elements must share one type: %s vs %s", first, t)
			}
		}
		return ArrayOf(first), nil

	case *Index:
		xt, err := c.expr(ex.X)
		if err != nil {
			return nil, err
		}
		it, err := c.expr(ex.Idx)
		if err != nil {
			return nil, err
		}
		if xt.Kind != KindArray {
			return nil, c.errf(ex.X.Pos(), "cannot index into %s", xt)
		}
		if it.Kind != KindInt {
			return nil, c.errf(ex.Idx.Pos(), "array index must be int, got %s", it)
		}
		return xt.Elem, nil

	case *Project:
		xt, err := c.expr(ex.X)
		if err != nil {
			return nil, err
		}
		if xt.Kind != KindRow {
			return nil, c.errf(ex.X.Pos(), "cannot project column %q from %s", ex.Name, xt)
		}
		ft, ok := xt.ColumnType(ex.Name)
		if !ok {
			return nil, c.errf(ex.Pos(), "row %s has no column %q", xt, ex.Name)
		}
		return ft, nil

	case *RowLit:
		cols := make([]Column, len(ex.Cols))
		seen := map[string]bool{}
		for i, ca := range ex.Cols {
			if seen[ca.Name] {
				return nil, c.errf(ca.Pos(), "duplicate column %q in row literal", ca.Name)
			}
			seen[ca.Name] = true
			vt, err := c.expr(ca.Value)
			if err != nil {
				return nil, err
			}
			if !vt.AssignableTo(ca.Type) {
				return nil, c.errf(ca.Value.Pos(), "type mismatch: expected %s, got %s for column %q",
					ca.Type, vt, ca.Name)
			}
			cols[i] = Column{Name: ca.Name, Type: ca.Type}
		}
		return RowOf(cols), nil

	case *TableLit:
		seen := map[string]bool{}
		for _, col := range ex.Cols {
			if seen[col.Name] {
				return nil, c.errf(ex.Pos(), "duplicate column %q in table schema", col.Name)
			}
			seen[col.Name] = true
		}
		return TableOf(ex.Cols), nil

	case *Call:
		return c.call(ex.Pos(), ex.Name, ex.Args, nil)

	case *PipeExpr:
		return c.call(ex.Pos(), ex.Name, ex.Args, ex.X)

	default:
		return nil, c.errf(e.Pos(), "unsupported expression")
	}
}

// binary checks the arithmetic and comparison operators with numeric
// widening.
func (c *checker) binary(ex *Binary) (*Type, error) {
	lt, err := c.expr(ex.L)
	if err != nil {
		return nil, err
	}
	rt, err := c.expr(ex.R)
	if err != nil {
		return nil, err
	}

	switch ex.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		if !lt.IsNumeric() || !rt.IsNumeric() {
			return nil, c.errf(ex.Pos(), "operator %s needs numeric operands, got %s and %s", ex.Op, lt, rt)
		}
		if lt.Kind == KindDouble || rt.Kind == KindDouble {
			return TypDouble, nil
		}
		return TypInt, nil

	case OpPow:
		if !lt.IsNumeric() || !rt.IsNumeric() {
			return nil, c.errf(ex.Pos(), "operator ** needs numeric operands, got %s and %s", lt, rt)
		}
		if lit, ok := ex.R.(*IntLit); ok && lit.V < 0 {
			return nil, c.errf(ex.R.Pos(), "negative int exponent")
		}
		if lt.Kind == KindDouble || rt.Kind == KindDouble {
			return TypDouble, nil
		}
		return TypInt, nil

	case OpLt, OpLte:
		if !lt.IsNumeric() || !rt.IsNumeric() {
			return nil, c.errf(ex.Pos(), "comparison needs numeric operands, got %s and %s", lt, rt)
		}
		return TypBool, nil

	case OpEq:
		if lt.IsNumeric() && rt.IsNumeric() {
			return TypBool, nil
		}
		if lt.Equal(rt) && (lt.Kind == KindBool || lt.Kind == KindString || lt.Kind == KindNull) {
			return TypBool, nil
		}
		return nil, c.errf(ex.Pos(), "cannot compare %s and %s with ==", lt, rt)

	default:
		return nil, c.errf(ex.Pos(), "unsupported operator %s", ex.Op)
	}
}

// call checks a function call; piped is the pipe's left operand, prepended as
// the first argument (nil for a plain call). Intrinsics are dispatched by
// name before the environment is consulted.
func (c *checker) call(pos Pos, name string, args []Expr, piped Expr) (*Type, error) {
	argTypes := make([]*Type, 0, len(args)+1)
	argExprs := make([]Expr, 0, len(args)+1)
	if piped != nil {
		t, err := c.expr(piped)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, t)
		argExprs = append(argExprs, piped)
	}
	for _, a := range args {
		t, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, t)
		argExprs = append(argExprs, a)
	}

	if isIntrinsic(name) {
		return c.intrinsicCall(pos, name, argTypes, argExprs)
	}

	b, ok := c.lookup(name)
	if !ok {
		return nil, c.errf(pos, "undefined function %q", name)
	}
	if b.typ.Kind != KindFunc {
		return nil, c.errf(pos, "%q is not a function", name)
	}
	if len(argTypes) != len(b.typ.Params) {
		return nil, c.errf(pos, "%q expects %d arguments, got %d", name, len(b.typ.Params), len(argTypes))
	}
	for i, at := range argTypes {
		if !at.AssignableTo(b.typ.Params[i]) {
			return nil, c.errf(argExprs[i].Pos(), "argument %d of %q: expected %s, got %s",
				i+1, name, b.typ.Params[i], at)
		}
	}
	return b.typ.Ret, nil
}

func (c *checker) intrinsicCall(pos Pos, name string, argTypes []*Type, argExprs []Expr) (*Type, error) {
	switch name {
	case "print":
		if len(argTypes) != 1 {
			return nil, c.errf(pos, "print expects 1 argument, got %d", len(argTypes))
		}
		return TypNull, nil

	case "import", "async_import":
		if len(argTypes) != 2 {
			return nil, c.errf(pos, "%s expects (string path, table schema), got %d arguments", name, len(argTypes))
		}
		if argTypes[0].Kind != KindString {
			return nil, c.errf(argExprs[0].Pos(), "%s path must be string, got %s", name, argTypes[0])
		}
		if argTypes[1].Kind != KindTable {
			return nil, c.errf(argExprs[1].Pos(), "%s schema must be a table, got %s", name, argTypes[1])
		}
		// The schema argument's type is the result type.
		return argTypes[1], nil

	case "table_add_row":
		if len(argTypes) != 2 {
			return nil, c.errf(pos, "table_add_row expects (table, row), got %d arguments", len(argTypes))
		}
		if argTypes[0].Kind != KindTable {
			return nil, c.errf(argExprs[0].Pos(), "table_add_row target must be a table, got %s", argTypes[0])
		}
		if argTypes[1].Kind != KindRow {
			return nil, c.errf(argExprs[1].Pos(), "table_add_row value must be a row, got %s", argTypes[1])
		}
		if !schemaEqual(argTypes[0].Cols, argTypes[1].Cols) {
			return nil, c.errf(argExprs[1].Pos(), "row schema %s does not match table schema %s",
				argTypes[1], argTypes[0])
		}
		return TypNull, nil

	default:
		return nil, c.errf(pos, "unknown intrinsic %q", name)
	}
}
