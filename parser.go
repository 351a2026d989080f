// parser.go — recursive-descent parser for Wrench.
//
// Expressions are parsed by precedence climbing over the binding-power table
// below; statements and declarations by plain descent. The parser performs
// three desugarings so later phases see a smaller language:
//
//   - a > b   →  b < a
//   - a >= b  →  b <= a
//   - a and b / a or b  →  Logical, a dedicated node the evaluator
//     short-circuits
//
// Binding powers (higher binds tighter):
//
//	or 10 · and 20 · ! prefix (operand at 30) · == < <= 30 · + - 40
//	· * / % 50 · ** 60 (right-assoc) · postfix [i] .id pipe, call: tightest
//
// `async_import` is only legal at the head of a pipe chain; any other use is
// a parse error.
package wrench

// Parse lexes and parses a complete Wrench source string.
func Parse(src string) (*Program, error) {
	lex := NewLexer(src)
	toks, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.program()
}

type parser struct {
	toks []Token
	i    int
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekType() TokenType { return p.peek().Type }

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	g := p.peek()
	return Token{}, &ParseError{
		Line:     g.Line,
		Col:      g.Col,
		Expected: t.String(),
		Got:      g.Type.String(),
	}
}

func (p *parser) errAt(tok Token, msg string) error {
	return &ParseError{Line: tok.Line, Col: tok.Col, Msg: msg}
}

// ───────────────────────── binding powers ──────────────────────────────

func lbp(t TokenType) (int, bool) {
	switch t {
	case OR:
		return 10, true
	case AND:
		return 20, true
	case EQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		return 30, true
	case PLUS, MINUS:
		return 40, true
	case STAR, SLASH, PERCENT:
		return 50, true
	case POW:
		return 60, true
	}
	return 0, false
}

// bpNotOperand is the binding power of the operand of prefix '!': it captures
// comparisons and everything tighter, but stops before 'and'.
const bpNotOperand = 30

// ───────────────────────── program / statements ────────────────────────

func (p *parser) program() (*Program, error) {
	prog := &Program{}
	for !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, s)
	}
	return prog, nil
}

func (p *parser) statement() (Stmt, error) {
	switch p.peekType() {
	case VAR, CONST:
		return p.varDecl()
	case FN:
		return p.funcDecl()
	case RETURN:
		return p.returnStmt()
	case IF:
		return p.ifStmt()
	case WHILE:
		return p.whileStmt()
	case FOR:
		return p.forStmt()
	case ID:
		// `id = expr ;` is an assignment; anything else falls through to an
		// expression statement.
		if p.i+1 < len(p.toks) && p.toks[p.i+1].Type == ASSIGN {
			return p.assignStmt()
		}
	}
	return p.exprStmt()
}

func (p *parser) exprStmt() (Stmt, error) {
	start := p.peek()
	e, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(SEMICOLON); err != nil {
		return nil, err
	}
	return &ExprStmt{stmtBase: stmtBase{pos: tokenPos(start)}, X: e}, nil
}

func (p *parser) assignStmt() (Stmt, error) {
	name, _ := p.need(ID)
	if _, err := p.need(ASSIGN); err != nil {
		return nil, err
	}
	v, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(SEMICOLON); err != nil {
		return nil, err
	}
	return &Assign{stmtBase: stmtBase{pos: tokenPos(name)}, Name: name.Lexeme, Value: v}, nil
}

func (p *parser) varDecl() (Stmt, error) {
	kw := p.peek()
	isConst := kw.Type == CONST
	p.i++
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.need(ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(ASSIGN); err != nil {
		return nil, err
	}
	v, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(SEMICOLON); err != nil {
		return nil, err
	}
	return &VarDecl{
		stmtBase: stmtBase{pos: tokenPos(kw)},
		DeclType: typ,
		Name:     name.Lexeme,
		Value:    v,
		Const:    isConst,
	}, nil
}

func (p *parser) funcDecl() (Stmt, error) {
	kw := p.peek()
	p.i++
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.need(ID)
	if err != nil {
		return nil, err
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(SEMICOLON); err != nil {
		return nil, err
	}
	return &FuncDecl{
		stmtBase: stmtBase{pos: tokenPos(kw)},
		Ret:      ret,
		Name:     name.Lexeme,
		Params:   params,
		Body:     body,
	}, nil
}

func (p *parser) returnStmt() (Stmt, error) {
	kw := p.peek()
	p.i++
	if p.match(SEMICOLON) {
		return &Return{stmtBase: stmtBase{pos: tokenPos(kw)}}, nil
	}
	v, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(SEMICOLON); err != nil {
		return nil, err
	}
	return &Return{stmtBase: stmtBase{pos: tokenPos(kw)}, Value: v}, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	kw := p.peek()
	p.i++
	if _, err := p.need(LROUND); err != nil {
		return nil, err
	}
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RROUND); err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	var els *Block
	if p.match(ELSE) {
		if p.peekType() == IF {
			// `else if` chains as an else block holding a single if.
			nested, err := p.ifStmt()
			if err != nil {
				return nil, err
			}
			els = &Block{stmtBase: stmtBase{pos: nested.Pos()}, Stmts: []Stmt{nested}}
		} else {
			els, err = p.block()
			if err != nil {
				return nil, err
			}
		}
	}
	return &If{stmtBase: stmtBase{pos: tokenPos(kw)}, Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	kw := p.peek()
	p.i++
	if _, err := p.need(LROUND); err != nil {
		return nil, err
	}
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RROUND); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &While{stmtBase: stmtBase{pos: tokenPos(kw)}, Cond: cond, Body: body}, nil
}

func (p *parser) forStmt() (Stmt, error) {
	kw := p.peek()
	p.i++
	if _, err := p.need(LROUND); err != nil {
		return nil, err
	}
	param, err := p.param()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(IN); err != nil {
		return nil, err
	}
	src, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RROUND); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &For{stmtBase: stmtBase{pos: tokenPos(kw)}, Param: param, Source: src, Body: body}, nil
}

func (p *parser) block() (*Block, error) {
	open, err := p.need(LCURLY)
	if err != nil {
		return nil, err
	}
	b := &Block{stmtBase: stmtBase{pos: tokenPos(open)}}
	for !p.atEnd() && p.peekType() != RCURLY {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	if _, err := p.need(RCURLY); err != nil {
		return nil, err
	}
	return b, nil
}

// ───────────────────────────── types & params ──────────────────────────

// parseType parses a type annotation: a primitive keyword, `null`,
// `array(T)`, `row(T id, …)`, or `table(T id, …)`.
func (p *parser) parseType() (*Type, error) {
	tok := p.peek()
	switch tok.Type {
	case KWBOOL:
		p.i++
		return TypBool, nil
	case KWINT:
		p.i++
		return TypInt, nil
	case KWDOUBLE:
		p.i++
		return TypDouble, nil
	case KWSTRING:
		p.i++
		return TypString, nil
	case NULL:
		p.i++
		return TypNull, nil
	case ID:
		if tok.Lexeme == "array" {
			p.i++
			if _, err := p.need(LROUND); err != nil {
				return nil, err
			}
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RROUND); err != nil {
				return nil, err
			}
			return ArrayOf(elem), nil
		}
	case ROW:
		p.i++
		cols, err := p.schemaList()
		if err != nil {
			return nil, err
		}
		return RowOf(cols), nil
	case TABLE:
		p.i++
		cols, err := p.schemaList()
		if err != nil {
			return nil, err
		}
		return TableOf(cols), nil
	}
	return nil, p.errAt(tok, "expected a type, got "+tok.Type.String())
}

// schemaList parses `( T id, … )` into a column list.
func (p *parser) schemaList() ([]Column, error) {
	if _, err := p.need(LROUND); err != nil {
		return nil, err
	}
	var cols []Column
	for p.peekType() != RROUND {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.need(ID)
		if err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name.Lexeme, Type: t})
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RROUND); err != nil {
		return nil, err
	}
	return cols, nil
}

func (p *parser) param() (Param, error) {
	start := p.peek()
	t, err := p.parseType()
	if err != nil {
		return Param{}, err
	}
	name, err := p.need(ID)
	if err != nil {
		return Param{}, err
	}
	return Param{Type: t, Name: name.Lexeme, pos: tokenPos(start)}, nil
}

func (p *parser) paramList() ([]Param, error) {
	if _, err := p.need(LROUND); err != nil {
		return nil, err
	}
	var params []Param
	for p.peekType() != RROUND {
		prm, err := p.param()
		if err != nil {
			return nil, err
		}
		params = append(params, prm)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RROUND); err != nil {
		return nil, err
	}
	return params, nil
}

// ───────────────────────────── expressions ─────────────────────────────

func (p *parser) expression(minBP int) (Expr, error) {
	var left Expr
	if p.peekType() == BANG {
		bang := p.peek()
		p.i++
		x, err := p.expression(bpNotOperand)
		if err != nil {
			return nil, err
		}
		left = &Not{exprBase: exprBase{pos: tokenPos(bang)}, X: x}
	} else {
		var err error
		left, err = p.postfix()
		if err != nil {
			return nil, err
		}
	}

	for {
		opTok := p.peek()
		bp, isOp := lbp(opTok.Type)
		if !isOp || bp < minBP {
			return left, nil
		}
		p.i++
		rbp := bp + 1
		if opTok.Type == POW {
			rbp = bp // right-associative
		}
		right, err := p.expression(rbp)
		if err != nil {
			return nil, err
		}
		left = p.combine(opTok, left, right)
	}
}

// combine builds the binary node for opTok, applying the comparison and
// logical desugarings.
func (p *parser) combine(opTok Token, left, right Expr) Expr {
	pos := tokenPos(opTok)
	switch opTok.Type {
	case AND:
		return &Logical{exprBase: exprBase{pos: pos}, Op: "and", L: left, R: right}
	case OR:
		return &Logical{exprBase: exprBase{pos: pos}, Op: "or", L: left, R: right}
	case GREATER:
		return &Binary{exprBase: exprBase{pos: pos}, Op: OpLt, L: right, R: left}
	case GREATER_EQ:
		return &Binary{exprBase: exprBase{pos: pos}, Op: OpLte, L: right, R: left}
	}
	var op Op
	switch opTok.Type {
	case PLUS:
		op = OpAdd
	case MINUS:
		op = OpSub
	case STAR:
		op = OpMul
	case SLASH:
		op = OpDiv
	case PERCENT:
		op = OpMod
	case POW:
		op = OpPow
	case EQ:
		op = OpEq
	case LESS:
		op = OpLt
	case LESS_EQ:
		op = OpLte
	}
	return &Binary{exprBase: exprBase{pos: pos}, Op: op, L: left, R: right}
}

func (p *parser) postfix() (Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		if c, ok := e.(*Call); ok && c.Name == "async_import" && p.peekType() != PIPE {
			return nil, p.errAt(p.peek(), "async_import is only allowed at the head of a pipe chain")
		}
		switch p.peekType() {
		case LSQUARE:
			open := p.peek()
			p.i++
			idx, err := p.expression(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RSQUARE); err != nil {
				return nil, err
			}
			e = &Index{exprBase: exprBase{pos: tokenPos(open)}, X: e, Idx: idx}
		case PERIOD:
			dot := p.peek()
			p.i++
			name, err := p.need(ID)
			if err != nil {
				return nil, err
			}
			e = &Project{exprBase: exprBase{pos: tokenPos(dot)}, X: e, Name: name.Lexeme}
		case PIPE:
			kw := p.peek()
			p.i++
			name, err := p.need(ID)
			if err != nil {
				return nil, err
			}
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			e = &PipeExpr{exprBase: exprBase{pos: tokenPos(kw)}, X: e, Name: name.Lexeme, Args: args}
		default:
			return e, nil
		}
	}
}

func (p *parser) argList() ([]Expr, error) {
	if _, err := p.need(LROUND); err != nil {
		return nil, err
	}
	var args []Expr
	for p.peekType() != RROUND {
		a, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RROUND); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INT_LIT:
		p.i++
		return &IntLit{exprBase: exprBase{pos: tokenPos(tok)}, V: tok.Literal.(int32)}, nil
	case DOUBLE_LIT:
		p.i++
		return &DoubleLit{exprBase: exprBase{pos: tokenPos(tok)}, V: tok.Literal.(float64)}, nil
	case STRING_LIT:
		p.i++
		return &StringLit{exprBase: exprBase{pos: tokenPos(tok)}, V: tok.Literal.(string)}, nil
	case TRUE, FALSE:
		p.i++
		return &BoolLit{exprBase: exprBase{pos: tokenPos(tok)}, V: tok.Literal.(bool)}, nil
	case NULL:
		p.i++
		return &NullLit{exprBase: exprBase{pos: tokenPos(tok)}}, nil
	case ID:
		p.i++
		if p.peekType() == LROUND {
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			return &Call{exprBase: exprBase{pos: tokenPos(tok)}, Name: tok.Lexeme, Args: args}, nil
		}
		return &Ident{exprBase: exprBase{pos: tokenPos(tok)}, Name: tok.Lexeme}, nil
	case LROUND:
		p.i++
		e, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RROUND); err != nil {
			return nil, err
		}
		return e, nil
	case LSQUARE:
		p.i++
		arr := &ArrayLit{exprBase: exprBase{pos: tokenPos(tok)}}
		for p.peekType() != RSQUARE {
			el, err := p.expression(0)
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, el)
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.need(RSQUARE); err != nil {
			return nil, err
		}
		return arr, nil
	case ROW:
		p.i++
		return p.rowLiteral(tok)
	case TABLE:
		p.i++
		cols, err := p.schemaList()
		if err != nil {
			return nil, err
		}
		return &TableLit{exprBase: exprBase{pos: tokenPos(tok)}, Cols: cols}, nil
	}
	return nil, &ParseError{
		Line:     tok.Line,
		Col:      tok.Col,
		Expected: "an expression",
		Got:      tok.Type.String(),
	}
}

// rowLiteral parses `row(T f = e, …)`; the keyword has been consumed.
func (p *parser) rowLiteral(kw Token) (Expr, error) {
	if _, err := p.need(LROUND); err != nil {
		return nil, err
	}
	lit := &RowLit{exprBase: exprBase{pos: tokenPos(kw)}}
	for p.peekType() != RROUND {
		start := p.peek()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.need(ID)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(ASSIGN); err != nil {
			return nil, err
		}
		v, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		lit.Cols = append(lit.Cols, ColumnAssign{Type: t, Name: name.Lexeme, Value: v, pos: tokenPos(start)})
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RROUND); err != nil {
		return nil, err
	}
	return lit, nil
}
