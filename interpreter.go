// interpreter.go — the tree-walking evaluator.
//
// The Interpreter executes a checked program against a chain of environment
// frames. Runtime failures travel as a panic carrying a *RuntimeError and are
// recovered at the public entry points; everything else is ordinary control
// flow. A `return` unwinds through the statement walkers via the (Value,
// bool) pair they all thread back to the active call.
//
// Scoping: a fresh frame is pushed for every block, loop body iteration, and
// function call. Function values capture their defining environment by
// reference, so later top-level definitions remain visible to earlier
// functions declared in the same frame.
package wrench

import (
	"fmt"
	"io"
	"math"
	"os"
)

// Interpreter evaluates checked Wrench programs.
type Interpreter struct {
	// Out is the sink the print intrinsic writes to.
	Out io.Writer
}

// NewInterpreter returns an interpreter printing to stdout.
func NewInterpreter() *Interpreter {
	return &Interpreter{Out: os.Stdout}
}

// Run parses, checks and evaluates src. The returned error is one of the
// phase error types (never wrapped), or nil on success.
func (ip *Interpreter) Run(src string) error {
	prog, err := Parse(src)
	if err != nil {
		return err
	}
	if err := Check(prog); err != nil {
		return err
	}
	return ip.RunProgram(prog)
}

// RunProgram evaluates an already-checked program in a fresh global frame.
func (ip *Interpreter) RunProgram(prog *Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if sig, ok := r.(rtSignal); ok {
				err = sig.err
				return
			}
			panic(r)
		}
	}()
	env := NewEnv(nil)
	for _, s := range prog.Stmts {
		ip.execStmt(s, env)
	}
	return nil
}

// Session is a persistent evaluation context for the REPL: the checker scope
// and the environment survive across inputs.
type Session struct {
	ip  *Interpreter
	chk *checker
	env *Env
}

// NewSession creates a REPL session writing to out.
func NewSession(out io.Writer) *Session {
	ip := &Interpreter{Out: out}
	chk := &checker{}
	chk.pushScope()
	return &Session{ip: ip, chk: chk, env: NewEnv(nil)}
}

// Eval checks and runs one source chunk in the persistent context.
func (s *Session) Eval(src string) (err error) {
	prog, err := Parse(src)
	if err != nil {
		return err
	}
	for _, st := range prog.Stmts {
		if err := s.chk.stmt(st); err != nil {
			return err
		}
	}
	defer func() {
		if r := recover(); r != nil {
			if sig, ok := r.(rtSignal); ok {
				err = sig.err
				return
			}
			panic(r)
		}
	}()
	for _, st := range prog.Stmts {
		s.ip.execStmt(st, s.env)
	}
	return nil
}

// ───────────────────────────── failure signal ──────────────────────────

type rtSignal struct {
	err *RuntimeError
}

func (ip *Interpreter) fail(pos Pos, kind RuntimeErrorKind, format string, args ...interface{}) {
	panic(rtSignal{err: &RuntimeError{
		Kind: kind,
		Line: pos.Line,
		Col:  pos.Col,
		Msg:  fmt.Sprintf(format, args...),
	}})
}

// ───────────────────────────── statements ──────────────────────────────

// execStmt runs one statement. The bool reports that a return statement
// fired; the Value is then the function result being carried outward.
func (ip *Interpreter) execStmt(s Stmt, env *Env) (Value, bool) {
	switch st := s.(type) {
	case *ExprStmt:
		ip.eval(st.X, env)
		return Null, false

	case *VarDecl:
		v := ip.eval(st.Value, env)
		env.Define(st.Name, widen(v, st.DeclType), !st.Const)
		return Null, false

	case *Assign:
		v := ip.eval(st.Value, env)
		if err := env.Assign(st.Name, widen(v, st.Target)); err != nil {
			ip.fail(st.Pos(), ColumnMissing, "%v", err)
		}
		return Null, false

	case *FuncDecl:
		env.Define(st.Name, FuncVal(&FuncValue{Decl: st, Env: env}), false)
		return Null, false

	case *Return:
		if st.Value == nil {
			return Null, true
		}
		return ip.eval(st.Value, env), true

	case *If:
		if ip.evalBool(st.Cond, env) {
			return ip.execBlock(st.Then, env)
		}
		if st.Else != nil {
			return ip.execBlock(st.Else, env)
		}
		return Null, false

	case *While:
		for ip.evalBool(st.Cond, env) {
			if v, returned := ip.execBlock(st.Body, env); returned {
				return v, true
			}
		}
		return Null, false

	case *For:
		src := ip.eval(st.Source, env)
		table := src.Data.(*TableValue)
		// Iterate a snapshot: appends during the loop stay invisible.
		for _, row := range table.Rows() {
			frame := NewEnv(env)
			frame.Define(st.Param.Name, RowVal(row), true)
			for _, inner := range st.Body.Stmts {
				if v, returned := ip.execStmt(inner, frame); returned {
					return v, true
				}
			}
		}
		return Null, false

	case *Block:
		return ip.execBlock(st, env)

	default:
		panic(fmt.Sprintf("unreachable statement %T", s))
	}
}

func (ip *Interpreter) execBlock(b *Block, env *Env) (Value, bool) {
	frame := NewEnv(env)
	for _, s := range b.Stmts {
		if v, returned := ip.execStmt(s, frame); returned {
			return v, true
		}
	}
	return Null, false
}

// ───────────────────────────── expressions ─────────────────────────────

func (ip *Interpreter) eval(e Expr, env *Env) Value {
	switch ex := e.(type) {
	case *IntLit:
		return IntVal(ex.V)
	case *DoubleLit:
		return DoubleVal(ex.V)
	case *StringLit:
		return StringVal(ex.V)
	case *BoolLit:
		return BoolVal(ex.V)
	case *NullLit:
		return Null

	case *Ident:
		v, ok := env.Get(ex.Name)
		if !ok {
			ip.fail(ex.Pos(), ColumnMissing, "undefined identifier %q", ex.Name)
		}
		return v

	case *Not:
		return BoolVal(!ip.evalBool(ex.X, env))

	case *Logical:
		left := ip.evalBool(ex.L, env)
		if ex.Op == "and" {
			if !left {
				return BoolVal(false)
			}
		} else {
			if left {
				return BoolVal(true)
			}
		}
		return BoolVal(ip.evalBool(ex.R, env))

	case *Binary:
		l := ip.eval(ex.L, env)
		r := ip.eval(ex.R, env)
		return ip.binaryOp(ex, l, r)

	case *ArrayLit:
		xs := make([]Value, len(ex.Elems))
		for i, el := range ex.Elems {
			xs[i] = ip.eval(el, env)
		}
		return ArrayVal(xs)

	case *RowLit:
		schema := make([]Column, len(ex.Cols))
		fields := make(map[string]Value, len(ex.Cols))
		for i, ca := range ex.Cols {
			v := ip.eval(ca.Value, env)
			schema[i] = Column{Name: ca.Name, Type: ca.Type}
			fields[ca.Name] = widen(v, ca.Type)
		}
		return RowVal(NewRow(schema, fields))

	case *TableLit:
		return TableVal(NewTable(ex.Cols))

	case *Index:
		x := ip.eval(ex.X, env)
		idx := ip.eval(ex.Idx, env)
		xs := x.Data.([]Value)
		i := int(idx.Data.(int32))
		if i < 0 || i >= len(xs) {
			ip.fail(ex.Pos(), IndexOutOfRange, "index %d out of range for array of length %d", i, len(xs))
		}
		return xs[i]

	case *Project:
		x := ip.eval(ex.X, env)
		row := x.Data.(*RowValue)
		v, ok := row.Get(ex.Name)
		if !ok {
			ip.fail(ex.Pos(), ColumnMissing, "row has no column %q", ex.Name)
		}
		return v

	case *Call:
		args := make([]Value, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = ip.eval(a, env)
		}
		return ip.call(ex.Pos(), ex.Name, args, env)

	case *PipeExpr:
		// The piped value evaluates before the remaining arguments.
		args := make([]Value, 0, len(ex.Args)+1)
		args = append(args, ip.eval(ex.X, env))
		for _, a := range ex.Args {
			args = append(args, ip.eval(a, env))
		}
		return ip.call(ex.Pos(), ex.Name, args, env)

	default:
		panic(fmt.Sprintf("unreachable expression %T", e))
	}
}

func (ip *Interpreter) evalBool(e Expr, env *Env) bool {
	return ip.eval(e, env).Data.(bool)
}

// call invokes an intrinsic or a user function with already-evaluated
// arguments.
func (ip *Interpreter) call(pos Pos, name string, args []Value, env *Env) Value {
	if isIntrinsic(name) {
		return ip.callIntrinsic(pos, name, args)
	}
	fv, ok := env.Get(name)
	if !ok || fv.Tag != VTFunc {
		ip.fail(pos, ColumnMissing, "%q is not callable", name)
	}
	return ip.apply(pos, fv.Data.(*FuncValue), args)
}

// apply binds args into a fresh frame under the closure environment, runs the
// body, and enforces the return contract.
func (ip *Interpreter) apply(pos Pos, fn *FuncValue, args []Value) Value {
	frame := NewEnv(fn.Env)
	for i, prm := range fn.Decl.Params {
		frame.Define(prm.Name, widen(args[i], prm.Type), true)
	}
	for _, s := range fn.Decl.Body.Stmts {
		if v, returned := ip.execStmt(s, frame); returned {
			return widen(v, fn.Decl.Ret)
		}
	}
	if fn.Decl.Ret.Kind != KindNull {
		ip.fail(pos, UnreturnedFunction, "function %q finished without returning a %s",
			fn.Decl.Name, fn.Decl.Ret)
	}
	return Null
}

// widen promotes an int value into a double slot; all other cases pass
// through unchanged.
func widen(v Value, dst *Type) Value {
	if dst != nil && dst.Kind == KindDouble && v.Tag == VTInt {
		return DoubleVal(float64(v.Data.(int32)))
	}
	return v
}

// ───────────────────────────── operators ───────────────────────────────

func (ip *Interpreter) binaryOp(ex *Binary, l, r Value) Value {
	switch ex.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
		return ip.arith(ex, l, r)
	case OpLt:
		if bothInt(l, r) {
			return BoolVal(l.Data.(int32) < r.Data.(int32))
		}
		return BoolVal(toDouble(l) < toDouble(r))
	case OpLte:
		if bothInt(l, r) {
			return BoolVal(l.Data.(int32) <= r.Data.(int32))
		}
		return BoolVal(toDouble(l) <= toDouble(r))
	case OpEq:
		return BoolVal(valueEq(l, r))
	default:
		panic(fmt.Sprintf("unreachable operator %s", ex.Op))
	}
}

func bothInt(l, r Value) bool { return l.Tag == VTInt && r.Tag == VTInt }

func toDouble(v Value) float64 {
	if v.Tag == VTInt {
		return float64(v.Data.(int32))
	}
	return v.Data.(float64)
}

func valueEq(l, r Value) bool {
	if l.Tag == VTInt && r.Tag == VTInt {
		return l.Data.(int32) == r.Data.(int32)
	}
	if (l.Tag == VTInt || l.Tag == VTDouble) && (r.Tag == VTInt || r.Tag == VTDouble) {
		return toDouble(l) == toDouble(r)
	}
	if l.Tag != r.Tag {
		return false
	}
	switch l.Tag {
	case VTBool:
		return l.Data.(bool) == r.Data.(bool)
	case VTString:
		return l.Data.(string) == r.Data.(string)
	case VTNull:
		return true
	default:
		return false
	}
}

func (ip *Interpreter) arith(ex *Binary, l, r Value) Value {
	if bothInt(l, r) {
		a, b := l.Data.(int32), r.Data.(int32)
		switch ex.Op {
		case OpAdd:
			return IntVal(a + b)
		case OpSub:
			return IntVal(a - b)
		case OpMul:
			return IntVal(a * b)
		case OpDiv:
			if b == 0 {
				ip.fail(ex.Pos(), DivideByZero, "integer division by zero")
			}
			return IntVal(a / b)
		case OpMod:
			if b == 0 {
				ip.fail(ex.Pos(), DivideByZero, "integer modulo by zero")
			}
			return IntVal(a % b)
		case OpPow:
			if b < 0 {
				ip.fail(ex.R.Pos(), NegativeIntExponent, "%d ** %d", a, b)
			}
			return IntVal(ipowInt32(a, b))
		}
	}
	a, b := toDouble(l), toDouble(r)
	switch ex.Op {
	case OpAdd:
		return DoubleVal(a + b)
	case OpSub:
		return DoubleVal(a - b)
	case OpMul:
		return DoubleVal(a * b)
	case OpDiv:
		// IEEE semantics: 1.0/0.0 is +Inf, 0.0/0.0 is NaN.
		return DoubleVal(a / b)
	case OpMod:
		return DoubleVal(math.Mod(a, b))
	case OpPow:
		return DoubleVal(math.Pow(a, b))
	}
	panic(fmt.Sprintf("unreachable arithmetic %s", ex.Op))
}

// ipowInt32 is exponentiation by squaring over int32 (wrapping, like the
// other int operators).
func ipowInt32(base, exp int32) int32 {
	var result int32 = 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}
