package executor

import (
	"strconv"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
)

// exprValue is the value domain of FILTER/HAVING evaluation: an RDF term, a
// number, or a boolean. Numeric literals live in both the term and number
// worlds; coercion happens at the operator.
type exprValue struct {
	term  rdf.Value
	num   float64
	b     bool
	isNum bool
	isB   bool
}

func termValue(v rdf.Value) exprValue {
	ev := exprValue{term: v}
	if lit, ok := v.(rdf.Literal); ok {
		if n, err := strconv.ParseFloat(lit.Text, 64); err == nil {
			ev.num = n
			ev.isNum = true
		}
	}
	return ev
}

func numValue(n float64) exprValue { return exprValue{num: n, isNum: true} }

func boolValue(b bool) exprValue { return exprValue{b: b, isB: true} }

// groupCtx supplies the rows of the current group so aggregate expressions
// can appear in HAVING.
type groupCtx struct {
	rows []Binding
}

// evalBool evaluates an expression and requires a boolean outcome.
func evalBool(expr parser.Expression, row Binding, group *groupCtx) (bool, error) {
	v, err := evalExpr(expr, row, group)
	if err != nil {
		return false, err
	}
	if !v.isB {
		return false, execErrorf(KindTypeMismatch, "filter expression is not boolean")
	}
	return v.b, nil
}

func evalExpr(expr parser.Expression, row Binding, group *groupCtx) (exprValue, error) {
	switch ex := expr.(type) {
	case parser.TermExpr:
		switch t := ex.Term.(type) {
		case parser.Variable:
			v, ok := row[t]
			if !ok {
				return exprValue{}, execErrorf(KindUnboundVariable, "variable ?%s is not bound", t)
			}
			return termValue(v), nil
		case parser.Constant:
			return termValue(t.Value), nil
		default:
			return exprValue{}, execErrorf(KindBadPlan, "unknown term %T in expression", ex.Term)
		}

	case parser.UnaryExpr:
		inner, err := evalExpr(ex.Expr, row, group)
		if err != nil {
			return exprValue{}, err
		}
		if ex.Negate {
			if !inner.isB {
				return exprValue{}, execErrorf(KindTypeMismatch, "operand of ! is not boolean")
			}
			return boolValue(!inner.b), nil
		}
		if !inner.isNum {
			return exprValue{}, execErrorf(KindTypeMismatch, "operand of unary - is not numeric")
		}
		return numValue(-inner.num), nil

	case parser.BinaryExpr:
		return evalBinary(ex, row, group)

	case parser.AggregateExpr:
		if group == nil {
			return exprValue{}, execErrorf(KindBadPlan, "aggregate %s outside GROUP BY evaluation", ex.Fn)
		}
		v, bound, err := computeAggregate(ex, group.rows)
		if err != nil {
			return exprValue{}, err
		}
		if !bound {
			return exprValue{}, execErrorf(KindUnboundVariable, "aggregate %s over empty group", ex.Fn)
		}
		return termValue(v), nil

	default:
		return exprValue{}, execErrorf(KindBadPlan, "unknown expression %T", expr)
	}
}

func evalBinary(ex parser.BinaryExpr, row Binding, group *groupCtx) (exprValue, error) {
	left, err := evalExpr(ex.Left, row, group)
	if err != nil {
		return exprValue{}, err
	}
	right, err := evalExpr(ex.Right, row, group)
	if err != nil {
		return exprValue{}, err
	}

	switch ex.Op {
	case parser.OpAnd, parser.OpOr:
		if !left.isB || !right.isB {
			return exprValue{}, execErrorf(KindTypeMismatch, "operands of %s are not boolean", ex.Op)
		}
		if ex.Op == parser.OpAnd {
			return boolValue(left.b && right.b), nil
		}
		return boolValue(left.b || right.b), nil

	case parser.OpAdd, parser.OpSub, parser.OpMul, parser.OpDiv:
		if !left.isNum || !right.isNum {
			return exprValue{}, execErrorf(KindTypeMismatch, "operands of %s are not numeric", ex.Op)
		}
		switch ex.Op {
		case parser.OpAdd:
			return numValue(left.num + right.num), nil
		case parser.OpSub:
			return numValue(left.num - right.num), nil
		case parser.OpMul:
			return numValue(left.num * right.num), nil
		default:
			if right.num == 0 {
				return exprValue{}, execErrorf(KindDivisionByZero, "division by zero")
			}
			return numValue(left.num / right.num), nil
		}

	case parser.OpEq, parser.OpNeq:
		eq, err := equalValues(left, right)
		if err != nil {
			return exprValue{}, err
		}
		if ex.Op == parser.OpNeq {
			eq = !eq
		}
		return boolValue(eq), nil

	default: // ordering comparisons
		cmp, err := compareValues(left, right, ex.Op)
		if err != nil {
			return exprValue{}, err
		}
		switch ex.Op {
		case parser.OpLt:
			return boolValue(cmp < 0), nil
		case parser.OpGt:
			return boolValue(cmp > 0), nil
		case parser.OpLe:
			return boolValue(cmp <= 0), nil
		default:
			return boolValue(cmp >= 0), nil
		}
	}
}

func equalValues(a, b exprValue) (bool, error) {
	if a.isB || b.isB {
		if a.isB && b.isB {
			return a.b == b.b, nil
		}
		return false, execErrorf(KindTypeMismatch, "cannot compare boolean with non-boolean")
	}
	if a.isNum && b.isNum {
		return a.num == b.num, nil
	}
	if a.term != nil && b.term != nil {
		return rdf.Equal(a.term, b.term), nil
	}
	return false, execErrorf(KindTypeMismatch, "cannot compare values of different kinds")
}

// compareValues orders two values for <, >, <=, >=. Both sides must be
// numeric, or both plain literals (compared by text); anything else is a
// type mismatch.
func compareValues(a, b exprValue, op parser.BinaryOp) (int, error) {
	if a.isNum && b.isNum {
		switch {
		case a.num < b.num:
			return -1, nil
		case a.num > b.num:
			return 1, nil
		default:
			return 0, nil
		}
	}
	la, aok := a.term.(rdf.Literal)
	lb, bok := b.term.(rdf.Literal)
	if aok && bok {
		switch {
		case la.Text < lb.Text:
			return -1, nil
		case la.Text > lb.Text:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, execErrorf(KindTypeMismatch, "operands of %s are not comparable", op)
}
