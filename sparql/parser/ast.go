// Package parser turns query text into an abstract syntax tree. The grammar
// is a SPARQL subset: SELECT/CONSTRUCT/ASK/DESCRIBE forms, basic graph
// patterns, OPTIONAL, UNION, FILTER, property paths, and the solution
// modifiers GROUP BY, HAVING, ORDER BY, LIMIT, OFFSET.
//
// The parser is a recursive-descent pass over a hand-rolled tokenizer. It
// never consults the triple store; the AST it produces is immutable and is
// consumed by the optimizer.
package parser

import (
	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
)

// Form identifies the query form.
type Form int

const (
	FormSelect Form = iota
	FormConstruct
	FormAsk
	FormDescribe
)

func (f Form) String() string {
	switch f {
	case FormSelect:
		return "SELECT"
	case FormConstruct:
		return "CONSTRUCT"
	case FormAsk:
		return "ASK"
	case FormDescribe:
		return "DESCRIBE"
	default:
		return "UNKNOWN"
	}
}

// Variable is a named placeholder (?x). Equality is by name.
type Variable string

// Term is a triple-pattern position: a variable or a constant RDF term.
type Term interface {
	term()
}

func (Variable) term() {}

// Constant wraps a concrete RDF term in pattern position.
type Constant struct {
	Value rdf.Value
}

func (Constant) term() {}

// PathExpr is a property-path expression over predicates.
type PathExpr interface {
	pathExpr()
}

// PathPredicate is a single forward edge over one predicate.
type PathPredicate struct {
	Predicate rdf.IRI
}

// PathInverse reverses the direction of its sub-path (^p).
type PathInverse struct {
	Path PathExpr
}

// PathSequence chains two paths (a/b).
type PathSequence struct {
	Left, Right PathExpr
}

// PathAlternative accepts either path (a|b).
type PathAlternative struct {
	Left, Right PathExpr
}

// PathZeroOrMore is the reflexive-transitive closure (p*).
type PathZeroOrMore struct {
	Path PathExpr
}

// PathOneOrMore is the transitive closure without the reflexive step (p+).
type PathOneOrMore struct {
	Path PathExpr
}

// PathZeroOrOne is an optional single step (p?).
type PathZeroOrOne struct {
	Path PathExpr
}

func (PathPredicate) pathExpr()   {}
func (PathInverse) pathExpr()     {}
func (PathSequence) pathExpr()    {}
func (PathAlternative) pathExpr() {}
func (PathZeroOrMore) pathExpr()  {}
func (PathOneOrMore) pathExpr()   {}
func (PathZeroOrOne) pathExpr()   {}

// GraphPattern is one node of a WHERE-clause pattern tree.
type GraphPattern interface {
	graphPattern()
}

// TriplePattern matches triples against three positions. The predicate may
// itself be a variable.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// PathPattern matches pairs of nodes connected by a property path.
type PathPattern struct {
	Subject Term
	Path    PathExpr
	Object  Term
}

// GroupPattern joins its children (conjunction).
type GroupPattern struct {
	Patterns []GraphPattern
}

// OptionalPattern extends solutions with the inner pattern when it matches,
// leaving its variables unbound when it does not.
type OptionalPattern struct {
	Pattern GraphPattern
}

// UnionPattern takes solutions from either branch.
type UnionPattern struct {
	Left, Right GraphPattern
}

// FilterPattern restricts solutions to those satisfying the expression.
type FilterPattern struct {
	Expr Expression
}

func (TriplePattern) graphPattern()   {}
func (PathPattern) graphPattern()     {}
func (GroupPattern) graphPattern()    {}
func (OptionalPattern) graphPattern() {}
func (UnionPattern) graphPattern()    {}
func (FilterPattern) graphPattern()   {}

// BinaryOp enumerates binary operators in FILTER/HAVING expressions.
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
)

func (op BinaryOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// Expression is a FILTER or HAVING expression tree.
type Expression interface {
	expression()
}

// TermExpr lifts a term (variable or constant) into expression position.
type TermExpr struct {
	Term Term
}

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Op          BinaryOp
	Left, Right Expression
}

// UnaryExpr applies logical not or arithmetic negation.
type UnaryExpr struct {
	Negate bool // true for !, false for unary minus
	Expr   Expression
}

// AggregateExpr is an aggregate call, valid in SELECT and HAVING.
type AggregateExpr struct {
	Fn   AggFn
	Var  Variable // ignored when Star is set
	Star bool     // COUNT(*)
}

func (TermExpr) expression()      {}
func (BinaryExpr) expression()    {}
func (UnaryExpr) expression()     {}
func (AggregateExpr) expression() {}

// AggFn enumerates aggregate functions.
type AggFn int

const (
	AggCount AggFn = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

func (f AggFn) String() string {
	switch f {
	case AggCount:
		return "COUNT"
	case AggSum:
		return "SUM"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	default:
		return "?"
	}
}

// SelectItem is one projection: a plain variable, or an aggregate with an
// alias ((COUNT(?x) AS ?n)).
type SelectItem struct {
	Var   Variable
	Agg   *AggregateExpr
	Alias Variable
}

// OutputVar is the variable this item binds in the result set.
func (si SelectItem) OutputVar() Variable {
	if si.Agg != nil {
		return si.Alias
	}
	return si.Var
}

// OrderKey is one ORDER BY sort key.
type OrderKey struct {
	Var  Variable
	Desc bool
}

// Query is a parsed query. Built once by Parse and never mutated.
type Query struct {
	Form       Form
	Select     []SelectItem
	SelectStar bool
	Where      GraphPattern
	GroupBy    []Variable
	Having     Expression
	OrderBy    []OrderKey
	Limit      *int
	Offset     *int

	// Construct holds the template of a CONSTRUCT query.
	Construct []TriplePattern

	// Describe holds the terms of a DESCRIBE query.
	Describe []Term
}
