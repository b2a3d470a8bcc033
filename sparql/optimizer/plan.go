// Package optimizer turns a parsed query into an executable plan. Pattern
// ordering is a greedy selectivity heuristic driven by store statistics:
// most selective scan first, left-deep join tree, hash join when the smaller
// input is estimated small enough to build a table from.
package optimizer

import (
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
)

// Plan is one node of an executable operator tree. The operator set is
// closed; the executor switches exhaustively over it.
type Plan interface {
	plan()

	// Vars returns the variables this subtree can bind.
	Vars() []parser.Variable
}

// TripleScan matches a single triple pattern against the store.
type TripleScan struct {
	Pattern parser.TriplePattern

	// Card is the estimated result cardinality used for join ordering.
	Card float64
}

// PropertyPath evaluates a property-path pattern (closure, inverse,
// sequence, alternation) against the store.
type PropertyPath struct {
	Pattern parser.PathPattern
	Card    float64
}

// JoinKind selects the join algorithm.
type JoinKind int

const (
	HashJoin JoinKind = iota
	NestedLoop
)

func (k JoinKind) String() string {
	if k == HashJoin {
		return "hash"
	}
	return "nested-loop"
}

// Join combines two inputs on their shared variables (inner join). With no
// shared variables it degenerates to a cross product.
type Join struct {
	Kind        JoinKind
	Left, Right Plan

	// On lists the shared variables the join keys on.
	On []parser.Variable
}

// Optional is a left outer join: left rows survive even when the right side
// has no match.
type Optional struct {
	Left, Right Plan
}

// Union concatenates solutions from both branches.
type Union struct {
	Left, Right Plan
}

// Filter keeps rows satisfying the expression.
type Filter struct {
	Input Plan
	Expr  parser.Expression
}

// Aggregate groups rows and evaluates aggregate functions, with an optional
// HAVING restriction applied to the groups.
type Aggregate struct {
	Input   Plan
	GroupBy []parser.Variable
	Items   []parser.SelectItem
	Having  parser.Expression
}

// OrderBy sorts rows by the given keys.
type OrderBy struct {
	Input Plan
	Keys  []parser.OrderKey
}

// Limit applies LIMIT/OFFSET to the row stream.
type Limit struct {
	Input  Plan
	Limit  *int
	Offset *int
}

// Project narrows rows to the selected variables.
type Project struct {
	Input Plan
	Items []parser.SelectItem
	Star  bool
}

func (TripleScan) plan()   {}
func (PropertyPath) plan() {}
func (Join) plan()         {}
func (Optional) plan()     {}
func (Union) plan()        {}
func (Filter) plan()       {}
func (Aggregate) plan()    {}
func (OrderBy) plan()      {}
func (Limit) plan()        {}
func (Project) plan()      {}

func (p TripleScan) Vars() []parser.Variable {
	var vars []parser.Variable
	for _, t := range []parser.Term{p.Pattern.Subject, p.Pattern.Predicate, p.Pattern.Object} {
		if v, ok := t.(parser.Variable); ok {
			vars = appendVar(vars, v)
		}
	}
	return vars
}

func (p PropertyPath) Vars() []parser.Variable {
	var vars []parser.Variable
	for _, t := range []parser.Term{p.Pattern.Subject, p.Pattern.Object} {
		if v, ok := t.(parser.Variable); ok {
			vars = appendVar(vars, v)
		}
	}
	return vars
}

func (p Join) Vars() []parser.Variable     { return mergeVars(p.Left.Vars(), p.Right.Vars()) }
func (p Optional) Vars() []parser.Variable { return mergeVars(p.Left.Vars(), p.Right.Vars()) }
func (p Union) Vars() []parser.Variable    { return mergeVars(p.Left.Vars(), p.Right.Vars()) }
func (p Filter) Vars() []parser.Variable   { return p.Input.Vars() }
func (p OrderBy) Vars() []parser.Variable  { return p.Input.Vars() }
func (p Limit) Vars() []parser.Variable    { return p.Input.Vars() }

func (p Aggregate) Vars() []parser.Variable {
	vars := append([]parser.Variable(nil), p.GroupBy...)
	for _, item := range p.Items {
		if item.Agg != nil {
			vars = appendVar(vars, item.Alias)
		}
	}
	return vars
}

func (p Project) Vars() []parser.Variable {
	if p.Star {
		return p.Input.Vars()
	}
	var vars []parser.Variable
	for _, item := range p.Items {
		vars = appendVar(vars, item.OutputVar())
	}
	return vars
}

func appendVar(vars []parser.Variable, v parser.Variable) []parser.Variable {
	for _, have := range vars {
		if have == v {
			return vars
		}
	}
	return append(vars, v)
}

func mergeVars(a, b []parser.Variable) []parser.Variable {
	out := append([]parser.Variable(nil), a...)
	for _, v := range b {
		out = appendVar(out, v)
	}
	return out
}

// sharedVars returns the variables bound by both plans, in left-plan order.
func sharedVars(left, right Plan) []parser.Variable {
	rightSet := make(map[parser.Variable]struct{})
	for _, v := range right.Vars() {
		rightSet[v] = struct{}{}
	}
	var shared []parser.Variable
	for _, v := range left.Vars() {
		if _, ok := rightSet[v]; ok {
			shared = append(shared, v)
		}
	}
	return shared
}

// Root is the optimized query: the operator tree plus the query-form
// information the executor needs to shape the final result. Plan is nil only
// for a DESCRIBE without a WHERE clause.
type Root struct {
	Form      parser.Form
	Plan      Plan
	Construct []parser.TriplePattern
	Describe  []parser.Term
}
