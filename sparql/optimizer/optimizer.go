package optimizer

import (
	"fmt"
	"sort"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/store"
)

// HashJoinThreshold is the estimated-cardinality bound below which the
// smaller join input is considered cheap enough to build a hash table from.
const HashJoinThreshold = 100

// ErrKind categorizes optimizer failures.
type ErrKind string

const (
	KindEmptyWhere  ErrKind = "empty-where"
	KindUnsupported ErrKind = "unsupported"
)

// OptimizeError reports a query the optimizer cannot plan.
type OptimizeError struct {
	Kind    ErrKind
	Message string
}

func (e *OptimizeError) Error() string {
	return fmt.Sprintf("optimize error (%s): %s", e.Kind, e.Message)
}

// Optimizer plans queries against a fixed statistics snapshot. The zero
// threshold means "use the default"; it exists so the hash-join bound can be
// tuned from configuration without recompiling.
type Optimizer struct {
	stats     store.Statistics
	threshold float64
}

// New returns an optimizer over the given statistics.
func New(stats store.Statistics) *Optimizer {
	return &Optimizer{stats: stats, threshold: HashJoinThreshold}
}

// WithHashJoinThreshold overrides the hash-join cardinality bound.
func (o *Optimizer) WithHashJoinThreshold(threshold float64) *Optimizer {
	o.threshold = threshold
	return o
}

// Optimize plans a parsed query. The AST is only read, never modified.
func (o *Optimizer) Optimize(q *parser.Query) (*Root, error) {
	root := &Root{
		Form:      q.Form,
		Construct: q.Construct,
		Describe:  q.Describe,
	}

	if q.Where == nil {
		if q.Form == parser.FormDescribe {
			// DESCRIBE <iri> needs no pattern plan.
			return root, nil
		}
		return nil, &OptimizeError{Kind: KindEmptyWhere, Message: "query has no WHERE clause"}
	}

	plan, err := o.planPattern(q.Where)
	if err != nil {
		return nil, err
	}

	if len(q.GroupBy) > 0 || hasAggregates(q.Select) {
		for _, item := range q.Select {
			if item.Agg == nil && !containsVar(q.GroupBy, item.Var) {
				return nil, &OptimizeError{
					Kind:    KindUnsupported,
					Message: fmt.Sprintf("variable ?%s must appear in GROUP BY or inside an aggregate", item.Var),
				}
			}
		}
		plan = Aggregate{Input: plan, GroupBy: q.GroupBy, Items: q.Select, Having: q.Having}
	} else if q.Having != nil {
		return nil, &OptimizeError{Kind: KindUnsupported, Message: "HAVING requires GROUP BY or an aggregate"}
	}
	if len(q.OrderBy) > 0 {
		plan = OrderBy{Input: plan, Keys: q.OrderBy}
	}
	if q.Limit != nil || q.Offset != nil {
		plan = Limit{Input: plan, Limit: q.Limit, Offset: q.Offset}
	}
	if q.Form == parser.FormSelect {
		plan = Project{Input: plan, Items: q.Select, Star: q.SelectStar}
	}

	root.Plan = plan
	return root, nil
}

// operand is a joinable subtree with its cardinality estimate and its
// position in the original clause order, which breaks estimate ties.
type operand struct {
	plan Plan
	card float64
	pos  int
}

// planPattern flattens a graph pattern into scans, filters, and optionals,
// orders the scans by estimated selectivity, and builds a left-deep join
// tree. Filters and optionals wrap the tree in clause order.
func (o *Optimizer) planPattern(gp parser.GraphPattern) (Plan, error) {
	var (
		operands  []operand
		filters   []parser.Expression
		optionals []parser.GraphPattern
	)

	collect := func(children []parser.GraphPattern) error {
		for _, child := range children {
			switch c := child.(type) {
			case parser.TriplePattern:
				card := o.estimateTriple(c)
				operands = append(operands, operand{plan: TripleScan{Pattern: c, Card: card}, card: card, pos: len(operands)})
			case parser.PathPattern:
				card := o.estimatePath(c)
				operands = append(operands, operand{plan: PropertyPath{Pattern: c, Card: card}, card: card, pos: len(operands)})
			case parser.FilterPattern:
				filters = append(filters, c.Expr)
			case parser.OptionalPattern:
				optionals = append(optionals, c.Pattern)
			case parser.UnionPattern:
				plan, err := o.planUnion(c)
				if err != nil {
					return err
				}
				operands = append(operands, operand{plan: plan, card: o.estimatePlan(plan), pos: len(operands)})
			case parser.GroupPattern:
				plan, err := o.planPattern(c)
				if err != nil {
					return err
				}
				operands = append(operands, operand{plan: plan, card: o.estimatePlan(plan), pos: len(operands)})
			default:
				return &OptimizeError{Kind: KindUnsupported, Message: fmt.Sprintf("unsupported graph pattern %T", child)}
			}
		}
		return nil
	}

	switch g := gp.(type) {
	case parser.GroupPattern:
		if err := collect(g.Patterns); err != nil {
			return nil, err
		}
	default:
		if err := collect([]parser.GraphPattern{gp}); err != nil {
			return nil, err
		}
	}

	if len(operands) == 0 {
		return nil, &OptimizeError{Kind: KindEmptyWhere, Message: "WHERE clause contains no triple patterns"}
	}

	// Most selective first; stable so equal estimates keep clause order.
	sort.SliceStable(operands, func(i, j int) bool { return operands[i].card < operands[j].card })

	acc := operands[0].plan
	accCard := operands[0].card
	for _, next := range operands[1:] {
		kind := NestedLoop
		if min(accCard, next.card) < o.threshold {
			kind = HashJoin
		}
		acc = Join{Kind: kind, Left: acc, Right: next.plan, On: sharedVars(acc, next.plan)}
		// The join result is assumed no larger than its bigger input.
		accCard = max(accCard, next.card)
	}

	for _, opt := range optionals {
		right, err := o.planPattern(opt)
		if err != nil {
			return nil, err
		}
		acc = Optional{Left: acc, Right: right}
	}
	for _, expr := range filters {
		acc = Filter{Input: acc, Expr: expr}
	}
	return acc, nil
}

func (o *Optimizer) planUnion(u parser.UnionPattern) (Plan, error) {
	left, err := o.planPattern(u.Left)
	if err != nil {
		return nil, err
	}
	right, err := o.planPattern(u.Right)
	if err != nil {
		return nil, err
	}
	return Union{Left: left, Right: right}, nil
}

// estimateTriple applies the fixed selectivity heuristics: an all-variable
// pattern scans everything, a constant predicate reads its index, a constant
// subject is guessed at 1% of the store, anything else at 10%.
func (o *Optimizer) estimateTriple(tp parser.TriplePattern) float64 {
	total := float64(o.stats.TotalTriples)
	subjConst := isConstant(tp.Subject)
	predConst := isConstant(tp.Predicate)
	objConst := isConstant(tp.Object)

	switch {
	case !subjConst && !predConst && !objConst:
		return total
	case predConst:
		pred, _ := constantIRI(tp.Predicate)
		return float64(o.stats.PredicateCount(pred))
	case subjConst:
		return total * 0.01
	default:
		return total * 0.10
	}
}

// estimatePath treats a path with a constant endpoint like a constant
// subject scan, and an unanchored path like a full scan.
func (o *Optimizer) estimatePath(pp parser.PathPattern) float64 {
	total := float64(o.stats.TotalTriples)
	if isConstant(pp.Subject) || isConstant(pp.Object) {
		return total * 0.01
	}
	return total
}

func (o *Optimizer) estimatePlan(p Plan) float64 {
	switch t := p.(type) {
	case TripleScan:
		return t.Card
	case PropertyPath:
		return t.Card
	case Union:
		return o.estimatePlan(t.Left) + o.estimatePlan(t.Right)
	case Join:
		return max(o.estimatePlan(t.Left), o.estimatePlan(t.Right))
	case Filter:
		return o.estimatePlan(t.Input)
	case Optional:
		return o.estimatePlan(t.Left)
	default:
		return float64(o.stats.TotalTriples)
	}
}

func isConstant(t parser.Term) bool {
	_, ok := t.(parser.Constant)
	return ok
}

func constantIRI(t parser.Term) (rdf.IRI, bool) {
	c, ok := t.(parser.Constant)
	if !ok {
		return "", false
	}
	i, ok := c.Value.(rdf.IRI)
	return i, ok
}

func containsVar(vars []parser.Variable, v parser.Variable) bool {
	for _, have := range vars {
		if have == v {
			return true
		}
	}
	return false
}

func hasAggregates(items []parser.SelectItem) bool {
	for _, item := range items {
		if item.Agg != nil {
			return true
		}
	}
	return false
}
