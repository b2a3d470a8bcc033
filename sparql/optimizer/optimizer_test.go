package optimizer

import (
	"testing"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/store"
)

// testStats describes a store with 1000 triples and two indexed predicates:
// a rare one (10 triples) and a common one (500).
func testStats() store.Statistics {
	return store.Statistics{
		TotalTriples: 1000,
		PredicateCounts: map[rdf.IRI]int{
			"http://ex/rare":   10,
			"http://ex/common": 500,
		},
	}
}

func mustParse(t *testing.T, src string) *parser.Query {
	t.Helper()
	q, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return q
}

func mustOptimize(t *testing.T, o *Optimizer, src string) *Root {
	t.Helper()
	root, err := o.Optimize(mustParse(t, src))
	if err != nil {
		t.Fatalf("Optimize(%q) failed: %v", src, err)
	}
	return root
}

// leftmostLeaf walks Left edges down to the first scan.
func leftmostLeaf(t *testing.T, p Plan) Plan {
	t.Helper()
	for {
		switch n := p.(type) {
		case Project:
			p = n.Input
		case Filter:
			p = n.Input
		case OrderBy:
			p = n.Input
		case Limit:
			p = n.Input
		case Aggregate:
			p = n.Input
		case Join:
			p = n.Left
		case Optional:
			p = n.Left
		case TripleScan, PropertyPath, Union:
			return p
		default:
			t.Fatalf("unexpected plan node %T", p)
		}
	}
}

// The most selective pattern leads the join tree: with estimates
// [1000, 10, 500] the cardinality-10 scan must be evaluated first.
func TestOptimizeOrdersBySelectivity(t *testing.T) {
	o := New(testStats())
	root := mustOptimize(t, o, `SELECT * WHERE {
		?s ?p ?o .
		?s <http://ex/rare> ?x .
		?s <http://ex/common> ?y
	}`)

	leaf, ok := leftmostLeaf(t, root.Plan).(TripleScan)
	if !ok {
		t.Fatalf("leftmost leaf is %T, want TripleScan", leftmostLeaf(t, root.Plan))
	}
	if leaf.Card != 10 {
		t.Errorf("leftmost scan cardinality = %v, want 10", leaf.Card)
	}
	pred, _ := leaf.Pattern.Predicate.(parser.Constant)
	if pred.Value != rdf.IRI("http://ex/rare") {
		t.Errorf("leftmost scan predicate = %v, want <http://ex/rare>", pred.Value)
	}
}

// Equal estimates keep clause order: the sort must be stable.
func TestOptimizeStableTieBreak(t *testing.T) {
	o := New(testStats())
	root := mustOptimize(t, o, `SELECT * WHERE {
		<http://ex/a> ?p1 ?o1 .
		<http://ex/b> ?p2 ?o2
	}`)

	leaf := leftmostLeaf(t, root.Plan).(TripleScan)
	subj, _ := leaf.Pattern.Subject.(parser.Constant)
	if subj.Value != rdf.IRI("http://ex/a") {
		t.Errorf("tie broke out of clause order: first scan subject = %v, want <http://ex/a>", subj.Value)
	}
}

func TestOptimizeJoinKinds(t *testing.T) {
	o := New(testStats())
	root := mustOptimize(t, o, `SELECT * WHERE {
		?s ?p ?o .
		?s <http://ex/rare> ?x .
		?s <http://ex/common> ?y
	}`)

	// Operands sort to [10, 500, 1000]; the inner join sees min 10 and
	// hashes, the outer sees min 500 and falls back to nested loop.
	project := root.Plan.(Project)
	outer := project.Input.(Join)
	if outer.Kind != NestedLoop {
		t.Errorf("outer join kind = %v, want nested-loop", outer.Kind)
	}
	inner := outer.Left.(Join)
	if inner.Kind != HashJoin {
		t.Errorf("inner join kind = %v, want hash", inner.Kind)
	}
	if len(inner.On) == 0 || inner.On[0] != parser.Variable("s") {
		t.Errorf("inner join On = %v, want [s]", inner.On)
	}
}

func TestOptimizeThresholdOverride(t *testing.T) {
	o := New(testStats()).WithHashJoinThreshold(10000)
	root := mustOptimize(t, o, `SELECT * WHERE {
		?s <http://ex/common> ?y .
		?s ?p ?o
	}`)

	join := root.Plan.(Project).Input.(Join)
	if join.Kind != HashJoin {
		t.Errorf("join kind = %v with huge threshold, want hash", join.Kind)
	}

	o = New(testStats()).WithHashJoinThreshold(1)
	root = mustOptimize(t, o, `SELECT * WHERE {
		?s <http://ex/common> ?y .
		?s ?p ?o
	}`)
	join = root.Plan.(Project).Input.(Join)
	if join.Kind != NestedLoop {
		t.Errorf("join kind = %v with threshold 1, want nested-loop", join.Kind)
	}
}

func TestOptimizeEstimates(t *testing.T) {
	o := New(testStats())
	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"all variables", `SELECT * WHERE { ?s ?p ?o }`, 1000},
		{"constant predicate", `SELECT * WHERE { ?s <http://ex/rare> ?o }`, 10},
		{"unknown predicate", `SELECT * WHERE { ?s <http://ex/none> ?o }`, 0},
		{"constant subject", `SELECT * WHERE { <http://ex/a> ?p ?o }`, 10},
		{"constant object only", `SELECT ?s ?p WHERE { ?s ?p "Alice" }`, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustOptimize(t, o, tt.query)
			leaf := leftmostLeaf(t, root.Plan).(TripleScan)
			if leaf.Card != tt.want {
				t.Errorf("estimate = %v, want %v", leaf.Card, tt.want)
			}
		})
	}
}

func TestOptimizePathEstimates(t *testing.T) {
	o := New(testStats())

	root := mustOptimize(t, o, `SELECT ?x WHERE { <http://ex/a> <http://ex/p>* ?x }`)
	anchored := leftmostLeaf(t, root.Plan).(PropertyPath)
	if anchored.Card != 10 {
		t.Errorf("anchored path estimate = %v, want 10", anchored.Card)
	}

	root = mustOptimize(t, o, `SELECT ?x ?y WHERE { ?x <http://ex/p>+ ?y }`)
	free := leftmostLeaf(t, root.Plan).(PropertyPath)
	if free.Card != 1000 {
		t.Errorf("unanchored path estimate = %v, want 1000", free.Card)
	}
}

func TestOptimizeEmptyWhere(t *testing.T) {
	o := New(testStats())

	_, err := o.Optimize(&parser.Query{Form: parser.FormSelect, SelectStar: true})
	var oerr *OptimizeError
	if err == nil {
		t.Fatal("expected error for missing WHERE clause")
	}
	if !asOptimizeError(err, &oerr) || oerr.Kind != KindEmptyWhere {
		t.Errorf("error = %v, want kind %s", err, KindEmptyWhere)
	}

	_, err = o.Optimize(mustParse(t, `ASK { }`))
	if err == nil {
		t.Fatal("expected error for empty group")
	}
	if !asOptimizeError(err, &oerr) || oerr.Kind != KindEmptyWhere {
		t.Errorf("error = %v, want kind %s", err, KindEmptyWhere)
	}
}

func TestOptimizeDescribeWithoutWhere(t *testing.T) {
	o := New(testStats())
	root, err := o.Optimize(mustParse(t, `DESCRIBE <http://ex/a>`))
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if root.Plan != nil {
		t.Errorf("DESCRIBE without WHERE should have a nil plan, got %T", root.Plan)
	}
	if len(root.Describe) != 1 {
		t.Errorf("Describe terms = %d, want 1", len(root.Describe))
	}
}

func TestOptimizeAggregateValidation(t *testing.T) {
	o := New(testStats())

	// A plain select variable outside GROUP BY is rejected.
	_, err := o.Optimize(mustParse(t, `SELECT ?s (COUNT(?o) AS ?n) WHERE { ?s ?p ?o } GROUP BY ?p`))
	var oerr *OptimizeError
	if err == nil || !asOptimizeError(err, &oerr) || oerr.Kind != KindUnsupported {
		t.Errorf("error = %v, want kind %s", err, KindUnsupported)
	}

	// The same variable inside GROUP BY is fine.
	if _, err := o.Optimize(mustParse(t, `SELECT ?s (COUNT(?o) AS ?n) WHERE { ?s ?p ?o } GROUP BY ?s`)); err != nil {
		t.Errorf("grouped variable rejected: %v", err)
	}
}

func TestOptimizeHavingRequiresGrouping(t *testing.T) {
	o := New(testStats())
	_, err := o.Optimize(mustParse(t, `SELECT ?s WHERE { ?s ?p ?o } HAVING (?s > 1)`))
	var oerr *OptimizeError
	if err == nil || !asOptimizeError(err, &oerr) || oerr.Kind != KindUnsupported {
		t.Errorf("error = %v, want kind %s", err, KindUnsupported)
	}
}

func TestOptimizeUnionAndOptionalShape(t *testing.T) {
	o := New(testStats())
	root := mustOptimize(t, o, `SELECT ?s ?n ?age WHERE {
		{ ?s <http://ex/rare> ?n } UNION { ?s <http://ex/common> ?n }
		OPTIONAL { ?s <http://ex/age> ?age }
	}`)

	project := root.Plan.(Project)
	opt, ok := project.Input.(Optional)
	if !ok {
		t.Fatalf("expected Optional under Project, got %T", project.Input)
	}
	if _, ok := opt.Left.(Union); !ok {
		t.Errorf("expected Union as required side, got %T", opt.Left)
	}
}

func asOptimizeError(err error, target **OptimizeError) bool {
	e, ok := err.(*OptimizeError)
	if ok {
		*target = e
	}
	return ok
}
