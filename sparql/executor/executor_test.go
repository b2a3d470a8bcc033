package executor

import (
	"context"
	"strings"
	"testing"

	cnvtest "github.com/seanchatmangpt/clap-noun-verb-sub004/internal/testing"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/optimizer"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/store"
)

// run pushes a query through the full parse/optimize/execute pipeline.
func run(t *testing.T, st *store.TripleStore, src string) *Result {
	t.Helper()
	res, err := tryRun(st, src)
	if err != nil {
		t.Fatalf("query %q failed: %v", src, err)
	}
	return res
}

func tryRun(st *store.TripleStore, src string) (*Result, error) {
	q, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	root, err := optimizer.New(st.Stats()).Optimize(q)
	if err != nil {
		return nil, err
	}
	return New(st).Execute(context.Background(), root)
}

func TestSelectSingleBinding(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?n WHERE { <http://ex/a> <http://ex/name> ?n }`)

	if len(res.Bindings) != 1 {
		t.Fatalf("got %d rows, want 1", len(res.Bindings))
	}
	if got := res.Bindings[0]["n"]; !rdf.Equal(got, rdf.NewLiteral("Alice")) {
		t.Errorf("?n = %v, want \"Alice\"", got)
	}
}

func TestSelectJoin(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?n WHERE {
		<http://ex/a> <http://ex/knows> ?p .
		?p <http://ex/name> ?n
	}`)

	if len(res.Bindings) != 1 {
		t.Fatalf("got %d rows, want 1", len(res.Bindings))
	}
	if got := res.Bindings[0]["n"]; !rdf.Equal(got, rdf.NewLiteral("Bob")) {
		t.Errorf("?n = %v, want \"Bob\"", got)
	}
}

func TestSelectVariablePredicate(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?p WHERE { <http://ex/a> ?p ?o }`)
	if len(res.Bindings) != 3 {
		t.Errorf("got %d rows, want 3 (name, age, knows)", len(res.Bindings))
	}
}

func TestSelectStarColumns(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT * WHERE { ?s <http://ex/knows> ?o }`)

	want := []parser.Variable{"o", "s"}
	if len(res.Variables) != len(want) {
		t.Fatalf("Variables = %v, want %v", res.Variables, want)
	}
	for i := range want {
		if res.Variables[i] != want[i] {
			t.Errorf("Variables[%d] = %s, want %s (sorted)", i, res.Variables[i], want[i])
		}
	}
}

func TestOptionalLeavesUnbound(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?n ?age WHERE {
		?s <http://ex/name> ?n
		OPTIONAL { ?s <http://ex/age> ?age }
	}`)

	if len(res.Bindings) != 4 {
		t.Fatalf("got %d rows, want 4", len(res.Bindings))
	}
	unbound := 0
	for _, row := range res.Bindings {
		if _, ok := row["age"]; !ok {
			unbound++
			if !rdf.Equal(row["n"], rdf.NewLiteral("Dave")) {
				t.Errorf("unexpected ageless row: %v", row)
			}
		}
	}
	if unbound != 1 {
		t.Errorf("%d rows without ?age, want 1 (Dave)", unbound)
	}
}

func TestUnion(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?x WHERE {
		{ <http://ex/a> <http://ex/knows> ?x } UNION { <http://ex/b> <http://ex/knows> ?x }
	}`)
	if len(res.Bindings) != 2 {
		t.Errorf("got %d rows, want 2", len(res.Bindings))
	}
}

func TestFilterComparison(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?n WHERE {
		?s <http://ex/name> ?n .
		?s <http://ex/age> ?age .
		FILTER(?age > 30)
	}`)

	names := make(map[string]bool)
	for _, row := range res.Bindings {
		names[row["n"].(rdf.Literal).Text] = true
	}
	if len(names) != 2 || !names["Alice"] || !names["Bob"] {
		t.Errorf("FILTER(?age > 30) matched %v, want Alice and Bob", names)
	}
}

func TestFilterArithmetic(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?n WHERE {
		?s <http://ex/name> ?n .
		?s <http://ex/age> ?age .
		FILTER(?age * 2 >= 70 && ?age - 7 != 35)
	}`)
	if len(res.Bindings) != 1 || !rdf.Equal(res.Bindings[0]["n"], rdf.NewLiteral("Bob")) {
		t.Errorf("got %v, want just Bob", res.Bindings)
	}
}

// Expression failures abort the query with a typed error instead of
// silently dropping rows.
func TestFilterErrors(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	tests := []struct {
		name  string
		query string
		kind  ErrKind
	}{
		{
			"division by zero",
			`SELECT ?n WHERE { ?s <http://ex/age> ?age . ?s <http://ex/name> ?n . FILTER(?age / 0 > 1) }`,
			KindDivisionByZero,
		},
		{
			"unbound variable",
			`SELECT ?n WHERE { ?s <http://ex/name> ?n . FILTER(?nope > 1) }`,
			KindUnboundVariable,
		},
		{
			"non-numeric arithmetic",
			`SELECT ?n WHERE { ?s <http://ex/name> ?n . FILTER(?n + 1 > 0) }`,
			KindTypeMismatch,
		},
		{
			"non-boolean filter",
			`SELECT ?n WHERE { ?s <http://ex/age> ?age . ?s <http://ex/name> ?n . FILTER(?age + 1) }`,
			KindTypeMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tryRun(st, tt.query)
			if err == nil {
				t.Fatal("expected an execution error")
			}
			exErr, ok := err.(*ExecutionError)
			if !ok {
				t.Fatalf("error type = %T, want *ExecutionError", err)
			}
			if exErr.Kind != tt.kind {
				t.Errorf("error kind = %s, want %s", exErr.Kind, tt.kind)
			}
		})
	}
}

func TestOrderByLimitOffset(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?n ?age WHERE {
		?s <http://ex/name> ?n .
		?s <http://ex/age> ?age
	} ORDER BY DESC(?age) LIMIT 2`)

	if len(res.Bindings) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Bindings))
	}
	if !rdf.Equal(res.Bindings[0]["n"], rdf.NewLiteral("Alice")) {
		t.Errorf("first row = %v, want Alice (age 42)", res.Bindings[0])
	}
	if !rdf.Equal(res.Bindings[1]["n"], rdf.NewLiteral("Bob")) {
		t.Errorf("second row = %v, want Bob (age 35)", res.Bindings[1])
	}

	res = run(t, st, `SELECT ?n WHERE {
		?s <http://ex/name> ?n .
		?s <http://ex/age> ?age
	} ORDER BY ?age OFFSET 2`)
	if len(res.Bindings) != 1 || !rdf.Equal(res.Bindings[0]["n"], rdf.NewLiteral("Alice")) {
		t.Errorf("OFFSET 2 over ascending ages = %v, want just Alice", res.Bindings)
	}
}

func TestAggregatesWholeResult(t *testing.T) {
	st := cnvtest.PeopleStore(t)

	res := run(t, st, `SELECT (COUNT(?s) AS ?n) WHERE { ?s <http://ex/name> ?o }`)
	if len(res.Bindings) != 1 || !rdf.Equal(res.Bindings[0]["n"], rdf.NewLiteral("4")) {
		t.Errorf("COUNT = %v, want 4", res.Bindings)
	}

	res = run(t, st, `SELECT (SUM(?age) AS ?total) (AVG(?age) AS ?mean) (MIN(?age) AS ?lo) (MAX(?age) AS ?hi) WHERE { ?s <http://ex/age> ?age }`)
	row := res.Bindings[0]
	if !rdf.Equal(row["total"], rdf.NewLiteral("105")) {
		t.Errorf("SUM = %v, want 105", row["total"])
	}
	if !rdf.Equal(row["mean"], rdf.NewLiteral("35")) {
		t.Errorf("AVG = %v, want 35", row["mean"])
	}
	if !rdf.Equal(row["lo"], rdf.NewLiteral("28")) {
		t.Errorf("MIN = %v, want 28", row["lo"])
	}
	if !rdf.Equal(row["hi"], rdf.NewLiteral("42")) {
		t.Errorf("MAX = %v, want 42", row["hi"])
	}
}

func TestCountStarEmptyResult(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT (COUNT(*) AS ?n) WHERE { ?s <http://ex/nothing> ?o }`)
	if len(res.Bindings) != 1 || !rdf.Equal(res.Bindings[0]["n"], rdf.NewLiteral("0")) {
		t.Errorf("COUNT(*) over empty result = %v, want one row of 0", res.Bindings)
	}
}

func TestGroupByHaving(t *testing.T) {
	st := cnvtest.PeopleStore(t)

	res := run(t, st, `SELECT ?p (COUNT(?s) AS ?n) WHERE { ?s ?p ?o } GROUP BY ?p`)
	counts := make(map[string]string)
	for _, row := range res.Bindings {
		counts[string(row["p"].(rdf.IRI))] = row["n"].(rdf.Literal).Text
	}
	want := map[string]string{
		"http://ex/name":  "4",
		"http://ex/age":   "3",
		"http://ex/knows": "3",
	}
	for pred, n := range want {
		if counts[pred] != n {
			t.Errorf("count for %s = %s, want %s", pred, counts[pred], n)
		}
	}

	res = run(t, st, `SELECT ?p (COUNT(?s) AS ?n) WHERE { ?s ?p ?o } GROUP BY ?p HAVING (COUNT(?s) > 3)`)
	if len(res.Bindings) != 1 || res.Bindings[0]["p"] != rdf.IRI("http://ex/name") {
		t.Errorf("HAVING kept %v, want only the name group", res.Bindings)
	}
}

func TestAsk(t *testing.T) {
	st := cnvtest.PeopleStore(t)

	res := run(t, st, `ASK { <http://ex/a> <http://ex/knows> <http://ex/b> }`)
	if !res.Ask {
		t.Error("ASK should be true for a stored fact")
	}
	res = run(t, st, `ASK { <http://ex/d> <http://ex/knows> <http://ex/a> }`)
	if res.Ask {
		t.Error("ASK should be false for an absent fact")
	}
}

func TestConstruct(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `CONSTRUCT { ?a <http://ex/friend> ?b } WHERE { ?a <http://ex/knows> ?b }`)

	if len(res.Triples) != 3 {
		t.Fatalf("got %d triples, want 3", len(res.Triples))
	}
	for _, tr := range res.Triples {
		if tr.Predicate != "http://ex/friend" {
			t.Errorf("constructed predicate = %s, want <http://ex/friend>", tr.Predicate)
		}
	}
}

func TestConstructDeduplicates(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	// Every person with a name yields the same constant triple once.
	res := run(t, st, `CONSTRUCT { <http://ex/g> <http://ex/size> "4" } WHERE { ?s <http://ex/name> ?n }`)
	if len(res.Triples) != 1 {
		t.Errorf("got %d triples, want 1 after deduplication", len(res.Triples))
	}
}

func TestDescribe(t *testing.T) {
	st := cnvtest.PeopleStore(t)

	res := run(t, st, `DESCRIBE <http://ex/a>`)
	if len(res.Triples) != 3 {
		t.Errorf("DESCRIBE <a> returned %d triples, want 3", len(res.Triples))
	}

	res = run(t, st, `DESCRIBE ?s WHERE { ?s <http://ex/age> "28" }`)
	if len(res.Triples) != 3 {
		t.Errorf("DESCRIBE ?s returned %d triples, want Carol's 3", len(res.Triples))
	}
}

func TestExecuteCancelled(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	q, err := parser.Parse(`SELECT * WHERE { ?s ?p ?o }`)
	if err != nil {
		t.Fatal(err)
	}
	root, err := optimizer.New(st.Stats()).Optimize(q)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(st).Execute(ctx, root)
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestResultText(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?n WHERE { <http://ex/a> <http://ex/name> ?n }`)

	text := res.Text()
	if !strings.Contains(text, "?n") || !strings.Contains(text, `"Alice"`) {
		t.Errorf("table output missing header or value:\n%s", text)
	}
}

func TestResultJSON(t *testing.T) {
	st := cnvtest.PeopleStore(t)
	res := run(t, st, `SELECT ?n WHERE { <http://ex/a> <http://ex/name> ?n }`)

	data, err := res.JSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"head"`, `"vars":["n"]`, `"type":"literal"`, `"value":"Alice"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON output missing %s:\n%s", want, data)
		}
	}

	res = run(t, st, `ASK { <http://ex/a> <http://ex/knows> <http://ex/b> }`)
	data, err = res.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"boolean":true}` {
		t.Errorf("ASK JSON = %s", data)
	}
}
