// Package executor evaluates optimized query plans against a frozen triple
// store. Execution is purely synchronous and touches no shared mutable
// state, so any number of executions may run concurrently over one store.
package executor

import (
	"context"
	"sort"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/optimizer"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/store"
)

// Executor runs plans against one store snapshot.
type Executor struct {
	store *store.TripleStore
}

// New returns an executor over the given frozen store.
func New(s *store.TripleStore) *Executor {
	return &Executor{store: s}
}

// Execute evaluates an optimized query. Cancellation of ctx aborts
// evaluation between operator steps; the context error is returned as-is so
// callers can distinguish timeouts from evaluation failures.
func (e *Executor) Execute(ctx context.Context, root *optimizer.Root) (*Result, error) {
	switch root.Form {
	case parser.FormSelect:
		return e.executeSelect(ctx, root)
	case parser.FormAsk:
		return e.executeAsk(ctx, root)
	case parser.FormConstruct:
		return e.executeConstruct(ctx, root)
	case parser.FormDescribe:
		return e.executeDescribe(ctx, root)
	default:
		return nil, execErrorf(KindBadPlan, "unknown query form %v", root.Form)
	}
}

func (e *Executor) executeSelect(ctx context.Context, root *optimizer.Root) (*Result, error) {
	rows, err := e.eval(ctx, root.Plan)
	if err != nil {
		return nil, err
	}
	vars := root.Plan.Vars()
	if proj, ok := root.Plan.(optimizer.Project); ok && proj.Star {
		// Deterministic column order for SELECT *.
		sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	}
	return &Result{Form: parser.FormSelect, Variables: vars, Bindings: rows}, nil
}

func (e *Executor) executeAsk(ctx context.Context, root *optimizer.Root) (*Result, error) {
	rows, err := e.eval(ctx, root.Plan)
	if err != nil {
		return nil, err
	}
	return &Result{Form: parser.FormAsk, Ask: len(rows) > 0}, nil
}

func (e *Executor) executeConstruct(ctx context.Context, root *optimizer.Root) (*Result, error) {
	rows, err := e.eval(ctx, root.Plan)
	if err != nil {
		return nil, err
	}
	var (
		triples []rdf.Triple
		seen    = make(map[string]struct{})
	)
	for _, row := range rows {
		for _, tmpl := range root.Construct {
			t, ok := instantiate(tmpl, row)
			if !ok {
				// Template variable unbound in this row; skip the triple.
				continue
			}
			key := string(t.Subject) + "\x00" + string(t.Predicate) + "\x00" + t.Object.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			triples = append(triples, t)
		}
	}
	return &Result{Form: parser.FormConstruct, Triples: triples}, nil
}

func (e *Executor) executeDescribe(ctx context.Context, root *optimizer.Root) (*Result, error) {
	subjects := make(map[rdf.IRI]struct{})
	var ordered []rdf.IRI
	add := func(iri rdf.IRI) {
		if _, dup := subjects[iri]; !dup {
			subjects[iri] = struct{}{}
			ordered = append(ordered, iri)
		}
	}

	var rows []Binding
	if root.Plan != nil {
		var err error
		rows, err = e.eval(ctx, root.Plan)
		if err != nil {
			return nil, err
		}
	}
	for _, term := range root.Describe {
		switch t := term.(type) {
		case parser.Constant:
			if iri, ok := t.Value.(rdf.IRI); ok {
				add(iri)
			}
		case parser.Variable:
			if root.Plan == nil {
				return nil, execErrorf(KindUnboundVariable, "DESCRIBE ?%s has no WHERE clause to bind it", t)
			}
			for _, row := range rows {
				if v, ok := row[t]; ok {
					if iri, isIRI := v.(rdf.IRI); isIRI {
						add(iri)
					}
				}
			}
		}
	}

	var triples []rdf.Triple
	for _, iri := range ordered {
		triples = append(triples, e.store.TriplesForSubject(iri)...)
	}
	return &Result{Form: parser.FormDescribe, Triples: triples}, nil
}

func instantiate(tmpl parser.TriplePattern, row Binding) (rdf.Triple, bool) {
	subj, ok := resolveIRI(tmpl.Subject, row)
	if !ok {
		return rdf.Triple{}, false
	}
	pred, ok := resolveIRI(tmpl.Predicate, row)
	if !ok {
		return rdf.Triple{}, false
	}
	obj, ok := resolveTerm(tmpl.Object, row)
	if !ok {
		return rdf.Triple{}, false
	}
	return rdf.Triple{Subject: subj, Predicate: pred, Object: obj}, true
}

func resolveTerm(t parser.Term, row Binding) (rdf.Value, bool) {
	switch tt := t.(type) {
	case parser.Constant:
		return tt.Value, true
	case parser.Variable:
		v, ok := row[tt]
		return v, ok
	default:
		return nil, false
	}
}

func resolveIRI(t parser.Term, row Binding) (rdf.IRI, bool) {
	v, ok := resolveTerm(t, row)
	if !ok {
		return "", false
	}
	iri, ok := v.(rdf.IRI)
	return iri, ok
}

// eval walks the operator tree bottom-up. The switch is exhaustive over the
// closed operator set.
func (e *Executor) eval(ctx context.Context, plan optimizer.Plan) ([]Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch p := plan.(type) {
	case optimizer.TripleScan:
		return e.evalScan(ctx, p.Pattern)
	case optimizer.PropertyPath:
		return e.evalPath(ctx, p.Pattern)
	case optimizer.Join:
		return e.evalJoin(ctx, p)
	case optimizer.Optional:
		return e.evalOptional(ctx, p)
	case optimizer.Union:
		left, err := e.eval(ctx, p.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, p.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case optimizer.Filter:
		return e.evalFilter(ctx, p)
	case optimizer.Aggregate:
		return e.evalAggregate(ctx, p)
	case optimizer.OrderBy:
		return e.evalOrderBy(ctx, p)
	case optimizer.Limit:
		return e.evalLimit(ctx, p)
	case optimizer.Project:
		return e.evalProject(ctx, p)
	default:
		return nil, execErrorf(KindBadPlan, "unknown plan operator %T", plan)
	}
}

// evalScan matches one triple pattern. A constant predicate reads the
// predicate index, a constant subject the subject index; only the
// all-variable (or constant-object-only) case walks the full store.
func (e *Executor) evalScan(ctx context.Context, tp parser.TriplePattern) ([]Binding, error) {
	var candidates []rdf.Triple
	if pred, ok := constantAs[rdf.IRI](tp.Predicate); ok {
		candidates = e.store.TriplesForPredicate(pred)
	} else if subj, ok := constantAs[rdf.IRI](tp.Subject); ok {
		candidates = e.store.TriplesForSubject(subj)
	} else {
		candidates = e.store.All()
	}

	var rows []Binding
	for i, t := range candidates {
		if i%1024 == 1023 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if row, ok := matchTriple(tp, t); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// matchTriple unifies a pattern with a concrete triple, producing the row of
// variable bindings, or false when a constant position disagrees or one
// variable would need two values.
func matchTriple(tp parser.TriplePattern, t rdf.Triple) (Binding, bool) {
	row := make(Binding, 3)
	bind := func(term parser.Term, val rdf.Value) bool {
		switch tt := term.(type) {
		case parser.Constant:
			return rdf.Equal(tt.Value, val)
		case parser.Variable:
			if have, ok := row[tt]; ok {
				return rdf.Equal(have, val)
			}
			row[tt] = val
			return true
		default:
			return false
		}
	}
	if !bind(tp.Subject, t.Subject) {
		return nil, false
	}
	if !bind(tp.Predicate, t.Predicate) {
		return nil, false
	}
	if !bind(tp.Object, t.Object) {
		return nil, false
	}
	return row, true
}

func (e *Executor) evalJoin(ctx context.Context, p optimizer.Join) ([]Binding, error) {
	left, err := e.eval(ctx, p.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(ctx, p.Right)
	if err != nil {
		return nil, err
	}
	if p.Kind == optimizer.HashJoin {
		return hashJoin(left, right, p.On), nil
	}
	return nestedLoopJoin(left, right), nil
}

// hashJoin builds a table over the left rows keyed by the join variables and
// probes it with the right rows. Rows without a matching key are dropped.
func hashJoin(left, right []Binding, on []parser.Variable) []Binding {
	table := make(map[string][]Binding, len(left))
	for _, l := range left {
		table[joinKey(l, on)] = append(table[joinKey(l, on)], l)
	}
	var out []Binding
	for _, r := range right {
		for _, l := range table[joinKey(r, on)] {
			// Key equality covers the join variables; compatible() guards
			// shared variables that are unbound on one side.
			if l.compatible(r) {
				out = append(out, l.merge(r))
			}
		}
	}
	return out
}

func joinKey(b Binding, on []parser.Variable) string {
	key := ""
	for _, v := range on {
		if val, ok := b[v]; ok {
			key += val.Key()
		}
		key += "\x00"
	}
	return key
}

func nestedLoopJoin(left, right []Binding) []Binding {
	var out []Binding
	for _, l := range left {
		for _, r := range right {
			if l.compatible(r) {
				out = append(out, l.merge(r))
			}
		}
	}
	return out
}

// evalOptional is a left outer join: every left row survives, extended by
// compatible right rows when any exist.
func (e *Executor) evalOptional(ctx context.Context, p optimizer.Optional) ([]Binding, error) {
	left, err := e.eval(ctx, p.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(ctx, p.Right)
	if err != nil {
		return nil, err
	}
	var out []Binding
	for _, l := range left {
		matched := false
		for _, r := range right {
			if l.compatible(r) {
				out = append(out, l.merge(r))
				matched = true
			}
		}
		if !matched {
			out = append(out, l)
		}
	}
	return out, nil
}

func (e *Executor) evalFilter(ctx context.Context, p optimizer.Filter) ([]Binding, error) {
	rows, err := e.eval(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	var out []Binding
	for _, row := range rows {
		keep, err := evalBool(p.Expr, row, nil)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func (e *Executor) evalOrderBy(ctx context.Context, p optimizer.OrderBy) ([]Binding, error) {
	rows, err := e.eval(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range p.Keys {
			cmp := compareForSort(rows[i][key.Var], rows[j][key.Var])
			if cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return rows, nil
}

// compareForSort orders values for ORDER BY; unbound sorts before bound.
func compareForSort(a, b rdf.Value) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return rdf.Compare(a, b)
	}
}

func (e *Executor) evalLimit(ctx context.Context, p optimizer.Limit) ([]Binding, error) {
	rows, err := e.eval(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	if p.Offset != nil {
		if *p.Offset >= len(rows) {
			return nil, nil
		}
		rows = rows[*p.Offset:]
	}
	if p.Limit != nil && *p.Limit < len(rows) {
		rows = rows[:*p.Limit]
	}
	return rows, nil
}

func (e *Executor) evalProject(ctx context.Context, p optimizer.Project) ([]Binding, error) {
	rows, err := e.eval(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	if p.Star {
		return rows, nil
	}
	out := make([]Binding, 0, len(rows))
	for _, row := range rows {
		narrowed := make(Binding, len(p.Items))
		for _, item := range p.Items {
			v := item.OutputVar()
			if val, ok := row[v]; ok {
				narrowed[v] = val
			}
		}
		out = append(out, narrowed)
	}
	return out, nil
}

// constantAs extracts a typed constant from a pattern term.
func constantAs[T rdf.Value](t parser.Term) (T, bool) {
	var zero T
	c, ok := t.(parser.Constant)
	if !ok {
		return zero, false
	}
	v, ok := c.Value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
