package executor

import (
	"context"
	"sort"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
)

// direction of edge traversal. Inverse paths flip it; flipping twice
// restores forward traversal.
type direction bool

const (
	forward direction = false
	reverse direction = true
)

func (d direction) flip() direction { return !d }

// nodeSet is a deduplicated set of terms keyed by rdf key.
type nodeSet map[string]rdf.Value

func (s nodeSet) add(v rdf.Value) bool {
	key := v.Key()
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = v
	return true
}

func (s nodeSet) has(v rdf.Value) bool {
	_, ok := s[v.Key()]
	return ok
}

// evalPath binds the endpoints of a property-path pattern. Anchored
// patterns traverse from the constant end; a fully unanchored pattern
// traverses from every node in the store.
func (e *Executor) evalPath(ctx context.Context, pp parser.PathPattern) ([]Binding, error) {
	subjConst, subjOK := constantValue(pp.Subject)
	objConst, objOK := constantValue(pp.Object)

	switch {
	case subjOK && objOK:
		set, err := e.reach(ctx, pp.Path, subjConst, forward)
		if err != nil {
			return nil, err
		}
		if set.has(objConst) {
			return []Binding{{}}, nil
		}
		return nil, nil

	case subjOK:
		objVar := pp.Object.(parser.Variable)
		set, err := e.reach(ctx, pp.Path, subjConst, forward)
		if err != nil {
			return nil, err
		}
		return bindEach(objVar, set), nil

	case objOK:
		subjVar := pp.Subject.(parser.Variable)
		// Walk the path backwards from the constant object.
		set, err := e.reach(ctx, pp.Path, objConst, reverse)
		if err != nil {
			return nil, err
		}
		return bindEach(subjVar, set), nil

	default:
		subjVar := pp.Subject.(parser.Variable)
		objVar := pp.Object.(parser.Variable)
		var rows []Binding
		for _, start := range e.nodes() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			set, err := e.reach(ctx, pp.Path, start, forward)
			if err != nil {
				return nil, err
			}
			for _, end := range ordered(set) {
				if subjVar == objVar && !rdf.Equal(start, end) {
					continue
				}
				row := Binding{subjVar: start}
				row[objVar] = end
				rows = append(rows, row)
			}
		}
		return rows, nil
	}
}

// reach returns every node reachable from start by traversing the whole
// path once in the given direction. Closure forms run a breadth-first
// traversal; the per-start visited set bounds cyclic graphs.
func (e *Executor) reach(ctx context.Context, path parser.PathExpr, start rdf.Value, dir direction) (nodeSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(nodeSet)
	switch p := path.(type) {
	case parser.PathPredicate:
		for _, v := range e.step(start, p.Predicate, dir) {
			out.add(v)
		}
		return out, nil

	case parser.PathInverse:
		return e.reach(ctx, p.Path, start, dir.flip())

	case parser.PathSequence:
		first, second := p.Left, p.Right
		if dir == reverse {
			// Traversing a/b backwards means b backwards, then a backwards.
			first, second = p.Right, p.Left
		}
		mids, err := e.reach(ctx, first, start, dir)
		if err != nil {
			return nil, err
		}
		for _, mid := range ordered(mids) {
			ends, err := e.reach(ctx, second, mid, dir)
			if err != nil {
				return nil, err
			}
			for _, v := range ordered(ends) {
				out.add(v)
			}
		}
		return out, nil

	case parser.PathAlternative:
		left, err := e.reach(ctx, p.Left, start, dir)
		if err != nil {
			return nil, err
		}
		right, err := e.reach(ctx, p.Right, start, dir)
		if err != nil {
			return nil, err
		}
		for _, v := range ordered(left) {
			out.add(v)
		}
		for _, v := range ordered(right) {
			out.add(v)
		}
		return out, nil

	case parser.PathZeroOrMore:
		return e.closure(ctx, p.Path, start, dir, true)

	case parser.PathOneOrMore:
		return e.closure(ctx, p.Path, start, dir, false)

	case parser.PathZeroOrOne:
		single, err := e.reach(ctx, p.Path, start, dir)
		if err != nil {
			return nil, err
		}
		single.add(start)
		return single, nil

	default:
		return nil, execErrorf(KindUnsupportedPath, "unsupported property path %T", path)
	}
}

// closure runs a breadth-first traversal of the inner path from start. With
// reflexive set, the zero-step pair (start, start) is included.
func (e *Executor) closure(ctx context.Context, inner parser.PathExpr, start rdf.Value, dir direction, reflexive bool) (nodeSet, error) {
	visited := make(nodeSet)
	frontier := []rdf.Value{start}
	if reflexive {
		visited.add(start)
	}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []rdf.Value
		for _, node := range frontier {
			targets, err := e.reach(ctx, inner, node, dir)
			if err != nil {
				return nil, err
			}
			for _, t := range ordered(targets) {
				if visited.add(t) {
					next = append(next, t)
				}
			}
		}
		frontier = next
	}
	// In the non-reflexive case start was never pre-seeded, so it appears in
	// the result exactly when some cycle led back to it.
	return visited, nil
}

// step traverses a single predicate edge. Forward steps use the subject
// index (only IRIs have outgoing edges); reverse steps use the object index.
func (e *Executor) step(from rdf.Value, pred rdf.IRI, dir direction) []rdf.Value {
	var out []rdf.Value
	if dir == forward {
		iri, ok := from.(rdf.IRI)
		if !ok {
			return nil
		}
		for _, t := range e.store.TriplesForSubject(iri) {
			if t.Predicate == pred {
				out = append(out, t.Object)
			}
		}
		return out
	}
	for _, t := range e.store.TriplesForObject(from) {
		if t.Predicate == pred {
			out = append(out, t.Subject)
		}
	}
	return out
}

// nodes returns every distinct term appearing in subject or object
// position, the traversal universe for unanchored paths.
func (e *Executor) nodes() []rdf.Value {
	set := make(nodeSet)
	var out []rdf.Value
	for _, subj := range e.store.Subjects() {
		if set.add(subj) {
			out = append(out, subj)
		}
	}
	for _, t := range e.store.All() {
		if set.add(t.Object) {
			out = append(out, t.Object)
		}
	}
	return out
}

func bindEach(v parser.Variable, set nodeSet) []Binding {
	values := ordered(set)
	rows := make([]Binding, 0, len(values))
	for _, val := range values {
		rows = append(rows, Binding{v: val})
	}
	return rows
}

// ordered returns set contents in deterministic order.
func ordered(set nodeSet) []rdf.Value {
	out := make([]rdf.Value, 0, len(set))
	for _, v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return rdf.Compare(out[i], out[j]) < 0 })
	return out
}

func constantValue(t parser.Term) (rdf.Value, bool) {
	c, ok := t.(parser.Constant)
	if !ok {
		return nil, false
	}
	return c.Value, true
}
