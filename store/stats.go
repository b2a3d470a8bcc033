package store

import (
	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
)

// Statistics is a point-in-time summary of a store, consumed by the query
// optimizer to bias join ordering. Counts are advisory; the optimizer never
// requires them to be exact.
type Statistics struct {
	TotalTriples    int
	PredicateCounts map[rdf.IRI]int
}

// Stats computes statistics for the store. Cheap enough to call once per
// store build and cache alongside the store reference.
func (s *TripleStore) Stats() Statistics {
	counts := make(map[rdf.IRI]int, len(s.byPredicate))
	for pred, idx := range s.byPredicate {
		counts[pred] = len(idx)
	}
	return Statistics{
		TotalTriples:    len(s.triples),
		PredicateCounts: counts,
	}
}

// PredicateCount returns the number of triples carrying pred, zero for an
// unknown predicate.
func (st Statistics) PredicateCount(pred rdf.IRI) int {
	return st.PredicateCounts[pred]
}
