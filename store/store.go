package store

import (
	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
)

// TripleStore is a frozen, indexed collection of triples. All accessors are
// read-only and safe for unlimited concurrent use; replacing the data set
// means building a new store and swapping the reference.
type TripleStore struct {
	triples     []rdf.Triple
	subjects    []rdf.IRI
	bySubject   map[rdf.IRI][]int
	byPredicate map[rdf.IRI][]int
	byObject    map[string][]int
}

// Len returns the number of triples in the store.
func (s *TripleStore) Len() int {
	return len(s.triples)
}

// TriplesForSubject returns every triple whose subject is subj, in insertion
// order. An unknown subject yields an empty slice, never an error.
func (s *TripleStore) TriplesForSubject(subj rdf.IRI) []rdf.Triple {
	return s.collect(s.bySubject[subj])
}

// TriplesForPredicate returns every triple whose predicate is pred, in
// insertion order.
func (s *TripleStore) TriplesForPredicate(pred rdf.IRI) []rdf.Triple {
	return s.collect(s.byPredicate[pred])
}

// TriplesForObject returns every triple whose object equals obj. Used for
// inverse property-path traversal.
func (s *TripleStore) TriplesForObject(obj rdf.Value) []rdf.Triple {
	return s.collect(s.byObject[obj.Key()])
}

// Subjects returns the distinct subjects in the store in sorted order.
func (s *TripleStore) Subjects() []rdf.IRI {
	out := make([]rdf.IRI, len(s.subjects))
	copy(out, s.subjects)
	return out
}

// All returns a copy of every triple in the store, in insertion order.
func (s *TripleStore) All() []rdf.Triple {
	out := make([]rdf.Triple, len(s.triples))
	copy(out, s.triples)
	return out
}

func (s *TripleStore) collect(idx []int) []rdf.Triple {
	if len(idx) == 0 {
		return nil
	}
	out := make([]rdf.Triple, len(idx))
	for i, n := range idx {
		out[i] = s.triples[n]
	}
	return out
}
