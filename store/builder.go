// Package store holds the in-memory triple store. Construction and querying
// are split across two types: a Builder accepts inserts, and the TripleStore
// it produces is frozen with no write methods, so mutating a store that
// queries are running against is a compile-time impossibility rather than a
// runtime check.
package store

import (
	"sort"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
)

// Builder accumulates triples during the build phase. Builders are not safe
// for concurrent use; build on one goroutine, then share the frozen store.
type Builder struct {
	triples []rdf.Triple
	seen    map[string]struct{}
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// Insert adds a triple. Duplicate triples are collapsed to one fact.
func (b *Builder) Insert(t rdf.Triple) {
	key := string(t.Subject) + "\x00" + string(t.Predicate) + "\x00" + t.Object.Key()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.triples = append(b.triples, t)
}

// InsertAll adds a batch of triples.
func (b *Builder) InsertAll(triples []rdf.Triple) {
	for _, t := range triples {
		b.Insert(t)
	}
}

// Len reports how many distinct triples have been inserted so far.
func (b *Builder) Len() int {
	return len(b.triples)
}

// Build freezes the accumulated triples into an indexed, read-only store.
// The builder may be reused afterwards; the store owns its own copy.
func (b *Builder) Build() *TripleStore {
	triples := make([]rdf.Triple, len(b.triples))
	copy(triples, b.triples)

	s := &TripleStore{
		triples:     triples,
		bySubject:   make(map[rdf.IRI][]int),
		byPredicate: make(map[rdf.IRI][]int),
		byObject:    make(map[string][]int),
	}
	for i, t := range triples {
		s.bySubject[t.Subject] = append(s.bySubject[t.Subject], i)
		s.byPredicate[t.Predicate] = append(s.byPredicate[t.Predicate], i)
		s.byObject[t.Object.Key()] = append(s.byObject[t.Object.Key()], i)
	}
	// Deterministic subject iteration order for scans and dumps.
	s.subjects = make([]rdf.IRI, 0, len(s.bySubject))
	for subj := range s.bySubject {
		s.subjects = append(s.subjects, subj)
	}
	sort.Slice(s.subjects, func(i, j int) bool { return s.subjects[i] < s.subjects[j] })
	return s
}
