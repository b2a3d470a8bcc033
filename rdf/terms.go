// Package rdf defines the term and triple types shared by the store and the
// query engine. A triple is a subject-predicate-object fact; subjects and
// predicates are IRIs, objects may be any term.
package rdf

import (
	"fmt"
	"strconv"
)

// Value is an RDF term appearing in object position: an IRI, a literal, or a
// blank node. The set of implementations is closed.
type Value interface {
	// Key returns a stable string form used for hashing and equality.
	// Distinct terms never share a key.
	Key() string

	// String renders the term in query syntax (<iri>, "literal", _:blank).
	String() string

	value()
}

// IRI is an internationalized resource identifier.
type IRI string

func (i IRI) Key() string    { return "i:" + string(i) }
func (i IRI) String() string { return "<" + string(i) + ">" }
func (IRI) value()           {}

// Literal is a textual value with an optional datatype IRI.
type Literal struct {
	Text     string
	Datatype IRI
}

func (l Literal) Key() string {
	if l.Datatype != "" {
		return "l:" + l.Text + "^^" + string(l.Datatype)
	}
	return "l:" + l.Text
}

func (l Literal) String() string {
	if l.Datatype != "" {
		return strconv.Quote(l.Text) + "^^" + l.Datatype.String()
	}
	return strconv.Quote(l.Text)
}

func (Literal) value() {}

// NewLiteral returns an untyped literal.
func NewLiteral(text string) Literal {
	return Literal{Text: text}
}

// Blank is a blank-node identifier, scoped to the store it appears in.
type Blank string

func (b Blank) Key() string    { return "b:" + string(b) }
func (b Blank) String() string { return "_:" + string(b) }
func (Blank) value()           {}

// Equal reports whether two terms are the same term.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// Compare orders terms for deterministic output: IRIs, then literals, then
// blanks, each lexicographically. Numeric literals compare numerically when
// both sides parse as numbers.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	la, aok := a.(Literal)
	lb, bok := b.(Literal)
	if aok && bok {
		if na, err := strconv.ParseFloat(la.Text, 64); err == nil {
			if nb, err := strconv.ParseFloat(lb.Text, 64); err == nil {
				switch {
				case na < nb:
					return -1
				case na > nb:
					return 1
				default:
					return 0
				}
			}
		}
	}
	ka, kb := a.Key(), b.Key()
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

func rank(v Value) int {
	switch v.(type) {
	case IRI:
		return 0
	case Literal:
		return 1
	case Blank:
		return 2
	default:
		return 3
	}
}

// Triple is an immutable subject-predicate-object fact.
type Triple struct {
	Subject   IRI
	Predicate IRI
	Object    Value
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject.String(), t.Predicate.String(), t.Object.String())
}

// T is shorthand for constructing a triple.
func T(s, p IRI, o Value) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}
