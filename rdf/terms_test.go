package rdf

import "testing"

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same IRI", IRI("http://ex/a"), IRI("http://ex/a"), true},
		{"different IRI", IRI("http://ex/a"), IRI("http://ex/b"), false},
		{"same literal", NewLiteral("Alice"), NewLiteral("Alice"), true},
		{"literal vs typed literal", NewLiteral("42"), Literal{Text: "42", Datatype: "http://www.w3.org/2001/XMLSchema#integer"}, false},
		{"IRI vs literal with same text", IRI("Alice"), NewLiteral("Alice"), false},
		{"blank vs blank", Blank("b0"), Blank("b0"), true},
		{"blank vs IRI", Blank("b0"), IRI("b0"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareRanksKinds(t *testing.T) {
	// IRIs sort before literals, literals before blanks.
	if Compare(IRI("z"), NewLiteral("a")) >= 0 {
		t.Error("IRI should sort before literal")
	}
	if Compare(NewLiteral("z"), Blank("a")) >= 0 {
		t.Error("literal should sort before blank")
	}
}

func TestCompareNumeric(t *testing.T) {
	// "9" sorts before "10" numerically even though it sorts after
	// lexicographically.
	if got := Compare(NewLiteral("9"), NewLiteral("10")); got != -1 {
		t.Errorf("Compare(9, 10) = %d, want -1", got)
	}
	if got := Compare(NewLiteral("2.5"), NewLiteral("2.5")); got != 0 {
		t.Errorf("Compare(2.5, 2.5) = %d, want 0", got)
	}
	// Mixed numeric and text falls back to lexicographic keys.
	if got := Compare(NewLiteral("10"), NewLiteral("Alice")); got != -1 {
		t.Errorf("Compare(10, Alice) = %d, want -1", got)
	}
}

func TestTripleString(t *testing.T) {
	tr := T("http://ex/a", "http://ex/name", NewLiteral("Alice"))
	want := `<http://ex/a> <http://ex/name> "Alice" .`
	if got := tr.String(); got != want {
		t.Errorf("Triple.String() = %q, want %q", got, want)
	}
}
