package executor

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
)

// Binding maps variables to concrete terms for one result row. Absent keys
// are unbound (possible under OPTIONAL).
type Binding map[parser.Variable]rdf.Value

// clone copies a binding so operators can extend rows without aliasing.
func (b Binding) clone() Binding {
	out := make(Binding, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// compatible reports whether two bindings agree on every shared variable.
func (b Binding) compatible(other Binding) bool {
	for k, v := range b {
		if ov, ok := other[k]; ok && !rdf.Equal(v, ov) {
			return false
		}
	}
	return true
}

// merge combines two compatible bindings.
func (b Binding) merge(other Binding) Binding {
	out := b.clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Result is the outcome of executing a query. Variables and Bindings are
// populated for SELECT; Ask for ASK; Triples for CONSTRUCT and DESCRIBE.
type Result struct {
	Form      parser.Form
	Variables []parser.Variable
	Bindings  []Binding
	Ask       bool
	Triples   []rdf.Triple
}

// jsonTerm is the SPARQL-results-JSON rendering of one term.
type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
}

func termToJSON(v rdf.Value) jsonTerm {
	switch t := v.(type) {
	case rdf.IRI:
		return jsonTerm{Type: "uri", Value: string(t)}
	case rdf.Literal:
		return jsonTerm{Type: "literal", Value: t.Text, Datatype: string(t.Datatype)}
	case rdf.Blank:
		return jsonTerm{Type: "bnode", Value: string(t)}
	default:
		return jsonTerm{Type: "literal", Value: v.String()}
	}
}

// JSON renders the result in the SPARQL query-results JSON layout: a head
// listing variables and a results.bindings array, or {"boolean": ...} for
// ASK, or a triples array for CONSTRUCT/DESCRIBE.
func (r *Result) JSON() ([]byte, error) {
	switch r.Form {
	case parser.FormAsk:
		return json.Marshal(map[string]interface{}{"boolean": r.Ask})
	case parser.FormConstruct, parser.FormDescribe:
		triples := make([]map[string]jsonTerm, 0, len(r.Triples))
		for _, t := range r.Triples {
			triples = append(triples, map[string]jsonTerm{
				"subject":   termToJSON(t.Subject),
				"predicate": termToJSON(t.Predicate),
				"object":    termToJSON(t.Object),
			})
		}
		return json.Marshal(map[string]interface{}{"triples": triples})
	default:
		vars := make([]string, len(r.Variables))
		for i, v := range r.Variables {
			vars[i] = string(v)
		}
		rows := make([]map[string]jsonTerm, 0, len(r.Bindings))
		for _, b := range r.Bindings {
			row := make(map[string]jsonTerm, len(b))
			for v, val := range b {
				row[string(v)] = termToJSON(val)
			}
			rows = append(rows, row)
		}
		return json.Marshal(map[string]interface{}{
			"head":    map[string]interface{}{"vars": vars},
			"results": map[string]interface{}{"bindings": rows},
		})
	}
}

// Text renders the result as a plain table (SELECT), a yes/no line (ASK),
// or triple statements (CONSTRUCT/DESCRIBE).
func (r *Result) Text() string {
	switch r.Form {
	case parser.FormAsk:
		if r.Ask {
			return "yes"
		}
		return "no"
	case parser.FormConstruct, parser.FormDescribe:
		var sb strings.Builder
		for _, t := range r.Triples {
			sb.WriteString(t.String())
			sb.WriteByte('\n')
		}
		return sb.String()
	default:
		return r.bindingTable()
	}
}

func (r *Result) bindingTable() string {
	vars := r.Variables
	if len(vars) == 0 {
		// No projection list, derive the columns from the rows.
		seen := make(map[parser.Variable]struct{})
		for _, b := range r.Bindings {
			for v := range b {
				seen[v] = struct{}{}
			}
		}
		for v := range seen {
			vars = append(vars, v)
		}
		sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	}

	widths := make([]int, len(vars))
	cells := make([][]string, len(r.Bindings))
	for i, v := range vars {
		widths[i] = len(v) + 1
	}
	for ri, b := range r.Bindings {
		row := make([]string, len(vars))
		for ci, v := range vars {
			if val, ok := b[v]; ok {
				row[ci] = val.String()
			}
			if len(row[ci]) > widths[ci] {
				widths[ci] = len(row[ci])
			}
		}
		cells[ri] = row
	}

	var sb strings.Builder
	for ci, v := range vars {
		sb.WriteString(pad("?"+string(v), widths[ci]))
		sb.WriteString("  ")
	}
	sb.WriteByte('\n')
	for _, row := range cells {
		for ci, cell := range row {
			sb.WriteString(pad(cell, widths[ci]))
			sb.WriteString("  ")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
