package executor

import (
	"context"
	"strconv"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/optimizer"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
)

// evalAggregate groups the input rows by the GROUP BY variables and reduces
// each group through the aggregate select items. Without GROUP BY the whole
// input forms a single group, so COUNT over no rows still yields one row.
func (e *Executor) evalAggregate(ctx context.Context, p optimizer.Aggregate) ([]Binding, error) {
	rows, err := e.eval(ctx, p.Input)
	if err != nil {
		return nil, err
	}

	type group struct {
		rep  Binding
		rows []Binding
	}
	var (
		order  []string
		groups = make(map[string]*group)
	)
	if len(p.GroupBy) == 0 {
		groups[""] = &group{rep: Binding{}, rows: rows}
		order = append(order, "")
	} else {
		for _, row := range rows {
			key := ""
			for _, v := range p.GroupBy {
				if val, ok := row[v]; ok {
					key += val.Key()
				}
				key += "\x00"
			}
			g, ok := groups[key]
			if !ok {
				g = &group{rep: row}
				groups[key] = g
				order = append(order, key)
			}
			g.rows = append(g.rows, row)
		}
	}

	var out []Binding
	for _, key := range order {
		g := groups[key]
		result := make(Binding)
		for _, v := range p.GroupBy {
			if val, ok := g.rep[v]; ok {
				result[v] = val
			}
		}
		for _, item := range p.Items {
			if item.Agg == nil {
				// Plain variables ride along only when they are group keys;
				// the optimizer rejects anything else.
				continue
			}
			val, bound, err := computeAggregate(*item.Agg, g.rows)
			if err != nil {
				return nil, err
			}
			if bound {
				result[item.Alias] = val
			}
		}
		if p.Having != nil {
			keep, err := evalBool(p.Having, result, &groupCtx{rows: g.rows})
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		out = append(out, result)
	}
	return out, nil
}

// computeAggregate reduces one group. The second return is false when the
// aggregate is undefined for the group (MIN/MAX/AVG over no bound values).
func computeAggregate(agg parser.AggregateExpr, rows []Binding) (rdf.Value, bool, error) {
	if agg.Fn == parser.AggCount {
		if agg.Star {
			return numericLiteral(float64(len(rows))), true, nil
		}
		n := 0
		for _, row := range rows {
			if _, ok := row[agg.Var]; ok {
				n++
			}
		}
		return numericLiteral(float64(n)), true, nil
	}

	switch agg.Fn {
	case parser.AggSum, parser.AggAvg:
		sum := 0.0
		count := 0
		for _, row := range rows {
			v, ok := row[agg.Var]
			if !ok {
				continue
			}
			lit, ok := v.(rdf.Literal)
			if !ok {
				return nil, false, execErrorf(KindTypeMismatch, "%s(?%s): value %s is not numeric", agg.Fn, agg.Var, v)
			}
			n, err := strconv.ParseFloat(lit.Text, 64)
			if err != nil {
				return nil, false, execErrorf(KindTypeMismatch, "%s(?%s): value %q is not numeric", agg.Fn, agg.Var, lit.Text)
			}
			sum += n
			count++
		}
		if agg.Fn == parser.AggSum {
			return numericLiteral(sum), true, nil
		}
		if count == 0 {
			return nil, false, nil
		}
		return numericLiteral(sum / float64(count)), true, nil

	default: // MIN, MAX
		var (
			best  rdf.Value
			found bool
		)
		for _, row := range rows {
			v, ok := row[agg.Var]
			if !ok {
				continue
			}
			if !found {
				best = v
				found = true
				continue
			}
			cmp := rdf.Compare(v, best)
			if (agg.Fn == parser.AggMin && cmp < 0) || (agg.Fn == parser.AggMax && cmp > 0) {
				best = v
			}
		}
		return best, found, nil
	}
}

func numericLiteral(n float64) rdf.Literal {
	return rdf.Literal{Text: strconv.FormatFloat(n, 'f', -1, 64)}
}
