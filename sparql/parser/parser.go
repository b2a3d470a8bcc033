package parser

import (
	"strconv"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
)

// Parse parses query text into an AST. The returned error, when non-nil, is
// always a *ParseError carrying the source position of the failure.
func Parse(src string) (*Query, error) {
	toks, perr := newTokenizer(src).tokenize()
	if perr != nil {
		return nil, perr
	}
	p := &parser{src: src, toks: toks}
	q, perr := p.parseQuery()
	if perr != nil {
		return nil, perr
	}
	return q, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) cur() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.cur().kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) at(kind tokenKind) bool {
	return p.cur().kind == kind
}

func (p *parser) atKeyword(word string) bool {
	return p.cur().kind == tokKeyword && p.cur().text == word
}

func (p *parser) expect(kind tokenKind) (token, *ParseError) {
	if !p.at(kind) {
		return token{}, p.errHere("expected %s, found %s", kind, p.describeCur())
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(word string) *ParseError {
	if !p.atKeyword(word) {
		return p.errHere("expected %s, found %s", word, p.describeCur())
	}
	p.advance()
	return nil
}

func (p *parser) describeCur() string {
	t := p.cur()
	if t.kind == tokEOF {
		return "end of query"
	}
	return strconv.Quote(t.text)
}

func (p *parser) errHere(format string, args ...interface{}) *ParseError {
	t := p.cur()
	return newParseError(KindSyntax, t.offset, t.line, t.column, format, args...)
}

func (p *parser) parseQuery() (*Query, *ParseError) {
	t := p.cur()
	if t.kind != tokKeyword {
		return nil, newParseError(KindUnknownForm, t.offset, t.line, t.column,
			"query must begin with SELECT, CONSTRUCT, ASK, or DESCRIBE")
	}
	var (
		q    *Query
		perr *ParseError
	)
	switch t.text {
	case "SELECT":
		q, perr = p.parseSelect()
	case "CONSTRUCT":
		q, perr = p.parseConstruct()
	case "ASK":
		q, perr = p.parseAsk()
	case "DESCRIBE":
		q, perr = p.parseDescribe()
	default:
		return nil, newParseError(KindUnknownForm, t.offset, t.line, t.column,
			"unknown query form %s: must be SELECT, CONSTRUCT, ASK, or DESCRIBE", t.text)
	}
	if perr != nil {
		return nil, perr
	}
	if !p.at(tokEOF) {
		return nil, p.errHere("unexpected %s after end of query", p.describeCur())
	}
	return q, nil
}

func (p *parser) parseSelect() (*Query, *ParseError) {
	p.advance() // SELECT
	q := &Query{Form: FormSelect}

	if p.at(tokStar) {
		p.advance()
		q.SelectStar = true
	} else {
		for {
			switch {
			case p.at(tokVar):
				q.Select = append(q.Select, SelectItem{Var: Variable(p.advance().text)})
			case p.at(tokLParen):
				item, perr := p.parseAliasedAggregate()
				if perr != nil {
					return nil, perr
				}
				q.Select = append(q.Select, *item)
			default:
				if len(q.Select) == 0 {
					return nil, p.errHere("SELECT requires at least one variable or aggregate")
				}
				goto whereClause
			}
		}
	}

whereClause:
	if perr := p.expectKeyword("WHERE"); perr != nil {
		return nil, perr
	}
	where, perr := p.parseGroup()
	if perr != nil {
		return nil, perr
	}
	q.Where = where
	if perr := p.parseModifiers(q); perr != nil {
		return nil, perr
	}
	return q, nil
}

// parseAliasedAggregate parses (COUNT(?x) AS ?n) in a SELECT list.
func (p *parser) parseAliasedAggregate() (*SelectItem, *ParseError) {
	if _, perr := p.expect(tokLParen); perr != nil {
		return nil, perr
	}
	agg, perr := p.parseAggregate()
	if perr != nil {
		return nil, perr
	}
	if perr := p.expectKeyword("AS"); perr != nil {
		return nil, perr
	}
	alias, perr := p.expect(tokVar)
	if perr != nil {
		return nil, perr
	}
	if _, perr := p.expect(tokRParen); perr != nil {
		return nil, perr
	}
	return &SelectItem{Agg: agg, Alias: Variable(alias.text)}, nil
}

func (p *parser) parseAggregate() (*AggregateExpr, *ParseError) {
	var fn AggFn
	switch {
	case p.atKeyword("COUNT"):
		fn = AggCount
	case p.atKeyword("SUM"):
		fn = AggSum
	case p.atKeyword("AVG"):
		fn = AggAvg
	case p.atKeyword("MIN"):
		fn = AggMin
	case p.atKeyword("MAX"):
		fn = AggMax
	default:
		return nil, p.errHere("expected aggregate function, found %s", p.describeCur())
	}
	p.advance()
	if _, perr := p.expect(tokLParen); perr != nil {
		return nil, perr
	}
	agg := &AggregateExpr{Fn: fn}
	if p.at(tokStar) {
		if fn != AggCount {
			return nil, p.errHere("only COUNT accepts *")
		}
		p.advance()
		agg.Star = true
	} else {
		v, perr := p.expect(tokVar)
		if perr != nil {
			return nil, perr
		}
		agg.Var = Variable(v.text)
	}
	if _, perr := p.expect(tokRParen); perr != nil {
		return nil, perr
	}
	return agg, nil
}

func (p *parser) parseConstruct() (*Query, *ParseError) {
	p.advance() // CONSTRUCT
	q := &Query{Form: FormConstruct}
	if _, perr := p.expect(tokLBrace); perr != nil {
		return nil, perr
	}
	for !p.at(tokRBrace) {
		tp, perr := p.parseTemplateTriple()
		if perr != nil {
			return nil, perr
		}
		q.Construct = append(q.Construct, *tp)
		if p.at(tokDot) {
			p.advance()
		}
	}
	p.advance() // }
	if perr := p.expectKeyword("WHERE"); perr != nil {
		return nil, perr
	}
	where, perr := p.parseGroup()
	if perr != nil {
		return nil, perr
	}
	q.Where = where
	if perr := p.parseModifiers(q); perr != nil {
		return nil, perr
	}
	return q, nil
}

func (p *parser) parseAsk() (*Query, *ParseError) {
	p.advance() // ASK
	q := &Query{Form: FormAsk}
	if p.atKeyword("WHERE") {
		p.advance()
	}
	where, perr := p.parseGroup()
	if perr != nil {
		return nil, perr
	}
	q.Where = where
	return q, nil
}

func (p *parser) parseDescribe() (*Query, *ParseError) {
	p.advance() // DESCRIBE
	q := &Query{Form: FormDescribe}
	for {
		switch p.cur().kind {
		case tokIRI:
			q.Describe = append(q.Describe, Constant{Value: rdf.IRI(p.advance().text)})
			continue
		case tokVar:
			q.Describe = append(q.Describe, Variable(p.advance().text))
			continue
		}
		break
	}
	if len(q.Describe) == 0 {
		return nil, p.errHere("DESCRIBE requires at least one IRI or variable")
	}
	if p.atKeyword("WHERE") {
		p.advance()
		where, perr := p.parseGroup()
		if perr != nil {
			return nil, perr
		}
		q.Where = where
	}
	return q, nil
}

// parseGroup parses a braced graph pattern: triple statements, OPTIONAL,
// FILTER, nested groups, and UNION between groups.
func (p *parser) parseGroup() (GraphPattern, *ParseError) {
	if _, perr := p.expect(tokLBrace); perr != nil {
		return nil, perr
	}
	group := GroupPattern{}
	for !p.at(tokRBrace) {
		switch {
		case p.at(tokEOF):
			return nil, p.errHere("unclosed graph pattern: expected '}'")
		case p.atKeyword("OPTIONAL"):
			p.advance()
			inner, perr := p.parseGroup()
			if perr != nil {
				return nil, perr
			}
			group.Patterns = append(group.Patterns, OptionalPattern{Pattern: inner})
		case p.atKeyword("FILTER"):
			p.advance()
			if _, perr := p.expect(tokLParen); perr != nil {
				return nil, perr
			}
			expr, perr := p.parseExpr()
			if perr != nil {
				return nil, perr
			}
			if _, perr := p.expect(tokRParen); perr != nil {
				return nil, perr
			}
			group.Patterns = append(group.Patterns, FilterPattern{Expr: expr})
		case p.at(tokLBrace):
			sub, perr := p.parseGroup()
			if perr != nil {
				return nil, perr
			}
			for p.atKeyword("UNION") {
				p.advance()
				right, perr := p.parseGroup()
				if perr != nil {
					return nil, perr
				}
				sub = UnionPattern{Left: sub, Right: right}
			}
			group.Patterns = append(group.Patterns, sub)
		default:
			stmt, perr := p.parseTripleStatement()
			if perr != nil {
				return nil, perr
			}
			group.Patterns = append(group.Patterns, stmt)
		}
		if p.at(tokDot) {
			p.advance()
		}
	}
	p.advance() // }
	return group, nil
}

// parseTripleStatement parses one subject-predicate-object statement. The
// predicate position accepts a variable, a plain IRI, or a property path;
// a plain IRI yields a TriplePattern, a path a PathPattern.
func (p *parser) parseTripleStatement() (GraphPattern, *ParseError) {
	subj, perr := p.parseSubject()
	if perr != nil {
		return nil, perr
	}

	if p.at(tokVar) {
		pred := Variable(p.advance().text)
		obj, perr := p.parseObject()
		if perr != nil {
			return nil, perr
		}
		return TriplePattern{Subject: subj, Predicate: pred, Object: obj}, nil
	}

	path, perr := p.parsePathAlternative()
	if perr != nil {
		return nil, perr
	}
	obj, perr := p.parseObject()
	if perr != nil {
		return nil, perr
	}
	if pp, plain := path.(PathPredicate); plain {
		return TriplePattern{Subject: subj, Predicate: Constant{Value: pp.Predicate}, Object: obj}, nil
	}
	return PathPattern{Subject: subj, Path: path, Object: obj}, nil
}

func (p *parser) parseTemplateTriple() (*TriplePattern, *ParseError) {
	subj, perr := p.parseSubject()
	if perr != nil {
		return nil, perr
	}
	var pred Term
	switch p.cur().kind {
	case tokVar:
		pred = Variable(p.advance().text)
	case tokIRI:
		pred = Constant{Value: rdf.IRI(p.advance().text)}
	default:
		return nil, p.errHere("expected predicate, found %s", p.describeCur())
	}
	obj, perr := p.parseObject()
	if perr != nil {
		return nil, perr
	}
	return &TriplePattern{Subject: subj, Predicate: pred, Object: obj}, nil
}

func (p *parser) parseSubject() (Term, *ParseError) {
	switch p.cur().kind {
	case tokVar:
		return Variable(p.advance().text), nil
	case tokIRI:
		return Constant{Value: rdf.IRI(p.advance().text)}, nil
	default:
		return nil, p.errHere("expected subject (variable or IRI), found %s", p.describeCur())
	}
}

func (p *parser) parseObject() (Term, *ParseError) {
	switch p.cur().kind {
	case tokVar:
		return Variable(p.advance().text), nil
	case tokIRI:
		return Constant{Value: rdf.IRI(p.advance().text)}, nil
	case tokLiteral:
		t := p.advance()
		return Constant{Value: rdf.Literal{Text: t.text, Datatype: rdf.IRI(t.datatype)}}, nil
	case tokNumber:
		return Constant{Value: rdf.Literal{Text: p.advance().text}}, nil
	default:
		return nil, p.errHere("expected object (variable, IRI, or literal), found %s", p.describeCur())
	}
}

// Property paths, precedence low to high: '|', '/', postfix * + ?, primary.

func (p *parser) parsePathAlternative() (PathExpr, *ParseError) {
	left, perr := p.parsePathSequence()
	if perr != nil {
		return nil, perr
	}
	for p.at(tokPipe) {
		p.advance()
		right, perr := p.parsePathSequence()
		if perr != nil {
			return nil, perr
		}
		left = PathAlternative{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePathSequence() (PathExpr, *ParseError) {
	left, perr := p.parsePathElt()
	if perr != nil {
		return nil, perr
	}
	for p.at(tokSlash) {
		p.advance()
		right, perr := p.parsePathElt()
		if perr != nil {
			return nil, perr
		}
		left = PathSequence{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePathElt() (PathExpr, *ParseError) {
	prim, perr := p.parsePathPrimary()
	if perr != nil {
		return nil, perr
	}
	for {
		switch p.cur().kind {
		case tokStar:
			p.advance()
			prim = PathZeroOrMore{Path: prim}
		case tokPlus:
			p.advance()
			prim = PathOneOrMore{Path: prim}
		case tokQuestion:
			p.advance()
			prim = PathZeroOrOne{Path: prim}
		default:
			return prim, nil
		}
	}
}

func (p *parser) parsePathPrimary() (PathExpr, *ParseError) {
	switch p.cur().kind {
	case tokCaret:
		p.advance()
		inner, perr := p.parsePathElt()
		if perr != nil {
			return nil, perr
		}
		return PathInverse{Path: inner}, nil
	case tokIRI:
		return PathPredicate{Predicate: rdf.IRI(p.advance().text)}, nil
	case tokLParen:
		p.advance()
		inner, perr := p.parsePathAlternative()
		if perr != nil {
			return nil, perr
		}
		if _, perr := p.expect(tokRParen); perr != nil {
			return nil, perr
		}
		return inner, nil
	default:
		return nil, p.errHere("expected predicate or property path, found %s", p.describeCur())
	}
}

// Solution modifiers: GROUP BY, HAVING, ORDER BY, LIMIT, OFFSET, in any
// order after the WHERE clause.
func (p *parser) parseModifiers(q *Query) *ParseError {
	for {
		switch {
		case p.atKeyword("GROUP"):
			p.advance()
			if perr := p.expectKeyword("BY"); perr != nil {
				return perr
			}
			for p.at(tokVar) {
				q.GroupBy = append(q.GroupBy, Variable(p.advance().text))
			}
			if len(q.GroupBy) == 0 {
				return p.errHere("GROUP BY requires at least one variable")
			}
		case p.atKeyword("HAVING"):
			p.advance()
			wantParen := p.at(tokLParen)
			if wantParen {
				p.advance()
			}
			expr, perr := p.parseExpr()
			if perr != nil {
				return perr
			}
			if wantParen {
				if _, perr := p.expect(tokRParen); perr != nil {
					return perr
				}
			}
			q.Having = expr
		case p.atKeyword("ORDER"):
			p.advance()
			if perr := p.expectKeyword("BY"); perr != nil {
				return perr
			}
			keys, perr := p.parseOrderKeys()
			if perr != nil {
				return perr
			}
			q.OrderBy = keys
		case p.atKeyword("LIMIT"):
			p.advance()
			n, perr := p.parseNonNegativeInt("LIMIT")
			if perr != nil {
				return perr
			}
			q.Limit = &n
		case p.atKeyword("OFFSET"):
			p.advance()
			n, perr := p.parseNonNegativeInt("OFFSET")
			if perr != nil {
				return perr
			}
			q.Offset = &n
		default:
			return nil
		}
	}
}

func (p *parser) parseOrderKeys() ([]OrderKey, *ParseError) {
	var keys []OrderKey
	for {
		switch {
		case p.at(tokVar):
			keys = append(keys, OrderKey{Var: Variable(p.advance().text)})
		case p.atKeyword("ASC"), p.atKeyword("DESC"):
			desc := p.cur().text == "DESC"
			p.advance()
			if _, perr := p.expect(tokLParen); perr != nil {
				return nil, perr
			}
			v, perr := p.expect(tokVar)
			if perr != nil {
				return nil, perr
			}
			if _, perr := p.expect(tokRParen); perr != nil {
				return nil, perr
			}
			keys = append(keys, OrderKey{Var: Variable(v.text), Desc: desc})
		default:
			if len(keys) == 0 {
				return nil, p.errHere("ORDER BY requires at least one sort key")
			}
			return keys, nil
		}
	}
}

func (p *parser) parseNonNegativeInt(clause string) (int, *ParseError) {
	t, perr := p.expect(tokNumber)
	if perr != nil {
		return 0, perr
	}
	n, err := strconv.Atoi(t.text)
	if err != nil || n < 0 {
		return 0, newParseError(KindSyntax, t.offset, t.line, t.column, "%s requires a non-negative integer", clause)
	}
	return n, nil
}

// FILTER/HAVING expressions, precedence low to high:
// || < && < comparison < additive < multiplicative < unary < primary.

func (p *parser) parseExpr() (Expression, *ParseError) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expression, *ParseError) {
	left, perr := p.parseAnd()
	if perr != nil {
		return nil, perr
	}
	for p.at(tokOr) {
		p.advance()
		right, perr := p.parseAnd()
		if perr != nil {
			return nil, perr
		}
		left = BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expression, *ParseError) {
	left, perr := p.parseComparison()
	if perr != nil {
		return nil, perr
	}
	for p.at(tokAnd) {
		p.advance()
		right, perr := p.parseComparison()
		if perr != nil {
			return nil, perr
		}
		left = BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Expression, *ParseError) {
	left, perr := p.parseAdditive()
	if perr != nil {
		return nil, perr
	}
	var op BinaryOp
	switch p.cur().kind {
	case tokEq:
		op = OpEq
	case tokNeq:
		op = OpNeq
	case tokLt:
		op = OpLt
	case tokGt:
		op = OpGt
	case tokLe:
		op = OpLe
	case tokGe:
		op = OpGe
	default:
		return left, nil
	}
	p.advance()
	right, perr := p.parseAdditive()
	if perr != nil {
		return nil, perr
	}
	return BinaryExpr{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseAdditive() (Expression, *ParseError) {
	left, perr := p.parseMultiplicative()
	if perr != nil {
		return nil, perr
	}
	for {
		var op BinaryOp
		switch p.cur().kind {
		case tokPlus:
			op = OpAdd
		case tokMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, perr := p.parseMultiplicative()
		if perr != nil {
			return nil, perr
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expression, *ParseError) {
	left, perr := p.parseUnary()
	if perr != nil {
		return nil, perr
	}
	for {
		var op BinaryOp
		switch p.cur().kind {
		case tokStar:
			op = OpMul
		case tokSlash:
			op = OpDiv
		default:
			return left, nil
		}
		p.advance()
		right, perr := p.parseUnary()
		if perr != nil {
			return nil, perr
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expression, *ParseError) {
	switch p.cur().kind {
	case tokBang:
		p.advance()
		inner, perr := p.parseUnary()
		if perr != nil {
			return nil, perr
		}
		return UnaryExpr{Negate: true, Expr: inner}, nil
	case tokMinus:
		p.advance()
		inner, perr := p.parseUnary()
		if perr != nil {
			return nil, perr
		}
		return UnaryExpr{Negate: false, Expr: inner}, nil
	default:
		return p.parsePrimaryExpr()
	}
}

func (p *parser) parsePrimaryExpr() (Expression, *ParseError) {
	switch p.cur().kind {
	case tokVar:
		return TermExpr{Term: Variable(p.advance().text)}, nil
	case tokIRI:
		return TermExpr{Term: Constant{Value: rdf.IRI(p.advance().text)}}, nil
	case tokLiteral:
		t := p.advance()
		return TermExpr{Term: Constant{Value: rdf.Literal{Text: t.text, Datatype: rdf.IRI(t.datatype)}}}, nil
	case tokNumber:
		return TermExpr{Term: Constant{Value: rdf.Literal{Text: p.advance().text}}}, nil
	case tokLParen:
		p.advance()
		inner, perr := p.parseExpr()
		if perr != nil {
			return nil, perr
		}
		if _, perr := p.expect(tokRParen); perr != nil {
			return nil, perr
		}
		return inner, nil
	case tokKeyword:
		agg, perr := p.parseAggregate()
		if perr != nil {
			return nil, perr
		}
		return *agg, nil
	default:
		return nil, p.errHere("expected expression, found %s", p.describeCur())
	}
}
