package parser

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokVar     // ?name
	tokIRI     // <...>
	tokLiteral // "...", optionally ^^<datatype>
	tokNumber  // 42, 3.14, -7
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokDot
	tokComma
	tokStar
	tokPlus
	tokQuestion
	tokCaret
	tokSlash
	tokPipe
	tokEq
	tokNeq
	tokLt
	tokGt
	tokLe
	tokGe
	tokAnd
	tokOr
	tokBang
	tokMinus
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokKeyword:
		return "keyword"
	case tokVar:
		return "variable"
	case tokIRI:
		return "IRI"
	case tokLiteral:
		return "literal"
	case tokNumber:
		return "number"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokDot:
		return "'.'"
	case tokComma:
		return "','"
	case tokStar:
		return "'*'"
	case tokPlus:
		return "'+'"
	case tokQuestion:
		return "'?'"
	case tokCaret:
		return "'^'"
	case tokSlash:
		return "'/'"
	case tokPipe:
		return "'|'"
	case tokEq:
		return "'='"
	case tokNeq:
		return "'!='"
	case tokLt:
		return "'<'"
	case tokGt:
		return "'>'"
	case tokLe:
		return "'<='"
	case tokGe:
		return "'>='"
	case tokAnd:
		return "'&&'"
	case tokOr:
		return "'||'"
	case tokBang:
		return "'!'"
	case tokMinus:
		return "'-'"
	default:
		return "token"
	}
}

// token carries its source offset for error reporting. For tokLiteral, text
// is the unquoted value and datatype holds an optional ^^ datatype IRI.
type token struct {
	kind     tokenKind
	text     string
	datatype string
	offset   int
	line     int
	column   int
}

// tokenizer walks the query text byte-wise, tracking line/column for error
// positions. Lines are 1-based, columns 0-based.
type tokenizer struct {
	src    string
	pos    int
	line   int
	column int
}

func newTokenizer(src string) *tokenizer {
	return &tokenizer{src: src, line: 1}
}

func (tz *tokenizer) advance(n int) {
	for i := 0; i < n; i++ {
		if tz.src[tz.pos+i] == '\n' {
			tz.line++
			tz.column = 0
		} else {
			tz.column++
		}
	}
	tz.pos += n
}

func (tz *tokenizer) skipSpace() {
	for tz.pos < len(tz.src) {
		c := tz.src[tz.pos]
		if c == '#' {
			// Comment to end of line.
			for tz.pos < len(tz.src) && tz.src[tz.pos] != '\n' {
				tz.advance(1)
			}
			continue
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return
		}
		tz.advance(1)
	}
}

func (tz *tokenizer) errorf(offset int, format string, args ...interface{}) *ParseError {
	return newParseError(KindSyntax, offset, tz.line, tz.column, format, args...)
}

// tokenize produces the full token stream, ending with tokEOF.
func (tz *tokenizer) tokenize() ([]token, *ParseError) {
	var toks []token
	for {
		tz.skipSpace()
		start := tz.pos
		line, column := tz.line, tz.column
		if tz.pos >= len(tz.src) {
			toks = append(toks, token{kind: tokEOF, offset: start, line: line, column: column})
			return toks, nil
		}

		emit := func(kind tokenKind, text string) {
			toks = append(toks, token{kind: kind, text: text, offset: start, line: line, column: column})
		}

		c := tz.src[tz.pos]
		switch {
		case c == '<':
			// Could be an IRI or a comparison operator. IRIs never contain
			// spaces; anything else is treated as '<' or '<='.
			if end := strings.IndexByte(tz.src[tz.pos+1:], '>'); end >= 0 && !strings.ContainsAny(tz.src[tz.pos+1:tz.pos+1+end], " \t\n") {
				iri := tz.src[tz.pos+1 : tz.pos+1+end]
				tz.advance(end + 2)
				emit(tokIRI, iri)
				continue
			}
			if tz.pos+1 < len(tz.src) && tz.src[tz.pos+1] == '=' {
				tz.advance(2)
				emit(tokLe, "<=")
				continue
			}
			// "<http://ex/a" with no closing '>' and no whitespace to the end
			// of input can only be an unterminated IRI, not a comparison.
			if rest := tz.src[tz.pos:]; !strings.ContainsRune(rest, '>') && !strings.ContainsAny(rest, " \t\n") {
				return nil, newParseError(KindUnterminated, start, line, column, "unterminated IRI")
			}
			tz.advance(1)
			emit(tokLt, "<")
		case c == '"':
			text, datatype, n, err := tz.scanLiteral(start, line, column)
			if err != nil {
				return nil, err
			}
			tz.advance(n)
			toks = append(toks, token{kind: tokLiteral, text: text, datatype: datatype, offset: start, line: line, column: column})
		case c == '?':
			if tz.pos+1 < len(tz.src) && isNameByte(tz.src[tz.pos+1]) {
				end := tz.pos + 1
				for end < len(tz.src) && isNameByte(tz.src[end]) {
					end++
				}
				name := tz.src[tz.pos+1 : end]
				tz.advance(end - tz.pos)
				emit(tokVar, name)
				continue
			}
			tz.advance(1)
			emit(tokQuestion, "?")
		case c >= '0' && c <= '9':
			end := tz.pos
			sawDot := false
			for end < len(tz.src) && (isDigit(tz.src[end]) || (tz.src[end] == '.' && !sawDot && end+1 < len(tz.src) && isDigit(tz.src[end+1]))) {
				if tz.src[end] == '.' {
					sawDot = true
				}
				end++
			}
			num := tz.src[tz.pos:end]
			tz.advance(end - tz.pos)
			emit(tokNumber, num)
		case isNameStart(c):
			end := tz.pos
			for end < len(tz.src) && isNameByte(tz.src[end]) {
				end++
			}
			word := tz.src[tz.pos:end]
			tz.advance(end - tz.pos)
			emit(tokKeyword, strings.ToUpper(word))
		default:
			two := ""
			if tz.pos+1 < len(tz.src) {
				two = tz.src[tz.pos : tz.pos+2]
			}
			switch {
			case two == "!=":
				tz.advance(2)
				emit(tokNeq, "!=")
			case two == ">=":
				tz.advance(2)
				emit(tokGe, ">=")
			case two == "&&":
				tz.advance(2)
				emit(tokAnd, "&&")
			case two == "||":
				tz.advance(2)
				emit(tokOr, "||")
			default:
				kind, ok := singleByteToken(c)
				if !ok {
					return nil, tz.errorf(start, "unexpected character %q", string(c))
				}
				tz.advance(1)
				emit(kind, string(c))
			}
		}
	}
}

// scanLiteral reads a quoted literal starting at tz.pos, returning the
// unquoted text, optional ^^<datatype>, and the byte length consumed.
func (tz *tokenizer) scanLiteral(start, line, column int) (text, datatype string, n int, err *ParseError) {
	var sb strings.Builder
	i := tz.pos + 1
	for {
		if i >= len(tz.src) {
			return "", "", 0, newParseError(KindUnterminated, start, line, column, "unterminated string literal")
		}
		c := tz.src[i]
		if c == '"' {
			i++
			break
		}
		if c == '\\' {
			if i+1 >= len(tz.src) {
				return "", "", 0, newParseError(KindUnterminated, start, line, column, "unterminated string literal")
			}
			switch tz.src[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				return "", "", 0, newParseError(KindSyntax, start+i-tz.pos, line, column, "unknown escape sequence \\%s", string(tz.src[i+1]))
			}
			i += 2
			continue
		}
		sb.WriteByte(c)
		i++
	}
	// Optional datatype suffix: "text"^^<iri>
	if i+1 < len(tz.src) && tz.src[i] == '^' && tz.src[i+1] == '^' {
		j := i + 2
		if j >= len(tz.src) || tz.src[j] != '<' {
			return "", "", 0, newParseError(KindSyntax, start, line, column, "expected <datatype IRI> after ^^")
		}
		end := strings.IndexByte(tz.src[j+1:], '>')
		if end < 0 {
			return "", "", 0, newParseError(KindUnterminated, start, line, column, "unterminated datatype IRI")
		}
		datatype = tz.src[j+1 : j+1+end]
		i = j + end + 2
	}
	return sb.String(), datatype, i - tz.pos, nil
}

func singleByteToken(c byte) (tokenKind, bool) {
	switch c {
	case '{':
		return tokLBrace, true
	case '}':
		return tokRBrace, true
	case '(':
		return tokLParen, true
	case ')':
		return tokRParen, true
	case '.':
		return tokDot, true
	case ',':
		return tokComma, true
	case '*':
		return tokStar, true
	case '+':
		return tokPlus, true
	case '^':
		return tokCaret, true
	case '/':
		return tokSlash, true
	case '|':
		return tokPipe, true
	case '=':
		return tokEq, true
	case '>':
		return tokGt, true
	case '!':
		return tokBang, true
	case '-':
		return tokMinus, true
	default:
		return tokEOF, false
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isNameByte(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || isDigit(c)
}
