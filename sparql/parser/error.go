package parser

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// ErrorContext indicates where a parse error will be displayed.
type ErrorContext string

const (
	// ErrorContextTerminal renders errors with ANSI colors for CLI use.
	ErrorContextTerminal ErrorContext = "terminal"
	// ErrorContextPlain renders errors without ANSI codes (protocol
	// responses, logs).
	ErrorContextPlain ErrorContext = "plain"
)

// ErrorKind categorizes parse errors for programmatic handling.
type ErrorKind string

const (
	KindSyntax       ErrorKind = "syntax"       // unexpected token
	KindUnterminated ErrorKind = "unterminated" // unclosed string or IRI
	KindUnknownForm  ErrorKind = "unknown-form" // not SELECT/CONSTRUCT/ASK/DESCRIBE
)

// ParseError is a structured parse failure carrying the source position
// where it occurred. Line is 1-based, Column 0-based, Offset a byte offset
// into the query text.
type ParseError struct {
	Kind    ErrorKind
	Message string
	Offset  int
	Line    int
	Column  int
}

// Error implements the error interface with a plain rendering.
func (e *ParseError) Error() string {
	return e.Format(ErrorContextPlain)
}

// Format renders the error for the given display context.
func (e *ParseError) Format(ctx ErrorContext) string {
	pos := fmt.Sprintf("line %d, column %d", e.Line, e.Column)
	if ctx == ErrorContextTerminal {
		return fmt.Sprintf("%s %s (%s)", pterm.Red("parse error:"), e.Message, pterm.Gray(pos))
	}
	return fmt.Sprintf("parse error: %s (%s)", e.Message, pos)
}

// Annotate renders the error with a caret marking the offending offset in
// the query text, for terminal display.
func (e *ParseError) Annotate(src string) string {
	lines := strings.Split(src, "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return e.Format(ErrorContextTerminal)
	}
	srcLine := lines[e.Line-1]
	caret := strings.Repeat(" ", min(e.Column, len(srcLine))) + "^"
	return fmt.Sprintf("%s\n  %s\n  %s", e.Format(ErrorContextTerminal), srcLine, pterm.Red(caret))
}

func newParseError(kind ErrorKind, offset, line, column int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
		Line:    line,
		Column:  column,
	}
}
