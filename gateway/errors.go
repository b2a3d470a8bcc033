package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/executor"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/optimizer"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
)

// Error codes carried in structured error responses.
const (
	CodeParseError     = "parse_error"
	CodeOptimizeError  = "optimize_error"
	CodeExecutionError = "execution_error"
	CodeTimeout        = "timeout"
	CodeNotFound       = "not_found"
	CodeBadArguments   = "bad_arguments"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal"
)

// ProtocolError is the structured error surfaced to protocol callers:
// a stable code plus a human-readable message. Logic-level failures are
// always recoverable per-request; only transport failures are fatal.
type ProtocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// payload renders the error as the JSON body of an error response.
func (e *ProtocolError) payload() string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"code":%q,"message":"error encoding failed"}`, e.Code)
	}
	return string(data)
}

func protocolErrorf(code, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// classify maps pipeline errors onto protocol error codes. Parse errors are
// rendered plain: ANSI escapes have no place in a protocol response.
func classify(err error) *ProtocolError {
	var (
		parseErr *parser.ParseError
		optErr   *optimizer.OptimizeError
		execErr  *executor.ExecutionError
		protoErr *ProtocolError
	)
	switch {
	case errors.As(err, &protoErr):
		return protoErr
	case errors.As(err, &parseErr):
		return &ProtocolError{Code: CodeParseError, Message: parseErr.Format(parser.ErrorContextPlain)}
	case errors.As(err, &optErr):
		return &ProtocolError{Code: CodeOptimizeError, Message: optErr.Message}
	case errors.As(err, &execErr):
		return &ProtocolError{Code: CodeExecutionError, Message: execErr.Message}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errors.ErrTimeout):
		return &ProtocolError{Code: CodeTimeout, Message: "query exceeded its time limit"}
	case errors.IsNotFoundError(err):
		return &ProtocolError{Code: CodeNotFound, Message: err.Error()}
	default:
		return &ProtocolError{Code: CodeInternal, Message: err.Error()}
	}
}
