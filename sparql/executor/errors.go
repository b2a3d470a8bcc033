package executor

import "fmt"

// ErrKind categorizes execution failures.
type ErrKind string

const (
	KindUnboundVariable ErrKind = "unbound-variable"
	KindTypeMismatch    ErrKind = "type-mismatch"
	KindDivisionByZero  ErrKind = "division-by-zero"
	KindUnsupportedPath ErrKind = "unsupported-path"
	KindBadPlan         ErrKind = "bad-plan"
)

// ExecutionError reports a failure while evaluating a plan. Evaluation
// errors abort the query; they never silently drop rows.
type ExecutionError struct {
	Kind    ErrKind
	Message string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error (%s): %s", e.Kind, e.Message)
}

func execErrorf(kind ErrKind, format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
