// Package shape validates invocations against the argument shapes the
// catalogue declares: known command, required arguments present, argument
// values of the declared type, no undeclared arguments.
package shape

import (
	"fmt"
	"strconv"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/registry"
)

// Result is the outcome of validating one invocation. Valid is true only
// when Errors is empty.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validator checks invocations against a catalogue snapshot. Immutable
// after construction; rebuild when the catalogue changes.
type Validator struct {
	cat *registry.Catalogue
}

// NewValidator wraps a catalogue.
func NewValidator(cat *registry.Catalogue) *Validator {
	return &Validator{cat: cat}
}

// Validate checks a command invocation. An unknown command short-circuits;
// otherwise every argument problem is collected so the caller sees the full
// list at once.
func (v *Validator) Validate(command string, args map[string]interface{}) Result {
	cmd, ok := v.cat.Command(command)
	if !ok {
		return Result{Errors: []string{fmt.Sprintf("unknown command %q", command)}}
	}

	var problems []string
	declared := make(map[string]registry.Arg, len(cmd.Args))
	for _, arg := range cmd.Args {
		declared[arg.Name] = arg
		val, present := args[arg.Name]
		if !present {
			if arg.Required {
				problems = append(problems, fmt.Sprintf("missing required argument %q", arg.Name))
			}
			continue
		}
		if msg := checkType(arg, val); msg != "" {
			problems = append(problems, msg)
		}
	}
	for name := range args {
		if _, known := declared[name]; !known {
			problems = append(problems, fmt.Sprintf("unknown argument %q", name))
		}
	}

	return Result{Valid: len(problems) == 0, Errors: problems}
}

// checkType verifies one value against the declared argument type. JSON
// decoding yields float64 for all numbers, so int acceptance checks for a
// whole-number float as well; strings holding a parseable value are
// accepted for numeric and boolean types to accommodate CLI callers.
func checkType(arg registry.Arg, val interface{}) string {
	mismatch := func() string {
		return fmt.Sprintf("argument %q must be of type %s", arg.Name, arg.Type)
	}
	switch arg.Type {
	case registry.TypeString:
		if _, ok := val.(string); !ok {
			return mismatch()
		}
	case registry.TypeInt:
		switch n := val.(type) {
		case int, int64:
		case float64:
			if n != float64(int64(n)) {
				return mismatch()
			}
		case string:
			if _, err := strconv.ParseInt(n, 10, 64); err != nil {
				return mismatch()
			}
		default:
			return mismatch()
		}
	case registry.TypeFloat:
		switch n := val.(type) {
		case float64, int, int64:
		case string:
			if _, err := strconv.ParseFloat(n, 64); err != nil {
				return mismatch()
			}
		default:
			return mismatch()
		}
	case registry.TypeBool:
		switch b := val.(type) {
		case bool:
		case string:
			if _, err := strconv.ParseBool(b); err != nil {
				return mismatch()
			}
		default:
			return mismatch()
		}
	}
	return ""
}
