package types

import (
	"fmt"
	"strings"
)

// ValidationError is a single structured validation failure.
type ValidationError struct {
	Field    string      // dotted/indexed path, e.g. "subtasks[2].dependsOn[0]"
	Expected string      // what was expected
	Actual   interface{} // what was found
	Message  string      // human-readable description / suggested fix
}

// ValidationErrors collects ValidationError and doubles as warnings storage
// when used by a caller that keeps two separate instances (errors, warnings).
type ValidationErrors struct {
	Errors []ValidationError
}

func (v *ValidationErrors) Add(field, expected string, actual interface{}, msg string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:    field,
		Expected: expected,
		Actual:   actual,
		Message:  msg,
	})
}

func (v *ValidationErrors) HasErrors() bool {
	return v != nil && len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	if !v.HasErrors() {
		return "no validation errors"
	}
	if len(v.Errors) == 1 {
		e := v.Errors[0]
		return fmt.Sprintf("validation error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed with %d errors", len(v.Errors))
}

// ToReport renders the errors as a readable multi-line report, the
// structured-error analogue of a log/terminal message rather than a prompt.
func (v *ValidationErrors) ToReport() string {
	if !v.HasErrors() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n\n", len(v.Errors)))
	for i, err := range v.Errors {
		sb.WriteString(fmt.Sprintf("%d. field: %s\n", i+1, err.Field))
		sb.WriteString(fmt.Sprintf("   expected: %s\n", err.Expected))
		sb.WriteString(fmt.Sprintf("   found: %v\n", formatActual(err.Actual)))
		sb.WriteString(fmt.Sprintf("   fix: %s\n", err.Message))
		if i < len(v.Errors)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatActual(actual interface{}) string {
	if actual == nil {
		return "null"
	}
	switch v := actual.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case []string:
		if len(v) == 0 {
			return "[]"
		}
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return fmt.Sprintf("%v", actual)
	}
}
