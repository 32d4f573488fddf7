package query

import (
	"errors"
	"fmt"
	"strings"
)

// errNotApplicable tells the dispatcher to try the next rule.
var errNotApplicable = errors.New("rule not applicable")

// MalformedOperandError indicates a recognized keyword whose operand text
// does not parse.
type MalformedOperandError struct {
	Op     string
	Detail string
}

func (e *MalformedOperandError) Error() string {
	return fmt.Sprintf("invalid %s operand: %s", e.Op, e.Detail)
}

// UnknownColumnError indicates a column reference that matches no column,
// compared case-insensitively.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column '%s' not found", e.Name)
}

// AmbiguousColumnError indicates a reference matching several columns
// case-insensitively and none exactly.
type AmbiguousColumnError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousColumnError) Error() string {
	quoted := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		quoted[i] = "'" + c + "'"
	}
	return fmt.Sprintf("column '%s' is ambiguous (matches %s)", e.Name, strings.Join(quoted, ", "))
}
