package expr

import "fmt"

// SyntaxError reports a condition that does not parse.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// TypeError reports an operator applied to operands of the wrong kind.
type TypeError struct {
	Op    string
	Left  Kind
	Right Kind
	Msg   string
}

func (e *TypeError) Error() string {
	if e.Msg != "" {
		return "type mismatch: " + e.Msg
	}
	if e.Right == KindInvalid {
		return fmt.Sprintf("type mismatch: cannot apply '%s' to %s", e.Op, e.Left)
	}
	return fmt.Sprintf("type mismatch: cannot apply '%s' to %s and %s", e.Op, e.Left, e.Right)
}
