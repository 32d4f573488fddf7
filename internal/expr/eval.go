// Package expr evaluates the restricted boolean conditions accepted by the
// filter instruction: comparisons, arithmetic and and/or/not over column
// references and literals. It never executes anything beyond that grammar.
package expr

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
)

// Resolver maps a column reference as written to a stored column name.
type Resolver func(name string) (string, error)

// Program is a condition bound to the columns of one table.
type Program struct {
	src   string
	root  Node
	names []string
	index map[*Ident]int
}

// Compile parses src, binds identifiers to columns of df and checks operand
// kinds against the column types. A nil resolve uses exact-name matching.
func Compile(src string, df dataframe.DataFrame, resolve Resolver) (*Program, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if resolve == nil {
		resolve = exactResolver(df.Names())
	}
	prog := &Program{src: src, root: root, index: map[*Ident]int{}}
	pos := map[string]int{}
	for i, n := range df.Names() {
		if _, ok := pos[n]; !ok {
			pos[n] = i
		}
	}
	types := df.Types()
	kinds := map[*Ident]Kind{}

	var bind func(n Node) error
	bind = func(n Node) error {
		switch n := n.(type) {
		case *Ident:
			stored, err := resolve(n.Name)
			if err != nil {
				return err
			}
			i, ok := pos[stored]
			if !ok {
				return fmt.Errorf("column %q not found", n.Name)
			}
			prog.index[n] = i
			kinds[n] = kindOf(types[i])
			prog.names = appendUnique(prog.names, stored)
		case *Unary:
			return bind(n.X)
		case *Binary:
			if err := bind(n.Left); err != nil {
				return err
			}
			return bind(n.Right)
		}
		return nil
	}
	if err := bind(root); err != nil {
		return nil, err
	}
	k, err := check(root, kinds)
	if err != nil {
		return nil, err
	}
	if k != KindBool {
		return nil, &TypeError{Msg: fmt.Sprintf("condition must be a comparison or boolean, got %s", k)}
	}
	return prog, nil
}

// Columns returns the stored names of the columns the condition reads.
func (p *Program) Columns() []string {
	return append([]string(nil), p.names...)
}

func (p *Program) String() string { return p.src }

// Mask evaluates the condition on every row of df and reports which rows hold.
// A row whose result is null does not hold.
func (p *Program) Mask(df dataframe.DataFrame) ([]bool, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	for _, i := range p.index {
		if i >= df.Ncol() {
			return nil, fmt.Errorf("condition %q is bound to a different table", p.src)
		}
	}
	nrow := df.Nrow()
	out := make([]bool, nrow)
	for r := 0; r < nrow; r++ {
		row := func(i int) Value { return fromElement(df.Elem(r, i)) }
		v, err := p.eval(p.root, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		out[r] = v.truthy()
	}
	return out, nil
}

func (p *Program) eval(n Node, row func(int) Value) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Val, nil
	case *Ident:
		return row(p.index[n]), nil
	case *Unary:
		x, err := p.eval(n.X, row)
		if err != nil {
			return null, err
		}
		switch n.Op {
		case "not":
			return boolean(!x.truthy()), nil
		case "-":
			if x.Kind == KindNull {
				return null, nil
			}
			if x.Kind != KindNumber {
				return null, &TypeError{Op: "-", Left: x.Kind}
			}
			return number(-x.Num), nil
		}
	case *Binary:
		l, err := p.eval(n.Left, row)
		if err != nil {
			return null, err
		}
		switch n.Op {
		case "and":
			if !l.truthy() {
				return boolean(false), nil
			}
			r, err := p.eval(n.Right, row)
			if err != nil {
				return null, err
			}
			return boolean(r.truthy()), nil
		case "or":
			if l.truthy() {
				return boolean(true), nil
			}
			r, err := p.eval(n.Right, row)
			if err != nil {
				return null, err
			}
			return boolean(r.truthy()), nil
		}
		r, err := p.eval(n.Right, row)
		if err != nil {
			return null, err
		}
		switch n.Op {
		case "+", "-", "*", "/", "%":
			return arith(n.Op, l, r)
		default:
			return compare(n.Op, l, r)
		}
	}
	return null, fmt.Errorf("unsupported expression %T", n)
}

func arith(op string, l, r Value) (Value, error) {
	if l.Kind == KindNull || r.Kind == KindNull {
		return null, nil
	}
	if op == "+" && l.Kind == KindString && r.Kind == KindString {
		return text(l.Str + r.Str), nil
	}
	if l.Kind != KindNumber || r.Kind != KindNumber {
		return null, &TypeError{Op: op, Left: l.Kind, Right: r.Kind}
	}
	switch op {
	case "+":
		return number(l.Num + r.Num), nil
	case "-":
		return number(l.Num - r.Num), nil
	case "*":
		return number(l.Num * r.Num), nil
	case "/":
		if r.Num == 0 {
			return null, nil
		}
		return number(l.Num / r.Num), nil
	case "%":
		if r.Num == 0 {
			return null, nil
		}
		return number(math.Mod(l.Num, r.Num)), nil
	}
	return null, fmt.Errorf("unknown operator %q", op)
}

// compare yields false when either side is null, except for "!=" which yields true.
func compare(op string, l, r Value) (Value, error) {
	if l.Kind == KindNull || r.Kind == KindNull {
		return boolean(op == "!="), nil
	}
	if l.Kind != r.Kind {
		switch op {
		case "==":
			return boolean(false), nil
		case "!=":
			return boolean(true), nil
		}
		return null, &TypeError{Op: op, Left: l.Kind, Right: r.Kind}
	}
	c := order(l, r)
	switch op {
	case "==":
		return boolean(c == 0), nil
	case "!=":
		return boolean(c != 0), nil
	case "<":
		return boolean(c < 0), nil
	case "<=":
		return boolean(c <= 0), nil
	case ">":
		return boolean(c > 0), nil
	case ">=":
		return boolean(c >= 0), nil
	}
	return null, fmt.Errorf("unknown operator %q", op)
}

// order compares two non-null values of the same kind.
func order(l, r Value) int {
	switch l.Kind {
	case KindNumber:
		switch {
		case l.Num < r.Num:
			return -1
		case l.Num > r.Num:
			return 1
		}
		return 0
	case KindString:
		switch {
		case l.Str < r.Str:
			return -1
		case l.Str > r.Str:
			return 1
		}
		return 0
	case KindBool:
		switch {
		case l.Bool == r.Bool:
			return 0
		case !l.Bool:
			return -1
		}
		return 1
	}
	return 0
}

// check infers the kind of n from literal and column kinds and rejects
// operator misuse before any row is read.
func check(n Node, cols map[*Ident]Kind) (Kind, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Val.Kind, nil
	case *Ident:
		return cols[n], nil
	case *Unary:
		k, err := check(n.X, cols)
		if err != nil {
			return KindInvalid, err
		}
		switch n.Op {
		case "not":
			if k != KindBool {
				return KindInvalid, &TypeError{Op: "not", Left: k}
			}
			return KindBool, nil
		default:
			if k != KindNumber {
				return KindInvalid, &TypeError{Op: n.Op, Left: k}
			}
			return KindNumber, nil
		}
	case *Binary:
		l, err := check(n.Left, cols)
		if err != nil {
			return KindInvalid, err
		}
		r, err := check(n.Right, cols)
		if err != nil {
			return KindInvalid, err
		}
		switch n.Op {
		case "and", "or":
			if l != KindBool || r != KindBool {
				return KindInvalid, &TypeError{Op: n.Op, Left: l, Right: r}
			}
			return KindBool, nil
		case "+":
			if l == KindString && r == KindString {
				return KindString, nil
			}
			fallthrough
		case "-", "*", "/", "%":
			if l != KindNumber || r != KindNumber {
				return KindInvalid, &TypeError{Op: n.Op, Left: l, Right: r}
			}
			return KindNumber, nil
		case "==", "!=":
			return KindBool, nil
		default:
			if l != r {
				return KindInvalid, &TypeError{Op: n.Op, Left: l, Right: r}
			}
			return KindBool, nil
		}
	}
	return KindInvalid, fmt.Errorf("unsupported expression %T", n)
}

func exactResolver(names []string) Resolver {
	return func(name string) (string, error) {
		for _, n := range names {
			if n == name {
				return n, nil
			}
		}
		return "", fmt.Errorf("column %q not found", name)
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
