package expr

import (
	"fmt"
	"strconv"
)

// Node is a parsed condition.
type Node interface {
	node()
}

type (
	// Ident references a column by the name written in the condition.
	Ident struct {
		Name string
		Pos  int
	}
	// Literal is a number, string or bool constant.
	Literal struct {
		Val Value
	}
	// Unary is "-" or "not".
	Unary struct {
		Op string
		X  Node
	}
	// Binary is an arithmetic, comparison or logical operator.
	Binary struct {
		Op    string
		Left  Node
		Right Node
	}
)

func (*Ident) node()   {}
func (*Literal) node() {}
func (*Unary) node()   {}
func (*Binary) node()  {}

// Limits on a single condition. Nesting is counted per "not", "~", unary
// "-" and parenthesis level.
const (
	maxDepth = 256
	maxNodes = 4096
)

type parser struct {
	lx    *lexer
	cur   token
	peek  token
	depth int
	nodes int
}

// Parse turns a condition into a syntax tree.
func Parse(src string) (Node, error) {
	p := &parser{lx: newLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.cur.typ == tEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty condition"}
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.typ != tEOF {
		return nil, p.errf("unexpected %s %q", p.cur.typ, p.cur.val)
	}
	return n, nil
}

func (p *parser) next() error {
	p.cur = p.peek
	tok, err := p.lx.nextToken()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *parser) errf(format string, a ...interface{}) error {
	return &SyntaxError{Pos: p.cur.pos, Msg: fmt.Sprintf(format, a...)}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return p.errf("condition nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// grow counts one operator node.
func (p *parser) grow() error {
	p.nodes++
	if p.nodes > maxNodes {
		return p.errf("condition too long")
	}
	return nil
}

func (p *parser) isSymbol(vals ...string) bool {
	if p.cur.typ != tSymbol {
		return false
	}
	for _, v := range vals {
		if p.cur.val == v {
			return true
		}
	}
	return false
}

func (p *parser) isKeyword(kw string) bool {
	return p.cur.typ == tKeyword && p.cur.val == kw
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") || p.isSymbol("|") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if err := p.grow(); err != nil {
			return nil, err
		}
		left = &Binary{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") || p.isSymbol("&") {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if err := p.grow(); err != nil {
			return nil, err
		}
		left = &Binary{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	if p.isKeyword("NOT") || p.isSymbol("~") {
		if err := p.next(); err != nil {
			return nil, err
		}
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if err := p.grow(); err != nil {
			return nil, err
		}
		return &Unary{Op: "not", X: x}, nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (Node, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.isSymbol("<", ">", "<=", ">=", "==", "!=") {
		op := p.cur.val
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if err := p.grow(); err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
		if p.isSymbol("<", ">", "<=", ">=", "==", "!=") {
			return nil, p.errf("chained comparison; combine with 'and'")
		}
	}
	return left, nil
}

func (p *parser) parseSum() (Node, error) {
	left, err := p.parseProd()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("+", "-") {
		op := p.cur.val
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseProd()
		if err != nil {
			return nil, err
		}
		if err := p.grow(); err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseProd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("*", "/", "%") {
		op := p.cur.val
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if err := p.grow(); err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	if p.isSymbol("-") {
		if err := p.next(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := x.(*Literal); ok && lit.Val.Kind == KindNumber {
			return &Literal{Val: number(-lit.Val.Num)}, nil
		}
		if err := p.grow(); err != nil {
			return nil, err
		}
		return &Unary{Op: "-", X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.cur
	switch tok.typ {
	case tNumber:
		f, err := strconv.ParseFloat(tok.val, 64)
		if err != nil {
			return nil, p.errf("invalid number %q", tok.val)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{Val: number(f)}, nil
	case tString:
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Literal{Val: text(tok.val)}, nil
	case tKeyword:
		switch tok.val {
		case "TRUE", "FALSE":
			if err := p.next(); err != nil {
				return nil, err
			}
			return &Literal{Val: boolean(tok.val == "TRUE")}, nil
		}
		return nil, p.errf("unexpected keyword %q", tok.val)
	case tIdent:
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Ident{Name: tok.val, Pos: tok.pos}, nil
	case tSymbol:
		if tok.val == "(" {
			if err := p.next(); err != nil {
				return nil, err
			}
			n, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if !p.isSymbol(")") {
				return nil, p.errf("expected ')'")
			}
			if err := p.next(); err != nil {
				return nil, err
			}
			return n, nil
		}
	case tEOF:
		return nil, p.errf("unexpected end of condition")
	}
	return nil, p.errf("unexpected %s %q", tok.typ, tok.val)
}
