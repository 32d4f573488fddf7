package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tEOF tokenType = iota
	tIdent
	tNumber
	tString
	tSymbol  // ( ) + - * / % < > <= >= == != & | ~
	tKeyword // AND OR NOT TRUE FALSE
)

func (t tokenType) String() string {
	switch t {
	case tEOF:
		return "end of input"
	case tIdent:
		return "identifier"
	case tNumber:
		return "number"
	case tString:
		return "string"
	case tSymbol:
		return "symbol"
	case tKeyword:
		return "keyword"
	}
	return "token"
}

type token struct {
	typ tokenType
	val string
	pos int // byte offset in input
}

type lexer struct {
	s   string
	pos int
}

func newLexer(s string) *lexer { return &lexer{s: s} }

func (lx *lexer) peek() rune {
	if lx.pos >= len(lx.s) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.s[lx.pos:])
	return r
}

func (lx *lexer) peekN(n int) rune {
	p := lx.pos
	for i := 0; i < n; i++ {
		if p >= len(lx.s) {
			return 0
		}
		_, sz := utf8.DecodeRuneInString(lx.s[p:])
		p += sz
	}
	if p >= len(lx.s) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.s[p:])
	return r
}

func (lx *lexer) next() rune {
	if lx.pos >= len(lx.s) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(lx.s[lx.pos:])
	lx.pos += size
	return r
}

func (lx *lexer) skipWhitespace() {
	for unicode.IsSpace(lx.peek()) {
		lx.next()
	}
}

// nextToken returns the next token or a *SyntaxError for unterminated
// literals and characters outside the grammar.
func (lx *lexer) nextToken() (token, error) {
	lx.skipWhitespace()
	start := lx.pos
	r := lx.peek()
	if r == 0 {
		return token{typ: tEOF, pos: start}, nil
	}

	switch {
	case r == '\'' || r == '"':
		s, err := lx.quoted(r)
		if err != nil {
			return token{}, err
		}
		return token{typ: tString, val: s, pos: start}, nil
	case r == '`':
		s, err := lx.quoted(r)
		if err != nil {
			return token{}, err
		}
		return token{typ: tIdent, val: s, pos: start}, nil
	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(lx.peekN(1))):
		return token{typ: tNumber, val: lx.number(), pos: start}, nil
	case unicode.IsLetter(r) || r == '_':
		var sb strings.Builder
		for {
			ch := lx.peek()
			if !(unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_') {
				break
			}
			sb.WriteRune(lx.next())
		}
		val := sb.String()
		if up := strings.ToUpper(val); isKeyword(up) {
			return token{typ: tKeyword, val: up, pos: start}, nil
		}
		return token{typ: tIdent, val: val, pos: start}, nil
	}

	switch r {
	case '(', ')', '+', '-', '*', '/', '%', '&', '|', '~':
		lx.next()
		return token{typ: tSymbol, val: string(r), pos: start}, nil
	case '<', '>', '=', '!':
		a := lx.next()
		if lx.peek() == '=' {
			lx.next()
			return token{typ: tSymbol, val: string(a) + "=", pos: start}, nil
		}
		switch a {
		case '=':
			// a single '=' reads as equality
			return token{typ: tSymbol, val: "==", pos: start}, nil
		case '!':
			return token{}, &SyntaxError{Pos: start, Msg: "unexpected '!' (use 'not' or '!=')"}
		}
		return token{typ: tSymbol, val: string(a), pos: start}, nil
	}
	return token{}, &SyntaxError{Pos: start, Msg: "unexpected character " + quoteRune(r)}
}

// quoted reads a literal delimited by q. Backslash escapes the next character.
func (lx *lexer) quoted(q rune) (string, error) {
	start := lx.pos
	lx.next()
	var sb strings.Builder
	for {
		ch := lx.next()
		switch ch {
		case 0:
			return "", &SyntaxError{Pos: start, Msg: "unterminated " + quoteRune(q) + " literal"}
		case '\\':
			esc := lx.next()
			if esc == 0 {
				return "", &SyntaxError{Pos: start, Msg: "unterminated " + quoteRune(q) + " literal"}
			}
			sb.WriteRune(esc)
		case q:
			return sb.String(), nil
		default:
			sb.WriteRune(ch)
		}
	}
}

// number reads [0-9]*(.[0-9]*)?([eE][+-]?[0-9]+)?
func (lx *lexer) number() string {
	var sb strings.Builder
	dot := false
	for {
		ch := lx.peek()
		if unicode.IsDigit(ch) {
			sb.WriteRune(lx.next())
			continue
		}
		if ch == '.' && !dot {
			dot = true
			sb.WriteRune(lx.next())
			continue
		}
		break
	}
	if e := lx.peek(); e == 'e' || e == 'E' {
		sign := lx.peekN(1)
		digitAt := 1
		if sign == '+' || sign == '-' {
			digitAt = 2
		}
		if unicode.IsDigit(lx.peekN(digitAt)) {
			for i := 0; i < digitAt; i++ {
				sb.WriteRune(lx.next())
			}
			for unicode.IsDigit(lx.peek()) {
				sb.WriteRune(lx.next())
			}
		}
	}
	return sb.String()
}

func isKeyword(up string) bool {
	switch up {
	case "AND", "OR", "NOT", "TRUE", "FALSE":
		return true
	}
	return false
}

func quoteRune(r rune) string {
	return "'" + string(r) + "'"
}
