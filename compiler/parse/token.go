package parse

import (
	"fmt"
)

type (
	token any

	punct  string
	ident  string
	number string
	str    string

	// Spaces is a set of bytes below 64 to skip.
	Spaces uint64
)

var SpaceAll = NewSpaces(' ', '\t', '\r', '\n')

// two-byte punctuation, longest match first
var puncts2 = []string{"->", "==", "!=", "<=", ">="}

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && b[i] < 64 && s&(1<<b[i]) != 0 {
		i++
	}

	return
}

// token returns the next token after st, nil at the end of input.
// Comments are skipped.
func (p *Parser) token(st int) (t token, i int, err error) {
	b := p.b

	i, err = p.skip(st)
	if err != nil {
		return nil, i, err
	}

	st = i

	if i == len(b) {
		return nil, i, nil
	}

	c := b[i]

	switch {
	case isLetter(c):
		i = skipIdent(b, i+1)

		return ident(b[st:i]), i, nil
	case isDigit(c) || c == '.' && i+1 < len(b) && isDigit(b[i+1]):
		i = skipNumber(b, i)

		return number(b[st:i]), i, nil
	case c == '"':
		i++

		for i < len(b) && b[i] != '"' && b[i] != '\n' {
			i++
		}

		if i == len(b) || b[i] != '"' {
			return nil, st, p.errorf(st, "unterminated string")
		}

		return str(b[st+1 : i]), i + 1, nil
	}

	for _, q := range puncts2 {
		if i+1 < len(b) && b[i] == q[0] && b[i+1] == q[1] {
			return punct(q), i + 2, nil
		}
	}

	switch c {
	case '(', ')', '{', '}', ';', ',', '=', '+', '-', '*', '/', '<', '>', '!':
		return punct(b[i : i+1]), i + 1, nil
	}

	return nil, st, p.errorf(st, "unsupported character: %q", c)
}

// peek is token without consuming.
func (p *Parser) peek(st int) token {
	t, _, err := p.token(st)
	if err != nil {
		return nil
	}

	return t
}

func (p *Parser) expect(st int, want token) (i int, err error) {
	t, i, err := p.token(st)
	if err != nil {
		return st, err
	}

	if t != want {
		return st, p.errorf(st, "expected %v, got %v", describe(want), describe(t))
	}

	return i, nil
}

func (p *Parser) ident(st int) (name string, i int, err error) {
	t, i, err := p.token(st)
	if err != nil {
		return "", st, err
	}

	id, ok := t.(ident)
	if !ok {
		return "", st, p.errorf(st, "expected identifier, got %v", describe(t))
	}

	return string(id), i, nil
}

func (p *Parser) skip(st int) (i int, err error) {
	b := p.b
	i = st

	for {
		i = SpaceAll.Skip(b, i)

		if i+1 >= len(b) || b[i] != '/' {
			return i, nil
		}

		switch b[i+1] {
		case '/':
			for i < len(b) && b[i] != '\n' {
				i++
			}
		case '*':
			end := i + 2

			for end+1 < len(b) && !(b[end] == '*' && b[end+1] == '/') {
				end++
			}

			if end+1 >= len(b) {
				return i, p.errorAt(i, "unterminated comment")
			}

			i = end + 2
		default:
			return i, nil
		}
	}
}

func describe(t token) string {
	switch t := t.(type) {
	case nil:
		return "end of file"
	case punct:
		return "'" + string(t) + "'"
	case ident:
		return "identifier " + string(t)
	case number:
		return "number " + string(t)
	case str:
		return "string"
	}

	return fmt.Sprintf("%v", t)
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func skipIdent(b []byte, i int) int {
	for i < len(b) && (isLetter(b[i]) || isDigit(b[i])) {
		i++
	}

	return i
}

func skipNumber(b []byte, i int) int {
	dot := false

	for ; i < len(b); i++ {
		switch {
		case isDigit(b[i]):
		case !dot && b[i] == '.':
			dot = true
		default:
			return i
		}
	}

	return i
}
