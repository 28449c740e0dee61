package lock

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cuemby/tinymux/pkg/types"
)

// ErrSyntax is returned for a lock string that does not match the
// grammar below.
var ErrSyntax = errors.New("lock: syntax error")

// Parse builds a boolean-expression tree from a lock string (spec.md
// §4.9). Grammar, precedence low to high:
//
//	expr   := or
//	or     := and ('|' and)*
//	and    := unary ('&' unary)*
//	unary  := '!' unary | primary
//	primary:= '(' or ')' | atom
//	atom   := '#' number           -- IS
//	        | '+' '#' number       -- CARRY
//	        | '$' '#' number       -- OWNER
//	        | '^' word             -- FLAG
//	        | number ':' text      -- ATTR_EQ
//	        | number '~' text      -- ATTR_MATCH
//	        | "eval:" text         -- EVAL (rest of input is the text)
//
// Indirect (@-lock) nodes are not produced by Parse; they're built
// programmatically once the referenced object's own lock text has
// been fetched (pkg/world owns that resolution).
func Parse(s string) (*types.LockNode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return &types.LockNode{Kind: types.LockConstTrue}, nil
	}
	p := &parser{input: s}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, ErrSyntax
	}
	return n, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) parseOr() (*types.LockNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() != '|' {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &types.LockNode{Kind: types.LockOr, Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (*types.LockNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() != '&' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &types.LockNode{Kind: types.LockAnd, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (*types.LockNode, error) {
	p.skipSpace()
	if p.peek() == '!' {
		p.pos++
		n, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &types.LockNode{Kind: types.LockNot, Left: n}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*types.LockNode, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, ErrSyntax
		}
		p.pos++
		return n, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (*types.LockNode, error) {
	rest := p.input[p.pos:]
	switch {
	case strings.HasPrefix(strings.ToLower(rest), "eval:"):
		p.pos = len(p.input)
		return &types.LockNode{Kind: types.LockEval, StrArg: rest[len("eval:"):]}, nil
	case p.peek() == '#':
		p.pos++
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		return &types.LockNode{Kind: types.LockIs, DbrefArg: types.Dbref(n)}, nil
	case p.peek() == '+':
		p.pos++
		if p.peek() != '#' {
			return nil, ErrSyntax
		}
		p.pos++
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		return &types.LockNode{Kind: types.LockCarry, DbrefArg: types.Dbref(n)}, nil
	case p.peek() == '$':
		p.pos++
		if p.peek() != '#' {
			return nil, ErrSyntax
		}
		p.pos++
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		return &types.LockNode{Kind: types.LockOwner, DbrefArg: types.Dbref(n)}, nil
	case p.peek() == '^':
		p.pos++
		word := p.parseWord()
		flag, ok := flagByName[strings.ToUpper(word)]
		if !ok {
			return nil, ErrSyntax
		}
		return &types.LockNode{Kind: types.LockFlag, DbrefArg: types.Dbref(flag)}, nil
	case isDigit(p.peek()):
		start := p.pos
		for isDigit(p.peek()) {
			p.pos++
		}
		num := p.input[start:p.pos]
		switch p.peek() {
		case ':':
			p.pos++
			literal := p.parseUntilConnective()
			return &types.LockNode{Kind: types.LockAttrEq, StrArg: num + ":" + literal}, nil
		case '~':
			p.pos++
			literal := p.parseUntilConnective()
			return &types.LockNode{Kind: types.LockAttrMatch, StrArg: num + ":" + literal}, nil
		default:
			return nil, ErrSyntax
		}
	default:
		return nil, ErrSyntax
	}
}

func (p *parser) parseNumber() (int, error) {
	start := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	if start == p.pos {
		return 0, ErrSyntax
	}
	return strconv.Atoi(p.input[start:p.pos])
}

func (p *parser) parseWord() string {
	start := p.pos
	for p.pos < len(p.input) && isWordChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// parseUntilConnective consumes the literal operand of an ATTR_EQ/
// ATTR_MATCH node: everything up to the next top-level '&', '|', or
// ')' — locks rarely need escaping since attribute text comparisons
// are whole-value matches.
func (p *parser) parseUntilConnective() string {
	start := p.pos
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '&', '|', ')':
			return p.input[start:p.pos]
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isWordChar(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || isDigit(b)
}

var flagByName = map[string]types.ObjectFlag{
	"DARK":     types.FlagDark,
	"LIGHT":    types.FlagLight,
	"SLEEPING": types.FlagSleeping,
	"PUPPET":   types.FlagPuppet,
	"HAVEN":    types.FlagHaven,
	"WIZARD":   types.FlagWizard,
	"QUIET":    types.FlagQuiet,
}
