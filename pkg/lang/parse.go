package lang

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseExpr parses an arithmetic or comparison expression such as
// "x - 1 <= 4". It understands integer literals, identifiers, unary minus,
// + - * /, the six comparison operators, and parentheses.
func ParseExpr(input string) (Expr, error) {
	p := &parser{input: input}
	p.next()
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", p.tok.text, p.tok.pos)
	}
	return expr, nil
}

// ParseCondition parses an expression and requires it to be a comparison.
func ParseCondition(input string) (Expr, error) {
	expr, err := ParseExpr(input)
	if err != nil {
		return nil, err
	}
	if _, ok := expr.(Compare); !ok {
		return nil, fmt.Errorf("not a condition: %s", input)
	}
	return expr, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp     // + - * /
	tokCmp    // == != < <= > >=
	tokLParen
	tokRParen
	tokInvalid
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	input string
	pos   int
	tok   token
}

// next advances to the next token.
func (p *parser) next() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}

	c := p.input[p.pos]
	switch {
	case c >= '0' && c <= '9':
		for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.input[start:p.pos], pos: start}
	case c == '_' || unicode.IsLetter(rune(c)):
		for p.pos < len(p.input) && (p.input[p.pos] == '_' || unicode.IsLetter(rune(p.input[p.pos])) || unicode.IsDigit(rune(p.input[p.pos]))) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.input[start:p.pos], pos: start}
	case strings.ContainsRune("+-*/", rune(c)):
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case c == '=' || c == '!' || c == '<' || c == '>':
		p.pos++
		text := string(c)
		if p.pos < len(p.input) && p.input[p.pos] == '=' {
			text += "="
			p.pos++
		}
		p.tok = token{kind: tokCmp, text: text, pos: start}
	default:
		p.pos++
		p.tok = token{kind: tokInvalid, text: string(c), pos: start}
	}
}

// parseComparison handles the lowest-precedence level: additive [cmp additive].
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokCmp {
		return left, nil
	}
	op, ok := cmpOps[p.tok.text]
	if !ok {
		return nil, fmt.Errorf("unknown comparison operator %q at position %d", p.tok.text, p.tok.pos)
	}
	p.next()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return Compare{Op: op, X: left, Y: right}, nil
}

var cmpOps = map[string]CmpOp{
	"==": OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := OpAdd
		if p.tok.text == "-" {
			op = OpSub
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := OpMul
		if p.tok.text == "/" {
			op = OpDiv
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tokOp && p.tok.text == "-" {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokNumber:
		v, err := strconv.ParseInt(p.tok.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q at position %d", p.tok.text, p.tok.pos)
		}
		p.next()
		return Lit{Value: v}, nil
	case tokIdent:
		name := p.tok.text
		p.next()
		return Var{Name: name}, nil
	case tokLParen:
		p.next()
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.tok.pos)
		}
		p.next()
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected %q at position %d", p.tok.text, p.tok.pos)
	}
}
