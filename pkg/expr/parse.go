package expr

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// Scale factors accepted after a number, as in SPICE.
var unitMap = map[string]string{
	"T":   "1e12",  // tera
	"G":   "1e9",   // giga
	"meg": "1e6",   // mega
	"K":   "1e3",   // kilo
	"k":   "1e3",   // kilo
	"m":   "1e-3",  // milli
	"u":   "1e-6",  // micro
	"n":   "1e-9",  // nano
	"p":   "1e-12", // pico
	"f":   "1e-15", // femto
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  *big.Rat
	pos  int
}

// Parse parses an arithmetic expression such as "1/(2*pi*R*C)" or "10n".
// Surrounding braces, as used for netlist values, are stripped.
func Parse(text string) (Rational, error) {
	src := strings.TrimSpace(text)
	if strings.HasPrefix(src, "{") && strings.HasSuffix(src, "}") {
		src = strings.TrimSpace(src[1 : len(src)-1])
	}
	if src == "" {
		return Rational{}, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	toks, err := tokenize(src)
	if err != nil {
		return Rational{}, err
	}
	p := &parser{toks: toks}
	r, err := p.expr()
	if err != nil {
		return Rational{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Rational{}, fmt.Errorf("%w: unexpected %q at %d in %q", ErrSyntax, t.text, t.pos, src)
	}
	return r, nil
}

// MustParse is Parse for expressions known to be valid.
func MustParse(text string) Rational {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

// ParseValue parses a plain number with an optional scale factor, 1k -> 1000.
func ParseValue(val string) (*big.Rat, error) {
	src := strings.TrimSpace(val)
	n, rest, err := scanNumber(src)
	if err != nil {
		return nil, err
	}
	if rest != len(src) {
		return nil, fmt.Errorf("%w: invalid value format: %s", ErrSyntax, val)
	}
	return n, nil
}

// scanNumber reads a number, its scale factor and trailing unit letters
// from the start of src and returns the index after them.
func scanNumber(src string) (*big.Rat, int, error) {
	i := 0
	digits := 0
	for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
		if src[i] != '.' {
			digits++
		}
		i++
	}
	if digits == 0 {
		return nil, 0, fmt.Errorf("%w: invalid number %q", ErrSyntax, src)
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}

	num, ok := new(big.Rat).SetString(src[:i])
	if !ok {
		return nil, 0, fmt.Errorf("%w: invalid number %q", ErrSyntax, src[:i])
	}

	suffix := ""
	if len(src) >= i+3 && strings.EqualFold(src[i:i+3], "meg") {
		suffix = "meg"
	} else if i < len(src) {
		if _, ok := unitMap[src[i:i+1]]; ok {
			suffix = src[i : i+1]
		}
	}
	if suffix != "" {
		mult, _ := new(big.Rat).SetString(unitMap[suffix])
		num.Mul(num, mult)
		i += len(suffix)
	}

	// Unit letters glued to the number are ignored: 10nF, 1kOhm.
	for i < len(src) && isLetter(src[i]) {
		i++
	}
	return num, i, nil
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			n, end, err := scanNumber(src[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNum, text: src[i : i+end], num: n, pos: i})
			i += end
		case isLetter(c) || c == '_':
			j := i
			for j < len(src) && (isLetter(src[j]) || isDigit(src[j]) || src[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], pos: i})
			i = j
		case c == '*' && i+1 < len(src) && src[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.IndexByte("+-*/^", c) >= 0:
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d in %q", ErrSyntax, c, i, src)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) expr() (Rational, error) {
	left, err := p.term()
	if err != nil {
		return Rational{}, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return Rational{}, err
		}
		if op == "+" {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
	return left, nil
}

func (p *parser) term() (Rational, error) {
	left, err := p.unary()
	if err != nil {
		return Rational{}, err
	}
	for p.isOp("*", "/") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return Rational{}, err
		}
		if op == "*" {
			left = left.Mul(right)
			continue
		}
		left, err = left.Div(right)
		if err != nil {
			return Rational{}, err
		}
	}
	return left, nil
}

func (p *parser) unary() (Rational, error) {
	if p.isOp("-") {
		p.next()
		v, err := p.unary()
		if err != nil {
			return Rational{}, err
		}
		return v.Neg(), nil
	}
	if p.isOp("+") {
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (Rational, error) {
	base, err := p.primary()
	if err != nil {
		return Rational{}, err
	}
	if !p.isOp("^") {
		return base, nil
	}
	opTok := p.next()
	exp, err := p.unary()
	if err != nil {
		return Rational{}, err
	}
	c, ok := exp.IsConst()
	if !ok || !c.IsInt() || !c.Num().IsInt64() {
		return Rational{}, fmt.Errorf("%w: exponent at %d must be an integer constant", ErrSyntax, opTok.pos)
	}
	return base.Pow(int(c.Num().Int64()))
}

func (p *parser) primary() (Rational, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		return Number(t.num), nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return Rational{}, fmt.Errorf("%w: unsupported function %s()", ErrSyntax, t.text)
		}
		return Symbol(t.text), nil
	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return Rational{}, err
		}
		if p.next().kind != tokRParen {
			return Rational{}, fmt.Errorf("%w: missing ')' for '(' at %d", ErrSyntax, t.pos)
		}
		return v, nil
	case tokEOF:
		return Rational{}, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return Rational{}, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return c < unicode.MaxASCII && unicode.IsLetter(rune(c)) }
