package chat

import (
	"math"
	"strconv"
	"strings"

	"github.com/Meizuno/Chat/tools/errs"
)

// Restricted arithmetic evaluator for the "calc " command channel.
// Grammar: numbers, + - * /, parentheses, unary minus. No identifiers, no
// calls, no side effects; input length and nesting depth are bounded. This
// deliberately replaces generic expression evaluation on untrusted input.
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | atom
//	atom   = number | "(" expr ")"

const (
	maxExprLen   = 256
	maxExprDepth = 32
)

// Eval evaluates a restricted arithmetic expression.
func Eval(expr string) (float64, error) {
	if len(expr) > maxExprLen {
		return 0, errs.ErrEvaluation.WithMsg("expression too long").Wrap()
	}
	p := &calcParser{input: expr}
	p.skipSpaces()
	if p.eof() {
		return 0, errs.ErrEvaluation.WithMsg("empty expression").Wrap()
	}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if !p.eof() {
		return 0, p.errAt("unexpected character")
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errs.ErrEvaluation.WithMsg("result is not a finite number").Wrap()
	}
	return v, nil
}

// FormatResult renders a result the way a chat user expects: integers
// without a trailing ".0", everything else in shortest decimal form.
func FormatResult(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type calcParser struct {
	input string
	pos   int
	depth int
}

func (p *calcParser) parseExpr() (float64, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.accept('+'):
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		case p.accept('-'):
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *calcParser) parseTerm() (float64, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.accept('*'):
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case p.accept('/'):
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, errs.ErrEvaluation.WithMsg("division by zero").Wrap()
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *calcParser) parseUnary() (float64, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	p.skipSpaces()
	if p.accept('-') {
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return p.parseAtom()
}

func (p *calcParser) parseAtom() (float64, error) {
	p.skipSpaces()
	if p.accept('(') {
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.accept(')') {
			return 0, p.errAt("missing closing parenthesis")
		}
		return v, nil
	}
	return p.parseNumber()
}

func (p *calcParser) parseNumber() (float64, error) {
	start := p.pos
	for !p.eof() {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, p.errAt("expected a number")
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, errs.ErrEvaluation.WithMsg("malformed number " + strconv.Quote(p.input[start:p.pos])).Wrap()
	}
	return v, nil
}

func (p *calcParser) enter() error {
	p.depth++
	if p.depth > maxExprDepth {
		return errs.ErrEvaluation.WithMsg("expression too deeply nested").Wrap()
	}
	return nil
}

func (p *calcParser) leave() { p.depth-- }

func (p *calcParser) skipSpaces() {
	for !p.eof() && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *calcParser) accept(c byte) bool {
	if !p.eof() && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *calcParser) eof() bool { return p.pos >= len(p.input) }

func (p *calcParser) errAt(msg string) error {
	return errs.ErrEvaluation.WithMsg(msg + " at position " + strconv.Itoa(p.pos) + " in " + strconv.Quote(strings.TrimSpace(p.input))).Wrap()
}
