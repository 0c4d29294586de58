package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Vars holds the identifiers visible to an expression. Dotted identifiers
// traverse nested maps.
type Vars map[string]any

// Program is a compiled rule expression.
//
// Supported syntax:
//   - truthiness checks: `value`
//   - comparisons: `value == "x"`, `value != null`, `value >= 18`, `raw < "m"`
//   - boolean composition: `value > 0 && value < 10`, `a || !b`, parentheses
//
// Comparisons take an identifier on the left and a literal on the right.
type Program struct {
	source string
	root   node
	idents map[string]struct{}
}

// ErrSyntax marks expressions that fail to compile.
var ErrSyntax = errors.New("rules/expr: syntax error")

// Compile parses rule. An empty rule compiles to a program that always holds.
func Compile(rule string) (*Program, error) {
	trimmed := strings.TrimSpace(rule)
	program := &Program{source: trimmed}
	if trimmed == "" {
		return program, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return program, nil
	}
	root, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	program.root = root
	program.idents = make(map[string]struct{})
	collectIdentifiers(root, program.idents)
	return program, nil
}

// MustCompile panics when Compile fails.
func MustCompile(rule string) *Program {
	program, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return program
}

// Eval compiles and evaluates rule in one step.
func Eval(rule string, vars Vars) (bool, error) {
	program, err := Compile(rule)
	if err != nil {
		return false, err
	}
	return program.Eval(vars)
}

// String returns the trimmed source expression.
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// References reports whether the program reads ident. Dotted identifiers
// count as references to their first segment as well.
func (p *Program) References(ident string) bool {
	if p == nil {
		return false
	}
	_, ok := p.idents[ident]
	return ok
}

// Eval evaluates the program against vars.
func (p *Program) Eval(vars Vars) (bool, error) {
	if p == nil || p.root == nil {
		return true, nil
	}
	return p.root.eval(vars)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func syntaxError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	for i < len(input) {
		ch := input[i]
		switch ch {
		case ' ', '\t', '\n', '\r':
			i++
		case '(':
			i++
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
		case ')':
			i++
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
		case '!':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
		case '=':
			i++
			if peek() != '=' {
				return nil, syntaxError("unexpected '='; use '=='")
			}
			i++
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
		case '<':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenLte, raw: "<="})
				continue
			}
			tokens = append(tokens, token{kind: tokenLt, raw: "<"})
		case '>':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenGte, raw: ">="})
				continue
			}
			tokens = append(tokens, token{kind: tokenGt, raw: ">"})
		case '&':
			i++
			if peek() != '&' {
				return nil, syntaxError("unexpected '&'; use '&&'")
			}
			i++
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
		case '|':
			i++
			if peek() != '|' {
				return nil, syntaxError("unexpected '|'; use '||'")
			}
			i++
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
		case '"', '\'':
			tok, next, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			tokens = append(tokens, classify(input[start:i]))
		}
	}
	return tokens, nil
}

func scanString(input string, start int) (token, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[start+1 : i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return token{}, 0, syntaxError("invalid string literal: %v", err)
		}
		return token{kind: tokenString, raw: value}, i + 1, nil
	}
	return token{}, 0, syntaxError("unterminated string literal")
}

func classify(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kind: tokenBool, raw: strings.ToLower(raw)}
	case "null", "nil":
		return token{kind: tokenNull, raw: "null"}
	}
	if looksLikeNumber(raw) {
		return token{kind: tokenNumber, raw: raw}
	}
	return token{kind: tokenIdentifier, raw: raw}
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+' || ch == '.'
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (node, error) {
	stream := &tokenStream{tokens: tokens}
	root, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, syntaxError("unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return root, nil
}

func parseOr(stream *tokenStream) (node, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (node, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (node, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (node, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, syntaxError("missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, syntaxError("empty expression")
		}
		return nil, syntaxError("expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	for _, op := range []tokenKind{tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte} {
		if !stream.match(op) {
			continue
		}
		lit, err := stream.consumeLiteral()
		if err != nil {
			return nil, err
		}
		if isOrdering(op) && (lit.kind == litNull || lit.kind == litBool) {
			return nil, syntaxError("operator %q needs a number or string literal", opString(op))
		}
		return compareNode{identifier: ident.raw, op: op, literal: lit}, nil
	}
	return truthyNode{identifier: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (literal, error) {
	if s.pos >= len(s.tokens) {
		return literal{}, syntaxError("missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return literal{kind: litString, raw: tok.raw}, nil
	case tokenNumber:
		n, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return literal{}, syntaxError("invalid number literal %q", tok.raw)
		}
		return literal{kind: litNumber, raw: tok.raw, number: n}, nil
	case tokenBool:
		return literal{kind: litBool, raw: tok.raw}, nil
	case tokenNull:
		return literal{kind: litNull, raw: "null"}, nil
	case tokenIdentifier:
		// Bare words compare as strings.
		return literal{kind: litString, raw: tok.raw}, nil
	default:
		return literal{}, syntaxError("expected literal, got %q", tok.raw)
	}
}

func isOrdering(op tokenKind) bool {
	switch op {
	case tokenLt, tokenLte, tokenGt, tokenGte:
		return true
	}
	return false
}

func opString(op tokenKind) string {
	switch op {
	case tokenEq:
		return "=="
	case tokenNeq:
		return "!="
	case tokenLt:
		return "<"
	case tokenLte:
		return "<="
	case tokenGt:
		return ">"
	case tokenGte:
		return ">="
	default:
		return "?"
	}
}

func collectIdentifiers(n node, into map[string]struct{}) {
	add := func(ident string) {
		into[ident] = struct{}{}
		if head, _, found := strings.Cut(ident, "."); found {
			into[head] = struct{}{}
		}
	}
	switch typed := n.(type) {
	case orNode:
		collectIdentifiers(typed.left, into)
		collectIdentifiers(typed.right, into)
	case andNode:
		collectIdentifiers(typed.left, into)
		collectIdentifiers(typed.right, into)
	case notNode:
		collectIdentifiers(typed.inner, into)
	case compareNode:
		add(typed.identifier)
	case truthyNode:
		add(typed.identifier)
	}
}
