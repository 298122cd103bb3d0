package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"wheel-installer/internal/shared"
	"wheel-installer/internal/types"
)

// markerOpTokens is the ordered list of comparison operators tried while
// tokenizing. Longer tokens must precede shorter ones (e.g. "===" before
// "==" before "=").
var markerOpTokens = []types.MarkerOp{
	types.MarkerOpArbitrary,
	types.MarkerOpEq,
	types.MarkerOpNe,
	types.MarkerOpCompat,
	types.MarkerOpGte,
	types.MarkerOpLte,
	types.MarkerOpGt,
	types.MarkerOpLt,
}

// markerVariables maps accepted marker variable spellings, including the
// legacy dotted forms, to their canonical names.
var markerVariables = map[string]string{
	"extra":                          "extra",
	"python_version":                 "python_version",
	"python_full_version":            "python_full_version",
	"implementation_name":            "implementation_name",
	"implementation_version":         "implementation_version",
	"os_name":                        "os_name",
	"sys_platform":                   "sys_platform",
	"platform_system":                "platform_system",
	"platform_machine":               "platform_machine",
	"platform_release":               "platform_release",
	"platform_version":               "platform_version",
	"platform_python_implementation": "platform_python_implementation",
	"os.name":                        "os_name",
	"sys.platform":                   "sys_platform",
	"platform.version":               "platform_version",
	"platform.machine":               "platform_machine",
	"platform.python_implementation": "platform_python_implementation",
	"python_implementation":          "platform_python_implementation",
}

// Marker is a parsed PEP 508 environment marker.
type Marker struct {
	root markerNode
}

type markerNode interface {
	eval(scope markerScope) bool
}

type markerScope struct {
	extra string
	env   *types.MarkerEnvironment
}

type markerAnd struct {
	left, right markerNode
}

func (n markerAnd) eval(scope markerScope) bool {
	return n.left.eval(scope) && n.right.eval(scope)
}

type markerOr struct {
	left, right markerNode
}

func (n markerOr) eval(scope markerScope) bool {
	return n.left.eval(scope) || n.right.eval(scope)
}

type markerValue struct {
	variable string
	literal  string
}

func (v markerValue) isVariable() bool {
	return v.variable != ""
}

// resolve returns the value in scope; ok is false when the environment is
// unknown.
func (v markerValue) resolve(scope markerScope) (string, bool) {
	if !v.isVariable() {
		return v.literal, true
	}
	if v.variable == "extra" {
		return scope.extra, true
	}
	if scope.env == nil {
		return "", false
	}
	return scope.env.Lookup(v.variable)
}

type markerCompare struct {
	left  markerValue
	op    types.MarkerOp
	right markerValue
}

func (n markerCompare) eval(scope markerScope) bool {
	lhs, lok := n.left.resolve(scope)
	rhs, rok := n.right.resolve(scope)
	if !lok || !rok {
		// Without an environment only extras are decided.
		return true
	}
	if n.left.variable == "extra" || n.right.variable == "extra" {
		lhs = shared.NormalizePipName(lhs)
		rhs = shared.NormalizePipName(rhs)
	}
	return compareMarkerValues(lhs, n.op, rhs)
}

func compareMarkerValues(lhs string, op types.MarkerOp, rhs string) bool {
	switch op {
	case types.MarkerOpIn:
		return strings.Contains(rhs, lhs)
	case types.MarkerOpNotIn:
		return !strings.Contains(rhs, lhs)
	case types.MarkerOpArbitrary:
		return lhs == rhs
	}
	if version, err := pep440.Parse(lhs); err == nil {
		if spec, err := pep440.NewSpecifiers(string(op) + rhs); err == nil {
			return spec.Check(version)
		}
	}
	switch op {
	case types.MarkerOpEq:
		return lhs == rhs
	case types.MarkerOpNe:
		return lhs != rhs
	case types.MarkerOpLt:
		return lhs < rhs
	case types.MarkerOpLte:
		return lhs <= rhs
	case types.MarkerOpGt:
		return lhs > rhs
	case types.MarkerOpGte:
		return lhs >= rhs
	default:
		return false
	}
}

// Evaluate reports whether the marker holds with the given extra bound.
// With a nil environment only comparisons involving "extra" are decided;
// every other comparison counts as satisfied.
func (m Marker) Evaluate(extra string, env *types.MarkerEnvironment) bool {
	if m.root == nil {
		return true
	}
	return m.root.eval(markerScope{extra: shared.NormalizePipName(extra), env: env})
}

// FirstExtra returns the extra named by the first `extra == '...'`
// comparison, in source order.
func (m Marker) FirstExtra() (string, bool) {
	var first string
	m.walkExtraComparisons(func(op types.MarkerOp, extra string) bool {
		if op != types.MarkerOpEq {
			return true
		}
		first = extra
		return false
	})
	return first, first != ""
}

// Extras returns every canonical extra the marker compares against, in
// source order and without duplicates.
func (m Marker) Extras() []string {
	var extras []string
	seen := map[string]struct{}{}
	m.walkExtraComparisons(func(_ types.MarkerOp, extra string) bool {
		if _, ok := seen[extra]; !ok {
			seen[extra] = struct{}{}
			extras = append(extras, extra)
		}
		return true
	})
	return extras
}

// walkExtraComparisons visits comparisons between "extra" and a literal in
// source order until visit returns false.
func (m Marker) walkExtraComparisons(visit func(op types.MarkerOp, extra string) bool) {
	if m.root == nil {
		return
	}
	stack := []markerNode{m.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := node.(type) {
		case markerAnd:
			stack = append(stack, n.right, n.left)
		case markerOr:
			stack = append(stack, n.right, n.left)
		case markerCompare:
			var literal string
			switch {
			case n.left.variable == "extra" && !n.right.isVariable():
				literal = n.right.literal
			case n.right.variable == "extra" && !n.left.isVariable():
				literal = n.left.literal
			default:
				continue
			}
			extra := shared.NormalizePipName(literal)
			if extra == "" {
				continue
			}
			if !visit(n.op, extra) {
				return
			}
		}
	}
}

type markerTokenKind int

const (
	markerTokenWord markerTokenKind = iota
	markerTokenString
	markerTokenOp
	markerTokenOpen
	markerTokenClose
)

type markerToken struct {
	kind  markerTokenKind
	value string
}

// ParseMarker parses the marker text that follows ';' in a requirement.
func ParseMarker(text string) (Marker, error) {
	tokens, err := tokenizeMarker(text)
	if err != nil {
		return Marker{}, err
	}
	if len(tokens) == 0 {
		return Marker{}, invalidMarker(text, "empty marker")
	}
	p := &markerParser{tokens: tokens, text: text}
	root, err := p.parseOr()
	if err != nil {
		return Marker{}, err
	}
	if p.pos != len(p.tokens) {
		return Marker{}, invalidMarker(text, fmt.Sprintf("unexpected %q", p.tokens[p.pos].value))
	}
	return Marker{root: root}, nil
}

func tokenizeMarker(text string) ([]markerToken, error) {
	var tokens []markerToken
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, markerToken{kind: markerTokenOpen, value: "("})
			i++
		case c == ')':
			tokens = append(tokens, markerToken{kind: markerTokenClose, value: ")"})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(text[i+1:], c)
			if end < 0 {
				return nil, invalidMarker(text, "unterminated string")
			}
			tokens = append(tokens, markerToken{kind: markerTokenString, value: text[i+1 : i+1+end]})
			i += end + 2
		case isMarkerWordByte(c):
			start := i
			for i < len(text) && isMarkerWordByte(text[i]) {
				i++
			}
			tokens = append(tokens, markerToken{kind: markerTokenWord, value: text[start:i]})
		default:
			op, ok := matchMarkerOp(text[i:])
			if !ok {
				return nil, invalidMarker(text, fmt.Sprintf("unexpected character %q", c))
			}
			tokens = append(tokens, markerToken{kind: markerTokenOp, value: string(op)})
			i += len(op)
		}
	}
	return tokens, nil
}

func matchMarkerOp(text string) (types.MarkerOp, bool) {
	for _, op := range markerOpTokens {
		if strings.HasPrefix(text, string(op)) {
			return op, true
		}
	}
	return "", false
}

func isMarkerWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.'
}

type markerParser struct {
	tokens []markerToken
	pos    int
	text   string
}

func (p *markerParser) peekWord(word string) bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].kind == markerTokenWord && p.tokens[p.pos].value == word
}

func (p *markerParser) parseOr() (markerNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekWord("or") {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = markerOr{left: left, right: right}
	}
	return left, nil
}

func (p *markerParser) parseAnd() (markerNode, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peekWord("and") {
		p.pos++
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = markerAnd{left: left, right: right}
	}
	return left, nil
}

func (p *markerParser) parseAtom() (markerNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, invalidMarker(p.text, "unexpected end of marker")
	}
	if p.tokens[p.pos].kind == markerTokenOpen {
		p.pos++
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != markerTokenClose {
			return nil, invalidMarker(p.text, "missing closing parenthesis")
		}
		p.pos++
		return node, nil
	}
	left, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}
	right, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return markerCompare{left: left, op: op, right: right}, nil
}

func (p *markerParser) parseValue() (markerValue, error) {
	if p.pos >= len(p.tokens) {
		return markerValue{}, invalidMarker(p.text, "expected a value")
	}
	token := p.tokens[p.pos]
	switch token.kind {
	case markerTokenString:
		p.pos++
		return markerValue{literal: token.value}, nil
	case markerTokenWord:
		name, ok := markerVariables[token.value]
		if !ok {
			return markerValue{}, invalidMarker(p.text, fmt.Sprintf("unknown variable %q", token.value))
		}
		p.pos++
		return markerValue{variable: name}, nil
	default:
		return markerValue{}, invalidMarker(p.text, fmt.Sprintf("expected a value, got %q", token.value))
	}
}

func (p *markerParser) parseOp() (types.MarkerOp, error) {
	if p.pos >= len(p.tokens) {
		return "", invalidMarker(p.text, "expected an operator")
	}
	token := p.tokens[p.pos]
	switch {
	case token.kind == markerTokenOp:
		p.pos++
		return types.MarkerOp(token.value), nil
	case p.peekWord("in"):
		p.pos++
		return types.MarkerOpIn, nil
	case p.peekWord("not"):
		p.pos++
		if !p.peekWord("in") {
			return "", invalidMarker(p.text, "expected 'in' after 'not'")
		}
		p.pos++
		return types.MarkerOpNotIn, nil
	default:
		return "", invalidMarker(p.text, fmt.Sprintf("expected an operator, got %q", token.value))
	}
}

func invalidMarker(text string, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid marker %q: %s", text, reason))
}
