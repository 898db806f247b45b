package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

// PlatformExpr is a parsed platform gate attached to a dependency edge.
// It supports the cfg() predicate grammar (target_os, target_arch,
// target_family, unix, windows, any, all, not) as well as plain target
// triples like "x86_64-unknown-linux-gnu".
type PlatformExpr struct {
	source string
	node   platformNode
}

type platformNode interface {
	match(sys System) bool
	expr() BoolExpr
}

// ParsePlatformExpr parses a platform gate string.
func ParsePlatformExpr(s string) (PlatformExpr, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return PlatformExpr{}, zerr.With(zerr.Wrap(ErrInvalidPlatformExpr, ""), "expr", s)
	}

	if inner, ok := strings.CutPrefix(trimmed, "cfg("); ok {
		if !strings.HasSuffix(inner, ")") {
			return PlatformExpr{}, zerr.With(zerr.Wrap(ErrInvalidPlatformExpr, ""), "expr", s)
		}
		p := &platformParser{input: strings.TrimSuffix(inner, ")")}
		node, err := p.parsePred()
		if err != nil {
			return PlatformExpr{}, zerr.With(err, "expr", s)
		}
		p.skipSpace()
		if p.pos != len(p.input) {
			return PlatformExpr{}, zerr.With(
				zerr.Wrap(ErrInvalidPlatformExpr, "trailing input after predicate"), "expr", s)
		}
		return PlatformExpr{source: trimmed, node: node}, nil
	}

	// Plain target triple, e.g. "aarch64-apple-darwin".
	parts := strings.Split(trimmed, "-")
	if len(parts) < 2 || strings.ContainsAny(trimmed, "() \t") {
		return PlatformExpr{}, zerr.With(zerr.Wrap(ErrInvalidPlatformExpr, ""), "expr", s)
	}
	return PlatformExpr{source: trimmed, node: tripleNode{triple: trimmed}}, nil
}

// String returns the original gate text.
func (p PlatformExpr) String() string {
	return p.source
}

// IsZero reports whether the gate is unset (unconditional edge).
func (p PlatformExpr) IsZero() bool {
	return p.node == nil
}

// Match evaluates the gate against a target system.
// A zero gate matches every system.
func (p PlatformExpr) Match(sys System) bool {
	if p.node == nil {
		return true
	}
	return p.node.match(sys)
}

// Expr renders the gate as a BoolExpr over the plan variables
// targetOs, targetArch and targetFamily.
func (p PlatformExpr) Expr() BoolExpr {
	if p.node == nil {
		return TrueExpr{}
	}
	return p.node.expr().Simplify()
}

// MarshalText implements encoding.TextMarshaler for lockfile round-trips.
func (p PlatformExpr) MarshalText() ([]byte, error) {
	return []byte(p.source), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PlatformExpr) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = PlatformExpr{}
		return nil
	}
	parsed, err := ParsePlatformExpr(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// eqNode matches a key = "value" predicate.
type eqNode struct {
	key   string
	value string
}

func (n eqNode) match(sys System) bool {
	switch n.key {
	case "target_os":
		return sys.OS == n.value
	case "target_arch":
		return sys.Arch == n.value
	case "target_family":
		return sys.Family() == n.value
	default:
		// Unknown keys (target_env, target_vendor, ...) never match; the plan
		// still records them symbolically via expr().
		return false
	}
}

func (n eqNode) expr() BoolExpr {
	var variable string
	switch n.key {
	case "target_os":
		variable = "targetOs"
	case "target_arch":
		variable = "targetArch"
	case "target_family":
		variable = "targetFamily"
	default:
		return FalseExpr{}
	}
	return Single(fmt.Sprintf("%s == %q", variable, n.value))
}

// familyNode matches the bare unix / windows predicates.
type familyNode struct {
	family string
}

func (n familyNode) match(sys System) bool {
	return sys.Family() == n.family
}

func (n familyNode) expr() BoolExpr {
	return Single(fmt.Sprintf("targetFamily == %q", n.family))
}

// tripleNode matches a full target triple against the system double.
type tripleNode struct {
	triple string
}

func (n tripleNode) match(sys System) bool {
	parts := strings.Split(n.triple, "-")
	if parts[0] != sys.Arch {
		return false
	}
	for _, part := range parts[1:] {
		switch part {
		case "linux", "darwin", "windows":
			return part == sys.OS
		case "apple":
			return sys.OS == "darwin"
		}
	}
	return false
}

func (n tripleNode) expr() BoolExpr {
	return Single(fmt.Sprintf("targetTriple == %q", n.triple))
}

type anyNode struct{ subs []platformNode }

func (n anyNode) match(sys System) bool {
	for _, sub := range n.subs {
		if sub.match(sys) {
			return true
		}
	}
	return false
}

func (n anyNode) expr() BoolExpr {
	exprs := make([]BoolExpr, len(n.subs))
	for i, sub := range n.subs {
		exprs[i] = sub.expr()
	}
	return Ors(exprs...)
}

type allNode struct{ subs []platformNode }

func (n allNode) match(sys System) bool {
	for _, sub := range n.subs {
		if !sub.match(sys) {
			return false
		}
	}
	return true
}

func (n allNode) expr() BoolExpr {
	exprs := make([]BoolExpr, len(n.subs))
	for i, sub := range n.subs {
		exprs[i] = sub.expr()
	}
	return Ands(exprs...)
}

type notNode struct{ sub platformNode }

func (n notNode) match(sys System) bool {
	return !n.sub.match(sys)
}

func (n notNode) expr() BoolExpr {
	return NotExpr{Expr: n.sub.expr()}
}

// platformParser is a recursive-descent parser over the cfg() predicate body.
type platformParser struct {
	input string
	pos   int
}

func (p *platformParser) parsePred() (platformNode, error) {
	p.skipSpace()
	ident := p.readIdent()
	if ident == "" {
		return nil, zerr.Wrap(ErrInvalidPlatformExpr, "expected predicate")
	}

	p.skipSpace()
	switch {
	case ident == "any" || ident == "all":
		subs, err := p.parseList()
		if err != nil {
			return nil, err
		}
		if ident == "any" {
			return anyNode{subs: subs}, nil
		}
		return allNode{subs: subs}, nil

	case ident == "not":
		if !p.consume('(') {
			return nil, zerr.Wrap(ErrInvalidPlatformExpr, "expected '(' after not")
		}
		sub, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(')') {
			return nil, zerr.Wrap(ErrInvalidPlatformExpr, "expected ')' after not predicate")
		}
		return notNode{sub: sub}, nil

	case ident == "unix" || ident == "windows":
		return familyNode{family: ident}, nil

	case p.consume('='):
		p.skipSpace()
		value, err := p.readString()
		if err != nil {
			return nil, err
		}
		return eqNode{key: ident, value: value}, nil

	default:
		return nil, zerr.With(
			zerr.Wrap(ErrInvalidPlatformExpr, "unknown predicate"), "predicate", ident)
	}
}

func (p *platformParser) parseList() ([]platformNode, error) {
	if !p.consume('(') {
		return nil, zerr.Wrap(ErrInvalidPlatformExpr, "expected '('")
	}

	var subs []platformNode
	for {
		sub, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(')') {
			return subs, nil
		}
		return nil, zerr.Wrap(ErrInvalidPlatformExpr, "expected ',' or ')' in predicate list")
	}
}

func (p *platformParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *platformParser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *platformParser) readIdent() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *platformParser) readString() (string, error) {
	if !p.consume('"') {
		return "", zerr.Wrap(ErrInvalidPlatformExpr, "expected quoted value")
	}
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != '"' {
		p.pos++
	}
	if p.pos == len(p.input) {
		return "", zerr.Wrap(ErrInvalidPlatformExpr, "unterminated quoted value")
	}
	value := p.input[start:p.pos]
	p.pos++
	return value, nil
}
