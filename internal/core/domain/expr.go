package domain

import "strings"

// BoolExpr is a boolean condition over opaque Nix terms. It is used to express
// when an optional dependency or feature of a package is active, in terms of
// the root feature set the plan is instantiated with.
type BoolExpr interface {
	// Nix renders the expression in Nix syntax.
	Nix() string

	// Simplify returns an equivalent expression with constant folding applied.
	Simplify() BoolExpr
}

// TrueExpr is the constant true.
type TrueExpr struct{}

// FalseExpr is the constant false.
type FalseExpr struct{}

// SingleExpr is an opaque Nix term, e.g. `rootFeatures' ? "server/tls"`.
type SingleExpr struct {
	Term string
}

// NotExpr negates its operand.
type NotExpr struct {
	Expr BoolExpr
}

// AndExpr is the conjunction of its operands.
type AndExpr struct {
	Exprs []BoolExpr
}

// OrExpr is the disjunction of its operands.
type OrExpr struct {
	Exprs []BoolExpr
}

// Ors builds a disjunction. An empty operand list yields FalseExpr,
// a single operand is returned unwrapped.
func Ors(exprs ...BoolExpr) BoolExpr {
	switch len(exprs) {
	case 0:
		return FalseExpr{}
	case 1:
		return exprs[0]
	default:
		return OrExpr{Exprs: exprs}
	}
}

// Ands builds a conjunction. An empty operand list yields TrueExpr,
// a single operand is returned unwrapped.
func Ands(exprs ...BoolExpr) BoolExpr {
	switch len(exprs) {
	case 0:
		return TrueExpr{}
	case 1:
		return exprs[0]
	default:
		return AndExpr{Exprs: exprs}
	}
}

// Single is a convenience constructor for SingleExpr.
func Single(term string) BoolExpr {
	return SingleExpr{Term: term}
}

// Nix renders the constant true.
func (TrueExpr) Nix() string { return "true" }

// Simplify returns the expression unchanged.
func (e TrueExpr) Simplify() BoolExpr { return e }

// Nix renders the constant false.
func (FalseExpr) Nix() string { return "false" }

// Simplify returns the expression unchanged.
func (e FalseExpr) Simplify() BoolExpr { return e }

// Nix renders the opaque term, parenthesized so callers can compose it freely.
func (e SingleExpr) Nix() string { return "(" + e.Term + ")" }

// Simplify returns the expression unchanged.
func (e SingleExpr) Simplify() BoolExpr { return e }

// Nix renders the negation.
func (e NotExpr) Nix() string { return "(!" + e.Expr.Nix() + ")" }

// Simplify folds double negation and negated constants.
func (e NotExpr) Simplify() BoolExpr {
	switch inner := e.Expr.Simplify().(type) {
	case TrueExpr:
		return FalseExpr{}
	case FalseExpr:
		return TrueExpr{}
	case NotExpr:
		return inner.Expr
	default:
		return NotExpr{Expr: inner}
	}
}

// Nix renders the conjunction.
func (e AndExpr) Nix() string {
	return renderJoin(e.Exprs, " && ")
}

// Simplify drops true operands and collapses to false when any operand is false.
func (e AndExpr) Simplify() BoolExpr {
	kept := make([]BoolExpr, 0, len(e.Exprs))
	for _, sub := range e.Exprs {
		switch s := sub.Simplify().(type) {
		case TrueExpr:
			// Neutral element.
		case FalseExpr:
			return FalseExpr{}
		default:
			kept = append(kept, s)
		}
	}
	return Ands(kept...)
}

// Nix renders the disjunction.
func (e OrExpr) Nix() string {
	return renderJoin(e.Exprs, " || ")
}

// Simplify drops false operands and collapses to true when any operand is true.
func (e OrExpr) Simplify() BoolExpr {
	kept := make([]BoolExpr, 0, len(e.Exprs))
	for _, sub := range e.Exprs {
		switch s := sub.Simplify().(type) {
		case FalseExpr:
			// Neutral element.
		case TrueExpr:
			return TrueExpr{}
		default:
			kept = append(kept, s)
		}
	}
	return Ors(kept...)
}

func renderJoin(exprs []BoolExpr, sep string) string {
	if len(exprs) == 0 {
		// Callers should use Ors/Ands which never build empty nodes,
		// but render something valid regardless.
		if sep == " && " {
			return "true"
		}
		return "false"
	}

	parts := make([]string, len(exprs))
	for i, sub := range exprs {
		parts[i] = sub.Nix()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
