package domain_test

import (
	"testing"

	"go.trai.ch/nixplan/internal/core/domain"
)

func TestExpr_Nix(t *testing.T) {
	tests := []struct {
		name string
		expr domain.BoolExpr
		want string
	}{
		{"true", domain.TrueExpr{}, "true"},
		{"false", domain.FalseExpr{}, "false"},
		{"single", domain.Single(`rootFeatures' ? "server/tls"`), `(rootFeatures' ? "server/tls")`},
		{"not", domain.NotExpr{Expr: domain.Single("a")}, "(!(a))"},
		{
			"and",
			domain.Ands(domain.Single("a"), domain.Single("b")),
			"((a) && (b))",
		},
		{
			"or",
			domain.Ors(domain.Single("a"), domain.Single("b"), domain.Single("c")),
			"((a) || (b) || (c))",
		},
		{
			"nested",
			domain.Ands(domain.Ors(domain.Single("a"), domain.Single("b")), domain.Single("c")),
			"(((a) || (b)) && (c))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.Nix(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExpr_Simplify(t *testing.T) {
	tests := []struct {
		name string
		expr domain.BoolExpr
		want string
	}{
		{"and drops true", domain.Ands(domain.TrueExpr{}, domain.Single("a")), "(a)"},
		{"and collapses on false", domain.Ands(domain.Single("a"), domain.FalseExpr{}), "false"},
		{"and of nothing but true", domain.Ands(domain.TrueExpr{}, domain.TrueExpr{}), "true"},
		{"or drops false", domain.Ors(domain.FalseExpr{}, domain.Single("a")), "(a)"},
		{"or collapses on true", domain.Ors(domain.Single("a"), domain.TrueExpr{}), "true"},
		{"or of nothing but false", domain.Ors(domain.FalseExpr{}, domain.FalseExpr{}), "false"},
		{"not true", domain.NotExpr{Expr: domain.TrueExpr{}}, "false"},
		{"not false", domain.NotExpr{Expr: domain.FalseExpr{}}, "true"},
		{"double negation", domain.NotExpr{Expr: domain.NotExpr{Expr: domain.Single("a")}}, "(a)"},
		{
			"recursive",
			domain.Ors(
				domain.Ands(domain.TrueExpr{}, domain.Single("a")),
				domain.FalseExpr{},
			),
			"(a)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.Simplify().Nix(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOrsAndsEmpty(t *testing.T) {
	if got := domain.Ors().Nix(); got != "false" {
		t.Errorf("empty Ors should render false, got %q", got)
	}
	if got := domain.Ands().Nix(); got != "true" {
		t.Errorf("empty Ands should render true, got %q", got)
	}
}
