// Package resolver performs activation analysis over the locked dependency
// graph: it determines under which root feature sets every package, feature
// and dependency edge is active, and assembles the build plan.
package resolver

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/zerr"
)

// rootFeaturesVar is the Nix variable plan conditions test against.
const rootFeaturesVar = "rootFeatures'"

// Resolver turns a workspace, its lockfile snapshot and the validated graph
// into a build plan.
type Resolver struct {
	parallelism int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithParallelism bounds the number of concurrent activation walks.
func WithParallelism(n int) Option {
	return func(r *Resolver) {
		r.parallelism = n
	}
}

// New creates a new Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the build plan. The walk order and all rendered
// conditions are deterministic for a given input.
//
// The analysis runs in three phases. First every member's unconditional
// closure is marked required by that member. Then one activation walk per
// root feature collects what that feature turns on; the walks only read
// shared state and run concurrently. Finally conditions that hold for every
// build are collapsed to true.
func (r *Resolver) Resolve(ctx context.Context, ws *domain.Workspace, lock *domain.Lockfile, graph *domain.Graph) (*domain.BuildPlan, error) {
	s, err := newState(ws, lock, graph)
	if err != nil {
		return nil, err
	}

	for _, member := range s.members {
		if err := s.markRequired(member); err != nil {
			return nil, zerr.With(
				zerr.Wrap(err, "failed to resolve required closure"), "member", member)
		}
	}

	var roots []domain.RootFeature
	for _, member := range s.members {
		for _, feature := range s.rootFeatures(member) {
			roots = append(roots, domain.RootFeature{Member: member, Feature: feature})
		}
	}

	// Each walk writes only its own slot.
	activations := make([]*activation, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, rf := range roots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a := newActivation(s, rf)
			if err := a.run(); err != nil {
				return zerr.With(
					zerr.Wrap(err, "failed to activate root feature"), "root_feature", rf.String())
			}
			activations[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge in root feature order so runs are reproducible.
	for _, a := range activations {
		s.merge(a)
	}

	s.simplify()

	return r.assemble(s), nil
}

// assemble renders the resolved state into the plan structure. The caller
// fills in the generator version, fingerprint and channel.
func (r *Resolver) assemble(s *state) *domain.BuildPlan {
	plan := &domain.BuildPlan{}

	for _, member := range s.members {
		id := s.memberIDs[member]
		plan.Members = append(plan.Members, domain.PlanMember{
			Name:    id.Name.String(),
			Version: id.Version.String(),
		})
		plan.DefaultRootFeatures = append(plan.DefaultRootFeatures, member+"/default")
	}

	for pkg := range s.graph.Walk() {
		ps := s.packages[pkg.ID]

		pp := domain.PlanPackage{
			Name:     pkg.ID.Name.String(),
			Version:  pkg.ID.Version.String(),
			Source:   pkg.Source.String(),
			Checksum: pkg.Checksum,
			IsMember: pkg.IsMember(),
		}

		names := make([]string, 0, len(ps.features))
		for name := range ps.features {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			pp.Features = append(pp.Features, domain.PlanFeature{
				Name: name,
				When: ps.features[name].ToExpr(rootFeaturesVar).Simplify().Nix(),
			})
		}

		for _, e := range ps.edges {
			when := e.opt.ToExpr(rootFeaturesVar)
			if !e.dep.Platform.IsZero() {
				when = domain.Ands(when, e.dep.Platform.Expr())
			}
			pp.Deps = append(pp.Deps, domain.PlanDependency{
				ExternName: e.dep.ExternName(),
				Name:       e.dep.ID.Name.String(),
				Version:    e.dep.ID.Version.String(),
				Kind:       e.dep.Kind.String(),
				When:       when.Simplify().Nix(),
			})
		}

		plan.Packages = append(plan.Packages, pp)
	}

	return plan
}
