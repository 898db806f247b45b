package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph represents the dependency graph of locked packages.
type Graph struct {
	packages       map[PackageID]LockedPackage
	executionOrder []PackageID
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		packages: make(map[PackageID]LockedPackage),
	}
}

// GraphFromLockfile builds and validates a graph from a lockfile snapshot.
func GraphFromLockfile(lock *Lockfile) (*Graph, error) {
	g := NewGraph()
	for i := range lock.Packages {
		if err := g.AddPackage(&lock.Packages[i]); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// AddPackage adds a package to the graph.
// It returns an error if a package with the same ID already exists.
func (g *Graph) AddPackage(p *LockedPackage) error {
	if _, exists := g.packages[p.ID]; exists {
		return zerr.With(zerr.Wrap(ErrPackageAlreadyExists, ""), "package", p.ID.String())
	}
	g.packages[p.ID] = *p
	return nil
}

// PackageCount returns the number of packages in the graph.
func (g *Graph) PackageCount() int {
	return len(g.packages)
}

// Validate checks for cycles using a depth-first topological sort and
// verifies every dependency edge points at a known package.
// It populates the execution order: dependencies before dependents, ties
// broken by package ID so plan output is deterministic.
//
// Dev edges are excluded from cycle detection: a tool depending on a library
// whose tests depend on the tool is a legal snapshot.
func (g *Graph) Validate() error {
	g.executionOrder = make([]PackageID, 0, len(g.packages))
	visited := make(map[PackageID]int, len(g.packages)) // 0: unvisited, 1: visiting, 2: visited
	var path []PackageID

	var visit func(id PackageID) error
	visit = func(id PackageID) error {
		visited[id] = 1
		path = append(path, id)

		pkg, exists := g.packages[id]
		if !exists {
			return zerr.With(zerr.Wrap(ErrMissingDependency, ""), "package", id.String())
		}

		for _, dep := range sortedDeps(pkg.Dependencies) {
			if dep.Kind == KindDev {
				continue
			}
			if visited[dep.ID] == 1 {
				return g.buildCycleError(path, dep.ID)
			}
			if visited[dep.ID] == 0 {
				if err := visit(dep.ID); err != nil {
					return err
				}
			}
		}

		visited[id] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, id)
		return nil
	}

	for _, id := range g.sortedIDs() {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []PackageID, dep PackageID) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(zerr.Wrap(ErrCycleDetected, cyclePath), "cycle", cyclePath)
}

// Walk returns an iterator that yields packages in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[LockedPackage] {
	return func(yield func(LockedPackage) bool) {
		for _, id := range g.executionOrder {
			if !yield(g.packages[id]) {
				return
			}
		}
	}
}

// Dependents returns the packages with an edge onto the given package,
// in deterministic order. Dev edges count: a test-only dependent is still
// a dependent.
func (g *Graph) Dependents(id PackageID) []PackageID {
	var dependents []PackageID
	for _, ownerID := range g.sortedIDs() {
		for _, dep := range g.packages[ownerID].Dependencies {
			if dep.ID == id {
				dependents = append(dependents, ownerID)
				break
			}
		}
	}
	return dependents
}

// Package returns the package with the given ID.
func (g *Graph) Package(id PackageID) (*LockedPackage, error) {
	pkg, ok := g.packages[id]
	if !ok {
		return nil, zerr.With(zerr.Wrap(ErrMissingDependency, ""), "package", id.String())
	}
	return &pkg, nil
}

func (g *Graph) sortedIDs() []PackageID {
	ids := make([]PackageID, 0, len(g.packages))
	for id := range g.packages {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b PackageID) int {
		if a.Less(b) {
			return -1
		}
		if b.Less(a) {
			return 1
		}
		return 0
	})
	return ids
}

func sortedDeps(deps []LockedDependency) []LockedDependency {
	sorted := slices.Clone(deps)
	slices.SortFunc(sorted, func(a, b LockedDependency) int {
		if a.ID.Less(b.ID) {
			return -1
		}
		if b.ID.Less(a.ID) {
			return 1
		}
		return int(a.Kind) - int(b.Kind)
	})
	return sorted
}
