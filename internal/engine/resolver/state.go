package resolver

import (
	"slices"
	"strings"

	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/zerr"
)

var errUnknownFeatureEntry = zerr.New("feature references an unknown entry")

// state is the mutable resolution state: one entry per package, feature and
// dependency edge, each carrying the Optionality built up by the walks.
type state struct {
	graph    *domain.Graph
	packages map[domain.PackageID]*packageState

	// members are the workspace member names in sorted order.
	members []string
	// memberIDs maps a member name to its locked package ID.
	memberIDs map[string]domain.PackageID
}

type packageState struct {
	pkg      *domain.LockedPackage
	opt      *domain.Optionality
	features map[string]*domain.Optionality
	edges    []*edgeState

	// byExtern indexes normal and build edges by the name feature entries
	// reference them under.
	byExtern map[string][]*edgeState
}

// feature returns the optionality for the named feature, creating it on
// first use. Implicit features (the default feature, optional dependency
// toggles) are created the same way as declared ones.
func (ps *packageState) feature(name string) *domain.Optionality {
	o, ok := ps.features[name]
	if !ok {
		o = domain.NewOptionality()
		ps.features[name] = o
	}
	return o
}

type edgeState struct {
	owner domain.PackageID
	dep   domain.LockedDependency
	opt   *domain.Optionality
}

func (e *edgeState) ref() edgeRef {
	return edgeRef{owner: e.owner, target: e.dep.ID, kind: e.dep.Kind}
}

// featureKey identifies one feature of one package.
type featureKey struct {
	pkg  domain.PackageID
	name string
}

// edgeRef identifies one dependency edge.
type edgeRef struct {
	owner  domain.PackageID
	target domain.PackageID
	kind   domain.DependencyKind
}

func newState(ws *domain.Workspace, lock *domain.Lockfile, graph *domain.Graph) (*state, error) {
	s := &state{
		graph:     graph,
		packages:  make(map[domain.PackageID]*packageState, graph.PackageCount()),
		memberIDs: make(map[string]domain.PackageID, len(ws.Members)),
	}

	for name := range ws.Members {
		s.members = append(s.members, name)
	}
	slices.Sort(s.members)

	for _, name := range s.members {
		member, err := lock.MemberByName(name)
		if err != nil {
			return nil, err
		}
		s.memberIDs[name] = member.ID
	}

	for pkg := range graph.Walk() {
		ps := &packageState{
			pkg:      &pkg,
			opt:      domain.NewOptionality(),
			features: make(map[string]*domain.Optionality, len(pkg.Features)),
			byExtern: make(map[string][]*edgeState),
		}
		for name := range pkg.Features {
			ps.features[name] = domain.NewOptionality()
		}

		for _, dep := range pkg.Dependencies {
			// Dev edges of non-member packages never take part in a build.
			if dep.Kind == domain.KindDev && !pkg.IsMember() {
				continue
			}
			e := &edgeState{owner: pkg.ID, dep: dep, opt: domain.NewOptionality()}
			// Dev edges are unconditional: tests always want their tools.
			if dep.Kind == domain.KindDev {
				e.opt.MarkRequired()
			}
			ps.edges = append(ps.edges, e)
			if dep.Kind != domain.KindDev {
				ps.byExtern[dep.ExternName()] = append(ps.byExtern[dep.ExternName()], e)
			}
		}
		slices.SortFunc(ps.edges, func(a, b *edgeState) int {
			if a.dep.ID.Less(b.dep.ID) {
				return -1
			}
			if b.dep.ID.Less(a.dep.ID) {
				return 1
			}
			return int(a.dep.Kind) - int(b.dep.Kind)
		})

		s.packages[pkg.ID] = ps
	}

	return s, nil
}

// rootFeatures returns the togglable root features of a member: its declared
// features, the implicit default feature, and one implicit toggle per
// optional dependency.
func (s *state) rootFeatures(member string) []string {
	ps := s.packages[s.memberIDs[member]]

	set := make(map[string]struct{}, len(ps.features)+1)
	for name := range ps.pkg.Features {
		set[name] = struct{}{}
	}
	set["default"] = struct{}{}
	for _, e := range ps.edges {
		if e.dep.Optional {
			set[e.dep.ExternName()] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// markRequired walks the unconditional closure of a member: every package,
// edge and feature that is active whenever the member is built, regardless
// of the root feature set.
func (s *state) markRequired(member string) error {
	w := &requiredWalk{
		s:        s,
		member:   member,
		packages: make(map[domain.PackageID]struct{}),
		features: make(map[featureKey]struct{}),
	}
	return w.visitPackage(s.memberIDs[member], true)
}

type requiredWalk struct {
	s        *state
	member   string
	packages map[domain.PackageID]struct{}
	features map[featureKey]struct{}
}

func (w *requiredWalk) visitPackage(id domain.PackageID, root bool) error {
	if _, ok := w.packages[id]; ok {
		return nil
	}
	w.packages[id] = struct{}{}

	ps, ok := w.s.packages[id]
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrMissingDependency, ""), "package", id.String())
	}
	ps.opt.RequiredBy(w.member)

	for _, e := range ps.edges {
		if e.dep.Kind == domain.KindDev && !root {
			continue
		}
		if e.dep.Optional {
			continue
		}
		if err := w.enableEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func (w *requiredWalk) enableEdge(e *edgeState) error {
	e.opt.RequiredBy(w.member)
	if e.dep.DefaultFeatures {
		if err := w.visitFeature(e.dep.ID, "default"); err != nil {
			return err
		}
	}
	for _, f := range e.dep.Features {
		if err := w.visitFeature(e.dep.ID, f); err != nil {
			return err
		}
	}
	return w.visitPackage(e.dep.ID, false)
}

func (w *requiredWalk) visitFeature(id domain.PackageID, name string) error {
	key := featureKey{pkg: id, name: name}
	if _, ok := w.features[key]; ok {
		return nil
	}
	w.features[key] = struct{}{}

	ps := w.s.packages[id]
	ps.feature(name).RequiredBy(w.member)

	entries, declared := ps.pkg.Features[name]
	if !declared {
		// An undeclared name is the implicit default feature or an optional
		// dependency toggle.
		if name == "default" {
			return nil
		}
		edges := ps.byExtern[name]
		if len(edges) == 0 {
			return zerr.With(zerr.With(errUnknownFeatureEntry, "package", id.String()), "feature", name)
		}
		for _, e := range edges {
			if err := w.enableEdge(e); err != nil {
				return err
			}
		}
		return nil
	}

	for _, entry := range entries {
		if err := w.visitEntry(ps, entry); err != nil {
			return err
		}
	}
	return nil
}

func (w *requiredWalk) visitEntry(ps *packageState, entry string) error {
	if depName, featName, ok := strings.Cut(entry, "/"); ok {
		edges := ps.byExtern[depName]
		if len(edges) == 0 {
			return zerr.With(zerr.With(errUnknownFeatureEntry, "package", ps.pkg.ID.String()), "entry", entry)
		}
		for _, e := range edges {
			if err := w.enableEdge(e); err != nil {
				return err
			}
			if err := w.visitFeature(e.dep.ID, featName); err != nil {
				return err
			}
		}
		return nil
	}
	return w.visitFeature(ps.pkg.ID, entry)
}

// activation collects the marks of one root feature walk. The walk only
// reads shared state, so activations for different root features can run
// concurrently; the marks are merged serially afterwards.
type activation struct {
	s  *state
	rf domain.RootFeature

	packages map[domain.PackageID]struct{}
	features map[featureKey]struct{}
	edges    map[edgeRef]struct{}
}

func newActivation(s *state, rf domain.RootFeature) *activation {
	return &activation{
		s:        s,
		rf:       rf,
		packages: make(map[domain.PackageID]struct{}),
		features: make(map[featureKey]struct{}),
		edges:    make(map[edgeRef]struct{}),
	}
}

func (a *activation) run() error {
	return a.visitFeature(a.s.memberIDs[a.rf.Member], a.rf.Feature)
}

func (a *activation) visitFeature(id domain.PackageID, name string) error {
	key := featureKey{pkg: id, name: name}
	if _, ok := a.features[key]; ok {
		return nil
	}
	a.features[key] = struct{}{}

	ps := a.s.packages[id]
	entries, declared := ps.pkg.Features[name]
	if !declared {
		if name == "default" {
			return nil
		}
		edges := ps.byExtern[name]
		if len(edges) == 0 {
			return zerr.With(zerr.With(errUnknownFeatureEntry, "package", id.String()), "feature", name)
		}
		for _, e := range edges {
			if err := a.enableEdge(e); err != nil {
				return err
			}
		}
		return nil
	}

	for _, entry := range entries {
		if err := a.visitEntry(ps, entry); err != nil {
			return err
		}
	}
	return nil
}

func (a *activation) visitEntry(ps *packageState, entry string) error {
	if depName, featName, ok := strings.Cut(entry, "/"); ok {
		edges := ps.byExtern[depName]
		if len(edges) == 0 {
			return zerr.With(zerr.With(errUnknownFeatureEntry, "package", ps.pkg.ID.String()), "entry", entry)
		}
		for _, e := range edges {
			if err := a.enableEdge(e); err != nil {
				return err
			}
			if err := a.visitFeature(e.dep.ID, featName); err != nil {
				return err
			}
		}
		return nil
	}
	return a.visitFeature(ps.pkg.ID, entry)
}

func (a *activation) enableEdge(e *edgeState) error {
	ref := e.ref()
	if _, ok := a.edges[ref]; ok {
		return nil
	}
	a.edges[ref] = struct{}{}

	if e.dep.DefaultFeatures {
		if err := a.visitFeature(e.dep.ID, "default"); err != nil {
			return err
		}
	}
	for _, f := range e.dep.Features {
		if err := a.visitFeature(e.dep.ID, f); err != nil {
			return err
		}
	}
	return a.visitPackage(e.dep.ID)
}

// visitPackage marks a package that became active through the root feature,
// together with its unconditional edges.
func (a *activation) visitPackage(id domain.PackageID) error {
	if _, ok := a.packages[id]; ok {
		return nil
	}
	a.packages[id] = struct{}{}

	ps, ok := a.s.packages[id]
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrMissingDependency, ""), "package", id.String())
	}

	for _, e := range ps.edges {
		if e.dep.Kind == domain.KindDev || e.dep.Optional {
			continue
		}
		if err := a.enableEdge(e); err != nil {
			return err
		}
	}
	return nil
}

// merge applies the collected marks to the shared state.
func (s *state) merge(a *activation) {
	for id := range a.packages {
		s.packages[id].opt.ActivatedBy(a.rf)
	}
	for key := range a.features {
		s.packages[key.pkg].feature(key.name).ActivatedBy(a.rf)
	}
	for ref := range a.edges {
		for _, e := range s.packages[ref.owner].edges {
			if e.dep.ID == ref.target && e.dep.Kind == ref.kind {
				e.opt.ActivatedBy(a.rf)
			}
		}
	}
}

// simplify collapses conditions that hold for every build. An entry required
// by all members is unconditionally required, and an entry whose condition
// matches its package's activation condition holds whenever the package is
// built at all.
func (s *state) simplify() {
	memberCount := len(s.members)

	promote := func(o *domain.Optionality) {
		if !o.IsRequired() && o.RequiredByCount() == memberCount {
			o.MarkRequired()
		}
	}

	unreached := domain.NewOptionality()

	for _, id := range s.sortedIDs() {
		ps := s.packages[id]
		promote(ps.opt)
		for _, o := range ps.features {
			promote(o)
		}
		for _, e := range ps.edges {
			promote(e.opt)
		}

		// A package nothing activates keeps its false conditions.
		if ps.opt.Equal(unreached) {
			continue
		}

		for _, o := range ps.features {
			if o.Equal(ps.opt) {
				o.MarkRequired()
			}
		}
		for _, e := range ps.edges {
			if e.opt.Equal(ps.opt) {
				e.opt.MarkRequired()
			}
		}
	}
}

func (s *state) sortedIDs() []domain.PackageID {
	ids := make([]domain.PackageID, 0, len(s.packages))
	for id := range s.packages {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b domain.PackageID) int {
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
