package domain

// WorkspaceManifest is the parsed workspace.toml: the member list plus
// build profiles that are copied verbatim into the plan.
type WorkspaceManifest struct {
	// Members are the relative directories of the workspace members.
	Members []string

	// Profiles maps a profile name (e.g. "release") to its settings.
	Profiles Profiles
}

// Profiles carries opaque per-profile build settings (opt-level, lto, ...).
// The planner does not interpret them; they pass through into the plan.
type Profiles map[string]map[string]any

// DependencySpec is a declared dependency in a package manifest, before
// resolution against the lockfile.
type DependencySpec struct {
	// Version is the requested version constraint (e.g. "1.3", "3").
	Version string

	// Optional marks the dependency as feature-gated.
	Optional bool

	// DefaultFeatures controls whether the dependency's default feature
	// is activated when the edge is enabled.
	DefaultFeatures bool

	// Features are additional dependency features requested by this edge.
	Features []string

	// Platform is an optional cfg() gate restricting the edge to matching systems.
	Platform PlatformExpr

	// Rename is the extern alias, when the edge is linked under another name.
	Rename string
}

// PackageManifest is the parsed package.toml of one workspace member.
type PackageManifest struct {
	Name    string
	Version string

	// Dependencies holds the declared edges by kind.
	Dependencies      map[string]DependencySpec
	BuildDependencies map[string]DependencySpec
	DevDependencies   map[string]DependencySpec

	// Features maps a feature name to the entries it enables. An entry is
	// either a sibling feature, an optional dependency name, or "dep/feat".
	Features map[string][]string
}

// Workspace bundles the workspace manifest with its loaded member manifests,
// keyed by member name.
type Workspace struct {
	Manifest WorkspaceManifest
	Members  map[string]*PackageManifest
}

// Member returns the manifest of the named member.
func (w *Workspace) Member(name string) (*PackageManifest, error) {
	m, ok := w.Members[name]
	if !ok {
		return nil, ErrUnknownMember
	}
	return m, nil
}
