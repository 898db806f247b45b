package domain

// BuildPlan is the renderable result of activation analysis: everything the
// plan template needs, fully ordered and with all conditions pre-rendered.
type BuildPlan struct {
	// Version is the generator version recorded in the plan's
	// nixplanVersion attribute.
	Version string

	// Fingerprint is the xxhash of the workspace inputs (manifests and
	// lockfile) the plan was derived from.
	Fingerprint string

	// Channel is the registry channel the package set is instantiated from.
	Channel string

	// Members are the workspace members, in deterministic order.
	Members []PlanMember

	// DefaultRootFeatures is the root feature set used when the plan is
	// instantiated without an explicit one ("member/default" per member).
	DefaultRootFeatures []string

	// Packages are all locked packages in dependency order.
	Packages []PlanPackage

	// Profiles are the workspace build profiles, passed through verbatim.
	Profiles Profiles
}

// PlanMember is one buildable workspace member.
type PlanMember struct {
	Name    string
	Version string
}

// PlanPackage is one package entry of the plan.
type PlanPackage struct {
	Name     string
	Version  string
	Source   string
	Checksum string
	IsMember bool

	// Features are the package's features with their activation conditions.
	Features []PlanFeature

	// Deps are the package's dependency edges with activation conditions.
	Deps []PlanDependency
}

// PlanFeature is a feature of a plan package.
type PlanFeature struct {
	Name string

	// When is the Nix condition under which the feature is active.
	When string
}

// PlanDependency is a dependency edge of a plan package.
type PlanDependency struct {
	// ExternName is the name the dependency is linked under.
	ExternName string

	Name    string
	Version string
	Kind    string

	// When is the Nix condition under which the edge is active. It combines
	// the optionality condition with the platform gate.
	When string
}
