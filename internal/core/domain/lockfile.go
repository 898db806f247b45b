// Package domain contains the core domain models for workspace planning:
// lockfile snapshots, manifests, the package graph and activation analysis.
package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// PackageID identifies one exact package in the lockfile snapshot.
type PackageID struct {
	Name    InternedString
	Version InternedString
}

// NewPackageID creates a PackageID from raw strings.
func NewPackageID(name, version string) PackageID {
	return PackageID{
		Name:    NewInternedString(name),
		Version: NewInternedString(version),
	}
}

// String returns the "<name> <version>" form used for plan keys.
func (id PackageID) String() string {
	return id.Name.String() + " " + id.Version.String()
}

// Less orders IDs by name, then version. Used for deterministic plan output.
func (id PackageID) Less(other PackageID) bool {
	if id.Name.String() != other.Name.String() {
		return id.Name.String() < other.Name.String()
	}
	return id.Version.String() < other.Version.String()
}

// SourceKind discriminates where a locked package comes from.
type SourceKind int

const (
	// SourcePath is a workspace member checked out alongside the lockfile.
	SourcePath SourceKind = iota
	// SourceRegistry is a package fetched from a registry channel.
	SourceRegistry
	// SourceGit is a package pinned to a git revision.
	SourceGit
)

// Source describes the origin of a locked package.
type Source struct {
	Kind SourceKind
	URL  string
	Rev  string
}

// ParseSource parses a lockfile source string.
// Recognized forms: "" (path), "registry+<url>", "git+<url>#<rev>".
func ParseSource(s string) (Source, error) {
	if s == "" {
		return Source{Kind: SourcePath}, nil
	}
	if url, ok := strings.CutPrefix(s, "registry+"); ok {
		if url == "" {
			return Source{}, zerr.With(zerr.Wrap(ErrInvalidSource, ""), "source", s)
		}
		return Source{Kind: SourceRegistry, URL: url}, nil
	}
	if rest, ok := strings.CutPrefix(s, "git+"); ok {
		url, rev, found := strings.Cut(rest, "#")
		if !found || url == "" || rev == "" {
			return Source{}, zerr.With(
				zerr.Wrap(ErrInvalidSource, "git source requires url#rev"), "source", s)
		}
		return Source{Kind: SourceGit, URL: url, Rev: rev}, nil
	}
	return Source{}, zerr.With(zerr.Wrap(ErrInvalidSource, ""), "source", s)
}

// String renders the source back to its lockfile form.
func (s Source) String() string {
	switch s.Kind {
	case SourceRegistry:
		return "registry+" + s.URL
	case SourceGit:
		return "git+" + s.URL + "#" + s.Rev
	default:
		return ""
	}
}

// DependencyKind classifies a dependency edge.
type DependencyKind int

const (
	// KindNormal is a runtime dependency.
	KindNormal DependencyKind = iota
	// KindBuild is a build-time dependency.
	KindBuild
	// KindDev is a test/development dependency. Dev edges are only followed
	// for workspace members and are never optional in the plan.
	KindDev
)

// String returns the lockfile spelling of the kind.
func (k DependencyKind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindDev:
		return "dev"
	default:
		return "normal"
	}
}

// ParseDependencyKind parses a lockfile kind string. Empty means normal.
func ParseDependencyKind(s string) (DependencyKind, error) {
	switch s {
	case "", "normal":
		return KindNormal, nil
	case "build":
		return KindBuild, nil
	case "dev":
		return KindDev, nil
	default:
		return KindNormal, zerr.With(zerr.New("unknown dependency kind"), "kind", s)
	}
}

// LockedDependency is one typed edge of a locked package.
type LockedDependency struct {
	ID              PackageID
	Kind            DependencyKind
	Optional        bool
	DefaultFeatures bool
	Features        []string
	Platform        PlatformExpr
	Rename          string
}

// ExternName is the name the dependency is linked under: the rename when
// present, otherwise the package name.
func (d LockedDependency) ExternName() string {
	if d.Rename != "" {
		return d.Rename
	}
	return d.ID.Name.String()
}

// LockedPackage is one fully pinned package of the snapshot.
type LockedPackage struct {
	ID           PackageID
	Source       Source
	Checksum     string
	Features     map[string][]string
	Dependencies []LockedDependency
}

// IsMember reports whether the package is a workspace member (path source).
func (p *LockedPackage) IsMember() bool {
	return p.Source.Kind == SourcePath
}

// Lockfile represents the complete state of resolved package dependencies.
// It provides a reproducible snapshot of all dependencies of the workspace.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int

	// Packages holds every pinned package, including the workspace members.
	Packages []LockedPackage
}

// Package returns the locked package with the given ID.
func (l *Lockfile) Package(id PackageID) (*LockedPackage, error) {
	for i := range l.Packages {
		if l.Packages[i].ID == id {
			return &l.Packages[i], nil
		}
	}
	return nil, zerr.With(zerr.Wrap(ErrMissingDependency, ""), "package", id.String())
}

// MemberByName returns the workspace member with the given name.
func (l *Lockfile) MemberByName(name string) (*LockedPackage, error) {
	for i := range l.Packages {
		if l.Packages[i].IsMember() && l.Packages[i].ID.Name.String() == name {
			return &l.Packages[i], nil
		}
	}
	return nil, zerr.With(zerr.Wrap(ErrUnknownMember, ""), "member", name)
}
