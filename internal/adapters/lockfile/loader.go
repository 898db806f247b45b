// Package lockfile loads the nixplan.lock snapshot.
package lockfile

import (
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/zerr"
)

// Filename is the lockfile looked up in the working directory.
const Filename = "nixplan.lock"

// SupportedVersion is the lockfile format version this build understands.
const SupportedVersion = 1

// Loader implements ports.LockfileLoader on top of a TOML lockfile.
type Loader struct{}

// NewLoader creates a new lockfile Loader.
func NewLoader() *Loader {
	return &Loader{}
}

type lockfileDTO struct {
	Version  int          `toml:"version"`
	Packages []packageDTO `toml:"package"`
}

type packageDTO struct {
	Name         string              `toml:"name"`
	Version      string              `toml:"version"`
	Source       string              `toml:"source"`
	Checksum     string              `toml:"checksum"`
	Features     map[string][]string `toml:"features"`
	Dependencies []dependencyDTO     `toml:"dependencies"`
}

type dependencyDTO struct {
	Name            string   `toml:"name"`
	Version         string   `toml:"version"`
	Kind            string   `toml:"kind"`
	Optional        bool     `toml:"optional"`
	DefaultFeatures *bool    `toml:"default-features"`
	Features        []string `toml:"features"`
	Platform        string   `toml:"platform"`
	Rename          string   `toml:"rename"`
}

// Load reads and validates the lockfile, then cross-checks it against the
// workspace member manifests.
func (l *Loader) Load(cwd string, ws *domain.Workspace) (*domain.Lockfile, error) {
	path := filepath.Join(cwd, Filename)

	var dto lockfileDTO
	if _, err := toml.DecodeFile(path, &dto); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to load lockfile"), "path", path)
	}
	if dto.Version != SupportedVersion {
		return nil, zerr.With(zerr.With(
			zerr.New("unsupported lockfile version"),
			"version", strconv.Itoa(dto.Version)), "supported", strconv.Itoa(SupportedVersion))
	}

	lock := &domain.Lockfile{Version: dto.Version}
	for _, pkgDTO := range dto.Packages {
		pkg, err := convertPackage(pkgDTO)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, ""), "package", pkgDTO.Name)
		}
		lock.Packages = append(lock.Packages, pkg)
	}

	if err := checkEdges(lock); err != nil {
		return nil, err
	}
	if err := checkFreshness(lock, ws); err != nil {
		return nil, err
	}

	return lock, nil
}

func convertPackage(dto packageDTO) (domain.LockedPackage, error) {
	if dto.Name == "" || dto.Version == "" {
		return domain.LockedPackage{}, zerr.New("lock entry requires name and version")
	}

	source, err := domain.ParseSource(dto.Source)
	if err != nil {
		return domain.LockedPackage{}, err
	}

	// Registry packages are fetched by checksum; an entry without one cannot
	// yield a reproducible plan. Git sources may omit it (filled by prefetch).
	if source.Kind == domain.SourceRegistry && dto.Checksum == "" {
		return domain.LockedPackage{}, domain.ErrMissingChecksum
	}

	pkg := domain.LockedPackage{
		ID:       domain.NewPackageID(dto.Name, dto.Version),
		Source:   source,
		Checksum: dto.Checksum,
		Features: dto.Features,
	}

	for _, depDTO := range dto.Dependencies {
		dep, err := convertDependency(depDTO)
		if err != nil {
			return domain.LockedPackage{}, err
		}
		pkg.Dependencies = append(pkg.Dependencies, dep)
	}

	return pkg, nil
}

func convertDependency(dto dependencyDTO) (domain.LockedDependency, error) {
	if dto.Name == "" || dto.Version == "" {
		return domain.LockedDependency{}, zerr.New("lock dependency requires name and version")
	}

	kind, err := domain.ParseDependencyKind(dto.Kind)
	if err != nil {
		return domain.LockedDependency{}, err
	}

	dep := domain.LockedDependency{
		ID:              domain.NewPackageID(dto.Name, dto.Version),
		Kind:            kind,
		Optional:        dto.Optional,
		DefaultFeatures: dto.DefaultFeatures == nil || *dto.DefaultFeatures,
		Features:        dto.Features,
		Rename:          dto.Rename,
	}

	if dto.Platform != "" {
		gate, err := domain.ParsePlatformExpr(dto.Platform)
		if err != nil {
			return domain.LockedDependency{}, zerr.With(err, "dependency", dto.Name)
		}
		dep.Platform = gate
	}

	return dep, nil
}

// checkEdges verifies every dependency edge points at a lock entry.
func checkEdges(lock *domain.Lockfile) error {
	known := make(map[domain.PackageID]struct{}, len(lock.Packages))
	for i := range lock.Packages {
		known[lock.Packages[i].ID] = struct{}{}
	}
	for i := range lock.Packages {
		for _, dep := range lock.Packages[i].Dependencies {
			if _, ok := known[dep.ID]; !ok {
				return zerr.With(zerr.With(zerr.Wrap(domain.ErrMissingDependency, ""),
					"package", lock.Packages[i].ID.String()),
					"dependency", dep.ID.String())
			}
		}
	}
	return nil
}

// checkFreshness cross-checks the lockfile against the member manifests:
// every member must be present at its manifest version.
func checkFreshness(lock *domain.Lockfile, ws *domain.Workspace) error {
	for name, m := range ws.Members {
		pkg, err := lock.MemberByName(name)
		if err != nil {
			return zerr.With(zerr.Wrap(domain.ErrLockfileStale, "member missing from lockfile"),
				"member", name)
		}
		if pkg.ID.Version.String() != m.Version {
			stale := zerr.Wrap(domain.ErrLockfileStale, "member version changed")
			stale = zerr.With(stale, "member", name)
			stale = zerr.With(stale, "manifest_version", m.Version)
			return zerr.With(stale, "locked_version", pkg.ID.Version.String())
		}
	}
	return nil
}
