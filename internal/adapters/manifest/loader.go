// Package manifest loads the workspace and member package manifests.
package manifest

import (
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// WorkspaceFilename is the workspace manifest at the workspace root.
	WorkspaceFilename = "workspace.toml"

	// PackageFilename is the per-member package manifest.
	PackageFilename = "package.toml"
)

// Loader implements ports.WorkspaceLoader on top of TOML manifests.
type Loader struct{}

// NewLoader creates a new workspace Loader.
func NewLoader() *Loader {
	return &Loader{}
}

type workspaceDTO struct {
	Workspace struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
	Profile map[string]map[string]any `toml:"profile"`
}

type packageDTO struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Dependencies      map[string]toml.Primitive `toml:"dependencies"`
	BuildDependencies map[string]toml.Primitive `toml:"build-dependencies"`
	DevDependencies   map[string]toml.Primitive `toml:"dev-dependencies"`
	Features          map[string][]string       `toml:"features"`
}

type dependencyDTO struct {
	Version         string   `toml:"version"`
	Optional        bool     `toml:"optional"`
	DefaultFeatures *bool    `toml:"default-features"`
	Features        []string `toml:"features"`
	Platform        string   `toml:"platform"`
	Rename          string   `toml:"rename"`
}

// Load reads workspace.toml and every member's package.toml.
func (l *Loader) Load(cwd string) (*domain.Workspace, error) {
	wsPath := filepath.Join(cwd, WorkspaceFilename)

	var wsDTO workspaceDTO
	if _, err := toml.DecodeFile(wsPath, &wsDTO); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to load workspace manifest"), "path", wsPath)
	}
	if len(wsDTO.Workspace.Members) == 0 {
		return nil, zerr.With(zerr.New("workspace has no members"), "path", wsPath)
	}

	ws := &domain.Workspace{
		Manifest: domain.WorkspaceManifest{
			Members:  wsDTO.Workspace.Members,
			Profiles: wsDTO.Profile,
		},
		Members: make(map[string]*domain.PackageManifest, len(wsDTO.Workspace.Members)),
	}

	for _, dir := range wsDTO.Workspace.Members {
		pkgPath := filepath.Join(cwd, dir, PackageFilename)
		pkg, err := loadPackage(pkgPath)
		if err != nil {
			return nil, err
		}
		if _, dup := ws.Members[pkg.Name]; dup {
			return nil, zerr.With(zerr.New("duplicate workspace member"), "member", pkg.Name)
		}
		ws.Members[pkg.Name] = pkg
	}

	return ws, nil
}

func loadPackage(path string) (*domain.PackageManifest, error) {
	var dto packageDTO
	md, err := toml.DecodeFile(path, &dto)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to load package manifest"), "path", path)
	}
	if dto.Package.Name == "" || dto.Package.Version == "" {
		return nil, zerr.With(zerr.New("package manifest requires name and version"), "path", path)
	}

	pkg := &domain.PackageManifest{
		Name:     dto.Package.Name,
		Version:  dto.Package.Version,
		Features: dto.Features,
	}

	if pkg.Dependencies, err = decodeDeps(md, dto.Dependencies, path); err != nil {
		return nil, err
	}
	if pkg.BuildDependencies, err = decodeDeps(md, dto.BuildDependencies, path); err != nil {
		return nil, err
	}
	if pkg.DevDependencies, err = decodeDeps(md, dto.DevDependencies, path); err != nil {
		return nil, err
	}

	if err := validateFeatures(pkg); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	return pkg, nil
}

// decodeDeps handles both dependency forms: a bare version string and an
// inline table.
func decodeDeps(md toml.MetaData, prims map[string]toml.Primitive, path string) (map[string]domain.DependencySpec, error) {
	if len(prims) == 0 {
		return nil, nil
	}

	deps := make(map[string]domain.DependencySpec, len(prims))
	for name, prim := range prims {
		var version string
		if err := md.PrimitiveDecode(prim, &version); err == nil {
			deps[name] = domain.DependencySpec{Version: version, DefaultFeatures: true}
			continue
		}

		var dto dependencyDTO
		if err := md.PrimitiveDecode(prim, &dto); err != nil {
			return nil, zerr.With(zerr.With(
				zerr.Wrap(err, "invalid dependency entry"), "dependency", name), "path", path)
		}

		spec := domain.DependencySpec{
			Version:         dto.Version,
			Optional:        dto.Optional,
			DefaultFeatures: dto.DefaultFeatures == nil || *dto.DefaultFeatures,
			Features:        dto.Features,
			Rename:          dto.Rename,
		}
		if dto.Platform != "" {
			gate, err := domain.ParsePlatformExpr(dto.Platform)
			if err != nil {
				return nil, zerr.With(zerr.With(err, "dependency", name), "path", path)
			}
			spec.Platform = gate
		}
		deps[name] = spec
	}
	return deps, nil
}

// validateFeatures rejects unknown feature entry syntax and dangling
// references to optional dependencies.
func validateFeatures(pkg *domain.PackageManifest) error {
	for feature, entries := range pkg.Features {
		for _, entry := range entries {
			if strings.Contains(entry, "?") {
				return zerr.With(zerr.With(
					zerr.New("weak feature references are not supported"),
					"feature", feature), "entry", entry)
			}
			dep, _, isDepFeature := strings.Cut(entry, "/")
			if isDepFeature {
				if !hasDependency(pkg, dep) {
					return zerr.With(zerr.With(
						zerr.New("feature references unknown dependency"),
						"feature", feature), "entry", entry)
				}
				continue
			}
			if _, isFeature := pkg.Features[entry]; isFeature {
				continue
			}
			if !hasDependency(pkg, entry) {
				return zerr.With(zerr.With(
					zerr.New("feature references unknown entry"),
					"feature", feature), "entry", entry)
			}
		}
	}
	return nil
}

func hasDependency(pkg *domain.PackageManifest, name string) bool {
	if _, ok := pkg.Dependencies[name]; ok {
		return true
	}
	if _, ok := pkg.BuildDependencies[name]; ok {
		return true
	}
	_, ok := pkg.DevDependencies[name]
	return ok
}
