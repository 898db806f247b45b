// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/nixplan/internal/core/domain"

// SettingsLoader loads the tool settings.
//
//go:generate go run go.uber.org/mock/mockgen -source=loaders.go -destination=mocks/mock_loaders.go -package=mocks
type SettingsLoader interface {
	// Load reads nixplan.yaml from the given working directory.
	// A missing file yields defaults, not an error.
	Load(cwd string) (*domain.Settings, error)
}

// WorkspaceLoader loads the workspace manifest and all member manifests.
type WorkspaceLoader interface {
	// Load reads workspace.toml and every member's package.toml.
	Load(cwd string) (*domain.Workspace, error)
}

// LockfileLoader loads the lockfile snapshot.
type LockfileLoader interface {
	// Load reads nixplan.lock from the given working directory and checks it
	// against the workspace member manifests for staleness.
	Load(cwd string, ws *domain.Workspace) (*domain.Lockfile, error)
}
