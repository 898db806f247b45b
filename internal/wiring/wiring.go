// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/nixplan/internal/adapters/cas"
	_ "go.trai.ch/nixplan/internal/adapters/config"
	_ "go.trai.ch/nixplan/internal/adapters/fs"
	_ "go.trai.ch/nixplan/internal/adapters/lockfile"
	_ "go.trai.ch/nixplan/internal/adapters/logger"
	_ "go.trai.ch/nixplan/internal/adapters/manifest"
	_ "go.trai.ch/nixplan/internal/adapters/nix"
	_ "go.trai.ch/nixplan/internal/adapters/render"
	_ "go.trai.ch/nixplan/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/nixplan/internal/app"
	_ "go.trai.ch/nixplan/internal/engine/resolver"
	_ "go.trai.ch/nixplan/internal/engine/scheduler"
)
