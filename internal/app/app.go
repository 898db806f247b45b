// Package app implements the application layer for nixplan.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/nixplan/internal/build"
	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/nixplan/internal/core/ports"
	"go.trai.ch/nixplan/internal/engine/resolver"
	"go.trai.ch/nixplan/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	settings  ports.SettingsLoader
	workspace ports.WorkspaceLoader
	lockfile  ports.LockfileLoader
	resolver  *resolver.Resolver
	scheduler *scheduler.Scheduler
	renderer  ports.PlanRenderer
	builder   ports.Builder
	hasher    ports.Hasher
	logger    ports.Logger

	stdout io.Writer
}

// New creates a new App instance. Plans rendered with the Stdout option go
// to the given writer.
func New(
	settings ports.SettingsLoader,
	workspace ports.WorkspaceLoader,
	lockfile ports.LockfileLoader,
	res *resolver.Resolver,
	sched *scheduler.Scheduler,
	renderer ports.PlanRenderer,
	builder ports.Builder,
	hasher ports.Hasher,
	logger ports.Logger,
	stdout io.Writer,
) *App {
	return &App{
		settings:  settings,
		workspace: workspace,
		lockfile:  lockfile,
		resolver:  res,
		scheduler: sched,
		renderer:  renderer,
		builder:   builder,
		hasher:    hasher,
		logger:    logger,
		stdout:    stdout,
	}
}

// GenerateOptions control plan generation.
type GenerateOptions struct {
	// Stdout writes the plan to standard output instead of a file.
	Stdout bool

	// File overrides the plan path from the settings.
	File string

	// Force overwrites an existing plan without asking.
	Force bool
}

// Generate derives the build plan from the workspace and its lockfile
// snapshot and writes it out.
func (a *App) Generate(ctx context.Context, cwd string, opts GenerateOptions) error {
	settings, err := a.settings.Load(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load settings")
	}

	ws, err := a.workspace.Load(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load workspace")
	}

	lock, err := a.lockfile.Load(cwd, ws)
	if err != nil {
		return zerr.Wrap(err, "failed to load lockfile")
	}

	parallelism := settings.Parallelism
	if parallelism < 1 {
		parallelism = runtime.NumCPU()
	}
	checksums, err := a.scheduler.Run(ctx, lock.Packages, parallelism)
	if err != nil {
		return zerr.Wrap(err, "failed to prefetch checksums")
	}
	for i := range lock.Packages {
		if checksum, ok := checksums[lock.Packages[i].ID]; ok {
			lock.Packages[i].Checksum = checksum
		}
	}

	graph, err := domain.GraphFromLockfile(lock)
	if err != nil {
		return zerr.Wrap(err, "invalid dependency graph")
	}

	plan, err := a.resolver.Resolve(ctx, ws, lock, graph)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve build plan")
	}

	fingerprint, err := a.hasher.ComputeFingerprint(cwd, fingerprintPaths(ws))
	if err != nil {
		return zerr.Wrap(err, "failed to fingerprint workspace inputs")
	}

	plan.Version = build.Version
	plan.Fingerprint = fingerprint
	plan.Channel = settings.Channel
	plan.Profiles = ws.Manifest.Profiles

	if opts.Stdout {
		return a.renderer.Render(plan, a.stdout)
	}

	file := opts.File
	if file == "" {
		file = settings.PlanFile
	}
	path := filepath.Join(cwd, file)

	if !opts.Force {
		existing, err := a.renderer.ReadFingerprint(path)
		if err != nil {
			return err
		}
		if existing == fingerprint {
			a.logger.Info(fmt.Sprintf("plan at %s is up to date, nothing to generate", path))
			return nil
		}
	}

	if err := a.renderer.WriteFile(plan, path, opts.Force); err != nil {
		return err
	}

	a.logger.Info(fmt.Sprintf("wrote plan for %d packages to %s", len(plan.Packages), path))
	return nil
}

// fingerprintPaths lists the inputs the plan is derived from: the workspace
// manifest, every member manifest and the lockfile.
func fingerprintPaths(ws *domain.Workspace) []string {
	paths := make([]string, 0, len(ws.Manifest.Members)+2)
	paths = append(paths, "workspace.toml", "nixplan.lock")
	for _, dir := range ws.Manifest.Members {
		paths = append(paths, filepath.Join(dir, "package.toml"))
	}
	return paths
}

// BuildOptions control target builds.
type BuildOptions struct {
	// System is the target system double. Empty means the current platform.
	System string

	// Channel overrides the channel from the settings.
	Channel string

	// Plan overrides the plan path from the settings.
	Plan string
}

// Build realizes one workspace member from the generated plan and returns
// its store path.
func (a *App) Build(ctx context.Context, cwd, member string, opts BuildOptions) (string, error) {
	settings, err := a.settings.Load(cwd)
	if err != nil {
		return "", zerr.Wrap(err, "failed to load settings")
	}

	ws, err := a.workspace.Load(cwd)
	if err != nil {
		return "", zerr.Wrap(err, "failed to load workspace")
	}
	if _, err := ws.Member(member); err != nil {
		return "", zerr.With(zerr.Wrap(err, ""), "member", member)
	}

	sys, err := a.targetSystem(opts.System)
	if err != nil {
		return "", err
	}

	channel := opts.Channel
	if channel == "" {
		channel = settings.Channel
	}

	file := opts.Plan
	if file == "" {
		file = settings.PlanFile
	}
	planPath := filepath.Join(cwd, file)
	if _, err := os.Stat(planPath); err != nil {
		return "", zerr.With(
			zerr.Wrap(err, "plan file not found, run generate first"), "path", planPath)
	}

	storePath, err := a.builder.Build(ctx, planPath, member, sys, channel)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "build failed"), "member", member)
		return "", zerr.With(err, "system", sys.String())
	}

	a.logger.Info(fmt.Sprintf("built %s for %s: %s", member, sys.String(), storePath))
	return storePath, nil
}

func (a *App) targetSystem(override string) (domain.System, error) {
	if override != "" {
		return domain.ParseSystem(override)
	}
	return domain.CurrentSystem()
}
