package app_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/nixplan/internal/adapters/telemetry"
	"go.trai.ch/nixplan/internal/app"
	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/nixplan/internal/core/ports/mocks"
	"go.trai.ch/nixplan/internal/engine/resolver"
	"go.trai.ch/nixplan/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	settings   *mocks.MockSettingsLoader
	workspace  *mocks.MockWorkspaceLoader
	lockfile   *mocks.MockLockfileLoader
	prefetcher *mocks.MockPrefetcher
	store      *mocks.MockChecksumStore
	renderer   *mocks.MockPlanRenderer
	builder    *mocks.MockBuilder
	hasher     *mocks.MockHasher
	logger     *mocks.MockLogger
	stdout     *bytes.Buffer
	app        *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		settings:   mocks.NewMockSettingsLoader(ctrl),
		workspace:  mocks.NewMockWorkspaceLoader(ctrl),
		lockfile:   mocks.NewMockLockfileLoader(ctrl),
		prefetcher: mocks.NewMockPrefetcher(ctrl),
		store:      mocks.NewMockChecksumStore(ctrl),
		renderer:   mocks.NewMockPlanRenderer(ctrl),
		builder:    mocks.NewMockBuilder(ctrl),
		hasher:     mocks.NewMockHasher(ctrl),
		logger:     mocks.NewMockLogger(ctrl),
		stdout:     &bytes.Buffer{},
	}

	sched := scheduler.New(f.prefetcher, f.store, telemetry.NewNoOpTracer())
	f.app = app.New(
		f.settings, f.workspace, f.lockfile,
		resolver.New(), sched,
		f.renderer, f.builder, f.hasher, f.logger,
		f.stdout,
	)
	return f
}

func defaultSettings() *domain.Settings {
	return &domain.Settings{Channel: "stable", PlanFile: "nixplan.nix"}
}

func testWorkspace() *domain.Workspace {
	return &domain.Workspace{
		Manifest: domain.WorkspaceManifest{Members: []string{"server"}},
		Members: map[string]*domain.PackageManifest{
			"server": {Name: "server", Version: "0.1.0"},
		},
	}
}

func testLockfile(t *testing.T) *domain.Lockfile {
	t.Helper()
	gitSrc, err := domain.ParseSource("git+https://example.org/leftpad.git#abc123")
	require.NoError(t, err)
	return &domain.Lockfile{
		Version: 1,
		Packages: []domain.LockedPackage{
			{
				ID: domain.NewPackageID("server", "0.1.0"),
				Dependencies: []domain.LockedDependency{
					{ID: domain.NewPackageID("leftpad", "1.3.0"), DefaultFeatures: true},
				},
			},
			{
				ID:     domain.NewPackageID("leftpad", "1.3.0"),
				Source: gitSrc,
			},
		},
	}
}

func TestGenerateWritesPlanFile(t *testing.T) {
	f := newFixture(t)
	cwd := t.TempDir()

	f.settings.EXPECT().Load(cwd).Return(defaultSettings(), nil)
	f.workspace.EXPECT().Load(cwd).Return(testWorkspace(), nil)
	f.lockfile.EXPECT().Load(cwd, gomock.Any()).Return(testLockfile(t), nil)

	f.store.EXPECT().Get("https://example.org/leftpad.git#abc123").Return("", nil)
	f.prefetcher.EXPECT().
		Prefetch(gomock.Any(), "https://example.org/leftpad.git", "abc123").
		Return("sha256-leftpad", nil)
	f.store.EXPECT().Put("https://example.org/leftpad.git#abc123", "sha256-leftpad").Return(nil)

	f.hasher.EXPECT().
		ComputeFingerprint(cwd, []string{"workspace.toml", "nixplan.lock", filepath.Join("server", "package.toml")}).
		Return("fp123", nil)

	f.renderer.EXPECT().
		ReadFingerprint(filepath.Join(cwd, "nixplan.nix")).
		Return("", nil)

	var written *domain.BuildPlan
	f.renderer.EXPECT().
		WriteFile(gomock.Any(), filepath.Join(cwd, "nixplan.nix"), false).
		DoAndReturn(func(plan *domain.BuildPlan, _ string, _ bool) error {
			written = plan
			return nil
		})
	f.logger.EXPECT().Info(gomock.Any())

	err := f.app.Generate(t.Context(), cwd, app.GenerateOptions{})
	require.NoError(t, err)

	require.NotNil(t, written)
	assert.Equal(t, "fp123", written.Fingerprint)
	assert.Equal(t, "stable", written.Channel)
	assert.NotEmpty(t, written.Version)
	require.Len(t, written.Packages, 2)

	// The prefetched checksum flows into the plan.
	for _, pp := range written.Packages {
		if pp.Name == "leftpad" {
			assert.Equal(t, "sha256-leftpad", pp.Checksum)
		}
	}
}

func TestGenerateToStdout(t *testing.T) {
	f := newFixture(t)
	cwd := t.TempDir()

	f.settings.EXPECT().Load(cwd).Return(defaultSettings(), nil)
	f.workspace.EXPECT().Load(cwd).Return(testWorkspace(), nil)

	// No git packages, nothing to prefetch.
	lock := &domain.Lockfile{
		Version: 1,
		Packages: []domain.LockedPackage{
			{ID: domain.NewPackageID("server", "0.1.0")},
		},
	}
	f.lockfile.EXPECT().Load(cwd, gomock.Any()).Return(lock, nil)
	f.hasher.EXPECT().ComputeFingerprint(cwd, gomock.Any()).Return("fp123", nil)

	f.renderer.EXPECT().Render(gomock.Any(), f.stdout).Return(nil)

	err := f.app.Generate(t.Context(), cwd, app.GenerateOptions{Stdout: true})
	require.NoError(t, err)
}

func TestGenerateFileOverride(t *testing.T) {
	f := newFixture(t)
	cwd := t.TempDir()

	f.settings.EXPECT().Load(cwd).Return(defaultSettings(), nil)
	f.workspace.EXPECT().Load(cwd).Return(testWorkspace(), nil)
	lock := &domain.Lockfile{
		Version:  1,
		Packages: []domain.LockedPackage{{ID: domain.NewPackageID("server", "0.1.0")}},
	}
	f.lockfile.EXPECT().Load(cwd, gomock.Any()).Return(lock, nil)
	f.hasher.EXPECT().ComputeFingerprint(cwd, gomock.Any()).Return("fp123", nil)

	f.renderer.EXPECT().
		WriteFile(gomock.Any(), filepath.Join(cwd, "plans", "custom.nix"), true).
		Return(nil)
	f.logger.EXPECT().Info(gomock.Any())

	err := f.app.Generate(t.Context(), cwd, app.GenerateOptions{
		File:  filepath.Join("plans", "custom.nix"),
		Force: true,
	})
	require.NoError(t, err)
}

func TestGenerateSkipsWriteWhenFingerprintUnchanged(t *testing.T) {
	f := newFixture(t)
	cwd := t.TempDir()

	f.settings.EXPECT().Load(cwd).Return(defaultSettings(), nil)
	f.workspace.EXPECT().Load(cwd).Return(testWorkspace(), nil)
	lock := &domain.Lockfile{
		Version:  1,
		Packages: []domain.LockedPackage{{ID: domain.NewPackageID("server", "0.1.0")}},
	}
	f.lockfile.EXPECT().Load(cwd, gomock.Any()).Return(lock, nil)
	f.hasher.EXPECT().ComputeFingerprint(cwd, gomock.Any()).Return("fp123", nil)

	// The existing plan already carries the current fingerprint, so no
	// WriteFile call is expected.
	f.renderer.EXPECT().
		ReadFingerprint(filepath.Join(cwd, "nixplan.nix")).
		Return("fp123", nil)
	f.logger.EXPECT().Info(gomock.Any())

	err := f.app.Generate(t.Context(), cwd, app.GenerateOptions{})
	require.NoError(t, err)
}

func TestGenerateForceIgnoresUnchangedFingerprint(t *testing.T) {
	f := newFixture(t)
	cwd := t.TempDir()

	f.settings.EXPECT().Load(cwd).Return(defaultSettings(), nil)
	f.workspace.EXPECT().Load(cwd).Return(testWorkspace(), nil)
	lock := &domain.Lockfile{
		Version:  1,
		Packages: []domain.LockedPackage{{ID: domain.NewPackageID("server", "0.1.0")}},
	}
	f.lockfile.EXPECT().Load(cwd, gomock.Any()).Return(lock, nil)
	f.hasher.EXPECT().ComputeFingerprint(cwd, gomock.Any()).Return("fp123", nil)

	f.renderer.EXPECT().
		WriteFile(gomock.Any(), filepath.Join(cwd, "nixplan.nix"), true).
		Return(nil)
	f.logger.EXPECT().Info(gomock.Any())

	err := f.app.Generate(t.Context(), cwd, app.GenerateOptions{Force: true})
	require.NoError(t, err)
}

func TestBuildMember(t *testing.T) {
	f := newFixture(t)
	cwd := t.TempDir()
	planPath := filepath.Join(cwd, "nixplan.nix")
	require.NoError(t, os.WriteFile(planPath, []byte("{ }\n"), 0o644))

	f.settings.EXPECT().Load(cwd).Return(defaultSettings(), nil)
	f.workspace.EXPECT().Load(cwd).Return(testWorkspace(), nil)

	f.builder.EXPECT().
		Build(gomock.Any(), planPath, "server", domain.System{Arch: "x86_64", OS: "linux"}, "nightly").
		Return("/nix/store/abc-server-0.1.0", nil)
	f.logger.EXPECT().Info(gomock.Any())

	storePath, err := f.app.Build(t.Context(), cwd, "server", app.BuildOptions{
		System:  "x86_64-linux",
		Channel: "nightly",
	})
	require.NoError(t, err)
	assert.Equal(t, "/nix/store/abc-server-0.1.0", storePath)
}

func TestBuildUnknownMember(t *testing.T) {
	f := newFixture(t)
	cwd := t.TempDir()

	f.settings.EXPECT().Load(cwd).Return(defaultSettings(), nil)
	f.workspace.EXPECT().Load(cwd).Return(testWorkspace(), nil)

	_, err := f.app.Build(t.Context(), cwd, "nosuch", app.BuildOptions{})
	require.ErrorIs(t, err, domain.ErrUnknownMember)
}

func TestBuildMissingPlanFile(t *testing.T) {
	f := newFixture(t)
	cwd := t.TempDir()

	f.settings.EXPECT().Load(cwd).Return(defaultSettings(), nil)
	f.workspace.EXPECT().Load(cwd).Return(testWorkspace(), nil)

	_, err := f.app.Build(t.Context(), cwd, "server", app.BuildOptions{System: "x86_64-linux"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "plan file not found")
}
