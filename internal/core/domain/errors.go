package domain

import "go.trai.ch/zerr"

var (
	// ErrPackageAlreadyExists is returned when attempting to add a package with an ID that already exists.
	ErrPackageAlreadyExists = zerr.New("package already exists")

	// ErrMissingDependency is returned when a package references a dependency that doesn't exist in the lockfile.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the package dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrUnknownMember is returned when a requested workspace member is not part of the workspace.
	ErrUnknownMember = zerr.New("unknown workspace member")

	// ErrLockfileStale is returned when the lockfile disagrees with a workspace member manifest.
	ErrLockfileStale = zerr.New("lockfile is stale")

	// ErrMissingChecksum is returned when a registry package has no checksum in the lockfile.
	ErrMissingChecksum = zerr.New("missing checksum")

	// ErrInvalidSource is returned when a lockfile source string cannot be parsed.
	ErrInvalidSource = zerr.New("invalid source")

	// ErrInvalidPlatformExpr is returned when a cfg() platform gate cannot be parsed.
	ErrInvalidPlatformExpr = zerr.New("invalid platform expression")

	// ErrUnsupportedSystem is returned when a system triple cannot be derived or parsed.
	ErrUnsupportedSystem = zerr.New("unsupported system")

	// ErrPlanVersionMismatch is returned when an existing plan file was generated by a newer nixplan.
	ErrPlanVersionMismatch = zerr.New("plan generated by newer nixplan")

	// ErrPrefetchFailed is returned when nix-prefetch-git fails for a git source.
	ErrPrefetchFailed = zerr.New("prefetch failed")

	// ErrBuildFailed is returned when nix build fails for a workspace member.
	ErrBuildFailed = zerr.New("nix build failed")

	// ErrGenerateAborted is returned when the user declines to overwrite an existing plan file.
	ErrGenerateAborted = zerr.New("generation aborted")
)
