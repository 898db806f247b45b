package domain

// Settings are the tool-level settings loaded from nixplan.yaml.
// All fields have working defaults; the file is optional.
type Settings struct {
	// Channel is the registry channel recorded in the plan (default "stable").
	Channel string

	// Systems are the target systems the plan should support.
	Systems []string

	// Parallelism bounds concurrent prefetch jobs. Zero means NumCPU.
	Parallelism int

	// CacheDir is the directory for the checksum cache.
	// Empty means <user cache dir>/nixplan.
	CacheDir string

	// PlanFile is the default plan output path (default "nixplan.nix").
	PlanFile string
}
