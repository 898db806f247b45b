package ports

import (
	"io"

	"go.trai.ch/nixplan/internal/core/domain"
)

// PlanRenderer renders a build plan to Nix.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type PlanRenderer interface {
	// Render writes the plan to w.
	Render(plan *domain.BuildPlan, w io.Writer) error

	// WriteFile writes the plan to path. When the file exists, the version
	// attribute of the existing plan is checked against the generator
	// version and the user is asked to confirm the overwrite unless force
	// is set. The write goes through a temp file and rename.
	WriteFile(plan *domain.BuildPlan, path string, force bool) error

	// ReadFingerprint extracts the source fingerprint recorded in the plan
	// at path. A missing file or attribute yields the empty string.
	ReadFingerprint(path string) (string, error)
}
