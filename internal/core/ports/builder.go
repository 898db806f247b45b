package ports

import (
	"context"

	"go.trai.ch/nixplan/internal/core/domain"
)

// Builder turns one workspace member of a plan into a store path.
//
//go:generate go run go.uber.org/mock/mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Build evaluates the plan file and builds the named workspace member
	// for the given system and channel. Returns the resulting store path.
	Build(ctx context.Context, planPath, member string, sys domain.System, channel string) (string, error)
}
