package nix

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/nixplan/internal/core/ports"
)

const (
	// PrefetcherNodeID is the unique identifier for the Prefetcher Graft node.
	PrefetcherNodeID graft.ID = "adapter.nix_prefetcher"

	// BuilderNodeID is the unique identifier for the Builder Graft node.
	BuilderNodeID graft.ID = "adapter.nix_builder"
)

func init() {
	graft.Register(graft.Node[ports.Prefetcher]{
		ID:        PrefetcherNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Prefetcher, error) {
			return NewPrefetcher(), nil
		},
	})

	graft.Register(graft.Node[ports.Builder]{
		ID:        BuilderNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Builder, error) {
			return NewBuilder(), nil
		},
	})
}
