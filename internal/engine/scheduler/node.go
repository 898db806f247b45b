package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/nixplan/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/nixplan/internal/adapters/nix"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/nixplan/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/nixplan/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			nix.PrefetcherNodeID,
			cas.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			prefetcher, err := graft.Dep[ports.Prefetcher](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.ChecksumStore](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return New(prefetcher, store, tracer), nil
		},
	})
}
