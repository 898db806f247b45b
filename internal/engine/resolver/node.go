package resolver

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*Resolver, error) {
			return New(), nil
		},
	})
}
