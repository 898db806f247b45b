package render

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/nixplan/internal/core/ports"
)

// NodeID is the unique identifier for the plan renderer Graft node.
const NodeID graft.ID = "adapter.plan_renderer"

func init() {
	graft.Register(graft.Node[ports.PlanRenderer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.PlanRenderer, error) {
			return New(), nil
		},
	})
}
