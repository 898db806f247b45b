package app

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/nixplan/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/nixplan/internal/adapters/fs"       //nolint:depguard // Wired in app layer
	"go.trai.ch/nixplan/internal/adapters/lockfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/nixplan/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/nixplan/internal/adapters/manifest" //nolint:depguard // Wired in app layer
	"go.trai.ch/nixplan/internal/adapters/nix"      //nolint:depguard // Wired in app layer
	"go.trai.ch/nixplan/internal/adapters/render"   //nolint:depguard // Wired in app layer
	"go.trai.ch/nixplan/internal/core/ports"
	"go.trai.ch/nixplan/internal/engine/resolver"
	"go.trai.ch/nixplan/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			manifest.NodeID,
			lockfile.NodeID,
			resolver.NodeID,
			scheduler.NodeID,
			render.NodeID,
			nix.BuilderNodeID,
			fs.HasherNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:    application,
				Logger: log,
			}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	settings, err := graft.Dep[ports.SettingsLoader](ctx)
	if err != nil {
		return nil, err
	}

	workspace, err := graft.Dep[ports.WorkspaceLoader](ctx)
	if err != nil {
		return nil, err
	}

	lock, err := graft.Dep[ports.LockfileLoader](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	renderer, err := graft.Dep[ports.PlanRenderer](ctx)
	if err != nil {
		return nil, err
	}

	builder, err := graft.Dep[ports.Builder](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(settings, workspace, lock, res, sched, renderer, builder, hasher, log, os.Stdout), nil
}
