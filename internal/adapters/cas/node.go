package cas

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/nixplan/internal/adapters/config" //nolint:depguard // Node wiring needs the settings loader
	"go.trai.ch/nixplan/internal/core/ports"
	"go.trai.ch/zerr"
)

// NodeID is the unique identifier for the checksum store Graft node.
const NodeID graft.ID = "adapter.checksum_store"

func init() {
	graft.Register(graft.Node[ports.ChecksumStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.ChecksumStore, error) {
			loader, err := graft.Dep[ports.SettingsLoader](ctx)
			if err != nil {
				return nil, err
			}

			// The store is built before flags parse, so a cacheDir override
			// is picked up from the invocation directory only.
			settings, err := loader.Load(".")
			if err != nil {
				return nil, err
			}

			dir := settings.CacheDir
			if dir == "" {
				userDir, err := os.UserCacheDir()
				if err != nil {
					return nil, zerr.Wrap(err, "failed to locate user cache dir")
				}
				dir = filepath.Join(userDir, "nixplan")
			}
			return NewStore(filepath.Join(dir, "checksums.json"))
		},
	})
}
