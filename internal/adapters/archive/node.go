package archive

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/core/ports"
)

// NodeID is the unique identifier for the archive Graft node.
const NodeID graft.ID = "adapter.archive"

func init() {
	graft.Register(graft.Node[ports.Archiver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.WalkerNodeID},
		Run: func(ctx context.Context) (ports.Archiver, error) {
			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewZipper(walker), nil
		},
	})
}
