package integrity

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/core/ports"
)

// NodeID is the unique identifier for the integrity verifier Graft node.
const NodeID graft.ID = "adapter.integrity"

func init() {
	graft.Register(graft.Node[ports.Verifier]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.WalkerNodeID, fs.HasherNodeID},
		Run: func(ctx context.Context) (ports.Verifier, error) {
			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			return NewVerifier(walker, hasher), nil
		},
	})
}
