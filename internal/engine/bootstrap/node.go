package bootstrap

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/igniter/internal/adapters/discovery" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/igniter/internal/adapters/install"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/igniter/internal/core/ports"
)

// NodeID is the unique identifier for the bootstrap engine Graft node.
const NodeID graft.ID = "engine.bootstrap"

func init() {
	graft.Register(graft.Node[*Engine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			discovery.NodeID,
			install.NodeID,
		},
		Run: func(ctx context.Context) (*Engine, error) {
			discoverer, err := graft.Dep[ports.Discoverer](ctx)
			if err != nil {
				return nil, err
			}

			retriever, err := graft.Dep[ports.Retriever](ctx)
			if err != nil {
				return nil, err
			}

			return NewEngine(discoverer, retriever), nil
		},
	})
}
