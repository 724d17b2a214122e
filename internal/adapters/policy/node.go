package policy

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/igniter/internal/adapters/logger"
	"go.trai.ch/igniter/internal/core/ports"
)

// NodeID is the unique identifier for the policy gateway Graft node.
const NodeID graft.ID = "adapter.policy"

func init() {
	graft.Register(graft.Node[ports.PolicyGateway]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.PolicyGateway, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewGateway(log), nil
		},
	})
}
