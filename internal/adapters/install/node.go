package install

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/igniter/internal/adapters/archive"
	"go.trai.ch/igniter/internal/adapters/fetch"
	"go.trai.ch/igniter/internal/adapters/integrity"
	"go.trai.ch/igniter/internal/adapters/logger"
	"go.trai.ch/igniter/internal/core/ports"
)

// NodeID is the unique identifier for the retriever Graft node.
const NodeID graft.ID = "adapter.install"

func init() {
	graft.Register(graft.Node[ports.Retriever]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{archive.NodeID, integrity.NodeID, fetch.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Retriever, error) {
			archiver, err := graft.Dep[ports.Archiver](ctx)
			if err != nil {
				return nil, err
			}
			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewRetriever(archiver, verifier, fetcher, log), nil
		},
	})
}
