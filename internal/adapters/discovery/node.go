package discovery

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/igniter/internal/adapters/archive"
	"go.trai.ch/igniter/internal/adapters/fetch"
	"go.trai.ch/igniter/internal/adapters/logger"
	"go.trai.ch/igniter/internal/core/ports"
)

const (
	// ScannerNodeID is the unique identifier for the scanner Graft node.
	ScannerNodeID graft.ID = "adapter.discovery.scanner"
	// NodeID is the unique identifier for the discoverer Graft node.
	NodeID graft.ID = "adapter.discovery"
)

func init() {
	graft.Register(graft.Node[ports.Scanner]{
		ID:        ScannerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{archive.NodeID, fetch.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Scanner, error) {
			archiver, err := graft.Dep[ports.Archiver](ctx)
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
			return NewScanner(archiver, fetcher, log), nil
		},
	})

	graft.Register(graft.Node[ports.Discoverer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ScannerNodeID},
		Run: func(ctx context.Context) (ports.Discoverer, error) {
			scanner, err := graft.Dep[ports.Scanner](ctx)
			if err != nil {
				return nil, err
			}
			return NewCatalog(scanner), nil
		},
	})
}
