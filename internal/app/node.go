package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/igniter/internal/adapters/archive"            //nolint:depguard // Wired in app layer
	"go.trai.ch/igniter/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/igniter/internal/adapters/discovery"          //nolint:depguard // Wired in app layer
	"go.trai.ch/igniter/internal/adapters/integrity"          //nolint:depguard // Wired in app layer
	"go.trai.ch/igniter/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/igniter/internal/adapters/policy"             //nolint:depguard // Wired in app layer
	"go.trai.ch/igniter/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/igniter/internal/engine/bootstrap"
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
			policy.NodeID,
			bootstrap.NodeID,
			discovery.NodeID,
			archive.NodeID,
			integrity.NodeID,
			progrock.NodeID,
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
			progrock.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	gateway, err := graft.Dep[ports.PolicyGateway](ctx)
	if err != nil {
		return nil, err
	}

	engine, err := graft.Dep[*bootstrap.Engine](ctx)
	if err != nil {
		return nil, err
	}

	discoverer, err := graft.Dep[ports.Discoverer](ctx)
	if err != nil {
		return nil, err
	}

	archiver, err := graft.Dep[ports.Archiver](ctx)
	if err != nil {
		return nil, err
	}

	verifier, err := graft.Dep[ports.Verifier](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[*progrock.Recorder](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, gateway, engine, discoverer, archiver, verifier, recorder, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[*progrock.Recorder](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log, recorder), nil
}
