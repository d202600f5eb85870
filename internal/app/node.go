package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/amrtrace/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/amrtrace/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/amrtrace/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/amrtrace/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/amrtrace/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components the CLI needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			cas.NodeID,
			telemetry.TracerNodeID,
			scheduler.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.SummaryStore](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	factory, err := graft.Dep[*scheduler.Factory](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, store, tracer, factory), nil
}
