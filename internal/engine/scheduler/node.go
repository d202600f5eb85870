package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/amrtrace/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/amrtrace/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler factory Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{telemetry.TracerNodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(tracer), nil
		},
	})
}
