// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/amrtrace/internal/adapters/cas"
	_ "go.trai.ch/amrtrace/internal/adapters/config"
	_ "go.trai.ch/amrtrace/internal/adapters/logger"
	_ "go.trai.ch/amrtrace/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/amrtrace/internal/app"
	_ "go.trai.ch/amrtrace/internal/engine/scheduler"
)
