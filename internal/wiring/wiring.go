// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/igniter/internal/adapters/archive"
	_ "go.trai.ch/igniter/internal/adapters/config"
	_ "go.trai.ch/igniter/internal/adapters/discovery"
	_ "go.trai.ch/igniter/internal/adapters/fetch"
	_ "go.trai.ch/igniter/internal/adapters/fs"
	_ "go.trai.ch/igniter/internal/adapters/install"
	_ "go.trai.ch/igniter/internal/adapters/integrity"
	_ "go.trai.ch/igniter/internal/adapters/logger"
	_ "go.trai.ch/igniter/internal/adapters/policy"
	_ "go.trai.ch/igniter/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/igniter/internal/app"
	_ "go.trai.ch/igniter/internal/engine/bootstrap"
)
