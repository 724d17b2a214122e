package app

import (
	"go.trai.ch/igniter/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/igniter/internal/core/ports"
)

// Components contains the initialized application components.
type Components struct {
	App      *App
	Logger   ports.Logger
	Recorder *progrock.Recorder
}

// NewComponents creates a new Components instance.
func NewComponents(app *App, logger ports.Logger, recorder *progrock.Recorder) *Components {
	return &Components{
		App:      app,
		Logger:   logger,
		Recorder: recorder,
	}
}

// SetJSONLogs switches the logger to JSON output when it supports it.
func (c *Components) SetJSONLogs(enable bool) {
	if l, ok := c.Logger.(interface{ SetJSON(enable bool) }); ok {
		l.SetJSON(enable)
	}
}

// Close flushes the progress recorder.
func (c *Components) Close() error {
	if c.Recorder == nil {
		return nil
	}
	return c.Recorder.Close()
}
