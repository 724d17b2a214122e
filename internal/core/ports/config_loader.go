package ports

import "go.trai.ch/igniter/internal/core/domain"

// ConfigLoader defines the interface for loading the bootstrap configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration at path. A missing file yields the default configuration.
	Load(path string) (*domain.Config, error)
}
