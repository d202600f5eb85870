package ports

import "go.trai.ch/amrtrace/internal/core/domain"

// ConfigLoader defines the interface for loading the run configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration. An empty file searches upwards from cwd
	// for amrtrace.yaml and falls back to defaults when none exists.
	Load(cwd, file string) (domain.RunConfig, error)
}
