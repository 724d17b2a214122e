package ports

import (
	"context"

	"go.trai.ch/igniter/internal/core/domain"
)

// PackOptions selects what goes into a package archive.
type PackOptions struct {
	// Package is the name of the directory under the source root that is packaged.
	Package string
	// Include and Exclude are glob patterns matched against slash-separated paths
	// relative to the package directory, and against base names.
	Include []string
	Exclude []string
}

// Archiver creates, reads and extracts package archives.
//
//go:generate mockgen -source=archive.go -destination=mocks/mock_archive.go -package=mocks
type Archiver interface {
	// Create packages src/<pkg> into out together with a checksums manifest.
	Create(ctx context.Context, src, out string, opts PackOptions) (*domain.Manifest, error)

	// Extract unpacks archive into dest. onEntry, when set, is called after each extracted entry.
	Extract(ctx context.Context, archive, dest string, onEntry func(name string)) error

	// ReadFile returns the content of one archive entry.
	ReadFile(archive, name string) ([]byte, error)
}
