package ports

import (
	"context"

	"go.trai.ch/igniter/internal/core/domain"
)

// ScanOptions tunes discovery.
type ScanOptions struct {
	// PriorityToArchives keeps the archive when a version exists both as archive and directory.
	PriorityToArchives bool
}

// SourceFailure records a source that could not be scanned.
type SourceFailure struct {
	Source string
	Err    error
}

// Catalog is the merged result of scanning several sources.
type Catalog struct {
	// Versions is sorted ascending and holds one entry per semantic version.
	Versions []domain.Version
	Failures []SourceFailure
}

// Scanner enumerates the versions one source offers for a package.
//
//go:generate mockgen -source=discovery.go -destination=mocks/mock_discovery.go -package=mocks
type Scanner interface {
	Scan(ctx context.Context, root, pkg string, opts ScanOptions) ([]domain.Version, error)
}

// Discoverer scans several sources and merges their versions.
type Discoverer interface {
	// Collect scans sources in order. Failing sources are reported in Catalog.Failures;
	// an error is returned only when every source failed.
	Collect(ctx context.Context, sources []string, pkg string, opts ScanOptions) (*Catalog, error)

	// InstalledVersion reads the version of pkg shipped in installDir.
	InstalledVersion(installDir, pkg string) (domain.Version, error)
}
