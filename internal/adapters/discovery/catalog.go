package discovery

import (
	"context"
	"errors"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentScans bounds the number of sources scanned at once.
const maxConcurrentScans = 4

var _ ports.Discoverer = (*Catalog)(nil)

// Catalog scans several sources and merges their versions.
type Catalog struct {
	scanner ports.Scanner
}

// NewCatalog creates a new Catalog.
func NewCatalog(scanner ports.Scanner) *Catalog {
	return &Catalog{scanner: scanner}
}

// Collect scans sources concurrently and merges the results in source order.
// A failing source is recorded in the catalog's failures and skipped; the scan fails
// only when every source failed.
func (c *Catalog) Collect(ctx context.Context, sources []string, pkg string, opts ports.ScanOptions) (*ports.Catalog, error) {
	results := make([][]domain.Version, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScans)
	for i, source := range sources {
		g.Go(func() error {
			results[i], errs[i] = c.scanner.Scan(gctx, source, pkg, opts)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalog := &ports.Catalog{}
	var merged []domain.Version
	for i, source := range sources {
		if errs[i] != nil {
			catalog.Failures = append(catalog.Failures, ports.SourceFailure{Source: source, Err: errs[i]})
			continue
		}
		merged = append(merged, results[i]...)
	}

	if len(sources) > 0 && len(catalog.Failures) == len(sources) {
		return nil, errors.Join(domain.ErrRetrieveIO, zerr.Wrap(errors.Join(errs...), "every version source failed"))
	}

	catalog.Versions = Dedupe(merged, opts.PriorityToArchives)
	domain.SortVersions(catalog.Versions)
	return catalog, nil
}

// InstalledVersion reads the version shipped in installDir. An empty installDir yields the zero version.
func (c *Catalog) InstalledVersion(installDir, pkg string) (domain.Version, error) {
	if installDir == "" {
		return domain.Version{}, nil
	}
	v, err := ReadVersionFile(installDir, pkg)
	if err != nil {
		return domain.Version{}, err
	}
	return v.WithLocation(installDir), nil
}
