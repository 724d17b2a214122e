package discovery

import (
	"context"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"golang.org/x/time/rate"
)

const (
	headCacheSize  = 512
	headRate       = 20
	headBurst      = 5
	headRateWindow = time.Second
)

var _ ports.Scanner = (*Scanner)(nil)

// Scanner enumerates the versions of one source. URL roots are read as HTTP indexes,
// everything else as a directory tree or a single archive.
type Scanner struct {
	dir *dirScanner
	url *urlScanner
}

// NewScanner creates a new Scanner.
func NewScanner(archiver ports.Archiver, fetcher ports.Fetcher, logger ports.Logger) *Scanner {
	heads, err := lru.New[string, ports.ArtifactInfo](headCacheSize)
	if err != nil {
		panic(err)
	}
	return &Scanner{
		dir: &dirScanner{archiver: archiver, logger: logger},
		url: &urlScanner{
			fetcher: fetcher,
			heads:   heads,
			limiter: rate.NewLimiter(rate.Every(headRateWindow/headRate), headBurst),
			logger:  logger,
		},
	}
}

// Scan returns the versions of pkg offered by root, deduplicated and sorted ascending.
func (s *Scanner) Scan(ctx context.Context, root, pkg string, opts ports.ScanOptions) ([]domain.Version, error) {
	var (
		found []domain.Version
		err   error
	)
	if domain.IsURL(root) {
		found, err = s.url.scan(ctx, root)
	} else {
		found, err = s.dir.scan(ctx, root, pkg)
	}
	if err != nil {
		return nil, err
	}

	found = Dedupe(found, opts.PriorityToArchives)
	domain.SortVersions(found)
	return found, nil
}

// Dedupe keeps one entry per semantic version. When a version is present both as an archive
// and as a directory, preferArchives selects which one survives; otherwise the earliest entry wins.
func Dedupe(vs []domain.Version, preferArchives bool) []domain.Version {
	index := make(map[string]int, len(vs))
	out := make([]domain.Version, 0, len(vs))
	for _, v := range vs {
		key := v.String()
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, v)
			continue
		}
		if out[i].IsArchive() != v.IsArchive() && v.IsArchive() == preferArchives {
			out[i] = v
		}
	}
	return slices.Clip(out)
}
