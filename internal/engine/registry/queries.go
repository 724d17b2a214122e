package registry

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
)

// Tristate is a boolean answer that may be unknown.
type Tristate uint8

const (
	// Unknown is returned when running from source or when no remote source is reachable.
	Unknown Tristate = iota
	False
	True
)

func (t Tristate) String() string {
	switch t {
	case True:
		return "yes"
	case False:
		return "no"
	default:
		return "unknown"
	}
}

func tristate(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Queries answers read-only questions about the running platform package.
type Queries struct {
	manager    *Manager
	record     *domain.PolicyRecord
	discoverer ports.Discoverer
	platform   string

	remoteOnce sync.Once
	remote     *ports.Catalog
	remoteErr  error
}

// NewQueries creates Queries for the platform package.
func NewQueries(manager *Manager, record *domain.PolicyRecord, discoverer ports.Discoverer, platform string) *Queries {
	return &Queries{
		manager:    manager,
		record:     record,
		discoverer: discoverer,
		platform:   platform,
	}
}

// QuadPypeVersion returns the running version of the platform package.
func (q *Queries) QuadPypeVersion() (domain.Version, error) {
	h, err := q.manager.Get(q.platform)
	if err != nil {
		return domain.Version{}, err
	}
	return h.RunningVersion, nil
}

// RunningFromBuild reports whether the shell is a built executable rather than a Python interpreter.
func (q *Queries) RunningFromBuild() bool {
	name := strings.ToLower(filepath.Base(q.record.Env.Executable))
	return !strings.Contains(name, "python")
}

// BuildVersion returns the version of the installed build, or the running version when running from source.
// A build without a version file yields the zero Version.
func (q *Queries) BuildVersion() (domain.Version, error) {
	if !q.RunningFromBuild() {
		return q.QuadPypeVersion()
	}
	v, err := q.discoverer.InstalledVersion(q.record.Env.Root, q.platform)
	if err != nil {
		if isMissingVersionFile(err) {
			return domain.Version{}, nil
		}
		return domain.Version{}, err
	}
	return v, nil
}

// StagingEnabled reports whether QUADPYPE_USE_STAGING selects the staging side.
func (q *Queries) StagingEnabled() bool {
	return q.record.Env.UseStaging
}

// RunningStaging reports whether the running version is the staging one.
func (q *Queries) RunningStaging(ctx context.Context) (bool, error) {
	if q.record.Env.IsStaging {
		return true, nil
	}

	current, err := q.QuadPypeVersion()
	if err != nil {
		return false, err
	}

	production, err := q.policyVersion(ctx, false)
	if err != nil {
		return false, err
	}
	if !production.IsZero() && current.Equal(production) {
		return false, nil
	}

	staging, err := q.policyVersion(ctx, true)
	if err != nil {
		return false, err
	}
	if !staging.IsZero() && current.Equal(staging) {
		return true, nil
	}

	return q.StagingEnabled(), nil
}

// ExpectedVersion returns the policy version for the side in effect, or the latest remote version.
// The zero Version means nothing is known.
func (q *Queries) ExpectedVersion(ctx context.Context) (domain.Version, error) {
	return q.policyVersion(ctx, q.record.Staging)
}

// CurrentVersionStudioLatest reports whether the running version is the expected one.
func (q *Queries) CurrentVersionStudioLatest(ctx context.Context) (Tristate, error) {
	current, expected, ok, err := q.compareInputs(ctx)
	if err != nil || !ok {
		return Unknown, err
	}
	return tristate(current.Equal(expected)), nil
}

// CurrentVersionHigherThanExpected reports whether the running version is newer than the expected one.
func (q *Queries) CurrentVersionHigherThanExpected(ctx context.Context) (Tristate, error) {
	current, expected, ok, err := q.compareInputs(ctx)
	if err != nil || !ok {
		return Unknown, err
	}
	return tristate(!current.Equal(expected) && current.Compare(expected) > 0), nil
}

func (q *Queries) compareInputs(ctx context.Context) (current, expected domain.Version, ok bool, err error) {
	if !q.RunningFromBuild() || !q.remotesAccessible(ctx) {
		return current, expected, false, nil
	}
	if current, err = q.QuadPypeVersion(); err != nil {
		return current, expected, false, err
	}
	if expected, err = q.ExpectedVersion(ctx); err != nil || expected.IsZero() {
		return current, expected, false, err
	}
	return current, expected, true, nil
}

// policyVersion resolves the policy field of one side; empty and "latest" mean the latest remote.
func (q *Queries) policyVersion(ctx context.Context, staging bool) (domain.Version, error) {
	raw := q.record.Policy.ExpectedVersion(staging)
	req, err := domain.ParseRequest(raw)
	if err != nil {
		return domain.Version{}, err
	}
	if req.Kind == domain.RequestLiteral {
		return req.Version, nil
	}
	return q.latestRemote(ctx), nil
}

func (q *Queries) latestRemote(ctx context.Context) domain.Version {
	catalog, err := q.remoteCatalog(ctx)
	if err != nil {
		return domain.Version{}
	}
	latest, _ := domain.MaxVersion(catalog.Versions...)
	return latest
}

func (q *Queries) remotesAccessible(ctx context.Context) bool {
	_, err := q.remoteCatalog(ctx)
	return err == nil
}

// remoteCatalog scans the remote sources once per Queries.
func (q *Queries) remoteCatalog(ctx context.Context) (*ports.Catalog, error) {
	q.remoteOnce.Do(func() {
		if len(q.record.RemoteSources) == 0 {
			q.remoteErr = domain.ErrNoSources
			return
		}
		q.remote, q.remoteErr = q.discoverer.Collect(ctx, q.record.RemoteSources, q.platform, ports.ScanOptions{})
	})
	return q.remote, q.remoteErr
}

func isMissingVersionFile(err error) bool {
	return errors.Is(err, domain.ErrVersionFileMissing)
}
