// Package install places versions into the local cache: it downloads, copies and unpacks them
// next to their destination and moves them into place only after validation.
package install

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/igniter/internal/adapters/discovery"
	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

const downloadMarker = ".download-"

var _ ports.Retriever = (*Retriever)(nil)

// Retriever implements retrieve-and-install into <local>/<MAJOR.MINOR>/<full>.
type Retriever struct {
	archiver ports.Archiver
	verifier ports.Verifier
	fetcher  ports.Fetcher
	logger   ports.Logger
	lockWait time.Duration
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLockWait bounds how long Retrieve waits for another process's install lock.
func WithLockWait(d time.Duration) Option {
	return func(r *Retriever) {
		r.lockWait = d
	}
}

// NewRetriever creates a new Retriever.
func NewRetriever(
	archiver ports.Archiver,
	verifier ports.Verifier,
	fetcher ports.Fetcher,
	logger ports.Logger,
	opts ...Option,
) *Retriever {
	r := &Retriever{
		archiver: archiver,
		verifier: verifier,
		fetcher:  fetcher,
		logger:   logger,
		lockWait: domain.StaleLockAge,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns req.Version located at its unpacked directory under req.LocalDir,
// retrieving it first when that directory does not exist yet.
func (r *Retriever) Retrieve(ctx context.Context, req ports.RetrieveRequest) (domain.Version, error) {
	v := req.Version
	if req.Package == "" {
		req.Package = domain.PlatformPackageName
	}
	dest := domain.VersionDir(req.LocalDir, v)

	if isDir(dest) {
		return v.WithLocation(dest), nil
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(fs.SanitizeLongPath(parent), domain.DirPerm); err != nil {
		return domain.Version{}, ioError(zerr.With(zerr.Wrap(err, "failed to create version directory"), "path", parent))
	}

	lock, err := AcquireLock(ctx, LockPath(req.LocalDir, v, dest), domain.StaleLockAge, r.lockWait)
	if err != nil {
		return domain.Version{}, ioError(err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn(err.Error())
		}
	}()

	if isDir(dest) {
		return v.WithLocation(dest), nil
	}
	r.prune(parent, v)

	switch {
	case v.DownloadRequired():
		err = r.retrieveRemote(ctx, req, dest)
	case v.IsArchive():
		err = r.retrieveArchive(ctx, req, dest)
	case v.IsDir():
		err = r.install(ctx, req, dest, func(tmp string) error {
			return r.copyTree(ctx, req, tmp)
		})
	default:
		err = zerr.With(zerr.Wrap(domain.ErrVersionNotFound, "version has no location"), "version", v.String())
	}
	if err != nil {
		return domain.Version{}, err
	}

	return v.WithLocation(dest), nil
}

// retrieveRemote downloads the archive, keeps it as <full>.zip and unpacks it.
// An integrity failure of the downloaded body is reported as both a retrieval and an integrity error.
func (r *Retriever) retrieveRemote(ctx context.Context, req ports.RetrieveRequest, dest string) error {
	archive := domain.VersionArchive(req.LocalDir, req.Version)
	if err := r.stage(ctx, archive, func(tmp io.Writer) error {
		return r.download(ctx, req, tmp)
	}); err != nil {
		return ioError(err)
	}

	err := r.unpack(ctx, req, archive, dest)
	if err != nil {
		_ = os.Remove(fs.SanitizeLongPath(archive))
		if errors.Is(err, domain.ErrRetrieveIO) {
			return err
		}
		return errors.Join(domain.ErrRetrieveIO, err)
	}
	return nil
}

// retrieveArchive unpacks an archive found on disk. Archives outside the local cache are
// first copied to <full>.zip; the copy is dropped when it does not unpack cleanly.
func (r *Retriever) retrieveArchive(ctx context.Context, req ports.RetrieveRequest, dest string) error {
	source := req.Version.Location
	if !within(req.LocalDir, source) {
		archive := domain.VersionArchive(req.LocalDir, req.Version)
		if err := r.stage(ctx, archive, func(tmp io.Writer) error {
			return r.copyArchive(ctx, source, tmp)
		}); err != nil {
			return ioError(err)
		}
		if err := r.unpack(ctx, req, archive, dest); err != nil {
			_ = os.Remove(fs.SanitizeLongPath(archive))
			return err
		}
		return nil
	}
	return r.unpack(ctx, req, source, dest)
}

func (r *Retriever) unpack(ctx context.Context, req ports.RetrieveRequest, archive, dest string) error {
	return r.install(ctx, req, dest, func(tmp string) error {
		var done int64
		return r.archiver.Extract(ctx, archive, tmp, func(string) {
			done++
			emit(req, domain.Event{Kind: domain.EventProgress, Message: "unpacking", Done: done, Total: -1})
		})
	})
}

// install fills a temporary sibling of dest, validates it and renames it into place.
// The temporary directory is removed on any failure.
func (r *Retriever) install(ctx context.Context, req ports.RetrieveRequest, dest string, populate func(tmp string) error) (err error) {
	parent := filepath.Dir(dest)
	tmp, err := os.MkdirTemp(fs.SanitizeLongPath(parent), req.Version.String()+domain.TempSuffix+"*")
	if err != nil {
		return ioError(zerr.With(zerr.Wrap(err, "failed to create staging directory"), "path", parent))
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(tmp)
		}
	}()

	if err := populate(tmp); err != nil {
		return ioError(err)
	}

	if !req.SkipValidation {
		if err := r.validate(ctx, req, tmp); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(fs.SanitizeLongPath(dest)); err != nil {
		return ioError(zerr.With(zerr.Wrap(err, "failed to clear destination"), "path", dest))
	}
	if err := os.Rename(tmp, fs.SanitizeLongPath(dest)); err != nil {
		return ioError(zerr.With(zerr.Wrap(err, "failed to move version into place"), "path", dest))
	}
	return nil
}

// validate checks the checksums manifest and that version.py reports the requested version.
func (r *Retriever) validate(ctx context.Context, req ports.RetrieveRequest, root string) error {
	if err := r.verifier.VerifyDir(ctx, root, req.Package); err != nil {
		if ctx.Err() != nil {
			return ioError(err)
		}
		return err
	}

	reported, err := discovery.ReadVersionFile(root, req.Package)
	if err != nil {
		return errors.Join(domain.ErrIntegrity, err)
	}
	if !reported.Equal(req.Version) {
		return errors.Join(domain.ErrIntegrity, zerr.With(zerr.With(
			zerr.Wrap(domain.ErrVersionFileMismatch, "installed package reports another version"),
			"expected", req.Version.String()), "reported", reported.String()))
	}
	return nil
}

// stage writes target through a temporary sibling file and renames it into place on success.
func (r *Retriever) stage(ctx context.Context, target string, write func(tmp io.Writer) error) (err error) {
	dir := filepath.Dir(target)
	f, err := os.CreateTemp(fs.SanitizeLongPath(dir), "."+strings.TrimSuffix(filepath.Base(target), domain.ArchiveExt)+downloadMarker+"*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create temporary file"), "path", dir)
	}
	tmpName := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close temporary file"), "path", tmpName)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, fs.SanitizeLongPath(target)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to store archive"), "path", target)
	}
	return nil
}

func (r *Retriever) download(ctx context.Context, req ports.RetrieveRequest, w io.Writer) error {
	url := req.Version.Location
	artifact, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	defer artifact.Body.Close() //nolint:errcheck // Read-only body

	var done int64
	n, err := fs.CopyBuffer(ctx, w, artifact.Body, func(n int) {
		done += int64(n)
		emit(req, domain.Event{Kind: domain.EventProgress, Message: "downloading", Done: done, Total: artifact.Size})
	})
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return zerr.With(err, "url", url)
	}
	if artifact.Size >= 0 && n != artifact.Size {
		return zerr.With(zerr.With(zerr.New("download truncated"), "expected", artifact.Size), "got", n)
	}
	return nil
}

func (r *Retriever) copyArchive(ctx context.Context, source string, w io.Writer) error {
	in, err := os.Open(fs.SanitizeLongPath(source)) //nolint:gosec // Source comes from discovery
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open archive"), "path", source)
	}
	defer in.Close() //nolint:errcheck // Read-only

	if _, err := fs.CopyBuffer(ctx, w, in, nil); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return zerr.With(err, "path", source)
	}
	return nil
}

func (r *Retriever) copyTree(ctx context.Context, req ports.RetrieveRequest, tmp string) error {
	var done int64
	return fs.CopyTree(ctx, req.Version.Location, tmp, func(string) {
		done++
		emit(req, domain.Event{Kind: domain.EventProgress, Message: "copying", Done: done, Total: -1})
	})
}

// prune removes staging leftovers of v from interrupted runs. Callers hold the install lock.
func (r *Retriever) prune(parent string, v domain.Version) {
	entries, err := os.ReadDir(fs.SanitizeLongPath(parent))
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, v.String()+domain.TempSuffix) || strings.HasPrefix(name, "."+v.String()+downloadMarker) {
			p := filepath.Join(parent, name)
			if err := os.RemoveAll(fs.SanitizeLongPath(p)); err != nil {
				r.logger.Warn("failed to remove leftover " + p)
				continue
			}
			r.logger.Info("removed leftover " + p)
		}
	}
}

func emit(req ports.RetrieveRequest, ev domain.Event) {
	if req.Sink == nil {
		return
	}
	ev.Package = req.Package
	ev.State = domain.StateRetrieving
	ev.Version = req.Version
	req.Sink.Emit(ev)
}

func ioError(err error) error {
	if errors.Is(err, domain.ErrRetrieveIO) {
		return err
	}
	return errors.Join(domain.ErrRetrieveIO, err)
}

func isDir(p string) bool {
	info, err := os.Stat(fs.SanitizeLongPath(p))
	return err == nil && info.IsDir()
}

func within(root, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	return err == nil && filepath.IsLocal(rel)
}
