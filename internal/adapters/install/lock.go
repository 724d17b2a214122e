package install

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenk/backoff"
	"github.com/cespare/xxhash/v2"
	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/zerr"
)

// LockPath returns the lock file guarding dest: <local>/.<full>.<xxhash64(dest)>.lock.
func LockPath(localDir string, v domain.Version, dest string) string {
	name := fmt.Sprintf(".%s.%016x%s", v.String(), xxhash.Sum64String(filepath.Clean(dest)), domain.LockFileExt)
	return filepath.Join(localDir, name)
}

// Lock is an exclusive install lock held through a file created with O_EXCL.
type Lock struct {
	path string
}

// AcquireLock creates the lock file at path, waiting with exponential backoff while another
// process holds it. A lock older than staleAge is considered abandoned and broken.
// Waiting stops when ctx ends or maxWait has elapsed.
func AcquireLock(ctx context.Context, path string, staleAge, maxWait time.Duration) (*Lock, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = maxWait
	b.Reset()

	for {
		f, err := os.OpenFile(fs.SanitizeLongPath(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			_ = f.Close()
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, iofs.ErrExist) {
			return nil, zerr.With(zerr.Wrap(err, "failed to create lock file"), "path", path)
		}

		if info, statErr := os.Stat(fs.SanitizeLongPath(path)); statErr == nil && time.Since(info.ModTime()) > staleAge {
			if breakStaleLock(path, staleAge) {
				continue
			}
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return nil, zerr.With(zerr.Wrap(domain.ErrLockTimeout, "install lock is held by another process"), "path", path)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// breakStaleLock moves an abandoned lock aside under a name unique to this process and removes
// it, reporting whether the lock path is free to retry. Waiters serialise on a guard file
// created with O_EXCL and re-check the age under it, so a lock created by a faster waiter
// after the break is never taken for the stale one.
func breakStaleLock(path string, staleAge time.Duration) bool {
	guard := path + ".break"
	g, err := os.OpenFile(fs.SanitizeLongPath(guard), os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		if info, statErr := os.Stat(fs.SanitizeLongPath(guard)); statErr == nil && time.Since(info.ModTime()) > staleAge {
			_ = os.Remove(fs.SanitizeLongPath(guard))
		}
		return false
	}
	_ = g.Close()
	defer func() { _ = os.Remove(fs.SanitizeLongPath(guard)) }()

	info, err := os.Stat(fs.SanitizeLongPath(path))
	if err != nil {
		return errors.Is(err, iofs.ErrNotExist)
	}
	if time.Since(info.ModTime()) <= staleAge {
		return false
	}
	aside := fmt.Sprintf("%s.stale-%d-%d", path, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(fs.SanitizeLongPath(path), fs.SanitizeLongPath(aside)); err != nil {
		return errors.Is(err, iofs.ErrNotExist)
	}
	_ = os.Remove(fs.SanitizeLongPath(aside))
	return true
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(fs.SanitizeLongPath(l.path)); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to release lock"), "path", l.path)
	}
	return nil
}
