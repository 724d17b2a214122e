// Package integrity validates unpacked versions against their checksums manifest.
package integrity

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"

	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier checks a version root against its checksums file.
type Verifier struct {
	walker *fs.Walker
	hasher ports.Hasher
}

// NewVerifier creates a new Verifier.
func NewVerifier(walker *fs.Walker, hasher ports.Hasher) *Verifier {
	return &Verifier{walker: walker, hasher: hasher}
}

// VerifyDir validates the version rooted at root:
// the checksums file must exist, every listed file must exist with a matching hash,
// and every regular file under the <pkg> subtree must be listed. Files beside <pkg> at the
// root are only checked when listed.
// Failures are joined with domain.ErrIntegrity.
func (v *Verifier) VerifyDir(ctx context.Context, root, pkg string) error {
	if err := v.verify(ctx, root, pkg); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return errors.Join(domain.ErrIntegrity, err)
	}
	return nil
}

func (v *Verifier) verify(ctx context.Context, root, pkg string) error {
	info, err := os.Stat(fs.SanitizeLongPath(filepath.Join(root, pkg)))
	if err != nil || !info.IsDir() {
		return zerr.With(zerr.New("package directory missing from version"), "package", pkg)
	}

	manifest, err := readManifest(filepath.Join(root, domain.ChecksumsFileName))
	if err != nil {
		return err
	}

	listed := manifest.Index()
	for _, entry := range manifest.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !safeEntry(entry.Path) {
			return zerr.With(domain.ErrUnsafePath, "entry", entry.Path)
		}

		got, err := v.hasher.SumFile(ctx, filepath.Join(root, filepath.FromSlash(entry.Path)))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return zerr.With(zerr.Wrap(err, "listed file is missing or unreadable"), "entry", entry.Path)
		}
		if got != entry.Hash {
			return &domain.ChecksumError{Path: entry.Path, Expected: entry.Hash, Got: got}
		}
	}

	for rel, err := range v.walker.WalkFiles(filepath.Join(root, pkg), fs.Rules{}) {
		if err != nil {
			return err
		}
		entry := pkg + "/" + rel
		if _, ok := listed[entry]; !ok {
			return zerr.With(zerr.New("file not listed in checksums"), "entry", entry)
		}
	}
	return nil
}

func readManifest(p string) (*domain.Manifest, error) {
	f, err := os.Open(fs.SanitizeLongPath(p)) //nolint:gosec // Path is built from the version root
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrChecksumsMissing
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to open checksums"), "path", p)
	}
	defer f.Close() //nolint:errcheck // Read-only

	return domain.ParseManifest(f)
}

func safeEntry(p string) bool {
	return !path.IsAbs(p) && filepath.IsLocal(filepath.FromSlash(p))
}
