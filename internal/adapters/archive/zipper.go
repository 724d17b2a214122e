// Package archive implements package archives on top of zip files.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Archiver = (*Zipper)(nil)

// DefaultExcludes are never packaged.
var DefaultExcludes = []string{"__pycache__", "*.pyc"}

// Zipper creates and unpacks package archives.
type Zipper struct {
	walker *fs.Walker
}

// NewZipper creates a new Zipper.
func NewZipper(walker *fs.Walker) *Zipper {
	return &Zipper{walker: walker}
}

// Create packages src/<pkg> into out. The archive holds the package files, an optional
// root LICENSE and the checksums manifest of the package files.
// The archive is assembled in a temporary directory and moved to out once it reads back cleanly.
func (z *Zipper) Create(ctx context.Context, src, out string, opts ports.PackOptions) (*domain.Manifest, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = domain.PlatformPackageName
	}

	pkgDir := filepath.Join(src, pkg)
	info, err := os.Stat(fs.SanitizeLongPath(pkgDir))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "package directory not found"), "path", pkgDir)
	}
	if !info.IsDir() {
		return nil, zerr.With(zerr.New("package path is not a directory"), "path", pkgDir)
	}

	rules := fs.Rules{
		Include: opts.Include,
		Exclude: append(slices.Clone(DefaultExcludes), opts.Exclude...),
	}
	var files []string
	for rel, err := range z.walker.WalkFiles(pkgDir, rules) {
		if err != nil {
			return nil, err
		}
		files = append(files, rel)
	}
	slices.Sort(files)

	tmpDir, err := os.MkdirTemp("", "igniter-pack-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create temporary directory")
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck // Best effort cleanup

	tmpOut := filepath.Join(tmpDir, filepath.Base(out))
	manifest, err := z.write(ctx, tmpOut, src, pkg, files)
	if err != nil {
		return nil, err
	}

	if err := z.check(ctx, tmpOut); err != nil {
		return nil, err
	}

	if err := fs.MoveFile(ctx, tmpOut, out); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (z *Zipper) write(ctx context.Context, path, src, pkg string, files []string) (manifest *domain.Manifest, err error) {
	f, err := os.Create(path) //nolint:gosec // Path is inside our temp dir
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create archive"), "path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = zerr.Wrap(cerr, "failed to close archive")
		}
	}()

	zw := zip.NewWriter(f)
	manifest = &domain.Manifest{}

	for _, rel := range files {
		name := pkg + "/" + rel
		sum, err := addFile(ctx, zw, filepath.Join(src, pkg, filepath.FromSlash(rel)), name)
		if err != nil {
			return nil, err
		}
		manifest.Add(sum, name)
	}

	license := filepath.Join(src, domain.LicenseFileName)
	if _, err := os.Stat(fs.SanitizeLongPath(license)); err == nil {
		if _, err := addFile(ctx, zw, license, domain.LicenseFileName); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := manifest.WriteTo(&buf); err != nil {
		return nil, err
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: domain.ChecksumsFileName, Method: zip.Deflate})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to add checksums to archive")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, zerr.Wrap(err, "failed to write checksums to archive")
	}

	if err := zw.Close(); err != nil {
		return nil, zerr.Wrap(err, "failed to finalize archive")
	}
	return manifest, nil
}

// addFile stores the file at path as entry name and returns its SHA-256.
func addFile(ctx context.Context, zw *zip.Writer, path, name string) (string, error) {
	in, err := os.Open(fs.SanitizeLongPath(path)) //nolint:gosec // Path comes from the walked tree
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer in.Close() //nolint:errcheck // Read-only file

	info, err := in.Stat()
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to build archive header"), "path", path)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to add archive entry"), "entry", name)
	}

	digest := sha256.New()
	if _, err := fs.CopyBuffer(ctx, io.MultiWriter(w, digest), in, nil); err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", zerr.With(err, "entry", name)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// check reads every entry to EOF so the zip reader verifies each CRC-32.
func (z *Zipper) check(ctx context.Context, path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to reopen archive"), "path", path)
	}
	defer zr.Close() //nolint:errcheck // Read-only

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to open archive entry"), "entry", f.Name)
		}
		_, err = io.Copy(io.Discard, rc)
		_ = rc.Close()
		if err != nil {
			return zerr.With(zerr.Wrap(err, "archive entry is corrupt"), "entry", f.Name)
		}
	}
	return nil
}

// Extract unpacks archive into dest. Entries that would land outside dest are rejected.
func (z *Zipper) Extract(ctx context.Context, archive, dest string, onEntry func(name string)) error {
	zr, err := zip.OpenReader(fs.SanitizeLongPath(archive))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open archive"), "path", archive)
	}
	defer zr.Close() //nolint:errcheck // Read-only

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := entryTarget(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fs.SanitizeLongPath(target), domain.DirPerm); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", target)
			}
		} else if err := extractFile(ctx, f, target); err != nil {
			return err
		}

		if onEntry != nil {
			onEntry(f.Name)
		}
	}
	return nil
}

func entryTarget(dest, name string) (string, error) {
	rel := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if rel == "" || !filepath.IsLocal(rel) {
		return "", zerr.With(domain.ErrUnsafePath, "entry", name)
	}
	return filepath.Join(dest, rel), nil
}

func extractFile(ctx context.Context, f *zip.File, target string) (err error) {
	if err := os.MkdirAll(fs.SanitizeLongPath(filepath.Dir(target)), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", filepath.Dir(target))
	}

	rc, err := f.Open()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open archive entry"), "entry", f.Name)
	}
	defer rc.Close() //nolint:errcheck // Read-only

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = domain.FilePerm
	}
	out, err := os.OpenFile(fs.SanitizeLongPath(target), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm|0o600)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create file"), "path", target)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, "failed to close file"), "path", target)
		}
	}()

	if _, err := fs.CopyBuffer(ctx, out, rc, nil); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return zerr.With(err, "entry", f.Name)
	}
	return nil
}

// ReadFile returns the content of the entry name.
func (z *Zipper) ReadFile(archive, name string) ([]byte, error) {
	zr, err := zip.OpenReader(fs.SanitizeLongPath(archive))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open archive"), "path", archive)
	}
	defer zr.Close() //nolint:errcheck // Read-only

	data, err := iofs.ReadFile(zr, name)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, zerr.With(zerr.With(domain.ErrArtifactNotFound, "entry", name), "path", archive)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read archive entry"), "entry", name)
	}
	return data, nil
}
