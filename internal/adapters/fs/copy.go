package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/zerr"
)

// CopyFile copies src to dst in fixed-size chunks, creating parent directories.
// The context is checked between chunks; a cancelled copy removes dst.
func CopyFile(ctx context.Context, src, dst string) (err error) {
	in, err := os.Open(SanitizeLongPath(src)) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open source file"), "path", src)
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	info, err := in.Stat()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat source file"), "path", src)
	}

	if err := os.MkdirAll(SanitizeLongPath(filepath.Dir(dst)), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", filepath.Dir(dst))
	}

	out, err := os.OpenFile(SanitizeLongPath(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create file"), "path", dst)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, "failed to close file"), "path", dst)
		}
		if err != nil {
			_ = os.Remove(SanitizeLongPath(dst))
		}
	}()

	if _, err = CopyBuffer(ctx, out, in, nil); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return zerr.With(err, "path", dst)
	}
	return nil
}

// CopyBuffer copies src to dst in HashBlockSize chunks, checking ctx before each read.
// onChunk, when set, receives the size of every written chunk.
func CopyBuffer(ctx context.Context, dst io.Writer, src io.Reader, onChunk func(n int)) (int64, error) {
	var written int64
	buf := make([]byte, domain.HashBlockSize)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, zerr.Wrap(werr, "failed to write data")
			}
			written += int64(n)
			if onChunk != nil {
				onChunk(n)
			}
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, zerr.Wrap(rerr, "failed to read data")
		}
	}
}

// CopyTree recursively copies the regular files and directories of src into dst.
// onFile, when set, is called with the slash-separated relative path of each copied file.
func CopyTree(ctx context.Context, src, dst string, onFile func(rel string)) error {
	root := SanitizeLongPath(src)
	return filepath.WalkDir(root, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to walk directory"), "path", p)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return zerr.Wrap(err, "failed to compute relative path")
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if err := os.MkdirAll(SanitizeLongPath(target), domain.DirPerm); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", target)
			}
		case d.Type().IsRegular():
			if err := CopyFile(ctx, p, target); err != nil {
				return err
			}
			if onFile != nil {
				onFile(filepath.ToSlash(rel))
			}
		}
		return nil
	})
}

// MoveFile renames src to dst, falling back to copy and delete across devices.
func MoveFile(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(SanitizeLongPath(filepath.Dir(dst)), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", filepath.Dir(dst))
	}
	if err := os.Rename(SanitizeLongPath(src), SanitizeLongPath(dst)); err == nil {
		return nil
	}
	if err := CopyFile(ctx, src, dst); err != nil {
		return err
	}
	if err := os.Remove(SanitizeLongPath(src)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove moved file"), "path", src)
	}
	return nil
}
