// Package testutil builds version trees and archives for tests.
package testutil

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// VersionFile returns a version.py body exporting v.
func VersionFile(v string) string {
	return fmt.Sprintf("__version__ = \"%s\"\n", v)
}

// WriteFile writes content at root/rel, creating parent directories.
func WriteFile(t testing.TB, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

// VersionTree writes an unpacked version of pkg at root with a valid checksums file.
// extra adds files relative to root; they are listed in the manifest unless named LICENSE.
func VersionTree(t testing.TB, root, pkg, version string, extra map[string]string) {
	t.Helper()

	files := map[string]string{
		pkg + "/version.py":  VersionFile(version),
		pkg + "/__init__.py": "",
	}
	for k, v := range extra {
		files[k] = v
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	var manifest strings.Builder
	for _, name := range names {
		WriteFile(t, root, name, files[name])
		if name == "LICENSE" {
			continue
		}
		sum := sha256.Sum256([]byte(files[name]))
		fmt.Fprintf(&manifest, "%s:%s\n", hex.EncodeToString(sum[:]), name)
	}
	WriteFile(t, root, "checksums", manifest.String())
}

// ZipDir archives every file under dir into out with slash-separated names.
func ZipDir(t testing.TB, dir, out string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o750))
	f, err := os.Create(out)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	err = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

// VersionZip builds a version tree in a scratch directory and archives it at out.
func VersionZip(t testing.TB, out, pkg, version string, extra map[string]string) {
	t.Helper()
	dir := t.TempDir()
	VersionTree(t, dir, pkg, version, extra)
	ZipDir(t, dir, out)
}
