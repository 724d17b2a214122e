package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/igniter/internal/adapters/fs"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func collect(t *testing.T, w *fs.Walker, root string, rules fs.Rules) []string {
	t.Helper()
	var got []string
	for rel, err := range w.WalkFiles(root, rules) {
		require.NoError(t, err)
		got = append(got, rel)
	}
	slices.Sort(got)
	return got
}

func TestWalker_WalkFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "quadpype/version.py", "__version__ = \"1.0.0\"\n")
	writeFile(t, root, "quadpype/lib/a.py", "a")
	writeFile(t, root, "quadpype/lib/__pycache__/a.cpython-39.pyc", "x")
	writeFile(t, root, "quadpype/lib/b.pyc", "x")
	writeFile(t, root, ".git/HEAD", "ref")
	writeFile(t, root, "LICENSE", "MIT")

	w := fs.NewWalker()

	all := collect(t, w, root, fs.Rules{})
	assert.Equal(t, []string{
		"LICENSE",
		"quadpype/lib/__pycache__/a.cpython-39.pyc",
		"quadpype/lib/a.py",
		"quadpype/lib/b.pyc",
		"quadpype/version.py",
	}, all)

	filtered := collect(t, w, root, fs.Rules{Exclude: []string{"__pycache__", "*.pyc"}})
	assert.Equal(t, []string{"LICENSE", "quadpype/lib/a.py", "quadpype/version.py"}, filtered)

	included := collect(t, w, root, fs.Rules{Include: []string{"quadpype/*.py"}})
	assert.Equal(t, []string{"quadpype/version.py"}, included)
}

func TestWalker_EarlyStop(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a", "1")
	writeFile(t, root, "b", "2")

	count := 0
	for _, err := range fs.NewWalker().WalkFiles(root, fs.Rules{}) {
		require.NoError(t, err)
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestWalker_MissingRoot(t *testing.T) {
	t.Parallel()

	var errs int
	for _, err := range fs.NewWalker().WalkFiles(filepath.Join(t.TempDir(), "missing"), fs.Rules{}) {
		if err != nil {
			errs++
		}
	}
	assert.Equal(t, 1, errs)
}

func TestHasher_SumFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "hello.txt", "hello")

	sum, err := fs.NewHasher().SumFile(context.Background(), filepath.Join(root, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)

	_, err = fs.NewHasher().SumFile(context.Background(), filepath.Join(root, "missing"))
	require.Error(t, err)
}

func TestHasher_Cancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "hello.txt", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.NewHasher().SumFile(ctx, filepath.Join(root, "hello.txt"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCopyTree(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeFile(t, src, "quadpype/version.py", "v")
	writeFile(t, src, "quadpype/lib/deep/x.py", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o750))

	dst := filepath.Join(t.TempDir(), "out")
	var copied []string
	require.NoError(t, fs.CopyTree(context.Background(), src, dst, func(rel string) {
		copied = append(copied, rel)
	}))

	slices.Sort(copied)
	assert.Equal(t, []string{"quadpype/lib/deep/x.py", "quadpype/version.py"}, copied)

	data, err := os.ReadFile(filepath.Join(dst, "quadpype", "lib", "deep", "x.py"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.DirExists(t, filepath.Join(dst, "empty"))
}

func TestCopyFile_Cancelled(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeFile(t, src, "a", "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := filepath.Join(t.TempDir(), "a")
	err := fs.CopyFile(ctx, filepath.Join(src, "a"), dst)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, dst)
}

func TestMoveFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a", "content")

	dst := filepath.Join(dir, "nested", "b")
	require.NoError(t, fs.MoveFile(context.Background(), filepath.Join(dir, "a"), dst))
	assert.NoFileExists(t, filepath.Join(dir, "a"))
	assert.FileExists(t, dst)
}

func TestSanitizeLongPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/tmp/x", fs.SanitizeLongPathFor("linux", "/tmp/x"))
	assert.Equal(t, `\\?\C:\very\long`, fs.SanitizeLongPathFor("windows", `\\?\C:\very\long`))
	assert.Equal(t, `\\?\UNC\server\share\x`, fs.SanitizeLongPathFor("windows", `\\server\share\x`))
	assert.Empty(t, fs.SanitizeLongPathFor("windows", ""))
}
