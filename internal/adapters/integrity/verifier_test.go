package integrity_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/adapters/integrity"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports/mocks"
	"go.trai.ch/igniter/internal/testutil"
	"go.uber.org/mock/gomock"
)

func newVerifier() *integrity.Verifier {
	return integrity.NewVerifier(fs.NewWalker(), fs.NewHasher())
}

func validTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.VersionTree(t, root, "quadpype", "1.2.3", map[string]string{
		"quadpype/lib/util.py": "print('hi')\n",
		"LICENSE":              "MIT\n",
	})
	return root
}

func TestVerifyDir_Valid(t *testing.T) {
	t.Parallel()

	require.NoError(t, newVerifier().VerifyDir(context.Background(), validTree(t), "quadpype"))
}

func TestVerifyDir_UnlistedRootFileIgnored(t *testing.T) {
	t.Parallel()

	root := validTree(t)
	testutil.WriteFile(t, root, "README.md", "notes\n")
	testutil.WriteFile(t, root, "docs/setup.txt", "steps\n")

	require.NoError(t, newVerifier().VerifyDir(context.Background(), root, "quadpype"))
}

func TestVerifyDir_UnlistedNestedPackageFile(t *testing.T) {
	t.Parallel()

	root := validTree(t)
	testutil.WriteFile(t, root, "quadpype/lib/deep/new.py", "x")

	err := newVerifier().VerifyDir(context.Background(), root, "quadpype")
	require.ErrorIs(t, err, domain.ErrIntegrity)
	assert.ErrorContains(t, err, "not listed")
}

func TestVerifyDir_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(t *testing.T, root string)
		want   error
		substr string
	}{
		{
			name: "checksums missing",
			mutate: func(t *testing.T, root string) {
				require.NoError(t, os.Remove(filepath.Join(root, "checksums")))
			},
			want: domain.ErrChecksumsMissing,
		},
		{
			name: "modified file",
			mutate: func(t *testing.T, root string) {
				testutil.WriteFile(t, root, "quadpype/lib/util.py", "print('tampered')\n")
			},
			want: domain.ErrChecksumMismatch,
		},
		{
			name: "listed file missing",
			mutate: func(t *testing.T, root string) {
				require.NoError(t, os.Remove(filepath.Join(root, "quadpype", "lib", "util.py")))
			},
			substr: "quadpype/lib/util.py",
		},
		{
			name: "unlisted file",
			mutate: func(t *testing.T, root string) {
				testutil.WriteFile(t, root, "quadpype/extra.py", "x")
			},
			substr: "not listed",
		},
		{
			name: "package dir missing",
			mutate: func(t *testing.T, root string) {
				require.NoError(t, os.Rename(filepath.Join(root, "quadpype"), filepath.Join(root, "other")))
			},
			substr: "package directory missing",
		},
		{
			name: "escaping manifest path",
			mutate: func(t *testing.T, root string) {
				testutil.WriteFile(t, root, "checksums",
					"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855:../outside.py\n")
			},
			substr: domain.ErrUnsafePath.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := validTree(t)
			tt.mutate(t, root)

			err := newVerifier().VerifyDir(context.Background(), root, "quadpype")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrIntegrity)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			if tt.substr != "" {
				assert.ErrorContains(t, err, tt.substr)
			}
		})
	}
}

func TestVerifyDir_ChecksumErrorDetails(t *testing.T) {
	t.Parallel()

	root := validTree(t)
	testutil.WriteFile(t, root, "quadpype/version.py", testutil.VersionFile("9.9.9"))

	err := newVerifier().VerifyDir(context.Background(), root, "quadpype")

	var mismatch *domain.ChecksumError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "quadpype/version.py", mismatch.Path)
	assert.NotEqual(t, mismatch.Expected, mismatch.Got)
}

func TestVerifyDir_HasherError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	hasher := mocks.NewMockHasher(ctrl)
	hasher.EXPECT().SumFile(gomock.Any(), gomock.Any()).Return("", errors.New("disk on fire"))

	v := integrity.NewVerifier(fs.NewWalker(), hasher)
	err := v.VerifyDir(context.Background(), validTree(t), "quadpype")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestVerifyDir_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newVerifier().VerifyDir(ctx, validTree(t), "quadpype")
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrIntegrity)
}
