package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/igniter/internal/adapters/config"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), domain.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Success(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: "1"
platform: quadpype
retrieve_locally: false
packages:
  zeta_tools:
    local_dir: /studio/cache/zeta
    remotes: ["https://mirror.example/zeta/", "  "]
    version: latest
    retrieve_locally: true
  alpha_addon:
    type: add_on
    local_dir: cache/alpha
    install_dir: /opt/alpha
    version: 1.2.3
`)

	loader := config.NewLoader(mocks.NewMockLogger(gomock.NewController(t)))
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "quadpype", cfg.Platform)
	assert.False(t, cfg.RetrieveLocally)
	require.Len(t, cfg.Packages, 2)

	alpha := cfg.Packages[0]
	assert.Equal(t, "alpha_addon", alpha.Name, "packages are ordered by name")
	assert.Equal(t, domain.TypeAddOn, alpha.Type)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "cache", "alpha"), alpha.LocalDir)
	assert.Equal(t, "/opt/alpha", alpha.InstallDir)
	assert.Equal(t, "1.2.3", alpha.Version)
	assert.False(t, alpha.RetrieveLocally, "inherits the top-level flag")

	zeta := cfg.Packages[1]
	assert.Equal(t, "zeta_tools", zeta.Name)
	assert.Equal(t, []string{"https://mirror.example/zeta/"}, zeta.Remotes)
	assert.Equal(t, "latest", zeta.Version)
	assert.True(t, zeta.RetrieveLocally)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any())

	cfg, err := config.NewLoader(log).Load(filepath.Join(t.TempDir(), domain.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"malformed yaml":      "packages: [",
		"unknown version":     `version: "2"`,
		"bad type":            "packages:\n  a:\n    type: plugin\n    local_dir: /x\n",
		"platform type":       "packages:\n  a:\n    type: package\n    local_dir: /x\n",
		"duplicates platform": "packages:\n  quadpype:\n    local_dir: /x\n",
		"bad version":         "packages:\n  a:\n    local_dir: /x\n    version: \"1.2\"\n",
		"missing local dir":   "packages:\n  a:\n    version: latest\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			loader := config.NewLoader(mocks.NewMockLogger(gomock.NewController(t)))
			_, err := loader.Load(writeConfig(t, content))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfigInvalid)
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(&config.Ignitefile{}, "/base")
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformPackageName, cfg.Platform)
	assert.True(t, cfg.RetrieveLocally)
	assert.Empty(t, cfg.Packages)
}
