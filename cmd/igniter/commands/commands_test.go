package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/igniter/cmd/igniter/commands"
	"go.trai.ch/igniter/internal/app"
	"go.trai.ch/igniter/internal/build"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/igniter/internal/engine/registry"
)

type mockApp struct {
	bootstrapFunc func(ctx context.Context, opts app.BootstrapOptions) (*app.BootstrapResult, error)
	versionsFunc  func(ctx context.Context, opts app.VersionsOptions) (*app.VersionsResult, error)
	packFunc      func(ctx context.Context, src, out string, opts ports.PackOptions) (*domain.Manifest, error)
	verifyFunc    func(ctx context.Context, dir, pkg string) error
	statusFunc    func(ctx context.Context, configPath string) (*app.Status, error)
}

func (m *mockApp) Bootstrap(ctx context.Context, opts app.BootstrapOptions) (*app.BootstrapResult, error) {
	return m.bootstrapFunc(ctx, opts)
}

func (m *mockApp) Versions(ctx context.Context, opts app.VersionsOptions) (*app.VersionsResult, error) {
	return m.versionsFunc(ctx, opts)
}

func (m *mockApp) Pack(ctx context.Context, src, out string, opts ports.PackOptions) (*domain.Manifest, error) {
	return m.packFunc(ctx, src, out, opts)
}

func (m *mockApp) Verify(ctx context.Context, dir, pkg string) error {
	return m.verifyFunc(ctx, dir, pkg)
}

func (m *mockApp) Status(ctx context.Context, configPath string) (*app.Status, error) {
	return m.statusFunc(ctx, configPath)
}

func execute(t *testing.T, a commands.Application, args ...string) (string, string, error) {
	t.Helper()
	cli := commands.New(a)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cli.SetOutput(stdout, stderr)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCommands_Bootstrap(t *testing.T) {
	t.Parallel()

	manager := registry.NewManager()
	manager.Add(&domain.PackageHandler{
		Name:           "quadpype",
		Type:           domain.TypePackage,
		RunningVersion: domain.MustParseVersion("3.1.0").WithLocation("/cache/3.1/3.1.0"),
		State:          domain.StateUsingLocal,
	})
	result := &app.BootstrapResult{
		Manager:  manager,
		Platform: "quadpype",
		Env: map[string]string{
			"QUADPYPE_VERSION": "3.1.0",
			"PYTHONPATH":       "/cache/3.1/3.1.0",
		},
	}

	t.Run("wires flags correctly", func(t *testing.T) {
		t.Parallel()
		var captured app.BootstrapOptions
		mock := &mockApp{bootstrapFunc: func(_ context.Context, opts app.BootstrapOptions) (*app.BootstrapResult, error) {
			captured = opts
			return result, nil
		}}

		out, _, err := execute(t, mock, "bootstrap", "--config", "studio.yaml", "--use-version", "3.1.0")
		require.NoError(t, err)
		assert.Equal(t, app.BootstrapOptions{ConfigPath: "studio.yaml", UseVersion: "3.1.0"}, captured)
		assert.Equal(t, "quadpype 3.1.0 (using-local) /cache/3.1/3.1.0\n", out)
	})

	t.Run("prints the environment sorted", func(t *testing.T) {
		t.Parallel()
		mock := &mockApp{bootstrapFunc: func(_ context.Context, opts app.BootstrapOptions) (*app.BootstrapResult, error) {
			assert.Equal(t, commands.DefaultConfigPath, opts.ConfigPath)
			return result, nil
		}}

		out, _, err := execute(t, mock, "bootstrap", "--print-env")
		require.NoError(t, err)
		assert.Equal(t, "PYTHONPATH=/cache/3.1/3.1.0\nQUADPYPE_VERSION=3.1.0\n", out)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		t.Parallel()
		mock := &mockApp{bootstrapFunc: func(context.Context, app.BootstrapOptions) (*app.BootstrapResult, error) {
			return nil, domain.ErrVersionIncompatible
		}}

		_, _, err := execute(t, mock, "bootstrap")
		assert.ErrorIs(t, err, domain.ErrVersionIncompatible)
	})
}

func TestCommands_Versions(t *testing.T) {
	t.Parallel()

	var captured app.VersionsOptions
	mock := &mockApp{versionsFunc: func(_ context.Context, opts app.VersionsOptions) (*app.VersionsResult, error) {
		captured = opts
		return &app.VersionsResult{
			Package: "addon",
			Remote:  []domain.Version{domain.MustParseVersion("0.4.0").WithLocation("/mnt/addons/0.4.0.zip")},
			Failures: []ports.SourceFailure{
				{Source: "https://down.example/", Err: errors.New("connection refused")},
			},
		}, nil
	}}

	out, errOut, err := execute(t, mock, "versions", "--remote", "-p", "addon")
	require.NoError(t, err)

	assert.Equal(t, app.VersionsOptions{ConfigPath: commands.DefaultConfigPath, Package: "addon", Remote: true}, captured)
	assert.Equal(t, "remote:\n  0.4.0\t/mnt/addons/0.4.0.zip\n", out)
	assert.Equal(t, "unreachable https://down.example/: connection refused\n", errOut)
}

func TestCommands_VersionsBothSidesByDefault(t *testing.T) {
	t.Parallel()

	mock := &mockApp{versionsFunc: func(context.Context, app.VersionsOptions) (*app.VersionsResult, error) {
		return &app.VersionsResult{Package: "quadpype"}, nil
	}}

	out, _, err := execute(t, mock, "versions")
	require.NoError(t, err)
	assert.Equal(t, "local:\n  (none)\nremote:\n  (none)\n", out)
}

func TestCommands_Pack(t *testing.T) {
	t.Parallel()

	mock := &mockApp{packFunc: func(_ context.Context, src, out string, opts ports.PackOptions) (*domain.Manifest, error) {
		assert.Equal(t, "./repo", src)
		assert.Equal(t, "./dist/3.1.0.zip", out)
		assert.Equal(t, ports.PackOptions{
			Package: "quadpype",
			Include: []string{"quadpype/**"},
			Exclude: []string{"*.pyc", "__pycache__"},
		}, opts)
		m := &domain.Manifest{}
		m.Add("aa", "quadpype/version.py")
		m.Add("bb", "quadpype/__init__.py")
		return m, nil
	}}

	out, _, err := execute(t, mock, "pack", "./repo", "./dist/3.1.0.zip",
		"--include", "quadpype/**", "--exclude", "*.pyc", "--exclude", "__pycache__")
	require.NoError(t, err)
	assert.Equal(t, "packed 2 files into ./dist/3.1.0.zip\n", out)
}

func TestCommands_PackRequiresTwoArgs(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, &mockApp{}, "pack", "./repo")
	require.Error(t, err)
}

func TestCommands_Verify(t *testing.T) {
	t.Parallel()

	mock := &mockApp{verifyFunc: func(_ context.Context, dir, pkg string) error {
		if pkg != "addon" {
			return domain.ErrIntegrity
		}
		assert.Equal(t, "/cache/addon/0.4/0.4.0", dir)
		return nil
	}}

	out, _, err := execute(t, mock, "verify", "/cache/addon/0.4/0.4.0", "--package", "addon")
	require.NoError(t, err)
	assert.Equal(t, "ok /cache/addon/0.4/0.4.0\n", out)

	_, _, err = execute(t, mock, "verify", "/cache/3.1/3.1.0")
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestCommands_Status(t *testing.T) {
	t.Parallel()

	mock := &mockApp{statusFunc: func(_ context.Context, configPath string) (*app.Status, error) {
		assert.Equal(t, "studio.yaml", configPath)
		return &app.Status{
			Version:          domain.MustParseVersion("3.1.0"),
			RunningFromBuild: true,
			NoPolicy:         true,
			StudioLatest:     registry.Unknown,
			HigherThanLatest: registry.Unknown,
		}, nil
	}}

	out, _, err := execute(t, mock, "status", "-c", "studio.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "version:             3.1.0\n")
	assert.Contains(t, out, "build version:       unknown\n")
	assert.Contains(t, out, "running from build:  yes\n")
	assert.Contains(t, out, "studio policy:       no\n")
	assert.Contains(t, out, "studio latest:       unknown\n")
}

func TestCommands_Version(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "igniter version "+build.Version+"\n", out)
}
