// Package config provides the configuration loader for igniter.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only configuration schema version understood by the loader.
const SupportedVersion = "1"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the configuration at path. A missing file yields domain.DefaultConfig.
func (l *Loader) Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Info("no " + filepath.Base(path) + " found, bootstrapping " + domain.PlatformPackageName + " only")
		return domain.DefaultConfig(), nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	var file Ignitefile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Join(domain.ErrConfigInvalid, zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path))
	}

	return Parse(&file, filepath.Dir(path))
}

// Parse maps a decoded configuration to domain.Config.
// Relative local and install directories are resolved against baseDir.
func Parse(file *Ignitefile, baseDir string) (*domain.Config, error) {
	if file.Version != "" && file.Version != SupportedVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "unsupported config version"), "version", file.Version)
	}

	cfg := domain.DefaultConfig()
	if file.Platform != "" {
		cfg.Platform = file.Platform
	}
	if file.RetrieveLocally != nil {
		cfg.RetrieveLocally = *file.RetrieveLocally
	}

	names := make([]string, 0, len(file.Packages))
	for name := range file.Packages {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		pkg, err := parsePackage(name, file.Packages[name], cfg, baseDir)
		if err != nil {
			return nil, err
		}
		cfg.Packages = append(cfg.Packages, pkg)
	}

	return cfg, nil
}

func parsePackage(name string, dto PackageDTO, cfg *domain.Config, baseDir string) (domain.PackageConfig, error) {
	invalid := func(msg string) error {
		return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, msg), "package", name)
	}

	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
		return domain.PackageConfig{}, invalid("invalid package name")
	}
	if name == cfg.Platform {
		return domain.PackageConfig{}, invalid("package duplicates the platform package")
	}

	typ, err := domain.ParsePackageType(dto.Type)
	if err != nil {
		return domain.PackageConfig{}, errors.Join(domain.ErrConfigInvalid, zerr.With(err, "package", name))
	}
	if typ != domain.TypeAddOn {
		return domain.PackageConfig{}, invalid("only add-on packages may be configured")
	}

	if _, err := domain.ParseRequest(dto.Version); err != nil {
		return domain.PackageConfig{}, errors.Join(domain.ErrConfigInvalid, zerr.With(err, "package", name))
	}

	if dto.LocalDir == "" {
		return domain.PackageConfig{}, invalid("local_dir is required")
	}

	pkg := domain.PackageConfig{
		Name:            name,
		Type:            typ,
		LocalDir:        resolvePath(baseDir, dto.LocalDir),
		InstallDir:      resolvePath(baseDir, dto.InstallDir),
		Version:         strings.TrimSpace(dto.Version),
		RetrieveLocally: cfg.RetrieveLocally,
	}
	if dto.RetrieveLocally != nil {
		pkg.RetrieveLocally = *dto.RetrieveLocally
	}
	for _, remote := range dto.Remotes {
		if remote = strings.TrimSpace(remote); remote != "" {
			pkg.Remotes = append(pkg.Remotes, remote)
		}
	}

	return pkg, nil
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
