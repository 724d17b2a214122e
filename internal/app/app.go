// Package app implements the application layer for igniter.
package app

import (
	"context"
	"os"
	"slices"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/igniter/internal/engine/bootstrap"
	"go.trai.ch/igniter/internal/engine/registry"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	gateway      ports.PolicyGateway
	engine       *bootstrap.Engine
	discoverer   ports.Discoverer
	archiver     ports.Archiver
	verifier     ports.Verifier
	sink         ports.EventSink
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	gateway ports.PolicyGateway,
	engine *bootstrap.Engine,
	discoverer ports.Discoverer,
	archiver ports.Archiver,
	verifier ports.Verifier,
	sink ports.EventSink,
	logger ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		gateway:      gateway,
		engine:       engine,
		discoverer:   discoverer,
		archiver:     archiver,
		verifier:     verifier,
		sink:         sink,
		logger:       logger,
	}
}

// BootstrapOptions configures a bootstrap run.
type BootstrapOptions struct {
	ConfigPath string
	// UseVersion overrides the platform request ("", "latest" or a literal version).
	UseVersion string
	// ExposeProcess applies the resulting environment to the running process.
	ExposeProcess bool
}

// BootstrapResult is the outcome of a bootstrap run.
type BootstrapResult struct {
	Manager *registry.Manager
	Record  *domain.PolicyRecord
	// Platform is the name of the platform package in Manager.
	Platform string
	// Env holds the variables a child process needs, PYTHONPATH included.
	Env map[string]string
}

// Bootstrap resolves and places the platform package and every configured add-on,
// registers them in a fresh default registry and computes the environment exposing them.
func (a *App) Bootstrap(ctx context.Context, opts BootstrapOptions) (*BootstrapResult, error) {
	// 1. Load the configuration
	cfg, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	// 2. Read the policy once
	record, err := a.gateway.Load(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load studio policy")
	}

	// 3. Build the handlers, platform first
	specs, err := packageSpecs(cfg, record, opts.UseVersion)
	if err != nil {
		return nil, err
	}

	manager := registry.NewManager()
	handlers := make([]*domain.PackageHandler, 0, len(specs))
	for _, spec := range specs {
		h, err := a.engine.NewPackageHandler(ctx, spec, a.sink)
		if err != nil {
			return nil, err
		}
		manager.Add(h)
		handlers = append(handlers, h)
	}
	registry.SetDefault(manager)

	// 4. Expose add-ons first so the platform paths lead PYTHONPATH
	env := map[string]string{bootstrap.PythonPathVar: os.Getenv(bootstrap.PythonPathVar)}
	slices.Reverse(handlers)
	for _, h := range handlers {
		bootstrap.Expose(h, env)
		if opts.ExposeProcess {
			if err := bootstrap.ExposeProcess(h); err != nil {
				return nil, zerr.Wrap(err, "failed to update process environment")
			}
		}
	}

	return &BootstrapResult{
		Manager:  manager,
		Record:   record,
		Platform: cfg.Platform,
		Env:      env,
	}, nil
}

// packageSpecs maps the configuration and the policy record to handler inputs.
func packageSpecs(cfg *domain.Config, record *domain.PolicyRecord, useVersion string) ([]domain.PackageSpec, error) {
	request := record.Request
	if useVersion != "" {
		req, err := domain.ParseRequest(useVersion)
		if err != nil {
			return nil, err
		}
		request = req
	}

	specs := make([]domain.PackageSpec, 0, len(cfg.Packages)+1)
	specs = append(specs, domain.PackageSpec{
		Name:            cfg.Platform,
		Type:            domain.TypePackage,
		LocalDir:        record.LocalDir,
		RemoteSources:   record.RemoteSources,
		Request:         request,
		RetrieveLocally: cfg.RetrieveLocally,
		InstallDir:      record.Env.Root,
		SkipValidation:  record.Env.DontValidateVersion,
		NoPolicy:        record.NoPolicy,
	})

	for _, pkg := range cfg.Packages {
		req, err := domain.ParseRequest(pkg.Version)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid package version"), "package", pkg.Name)
		}
		specs = append(specs, domain.PackageSpec{
			Name:            pkg.Name,
			Type:            pkg.Type,
			LocalDir:        pkg.LocalDir,
			RemoteSources:   pkg.Remotes,
			Request:         req,
			RetrieveLocally: pkg.RetrieveLocally,
			InstallDir:      pkg.InstallDir,
			SkipValidation:  record.Env.DontValidateVersion,
			NoPolicy:        record.NoPolicy,
		})
	}
	return specs, nil
}

// VersionsOptions selects the package and the sources to list.
type VersionsOptions struct {
	ConfigPath string
	// Package defaults to the platform package.
	Package string
	Local   bool
	Remote  bool
}

// VersionsResult lists the versions discovered for one package.
type VersionsResult struct {
	Package  string
	Local    []domain.Version
	Remote   []domain.Version
	Failures []ports.SourceFailure
}

// Versions lists the versions available in the local cache and the remotes of a package.
// When neither Local nor Remote is set both are listed.
func (a *App) Versions(ctx context.Context, opts VersionsOptions) (*VersionsResult, error) {
	cfg, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	record, err := a.gateway.Load(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load studio policy")
	}

	specs, err := packageSpecs(cfg, record, "")
	if err != nil {
		return nil, err
	}

	name := opts.Package
	if name == "" {
		name = cfg.Platform
	}
	idx := slices.IndexFunc(specs, func(s domain.PackageSpec) bool { return s.Name == name })
	if idx < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "package is not configured"), "package", name)
	}
	spec := specs[idx]

	listLocal, listRemote := opts.Local, opts.Remote
	if !listLocal && !listRemote {
		listLocal, listRemote = true, true
	}

	res := &VersionsResult{Package: name}
	scan := ports.ScanOptions{PriorityToArchives: spec.RetrieveLocally}

	if listLocal && spec.LocalDir != "" {
		if _, statErr := os.Stat(spec.LocalDir); statErr == nil {
			local, err := a.discoverer.Collect(ctx, []string{spec.LocalDir}, name, scan)
			if err != nil {
				return nil, zerr.Wrap(err, "failed to scan local cache")
			}
			res.Local = local.Versions
		}
	}

	if listRemote && len(spec.RemoteSources) > 0 {
		remote, err := a.discoverer.Collect(ctx, spec.RemoteSources, name, scan)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to scan remote sources")
		}
		res.Remote = remote.Versions
		res.Failures = remote.Failures
	}

	return res, nil
}

// Pack builds a version archive of src at out and returns its manifest.
func (a *App) Pack(ctx context.Context, src, out string, opts ports.PackOptions) (*domain.Manifest, error) {
	manifest, err := a.archiver.Create(ctx, src, out, opts)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create package archive"), "src", src)
	}
	a.logger.Info("packed " + out)
	return manifest, nil
}

// Verify checks an unpacked version directory against its checksum manifest.
func (a *App) Verify(ctx context.Context, dir, pkg string) error {
	if pkg == "" {
		pkg = domain.PlatformPackageName
	}
	if err := a.verifier.VerifyDir(ctx, dir, pkg); err != nil {
		return err
	}
	a.logger.Info("verified " + dir)
	return nil
}

// Status is the answer to the platform queries after a bootstrap.
type Status struct {
	Version          domain.Version
	BuildVersion     domain.Version
	RunningFromBuild bool
	StagingEnabled   bool
	RunningStaging   bool
	NoPolicy         bool
	Expected         domain.Version
	StudioLatest     registry.Tristate
	HigherThanLatest registry.Tristate
}

// Status bootstraps and reports how the running platform version relates to the studio policy.
func (a *App) Status(ctx context.Context, configPath string) (*Status, error) {
	res, err := a.Bootstrap(ctx, BootstrapOptions{ConfigPath: configPath})
	if err != nil {
		return nil, err
	}

	q := registry.NewQueries(res.Manager, res.Record, a.discoverer, res.Platform)
	st := &Status{
		RunningFromBuild: q.RunningFromBuild(),
		StagingEnabled:   q.StagingEnabled(),
		NoPolicy:         res.Record.NoPolicy,
	}

	if st.Version, err = q.QuadPypeVersion(); err != nil {
		return nil, err
	}
	if st.BuildVersion, err = q.BuildVersion(); err != nil {
		return nil, zerr.Wrap(err, "failed to read installed build version")
	}
	if st.RunningStaging, err = q.RunningStaging(ctx); err != nil {
		return nil, err
	}
	if st.Expected, err = q.ExpectedVersion(ctx); err != nil {
		return nil, err
	}
	if st.StudioLatest, err = q.CurrentVersionStudioLatest(ctx); err != nil {
		return nil, err
	}
	if st.HigherThanLatest, err = q.CurrentVersionHigherThanExpected(ctx); err != nil {
		return nil, err
	}
	return st, nil
}
